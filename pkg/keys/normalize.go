package keys

import "strings"

// Normalize returns the canonical form of a logical path. It is the only
// path rule used for lookup keys and IV contexts, on both load and save.
//
//   - surrounding whitespace is trimmed
//   - backslashes become forward slashes
//   - leading and trailing slashes are removed
//   - runs of slashes collapse to one
//
// Slashes are preserved, so "notes/todo" and "notes-todo" are distinct paths.
// Segment contents, including "." and "..", are kept verbatim: a path is an
// opaque name, not a filesystem location.
func Normalize(path string) (string, error) {
	p := strings.TrimSpace(path)
	p = strings.ReplaceAll(p, `\`, "/")

	segments := strings.Split(p, "/")
	kept := segments[:0]
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "", ErrEmptyPath
	}
	return strings.Join(kept, "/"), nil
}
