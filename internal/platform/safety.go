package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// devDirName is the sandbox directory under os.TempDir().
const devDirName = "pathnote-dev"

// IsDevRun checks if the current process is running via `go run` or `go test`.
// Both build binaries in temporary directories; test binaries end in ".test".
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}

	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveStorePath determines where a file-backed store actually lives.
// With forceTemp, paths outside the system temp directory are re-rooted under
// {tmp}/pathnote-dev/{base name}; paths already inside it are trusted as is.
func ResolveStorePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && !strings.HasPrefix(rel, "..") && filepath.IsAbs(clean) {
		return clean
	}

	subName := filepath.Base(clean)
	if userPath == "" || subName == "." || subName == string(os.PathSeparator) {
		subName = "default"
	}
	return filepath.Join(os.TempDir(), devDirName, subName)
}
