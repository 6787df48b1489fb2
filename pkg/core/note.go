package core

import "time"

// TimestampLayout renders LastModified the way clients expect it: ISO-8601 in
// UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Note is what callers read and write: a logical path and its plaintext.
type Note struct {
	Path         string
	Content      string
	LastModified time.Time

	// Unreadable is set by Load when a record exists but could not be
	// decrypted. Content is empty in that case.
	Unreadable bool
}

// Record is the persisted unit. It never carries the plaintext path or content.
type Record struct {
	LookupKey    string    `json:"lookup_key"`
	Ciphertext   string    `json:"content"`
	LastModified time.Time `json:"last_modified"`
}
