package core

import "errors"

// Common errors.
var (
	// ErrInvalidInput is returned before any crypto or store work when the
	// path is missing, blank or reserved.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned by a RecordStore when no record has the key.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by RecordStore.Insert when the key is taken.
	ErrConflict = errors.New("record already exists")

	// ErrStoreUnavailable wraps connection, configuration and query failures
	// of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDecryptionUnavailable marks ciphertext that could not be recovered.
	ErrDecryptionUnavailable = errors.New("content unavailable")

	// ErrNotSupported is returned when the store lacks an optional capability.
	ErrNotSupported = errors.New("operation not supported by store")
)
