package keys

import "errors"

var (
	// ErrMissingSecret indicates the shared secret is empty.
	ErrMissingSecret = errors.New("keys: secret key is required")

	// ErrMissingIVSeed indicates the default IV seed is empty.
	ErrMissingIVSeed = errors.New("keys: IV seed is required")

	// ErrKeyLength indicates an unsupported symmetric key length.
	ErrKeyLength = errors.New("keys: key length must be 16, 24 or 32 bytes")

	// ErrUnknownScheme indicates an unrecognised derivation scheme.
	ErrUnknownScheme = errors.New("keys: unknown derivation scheme")

	// ErrDerivation indicates HKDF expansion failed.
	ErrDerivation = errors.New("keys: derivation failed")

	// ErrEmptyPath indicates a path that normalises to the empty string.
	ErrEmptyPath = errors.New("keys: path is empty")
)
