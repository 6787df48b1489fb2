package codec

import "errors"

var (
	// ErrMissingMethod indicates no cipher method was configured.
	ErrMissingMethod = errors.New("codec: cipher method is required")

	// ErrUnknownMethod indicates an unsupported cipher method.
	ErrUnknownMethod = errors.New("codec: unknown cipher method")

	// ErrUnknownEncoding indicates an unsupported ciphertext encoding.
	ErrUnknownEncoding = errors.New("codec: unknown ciphertext encoding")

	// ErrKeySize indicates the key does not match the cipher method.
	ErrKeySize = errors.New("codec: invalid key size")

	// ErrIVSize indicates the IV is not one block long.
	ErrIVSize = errors.New("codec: invalid IV size")

	// ErrDecrypt indicates the blob could not be decoded, unpadded or read as text.
	ErrDecrypt = errors.New("codec: decryption failed")
)
