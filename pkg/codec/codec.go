// Package codec encrypts note content with AES in CBC mode and renders the
// ciphertext as storage-safe text.
//
// Encryption is deterministic for a given (plaintext, iv, key): the IV is
// supplied by the caller, derived from the note path, never generated here.
package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Method identifies a block cipher and mode, e.g. "aes-256-cbc".
type Method string

const (
	AES128CBC Method = "aes-128-cbc"
	AES192CBC Method = "aes-192-cbc"
	AES256CBC Method = "aes-256-cbc"
)

// ParseMethod maps a configuration string to a Method. Matching ignores case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case AES128CBC, AES192CBC, AES256CBC:
		return m, nil
	case "":
		return "", ErrMissingMethod
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// KeySize returns the key length in bytes required by the method.
func (m Method) KeySize() int {
	switch m {
	case AES128CBC:
		return 16
	case AES192CBC:
		return 24
	case AES256CBC:
		return 32
	}
	return 0
}

// IVSize returns the IV length in bytes (the AES block size).
func (m Method) IVSize() int { return aes.BlockSize }

// Encoding selects the textual form of the ciphertext.
type Encoding string

const (
	// EncodingBase64Hex is base64 over the lowercase hex ciphertext.
	// Records written by earlier deployments use this form.
	EncodingBase64Hex Encoding = "base64-hex"

	// EncodingBase64 is standard base64 over the raw ciphertext.
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding maps a configuration string to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingBase64Hex:
		return EncodingBase64Hex, nil
	case EncodingBase64:
		return EncodingBase64, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// Codec performs the encrypt/decrypt round trip. It holds no key material and
// is safe for concurrent use.
type Codec struct {
	method   Method
	encoding Encoding
}

// New returns a Codec for method and encoding. An empty encoding selects
// EncodingBase64Hex.
func New(method Method, encoding Encoding) (*Codec, error) {
	if method.KeySize() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if encoding == "" {
		encoding = EncodingBase64Hex
	}
	if encoding != EncodingBase64Hex && encoding != EncodingBase64 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
	return &Codec{method: method, encoding: encoding}, nil
}

// Method reports the configured cipher method.
func (c *Codec) Method() Method { return c.method }

// Encoding reports the configured text encoding.
func (c *Codec) Encoding() Encoding { return c.encoding }

// Encrypt seals plaintext and returns the encoded blob.
func (c *Codec) Encrypt(plaintext string, iv, key []byte) (string, error) {
	block, err := c.block(iv, key)
	if err != nil {
		return "", err
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return c.encode(ciphertext), nil
}

// Decrypt opens a blob produced by Encrypt with the same iv and key.
//
// A wrong key or IV yields ErrDecrypt when the padding or the recovered text
// is invalid. CBC has no authentication tag, so a wrong IV with the right key
// only corrupts the first block; callers must not rely on an error in that case.
func (c *Codec) Decrypt(blob string, iv, key []byte) (string, error) {
	block, err := c.block(iv, key)
	if err != nil {
		return "", err
	}

	ciphertext, err := c.decode(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrDecrypt)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, err = unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecrypt)
	}
	return string(plain), nil
}

func (c *Codec) block(iv, key []byte) (cipher.Block, error) {
	if len(key) != c.method.KeySize() {
		return nil, fmt.Errorf("%w: got %d bytes, %s needs %d", ErrKeySize, len(key), c.method, c.method.KeySize())
	}
	if len(iv) != c.method.IVSize() {
		return nil, fmt.Errorf("%w: got %d bytes", ErrIVSize, len(iv))
	}
	return aes.NewCipher(key)
}

func (c *Codec) encode(ciphertext []byte) string {
	if c.encoding == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(ciphertext)
	}
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(ciphertext)))
}

func (c *Codec) decode(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, err
	}
	if c.encoding == EncodingBase64 {
		return raw, nil
	}
	return hex.DecodeString(string(raw))
}

// pad applies PKCS#7 padding.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips and verifies PKCS#7 padding.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecrypt)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
		}
	}
	return data[:len(data)-n], nil
}
