// Package keys derives the symmetric key, per-path initialization vectors and
// storage lookup keys used by pathnote.
//
// Two schemes are supported:
//
//	sha512-hex   key = hex(SHA-512(secret))[:keyLen]
//	             iv  = hex(SHA-512(context))[:16]
//	             lookup = hex(SHA-256(path))
//
//	hkdf-sha256  key = HKDF(secret, ivSeed, "pathnote-key")
//	             iv  = HKDF(secret, ivSeed, "pathnote-iv:" + context)
//	             lookup = hex(HMAC-SHA256(HKDF(secret, ivSeed, "pathnote-lookup"), path))
//
// The first scheme keeps stored data readable by deployments that wrote it with
// the hex-truncated derivation. The second yields full-entropy keys and a keyed
// lookup hash, so lookup keys cannot be confirmed without the secret.
//
// Both schemes are deterministic: the same path always maps to the same IV and
// lookup key. Paths are normalised with Normalize before any derivation.
package keys

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// IVLen is the length of the derived initialization vector (one AES block).
const IVLen = 16

// Scheme names a derivation scheme.
type Scheme string

const (
	SchemeSHA512Hex  Scheme = "sha512-hex"
	SchemeHKDFSHA256 Scheme = "hkdf-sha256"
)

const (
	hkdfKeyInfo    = "pathnote-key"
	hkdfIVInfo     = "pathnote-iv:"
	hkdfLookupInfo = "pathnote-lookup"
)

// Params configures a Deriver.
type Params struct {
	Secret string // shared secret key material
	IVSeed string // default IV context, also the HKDF salt
	KeyLen int    // symmetric key length in bytes (16, 24 or 32)
	Scheme Scheme // empty means SchemeSHA512Hex
}

// Deriver holds the process-wide key material. It is immutable after
// construction and safe for concurrent use.
type Deriver struct {
	scheme    Scheme
	secret    []byte
	ivSeed    string
	key       []byte
	lookupKey []byte // HMAC key, hkdf scheme only
}

// NewDeriver validates params and derives the symmetric key once.
func NewDeriver(p Params) (*Deriver, error) {
	if p.Secret == "" {
		return nil, ErrMissingSecret
	}
	if p.IVSeed == "" {
		return nil, ErrMissingIVSeed
	}
	switch p.KeyLen {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrKeyLength, p.KeyLen)
	}
	if p.Scheme == "" {
		p.Scheme = SchemeSHA512Hex
	}

	d := &Deriver{
		scheme: p.Scheme,
		secret: []byte(p.Secret),
		ivSeed: p.IVSeed,
	}

	switch p.Scheme {
	case SchemeSHA512Hex:
		d.key = []byte(sha512Hex(p.Secret)[:p.KeyLen])
	case SchemeHKDFSHA256:
		key, err := d.expand(hkdfKeyInfo, p.KeyLen)
		if err != nil {
			return nil, err
		}
		lookup, err := d.expand(hkdfLookupInfo, sha256.Size)
		if err != nil {
			return nil, err
		}
		d.key = key
		d.lookupKey = lookup
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, p.Scheme)
	}

	return d, nil
}

// ParseScheme maps a configuration string to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", SchemeSHA512Hex:
		return SchemeSHA512Hex, nil
	case SchemeHKDFSHA256:
		return SchemeHKDFSHA256, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
}

// Scheme reports the active derivation scheme.
func (d *Deriver) Scheme() Scheme { return d.scheme }

// Key returns a copy of the symmetric key.
func (d *Deriver) Key() []byte {
	return append([]byte(nil), d.key...)
}

// IV derives the initialization vector for context. An empty context uses
// the configured IV seed.
func (d *Deriver) IV(context string) []byte {
	if context == "" {
		context = d.ivSeed
	}

	if d.scheme == SchemeHKDFSHA256 {
		iv, err := d.expand(hkdfIVInfo+context, IVLen)
		if err == nil {
			return iv
		}
		// hkdf only fails past 255*HashLen bytes; IVLen is far below that.
		panic(err)
	}

	return []byte(sha512Hex(context)[:IVLen])
}

// LookupKey returns the storage identity for a logical path. The path is
// normalised first; ErrEmptyPath is returned when nothing remains.
func (d *Deriver) LookupKey(path string) (string, error) {
	norm, err := Normalize(path)
	if err != nil {
		return "", err
	}
	return d.lookup(norm), nil
}

func (d *Deriver) lookup(norm string) string {
	if d.scheme == SchemeHKDFSHA256 {
		mac := hmac.New(sha256.New, d.lookupKey)
		mac.Write([]byte(norm))
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// Address bundles everything derived from one normalised path.
type Address struct {
	Path      string // normalised logical path
	LookupKey string
	IV        []byte
}

// Resolve normalises path and derives its lookup key and IV in one step.
func (d *Deriver) Resolve(path string) (Address, error) {
	norm, err := Normalize(path)
	if err != nil {
		return Address{}, err
	}
	return Address{
		Path:      norm,
		LookupKey: d.lookup(norm),
		IV:        d.IV(norm),
	}, nil
}

func (d *Deriver) expand(info string, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, d.secret, []byte(d.ivSeed), []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivation, err)
	}
	return out, nil
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
