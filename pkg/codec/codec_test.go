package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helper functions ---

func testKey(n int) []byte { return []byte(strings.Repeat("k", n)) }

func testIV(s string) []byte {
	iv := []byte(strings.Repeat(s, aes.BlockSize))
	return iv[:aes.BlockSize]
}

func newTestCodec(t *testing.T, m Method, e Encoding) *Codec {
	t.Helper()
	c, err := New(m, e)
	require.NoError(t, err)
	return c
}

// --- ParseMethod / ParseEncoding ---

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr error
	}{
		{"aes-256-cbc", AES256CBC, nil},
		{"AES-128-CBC", AES128CBC, nil},
		{" aes-192-cbc ", AES192CBC, nil},
		{"", "", ErrMissingMethod},
		{"aes-256-gcm", "", ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethod_Sizes(t *testing.T) {
	assert.Equal(t, 16, AES128CBC.KeySize())
	assert.Equal(t, 24, AES192CBC.KeySize())
	assert.Equal(t, 32, AES256CBC.KeySize())
	assert.Equal(t, 0, Method("des").KeySize())
	assert.Equal(t, 16, AES256CBC.IVSize())
}

func TestParseEncoding(t *testing.T) {
	e, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingBase64Hex, e)

	e, err = ParseEncoding("base64")
	require.NoError(t, err)
	assert.Equal(t, EncodingBase64, e)

	_, err = ParseEncoding("ascii85")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("des-cbc", "")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = New(AES256CBC, "uu")
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	c, err := New(AES256CBC, "")
	require.NoError(t, err)
	assert.Equal(t, EncodingBase64Hex, c.Encoding())
}

// --- Round trip ---

func TestRoundTrip(t *testing.T) {
	plaintexts := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single char", "a"},
		{"one block minus one", strings.Repeat("x", 15)},
		{"exactly one block", strings.Repeat("x", 16)},
		{"sentence", "Buy milk and eggs"},
		{"unicode", "日本語のノート ✓ — ñandú 🚀"},
		{"multiline markdown", "# Title\n\n- item 1\n- item 2\n"},
		{"large", strings.Repeat("lorem ipsum ", 10_000)},
	}

	for _, m := range []Method{AES128CBC, AES192CBC, AES256CBC} {
		for _, e := range []Encoding{EncodingBase64Hex, EncodingBase64} {
			c := newTestCodec(t, m, e)
			key := testKey(m.KeySize())
			iv := testIV("v")

			for _, p := range plaintexts {
				t.Run(string(m)+"/"+string(e)+"/"+p.name, func(t *testing.T) {
					blob, err := c.Encrypt(p.text, iv, key)
					require.NoError(t, err)

					got, err := c.Decrypt(blob, iv, key)
					require.NoError(t, err)
					assert.Equal(t, p.text, got)
				})
			}
		}
	}
}

func TestEncrypt_Deterministic(t *testing.T) {
	c := newTestCodec(t, AES256CBC, "")
	key, iv := testKey(32), testIV("a")

	a, err := c.Encrypt("same input", iv, key)
	require.NoError(t, err)
	b, err := c.Encrypt("same input", iv, key)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := c.Encrypt("same input", testIV("b"), key)
	require.NoError(t, err)
	assert.NotEqual(t, a, other, "different IVs must give different ciphertext")
}

func TestEncrypt_Base64HexFormat(t *testing.T) {
	c := newTestCodec(t, AES256CBC, EncodingBase64Hex)
	key, iv := testKey(32), testIV("q")

	blob, err := c.Encrypt("hello", iv, key)
	require.NoError(t, err)

	// Reproduce the stored form by hand: AES-CBC, PKCS#7, hex, then base64.
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	padded := append([]byte("hello"), []byte(strings.Repeat("\x0b", 11))...)
	raw := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(raw, padded)

	want := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(raw)))
	assert.Equal(t, want, blob)
}

// --- Failure modes ---

func TestDecrypt_WrongIV(t *testing.T) {
	c := newTestCodec(t, AES256CBC, "")
	key := testKey(32)
	plaintext := "content written for one path only"

	blob, err := c.Encrypt(plaintext, testIV("1"), key)
	require.NoError(t, err)

	got, err := c.Decrypt(blob, testIV("2"), key)
	if err == nil {
		assert.NotEqual(t, plaintext, got)
	} else {
		assert.ErrorIs(t, err, ErrDecrypt)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	c := newTestCodec(t, AES256CBC, "")
	iv := testIV("1")

	blob, err := c.Encrypt("secret", iv, testKey(32))
	require.NoError(t, err)

	got, err := c.Decrypt(blob, iv, []byte(strings.Repeat("z", 32)))
	if err == nil {
		assert.NotEqual(t, "secret", got)
	} else {
		assert.ErrorIs(t, err, ErrDecrypt)
	}
}

func TestDecrypt_MalformedBlob(t *testing.T) {
	c := newTestCodec(t, AES256CBC, "")
	key, iv := testKey(32), testIV("1")

	tests := []struct {
		name string
		blob string
	}{
		{"not base64", "%%%"},
		{"base64 but not hex", base64.StdEncoding.EncodeToString([]byte("zz"))},
		{"short ciphertext", base64.StdEncoding.EncodeToString([]byte("abcd"))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.blob, iv, key)
			assert.ErrorIs(t, err, ErrDecrypt)
		})
	}
}

func TestCodec_KeyAndIVSize(t *testing.T) {
	c := newTestCodec(t, AES256CBC, "")

	_, err := c.Encrypt("x", testIV("1"), testKey(16))
	assert.ErrorIs(t, err, ErrKeySize)

	_, err = c.Encrypt("x", []byte("short"), testKey(32))
	assert.ErrorIs(t, err, ErrIVSize)

	_, err = c.Decrypt("", []byte("short"), testKey(32))
	assert.ErrorIs(t, err, ErrIVSize)
}

func TestUnpad(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		ok   bool
	}{
		{"valid", append([]byte("abc"), 3, 3, 3), true},
		{"zero pad byte", []byte{'a', 0}, false},
		{"pad larger than block", append(make([]byte, 15), 17), false},
		{"inconsistent bytes", []byte{'a', 1, 2}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := unpad(tt.in, aes.BlockSize)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrDecrypt)
			}
		})
	}
}
