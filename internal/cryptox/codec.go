// Package cryptox implements the field-level cipher used for sensitive values
// at rest, and the one-way password hash.
//
// Encrypted values use the envelope format
//
//	hex(iv) ":" hex(ciphertext)
//
// where iv is a random 16-byte AES-CBC initialization vector and ciphertext is
// the PKCS#7-padded plaintext encrypted with AES-256-CBC. Values that do not
// have this shape are treated as legacy plaintext and returned unchanged on
// decryption.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmarket/internal/common"
)

const (
	ivSize    = aes.BlockSize
	ivHexSize = ivSize * 2
	separator = ":"
)

var (
	errBadPadding      = errors.New("invalid padding")
	errBadBlockLength  = errors.New("ciphertext is not a multiple of the block size")
	errMissingCipher   = errors.New("missing ciphertext segment")
	errMalformedCipher = errors.New("ciphertext is not valid hex")
)

// Outcome tells how a Result value was produced.
type Outcome int

const (
	// Decrypted means the value was a valid envelope and decrypted cleanly.
	Decrypted Outcome = iota
	// PassThroughLegacy means the value is not in envelope format and was
	// returned as stored (plaintext written before encryption was enabled).
	PassThroughLegacy
	// PassThroughFailed means the value looked like an envelope but could not
	// be decrypted (wrong key, tampered or truncated ciphertext).
	PassThroughFailed
)

func (o Outcome) String() string {
	switch o {
	case Decrypted:
		return "decrypted"
	case PassThroughLegacy:
		return "legacy"
	case PassThroughFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of opening a stored value. Value is always safe to
// show: the plaintext when Outcome is Decrypted, the original input otherwise.
type Result struct {
	Value   string
	Outcome Outcome
	// Err carries the decryption failure for PassThroughFailed.
	Err error
}

// Codec encrypts and decrypts individual string values with a single static
// AES-256 key. It is safe for concurrent use.
type Codec struct {
	block cipher.Block
}

// NewCodec derives the cipher key from secret with d and returns a Codec.
func NewCodec(secret string, d KeyDeriver) (*Codec, error) {
	if d == nil {
		d = LegacyPadDeriver{}
	}

	key, err := d.DeriveKey([]byte(secret))
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	if len(key) != KeySize {
		return nil, fmt.Errorf("derived key has %d bytes, want %d", len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &Codec{block: block}, nil
}

// Encrypt returns plaintext in envelope format. Empty input yields empty
// output. Every call uses a fresh IV, so equal plaintexts produce different
// envelopes. An error is only returned when the random source fails.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	iv, err := common.GenerateRandByteArray(ivSize)
	if err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + separator + hex.EncodeToString(ciphertext), nil
}

// Decrypt returns the plaintext of an envelope, or the input unchanged when
// it is not an envelope or cannot be decrypted. It never fails.
func (c *Codec) Decrypt(value string) string {
	return c.Open(value).Value
}

// DecryptAny is Decrypt for loosely typed input: anything that is not a
// non-empty string decrypts to "".
func (c *Codec) DecryptAny(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return c.Decrypt(s)
}

// Open decrypts value and reports how the returned value was obtained.
func (c *Codec) Open(value string) Result {
	if value == "" {
		return Result{Outcome: Decrypted}
	}

	parts := strings.Split(value, separator)
	ivHex := parts[0]
	if len(ivHex) != ivHexSize {
		return Result{Value: value, Outcome: PassThroughLegacy}
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivSize {
		return Result{Value: value, Outcome: PassThroughLegacy}
	}
	if len(parts) < 2 {
		return Result{Value: value, Outcome: PassThroughLegacy}
	}

	plaintext, err := c.decrypt(iv, parts[1])
	if err != nil {
		return Result{Value: value, Outcome: PassThroughFailed, Err: err}
	}

	return Result{Value: plaintext, Outcome: Decrypted}
}

func (c *Codec) decrypt(iv []byte, ciphertextHex string) (string, error) {
	if ciphertextHex == "" {
		return "", errMissingCipher
	}
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", errMalformedCipher
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return "", errBadBlockLength
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errBadPadding
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errBadPadding
		}
	}
	return b[:len(b)-n], nil
}
