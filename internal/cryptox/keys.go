package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length produced by every KeyDeriver.
const KeySize = 32

// legacyFiller is the byte used to right-pad short secrets in LegacyPadDeriver.
const legacyFiller = '0'

// Supported key derivation names, as used in configuration.
const (
	DerivationLegacy = "legacy"
	DerivationArgon2 = "argon2"
)

// KeyDeriver turns the configured secret into a KeySize-byte cipher key.
type KeyDeriver interface {
	DeriveKey(secret []byte) ([]byte, error)
}

// LegacyPadDeriver truncates the secret to KeySize bytes, or right-pads it
// with '0' bytes when shorter. It is not a KDF: a low-entropy secret yields
// a low-entropy key. It exists so that ciphertext written by earlier
// deployments keeps decrypting.
type LegacyPadDeriver struct{}

// DeriveKey implements KeyDeriver.
func (LegacyPadDeriver) DeriveKey(secret []byte) ([]byte, error) {
	key := make([]byte, KeySize)
	n := copy(key, secret)
	for i := n; i < KeySize; i++ {
		key[i] = legacyFiller
	}
	return key, nil
}

// Argon2Deriver derives the key with Argon2id over the secret and a fixed,
// configured salt. Ciphertext produced under this deriver is not readable
// with LegacyPadDeriver and vice versa.
type Argon2Deriver struct {
	Salt []byte
}

// DeriveKey implements KeyDeriver.
func (d Argon2Deriver) DeriveKey(secret []byte) ([]byte, error) {
	if len(d.Salt) == 0 {
		return nil, fmt.Errorf("argon2 key derivation requires a salt: %w", common.ErrorValidation)
	}
	return argon2.IDKey(secret, d.Salt, 1, 64*1024, 4, KeySize), nil
}

// NewKeyDeriver resolves a configured derivation name.
// An empty name selects the legacy deriver.
func NewKeyDeriver(name string, salt string) (KeyDeriver, error) {
	switch name {
	case "", DerivationLegacy:
		return LegacyPadDeriver{}, nil
	case DerivationArgon2:
		return Argon2Deriver{Salt: []byte(salt)}, nil
	default:
		return nil, fmt.Errorf("unknown key derivation %q: %w", name, common.ErrorValidation)
	}
}
