package provider

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/common"
)

// AESGCM is a reversible provider. The digest is nonce||ciphertext of
// secret||salt under AES-GCM, and Reverse opens it back into the plaintext.
//
// The nonce is derived from SHA-256(key || secret || salt), which keeps the
// digest deterministic for fixed inputs while staying unique per
// secret/salt pair. Salts are regenerated on every credential change, so a
// plaintext never repeats under the same nonce in practice.
type AESGCM struct {
	aead cipher.AEAD
	key  []byte
}

// NewAESGCM builds a reversible provider from a 16, 24, or 32 byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: aes key must be 16, 24 or 32 bytes, got %d", common.ErrConfiguration, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &AESGCM{aead: aead, key: k}, nil
}

func (a *AESGCM) Digest(secret, salt []byte) ([]byte, error) {
	if a == nil || a.aead == nil {
		return nil, &Error{Op: "digest", Err: errors.New("aesgcm provider not configured")}
	}
	plaintext := make([]byte, 0, len(secret)+len(salt))
	plaintext = append(plaintext, secret...)
	plaintext = append(plaintext, salt...)

	nonce := a.nonceFor(plaintext)
	out := make([]byte, 0, len(nonce)+len(plaintext)+a.aead.Overhead())
	out = append(out, nonce...)
	return a.aead.Seal(out, nonce, plaintext, nil), nil
}

func (a *AESGCM) Reverse(digest []byte) ([]byte, error) {
	if a == nil || a.aead == nil {
		return nil, &Error{Op: "reverse", Err: errors.New("aesgcm provider not configured")}
	}
	ns := a.aead.NonceSize()
	if len(digest) < ns {
		return nil, &Error{Op: "reverse", Err: errors.New("digest shorter than nonce")}
	}
	plaintext, err := a.aead.Open(nil, digest[:ns], digest[ns:], nil)
	if err != nil {
		return nil, &Error{Op: "reverse", Err: err}
	}
	return plaintext, nil
}

func (a *AESGCM) nonceFor(plaintext []byte) []byte {
	h := sha256.New()
	h.Write(a.key)
	h.Write(plaintext)
	return h.Sum(nil)[:a.aead.NonceSize()]
}
