package provider

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/authkeeper/common"
)

// PBKDF2 is a hash-only provider backed by PBKDF2 over a SHA-2 hash.
// Useful for verifying rows produced by older installs that predate Argon2.
type PBKDF2 struct {
	newHash func() hash.Hash
	rounds  int
	keyLen  int
}

// NewPBKDF2 returns a PBKDF2 hasher using SHA-256. Rounds must be positive.
func NewPBKDF2(rounds int) (*PBKDF2, error) {
	return newPBKDF2(sha256.New, sha256.Size, rounds)
}

// NewPBKDF2SHA512 returns a PBKDF2 hasher using SHA-512.
func NewPBKDF2SHA512(rounds int) (*PBKDF2, error) {
	return newPBKDF2(sha512.New, sha512.Size, rounds)
}

func newPBKDF2(h func() hash.Hash, size, rounds int) (*PBKDF2, error) {
	if rounds <= 0 {
		return nil, fmt.Errorf("%w: pbkdf2 rounds must be positive", common.ErrConfiguration)
	}
	return &PBKDF2{newHash: h, rounds: rounds, keyLen: size}, nil
}

func (p *PBKDF2) Digest(secret, salt []byte) ([]byte, error) {
	if p == nil || p.newHash == nil {
		return nil, &Error{Op: "digest", Err: errors.New("pbkdf2 provider not configured")}
	}
	return pbkdf2.Key(secret, salt, p.rounds, p.keyLen, p.newHash), nil
}
