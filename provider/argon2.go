package provider

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/authkeeper/common"
)

// Argon2 is a hash-only provider backed by Argon2id.
type Argon2 struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

// Argon2Params tune the Argon2id key derivation. Zero values for Time,
// Memory, or Threads are rejected at construction.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params match interactive-login cost recommendations.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}
}

// NewArgon2 validates params and returns an Argon2 hasher.
func NewArgon2(p Argon2Params) (*Argon2, error) {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("%w: argon2 params must be non-zero", common.ErrConfiguration)
	}
	keyLen := p.KeyLen
	if keyLen == 0 {
		keyLen = 32
	}
	return &Argon2{time: p.Time, memory: p.Memory, threads: p.Threads, keyLen: keyLen}, nil
}

func (a *Argon2) Digest(secret, salt []byte) ([]byte, error) {
	if a == nil || a.keyLen == 0 {
		return nil, &Error{Op: "digest", Err: errors.New("argon2 provider not configured")}
	}
	return argon2.IDKey(secret, salt, a.time, a.memory, a.threads, a.keyLen), nil
}
