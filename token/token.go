// Package token generates the opaque values used as session-correlation
// handles and as one-time reset secrets. Generation is deliberately
// independent of the pluggable crypto provider: token freshness must not be
// affected by provider configuration.
package token

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/common"
)

// Generator produces collision-resistant opaque tokens. Implementations have
// no failure path: an unavailable entropy or time source is a fatal
// process-level condition.
type Generator interface {
	Generate() string
}

// HashedGenerator derives tokens by hashing the current time together with
// several independent random draws. The hash primitive is fixed SHA-256.
type HashedGenerator struct{}

func NewHashedGenerator() *HashedGenerator {
	return &HashedGenerator{}
}

// Generate returns a 64-character lowercase hex token.
func (g *HashedGenerator) Generate() string {
	h := sha256.New()

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
	h.Write(ts[:])

	u1 := uuid.New()
	u2 := uuid.New()
	h.Write(u1[:])
	h.Write(u2[:])

	h.Write(common.GenerateRandByteArray(32))

	return hex.EncodeToString(h.Sum(nil))
}
