// Package provider defines the pluggable cryptographic primitive used to
// derive and check credential digests. A provider is either hash-only or
// reversible; the capability is declared at construction time so callers
// branch on an explicit tag instead of probing with type assertions.
package provider

import (
	"errors"
	"fmt"
)

// Hasher produces a digest of secret and salt. The digest must be
// deterministic for fixed inputs. Errors indicate provider-internal failure
// (misconfiguration, bad key material), never input shape.
type Hasher interface {
	Digest(secret, salt []byte) ([]byte, error)
}

// Reverser is a Hasher whose digests can be opened back into the original
// secret-plus-salt plaintext.
type Reverser interface {
	Hasher
	Reverse(digest []byte) ([]byte, error)
}

// Provider tags a Hasher with its capability set. The zero value is unusable;
// build one with HashOnly or Reversible.
type Provider struct {
	hasher   Hasher
	reverser Reverser
}

// HashOnly wraps a one-way Hasher.
func HashOnly(h Hasher) Provider {
	return Provider{hasher: h}
}

// Reversible wraps a Reverser, enabling the reverse verification path.
func Reversible(r Reverser) Provider {
	return Provider{hasher: r, reverser: r}
}

// Digest delegates to the underlying Hasher. The zero Provider fails.
func (p Provider) Digest(secret, salt []byte) ([]byte, error) {
	if p.hasher == nil {
		return nil, &Error{Op: "digest", Err: errors.New("no hasher configured")}
	}
	return p.hasher.Digest(secret, salt)
}

// Reverser returns the reverse capability, if the provider declared one.
func (p Provider) Reverser() (Reverser, bool) {
	return p.reverser, p.reverser != nil
}

// Error wraps a provider-internal failure. It must surface to the caller as
// an operation failure, never be folded into a negative verification result.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("crypto provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
