package credential

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/common"
	"github.com/dmitrijs2005/authkeeper/logging"
	"github.com/dmitrijs2005/authkeeper/provider"
	"github.com/dmitrijs2005/authkeeper/session"
	"github.com/dmitrijs2005/authkeeper/token"
)

// resetSecretLength is the length of the generated one-time secret returned
// by ResetSecret.
const resetSecretLength = 10

// Persister is the external collaborator that stores principal records.
// Persist must assign Principal.ID when the record is new.
type Persister interface {
	Persist(ctx context.Context, p *Principal) error
}

// Store derives, verifies, and rotates a principal's credential, and drives
// session reconciliation around each save. A Store is safe for concurrent
// use across distinct principals; two concurrent changes to the same
// principal race on salt/token regeneration, and only the persistence
// layer's own concurrency control (last-write-wins or optimistic locking)
// guards that case.
type Store struct {
	provider   provider.Provider
	tokens     token.Generator
	persister  Persister
	correlator *session.Correlator
	log        logging.Logger
}

// NewStore wires a credential store. The correlator may be nil, which
// disables session reconciliation entirely.
func NewStore(prov provider.Provider, gen token.Generator, persister Persister, corr *session.Correlator, log logging.Logger) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("%w: persister is required", common.ErrConfiguration)
	}
	if gen == nil {
		gen = token.NewHashedGenerator()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		provider:   prov,
		tokens:     gen,
		persister:  persister,
		correlator: corr,
		log:        log,
	}, nil
}

// AssignSecret stages a new secret on the principal: it regenerates the
// correlation token and salt, computes the digest, and records the plaintext
// and confirmation transiently for validation at save time. An empty
// plaintext is a no-op. Nothing is persisted; call Save to commit.
func (s *Store) AssignSecret(p *Principal, plaintext, confirmation string) error {
	if plaintext == "" {
		return nil
	}

	newToken := s.tokens.Generate()
	newSalt := []byte(s.tokens.Generate())
	digest, err := s.provider.Digest([]byte(plaintext), newSalt)
	if err != nil {
		return err
	}

	p.secretAssigned = true
	p.pendingSecret = plaintext
	p.pendingConfirm = confirmation
	p.Token = newToken
	p.Salt = newSalt
	p.Digest = digest
	p.tokenRotated = true
	return nil
}

// VerifySecret checks an attempted secret against the stored salt and
// digest.
//
// Policy, in order:
//  1. empty attempted secret, digest, or salt fails without a provider call;
//  2. an attempted secret equal to the stored digest verbatim succeeds
//     (legacy rows that stored the plaintext);
//  3. a reversible provider succeeds iff reverse(digest) == attempted+salt;
//  4. a hash-only provider succeeds iff digest(attempted, salt) == digest.
//
// Provider-internal failures surface as errors, never as a false result.
func (s *Store) VerifySecret(p *Principal, attempted string) (bool, error) {
	if attempted == "" || len(p.Digest) == 0 || len(p.Salt) == 0 {
		return false, nil
	}

	if attempted == string(p.Digest) {
		return true, nil
	}

	if rev, ok := s.provider.Reverser(); ok {
		plain, err := rev.Reverse(p.Digest)
		if err != nil {
			return false, err
		}
		want := make([]byte, 0, len(attempted)+len(p.Salt))
		want = append(want, attempted...)
		want = append(want, p.Salt...)
		return bytes.Equal(plain, want), nil
	}

	digest, err := s.provider.Digest([]byte(attempted), p.Salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(digest, p.Digest) == 1, nil
}

// ResetSecret replaces the credential with a generated 10-character
// alphanumeric secret and persists immediately, bypassing session
// reconciliation: rotating the token is itself the intended
// session-invalidation. The returned plaintext is the only record of the new
// secret.
func (s *Store) ResetSecret(ctx context.Context, p *Principal) (string, error) {
	plain := token.RandomAlphanumeric(resetSecretLength)
	if err := s.AssignSecret(p, plain, plain); err != nil {
		return "", err
	}
	if err := s.save(ctx, p, true); err != nil {
		return "", err
	}
	return plain, nil
}

// Forget regenerates only the correlation token, leaving salt and digest in
// place, and persists immediately without reconciliation. This invalidates
// every previously issued session correlation: "sign out everywhere".
func (s *Store) Forget(ctx context.Context, p *Principal) error {
	p.Token = s.tokens.Generate()
	p.tokenRotated = true
	return s.save(ctx, p, true)
}

// Save validates the staged change, snapshots the pre-change correlation
// state, persists the principal, and reconciles session records against the
// new token. A *session.PartialError return means the principal itself was
// committed but one or more slot updates failed; it is not rolled back.
func (s *Store) Save(ctx context.Context, p *Principal) error {
	return s.save(ctx, p, false)
}

// save runs one persistence attempt. skipSessions suppresses reconciliation
// for this call only; it is a parameter rather than stored state so it can
// never leak into a later save. The transient change state is cleared on
// every exit path.
func (s *Store) save(ctx context.Context, p *Principal, skipSessions bool) error {
	defer p.clearChange()

	if err := s.validate(p); err != nil {
		return err
	}

	sync := !skipSessions && p.tokenRotated && s.correlator != nil && s.correlator.Enabled()

	var snap *session.Snapshot
	if sync {
		var err error
		// Pre-commit: lookups must reflect the correlation state before
		// the new token lands.
		snap, err = s.correlator.Snapshot(ctx, p.ID)
		if err != nil {
			return err
		}
	}

	if err := s.persister.Persist(ctx, p); err != nil {
		return err
	}

	if sync {
		if err := s.correlator.Reconcile(ctx, p.ID, p.Token, snap); err != nil {
			var pe *session.PartialError
			if errors.As(err, &pe) {
				s.log.Warn(ctx, "principal committed but session propagation incomplete",
					"principal", p.ID, "failed_slots", len(pe.Failures))
			}
			return err
		}
	}
	return nil
}

// validate runs the pre-persistence checks exactly once per save attempt.
func (s *Store) validate(p *Principal) error {
	if (p.secretAssigned || p.IsNew()) && p.pendingSecret == "" {
		return &ValidationError{Field: "secret", Msg: "secret required"}
	}
	if p.pendingSecret != "" && p.pendingConfirm != p.pendingSecret {
		return &ValidationError{Field: "confirmation", Msg: "confirmation mismatch"}
	}
	return nil
}
