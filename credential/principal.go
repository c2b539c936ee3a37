// Package credential owns a principal's salt, digest, and correlation token
// and implements the credential-change lifecycle: assign, verify, reset,
// forget, and the validated save that keeps session records in sync.
package credential

import "time"

// Principal is the authenticated entity. Digest and Salt are either both
// present or both absent; Token is regenerated on every credential change
// and must be unique across all principals (enforced by the persistence
// layer).
type Principal struct {
	ID    string
	Login string
	Salt  []byte
	// Digest is the provider-computed digest of secret+salt. Legacy rows
	// may instead hold the raw plaintext, which VerifySecret tolerates.
	Digest []byte
	// Token is the correlation token linking this principal to its active
	// session records.
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Transient change state. Exists only between assignment and the
	// validate/persist step of a single save; cleared when that save
	// finishes, whether it succeeded or not.
	pendingSecret  string
	pendingConfirm string
	secretAssigned bool
	tokenRotated   bool
}

// IsNew reports whether the principal has not been persisted yet.
func (p *Principal) IsNew() bool { return p.ID == "" }

// HasCredential reports whether a salt/digest pair is stored.
func (p *Principal) HasCredential() bool {
	return len(p.Salt) > 0 && len(p.Digest) > 0
}

func (p *Principal) clearChange() {
	p.pendingSecret = ""
	p.pendingConfirm = ""
	p.secretAssigned = false
	p.tokenRotated = false
}
