// Package session keeps independently persisted session records consistent
// with changes to a principal's correlation token. It detects whether a
// principal is currently represented in zero, one, or many session slots and
// reconciles those slots after a credential change.
package session

import (
	"context"
	"time"
)

// Record is one session row tracked under a named slot. A record correlates
// to at most one principal via the correlation token.
type Record struct {
	ID          string
	Slot        string
	PrincipalID string
	Token       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Registry is the external collaborator owning session records. The
// correlator only reads records and requests mutation through it.
type Registry interface {
	// Activated reports whether session tracking is enabled at all.
	Activated() bool

	// Find returns the current session for the slot, or common.ErrNotFound
	// if the slot is empty.
	Find(ctx context.Context, slot string) (*Record, error)

	// Create stores a new record and assigns its ID. If the slot already
	// holds a session it returns common.ErrSlotOccupied and leaves the
	// existing record untouched.
	Create(ctx context.Context, rec *Record) error

	// Update rewrites an existing record's principal reference and token.
	Update(ctx context.Context, rec *Record) error
}
