package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/authkeeper/common"
	"github.com/dmitrijs2005/authkeeper/logging"
)

// State is the login state observed for a principal across the configured
// slots at snapshot time.
type State int

const (
	// StateUnknown means slots hold sessions, but none of them reference
	// the principal. Reconciliation is a no-op in this state: another
	// principal occupies the slots.
	StateUnknown State = iota

	// StateLoggedOut means every configured slot is empty.
	StateLoggedOut

	// StateLoggedIn means at least one slot holds a session referencing
	// the principal (here or elsewhere).
	StateLoggedIn
)

// Snapshot captures the pre-commit correlation state for one persistence
// event. It is produced by Snapshot and consumed once by Reconcile.
type Snapshot struct {
	state  State
	active []*Record
}

// State returns the observed login state.
func (s *Snapshot) State() State { return s.state }

// Active returns the sessions that referenced the principal, in configured
// slot order.
func (s *Snapshot) Active() []*Record { return s.active }

// SlotFailure records a failed update of a single slot during
// reconciliation.
type SlotFailure struct {
	Slot string
	Err  error
}

// PartialError reports that one or more slot updates failed during
// post-commit reconciliation. The principal's own persisted state is already
// committed and is not rolled back; propagation is best-effort.
type PartialError struct {
	Failures []SlotFailure
}

func (e *PartialError) Error() string {
	slots := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		slots[i] = f.Slot
	}
	return fmt.Sprintf("session reconciliation incomplete: slots %s failed", strings.Join(slots, ", "))
}

// Correlator implements the session-correlation state machine. The first
// configured slot is the primary: it is auto-created on login, subsequent
// slots are only reconciled.
type Correlator struct {
	registry Registry
	slots    []string
	retries  uint64
	backoff  time.Duration
	log      logging.Logger
}

// NewCorrelator wires a correlator to its registry. Slots are ordered, first
// is primary; an empty slot list disables the correlator. Retries and
// backoff bound the per-slot update attempts during reconciliation.
func NewCorrelator(reg Registry, slots []string, retries int, backoff time.Duration, log logging.Logger) (*Correlator, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: session registry is required", common.ErrConfiguration)
	}
	if log == nil {
		log = logging.Nop()
	}
	if retries < 0 {
		retries = 0
	}
	return &Correlator{
		registry: reg,
		slots:    slots,
		retries:  uint64(retries),
		backoff:  backoff,
		log:      log,
	}, nil
}

// Enabled reports whether reconciliation should run at all.
func (c *Correlator) Enabled() bool {
	return len(c.slots) > 0 && c.registry.Activated()
}

func (c *Correlator) primary() string { return c.slots[0] }

// Snapshot inspects every configured slot and classifies the principal's
// current login state. It must run before the principal's own record is
// committed so that lookups reflect pre-change correlation state.
func (c *Correlator) Snapshot(ctx context.Context, principalID string) (*Snapshot, error) {
	snap := &Snapshot{state: StateUnknown}
	occupied := false

	for _, slot := range c.slots {
		rec, err := c.registry.Find(ctx, slot)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("session lookup for slot %q: %w", slot, err)
		}
		occupied = true
		if principalID != "" && rec.PrincipalID == principalID {
			snap.active = append(snap.active, rec)
			snap.state = StateLoggedIn
		}
	}

	if !occupied {
		snap.state = StateLoggedOut
	}
	return snap, nil
}

// Reconcile applies the post-commit step for one persistence event:
//
//   - LoggedOut: create a session in the primary slot. A concurrent login
//     wins the race; creation is skipped, not retried.
//   - LoggedIn: push the new token into every session recorded active at
//     snapshot time, in slot order. Slot updates are independent; failures
//     are collected into a *PartialError instead of aborting the rest.
//   - Unknown: nothing to do, the slots belong to someone else.
func (c *Correlator) Reconcile(ctx context.Context, principalID, token string, snap *Snapshot) error {
	switch snap.state {
	case StateLoggedOut:
		rec := &Record{Slot: c.primary(), PrincipalID: principalID, Token: token}
		err := c.registry.Create(ctx, rec)
		if errors.Is(err, common.ErrSlotOccupied) {
			// First writer wins. The session that survives is not ours.
			c.log.Warn(ctx, "primary slot taken during reconciliation, keeping existing session",
				"slot", c.primary(), "principal", principalID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("creating primary session: %w", err)
		}
		return nil

	case StateLoggedIn:
		var failures []SlotFailure
		for _, rec := range snap.active {
			rec.PrincipalID = principalID
			rec.Token = token
			if err := c.updateWithRetry(ctx, rec); err != nil {
				c.log.Warn(ctx, "session slot update failed",
					"slot", rec.Slot, "principal", principalID, "error", err)
				failures = append(failures, SlotFailure{Slot: rec.Slot, Err: err})
			}
		}
		if len(failures) > 0 {
			return &PartialError{Failures: failures}
		}
		return nil

	default:
		return nil
	}
}

func (c *Correlator) updateWithRetry(ctx context.Context, rec *Record) error {
	b := retry.WithMaxRetries(c.retries, retry.NewConstant(c.effectiveBackoff()))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := c.registry.Update(ctx, rec); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (c *Correlator) effectiveBackoff() time.Duration {
	if c.backoff <= 0 {
		return time.Millisecond
	}
	return c.backoff
}
