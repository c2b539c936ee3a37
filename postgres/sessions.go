package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/dmitrijs2005/authkeeper/common"
	"github.com/dmitrijs2005/authkeeper/session"
)

// Sessions is the PostgreSQL-backed session registry. One row per slot;
// slot uniqueness is enforced by the schema, which makes the create race of
// concurrent logins resolve atomically in favour of the first writer.
type Sessions struct {
	db        DBTX
	activated bool
}

// NewSessions binds a registry to the given DBTX. activated mirrors the
// host's session-tracking switch; a deactivated registry disables the
// correlator without schema changes.
func NewSessions(db DBTX, activated bool) *Sessions {
	return &Sessions{db: db, activated: activated}
}

func (r *Sessions) Activated() bool { return r.activated }

// Find returns the session currently occupying the slot.
func (r *Sessions) Find(ctx context.Context, slot string) (*session.Record, error) {
	query := `
		SELECT id, slot, principal_id, correlation_token, created_at, updated_at
		FROM sessions
		WHERE slot = $1
	`
	rec := &session.Record{}
	err := r.db.QueryRowContext(ctx, query, slot).Scan(
		&rec.ID, &rec.Slot, &rec.PrincipalID, &rec.Token, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Create inserts a session for the slot. If the slot is already taken the
// existing row is left untouched and common.ErrSlotOccupied is returned.
func (r *Sessions) Create(ctx context.Context, rec *session.Record) error {
	query := `
		INSERT INTO sessions (id, slot, principal_id, correlation_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slot) DO NOTHING
	`
	id := ulid.Make().String()
	res, err := r.db.ExecContext(ctx, query, id, rec.Slot, rec.PrincipalID, rec.Token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrSlotOccupied
	}
	rec.ID = id
	return nil
}

// Update rewrites the principal reference and token of an existing session.
func (r *Sessions) Update(ctx context.Context, rec *session.Record) error {
	query := `
		UPDATE sessions
		SET principal_id = $2, correlation_token = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, rec.ID, rec.PrincipalID, rec.Token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the session occupying the slot, if any. Hosts call this on
// explicit local logout.
func (r *Sessions) Delete(ctx context.Context, slot string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
