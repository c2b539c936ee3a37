package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/common"
	"github.com/dmitrijs2005/authkeeper/credential"
)

// Bindings names the table and columns holding the credential fields.
// Installs migrated from older schemas keep their column names by overriding
// the defaults; resolution happens once here, not per query.
type Bindings struct {
	Table        string
	DigestColumn string
	SaltColumn   string
	TokenColumn  string
}

func (b Bindings) withDefaults() Bindings {
	if b.Table == "" {
		b.Table = "principals"
	}
	if b.DigestColumn == "" {
		b.DigestColumn = "credential_digest"
	}
	if b.SaltColumn == "" {
		b.SaltColumn = "salt"
	}
	if b.TokenColumn == "" {
		b.TokenColumn = "correlation_token"
	}
	return b
}

// Principals stores principal records. It implements credential.Persister:
// Persist inserts new records (assigning the ID) and rewrites existing ones.
// Updates are last-write-wins; concurrent changes to the same principal are
// not locked here.
type Principals struct {
	db DBTX

	insertQuery  string
	updateQuery  string
	byLoginQuery string
	byTokenQuery string
}

// NewPrincipals binds a repository to the given DBTX, resolving the query
// text from the bindings up front.
func NewPrincipals(db DBTX, b Bindings) *Principals {
	b = b.withDefaults()
	return &Principals{
		db: db,
		insertQuery: fmt.Sprintf(
			`INSERT INTO %s (login, %s, %s, %s)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at, updated_at`,
			b.Table, b.SaltColumn, b.DigestColumn, b.TokenColumn),
		updateQuery: fmt.Sprintf(
			`UPDATE %s
			 SET login = $2, %s = $3, %s = $4, %s = $5, updated_at = now()
			 WHERE id = $1`,
			b.Table, b.SaltColumn, b.DigestColumn, b.TokenColumn),
		byLoginQuery: fmt.Sprintf(
			`SELECT id, login, %s, %s, %s, created_at, updated_at
			 FROM %s WHERE login = $1`,
			b.SaltColumn, b.DigestColumn, b.TokenColumn, b.Table),
		byTokenQuery: fmt.Sprintf(
			`SELECT id, login, %s, %s, %s, created_at, updated_at
			 FROM %s WHERE %s = $1`,
			b.SaltColumn, b.DigestColumn, b.TokenColumn, b.Table, b.TokenColumn),
	}
}

// Persist stores the principal. New records get their ID from the database.
func (r *Principals) Persist(ctx context.Context, p *credential.Principal) error {
	if p.IsNew() {
		err := r.db.QueryRowContext(ctx, r.insertQuery,
			p.Login, p.Salt, p.Digest, p.Token).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}

	if _, err := r.db.ExecContext(ctx, r.updateQuery,
		p.ID, p.Login, p.Salt, p.Digest, p.Token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ByLogin returns the principal with the given login, or common.ErrNotFound.
func (r *Principals) ByLogin(ctx context.Context, login string) (*credential.Principal, error) {
	return r.queryOne(ctx, r.byLoginQuery, login)
}

// ByToken returns the principal holding the given correlation token, or
// common.ErrNotFound. This is the lookup a host uses to resolve a session
// record back to its principal.
func (r *Principals) ByToken(ctx context.Context, token string) (*credential.Principal, error) {
	return r.queryOne(ctx, r.byTokenQuery, token)
}

func (r *Principals) queryOne(ctx context.Context, query string, arg any) (*credential.Principal, error) {
	p := &credential.Principal{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Login, &p.Salt, &p.Digest, &p.Token, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
