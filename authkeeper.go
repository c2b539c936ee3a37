package authkeeper

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/common"
	"github.com/dmitrijs2005/authkeeper/config"
	"github.com/dmitrijs2005/authkeeper/credential"
	"github.com/dmitrijs2005/authkeeper/logging"
	"github.com/dmitrijs2005/authkeeper/postgres"
	"github.com/dmitrijs2005/authkeeper/provider"
	"github.com/dmitrijs2005/authkeeper/session"
	"github.com/dmitrijs2005/authkeeper/token"
)

// App bundles the wired collaborators for a PostgreSQL-backed host.
type App struct {
	DB         *sql.DB
	Store      *credential.Store
	Principals *postgres.Principals
	Sessions   *postgres.Sessions

	logger logging.Logger
}

// NewApp opens the database and wires provider, token generator, principal
// repository, session registry, and correlator according to cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	prov, err := BuildProvider(cfg)
	if err != nil {
		return nil, err
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	principals := postgres.NewPrincipals(db, postgres.Bindings{
		Table:        cfg.PrincipalsTable,
		DigestColumn: cfg.DigestColumn,
		SaltColumn:   cfg.SaltColumn,
		TokenColumn:  cfg.TokenColumn,
	})
	sessions := postgres.NewSessions(db, cfg.SessionTracking)

	var corr *session.Correlator
	if len(cfg.SessionSlots) > 0 {
		corr, err = session.NewCorrelator(sessions, cfg.SessionSlots,
			cfg.ReconcileRetries, cfg.ReconcileBackoff, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	store, err := credential.NewStore(prov, token.NewHashedGenerator(), principals, corr, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		DB:         db,
		Store:      store,
		Principals: principals,
		Sessions:   sessions,
		logger:     logger,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	return postgres.RunMigrations(ctx, a.DB)
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.DB.Close()
}

// BuildProvider resolves the configured crypto provider.
func BuildProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case config.ProviderArgon2:
		h, err := provider.NewArgon2(provider.DefaultArgon2Params())
		if err != nil {
			return provider.Provider{}, err
		}
		return provider.HashOnly(h), nil

	case config.ProviderPBKDF2:
		h, err := provider.NewPBKDF2(cfg.PBKDF2Rounds)
		if err != nil {
			return provider.Provider{}, err
		}
		return provider.HashOnly(h), nil

	case config.ProviderAESGCM:
		key, err := hex.DecodeString(cfg.AESKeyHex)
		if err != nil {
			return provider.Provider{}, fmt.Errorf("%w: aes key is not valid hex", common.ErrConfiguration)
		}
		r, err := provider.NewAESGCM(key)
		if err != nil {
			return provider.Provider{}, err
		}
		return provider.Reversible(r), nil

	default:
		return provider.Provider{}, fmt.Errorf("%w: unknown provider %q", common.ErrConfiguration, cfg.Provider)
	}
}
