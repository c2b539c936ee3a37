package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// Interval fields use timex.Duration, which accepts both string values such
// as "50ms" and integer nanoseconds. After unmarshalling, set fields are
// copied into the runtime Config.
type JsonConfig struct {
	DatabaseDSN      *string         `json:"database_dsn"`
	Provider         *string         `json:"provider"`
	PBKDF2Rounds     *int            `json:"pbkdf2_rounds"`
	AESKeyHex        *string         `json:"aes_key_hex"`
	SessionSlots     []string        `json:"session_slots"`
	SessionTracking  *bool           `json:"session_tracking"`
	ReconcileRetries *int            `json:"reconcile_retries"`
	ReconcileBackoff *timex.Duration `json:"reconcile_backoff"`
	PrincipalsTable  *string         `json:"principals_table"`
	DigestColumn     *string         `json:"digest_column"`
	SaltColumn       *string         `json:"salt_column"`
	TokenColumn      *string         `json:"token_column"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c or -config flags; if neither is
// set, no JSON file is loaded. Unset JSON fields keep the current values.
// An unreadable or invalid file panics: a host pointing at a broken config
// file should not start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.Provider != nil {
		config.Provider = *c.Provider
	}
	if c.PBKDF2Rounds != nil {
		config.PBKDF2Rounds = *c.PBKDF2Rounds
	}
	if c.AESKeyHex != nil {
		config.AESKeyHex = *c.AESKeyHex
	}
	if c.SessionSlots != nil {
		config.SessionSlots = c.SessionSlots
	}
	if c.SessionTracking != nil {
		config.SessionTracking = *c.SessionTracking
	}
	if c.ReconcileRetries != nil {
		config.ReconcileRetries = *c.ReconcileRetries
	}
	if c.ReconcileBackoff != nil {
		config.ReconcileBackoff = c.ReconcileBackoff.Duration
	}
	if c.PrincipalsTable != nil {
		config.PrincipalsTable = *c.PrincipalsTable
	}
	if c.DigestColumn != nil {
		config.DigestColumn = *c.DigestColumn
	}
	if c.SaltColumn != nil {
		config.SaltColumn = *c.SaltColumn
	}
	if c.TokenColumn != nil {
		config.TokenColumn = *c.TokenColumn
	}
}
