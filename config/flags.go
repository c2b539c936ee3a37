package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-p string   crypto provider (argon2, pbkdf2, aesgcm)
//	-r int      pbkdf2 rounds
//	-k string   hex-encoded AES key
//	-s string   comma-separated session slots, first is primary
//	-n          disable session tracking
//	-y int      reconcile retries per slot
//	-w int      reconcile backoff, milliseconds
//
// The function filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-p", "-r", "-k", "-s", "-n", "-y", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Provider, "p", config.Provider, "crypto provider")
	fs.IntVar(&config.PBKDF2Rounds, "r", config.PBKDF2Rounds, "pbkdf2 rounds")
	fs.StringVar(&config.AESKeyHex, "k", config.AESKeyHex, "hex-encoded AES key")

	slots := fs.String("s", strings.Join(config.SessionSlots, ","), "session slots (comma-separated)")
	noTracking := fs.Bool("n", !config.SessionTracking, "disable session tracking")
	retries := fs.Int("y", config.ReconcileRetries, "reconcile retries per slot")
	backoffMs := fs.Int("w", int(config.ReconcileBackoff.Milliseconds()), "reconcile backoff (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionSlots = splitSlots(*slots)
	config.SessionTracking = !*noTracking
	config.ReconcileRetries = *retries
	config.ReconcileBackoff = time.Duration(*backoffMs) * time.Millisecond
}

func splitSlots(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	slots := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			slots = append(slots, p)
		}
	}
	return slots
}
