// Package authkeeper wires the credential-management and session-correlation
// engine: password credentials derived through a pluggable crypto provider,
// and session records kept consistent with the principal's correlation token.
//
// The subpackages are usable on their own; this package assembles them from
// a config.Config into a ready App for hosts that want the default
// PostgreSQL-backed setup.
package authkeeper
