// Package common defines shared constants and sentinel errors used across
// authkeeper packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrSlotOccupied is returned by a session registry when a create is
	// attempted against a slot that already holds a session.
	ErrSlotOccupied = errors.New("session slot occupied")

	// ErrConfiguration marks a missing or invalid collaborator at setup
	// time. It is fatal for the component being constructed and is never
	// retried.
	ErrConfiguration = errors.New("configuration error")
)
