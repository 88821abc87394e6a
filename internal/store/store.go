// Package store persists conversation sessions. Three backends are
// provided: an in-memory map for single-process use, SQLite for durable
// local storage, and Redis for shared deployments.
package store

import (
	"context"
	"errors"

	"github.com/jmallory/solace/internal/domain"
)

// ErrSessionNotFound is returned when a session id does not exist. An
// ended (deleted) session is indistinguishable from one that never was.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the persistence contract for sessions and their turns.
//
// Implementations must hand out copies: mutating a returned Session must
// never affect stored state. AppendTurn is atomic per session: the turn,
// the last-active timestamp, and the emotional state all land together or
// not at all.
type SessionStore interface {
	// Create registers a new empty session and returns it.
	Create(ctx context.Context) (*domain.Session, error)

	// Get returns a copy of the session, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// AppendTurn appends a completed turn, bumps LastActiveAt to the
	// turn's timestamp, and records the session's latest emotional state.
	AppendTurn(ctx context.Context, id string, turn domain.Turn) error

	// ListTurns returns the session's turns in insertion order, or
	// ErrSessionNotFound.
	ListTurns(ctx context.Context, id string) ([]domain.Turn, error)

	// Delete ends a session, removing it and its turns.
	// Returns ErrSessionNotFound if the session does not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)

	// Close releases any underlying resources.
	Close() error
}
