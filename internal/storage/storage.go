// Package storage provides the state management for users, catalog records
// and sessions, with interchangeable relational and in-memory backends.
package storage

import (
	"context"
	"log/slog"

	"github.com/waxcrate/waxcrate/internal/storage/db"
)

const (
	// ErrNotFound is returned when a user, record or session cannot be found.
	ErrNotFound Error = "not found"
	// ErrAlreadyExists is returned if a unique user already exists.
	ErrAlreadyExists Error = "already exists"
	// ErrInternal is returned for any other type of error.
	ErrInternal Error = "internal error"
)

// Error is an error type returned by the storage implementations.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying user accounts.
type Users interface {
	// GetUser returns the user with the specified ID. An [ErrNotFound] is
	// returned if the user ID does not exist.
	GetUser(ctx context.Context, id int64) (db.User, error)
	// GetUserByUsername returns the user with the specified username. An
	// [ErrNotFound] is returned if the username does not exist.
	GetUserByUsername(ctx context.Context, username string) (db.User, error)
	// CreateUser creates a user from the candidate fields, assigning ID and
	// CreatedAt. An [ErrAlreadyExists] is returned if the username is taken.
	CreateUser(ctx context.Context, candidate db.NewUser) (db.User, error)
	// DeleteUser removes a user along with their records and sessions. This
	// is a hard delete; data is not recoverable.
	DeleteUser(ctx context.Context, id int64) error
}

// Records are the methods on a storage implementation that are responsible
// for accessing and modifying catalog records. The storage layer trusts its
// caller: ownership checks belong to the API boundary.
type Records interface {
	// ListRecords returns all records belonging to the given owner, in no
	// guaranteed order.
	ListRecords(ctx context.Context, ownerID int64) ([]db.Record, error)
	// GetRecord returns the record with the specified ID. An [ErrNotFound]
	// is returned if the record ID does not exist.
	GetRecord(ctx context.Context, id int64) (db.Record, error)
	// CreateRecord creates a record from the candidate fields, assigning ID
	// and CreatedAt.
	CreateRecord(ctx context.Context, candidate db.NewRecord) (db.Record, error)
	// UpdateRecord merges the non-nil patch fields into the stored record
	// and returns the result. An [ErrNotFound] is returned for unknown IDs.
	UpdateRecord(ctx context.Context, id int64, patch db.RecordPatch) (db.Record, error)
	// DeleteRecord removes a record, reporting whether one existed.
	DeleteRecord(ctx context.Context, id int64) (bool, error)
	// SearchRecords returns the owner's records whose title, artist, genre
	// or year case-insensitively contains the query as a substring.
	SearchRecords(ctx context.Context, ownerID int64, query string) ([]db.Record, error)
}

// Sessions are the methods on a storage implementation that persist login
// sessions. Sessions are keyed by an opaque random token.
type Sessions interface {
	// CreateSession creates a session for the user, replacing any previous
	// sessions the user held.
	CreateSession(ctx context.Context, userID int64) (db.Session, error)
	// GetSession returns the session for the given token. Expired or
	// unknown tokens return [ErrNotFound]; expired sessions are removed.
	GetSession(ctx context.Context, token string) (db.Session, error)
	// DeleteSession removes the session for the given token, if any.
	DeleteSession(ctx context.Context, token string) error
}

// Store is the combination interface for [Users], [Records] and [Sessions].
type Store interface {
	Users
	Records
	Sessions
	// Close releases any resources held by the store. An error is returned
	// if the store cannot be cleanly closed.
	Close() error
}

// Open selects the storage backend for the process lifetime. When a database
// DSN is configured and the connection succeeds, the relational backend is
// used; otherwise the volatile in-memory backend is selected. A connection
// failure is logged, not fatal.
func Open(ctx context.Context, logger *slog.Logger, dsn string) Store {
	if dsn == "" {
		logger.InfoContext(ctx, "no database configured, using in-memory storage")
		return NewMemory()
	}
	store, err := NewDB(ctx, logger, dsn)
	if err != nil {
		logger.WarnContext(ctx,
			"database unavailable, falling back to in-memory storage",
			slog.Any("error", err),
		)
		return NewMemory()
	}
	logger.InfoContext(ctx, "using relational storage")
	return store
}
