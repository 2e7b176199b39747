package session

import "context"

// Store persists session records. Implementations live under
// contrib/session.
type Store interface {
	// Save persists a record, overwriting any prior version.
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by ID. Missing records return an error
	// wrapping errors.ErrSessionNotFound.
	Load(ctx context.Context, id string) (*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all stored session IDs.
	List(ctx context.Context) ([]string, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)

	// Exists checks whether a session is stored.
	Exists(ctx context.Context, id string) (bool, error)
}
