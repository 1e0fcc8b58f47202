package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no document exists for a key.
var ErrNotFound = errors.New("document not found")

// Gateway is a key-addressed JSON document store with an append-only history per key.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// Read returns the document stored at key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores doc at key, overwriting any previous document.
	Write(ctx context.Context, key string, doc []byte) error

	// AppendHistory appends record to the history kept under key.
	AppendHistory(ctx context.Context, key string, record []byte) error

	// ReadHistory returns up to limit records of key's history, most recent first.
	// An empty history yields an empty slice and no error.
	ReadHistory(ctx context.Context, key string, limit int) ([][]byte, error)

	// List returns every point document whose key starts with prefix.
	List(ctx context.Context, prefix string) ([][]byte, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close(ctx context.Context) error
}
