package checkpoint

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Archive when there is no checkpoint to archive.
var ErrNotFound = errors.New("checkpoint not found")

// Store loads and saves the checkpoint.
type Store interface {
	// Load never fails. A missing or corrupt checkpoint yields an empty State.
	Load(ctx context.Context) State
	// Save replaces the checkpoint atomically.
	Save(ctx context.Context, state State) error
	// Archive moves the checkpoint aside under a completed name.
	Archive(ctx context.Context) error
}
