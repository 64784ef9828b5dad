// Package store persists whole-session snapshots keyed by quiz code. Writes
// are best-effort: the engine never waits on them and a failed write costs at
// most the last mutation.
package store

import "context"

// Store is the persistence gateway for session snapshots.
type Store interface {
	// Save overwrites the snapshot for a code.
	Save(ctx context.Context, code string, snapshot []byte) error
	// LoadAll returns every persisted snapshot at process start.
	LoadAll(ctx context.Context) (map[string][]byte, error)
}
