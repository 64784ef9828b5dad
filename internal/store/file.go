package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FileStore keeps one JSON file per quiz code under <dir>/sessions. Writes go
// to a temp file first and are renamed into place, so a crash mid-write never
// corrupts the previous snapshot.
type FileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates the sessions directory if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "sessions"), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (f *FileStore) path(code string) string {
	return filepath.Join(f.dir, "sessions", strings.ToUpper(code)+".json")
}

// Save writes the snapshot atomically.
func (f *FileStore) Save(ctx context.Context, code string, snapshot []byte) error {
	path := f.path(code)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, snapshot, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadAll reads every *.json snapshot; unreadable files are skipped.
func (f *FileStore) LoadAll(ctx context.Context) (map[string][]byte, error) {
	dir := filepath.Join(f.dir, "sessions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]byte{}, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	out := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			f.logger.Warn().Err(err).Str("file", name).Msg("skip unreadable snapshot")
			continue
		}
		out[strings.TrimSuffix(name, ".json")] = data
	}
	return out, nil
}
