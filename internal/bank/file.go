package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quizzerhq/quizzer/internal/quiz"
)

// FileBank keeps each question set as one JSON file under
// <dir>/question_sets, written temp-then-rename like session snapshots.
type FileBank struct {
	dir    string
	logger zerolog.Logger
}

// NewFileBank creates the question_sets directory if needed.
func NewFileBank(dir string, logger zerolog.Logger) (*FileBank, error) {
	if err := os.MkdirAll(filepath.Join(dir, "question_sets"), 0o755); err != nil {
		return nil, fmt.Errorf("create question_sets dir: %w", err)
	}
	return &FileBank{dir: dir, logger: logger}, nil
}

func (f *FileBank) path(name string) string {
	return filepath.Join(f.dir, "question_sets", sanitizeName(name)+".json")
}

// Save writes the set atomically.
func (f *FileBank) Save(ctx context.Context, name string, questions []quiz.Question) error {
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	path := f.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write question set: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename question set: %w", err)
	}
	return nil
}

// Load reads a set by name.
func (f *FileBank) Load(ctx context.Context, name string) ([]quiz.Question, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("read question set: %w", err)
	}
	var questions []quiz.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode question set: %w", err)
	}
	return questions, nil
}

// List returns every stored set with its question count, sorted by name.
// Unreadable files list with a zero count rather than failing the whole call.
func (f *FileBank) List(ctx context.Context) ([]SetInfo, error) {
	dir := filepath.Join(f.dir, "question_sets")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read question_sets dir: %w", err)
	}

	var out []SetInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		count := 0
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			var questions []quiz.Question
			if json.Unmarshal(data, &questions) == nil {
				count = len(questions)
			}
		} else {
			f.logger.Warn().Err(err).Str("file", name).Msg("unreadable question set")
		}
		out = append(out, SetInfo{Name: strings.TrimSuffix(name, ".json"), Count: count})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

// Delete removes a set by name.
func (f *FileBank) Delete(ctx context.Context, name string) error {
	err := os.Remove(f.path(name))
	if os.IsNotExist(err) {
		return ErrSetNotFound
	}
	return err
}
