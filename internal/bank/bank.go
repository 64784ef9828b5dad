// Package bank stores named question sets the operator can save, reload and
// apply to a quiz.
package bank

import (
	"context"
	"errors"
	"strings"

	"github.com/quizzerhq/quizzer/internal/quiz"
)

// ErrSetNotFound is returned when no set exists under the name.
var ErrSetNotFound = errors.New("question set not found")

// SetInfo summarizes one stored set.
type SetInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Bank is the question-set repository.
type Bank interface {
	Save(ctx context.Context, name string, questions []quiz.Question) error
	Load(ctx context.Context, name string) ([]quiz.Question, error)
	List(ctx context.Context) ([]SetInfo, error)
	Delete(ctx context.Context, name string) error
}

// sanitizeName reduces a set name to lowercase alphanumerics, dashes and
// underscores so it is safe as a filename or key.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			b.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune(ch + ('a' - 'A'))
		}
	}
	safe := strings.Trim(b.String(), "-_")
	if safe == "" {
		return "untitled"
	}
	return safe
}
