package bank

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizzerhq/quizzer/internal/quiz"
)

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{ID: "q1", Text: "Capital of France?", Answer: "b", Duration: 30},
		{ID: "q2", Text: "2+2?", Answer: "4", Duration: 10},
	}
}

func TestFileBankRoundTrip(t *testing.T) {
	ctx := context.Background()
	fb, err := NewFileBank(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, fb.Save(ctx, "General Trivia!", sampleQuestions()))

	// Names sanitize to filename-safe keys.
	loaded, err := fb.Load(ctx, "generaltrivia")
	require.NoError(t, err)
	assert.Equal(t, sampleQuestions(), loaded)

	sets, err := fb.List(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "generaltrivia", sets[0].Name)
	assert.Equal(t, 2, sets[0].Count)
}

func TestFileBankLoadMissing(t *testing.T) {
	fb, err := NewFileBank(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	_, err = fb.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSetNotFound)
}

func TestFileBankDelete(t *testing.T) {
	ctx := context.Background()
	fb, err := NewFileBank(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, fb.Save(ctx, "weekly", sampleQuestions()))
	require.NoError(t, fb.Delete(ctx, "weekly"))
	assert.ErrorIs(t, fb.Delete(ctx, "weekly"), ErrSetNotFound)

	sets, err := fb.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestFileBankListSorted(t *testing.T) {
	ctx := context.Background()
	fb, err := NewFileBank(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, fb.Save(ctx, "zulu", sampleQuestions()))
	require.NoError(t, fb.Save(ctx, "alpha", sampleQuestions()[:1]))

	sets, err := fb.List(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "alpha", sets[0].Name)
	assert.Equal(t, 1, sets[0].Count)
	assert.Equal(t, "zulu", sets[1].Name)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "general-trivia_1", sanitizeName("General-Trivia_1"))
	assert.Equal(t, "abc", sanitizeName("../../a b c!"))
	assert.Equal(t, "untitled", sanitizeName("###"))
	assert.Equal(t, "untitled", sanitizeName(""))
}
