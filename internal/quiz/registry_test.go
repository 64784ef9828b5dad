package quiz

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(DefaultScoringConfig(), zerolog.Nop())
}

func TestRegistryCreateIsIdempotent(t *testing.T) {
	r := testRegistry()

	snapshot, created := r.Create("GLOBAL")
	assert.True(t, created)
	assert.NotNil(t, snapshot)

	_, created = r.Create("GLOBAL")
	assert.False(t, created)
	assert.Equal(t, []string{"GLOBAL"}, r.Codes())
}

func TestRegistryUpdateReturnsEffectsAndSnapshot(t *testing.T) {
	r := testRegistry()
	r.Create("GLOBAL")

	effects, snapshot, err := r.Update("GLOBAL", func(s *Session) ([]Effect, error) {
		require.NoError(t, s.SetQuestions(testQuestions()))
		return s.Start(nil, time.Now())
	})
	require.NoError(t, err)
	assert.NotEmpty(t, effects)

	var persisted Session
	require.NoError(t, json.Unmarshal(snapshot, &persisted))
	assert.True(t, persisted.IsActive)
	assert.Len(t, persisted.Questions, 2)
}

func TestRegistryUpdateErrorSkipsSnapshot(t *testing.T) {
	r := testRegistry()
	r.Create("GLOBAL")

	_, snapshot, err := r.Update("GLOBAL", func(s *Session) ([]Effect, error) {
		return s.Start(nil, time.Now())
	})
	assert.ErrorIs(t, err, ErrNoQuestions)
	assert.Nil(t, snapshot)
}

func TestRegistryUnknownCode(t *testing.T) {
	r := testRegistry()

	_, _, err := r.Update("NOPE", func(s *Session) ([]Effect, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrQuizNotFound)
	assert.ErrorIs(t, r.View("NOPE", func(s *Session) {}), ErrQuizNotFound)
}

func TestRegistryRestoreRoundTrip(t *testing.T) {
	r := testRegistry()
	r.Create("GLOBAL")

	now := time.Now()
	_, snapshot, err := r.Update("GLOBAL", func(s *Session) ([]Effect, error) {
		require.NoError(t, s.SetQuestions(testQuestions()))
		p, err := s.Register("Ada", "ada@example.com")
		require.NoError(t, err)
		p.Score = 25
		return s.Start(nil, now)
	})
	require.NoError(t, err)

	fresh := testRegistry()
	restored := fresh.Restore(map[string][]byte{
		"GLOBAL": snapshot,
		"BAD":    []byte("{not json"),
	})
	assert.Equal(t, 1, restored)

	err = fresh.View("GLOBAL", func(s *Session) {
		assert.True(t, s.IsActive)
		assert.Len(t, s.Players, 1)
		board := s.Leaderboard()
		require.Len(t, board, 1)
		assert.Equal(t, 25, board[0].Score)
	})
	require.NoError(t, err)

	// The restored session scores with the registry config, not a zero value.
	_, _, err = fresh.Update("GLOBAL", func(s *Session) ([]Effect, error) {
		var playerID string
		for id := range s.Players {
			playerID = id
		}
		s.Submit(playerID, "b", now.Add(time.Second))
		s.Reveal()
		assert.Equal(t, 40, s.Players[playerID].Score, "25 carried over plus a 15 point award")
		return nil, nil
	})
	require.NoError(t, err)
}

// Effects are marshaled by the dispatcher after Update releases the session
// lock, so payloads must be safe to encode while concurrent operations mutate
// the same session. Run with -race.
func TestUpdateEffectsMarshalSafelyUnderConcurrency(t *testing.T) {
	r := testRegistry()
	r.Create("GLOBAL")

	const players = 4
	_, _, err := r.Update("GLOBAL", func(s *Session) ([]Effect, error) {
		require.NoError(t, s.SetQuestions(testQuestions()))
		for i := 0; i < players; i++ {
			addTestPlayer(s, fmt.Sprintf("p%d", i), "Player")
		}
		return s.Start(nil, time.Now())
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		playerID := fmt.Sprintf("p%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < 50; iter++ {
				effects, _, err := r.Update("GLOBAL", func(s *Session) ([]Effect, error) {
					if iter%2 == 0 {
						return s.UseLifeline(playerID, LifelineHint), nil
					}
					return s.Start(nil, time.Now())
				})
				if !assert.NoError(t, err) {
					return
				}
				for _, effect := range effects {
					_, merr := json.Marshal(effect.Payload)
					assert.NoError(t, merr)
				}
			}
		}()
	}
	wg.Wait()
}

func TestRegistrySnapshotsCoverEverySession(t *testing.T) {
	r := testRegistry()
	r.Create("A")
	r.Create("B")

	snapshots := r.Snapshots()
	assert.Len(t, snapshots, 2)
	assert.Contains(t, snapshots, "A")
	assert.Contains(t, snapshots, "B")
}
