package quiz

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQuizNotFound is returned for operations against an unknown code.
var ErrQuizNotFound = errors.New("quiz not found")

// Registry owns every quiz session in the process. Each session is guarded by
// its own mutex so mutating operations on one quiz serialize while distinct
// quizzes stay independent.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	scoring  ScoringConfig
	logger   zerolog.Logger
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// NewRegistry creates an empty registry.
func NewRegistry(scoring ScoringConfig, logger zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*sessionEntry),
		scoring:  scoring,
		logger:   logger,
	}
}

// Restore loads persisted snapshots at process start. Corrupt snapshots are
// skipped, never fatal. Returns the number of sessions restored.
func (r *Registry) Restore(snapshots map[string][]byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	restored := 0
	for code, data := range snapshots {
		session := NewSession(code)
		if err := json.Unmarshal(data, session); err != nil {
			r.logger.Warn().Err(err).Str("code", code).Msg("skip corrupt session snapshot")
			continue
		}
		session.Code = code
		r.attach(session)
		r.sessions[code] = &sessionEntry{session: session}
		restored++
	}
	return restored
}

// attach rehydrates fields a snapshot cannot carry.
func (r *Registry) attach(s *Session) {
	s.SetScoring(NewScoringEngine(r.scoring))
	if s.Players == nil {
		s.Players = make(map[string]*Player)
	}
	if s.CurrentAnswers == nil {
		s.CurrentAnswers = make(map[string]string)
	}
	if s.CurrentAnswerTimes == nil {
		s.CurrentAnswerTimes = make(map[string]time.Time)
	}
	if s.LifelinesEnabled == nil {
		s.LifelinesEnabled = defaultLifelines()
	}
}

// Create ensures a session exists for the code and returns its snapshot plus
// whether it was newly created.
func (r *Registry) Create(code string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[code]; ok {
		return nil, false
	}
	session := NewSession(code)
	r.attach(session)
	r.sessions[code] = &sessionEntry{session: session}

	data, err := json.Marshal(session)
	if err != nil {
		r.logger.Warn().Err(err).Str("code", code).Msg("marshal new session snapshot")
		return nil, true
	}
	return data, true
}

func (r *Registry) entry(code string) (*sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[code]
	return e, ok
}

// Update runs a mutating operation under the session's lock and returns the
// produced effects together with a post-mutation snapshot for persistence.
func (r *Registry) Update(code string, fn func(*Session) ([]Effect, error)) ([]Effect, []byte, error) {
	e, ok := r.entry(code)
	if !ok {
		return nil, nil, ErrQuizNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	effects, err := fn(e.session)
	if err != nil {
		return nil, nil, err
	}

	data, merr := json.Marshal(e.session)
	if merr != nil {
		r.logger.Warn().Err(merr).Str("code", code).Msg("marshal session snapshot")
		data = nil
	}
	return effects, data, nil
}

// View runs a read-only function under the session's lock.
func (r *Registry) View(code string, fn func(*Session)) error {
	e, ok := r.entry(code)
	if !ok {
		return ErrQuizNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
	return nil
}

// Codes lists the known quiz codes, sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.sessions))
	for code := range r.sessions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Snapshots marshals every session, used to flush state on shutdown.
func (r *Registry) Snapshots() map[string][]byte {
	out := make(map[string][]byte)
	for _, code := range r.Codes() {
		e, ok := r.entry(code)
		if !ok {
			continue
		}
		e.mu.Lock()
		data, err := json.Marshal(e.session)
		e.mu.Unlock()
		if err != nil {
			r.logger.Warn().Err(err).Str("code", code).Msg("marshal session snapshot")
			continue
		}
		out[code] = data
	}
	return out
}
