package quiz

import "time"

// totalPaused is the paused time charged against the current question,
// including the open pause interval if the session is paused right now.
func (s *Session) totalPaused(now time.Time) time.Duration {
	total := s.PausedAccumulated
	if s.Paused && !s.PausedAt.IsZero() {
		if d := now.Sub(s.PausedAt); d > 0 {
			total += d
		}
	}
	return total
}

// Elapsed returns unpaused wall time since the current question was emitted.
// Zero when no question has started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.QuestionStartedAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(s.QuestionStartedAt) - s.totalPaused(now)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Remaining recomputes the countdown for the active question on every call,
// so pause/resume stays exact and reconnecting clients can resynchronize at
// any moment. Returns 0 when no question is active.
func (s *Session) Remaining(now time.Time) time.Duration {
	q, ok := s.currentQuestion()
	if !ok {
		return 0
	}
	remaining := time.Duration(q.Duration)*time.Second - s.Elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
