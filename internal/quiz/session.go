package quiz

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoQuestions is returned by start/advance when nothing was uploaded.
	ErrNoQuestions = errors.New("no questions uploaded")
	// ErrEmailRequired is returned by registration without an email.
	ErrEmailRequired = errors.New("email required")
	// ErrEmailNotAllowed is returned when the allow-list excludes the email.
	ErrEmailNotAllowed = errors.New("email not allowed")
	// ErrRoundInProgress rejects question uploads while a question is live.
	ErrRoundInProgress = errors.New("question round in progress")
)

// Allowed-emails update modes.
const (
	EmailModeReplace = "replace"
	EmailModeAppend  = "append"
	EmailModeRemove  = "remove"
)

func (s *Session) scorer() *ScoringEngine {
	if s.scoring == nil {
		s.scoring = NewScoringEngine(DefaultScoringConfig())
	}
	return s.scoring
}

// SetScoring overrides the per-session scoring engine. Restored sessions fall
// back to defaults when this is never called.
func (s *Session) SetScoring(engine *ScoringEngine) {
	s.scoring = engine
}

// SetQuestions replaces the uploaded question list. Rejected while an
// unrevealed question is live so the answer ledger never refers to a question
// that changed underneath it.
func (s *Session) SetQuestions(questions []Question) error {
	if _, active := s.currentQuestion(); s.IsActive && active && !s.Revealed {
		return ErrRoundInProgress
	}
	s.Questions = NormalizeQuestions(questions)
	return nil
}

// resetRound clears every per-question field. Lifelines are untouched here;
// only Start resets them.
func (s *Session) resetRound(now time.Time) {
	s.Revealed = false
	s.CurrentAnswers = make(map[string]string)
	s.CurrentAnswerTimes = make(map[string]time.Time)
	s.AnswerOrder = nil
	s.QuestionStartedAt = now
	s.PausedAt = time.Time{}
	s.PausedAccumulated = 0
}

// Start begins a round at the given question index (nil means 0). Every
// player's lifelines become available again. Fails without mutating state
// when no questions are uploaded.
func (s *Session) Start(index *int, now time.Time) ([]Effect, error) {
	if len(s.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	s.IsActive = true
	s.Paused = false
	if index != nil {
		s.CurrentIndex = *index
	} else {
		s.CurrentIndex = 0
	}
	s.resetRound(now)

	var effects []Effect
	for _, p := range s.Players {
		p.Lifelines = defaultLifelines()
		effects = append(effects, toPlayer(p.ID, EventLifelineStatus, copyLifelines(p.Lifelines)))
	}
	return append(effects, s.emitCurrent(now)...), nil
}

// Advance moves to the next question. If the active question has not been
// revealed yet, this reveals instead of advancing; the admin issues the same
// command again to actually move on.
func (s *Session) Advance(now time.Time) ([]Effect, error) {
	if len(s.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	if _, active := s.currentQuestion(); active && !s.Revealed {
		return s.Reveal(), nil
	}

	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	} else {
		s.CurrentIndex++
	}
	s.Paused = false
	s.resetRound(now)

	effects := []Effect{toPlayers(EventLeaderboardHide, struct{}{})}
	return append(effects, s.emitCurrent(now)...), nil
}

// Reveal closes the answer window for the current question, scores every
// locked answer and publishes results. Idempotent: once revealed, repeat
// calls return nothing and award nothing. The countdown is irrelevant past
// this point, so the post-reveal status omits timing.
func (s *Session) Reveal() []Effect {
	q, active := s.currentQuestion()
	if s.Revealed || !active {
		return nil
	}

	submissions := make([]Submission, 0, len(s.AnswerOrder))
	for _, pid := range s.AnswerOrder {
		if _, ok := s.Players[pid]; !ok {
			continue
		}
		submissions = append(submissions, Submission{
			PlayerID:    pid,
			Answer:      s.CurrentAnswers[pid],
			SubmittedAt: s.CurrentAnswerTimes[pid],
		})
	}

	awards := s.scorer().Score(q, submissions)
	for _, award := range awards {
		if award.Correct {
			s.Players[award.PlayerID].Score += award.Points
		}
	}
	s.Revealed = true

	effects := []Effect{toPlayers(EventReveal, RevealPayload{CorrectAnswer: q.Answer})}
	for _, award := range awards {
		effects = append(effects, toPlayer(award.PlayerID, EventAnswerResult, AnswerResultPayload{
			Correct: award.Correct,
			Score:   s.Players[award.PlayerID].Score,
			Rank:    award.Rank,
			Bonus:   award.Bonus,
		}))
	}

	board := s.Leaderboard()
	effects = append(effects,
		toAdmins(EventLeaderboard, board),
		toPlayers(EventLeaderboard, board),
	)

	status := StatusPayload{Index: s.CurrentIndex, Total: len(s.Questions), Paused: s.Paused, Revealed: s.Revealed}
	return append(effects,
		toAdmins(EventStatus, status),
		toPlayers(EventStatus, status),
	)
}

// TogglePause pauses a live countdown or resumes a paused one. Resuming folds
// the pause interval into the accumulated total for the current question.
func (s *Session) TogglePause(now time.Time) []Effect {
	if !s.Paused {
		s.Paused = true
		s.PausedAt = now
		payload := PausedPayload{Code: s.Code}
		return []Effect{toPlayers(EventPaused, payload), toAdmins(EventPaused, payload)}
	}

	s.Paused = false
	if !s.PausedAt.IsZero() {
		if d := now.Sub(s.PausedAt); d > 0 {
			s.PausedAccumulated += d
		}
	}
	s.PausedAt = time.Time{}
	payload := PausedPayload{Code: s.Code}
	return []Effect{toPlayers(EventResumed, payload), toAdmins(EventResumed, payload)}
}

// Reset clears players and questions but keeps the code, so the quiz can be
// reused.
func (s *Session) Reset() []Effect {
	s.Players = make(map[string]*Player)
	s.Questions = nil
	s.CurrentIndex = -1
	s.IsActive = false
	s.Paused = false
	s.Revealed = false
	s.CurrentAnswers = make(map[string]string)
	s.CurrentAnswerTimes = make(map[string]time.Time)
	s.AnswerOrder = nil
	s.QuestionStartedAt = time.Time{}
	s.PausedAt = time.Time{}
	s.PausedAccumulated = 0

	payload := ResetPayload{Code: s.Code}
	return []Effect{toPlayers(EventReset, payload), toAdmins(EventReset, payload)}
}

// SetAllowedEmails normalizes and applies the allow-list update. An unknown
// mode behaves as replace.
func (s *Session) SetAllowedEmails(emails []string, mode string) []string {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			normalized = append(normalized, e)
		}
	}

	switch mode {
	case EmailModeAppend:
		existing := make(map[string]bool, len(s.AllowedEmails))
		for _, e := range s.AllowedEmails {
			existing[e] = true
		}
		for _, e := range normalized {
			if !existing[e] {
				s.AllowedEmails = append(s.AllowedEmails, e)
				existing[e] = true
			}
		}
	case EmailModeRemove:
		remove := make(map[string]bool, len(normalized))
		for _, e := range normalized {
			remove[e] = true
		}
		kept := s.AllowedEmails[:0]
		for _, e := range s.AllowedEmails {
			if !remove[e] {
				kept = append(kept, e)
			}
		}
		s.AllowedEmails = kept
	default:
		s.AllowedEmails = normalized
	}
	return s.AllowedEmails
}

// Submit records a player's answer for the current question. The first
// accepted submission locks; everything else is rejected with a reason code
// delivered only to the acting player.
func (s *Session) Submit(playerID, answer string, now time.Time) []Effect {
	if s.Paused || s.Revealed {
		return []Effect{toPlayer(playerID, EventAnswerRejected, AnswerRejectedPayload{Reason: RejectPausedOrRevealed})}
	}
	q, active := s.currentQuestion()
	if !active {
		return []Effect{toPlayer(playerID, EventAnswerRejected, AnswerRejectedPayload{Reason: RejectNoActiveQuestion})}
	}
	if !s.QuestionStartedAt.IsZero() && s.Elapsed(now) > time.Duration(q.Duration)*time.Second {
		return []Effect{toPlayer(playerID, EventAnswerRejected, AnswerRejectedPayload{Reason: RejectTimeExpired})}
	}
	if _, locked := s.CurrentAnswers[playerID]; locked {
		return []Effect{toPlayer(playerID, EventAnswerRejected, AnswerRejectedPayload{Reason: RejectAlreadyLocked})}
	}

	s.CurrentAnswers[playerID] = answer
	s.CurrentAnswerTimes[playerID] = now
	s.AnswerOrder = append(s.AnswerOrder, playerID)

	name := "?"
	if p, ok := s.Players[playerID]; ok {
		name = p.Name
	}
	return []Effect{
		toAdmins(EventAnswerSubmitted, AnswerSubmittedPayload{PlayerID: playerID, Name: name}),
		toPlayer(playerID, EventAnswerLocked, AnswerLockedPayload{Locked: true}),
	}
}

// Register creates a player, or returns the existing one when the email is
// already registered so reconnects keep their identity and score.
func (s *Session) Register(name, email string) (*Player, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}
	normalized := strings.ToLower(strings.TrimSpace(email))

	if len(s.AllowedEmails) > 0 {
		allowed := false
		for _, e := range s.AllowedEmails {
			if strings.EqualFold(e, normalized) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, ErrEmailNotAllowed
		}
	}

	for _, p := range s.Players {
		if strings.EqualFold(p.Email, normalized) {
			return p, nil
		}
	}

	player := &Player{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           normalized,
		ParticipantCode: normalized,
		Lifelines:       defaultLifelines(),
	}
	s.Players[player.ID] = player
	return player, nil
}

// JoinEffects builds the welcome sequence for a player connection: join ack,
// lifeline status, and, when a round is already live, the current question
// and status so late joiners can resynchronize immediately.
func (s *Session) JoinEffects(playerID string, now time.Time) []Effect {
	player, ok := s.Players[playerID]
	if !ok {
		return nil
	}

	effects := []Effect{
		toPlayer(playerID, EventJoined, JoinedPayload{OK: true, ParticipantCode: player.ParticipantCode}),
		toPlayer(playerID, EventLifelineStatus, copyLifelines(player.Lifelines)),
	}

	if q, active := s.currentQuestion(); s.IsActive && active {
		effects = append(effects,
			toPlayer(playerID, EventQuestion, s.questionPayload(q, now)),
			toPlayer(playerID, EventStatus, s.statusPayload(q, now)),
		)
	}
	return effects
}

// Leaderboard returns players ordered by score descending. Ties order by
// name, then id, so output is deterministic.
func (s *Session) Leaderboard() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(s.Players))
	for _, p := range s.Players {
		entries = append(entries, LeaderboardEntry{
			ID:              p.ID,
			Name:            p.Name,
			Score:           p.Score,
			ParticipantCode: p.ParticipantCode,
		})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Score != entries[b].Score {
			return entries[a].Score > entries[b].Score
		}
		if entries[a].Name != entries[b].Name {
			return entries[a].Name < entries[b].Name
		}
		return entries[a].ID < entries[b].ID
	})
	return entries
}

// ShowLeaderboard publishes the score table to every participant.
func (s *Session) ShowLeaderboard() []Effect {
	return []Effect{toPlayers(EventLeaderboardShow, s.Leaderboard())}
}

// HideLeaderboard removes the score table from participant screens.
func (s *Session) HideLeaderboard() []Effect {
	return []Effect{toPlayers(EventLeaderboardHide, struct{}{})}
}

func (s *Session) questionPayload(q Question, now time.Time) QuestionPayload {
	return QuestionPayload{
		Question:   s.playerQuestion(q),
		Index:      s.CurrentIndex,
		Duration:   q.Duration,
		StartedAt:  epochSeconds(s.QuestionStartedAt),
		ServerTime: epochSeconds(now),
		Remaining:  s.Remaining(now).Seconds(),
	}
}

func (s *Session) statusPayload(q Question, now time.Time) StatusPayload {
	return StatusPayload{
		Index:      s.CurrentIndex,
		Total:      len(s.Questions),
		Paused:     s.Paused,
		Revealed:   s.Revealed,
		Duration:   q.Duration,
		StartedAt:  epochSeconds(s.QuestionStartedAt),
		ServerTime: epochSeconds(now),
		Remaining:  s.Remaining(now).Seconds(),
	}
}

// emitCurrent emits the active question to participants plus a status to both
// rooms, or the end-of-quiz signal when the index ran past the last question.
func (s *Session) emitCurrent(now time.Time) []Effect {
	q, active := s.currentQuestion()
	if !active {
		var effects []Effect
		if s.IsActive {
			effects = append(effects, toPlayers(EventComplete, struct{}{}))
		}
		s.IsActive = false
		return effects
	}

	status := s.statusPayload(q, now)
	return []Effect{
		toPlayers(EventQuestion, s.questionPayload(q, now)),
		toAdmins(EventStatus, status),
		toPlayers(EventStatus, status),
	}
}
