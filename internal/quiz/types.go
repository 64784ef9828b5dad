package quiz

import (
	"time"
)

// Lifeline names. These are the only lifelines the engine knows about;
// unknown names are never applied.
const (
	LifelineFiftyFifty = "5050"
	LifelineHint       = "hint"
)

// DefaultQuestionSeconds is applied when an uploaded question carries no duration.
const DefaultQuestionSeconds = 30

// Choice is one selectable option of a multiple-choice question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a single quiz question. Answer is the canonical choice id or
// free text; empty means the question is ungraded and every submission counts
// as correct.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Choices  []Choice `json:"choices,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Duration int      `json:"duration"`
	Hint     string   `json:"hint,omitempty"`
}

// Player is one registered participant. The ID is server-generated and stable
// for the session; ParticipantCode is the normalized email shown to humans.
type Player struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email,omitempty"`
	ParticipantCode string          `json:"participant_code,omitempty"`
	Score           int             `json:"score"`
	Lifelines       map[string]bool `json:"lifelines"`
}

// Session holds the full in-memory state of one quiz, keyed by code. All
// fields are exported so a session marshals directly into its snapshot.
type Session struct {
	Code             string             `json:"code"`
	Players          map[string]*Player `json:"players"`
	Questions        []Question         `json:"questions"`
	CurrentIndex     int                `json:"current_index"`
	IsActive         bool               `json:"is_active"`
	LifelinesEnabled map[string]bool    `json:"lifelines_enabled"`
	AllowedEmails    []string           `json:"allowed_emails"`
	Paused           bool               `json:"paused"`
	Revealed         bool               `json:"revealed"`

	// Per-question timing. QuestionStartedAt is zero when no question has
	// been emitted; PausedAt is set iff Paused is true; PausedAccumulated
	// covers the current question only.
	QuestionStartedAt time.Time     `json:"question_started_at"`
	PausedAt          time.Time     `json:"paused_at"`
	PausedAccumulated time.Duration `json:"paused_accumulated"`

	// Answer ledger for the current question. Presence of a player key in
	// CurrentAnswers is the lock; CurrentAnswerTimes shares its lifecycle.
	CurrentAnswers     map[string]string    `json:"current_answers"`
	CurrentAnswerTimes map[string]time.Time `json:"current_answer_times"`

	// Insertion order of answer submissions, used as the stable tie-break
	// when ranking equal submission times.
	AnswerOrder []string `json:"answer_order"`

	scoring *ScoringEngine
}

// NewSession creates an empty session for a code.
func NewSession(code string) *Session {
	return &Session{
		Code:               code,
		Players:            make(map[string]*Player),
		CurrentIndex:       -1,
		LifelinesEnabled:   defaultLifelines(),
		CurrentAnswers:     make(map[string]string),
		CurrentAnswerTimes: make(map[string]time.Time),
	}
}

func defaultLifelines() map[string]bool {
	return map[string]bool{LifelineFiftyFifty: true, LifelineHint: true}
}

// currentQuestion returns the active question, or false when CurrentIndex is
// out of range.
func (s *Session) currentQuestion() (Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// playerQuestion strips the canonical answer before a question goes out to
// participants.
func (s *Session) playerQuestion(q Question) Question {
	q.Answer = ""
	return q
}

// NormalizeQuestions fills defaulted durations on an uploaded question list.
func NormalizeQuestions(questions []Question) []Question {
	for i := range questions {
		if questions[i].Duration <= 0 {
			questions[i].Duration = DefaultQuestionSeconds
		}
	}
	return questions
}

func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixMilli()) / 1000.0
}
