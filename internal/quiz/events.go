package quiz

// Event names are the wire contract shared with the web clients and must not
// be renamed.
const (
	EventQuestion        = "question"
	EventStatus          = "status"
	EventComplete        = "complete"
	EventReveal          = "reveal"
	EventAnswerResult    = "answer_result"
	EventAnswerSubmitted = "answer_submitted"
	EventAnswerLocked    = "answer_locked"
	EventAnswerRejected  = "answer_rejected"
	EventLeaderboard     = "leaderboard"
	EventLeaderboardShow = "leaderboard_show"
	EventLeaderboardHide = "leaderboard_hide"
	EventPaused          = "paused"
	EventResumed         = "resumed"
	EventReset           = "reset"
	EventJoined          = "joined"
	EventLifelines       = "lifelines"
	EventLifelineStatus  = "lifeline_status"
	EventLifelineUsed    = "lifeline_used"
	EventLifeline5050    = "lifeline_5050"
	EventLifelineHint    = "lifeline_hint"
	EventLifelineDenied  = "lifeline_denied"
	EventLifelineAck     = "lifeline_ack"
	EventReplaced        = "replaced"
)

// Answer rejection reason codes surfaced via answer_rejected.
const (
	RejectPausedOrRevealed = "paused_or_revealed"
	RejectNoActiveQuestion = "no_active_question"
	RejectTimeExpired      = "time_expired"
	RejectAlreadyLocked    = "already_locked"
)

// QuestionPayload carries the active question to participants. StartedAt,
// ServerTime and Remaining let any client rebuild its countdown regardless of
// network delay.
type QuestionPayload struct {
	Question   Question `json:"question"`
	Index      int      `json:"index"`
	Duration   int      `json:"duration"`
	StartedAt  float64  `json:"startedAt"`
	ServerTime float64  `json:"serverTime"`
	Remaining  float64  `json:"remaining"`
}

// StatusPayload mirrors QuestionPayload for round bookkeeping.
type StatusPayload struct {
	Index      int     `json:"index"`
	Total      int     `json:"total"`
	Paused     bool    `json:"paused"`
	Revealed   bool    `json:"revealed"`
	Duration   int     `json:"duration,omitempty"`
	StartedAt  float64 `json:"startedAt,omitempty"`
	ServerTime float64 `json:"serverTime,omitempty"`
	Remaining  float64 `json:"remaining,omitempty"`
}

type RevealPayload struct {
	CorrectAnswer string `json:"correctAnswer"`
}

type AnswerResultPayload struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
	Rank    int  `json:"rank,omitempty"`
	Bonus   int  `json:"bonus"`
}

type AnswerSubmittedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type AnswerLockedPayload struct {
	Locked bool `json:"locked"`
}

type AnswerRejectedPayload struct {
	Reason string `json:"reason"`
}

// LeaderboardEntry is one row of the score table, ordered by score descending.
type LeaderboardEntry struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Score           int    `json:"score"`
	ParticipantCode string `json:"participantCode,omitempty"`
}

type PausedPayload struct {
	Code string `json:"code"`
}

type ResetPayload struct {
	Code string `json:"code"`
}

type JoinedPayload struct {
	OK              bool   `json:"ok"`
	ParticipantCode string `json:"participantCode,omitempty"`
}

type LifelineUsedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Lifeline string `json:"lifeline"`
}

type Lifeline5050Payload struct {
	KeepIDs []string `json:"keepIds"`
}

type LifelineHintPayload struct {
	Hint string `json:"hint"`
}

type LifelineDeniedPayload struct {
	Lifeline string `json:"lifeline"`
}

type LifelineAckPayload struct {
	Lifeline string `json:"lifeline"`
}

type ReplacedPayload struct {
	Reason string `json:"reason"`
}
