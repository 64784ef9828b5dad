package ws

import "encoding/json"

// Client -> server message types.
const (
	TypeJoinQuiz        = "join_quiz"
	TypeSubmitAnswer    = "submit_answer"
	TypeLifelineRequest = "lifeline_request"
	TypeAdminJoin       = "admin_join"
	TypeAdminCommand    = "admin_command"
)

// Server -> client housekeeping types. Engine events (question, status,
// reveal, ...) use their wire names directly as the message type.
const (
	TypeError       = "error"
	TypeAdminJoined = "admin_joined"
)

// Admin command actions.
const (
	ActionNext            = "next"
	ActionPause           = "pause"
	ActionReveal          = "reveal"
	ActionShowLeaderboard = "show_leaderboard"
	ActionHideLeaderboard = "hide_leaderboard"
)

// Message wraps every WebSocket payload with its type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals a payload into a Message. Marshal failures produce a
// payload-less message rather than an error; payloads are engine-owned
// structs that always marshal.
func NewMessage(msgType string, payload any) Message {
	msg := Message{Type: msgType}
	if payload != nil {
		msg.Payload, _ = json.Marshal(payload)
	}
	return msg
}

// Client messages (incoming).

type JoinQuizPayload struct {
	Code     string `json:"code,omitempty"`
	Name     string `json:"name"`
	PlayerID string `json:"playerId"`
	Email    string `json:"email,omitempty"`
}

type SubmitAnswerPayload struct {
	Answer string `json:"answer"`
}

type LifelineRequestPayload struct {
	Lifeline string `json:"lifeline"`
}

type AdminJoinPayload struct {
	Code  string `json:"code,omitempty"`
	Token string `json:"token"`
}

type AdminCommandPayload struct {
	Action string `json:"action"`
}

// Server messages (outgoing).

type ErrorPayload struct {
	Message string `json:"message"`
}

type AdminJoinedPayload struct {
	OK bool `json:"ok"`
}
