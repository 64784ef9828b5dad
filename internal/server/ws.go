package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/quizzerhq/quizzer/internal/quiz"
	"github.com/quizzerhq/quizzer/pkg/http/ws"
)

// wsClient is the per-connection state built up by join messages.
type wsClient struct {
	conn     *ws.Connection
	code     string
	playerID string
	isAdmin  bool
}

// handleWebSocket upgrades the connection and runs its read loop. A connection
// starts anonymous; join_quiz or admin_join binds it to a room.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: ws.NewConnection(raw, s.logger)}
	go client.conn.WritePump()

	client.conn.ReadPump(func(msg ws.Message) error {
		return s.handleMessage(client, msg)
	})

	s.cleanupClient(client)
	client.conn.Close()
}

func (s *Server) cleanupClient(client *wsClient) {
	if client.playerID != "" {
		s.hub.UnregisterPlayer(client.code, client.playerID, client.conn)
	}
	if client.isAdmin {
		s.hub.UnregisterAdmin(client.code, client.conn)
	}
}

func (s *Server) handleMessage(client *wsClient, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinQuiz:
		return s.handleJoinQuiz(client, msg.Payload)
	case ws.TypeSubmitAnswer:
		return s.handleSubmitAnswer(client, msg.Payload)
	case ws.TypeLifelineRequest:
		return s.handleLifelineRequest(client, msg.Payload)
	case ws.TypeAdminJoin:
		return s.handleAdminJoin(client, msg.Payload)
	case ws.TypeAdminCommand:
		return s.handleAdminCommand(client, msg.Payload)
	default:
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Unknown message type"}))
	}
}

func (s *Server) handleJoinQuiz(client *wsClient, raw json.RawMessage) error {
	var payload ws.JoinQuizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Invalid join payload"}))
	}
	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	if code == "" {
		code = s.cfg.DefaultQuizCode
	}

	known := false
	if err := s.registry.View(code, func(sess *quiz.Session) {
		_, known = sess.Players[payload.PlayerID]
	}); err != nil || !known {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Register before joining"}))
	}

	// A player holds one live socket; the replaced one gets told and closed.
	if prev := s.hub.RegisterPlayer(code, payload.PlayerID, client.conn); prev != nil {
		_ = prev.Send(ws.NewMessage(quiz.EventReplaced, quiz.ReplacedPayload{Reason: "connected elsewhere"}))
		prev.Close()
	}
	client.code = code
	client.playerID = payload.PlayerID

	now := time.Now()
	var effects []quiz.Effect
	if err := s.registry.View(code, func(sess *quiz.Session) {
		effects = sess.JoinEffects(payload.PlayerID, now)
	}); err != nil {
		return err
	}
	s.dispatcher.Dispatch(code, effects, nil)
	return nil
}

func (s *Server) handleSubmitAnswer(client *wsClient, raw json.RawMessage) error {
	if client.playerID == "" {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Join a quiz first"}))
	}
	var payload ws.SubmitAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Invalid answer payload"}))
	}

	now := time.Now()
	effects, snapshot, err := s.registry.Update(client.code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.Submit(client.playerID, payload.Answer, now), nil
	})
	if err != nil {
		return err
	}
	s.dispatcher.Dispatch(client.code, effects, snapshot)
	return nil
}

func (s *Server) handleLifelineRequest(client *wsClient, raw json.RawMessage) error {
	if client.playerID == "" {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Join a quiz first"}))
	}
	var payload ws.LifelineRequestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Invalid lifeline payload"}))
	}

	effects, snapshot, err := s.registry.Update(client.code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.UseLifeline(client.playerID, payload.Lifeline), nil
	})
	if err != nil {
		return err
	}
	s.dispatcher.Dispatch(client.code, effects, snapshot)
	return nil
}

func (s *Server) handleAdminJoin(client *wsClient, raw json.RawMessage) error {
	var payload ws.AdminJoinPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Invalid admin join payload"}))
	}
	if err := s.auth.ValidateToken(payload.Token); err != nil {
		s.logger.Warn().Msg("admin websocket join rejected")
		return client.conn.Send(ws.NewMessage(ws.TypeAdminJoined, ws.AdminJoinedPayload{OK: false}))
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	if code == "" {
		code = s.cfg.DefaultQuizCode
	}
	s.hub.RegisterAdmin(code, client.conn)
	client.code = code
	client.isAdmin = true

	return client.conn.Send(ws.NewMessage(ws.TypeAdminJoined, ws.AdminJoinedPayload{OK: true}))
}

func (s *Server) handleAdminCommand(client *wsClient, raw json.RawMessage) error {
	if !client.isAdmin {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Admin join required"}))
	}
	var payload ws.AdminCommandPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Invalid admin command payload"}))
	}

	now := time.Now()
	effects, snapshot, err := s.registry.Update(client.code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		switch payload.Action {
		case ws.ActionNext:
			return sess.Advance(now)
		case ws.ActionPause:
			return sess.TogglePause(now), nil
		case ws.ActionReveal:
			return sess.Reveal(), nil
		case ws.ActionShowLeaderboard:
			return sess.ShowLeaderboard(), nil
		case ws.ActionHideLeaderboard:
			return sess.HideLeaderboard(), nil
		default:
			return nil, errUnknownAction
		}
	})
	if errors.Is(err, errUnknownAction) {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "Unknown admin action"}))
	}
	if errors.Is(err, quiz.ErrNoQuestions) {
		return client.conn.Send(ws.NewMessage(ws.TypeError, ws.ErrorPayload{Message: "No questions uploaded"}))
	}
	if err != nil {
		return err
	}
	s.dispatcher.Dispatch(client.code, effects, snapshot)
	return nil
}

var errUnknownAction = errors.New("unknown admin action")
