package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizzerhq/quizzer/internal/auth"
	"github.com/quizzerhq/quizzer/internal/bank"
	"github.com/quizzerhq/quizzer/internal/quiz"
	httperrors "github.com/quizzerhq/quizzer/pkg/http/errors"
)

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	token, err := s.auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn().Msg("admin login rejected")
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid password")
			return
		}
		httperrors.RespondInternalError(w, "Could not issue token")
		return
	}
	respondJSON(w, map[string]string{"token": token})
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
			return
		}
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code = newQuizCode()
	}

	snapshot, created := s.registry.Create(code)
	if created {
		s.dispatcher.Dispatch(code, nil, snapshot)
		s.logger.Info().Str("code", code).Msg("quiz created")
	}
	respondJSON(w, map[string]any{"code": code, "created": created})
}

// newQuizCode mints a short join code from a fresh UUID.
func newQuizCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:6])
}

func (s *Server) handleUploadQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Questions []quiz.Question `json:"questions"`
	}
	if err := decode(r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	code := s.code(r)
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return nil, sess.SetQuestions(req.Questions)
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true, "count": len(req.Questions)})
}

func (s *Server) handleExportQuestions(w http.ResponseWriter, r *http.Request) {
	var questions []quiz.Question
	err := s.registry.View(s.code(r), func(sess *quiz.Session) {
		questions = append(questions, sess.Questions...)
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	respondJSON(w, map[string]any{"questions": questions})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
			return
		}
	}

	code := s.code(r)
	now := time.Now()
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.Start(req.Index, now)
	})
	if errors.Is(err, quiz.ErrNoQuestions) {
		respondJSON(w, map[string]any{"ok": false, "message": "No questions uploaded"})
		return
	}
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	code := s.code(r)
	now := time.Now()
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.Advance(now)
	})
	if errors.Is(err, quiz.ErrNoQuestions) {
		respondJSON(w, map[string]any{"ok": false, "message": "No questions uploaded"})
		return
	}
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	code := s.code(r)
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.Reveal(), nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	code := s.code(r)
	now := time.Now()
	var paused bool
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		effects := sess.TogglePause(now)
		paused = sess.Paused
		return effects, nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true, "paused": paused})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	code := s.code(r)
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.Reset(), nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	s.logger.Info().Str("code", code).Msg("quiz reset")
	respondJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleSetLifelines(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lifelines map[string]bool `json:"lifelines"`
	}
	if err := decode(r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	code := s.code(r)
	var enabled map[string]bool
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		effects := sess.SetLifelinesEnabled(req.Lifelines)
		// Copy under the lock; the response marshals after Update returns.
		enabled = make(map[string]bool, len(sess.LifelinesEnabled))
		for name, on := range sess.LifelinesEnabled {
			enabled[name] = on
		}
		return effects, nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true, "lifelines": enabled})
}

func (s *Server) handleGetAllowedEmails(w http.ResponseWriter, r *http.Request) {
	var emails []string
	err := s.registry.View(s.code(r), func(sess *quiz.Session) {
		emails = append(emails, sess.AllowedEmails...)
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	respondJSON(w, map[string]any{"emails": emails})
}

func (s *Server) handleSetAllowedEmails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emails []string `json:"emails"`
		Mode   string   `json:"mode"`
	}
	if err := decode(r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	code := s.code(r)
	var emails []string
	_, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		// Copy under the lock; the response marshals after Update returns.
		emails = append([]string(nil), sess.SetAllowedEmails(req.Emails, req.Mode)...)
		return nil, nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, nil, snapshot)
	respondJSON(w, map[string]any{"emails": emails})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	var board []quiz.LeaderboardEntry
	err := s.registry.View(s.code(r), func(sess *quiz.Session) {
		board = sess.Leaderboard()
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	respondJSON(w, map[string]any{"leaderboard": board})
}

func (s *Server) handleLeaderboardShow(w http.ResponseWriter, r *http.Request) {
	code := s.code(r)
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.ShowLeaderboard(), nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleLeaderboardHide(w http.ResponseWriter, r *http.Request) {
	code := s.code(r)
	effects, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return sess.HideLeaderboard(), nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, effects, snapshot)
	respondJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleListQuestionSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.bank.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list question sets")
		httperrors.RespondInternalError(w, "Could not list question sets")
		return
	}
	respondJSON(w, map[string]any{"sets": sets})
}

func (s *Server) handleSaveQuestionSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string          `json:"name"`
		Questions []quiz.Question `json:"questions"`
	}
	if err := decode(r, &req); err != nil || req.Name == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "A set name is required")
		return
	}

	// Without an explicit question list, the current quiz questions are saved.
	if len(req.Questions) == 0 {
		err := s.registry.View(s.code(r), func(sess *quiz.Session) {
			req.Questions = append(req.Questions, sess.Questions...)
		})
		if err != nil {
			s.respondQuizError(w, err)
			return
		}
	}
	if len(req.Questions) == 0 {
		httperrors.RespondUnprocessable(w, httperrors.ErrCodeInvalidQuestionSet, "Nothing to save")
		return
	}

	if err := s.bank.Save(r.Context(), req.Name, req.Questions); err != nil {
		s.logger.Error().Err(err).Str("set", req.Name).Msg("save question set")
		httperrors.RespondInternalError(w, "Could not save question set")
		return
	}
	respondJSON(w, map[string]any{"ok": true, "name": req.Name, "count": len(req.Questions)})
}

func (s *Server) handleLoadQuestionSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil || req.Name == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "A set name is required")
		return
	}

	questions, err := s.bank.Load(r.Context(), req.Name)
	if err != nil {
		s.respondBankError(w, req.Name, err)
		return
	}
	respondJSON(w, map[string]any{"name": req.Name, "questions": questions})
}

func (s *Server) handleApplyQuestionSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil || req.Name == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "A set name is required")
		return
	}

	questions, err := s.bank.Load(r.Context(), req.Name)
	if err != nil {
		s.respondBankError(w, req.Name, err)
		return
	}

	code := s.code(r)
	_, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		return nil, sess.SetQuestions(questions)
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, nil, snapshot)
	respondJSON(w, map[string]any{"ok": true, "name": req.Name, "count": len(questions)})
}

func (s *Server) handleDeleteQuestionSet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.bank.Delete(r.Context(), name); err != nil {
		s.respondBankError(w, name, err)
		return
	}
	respondJSON(w, map[string]any{"ok": true})
}

// handleValidate lets the join page check a quiz code before registering.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	valid := s.registry.View(s.code(r), func(*quiz.Session) {}) == nil
	respondJSON(w, map[string]bool{"valid": valid})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string `json:"code"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code = s.code(r)
	}

	var player *quiz.Player
	_, snapshot, err := s.registry.Update(code, func(sess *quiz.Session) ([]quiz.Effect, error) {
		p, err := sess.Register(req.Name, req.Email)
		if err != nil {
			return nil, err
		}
		player = p
		return nil, nil
	})
	if err != nil {
		s.respondQuizError(w, err)
		return
	}
	s.dispatcher.Dispatch(code, nil, snapshot)

	respondJSON(w, map[string]any{
		"playerId":        player.ID,
		"name":            player.Name,
		"participantCode": player.ParticipantCode,
	})
}

// respondQuizError maps engine errors onto the API's error vocabulary.
func (s *Server) respondQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuizNotFound, "Quiz not found")
	case errors.Is(err, quiz.ErrEmailRequired):
		httperrors.RespondUnprocessable(w, httperrors.ErrCodeEmailRequired, "An email address is required")
	case errors.Is(err, quiz.ErrEmailNotAllowed):
		httperrors.RespondForbidden(w, httperrors.ErrCodeEmailNotAllowed, "This email is not on the allow list")
	case errors.Is(err, quiz.ErrRoundInProgress):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeRoundInProgress, "A question round is in progress")
	default:
		s.logger.Error().Err(err).Msg("quiz operation failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

func (s *Server) respondBankError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, bank.ErrSetNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionSetNotFound, "Question set not found")
		return
	}
	s.logger.Error().Err(err).Str("set", name).Msg("question set operation failed")
	httperrors.RespondInternalError(w, "Question set operation failed")
}
