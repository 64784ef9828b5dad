// Package server exposes the admin REST surface, player registration and the
// WebSocket endpoint of the quiz service.
package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quizzerhq/quizzer/internal/auth"
	"github.com/quizzerhq/quizzer/internal/bank"
	"github.com/quizzerhq/quizzer/internal/config"
	"github.com/quizzerhq/quizzer/internal/dispatch"
	"github.com/quizzerhq/quizzer/internal/quiz"
	"github.com/quizzerhq/quizzer/pkg/http/ws"
)

// Server holds the handler dependencies.
type Server struct {
	cfg        *config.App
	registry   *quiz.Registry
	dispatcher *dispatch.Dispatcher
	bank       bank.Bank
	auth       *auth.Service
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewHTTPServer wires every route of the API service.
func NewHTTPServer(
	cfg *config.App,
	registry *quiz.Registry,
	dispatcher *dispatch.Dispatcher,
	questionBank bank.Bank,
	authSvc *auth.Service,
	hub *ws.Hub,
	logger zerolog.Logger,
) *http.Server {
	s := &Server{
		cfg:        cfg,
		registry:   registry,
		dispatcher: dispatcher,
		bank:       questionBank,
		auth:       authSvc,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.CORS.AllowedOrigins),
		},
		logger: logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/admin/login", s.handleAdminLogin)

	admin := authSvc.RequireAdmin
	mux.HandleFunc("POST /v1/admin/quiz", admin(s.handleCreateQuiz))
	mux.HandleFunc("POST /v1/admin/questions", admin(s.handleUploadQuestions))
	mux.HandleFunc("GET /v1/admin/questions/export", admin(s.handleExportQuestions))
	mux.HandleFunc("POST /v1/admin/start", admin(s.handleStart))
	mux.HandleFunc("POST /v1/admin/next", admin(s.handleNext))
	mux.HandleFunc("POST /v1/admin/reveal", admin(s.handleReveal))
	mux.HandleFunc("POST /v1/admin/pause", admin(s.handlePause))
	mux.HandleFunc("POST /v1/admin/reset", admin(s.handleReset))
	mux.HandleFunc("POST /v1/admin/lifelines", admin(s.handleSetLifelines))
	mux.HandleFunc("GET /v1/admin/allowed_emails", admin(s.handleGetAllowedEmails))
	mux.HandleFunc("POST /v1/admin/allowed_emails", admin(s.handleSetAllowedEmails))
	mux.HandleFunc("GET /v1/admin/leaderboard", admin(s.handleLeaderboard))
	mux.HandleFunc("POST /v1/admin/leaderboard/show", admin(s.handleLeaderboardShow))
	mux.HandleFunc("POST /v1/admin/leaderboard/hide", admin(s.handleLeaderboardHide))
	mux.HandleFunc("GET /v1/admin/question_sets", admin(s.handleListQuestionSets))
	mux.HandleFunc("POST /v1/admin/question_sets/save", admin(s.handleSaveQuestionSet))
	mux.HandleFunc("POST /v1/admin/question_sets/load", admin(s.handleLoadQuestionSet))
	mux.HandleFunc("POST /v1/admin/question_sets/apply", admin(s.handleApplyQuestionSet))
	mux.HandleFunc("DELETE /v1/admin/question_sets/{name}", admin(s.handleDeleteQuestionSet))

	mux.HandleFunc("GET /v1/quiz/validate", s.handleValidate)
	mux.HandleFunc("POST /v1/quiz/register", s.handleRegister)

	mux.HandleFunc("GET /ws/quiz", s.handleWebSocket)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS.AllowedOrigins, mux),
	}
}

// code returns the quiz code a request targets, defaulting to the configured
// global code. Codes are uppercase everywhere.
func (s *Server) code(r *http.Request) string {
	if code := strings.TrimSpace(r.URL.Query().Get("code")); code != "" {
		return strings.ToUpper(code)
	}
	return s.cfg.DefaultQuizCode
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		return set[r.Header.Get("Origin")]
	}
}

func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	wildcard := false
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		set[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if wildcard {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if set[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Admin-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
