// Package auth is the identity gate: it verifies the operator password and
// issues the tokens that guard every admin operation, over HTTP and over the
// admin WebSocket channel alike.
package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Service validates admin credentials and tokens.
type Service struct {
	passwordHash string
	tokens       *TokenManager
	logger       zerolog.Logger
}

// NewService creates the identity gate.
func NewService(passwordHash string, tokens *TokenManager, logger zerolog.Logger) *Service {
	return &Service{passwordHash: passwordHash, tokens: tokens, logger: logger}
}

// Login exchanges the operator password for a signed admin token.
func (s *Service) Login(password string) (string, error) {
	if err := VerifyPassword(s.passwordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.tokens.GenerateAdminToken()
}

// ValidateToken checks a bearer token string.
func (s *Service) ValidateToken(token string) error {
	_, err := s.tokens.ValidateAdminToken(token)
	return err
}

// RequireAdmin wraps an HTTP handler with bearer-token validation.
func (s *Service) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || s.ValidateToken(token) != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"Admin token required"}`))
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Legacy header used by older admin consoles.
	return r.Header.Get("X-Admin-Token")
}
