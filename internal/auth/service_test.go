package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	tokens := NewTokenManager(TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	return NewService(hash, tokens, zerolog.Nop())
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := testService(t)

	token, err := svc.Login("correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NoError(t, svc.ValidateToken(token))
}

func TestLoginWrongPassword(t *testing.T) {
	svc := testService(t)

	_, err := svc.Login("wrong password")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := testService(t)

	assert.Error(t, svc.ValidateToken(""))
	assert.Error(t, svc.ValidateToken("not.a.jwt"))
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := testService(t)

	other := NewTokenManager(TokenConfig{Secret: []byte("other-secret"), TTL: time.Hour})
	token, err := other.GenerateAdminToken()
	require.NoError(t, err)

	assert.Error(t, svc.ValidateToken(token))
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewTokenManager(TokenConfig{Secret: []byte("s"), TTL: -time.Minute})
	token, err := tokens.GenerateAdminToken()
	require.NoError(t, err)

	_, err = tokens.ValidateAdminToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRequireAdmin(t *testing.T) {
	svc := testService(t)
	token, err := svc.Login("correct horse battery")
	require.NoError(t, err)

	handler := svc.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/start", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("legacy header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/start", nil)
		req.Header.Set("X-Admin-Token", token)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/start", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/start", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHashPasswordMinimumLength(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
