// internal/handlers/utils_test.go
package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwrobel/moresongs/internal/auth"
)

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc123", extractCookieToken("auth_token=abc123", "auth_token"))
	assert.Equal(t, "abc123", extractCookieToken("other=x; auth_token=abc123; more=y", "auth_token"))
	assert.Equal(t, "", extractCookieToken("other=x", "auth_token"))
	assert.Equal(t, "", extractCookieToken("", "auth_token"))
}

func TestAuthenticateFromCookie(t *testing.T) {
	auth.Init() // ephemeral keys, no DB needed
	s := &Server{}

	userID := uuid.New()
	token, err := auth.CreateJWT(userID.String())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/lobby/current", nil)
	req.Header.Set("Cookie", "auth_token="+token)

	got, ok := s.authenticate(req)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	auth.Init()
	s := &Server{}

	req := httptest.NewRequest("GET", "/lobby/current", nil)
	_, ok := s.authenticate(req)
	assert.False(t, ok, "missing cookie must fail")

	req.Header.Set("Cookie", "auth_token=not-a-jwt")
	_, ok = s.authenticate(req)
	assert.False(t, ok, "malformed token must fail")
}
