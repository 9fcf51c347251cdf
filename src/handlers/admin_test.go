package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_RequireSession(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/admin/users", "/api/admin/profile", "/api/admin/sessions"} {
		w := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Contains(t, w.Header().Get("Location"), "/login?redirect=", path)
	}
}

func TestHandleCreateAndListUsers(t *testing.T) {
	s := newTestServer(t)
	s.createAdmin(t, "a@b.com", "Secret123!")
	token := s.login(t, "a@b.com", "Secret123!")

	w := s.do(http.MethodPost, "/api/admin/users", token, gin.H{"email": "staff@school.org", "password": "aaa"})
	assertStatusCode(t, w, http.StatusCreated)
	body := decode(t, w)
	strength := body["password_strength"].(map[string]interface{})
	assert.Equal(t, false, strength["is_strong"], "weak passwords are reported, not rejected")

	w = s.do(http.MethodPost, "/api/admin/users", token, gin.H{"email": "staff@school.org", "password": "Secret123!"})
	assertStatusCode(t, w, http.StatusConflict)

	w = s.do(http.MethodGet, "/api/admin/users", token, nil)
	assertStatusCode(t, w, http.StatusOK)
	list := decode(t, w)
	assert.Equal(t, float64(2), list["total"])
	assert.NotContains(t, w.Body.String(), "$2a$")
}

func TestHandleDeleteUser(t *testing.T) {
	s := newTestServer(t)
	me := s.createAdmin(t, "a@b.com", "Secret123!")
	other := s.createAdmin(t, "c@d.com", "Secret123!")
	token := s.login(t, "a@b.com", "Secret123!")
	otherToken := s.login(t, "c@d.com", "Secret123!")

	w := s.do(http.MethodDelete, "/api/admin/users/"+me.ID.String(), token, nil)
	assertStatusCode(t, w, http.StatusBadRequest)

	w = s.do(http.MethodDelete, "/api/admin/users/"+other.ID.String(), token, nil)
	assertStatusCode(t, w, http.StatusOK)
	assert.Nil(t, s.auth.ValidateToken(context.Background(), otherToken), "deleted admin's sessions are gone")

	w = s.do(http.MethodDelete, "/api/admin/users/"+uuid.NewString(), token, nil)
	assertStatusCode(t, w, http.StatusNotFound)
}

func TestHandleResetPassword(t *testing.T) {
	s := newTestServer(t)
	s.createAdmin(t, "a@b.com", "Secret123!")
	other := s.createAdmin(t, "c@d.com", "Secret123!")
	token := s.login(t, "a@b.com", "Secret123!")
	otherToken := s.login(t, "c@d.com", "Secret123!")

	w := s.do(http.MethodPost, "/api/admin/users/"+other.ID.String()+"/reset-password", token, nil)
	assertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	password, ok := decode(t, w)["password"].(string)
	require.True(t, ok)
	assert.Len(t, password, 16)
	assert.Nil(t, s.auth.ValidateToken(context.Background(), otherToken))

	s.login(t, "c@d.com", password)
}

func TestHandlePasswordStrength(t *testing.T) {
	s := newTestServer(t)
	s.createAdmin(t, "a@b.com", "Secret123!")
	token := s.login(t, "a@b.com", "Secret123!")

	w := s.do(http.MethodPost, "/api/admin/password-strength", token, gin.H{"password": "Secret123!"})
	assertStatusCode(t, w, http.StatusOK)
	body := decode(t, w)
	assert.Equal(t, float64(6), body["score"])
	assert.Equal(t, true, body["is_strong"])
}

func TestHandleCleanupTokens(t *testing.T) {
	s := newTestServer(t)
	s.createAdmin(t, "a@b.com", "Secret123!")
	old := s.login(t, "a@b.com", "Secret123!")
	token := s.login(t, "a@b.com", "Secret123!")

	w := s.do(http.MethodPost, "/api/auth/logout", old, nil)
	assertStatusCode(t, w, http.StatusOK)

	w = s.do(http.MethodPost, "/api/admin/tokens/cleanup", token, nil)
	assertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, float64(1), decode(t, w)["deleted"])
}
