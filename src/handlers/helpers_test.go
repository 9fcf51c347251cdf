package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/lms-admin/src/cookies"
	"github.com/khabaroff/lms-admin/src/database"
	"github.com/khabaroff/lms-admin/src/middleware"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories/sqlite"
	"github.com/khabaroff/lms-admin/src/services"
)

// testServer is the full route table over an in-memory store
type testServer struct {
	router    *gin.Engine
	db        *database.SQLite
	auth      *services.AuthService
	admins    *services.AdminService
	passwords *services.PasswordService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestSQLite(t)
	store := sqlite.NewStore(db.DB())
	passwords := services.NewPasswordServiceWithCost(bcrypt.MinCost)
	tokens := services.NewTokenService(store.Tokens)
	auth := services.NewAuthService(store.Admins, passwords, tokens, nil)
	admins := services.NewAdminService(store.Admins, tokens, passwords)

	opts := cookies.Options{}
	router := gin.New()
	router.Use(middleware.RouteGuard(auth, middleware.DefaultGuardConfig(opts)))
	Register(router, Deps{
		Auth:      auth,
		Admins:    admins,
		Passwords: passwords,
		Store:     db,
		Cookies:   opts,
	})

	return &testServer{router: router, db: db, auth: auth, admins: admins, passwords: passwords}
}

func (s *testServer) createAdmin(t *testing.T, email, password string) *models.PublicAdminUser {
	t.Helper()
	u, err := s.admins.CreateAdminUser(context.Background(), models.NewAdminInput{Email: email, Password: password})
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	return u
}

// login signs in through the HTTP API and returns the session cookie value
func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	assertStatusCode(t, w, http.StatusOK)
	ck := findCookie(w, cookies.AccessTokenName)
	if ck == nil || ck.Value == "" {
		t.Fatalf("login did not set %s", cookies.AccessTokenName)
	}
	return ck.Value
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookies.AccessTokenName, Value: token})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return response
}

// assertStatusCode checks if response status code matches expected
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expectedCode int) {
	t.Helper()
	if w.Code != expectedCode {
		t.Errorf("expected status %d, got %d: %s", expectedCode, w.Code, w.Body.String())
	}
}

// assertJSONError checks the error kind of a failure response
func assertJSONError(t *testing.T, w *httptest.ResponseRecorder, expectedError string) {
	t.Helper()
	response := decode(t, w)
	if response["error"] != expectedError {
		t.Errorf("expected error '%s', got '%v'", expectedError, response["error"])
	}
}

// createTestContext creates a bare gin context for calling a handler directly
func createTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}
