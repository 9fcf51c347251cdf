package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/lms-admin/src/models"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggingMiddleware())
	router.GET("/api/admin/profile", func(c *gin.Context) {
		c.Set(UserKey, &models.AuthUser{ID: userID, Email: "a@b.com"})
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/profile?x=1", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line %q: %v", buf.String(), err)
	}

	expect := map[string]interface{}{
		"level":      "warn",
		"component":  "http",
		"request_id": "req-1",
		"method":     "GET",
		"path":       "/api/admin/profile",
		"query":      "x=1",
		"user_id":    userID.String(),
		"message":    "client error",
	}
	for k, v := range expect {
		if entry[k] != v {
			t.Errorf("expected %s=%v, got %v", k, v, entry[k])
		}
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("expected status 404, got %v", entry["status"])
	}
}

func TestLoggingMiddleware_HealthIsDebug(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry["level"] != "debug" {
		t.Errorf("expected debug level, got %v", entry["level"])
	}
}
