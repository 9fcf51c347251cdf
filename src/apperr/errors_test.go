package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_KeepsTypedError(t *testing.T) {
	original := Conflict("admins.create", "email already registered")
	wrapped := Wrap(KindDatabase, "admins.create", "database operation failed", fmt.Errorf("outer: %w", original))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
}

func TestWrap_ClassifiesRawError(t *testing.T) {
	raw := errors.New("connection reset")
	err := Database("tokens.create", raw)

	require.Error(t, err)
	assert.Equal(t, KindDatabase, KindOf(err))
	assert.ErrorIs(t, err, raw)
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(KindDatabase, "op", "msg", nil))
}

func TestWithCause_Reclassifies(t *testing.T) {
	inner := Database("tokens.create", errors.New("fk violation"))
	err := WithCause(KindToken, "token.create", "failed to create token", inner)

	assert.Equal(t, KindToken, KindOf(err))
	assert.True(t, errors.Is(err, errors.Unwrap(inner)))
}

func TestKindOf_Untyped(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindToken:        http.StatusUnauthorized,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindDatabase:     http.StatusInternalServerError,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(New(kind, "op", "msg")), "kind %s", kind)
	}
}

func TestPublicMessage_HidesDatabaseCause(t *testing.T) {
	err := Database("admins.find", errors.New("password authentication failed for user postgres"))
	assert.Equal(t, "internal server error", PublicMessage(err))

	assert.Equal(t, "Invalid email or password", PublicMessage(New(KindUnauthorized, "login", "Invalid email or password")))
}

func TestHTTPStatus_TokenFaults(t *testing.T) {
	outage := WithCause(KindToken, "token.create", "failed to create token",
		Database("tokens.create", errors.New("connection refused")))
	assert.Equal(t, KindToken, KindOf(outage))
	assert.True(t, IsFault(outage))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(outage))
	assert.Equal(t, "internal server error", PublicMessage(outage))

	rejected := WithCause(KindToken, "token.signed", "invalid token", errors.New("signature is invalid"))
	assert.False(t, IsFault(rejected))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(rejected))
	assert.Equal(t, "invalid token", PublicMessage(rejected))

	assert.False(t, IsFault(nil))
}

func TestValidation_Fields(t *testing.T) {
	err := Validation("login", map[string]string{"email": "required"})
	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "required", err.Fields["email"])
	assert.Contains(t, err.Error(), "validation")
}
