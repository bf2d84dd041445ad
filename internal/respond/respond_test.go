package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/character-studio/internal/apperror"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", apperror.ValidationFailed("email", "Invalid email format"), http.StatusBadRequest, "validation_error"},
		{"conflict is 400", apperror.Conflict("Already exists email"), http.StatusBadRequest, "conflict"},
		{"unauthorized", apperror.Unauthorized("Invalid email or password"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperror.Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("user", "1"), http.StatusNotFound, "not_found"},
		{"upstream", apperror.Upstream("Failed to exchange token", errors.New("x")), http.StatusInternalServerError, "upstream_error"},
		{"configuration", apperror.Configuration("JWT manager not found"), http.StatusInternalServerError, "configuration_error"},
		{"wrapped app error", fmt.Errorf("service: %w", apperror.Unauthorized("x")), http.StatusUnauthorized, "unauthorized"},
		{"plain error", errors.New("sql: connection refused"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := Status(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestError_PrefixesMessage(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, "LoginHandler: ", apperror.Unauthorized("Invalid email or password"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unauthorized", body.Error)
	assert.Equal(t, "LoginHandler: Invalid email or password", body.Message)
}

func TestError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, "NicknameHandler: ", errors.New("pq: relation \"users\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation")
	assert.Contains(t, rec.Body.String(), "NicknameHandler: Internal server error")
}

func TestJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()

	JSON(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
