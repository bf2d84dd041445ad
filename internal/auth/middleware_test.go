package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/respond"
)

// fakeUsers is an in-memory UserLookup.
type fakeUsers struct {
	users map[int64]*model.User
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", "x")
	}
	return u, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// guarded runs one request through RequireAuth and reports what happened.
func guarded(t *testing.T, tokens *TokenService, users UserLookup, authHeader string) (*httptest.ResponseRecorder, *model.User) {
	t.Helper()

	var seen *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		require.True(t, ok, "user missing from context")
		seen = u
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/user/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	RequireAuth(tokens, users, discardLogger())(next).ServeHTTP(rec, req)
	return rec, seen
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorResponse {
	t.Helper()
	var body respond.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// =========================================================================
// CONFIGURATION CHECKS (before header inspection)
// =========================================================================

func TestRequireAuth_MissingTokenService(t *testing.T) {
	rec, _ := guarded(t, nil, &fakeUsers{}, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AuthGuard: JWT manager not found", decodeError(t, rec).Message)
}

func TestRequireAuth_MissingUserStore(t *testing.T) {
	rec, _ := guarded(t, newTestTokenService(t), nil, "Bearer whatever")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AuthGuard: Database Client not found", decodeError(t, rec).Message)
}

// =========================================================================
// HEADER / TOKEN / USER STATES
// =========================================================================

func TestRequireAuth_HeaderStates(t *testing.T) {
	ts := newTestTokenService(t)
	users := &fakeUsers{users: map[int64]*model.User{1: {ID: 1, Email: model.StringPtr("a@b.com")}}}

	valid := mustIssue(t, ts, 1)
	expired, _ := ts.IssueWithDuration(Payload{UserID: 1}, -time.Minute).Unwrap()
	orphan := mustIssue(t, ts, 404)

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
		wantPrefix  bool
	}{
		{"no header", "", http.StatusUnauthorized, "AuthGuard: Invalid authorization header", false},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "AuthGuard: Invalid authorization header", false},
		{"lowercase bearer", "bearer " + valid, http.StatusUnauthorized, "AuthGuard: Invalid authorization header", false},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "AuthGuard: Invalid token: ", true},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "AuthGuard: Invalid token: ", true},
		{"unknown user", "Bearer " + orphan, http.StatusUnauthorized, "AuthGuard: User not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := guarded(t, ts, users, tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Nil(t, seen, "next handler must not run")

			msg := decodeError(t, rec).Message
			if tt.wantPrefix {
				assert.Contains(t, msg, tt.wantMessage)
				assert.Greater(t, len(msg), len(tt.wantMessage), "underlying reason should be appended")
			} else {
				assert.Equal(t, tt.wantMessage, msg)
			}
		})
	}
}

func TestRequireAuth_Success(t *testing.T) {
	ts := newTestTokenService(t)
	users := &fakeUsers{users: map[int64]*model.User{7: {ID: 7, Email: model.StringPtr("seven@example.com")}}}

	rec, seen := guarded(t, ts, users, "Bearer "+mustIssue(t, ts, 7))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.ID)
}

func TestRequireAuth_StoreFailureIs500(t *testing.T) {
	ts := newTestTokenService(t)
	users := &fakeUsers{err: errors.New("database is locked")}

	rec, _ := guarded(t, ts, users, "Bearer "+mustIssue(t, ts, 1))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "locked")
}

func TestUserFromContext_Empty(t *testing.T) {
	u, ok := UserFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, u)
}
