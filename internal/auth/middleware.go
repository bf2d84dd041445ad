package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/respond"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the authenticated user.
type contextKey string

const userKey contextKey = "user"

const (
	guardPrefix  = "AuthGuard: "
	bearerPrefix = "Bearer "
)

// UserLookup is the one store method the guard needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireAuth enforces bearer authentication on protected routes.
//
// Each request moves through these states, failing closed at the first miss:
//
//	NoHeader → HeaderPresentNotBearer → BearerPresent → TokenVerified → UserResolved
//
//  1. Authorization missing or not "Bearer <token>"   → 401 Invalid authorization header
//  2. Token signature/expiry check fails                → 401 Invalid token: <reason>
//  3. No user row for the token's userId                → 401 User not found
//  4. User stored in the request context; next handler runs.
//
// Before looking at the header at all, the guard checks its own wiring: a
// nil TokenService or user store is an operator mistake, reported as 500 so
// it is never confused with a client auth failure.
func RequireAuth(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			if err != nil {
				status, _ := respond.Status(err)
				if status >= http.StatusInternalServerError {
					logger.Error("auth guard failed",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
				}
				respond.Error(w, guardPrefix, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func authenticate(r *http.Request, tokens *TokenService, users UserLookup) (*model.User, error) {
	if tokens == nil {
		return nil, apperror.Configuration("JWT manager not found")
	}
	if users == nil {
		return nil, apperror.Configuration("Database Client not found")
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, apperror.Unauthorized("Invalid authorization header")
	}

	payload, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix)).Resolve(func(err error) error {
		return apperror.Unauthorized("Invalid token: " + err.Error())
	})
	if err != nil {
		return nil, err
	}

	user, err := users.GetByID(r.Context(), payload.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("User not found")
		}
		return nil, err
	}
	return user, nil
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by RequireAuth.
//
// Returns (nil, false) on routes that are not behind the guard.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}
