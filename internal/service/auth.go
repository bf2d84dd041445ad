// Package service holds the business rules between the HTTP handlers and the
// stores and provider clients:
//
//	Handler (HTTP) → Service (validation, orchestration) → Repository / provider client
//
// Services take plain values, never *http.Request, and return apperror
// values that the handler layer maps to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/auth"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/repository"
	"github.com/sakif/character-studio/internal/result"
)

// Messages shown to the browser on a failed LINE callback.
const (
	MsgInvalidCallback = "Invalid callback parameters"
	MsgExchangeFailed  = "Failed to exchange token"
	MsgProfileFailed   = "Failed to get user profile"
	MsgTokenFailed     = "Failed to generate token"
	MsgInternal        = "Internal server error"
)

// LineProvider is the part of *auth.LineClient the callback needs.
type LineProvider interface {
	ExchangeCode(ctx context.Context, code string) result.Result[auth.TokenBundle]
	FetchProfile(ctx context.Context, accessToken string) result.Result[auth.LineProfile]
}

// AuthService registers and logs in users with a password or with LINE.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	line      LineProvider
	logger    *slog.Logger
}

// NewAuthService wires the dependencies. line may be nil when LINE login is
// not configured; CompleteLineLogin then fails with a configuration error.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	line LineProvider,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		line:      line,
		logger:    logger,
	}
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a password account.
//
// The email is checked up front so the common case gets a clean
// "Already exists email"; the unique index still catches a concurrent insert.
func (s *AuthService) Register(ctx context.Context, in Credentials) (*model.User, error) {
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validateNewPassword(in.Password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("Already exists email")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        model.StringPtr(in.Email),
		PasswordHash: model.StringPtr(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("Already exists email")
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login checks credentials and issues an identity token.
// Unknown email, an OAuth-only account, and a wrong password all return the
// same message so the response does not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, in Credentials) (string, error) {
	if err := validateEmail(in.Email); err != nil {
		return "", err
	}
	if in.Password == "" {
		return "", apperror.ValidationFailed("password", "Password is required")
	}

	invalid := apperror.Unauthorized("Invalid email or password")

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", invalid
		}
		return "", fmt.Errorf("service/auth: looking up user: %w", err)
	}
	if !user.HasPassword() {
		return "", invalid
	}

	if err := s.passwords.Verify(*user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", invalid
		}
		return "", fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.tokens.Issue(auth.Payload{UserID: user.ID}).Resolve(func(err error) error {
		return apperror.Upstream(MsgTokenFailed, err)
	})
}

// CompleteLineLogin runs the callback chain for an authorization code and
// returns an identity token for the local user.
//
// Every failure is an *apperror.AppError whose Message is safe to put in the
// frontend redirect.
func (s *AuthService) CompleteLineLogin(ctx context.Context, code string) (string, error) {
	if s.line == nil {
		return "", apperror.Configuration("LINE login is not configured")
	}
	if code == "" {
		return "", apperror.ValidationFailed("code", MsgInvalidCallback)
	}

	bundle, err := s.line.ExchangeCode(ctx, code).Resolve(stage(MsgExchangeFailed))
	if err != nil {
		return "", err
	}

	profile, err := s.line.FetchProfile(ctx, bundle.AccessToken).Resolve(stage(MsgProfileFailed))
	if err != nil {
		return "", err
	}

	user, err := s.FindOrCreateLineUser(ctx, profile)
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(auth.Payload{UserID: user.ID}).Resolve(stage(MsgTokenFailed))
}

// FindOrCreateLineUser returns the user bound to profile.UserID, creating it
// on first login. An existing row is returned unchanged.
func (s *AuthService) FindOrCreateLineUser(ctx context.Context, profile auth.LineProfile) (*model.User, error) {
	if profile.UserID == "" {
		return nil, apperror.Upstream(MsgProfileFailed, errors.New("profile has no user id"))
	}

	user, err := s.users.GetByLineID(ctx, profile.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up LINE user: %w", err)
	}

	user = &model.User{
		LineID:          model.StringPtr(profile.UserID),
		Nickname:        model.StringPtr(profile.DisplayName),
		ProfileImageURL: model.StringPtr(profile.PictureURL),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent callback for the same account.
		if errors.Is(err, apperror.ErrConflict) {
			return s.users.GetByLineID(ctx, profile.UserID)
		}
		return nil, fmt.Errorf("service/auth: creating LINE user: %w", err)
	}

	s.logger.Info("user registered via LINE", slog.Int64("userID", user.ID))
	return user, nil
}

// stage turns a provider failure into an upstream error with a fixed,
// client-safe message.
func stage(message string) func(error) error {
	return func(err error) error {
		return apperror.Upstream(message, err)
	}
}
