package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/auth"
	"github.com/sakif/character-studio/internal/respond"
	"github.com/sakif/character-studio/internal/service"
)

// AuthHandler serves password registration/login and the LINE redirect flow.
//
// line is nil when LINE login is not configured; the server then does not
// mount the LINE routes.
type AuthHandler struct {
	auth   *service.AuthService
	line   *auth.LineClient
	logger *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, line *auth.LineClient, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		line:   line,
		logger: logger,
	}
}

type registerResponse struct {
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register() http.HandlerFunc {
	return apiHandler(h.logger, "RegisterHandler: ", func(w http.ResponseWriter, r *http.Request) error {
		var in service.Credentials
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}

		user, err := h.auth.Register(r.Context(), in)
		if err != nil {
			return err
		}

		respond.JSON(w, http.StatusCreated, registerResponse{
			UserID:    user.ID,
			Email:     in.Email,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		})
		return nil
	})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login() http.HandlerFunc {
	return apiHandler(h.logger, "LoginHandler: ", func(w http.ResponseWriter, r *http.Request) error {
		var in service.Credentials
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}

		token, err := h.auth.Login(r.Context(), in)
		if err != nil {
			return err
		}

		respond.JSON(w, http.StatusOK, loginResponse{Token: token})
		return nil
	})
}

// LineLogin handles GET /v1/auth/line/login by redirecting to LINE.
//
// The generated state is not stored, so the callback cannot check it.
func (h *AuthHandler) LineLogin() http.HandlerFunc {
	return apiHandler(h.logger, "LineLoginHandler: ", func(w http.ResponseWriter, r *http.Request) error {
		if h.line == nil {
			return apperror.Configuration("LINE client not found")
		}

		loginURL, err := h.line.BuildLoginURL(auth.LoginParams{}).Resolve(func(err error) error {
			return apperror.Unauthorized(err.Error())
		})
		if err != nil {
			return err
		}

		http.Redirect(w, r, loginURL, http.StatusFound)
		return nil
	})
}

// LineCallback handles GET /v1/auth/line/callback.
//
// The client is a browser in the middle of a redirect chain, so every
// outcome is a 302 to the frontend, carrying either ?token= or ?error=.
// Once a LINE client is present nothing here writes a JSON error, and a
// panic anywhere below is turned into the "Internal server error" redirect.
// Without a client there is no frontend URL to redirect to, so that case
// is a JSON 500. The server does not mount the route without one.
func (h *AuthHandler) LineCallback(w http.ResponseWriter, r *http.Request) {
	if h.line == nil {
		respond.Error(w, "LineCallbackHandler: ", apperror.Configuration("LINE client not found"))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("LINE callback panicked",
				slog.String("panic", fmt.Sprint(rec)),
			)
			h.redirectFrontend(w, r, "", service.MsgInternal)
		}
	}()

	q := r.URL.Query()
	code := q.Get("code")
	if code == "" || len(q["code"]) > 1 || len(q["state"]) > 1 {
		h.redirectFrontend(w, r, "", service.MsgInvalidCallback)
		return
	}

	token, err := h.auth.CompleteLineLogin(r.Context(), code)
	if err != nil {
		msg := service.MsgInternal
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrConfiguration) {
			msg = appErr.Message
		}
		h.logger.Error("LINE callback failed",
			slog.String("stage", msg),
			slog.String("error", err.Error()),
		)
		h.redirectFrontend(w, r, "", msg)
		return
	}

	h.redirectFrontend(w, r, token, "")
}

func (h *AuthHandler) redirectFrontend(w http.ResponseWriter, r *http.Request, token, errMsg string) {
	http.Redirect(w, r, h.line.BuildFrontendRedirect(token, errMsg), http.StatusFound)
}
