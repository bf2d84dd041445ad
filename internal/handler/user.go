package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/auth"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/respond"
	"github.com/sakif/character-studio/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Profile handles GET /v1/user/profile. The User JSON tags already hide the
// password hash and provider ids.
func (h *UserHandler) Profile() http.HandlerFunc {
	return apiHandler(h.logger, "ProfileHandler: ", func(w http.ResponseWriter, r *http.Request) error {
		user, err := currentUser(r)
		if err != nil {
			return err
		}
		respond.JSON(w, http.StatusOK, user)
		return nil
	})
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

type nicknameResponse struct {
	Nickname string `json:"nickname"`
}

// UpdateNickname handles POST /v1/user/nickname.
func (h *UserHandler) UpdateNickname() http.HandlerFunc {
	return apiHandler(h.logger, "NicknameHandler: ", func(w http.ResponseWriter, r *http.Request) error {
		user, err := currentUser(r)
		if err != nil {
			return err
		}

		var in nicknameRequest
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}

		updated, err := h.users.UpdateNickname(r.Context(), user.ID, in.Nickname)
		if err != nil {
			return err
		}

		respond.JSON(w, http.StatusOK, nicknameResponse{Nickname: model.Deref(updated.Nickname)})
		return nil
	})
}

// currentUser reads the user set by auth.RequireAuth.
func currentUser(r *http.Request) (*model.User, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthorized("User not authenticated")
	}
	return user, nil
}
