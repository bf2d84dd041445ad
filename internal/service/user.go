package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/repository"
)

type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// UpdateNickname sets the nickname of userID and returns the updated user.
func (s *UserService) UpdateNickname(ctx context.Context, userID int64, nickname string) (*model.User, error) {
	if err := requireText("nickname", nickname, MaxNicknameLength,
		"Nickname is required", "Nickname must be less than 100 characters"); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateNickname(ctx, userID, nickname)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("User not found")
		}
		return nil, fmt.Errorf("service/user: updating nickname: %w", err)
	}

	s.logger.Debug("nickname updated", slog.Int64("userID", userID))
	return user, nil
}
