// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in sub-packages (sqlite, postgres).
package repository

import (
	"context"

	"github.com/sakif/character-studio/internal/model"
)

// UserRepository stores user accounts.
//
// Lookups return apperror.ErrNotFound (wrapped) when no row matches.
// Create returns apperror.ErrConflict when a unique column (email, line_id,
// kakao_id) is already taken.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByLineID(ctx context.Context, lineID string) (*model.User, error)
	UpdateNickname(ctx context.Context, id int64, nickname string) (*model.User, error)
}

// CharacterRepository stores characters.
type CharacterRepository interface {
	Create(ctx context.Context, character *model.Character) error
}
