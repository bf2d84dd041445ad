package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	pool *pgxpool.Pool
}

const userColumns = `id, kakao_id, line_id, password, nickname, profile_image_url, email, created_at, updated_at`

func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	err := u.pool.QueryRow(ctx,
		`INSERT INTO users (kakao_id, line_id, password, nickname, profile_image_url, email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		user.KakaoID,
		user.LineID,
		user.PasswordHash,
		user.Nickname,
		user.ProfileImageURL,
		user.Email,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if appErr := conflictFor(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("postgres: inserting user: %w", err)
	}
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "id", strconv.FormatInt(id, 10))
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, "email", email)
}

func (u *UserDB) GetByLineID(ctx context.Context, lineID string) (*model.User, error) {
	row := u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE line_id = $1`, lineID)
	return scanUser(row, "line_id", lineID)
}

func (u *UserDB) UpdateNickname(ctx context.Context, id int64, nickname string) (*model.User, error) {
	row := u.pool.QueryRow(ctx,
		`UPDATE users SET nickname = $1, updated_at = now() WHERE id = $2
		 RETURNING `+userColumns,
		nickname, id,
	)
	return scanUser(row, "id", strconv.FormatInt(id, 10))
}

func scanUser(row pgx.Row, key, value string) (*model.User, error) {
	var usr model.User
	err := row.Scan(
		&usr.ID,
		&usr.KakaoID,
		&usr.LineID,
		&usr.PasswordHash,
		&usr.Nickname,
		&usr.ProfileImageURL,
		&usr.Email,
		&usr.CreatedAt,
		&usr.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("postgres: getting user by %s: %w", key, err)
	}
	return &usr, nil
}
