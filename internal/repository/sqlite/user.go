package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, kakao_id, line_id, password, nickname, profile_image_url, email, created_at, updated_at`

// Create inserts a new user and fills in ID and timestamps.
//
// Nil pointer fields are stored as NULL. A UNIQUE violation on email,
// line_id or kakao_id is returned as apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	res, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (kakao_id, line_id, password, nickname, profile_image_url, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.KakaoID,
		user.LineID,
		user.PasswordHash,
		user.Nickname,
		user.ProfileImageURL,
		user.Email,
		now,
		now,
	)
	if err != nil {
		if appErr := conflictFor(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted user id: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, "id", strconv.FormatInt(id, 10))
}

// GetByEmail retrieves a user by email address.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row, "email", email)
}

// GetByLineID retrieves a user by LINE user id.
func (u *UserDB) GetByLineID(ctx context.Context, lineID string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE line_id = ?`, lineID)
	return scanUser(row, "line_id", lineID)
}

// UpdateNickname sets the nickname and returns the updated row.
func (u *UserDB) UpdateNickname(ctx context.Context, id int64, nickname string) (*model.User, error) {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET nickname = ?, updated_at = ? WHERE id = ?`,
		nickname, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating nickname for user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}

	return u.GetByID(ctx, id)
}

func scanUser(row *sql.Row, key, value string) (*model.User, error) {
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", key, err)
	}
	return &usr, nil
}
