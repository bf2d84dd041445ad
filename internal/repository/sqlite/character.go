package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/repository"
)

var _ repository.CharacterRepository = (*CharacterDB)(nil)

// CharacterDB is the characters table.
type CharacterDB struct {
	conn *sql.DB
}

// Create inserts a character and fills in ID and timestamps.
// The creator must exist; foreign_keys=ON rejects dangling creator ids.
func (c *CharacterDB) Create(ctx context.Context, ch *model.Character) error {
	now := time.Now().UTC()

	res, err := c.conn.ExecContext(ctx,
		`INSERT INTO characters
		   (creator_id, name, character_image_url, personality, background, extra_details, summary, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ch.CreatorID,
		ch.Name,
		ch.CharacterImageURL,
		ch.Personality,
		ch.Background,
		ch.ExtraDetails,
		ch.Summary,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting character (creator=%d): %w", ch.CreatorID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted character id: %w", err)
	}

	ch.ID = id
	ch.CreatedAt = now
	ch.UpdatedAt = now
	return nil
}
