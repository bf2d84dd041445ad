package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/repository"
)

var _ repository.CharacterRepository = (*CharacterDB)(nil)

type CharacterDB struct {
	pool *pgxpool.Pool
}

func (c *CharacterDB) Create(ctx context.Context, ch *model.Character) error {
	err := c.pool.QueryRow(ctx,
		`INSERT INTO characters
		   (creator_id, name, character_image_url, personality, background, extra_details, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		ch.CreatorID,
		ch.Name,
		ch.CharacterImageURL,
		ch.Personality,
		ch.Background,
		ch.ExtraDetails,
		ch.Summary,
	).Scan(&ch.ID, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: inserting character (creator=%d): %w", ch.CreatorID, err)
	}
	return nil
}
