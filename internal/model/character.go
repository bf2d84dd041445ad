package model

import "time"

// Character is user-authored content owned by CreatorID.
//
// ExtraDetails and Summary are optional; nil is stored as NULL.
type Character struct {
	ID                int64     `json:"characterId"       db:"id"`
	CreatorID         int64     `json:"creatorId"         db:"creator_id"`
	Name              string    `json:"name"              db:"name"`
	CharacterImageURL string    `json:"characterImageUrl" db:"character_image_url"`
	Personality       string    `json:"personality"       db:"personality"`
	Background        string    `json:"background"        db:"background"`
	ExtraDetails      *string   `json:"extraDetails"      db:"extra_details"`
	Summary           *string   `json:"summary"           db:"summary"`
	CreatedAt         time.Time `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt"         db:"updated_at"`
}

// CharacterProfile is the structured description extracted from a free-text
// message by the text model. Every field is required by the output schema.
type CharacterProfile struct {
	Tribe        string  `json:"tribe"`
	Name         string  `json:"name"`
	Age          float64 `json:"age"`
	Sexuality    string  `json:"sexuality"`
	Gender       string  `json:"gender"`
	Composition  string  `json:"composition"`
	Style        string  `json:"style"`
	Background   string  `json:"background"`
	ExtraDetails string  `json:"extraDetails"`
}
