package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/character-studio/internal/model"
)

func TestCharacterCreate(t *testing.T) {
	db := newTestDB(t)
	owner := createEmailUser(t, db.Users(), "owner@example.com")

	ch := &model.Character{
		CreatorID:         owner.ID,
		Name:              "Aria",
		CharacterImageURL: "https://cdn.example.com/aria.png",
		Personality:       "curious",
		Background:        "grew up in a lighthouse",
		Summary:           model.StringPtr("a lighthouse keeper"),
	}
	if err := db.Characters().Create(context.Background(), ch); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if ch.ID <= 0 {
		t.Errorf("Create() did not set ID, got %d", ch.ID)
	}
	if ch.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	var extra, summary *string
	err := db.conn.QueryRowContext(context.Background(),
		`SELECT extra_details, summary FROM characters WHERE id = ?`, ch.ID,
	).Scan(&extra, &summary)
	if err != nil {
		t.Fatalf("reading character: %v", err)
	}
	if extra != nil {
		t.Errorf("extra_details = %q, want NULL", *extra)
	}
	if model.Deref(summary) != "a lighthouse keeper" {
		t.Errorf("summary = %q, want %q", model.Deref(summary), "a lighthouse keeper")
	}
}

func TestCharacterCreate_UnknownCreator(t *testing.T) {
	db := newTestDB(t)

	ch := &model.Character{
		CreatorID:         424242,
		Name:              "Orphan",
		CharacterImageURL: "https://cdn.example.com/o.png",
		Personality:       "p",
		Background:        "b",
	}
	if err := db.Characters().Create(context.Background(), ch); err == nil {
		t.Fatal("Create() should fail when creator_id references no user")
	}
}
