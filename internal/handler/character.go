package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/character-studio/internal/auth"
	"github.com/sakif/character-studio/internal/respond"
	"github.com/sakif/character-studio/internal/service"
)

type CharacterHandler struct {
	characters *service.CharacterService
	logger     *slog.Logger
}

func NewCharacterHandler(characters *service.CharacterService, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{characters: characters, logger: logger}
}

type createCharacterResponse struct {
	CharacterID int64     `json:"characterId"`
	CreatorID   int64     `json:"creatorId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Create handles POST /v1/character.
func (h *CharacterHandler) Create() http.HandlerFunc {
	return apiHandler(h.logger, "CreateCharacterHandler: ", func(w http.ResponseWriter, r *http.Request) error {
		var in service.CreateCharacterInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}

		// The service reports a missing user after validating the body.
		var creatorID int64
		if user, ok := auth.UserFromContext(r.Context()); ok {
			creatorID = user.ID
		}

		c, err := h.characters.Create(r.Context(), creatorID, in)
		if err != nil {
			return err
		}

		respond.JSON(w, http.StatusCreated, createCharacterResponse{
			CharacterID: c.ID,
			CreatorID:   c.CreatorID,
			Name:        c.Name,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		})
		return nil
	})
}

type generateImageRequest struct {
	Message string `json:"message"`
}

// GenerateImage handles POST /v1/character/generate-image.
// Nothing is persisted; the client saves the result with Create.
func (h *CharacterHandler) GenerateImage() http.HandlerFunc {
	return apiHandler(h.logger, "GenerateCharacterImageHandler: ", func(w http.ResponseWriter, r *http.Request) error {
		var in generateImageRequest
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}

		out, err := h.characters.GenerateImage(r.Context(), in.Message)
		if err != nil {
			return err
		}

		respond.JSON(w, http.StatusOK, out)
		return nil
	})
}
