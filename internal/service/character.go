package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/character-studio/internal/ai"
	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/repository"
	"github.com/sakif/character-studio/internal/result"
	"github.com/sakif/character-studio/internal/storage"
)

const (
	MsgExtractFailed  = "Failed to extract character profile info"
	MsgGenerateFailed = "Failed to generate character image"
	MsgUploadFailed   = "Failed to upload image to R2"
)

// ProfileExtractor is satisfied by *ai.TextClient.
type ProfileExtractor interface {
	ExtractCharacterProfile(ctx context.Context, message string) result.Result[model.CharacterProfile]
}

// ImageGenerator is satisfied by *ai.ImageClient.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) result.Result[ai.Image]
}

type CharacterService struct {
	characters repository.CharacterRepository
	extractor  ProfileExtractor
	images     ImageGenerator
	uploader   storage.Uploader
	logger     *slog.Logger
}

// NewCharacterService wires the dependencies. extractor, images and uploader
// may be nil when AI generation is not configured; GenerateImage then
// returns a configuration error.
func NewCharacterService(
	characters repository.CharacterRepository,
	extractor ProfileExtractor,
	images ImageGenerator,
	uploader storage.Uploader,
	logger *slog.Logger,
) *CharacterService {
	return &CharacterService{
		characters: characters,
		extractor:  extractor,
		images:     images,
		uploader:   uploader,
		logger:     logger,
	}
}

// CanGenerateImages reports whether every provider of the image pipeline is set.
func (s *CharacterService) CanGenerateImages() bool {
	return s.extractor != nil && s.images != nil && s.uploader != nil
}

type CreateCharacterInput struct {
	Name              string  `json:"name"`
	CharacterImageURL string  `json:"characterImageUrl"`
	Personality       string  `json:"personality"`
	Background        string  `json:"background"`
	ExtraDetails      *string `json:"extraDetails"`
	Summary           *string `json:"summary"`
}

func (in CreateCharacterInput) validate() error {
	if err := requireText("name", in.Name, MaxNameLength,
		"Character name is required", "Character name must be less than 100 characters"); err != nil {
		return err
	}
	if err := validateImageURL(in.CharacterImageURL); err != nil {
		return err
	}
	if err := requireText("personality", in.Personality, 0, "Character personality is required", ""); err != nil {
		return err
	}
	return requireText("background", in.Background, 0, "Character background is required", "")
}

// Create stores a character owned by creatorID.
func (s *CharacterService) Create(ctx context.Context, creatorID int64, in CreateCharacterInput) (*model.Character, error) {
	// Body errors win over a missing user: 400 before 401.
	if err := in.validate(); err != nil {
		return nil, err
	}
	if creatorID <= 0 {
		return nil, apperror.Unauthorized("User not authenticated")
	}

	character := &model.Character{
		CreatorID:         creatorID,
		Name:              in.Name,
		CharacterImageURL: in.CharacterImageURL,
		Personality:       in.Personality,
		Background:        in.Background,
		ExtraDetails:      in.ExtraDetails,
		Summary:           in.Summary,
	}
	if err := s.characters.Create(ctx, character); err != nil {
		return nil, fmt.Errorf("service/character: creating character: %w", err)
	}

	s.logger.Info("character created",
		slog.Int64("characterID", character.ID),
		slog.Int64("creatorID", creatorID),
	)
	return character, nil
}

// GeneratedImage is the output of the image pipeline. It is not persisted.
type GeneratedImage struct {
	CharacterProfile model.CharacterProfile `json:"characterProfile"`
	ImageURL         string                 `json:"imageUrl"`
}

// GenerateImage runs extract → draw → upload. The first failing stage stops
// the pipeline with an upstream error naming that stage and its cause.
func (s *CharacterService) GenerateImage(ctx context.Context, message string) (*GeneratedImage, error) {
	if err := requireText("message", message, MaxMessageLength,
		"Message is required", "Message must be less than 1000 characters"); err != nil {
		return nil, err
	}
	if !s.CanGenerateImages() {
		return nil, apperror.Configuration("Image generation is not configured")
	}

	profile, err := s.extractor.ExtractCharacterProfile(ctx, message).Resolve(stageWithCause(MsgExtractFailed))
	if err != nil {
		return nil, err
	}

	img, err := s.images.GenerateImage(ctx, ai.ImagePrompt(profile)).Resolve(stageWithCause(MsgGenerateFailed))
	if err != nil {
		return nil, err
	}

	obj, err := s.uploader.UploadImage(ctx, img.Data, img.MIMEType, storage.CharacterImageFolder).Resolve(stageWithCause(MsgUploadFailed))
	if err != nil {
		return nil, err
	}

	s.logger.Info("character image generated",
		slog.String("key", obj.Key),
		slog.Int("bytes", len(img.Data)),
	)
	return &GeneratedImage{CharacterProfile: profile, ImageURL: obj.URL}, nil
}

// stageWithCause is stage with the provider's reason appended, so a client
// can tell a quota error from a blocked prompt.
func stageWithCause(message string) func(error) error {
	return func(err error) error {
		return apperror.Upstream(fmt.Sprintf("%s : %v", message, err), err)
	}
}
