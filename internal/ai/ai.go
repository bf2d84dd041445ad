// Package ai wraps the Gemini API for the two generation steps of character
// creation: extracting a structured profile from free text, and drawing a
// profile image from that profile.
//
// Both clients depend on the narrow Generator interface rather than on
// *genai.Client, so tests substitute a fake that returns canned responses.
package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image-preview"
)

// Generator is the subset of *genai.Models used here.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGeminiGenerator creates a Gemini API client for apiKey.
// The text and image steps may use separate keys, so each gets its own client.
func NewGeminiGenerator(ctx context.Context, apiKey string) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: creating Gemini client: %w", err)
	}
	return client.Models, nil
}
