package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/sakif/character-studio/internal/result"
)

var (
	ErrNoCandidates = errors.New("ai: no candidates in response")
	ErrNoImage      = errors.New("ai: no image data found in response")
)

const defaultImageMIME = "image/png"

// Image is raw image bytes. The SDK has already base64-decoded them.
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageClient asks an image-capable model to draw from a prompt.
type ImageClient struct {
	gen   Generator
	model string
}

func NewImageClient(gen Generator, modelName string) *ImageClient {
	if modelName == "" {
		modelName = DefaultImageModel
	}
	return &ImageClient{gen: gen, model: modelName}
}

// GenerateImage returns the first inline image found in the response.
//
// Image models often answer with a text part ("Here is your image") before
// or instead of the image, so every part of every candidate is scanned.
// A response with no inline bytes at all is a failure, never an empty image.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) result.Result[Image] {
	resp, err := c.gen.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return result.Err[Image](fmt.Errorf("ai: generating image: %w", err))
	}
	return firstInlineImage(resp)
}

func firstInlineImage(resp *genai.GenerateContentResponse) result.Result[Image] {
	if resp == nil || len(resp.Candidates) == 0 {
		return result.Err[Image](ErrNoCandidates)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = defaultImageMIME
			}
			return result.Ok(Image{Data: part.InlineData.Data, MIMEType: mime})
		}
	}
	return result.Err[Image](ErrNoImage)
}
