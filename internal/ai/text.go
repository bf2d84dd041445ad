package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/sakif/character-studio/internal/model"
	"github.com/sakif/character-studio/internal/result"
)

var (
	ErrEmptyResponse   = errors.New("ai: no response text")
	ErrSchemaViolation = errors.New("ai: response does not match schema")
)

// TextClient asks a text model for JSON constrained by a response schema.
type TextClient struct {
	gen   Generator
	model string
}

func NewTextClient(gen Generator, modelName string) *TextClient {
	if modelName == "" {
		modelName = DefaultTextModel
	}
	return &TextClient{gen: gen, model: modelName}
}

// GenerateStructured sends prompt with schema as the response schema and
// decodes the answer into T.
//
// The model is asked for application/json, but the answer is still checked:
// every key in schema.Required must be present, and the JSON must decode
// into T without unknown-type errors.
func GenerateStructured[T any](ctx context.Context, c *TextClient, prompt string, schema *genai.Schema) result.Result[T] {
	resp, err := c.gen.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return result.Err[T](fmt.Errorf("ai: generating content: %w", err))
	}

	text := responseText(resp)
	if text == "" {
		return result.Err[T](ErrEmptyResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return result.Err[T](fmt.Errorf("%w: %v", ErrSchemaViolation, err))
	}
	for _, key := range schema.Required {
		raw, ok := fields[key]
		if !ok || bytes.Equal(raw, []byte("null")) {
			return result.Err[T](fmt.Errorf("%w: missing %q", ErrSchemaViolation, key))
		}
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return result.Err[T](fmt.Errorf("%w: %v", ErrSchemaViolation, err))
	}
	return result.Ok(out)
}

// ExtractCharacterProfile turns a free-text description into a CharacterProfile.
func (c *TextClient) ExtractCharacterProfile(ctx context.Context, message string) result.Result[model.CharacterProfile] {
	return GenerateStructured[model.CharacterProfile](ctx, c, ExtractionPrompt(message), CharacterProfileSchema())
}

// responseText joins the text parts of the first candidate, skipping
// "thought" parts that some models emit before the answer.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
