package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sakif/character-studio/internal/model"
)

// fakeGenerator records the last call and replies with a canned response.
type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error

	calls     int
	gotModel  string
	gotPrompt string
	gotConfig *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

const fullProfileJSON = `{"tribe":"elf","name":"Lia","age":120,"sexuality":"none","gender":"female",
"composition":"bust shot","style":"watercolor","background":"forest","extraDetails":"silver hair"}`

// =========================================================================
// STRUCTURED TEXT
// =========================================================================

func TestExtractCharacterProfile(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(fullProfileJSON)}
	client := NewTextClient(gen, "")

	profile, err := client.ExtractCharacterProfile(context.Background(), "an old elf archer").Unwrap()
	require.NoError(t, err)

	assert.Equal(t, model.CharacterProfile{
		Tribe: "elf", Name: "Lia", Age: 120, Sexuality: "none", Gender: "female",
		Composition: "bust shot", Style: "watercolor", Background: "forest", ExtraDetails: "silver hair",
	}, profile)

	assert.Equal(t, DefaultTextModel, gen.gotModel)
	assert.Equal(t, "application/json", gen.gotConfig.ResponseMIMEType)
	require.NotNil(t, gen.gotConfig.ResponseSchema)
	assert.Len(t, gen.gotConfig.ResponseSchema.Required, 9)
	assert.Contains(t, gen.gotPrompt, "an old elf archer")
}

func TestExtractCharacterProfile_SplitParts(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(fullProfileJSON[:40], fullProfileJSON[40:])}

	profile, err := NewTextClient(gen, "custom-model").ExtractCharacterProfile(context.Background(), "x").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "Lia", profile.Name)
	assert.Equal(t, "custom-model", gen.gotModel)
}

func TestExtractCharacterProfile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		wantErr error
	}{
		{"provider error", &fakeGenerator{err: errors.New("quota exceeded")}, nil},
		{"no candidates", &fakeGenerator{resp: &genai.GenerateContentResponse{}}, ErrEmptyResponse},
		{"blank text", &fakeGenerator{resp: textResponse("  ")}, ErrEmptyResponse},
		{"not json", &fakeGenerator{resp: textResponse("Sure! Here is the profile")}, ErrSchemaViolation},
		{"missing key", &fakeGenerator{resp: textResponse(`{"tribe":"elf","name":"Lia"}`)}, ErrSchemaViolation},
		{"null key", &fakeGenerator{resp: textResponse(`{"tribe":null,"name":"Lia","age":1,"sexuality":"","gender":"","composition":"","style":"","background":"","extraDetails":""}`)}, ErrSchemaViolation},
		{"wrong type", &fakeGenerator{resp: textResponse(`{"tribe":"elf","name":"Lia","age":"old","sexuality":"","gender":"","composition":"","style":"","background":"","extraDetails":""}`)}, ErrSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewTextClient(tt.gen, "").ExtractCharacterProfile(context.Background(), "x")
			require.True(t, res.IsErr())
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err(), tt.wantErr)
			}
		})
	}
}

func TestResponseText_SkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking about elves", Thought: true},
			{Text: `{"a":1}`},
		}},
	}}}
	assert.Equal(t, `{"a":1}`, responseText(resp))
}

// =========================================================================
// IMAGE
// =========================================================================

func TestGenerateImage_ScansAllCandidates(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []*genai.Part{{Text: "Here you go"}}}},
		{Content: nil},
		{Content: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "image/png"}},
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: png}},
		}}},
	}}
	gen := &fakeGenerator{resp: resp}

	img, err := NewImageClient(gen, "").GenerateImage(context.Background(), "draw").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, png, img.Data)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, DefaultImageModel, gen.gotModel)
	assert.Contains(t, gen.gotConfig.ResponseModalities, "IMAGE")
}

func TestGenerateImage_DefaultsMIME(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: []byte{1, 2, 3}}}}},
	}}}

	img, err := NewImageClient(&fakeGenerator{resp: resp}, "").GenerateImage(context.Background(), "draw").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestGenerateImage_Failures(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		wantErr error
	}{
		{"no candidates", &fakeGenerator{resp: &genai.GenerateContentResponse{}}, ErrNoCandidates},
		{"nil response", &fakeGenerator{}, ErrNoCandidates},
		{"text only", &fakeGenerator{resp: textResponse("I cannot draw that")}, ErrNoImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewImageClient(tt.gen, "").GenerateImage(context.Background(), "draw")
			assert.ErrorIs(t, res.Err(), tt.wantErr)
		})
	}

	t.Run("provider error", func(t *testing.T) {
		res := NewImageClient(&fakeGenerator{err: errors.New("blocked")}, "").GenerateImage(context.Background(), "draw")
		require.True(t, res.IsErr())
		assert.Contains(t, res.Err().Error(), "blocked")
	})
}

// =========================================================================
// PROMPTS
// =========================================================================

func TestImagePrompt_EmbedsEveryField(t *testing.T) {
	p := model.CharacterProfile{
		Tribe: "orc", Name: "Grum", Age: 33.5, Sexuality: "none", Gender: "male",
		Composition: "full body", Style: "pixel art", Background: "cave", ExtraDetails: "one tusk",
	}
	prompt := ImagePrompt(p)

	for _, want := range []string{"orc", "Grum", "33.5", "none", "male", "full body", "pixel art", "cave", "one tusk", "square"} {
		assert.Contains(t, prompt, want)
	}
}

func TestCharacterProfileSchema(t *testing.T) {
	s := CharacterProfileSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, genai.TypeNumber, s.Properties["age"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["extraDetails"].Type)
	assert.Equal(t, s.Required, s.PropertyOrdering)
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "")
	assert.Error(t, err)
}
