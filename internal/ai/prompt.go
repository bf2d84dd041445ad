package ai

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/sakif/character-studio/internal/model"
)

// profileFields is the order the model is asked to fill the profile in.
var profileFields = []string{
	"tribe", "name", "age", "sexuality", "gender",
	"composition", "style", "background", "extraDetails",
}

// CharacterProfileSchema is the response schema for ExtractCharacterProfile.
// All fields are required; age is a number, the rest are strings.
func CharacterProfileSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(profileFields))
	for _, f := range profileFields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	props["age"] = &genai.Schema{Type: genai.TypeNumber}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         append([]string(nil), profileFields...),
		PropertyOrdering: append([]string(nil), profileFields...),
	}
}

// ExtractionPrompt asks the text model to pull image-relevant features out of message.
func ExtractionPrompt(message string) string {
	var b strings.Builder
	b.WriteString("You are an artist preparing a character profile picture.\n")
	b.WriteString("Extract the features below from the message so an image generation model can draw the character.\n")
	b.WriteString("Describe each feature in plain, visual terms.\n\n")
	b.WriteString("features:\n")
	for _, f := range profileFields {
		kind := "string"
		if f == "age" {
			kind = "number"
		}
		fmt.Fprintf(&b, "- %s: %s\n", f, kind)
	}
	fmt.Fprintf(&b, "\nthe message is %s.\n", message)
	return b.String()
}

// ImagePrompt embeds every profile field into the image-generation prompt.
func ImagePrompt(p model.CharacterProfile) string {
	var b strings.Builder
	b.WriteString("You are an artist drawing a character profile picture.\n")
	b.WriteString("The image must be a square image.\n")
	b.WriteString("Follow the style, composition and sexuality below. The sexuality must stay under R-rated.\n\n")
	fmt.Fprintf(&b, "the character tribe is %s.\n", p.Tribe)
	fmt.Fprintf(&b, "the character name is %s.\n", p.Name)
	fmt.Fprintf(&b, "the character age is %s.\n", strconv.FormatFloat(p.Age, 'f', -1, 64))
	fmt.Fprintf(&b, "the character gender is %s.\n", p.Gender)
	fmt.Fprintf(&b, "the character composition is %s.\n", p.Composition)
	fmt.Fprintf(&b, "the character style is %s.\n", p.Style)
	fmt.Fprintf(&b, "the character background is %s.\n", p.Background)
	fmt.Fprintf(&b, "the character extra details are %s.\n", p.ExtraDetails)
	fmt.Fprintf(&b, "the character sexuality is %s.\n", p.Sexuality)
	b.WriteString("\nPlease generate the profile image.\n")
	return b.String()
}
