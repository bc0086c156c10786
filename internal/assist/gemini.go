package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const descriptionPrompt = `You are an expert copywriter specializing in creating item descriptions for business estimates and invoices.
Based on the provided keywords, generate a professional and detailed description for a line item.
Reply with the description text only.

Keywords: %s`

const imagePrompt = `Generate a high-quality, professional product image for the following item: %s. The image should be on a clean, light-colored background, well-lit, and suitable for a business catalog or library. Use a square aspect ratio.`

// Gemini implements Describer and Imager on the Gemini API.
type Gemini struct {
	client     *genai.Client
	textModel  *genai.GenerativeModel
	imageModel *genai.GenerativeModel
}

// NewGemini dials the Gemini API with apiKey.
func NewGemini(ctx context.Context, apiKey, textModel, imageModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}
	return &Gemini{
		client:     client,
		textModel:  client.GenerativeModel(textModel),
		imageModel: client.GenerativeModel(imageModel),
	}, nil
}

// Describe implements Describer.
func (g *Gemini) Describe(ctx context.Context, keywords string) (string, error) {
	resp, err := g.textModel.GenerateContent(ctx, genai.Text(fmt.Sprintf(descriptionPrompt, keywords)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	var b strings.Builder
	for _, part := range responseParts(resp) {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no content returned from AI")
	}
	return b.String(), nil
}

// Generate implements Imager.
func (g *Gemini) Generate(ctx context.Context, name string) (Image, error) {
	resp, err := g.imageModel.GenerateContent(ctx, genai.Text(fmt.Sprintf(imagePrompt, name)))
	if err != nil {
		return Image{}, fmt.Errorf("failed to generate image: %w", err)
	}
	for _, part := range responseParts(resp) {
		if blob, ok := part.(genai.Blob); ok && strings.HasPrefix(blob.MIMEType, "image/") && len(blob.Data) > 0 {
			return Image{Data: blob.Data, MIMEType: blob.MIMEType}, nil
		}
	}
	return Image{}, errors.New("image generation failed")
}

// Close releases the API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseParts(resp *genai.GenerateContentResponse) []genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}
