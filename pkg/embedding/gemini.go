// Package embedding produces semantic vectors for CV text with Gemini.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"
)

const (
	defaultModel      = "text-embedding-004"
	defaultDimensions = 768
	// maxInputRunes keeps requests under the model's input token limit.
	maxInputRunes = 8000
)

// embedder is the slice of the genai client we depend on.
type embedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text through the Gemini API.
type Gemini struct {
	models     embedder
	model      string
	dimensions int32
}

// NewGemini creates an embedder for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, dimensions int) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, model, dimensions), nil
}

func newGemini(models embedder, model string, dimensions int) *Gemini {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	return &Gemini{models: models, model: model, dimensions: int32(dimensions)}
}

// Embed returns the embedding of text, truncated to the model input limit.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	text = Truncate(strings.TrimSpace(text), maxInputRunes)
	if text == "" {
		return nil, errors.New("embedding: empty text")
	}

	dims := g.dimensions
	resp, err := g.models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("embedding: empty response")
	}
	return resp.Embeddings[0].Values, nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
