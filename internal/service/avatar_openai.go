package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"fashionai/avatar-api/internal/apperr"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// OpenAIGenerator renders each view with a separate image request.
// All views run concurrently and the first failure cancels the rest.
type OpenAIGenerator struct {
	client *openai.Client
}

// NewOpenAIGenerator returns a generator. An empty key yields a
// generator that reports itself unavailable.
func NewOpenAIGenerator(apiKey, baseURL string) *OpenAIGenerator {
	if apiKey == "" {
		return &OpenAIGenerator{}
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg)}
}

func (g *OpenAIGenerator) Available(context.Context) error {
	if g.client == nil {
		return apperr.New(apperr.ServiceUnavailable, "OpenAI API key not configured")
	}

	return nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, p GenerationParams) ([]GeneratedView, error) {
	if err := g.Available(ctx); err != nil {
		return nil, err
	}

	prompts := ViewPrompts(p.Gender, p.SkinTone)
	out := make([]GeneratedView, len(AvatarViews))

	eg, ctx := errgroup.WithContext(ctx)
	for i, view := range AvatarViews {
		eg.Go(func() error {
			img, err := g.renderView(ctx, prompts[view])
			if err != nil {
				return fmt.Errorf("failed to generate %s view, %w", view, err)
			}

			out[i] = GeneratedView{View: view, Image: img, Prompt: prompts[view]}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (g *OpenAIGenerator) renderView(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1792,
		Quality:        openai.CreateImageQualityHD,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("no image returned from OpenAI")
	}

	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}
