package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/pkg/util"

	"go.uber.org/zap"
)

const sdxlHealthTimeout = 2 * time.Second

var errSDXLUnavailable = apperr.New(apperr.ServiceUnavailable,
	"SDXL server not available. Please ensure the SDXL server is running on port 8000, or use OpenAI by omitting the provider parameter.")

// SDXLGenerator talks to the local diffusion server, which renders all
// views in a single call
type SDXLGenerator struct {
	BaseURL string
	Client  *http.Client
}

func NewSDXLGenerator(baseURL string) *SDXLGenerator {
	return &SDXLGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{},
	}
}

type sdxlHealth struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type sdxlRequest struct {
	Gender   string `json:"gender"`
	SkinTone string `json:"skinTone"`
	Seed     int64  `json:"seed"`
}

type sdxlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Images  []struct {
		View         string `json:"view"`
		ImageDataURL string `json:"imageDataUrl"`
		Prompt       string `json:"prompt"`
	} `json:"images"`
}

// Available probes /health and treats anything but a loaded model,
// including a timeout, as down
func (g *SDXLGenerator) Available(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sdxlHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/health", nil)
	if err != nil {
		return errSDXLUnavailable
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		zap.L().Debug("SDXL health probe failed", zap.Error(err))
		return errSDXLUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errSDXLUnavailable
	}

	var h sdxlHealth
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return errSDXLUnavailable
	}

	if h.Status != "ok" || !h.ModelLoaded {
		return errSDXLUnavailable
	}

	return nil
}

func (g *SDXLGenerator) Generate(ctx context.Context, p GenerationParams) ([]GeneratedView, error) {
	body, err := json.Marshal(sdxlRequest{Gender: p.Gender, SkinTone: p.SkinTone, Seed: p.Seed})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/generate-multiview-avatar", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SDXL request failed, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("SDXL server error: %d - %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var data sdxlResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode SDXL response, %w", err)
	}

	if !data.Success {
		if data.Error != "" {
			return nil, errors.New(data.Error)
		}

		return nil, errors.New("SDXL generation failed")
	}

	if len(data.Images) == 0 {
		return nil, errors.New("SDXL returned no images")
	}

	seen := make(map[string]bool, len(data.Images))
	views := make([]GeneratedView, 0, len(data.Images))
	for _, img := range data.Images {
		if !slices.Contains(AvatarViews, img.View) {
			return nil, fmt.Errorf("SDXL returned unknown view %q", img.View)
		}

		if seen[img.View] {
			return nil, fmt.Errorf("SDXL returned %s view twice", img.View)
		}
		seen[img.View] = true

		b, err := util.DecodeImageDataURL(img.ImageDataURL)
		if err != nil {
			return nil, fmt.Errorf("invalid %s image from SDXL, %w", img.View, err)
		}

		views = append(views, GeneratedView{View: img.View, Image: b, Prompt: img.Prompt})
	}

	return views, nil
}
