package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/model"
	"fashionai/avatar-api/internal/storage"
	"fashionai/avatar-api/pkg/metrics"
	"fashionai/avatar-api/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	AvatarWidth  = 1024
	AvatarHeight = 1792

	maxSeed = 1_000_000
)

// Provider selects the generation backend
type Provider int

const (
	ProviderOpenAI Provider = iota + 1
	ProviderSDXL
)

func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderSDXL:
		return "sdxl"
	default:
		return "unknown"
	}
}

// ParseProvider maps the request flag to a backend. Empty, "openai" and
// "auto" all mean the cloud backend.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openai", "auto":
		return ProviderOpenAI, nil
	case "sdxl":
		return ProviderSDXL, nil
	default:
		return 0, apperr.Newf(apperr.Validation, "Unsupported provider %q, use openai or sdxl", s)
	}
}

type GenerationParams struct {
	Gender   string
	SkinTone string
	Seed     int64
}

// GeneratedView is one rendered view as raw image bytes
type GeneratedView struct {
	View   string
	Image  []byte
	Prompt string
}

// Generator is a generation backend
type Generator interface {
	// Available is checked before any generation starts
	Available(ctx context.Context) error
	// Generate renders every view or fails as a whole
	Generate(ctx context.Context, p GenerationParams) ([]GeneratedView, error)
}

type GenerateRequest struct {
	UserID   string
	Gender   string
	SkinTone string
	Provider string
}

type AvatarImageData struct {
	View string `json:"view"`
	// nil when the stored file couldn't be read
	ImageDataURL *string `json:"imageDataUrl"`
	URL          string  `json:"url"`
}

type GenerationMeta struct {
	Gender         string `json:"gender"`
	SkinTone       string `json:"skinTone"`
	Seed           int64  `json:"seed"`
	Provider       string `json:"provider"`
	ViewsGenerated int    `json:"viewsGenerated"`
}

type GenerationResult struct {
	AvatarID string            `json:"avatarId"`
	Images   []AvatarImageData `json:"images"`
	Meta     GenerationMeta    `json:"meta"`
}

type AvatarImageRef struct {
	View string `json:"view"`
	URL  string `json:"url"`
}

type AvatarSummary struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Gender    string           `json:"gender"`
	SkinTone  string           `json:"skinTone"`
	Images    []AvatarImageRef `json:"images"`
	CreatedAt time.Time        `json:"createdAt"`
}

type AvatarDetail struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Gender    string            `json:"gender"`
	SkinTone  string            `json:"skinTone"`
	Images    []AvatarImageData `json:"images"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Avatars generates, stores and looks up multi-view avatars
type Avatars struct {
	DB     *gorm.DB
	Store  storage.Storage
	OpenAI Generator
	SDXL   Generator
	// Upper bound for a whole backend call
	Timeout time.Duration
	Now     func() time.Time
	Seed    func() int64

	mu       sync.Mutex
	inflight map[string]time.Time // userID -> generation deadline
}

func (s *Avatars) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

func (s *Avatars) seed() int64 {
	if s.Seed != nil {
		return s.Seed()
	}

	return rand.Int64N(maxSeed)
}

func (s *Avatars) generator(p Provider) Generator {
	switch p {
	case ProviderSDXL:
		return s.SDXL
	case ProviderOpenAI:
		return s.OpenAI
	}

	return nil
}

// lock allows one generation per user at a time
func (s *Avatars) lock(userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight == nil {
		s.inflight = map[string]time.Time{}
	}

	if deadline, ok := s.inflight[userID]; ok && deadline.After(now) {
		return apperr.Newf(apperr.RateLimited,
			"An avatar generation is already in progress. Try again in %d minutes.", minutesLeft(deadline, now))
	}

	s.inflight[userID] = now.Add(s.Timeout)
	return nil
}

func (s *Avatars) unlock(userID string) {
	s.mu.Lock()
	delete(s.inflight, userID)
	s.mu.Unlock()
}

// Generate renders all views with the chosen backend, stores them and
// records a new avatar. Nothing is kept if any step fails.
func (s *Avatars) Generate(ctx context.Context, r GenerateRequest) (*GenerationResult, error) {
	if r.UserID == "" {
		return nil, apperr.New(apperr.Unauthorized, "Authentication required")
	}

	gender := strings.TrimSpace(r.Gender)
	skinTone := strings.TrimSpace(r.SkinTone)
	if gender == "" || skinTone == "" {
		return nil, apperr.New(apperr.Validation, "gender and skinTone are required")
	}

	provider, err := ParseProvider(r.Provider)
	if err != nil {
		return nil, err
	}

	gen := s.generator(provider)
	if gen == nil {
		return nil, apperr.Newf(apperr.ServiceUnavailable, "%s provider is not configured", provider)
	}

	start := s.now()
	if err := s.lock(r.UserID, start); err != nil {
		return nil, err
	}
	defer s.unlock(r.UserID)

	if err := gen.Available(ctx); err != nil {
		metrics.AvatarGenerations.WithLabelValues(provider.String(), "unavailable").Inc()
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	params := GenerationParams{Gender: gender, SkinTone: skinTone, Seed: s.seed()}

	views, err := gen.Generate(genCtx, params)
	metrics.AvatarGenerationSeconds.WithLabelValues(provider.String()).Observe(s.now().Sub(start).Seconds())
	if err != nil {
		metrics.AvatarGenerations.WithLabelValues(provider.String(), "failed").Inc()
		zap.L().Error("Avatar generation failed", zap.Error(err), zap.String("provider", provider.String()), zap.String("userID", r.UserID))

		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.ServiceUnavailable, "Avatar generation timed out", err)
		}

		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}

		return nil, apperr.Wrap(apperr.ServiceUnavailable, "Avatar generation failed: "+err.Error(), err)
	}

	avatar, err := s.persist(ctx, r.UserID, provider, params, views)
	if err != nil {
		metrics.AvatarGenerations.WithLabelValues(provider.String(), "failed").Inc()
		return nil, err
	}

	metrics.AvatarGenerations.WithLabelValues(provider.String(), "ok").Inc()

	res := &GenerationResult{
		AvatarID: avatar.ID,
		Images:   make([]AvatarImageData, 0, len(avatar.Images)),
		Meta: GenerationMeta{
			Gender:         gender,
			SkinTone:       skinTone,
			Seed:           params.Seed,
			Provider:       provider.String(),
			ViewsGenerated: len(avatar.Images),
		},
	}

	// Re-read what was stored so the caller gets exactly the persisted bytes
	for _, img := range avatar.Images {
		b, err := s.Store.Read(ctx, storage.AvatarsDir+"/"+img.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read stored %s view, %w", img.View, err)
		}

		data := util.PNGDataURL(b)
		res.Images = append(res.Images, AvatarImageData{View: img.View, ImageDataURL: &data, URL: img.URL})
	}

	return res, nil
}

func (s *Avatars) persist(ctx context.Context, userID string, provider Provider, p GenerationParams, views []GeneratedView) (*model.Avatar, error) {
	now := s.now()
	avatarID := uuid.NewString()

	avatar := &model.Avatar{
		ID:        avatarID,
		UserID:    userID,
		Name:      fmt.Sprintf("%s Avatar - %s", p.Gender, now.Format("1/2/2006")),
		Gender:    p.Gender,
		SkinTone:  p.SkinTone,
		Seed:      p.Seed,
		Provider:  provider.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var saved []string
	cleanup := func() {
		for _, key := range saved {
			if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
				zap.L().Warn("Failed to remove orphaned avatar file", zap.Error(err), zap.String("key", key))
			}
		}
	}

	for i, v := range views {
		filename := fmt.Sprintf("%s_%s_%d.png", avatarID, v.View, now.UnixMilli())

		key, err := storage.Key(storage.AvatarsDir, filename)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("invalid avatar filename %q, %w", filename, err)
		}

		if err := s.Store.Save(ctx, key, v.Image, "image/png"); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to store %s view, %w", v.View, err)
		}
		saved = append(saved, key)

		prompt := v.Prompt
		if prompt == "" {
			prompt = fmt.Sprintf("%s view of %s with %s skin", v.View, p.Gender, p.SkinTone)
		}

		avatar.Images = append(avatar.Images, model.AvatarImage{
			ID:       uuid.NewString(),
			AvatarID: avatarID,
			Position: i,
			View:     v.View,
			Filename: filename,
			URL:      storage.PublicURL(key),
			Size:     int64(len(v.Image)),
			Width:    AvatarWidth,
			Height:   AvatarHeight,
			Prompt:   prompt,
		})
	}

	if err := s.DB.WithContext(ctx).Create(avatar).Error; err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to save avatar, %w", err)
	}

	return avatar, nil
}

func imagesByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

// List returns the user's avatars newest first, without image data
func (s *Avatars) List(ctx context.Context, userID string) ([]AvatarSummary, error) {
	var avatars []model.Avatar

	err := s.DB.WithContext(ctx).
		Preload("Images", imagesByPosition).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&avatars).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list avatars, %w", err)
	}

	out := make([]AvatarSummary, 0, len(avatars))
	for _, a := range avatars {
		refs := make([]AvatarImageRef, 0, len(a.Images))
		for _, img := range a.Images {
			refs = append(refs, AvatarImageRef{View: img.View, URL: img.URL})
		}

		out = append(out, AvatarSummary{
			ID:        a.ID,
			Name:      a.Name,
			Gender:    a.Gender,
			SkinTone:  a.SkinTone,
			Images:    refs,
			CreatedAt: a.CreatedAt,
		})
	}

	return out, nil
}

// Get returns one of the user's avatars with inline image data. A view
// whose file can't be read gets a nil payload instead of failing.
func (s *Avatars) Get(ctx context.Context, userID, avatarID string) (*AvatarDetail, error) {
	var a model.Avatar

	err := s.DB.WithContext(ctx).
		Preload("Images", imagesByPosition).
		Where("id = ? AND user_id = ?", avatarID, userID).
		First(&a).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Avatar not found")
		}

		return nil, fmt.Errorf("failed to fetch avatar, %w", err)
	}

	images := make([]AvatarImageData, len(a.Images))
	for i, img := range a.Images {
		images[i] = AvatarImageData{View: img.View, URL: img.URL}

		b, err := s.Store.Read(ctx, storage.AvatarsDir+"/"+img.Filename)
		if err != nil {
			zap.L().Warn("Failed to load avatar image", zap.Error(err), zap.String("filename", img.Filename))
			continue
		}

		data := util.PNGDataURL(b)
		images[i].ImageDataURL = &data
	}

	return &AvatarDetail{
		ID:        a.ID,
		Name:      a.Name,
		Gender:    a.Gender,
		SkinTone:  a.SkinTone,
		Images:    images,
		CreatedAt: a.CreatedAt,
	}, nil
}
