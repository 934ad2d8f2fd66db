package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/model"

	"gorm.io/gorm"
)

// Users covers profile reads and writes outside of authentication
type Users struct {
	DB *gorm.DB
}

type DashboardStats struct {
	TotalLogins int        `json:"totalLogins"`
	LastLogin   *time.Time `json:"lastLogin"`
}

type Dashboard struct {
	User  model.UserPayload `json:"user"`
	Stats DashboardStats    `json:"stats"`
}

func (s *Users) Get(ctx context.Context, userID string) (*model.User, error) {
	var u model.User

	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &u, nil
}

// UpdateName changes the display name. Names are 2-50 characters after
// trimming.
func (s *Users) UpdateName(ctx context.Context, userID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, "Name is required")
	}

	if n := len([]rune(name)); n < 2 || n > 50 {
		return nil, apperr.New(apperr.Validation, "Name must be between 2 and 50 characters")
	}

	res := s.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"name":    name,
			"version": gorm.Expr("version + ?", 1),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update profile, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.NotFound, "User not found")
	}

	return s.Get(ctx, userID)
}

func (s *Users) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		User: u.Payload(),
		Stats: DashboardStats{
			TotalLogins: u.LoginCount,
			LastLogin:   u.LastLogin,
		},
	}, nil
}

// Deactivate soft-deletes an account. The row stays, but no further
// authentication succeeds.
func (s *Users) Deactivate(ctx context.Context, email string) error {
	res := s.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", normalizeEmail(email)).
		Updates(map[string]any{
			"active":  false,
			"version": gorm.Expr("version + ?", 1),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate user, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "User not found with this email")
	}

	return nil
}
