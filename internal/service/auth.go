package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/model"
	"fashionai/avatar-api/pkg/metrics"
	"fashionai/avatar-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Auth owns every way of getting a session token: registration,
// password login and the PIN challenge
type Auth struct {
	DB     *gorm.DB
	Argon  *security.ArgonHash
	Tokens *security.TokenIssuer
	// Optional, PINs are only delivered out of band when set
	Mailer PINSender
	// Logged out token ids land here
	Revoker Revoker
	// Return the plaintext PIN in the generate response
	ExposePIN bool
	Now       func() time.Time
}

// AuthResult is what every successful authentication returns
type AuthResult struct {
	Token  string            `json:"token"`
	User   model.UserPayload `json:"user"`
	Claims *security.Claims  `json:"-"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (a *Auth) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}

	return time.Now()
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (a *Auth) findByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := a.DB.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&u).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found with this email")
		}

		return nil, fmt.Errorf("failed to look up user, %w", err)
	}

	return &u, nil
}

func (a *Auth) issue(u *model.User) (*AuthResult, error) {
	token, claims, err := a.Tokens.Issue(u.ID, u.Email, u.Name)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: u.Payload(), Claims: claims}, nil
}

// Register creates an active user and signs them in right away
func (a *Auth) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)

	var found int64
	err := a.DB.WithContext(ctx).
		Model(model.User{}).
		Where("email = ?", email).
		Count(&found).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to check if user is registered, %w", err)
	}

	if found > 0 {
		return nil, apperr.New(apperr.Conflict, "User already exists with this email")
	}

	hash, err := a.Argon.GenerateFromPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	u := &model.User{
		ID:           userID,
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Active:       true,
		Version:      1,
	}

	if err := a.DB.WithContext(ctx).Create(u).Error; err != nil {
		// Lost a race with another registration for the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.Conflict, "User already exists with this email")
		}

		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	zap.L().Info("User registered", zap.String("userID", u.ID))
	return a.issue(u)
}

// Login checks an email/password pair
func (a *Auth) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := a.findByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, apperr.New(apperr.Unauthorized, "Invalid credentials")
		}

		return nil, err
	}

	if !u.Active {
		return nil, apperr.New(apperr.Unauthorized, "Account is deactivated")
	}

	ok, err := a.Argon.VerifyPasswd(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		metrics.AuthAttempts.WithLabelValues("password", "invalid").Inc()
		return nil, apperr.New(apperr.Unauthorized, "Invalid credentials")
	}

	now := a.now()
	err = a.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"last_login":  now,
			"login_count": gorm.Expr("login_count + ?", 1),
			"version":     gorm.Expr("version + ?", 1),
		}).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to update login stats, %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("password", "ok").Inc()
	return a.issue(u)
}

// Logout revokes the token behind claims for the rest of its lifetime
func (a *Auth) Logout(ctx context.Context, claims *security.Claims) error {
	if a.Revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}

	ttl := security.TokenTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(a.now())
	}

	if err := a.Revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token, %w", err)
	}

	zap.L().Debug("Token revoked", zap.String("userID", claims.UserID))
	return nil
}

// casUpdate applies updates only if nobody else changed the user since
// it was loaded. A false result means the caller has to reload and
// decide again.
func casUpdate(ctx context.Context, db *gorm.DB, u *model.User, updates map[string]any) (bool, error) {
	updates["version"] = gorm.Expr("version + ?", 1)

	res := db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND version = ?", u.ID, u.Version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}
