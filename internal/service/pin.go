package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/model"
	"fashionai/avatar-api/pkg/metrics"
	"fashionai/avatar-api/pkg/security"

	"go.uber.org/zap"
)

const (
	PINTTL          = 10 * time.Minute
	PINLockDuration = 15 * time.Minute
	MaxPINAttempts  = 3

	// How often a PIN transition is retried after losing a race
	maxCASRetries = 5
)

// PINIssue is returned after a PIN was generated
type PINIssue struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expiresIn"` // Minutes
	DemoPIN   string `json:"demoPin,omitempty"`
}

var errConcurrentUpdate = apperr.New(apperr.Conflict, "The account was modified concurrently, please try again")

// minutesLeft rounds up so a lock with 10 seconds left still reads "1 minutes"
func minutesLeft(until, now time.Time) int {
	return int(math.Ceil(until.Sub(now).Minutes()))
}

// GeneratePIN starts a new PIN cycle for the user behind email. Any
// previous PIN and failed attempt count is discarded.
func (a *Auth) GeneratePIN(ctx context.Context, email string) (*PINIssue, error) {
	for range maxCASRetries {
		u, err := a.findByEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		if !u.Active {
			return nil, apperr.New(apperr.Forbidden, "Account is deactivated")
		}

		now := a.now()
		if u.PINLocked(now) {
			return nil, apperr.Newf(apperr.RateLimited,
				"PIN generation is locked. Try again in %d minutes.", minutesLeft(*u.PINLockedUntil, now))
		}

		pin, err := security.GeneratePIN()
		if err != nil {
			return nil, fmt.Errorf("failed to generate PIN, %w", err)
		}

		hash, err := a.Argon.GenerateFromPassword(pin)
		if err != nil {
			return nil, fmt.Errorf("failed to hash PIN, %w", err)
		}

		ok, err := casUpdate(ctx, a.DB, u, map[string]any{
			"pin_hash":         hash,
			"pin_expires_at":   now.Add(PINTTL),
			"pin_attempts":     0,
			"pin_locked_until": nil,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store PIN, %w", err)
		}

		if !ok {
			continue
		}

		if err := a.deliverPIN(ctx, u, pin); err != nil {
			return nil, err
		}

		issue := &PINIssue{
			Message:   "PIN generated successfully. Check your email/SMS for the PIN.",
			ExpiresIn: int(PINTTL / time.Minute),
		}

		if a.ExposePIN {
			issue.DemoPIN = pin
		}

		metrics.PINEvents.WithLabelValues("generated").Inc()
		return issue, nil
	}

	return nil, errConcurrentUpdate
}

func (a *Auth) deliverPIN(ctx context.Context, u *model.User, pin string) error {
	if a.Mailer == nil {
		if !a.ExposePIN {
			zap.L().Warn("PIN generated but no delivery channel is configured", zap.String("userID", u.ID))
		}

		return nil
	}

	err := a.Mailer.SendPIN(ctx, u.Email, u.Name, pin, PINTTL)
	if err == nil {
		return nil
	}

	zap.L().Error("Failed to deliver PIN", zap.Error(err), zap.String("userID", u.ID))

	// With the demo PIN in the response the caller can still go on
	if a.ExposePIN {
		return nil
	}

	return apperr.Wrap(apperr.ServiceUnavailable, "Failed to deliver the PIN. Please try again later.", err)
}

// VerifyPIN checks candidate against the active PIN. Checks run in a
// fixed order: account, lock, presence, expiry, then the PIN itself.
func (a *Auth) VerifyPIN(ctx context.Context, email, candidate string) (*AuthResult, error) {
	for range maxCASRetries {
		u, err := a.findByEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		if !u.Active {
			return nil, apperr.New(apperr.Forbidden, "Account is deactivated")
		}

		now := a.now()
		if u.PINLocked(now) {
			metrics.PINEvents.WithLabelValues("locked").Inc()
			return nil, apperr.Newf(apperr.RateLimited,
				"PIN verification is locked. Try again in %d minutes.", minutesLeft(*u.PINLockedUntil, now))
		}

		if u.PINHash == nil {
			return nil, apperr.New(apperr.Validation, "No PIN found. Please generate a PIN first.")
		}

		// Expired PINs never touch the attempt counter
		if u.PINExpired(now) {
			metrics.PINEvents.WithLabelValues("expired").Inc()
			return nil, apperr.New(apperr.Expired, "PIN has expired. Please generate a new PIN.")
		}

		match, err := a.Argon.VerifyPasswd(candidate, *u.PINHash)
		if err != nil {
			return nil, fmt.Errorf("failed to verify PIN, %w", err)
		}

		if !match {
			attempts := u.PINAttempts + 1
			updates := map[string]any{"pin_attempts": attempts}

			locked := attempts >= MaxPINAttempts
			if locked {
				updates["pin_locked_until"] = now.Add(PINLockDuration)
			}

			ok, err := casUpdate(ctx, a.DB, u, updates)
			if err != nil {
				return nil, fmt.Errorf("failed to record PIN attempt, %w", err)
			}

			if !ok {
				continue
			}

			if locked {
				metrics.PINEvents.WithLabelValues("lockout").Inc()
				zap.L().Info("PIN locked after failed attempts", zap.String("userID", u.ID))

				return nil, apperr.New(apperr.RateLimited,
					"Invalid PIN. Account locked for 15 minutes due to multiple failed attempts.")
			}

			metrics.PINEvents.WithLabelValues("invalid").Inc()
			return nil, apperr.Newf(apperr.Unauthorized, "Invalid PIN. %d attempts remaining.", MaxPINAttempts-attempts)
		}

		ok, err := casUpdate(ctx, a.DB, u, map[string]any{
			"pin_attempts":     0,
			"pin_locked_until": nil,
			"pin_hash":         nil,
			"pin_expires_at":   nil,
			"login_count":      u.LoginCount + 1,
			"last_login":       now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to consume PIN, %w", err)
		}

		if !ok {
			continue
		}

		u.LoginCount++
		u.LastLogin = &now

		metrics.PINEvents.WithLabelValues("verified").Inc()
		return a.issue(u)
	}

	return nil, errConcurrentUpdate
}
