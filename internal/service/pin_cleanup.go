package service

import (
	"time"

	"fashionai/avatar-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PINCleanup periodically wipes PIN hashes that expired a long time ago
// and whose lock window is over, so stale secrets don't linger in the
// database. Users in the middle of a cycle are never touched.
func PINCleanup(t time.Duration, db *gorm.DB) *time.Ticker {
	ticker := time.NewTicker(t)

	zap.L().Debug("PIN cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			n, err := CleanupStalePINs(db, time.Now())
			if err != nil {
				zap.L().Error("Failed to clean up stale PINs", zap.Error(err))
				continue
			}

			if n > 0 {
				zap.L().Debug("Cleaned up stale PINs", zap.Int64("users", n))
			}
		}
	}()

	return ticker
}

// CleanupStalePINs clears PINs that expired over a day before now
func CleanupStalePINs(db *gorm.DB, now time.Time) (int64, error) {
	cutoff := now.Add(-24 * time.Hour)

	res := db.
		Model(&model.User{}).
		Where("pin_hash IS NOT NULL AND pin_expires_at < ?", cutoff).
		Where("(pin_locked_until IS NULL OR pin_locked_until < ?)", now).
		Updates(map[string]any{
			"pin_hash":       nil,
			"pin_expires_at": nil,
			"pin_attempts":   0,
			"version":        gorm.Expr("version + ?", 1),
		})

	return res.RowsAffected, res.Error
}
