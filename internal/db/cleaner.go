package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartAttemptWindowReset clears failed-password counters of accounts that
// are not locked and whose attempt window started before now-window. It runs
// every interval until ctx is cancelled.
func StartAttemptWindowReset(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	window time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-window)
				res, err := db.ExecContext(ctx, `
                    UPDATE membership_users
                       SET failed_password_attempts = 0,
                           failed_attempt_window_start = NULL
                     WHERE is_locked_out = false
                       AND failed_attempt_window_start < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to reset password attempt windows", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("reset expired password attempt windows", zap.Int64("users", rows))
				}
			}
		}
	}()
}
