package utils

import (
	"context"
	"time"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/models"
	"lms/storage"

	"github.com/robfig/cron/v3"
)

// InitializeMediaCleanupScheduler retries queued remote deletions on MEDIA_CLEANUP_CRON.
func InitializeMediaCleanupScheduler() (*cron.Cron, error) {
	schedule := config.AppConfig.MediaCleanupCron
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		done, dropped := ProcessMediaCleanups(ctx)
		if done > 0 || dropped > 0 {
			logger.Log.Info("Media cleanup run finished", "deleted", done, "dropped", dropped)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Log.Info("Media cleanup scheduler started", "schedule", schedule)
	return c, nil
}

// ProcessMediaCleanups retries every queued deletion once. Rows that reach
// MEDIA_CLEANUP_MAX_ATTEMPTS are dropped and logged.
func ProcessMediaCleanups(ctx context.Context) (deleted, dropped int) {
	if storage.Media == nil {
		return 0, 0
	}
	db := database.Database.Db
	maxAttempts := config.AppConfig.MediaCleanupMaxAttempts

	var pending []models.MediaCleanup
	if err := db.WithContext(ctx).Order("id asc").Limit(500).Find(&pending).Error; err != nil {
		logger.Log.Error("Error fetching media cleanups", "error", err)
		return 0, 0
	}

	for _, row := range pending {
		err := storage.Media.Delete(ctx, row.ObjectKey)
		if err == nil {
			db.Unscoped().Delete(&row)
			deleted++
			continue
		}

		row.Attempts++
		row.LastError = err.Error()
		if row.Attempts >= maxAttempts {
			logger.Log.Error("Giving up on media delete", "key", row.ObjectKey, "attempts", row.Attempts, "error", err)
			db.Unscoped().Delete(&row)
			dropped++
			continue
		}
		db.Save(&row)
	}
	return deleted, dropped
}
