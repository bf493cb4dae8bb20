package utils

import (
	"context"
	"errors"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/models"
	courseModels "lms/models/course"
	"lms/storage"

	"gorm.io/gorm"
)

var ErrMediaNotConfigured = errors.New("media storage is not configured")

// CourseImageRules limits course cover uploads.
func CourseImageRules() storage.Rules {
	return storage.Rules{
		Prefix:   "courses",
		MaxBytes: maxUploadBytes(),
		Allowed:  []string{"image/*"},
	}
}

// LessonAttachmentRules limits lesson attachment uploads.
func LessonAttachmentRules() storage.Rules {
	return storage.Rules{
		Prefix:   "lessons",
		MaxBytes: maxUploadBytes(),
		Allowed:  []string{"image/*", "application/pdf"},
	}
}

func maxUploadBytes() int64 {
	return int64(config.AppConfig.MediaMaxUploadMB) << 20
}

// ResolveAsset uploads a pending asset or references a stored URL. owned is the key
// the row already holds ("" on create). uploaded is true when a new remote object was
// created; the caller must DiscardUpload it if the row is not persisted.
func ResolveAsset(ctx context.Context, asset storage.Asset, rules storage.Rules, owned string) (obj storage.Object, uploaded bool, err error) {
	if storage.Media == nil {
		if asset.IsPending() {
			return storage.Object{}, false, ErrMediaNotConfigured
		}
		return storage.Object{URL: asset.URL()}, false, nil
	}
	return asset.Resolve(ctx, storage.Media, rules, owned)
}

// DiscardUpload removes an object uploaded for a write that was rolled back.
func DiscardUpload(ctx context.Context, obj storage.Object, uploaded bool) {
	if uploaded {
		DeleteMedia(ctx, obj.Key)
	}
}

// DeleteMedia deletes remote objects that no live course or lesson still references.
// Failed deletions are queued for the cleanup job and never surface to the caller.
func DeleteMedia(ctx context.Context, keys ...string) {
	keys, err := unreferenced(database.Database.Db, keys)
	if err != nil {
		logger.Log.Error("Failed to check media references, skipping delete", "keys", keys, "error", err)
		return
	}
	for _, key := range keys {
		if storage.Media == nil {
			logger.Log.Warn("Media storage not configured, skipping delete", "key", key)
			continue
		}
		if err := storage.Media.Delete(ctx, key); err != nil {
			logger.Log.Warn("Media delete failed, queued for retry", "key", key, "error", err)
			QueueMediaCleanup(key, err)
		}
	}
}

// unreferenced drops empty keys and keys still held by a course image or lesson attachment.
func unreferenced(db *gorm.DB, keys []string) ([]string, error) {
	candidates := make([]string, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var inUse []string
	if err := db.Model(&courseModels.Course{}).Where("image_key IN ?", candidates).Pluck("image_key", &inUse).Error; err != nil {
		return candidates, err
	}
	var attached []string
	if err := db.Model(&courseModels.Lesson{}).Where("attachment_key IN ?", candidates).Pluck("attachment_key", &attached).Error; err != nil {
		return candidates, err
	}
	held := make(map[string]bool, len(inUse)+len(attached))
	for _, key := range append(inUse, attached...) {
		held[key] = true
	}

	out := candidates[:0]
	for _, key := range candidates {
		if held[key] {
			logger.Log.Info("Media still referenced, keeping it", "key", key)
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

// QueueMediaCleanup records a failed deletion for the scheduler.
func QueueMediaCleanup(key string, cause error) {
	row := models.MediaCleanup{ObjectKey: key, Attempts: 1}
	if cause != nil {
		row.LastError = cause.Error()
	}
	if err := database.Database.Db.Create(&row).Error; err != nil {
		logger.Log.Error("Failed to queue media cleanup", "key", key, "error", err)
	}
}

// ReplacedKey returns the key of the old object that must be deleted once a new
// asset has been persisted, or "" when the old object stays in use.
func ReplacedKey(oldKey string, next storage.Object) string {
	if oldKey == "" || oldKey == next.Key {
		return ""
	}
	return oldKey
}
