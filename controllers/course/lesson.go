package controllers

import (
	"errors"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/storage"
	"lms/utils"
	courseValidator "lms/validators/course"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func listLessons(db *gorm.DB, chapterID uint) ([]courseModels.Lesson, error) {
	var lessons []courseModels.Lesson
	err := db.Where("chapter_id = ?", chapterID).Order("position asc").Find(&lessons).Error
	return lessons, err
}

// AdminCreateLesson appends a lesson to the chapter, uploading its attachment first
func AdminCreateLesson(c *fiber.Ctx) error {
	chapterID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.LessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	if _, err := findChapter(c, db, chapterID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	attachment, uploaded, err := utils.ResolveAsset(c.UserContext(), reqData.Attachment, utils.LessonAttachmentRules(), "")
	if err != nil {
		return mediaErrorResponse(c, "attachment", err)
	}

	lesson := courseModels.Lesson{
		ChapterID:     chapterID,
		Title:         reqData.Title,
		Description:   reqData.Description,
		VideoURL:      reqData.VideoURL,
		AttachmentURL: attachment.URL,
		AttachmentKey: attachment.Key,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := utils.LockParent(tx, &courseModels.Chapter{}, chapterID); err != nil {
			return err
		}
		position, err := utils.NextPosition(tx, lessonSiblings(chapterID))
		if err != nil {
			return err
		}
		lesson.Position = position
		return tx.Create(&lesson).Error
	})
	if err != nil {
		utils.DiscardUpload(c.UserContext(), attachment, uploaded)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.ErrorHandler(c, errChapterNotFound)
		}
		logger.Log.Error("Error creating lesson", "chapterId", chapterID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// AdminUpdateLesson applies a partial update; a replaced attachment is deleted after the save
func AdminUpdateLesson(c *fiber.Ctx) error {
	lessonID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedLessonUpdate").(*courseValidator.LessonUpdateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	lesson, _, err := findLesson(c, db, lessonID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.VideoURL != nil {
		updates["video_url"] = *reqData.VideoURL
	}

	var (
		attachment storage.Object
		uploaded   bool
		staleKey   string
	)
	switch {
	case reqData.RemoveAttachment:
		updates["attachment_url"] = ""
		updates["attachment_key"] = ""
		staleKey = lesson.AttachmentKey
	case !reqData.Attachment.IsEmpty():
		attachment, uploaded, err = utils.ResolveAsset(c.UserContext(), reqData.Attachment, utils.LessonAttachmentRules(), lesson.AttachmentKey)
		if err != nil {
			return mediaErrorResponse(c, "attachment", err)
		}
		updates["attachment_url"] = attachment.URL
		updates["attachment_key"] = attachment.Key
		staleKey = utils.ReplacedKey(lesson.AttachmentKey, attachment)
	}

	if len(updates) > 0 {
		if err := db.Model(lesson).Updates(updates).Error; err != nil {
			logger.Log.Error("Error updating lesson", "lessonId", lessonID, "error", err)
			utils.DiscardUpload(c.UserContext(), attachment, uploaded)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
		}
	}

	utils.DeleteMedia(c.UserContext(), staleKey)

	var updated courseModels.Lesson
	if err := db.First(&updated, lessonID).Error; err != nil {
		logger.Log.Error("Error reloading lesson", "lessonId", lessonID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch updated lesson!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", updated)
}

// AdminDeleteLesson deletes the lesson, compacts its chapter and removes the attachment
func AdminDeleteLesson(c *fiber.Ctx) error {
	lessonID := shared.ID(c, "id")
	db := database.Database.Db

	lesson, _, err := findLesson(c, db, lessonID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}

	var keys []string
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := utils.LockParent(tx, &courseModels.Chapter{}, lesson.ChapterID); err != nil {
			return err
		}
		var err error
		if keys, err = utils.DeleteLessonsTx(tx, []uint{lesson.ID}); err != nil {
			return err
		}
		return utils.Compact(tx, lessonSiblings(lesson.ChapterID))
	})
	if err != nil {
		logger.Log.Error("Error deleting lesson", "lessonId", lessonID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	utils.DeleteMedia(c.UserContext(), keys...)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

func AdminListLessons(c *fiber.Ctx) error {
	chapterID := shared.ID(c, "id")
	db := database.Database.Db

	if _, err := findChapter(c, db, chapterID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	lessons, err := listLessons(db, chapterID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons fetched successfully!", lessons)
}

// AdminReorderLessons rewrites the lesson positions of a chapter to the given order
func AdminReorderLessons(c *fiber.Ctx) error {
	chapterID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedOrder").(*courseValidator.OrderRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	if _, err := findChapter(c, db, chapterID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := utils.LockParent(tx, &courseModels.Chapter{}, chapterID); err != nil {
			return err
		}
		return utils.Reorder(tx, lessonSiblings(chapterID), reqData.IDs)
	})
	if err != nil {
		if errors.Is(err, utils.ErrInvalidOrder) {
			return middleware.ValidationErrorResponse(c, map[string]string{"ids": err.Error()})
		}
		logger.Log.Error("Error reordering lessons", "chapterId", chapterID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reorder lessons!", nil)
	}

	lessons, err := listLessons(db, chapterID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons reordered successfully!", lessons)
}

// AdminMoveLesson moves a lesson to the end of another chapter of the same course
func AdminMoveLesson(c *fiber.Ctx) error {
	lessonID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedLessonMove").(*courseValidator.MoveLessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	lesson, source, err := findLesson(c, db, lessonID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}
	if reqData.ChapterID == source.ID {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson moved successfully!", lesson)
	}

	target, err := findChapter(c, db, reqData.ChapterID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}
	if target.CourseID != source.CourseID {
		return middleware.ValidationErrorResponse(c, map[string]string{"chapterId": "Lessons can only move within the same course"})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Both chapters are locked, lowest id first.
		first, second := source.ID, target.ID
		if first > second {
			first, second = second, first
		}
		if err := utils.LockParent(tx, &courseModels.Chapter{}, first); err != nil {
			return err
		}
		if err := utils.LockParent(tx, &courseModels.Chapter{}, second); err != nil {
			return err
		}
		position, err := utils.NextPosition(tx, lessonSiblings(target.ID))
		if err != nil {
			return err
		}
		err = tx.Model(lesson).Updates(map[string]interface{}{"chapter_id": target.ID, "position": position}).Error
		if err != nil {
			return err
		}
		return utils.Compact(tx, lessonSiblings(source.ID))
	})
	if err != nil {
		logger.Log.Error("Error moving lesson", "lessonId", lessonID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to move lesson!", nil)
	}

	var moved courseModels.Lesson
	if err := db.First(&moved, lessonID).Error; err != nil {
		logger.Log.Error("Error reloading lesson", "lessonId", lessonID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch moved lesson!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson moved successfully!", moved)
}
