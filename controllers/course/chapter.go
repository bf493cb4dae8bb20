package controllers

import (
	"errors"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"
	courseValidator "lms/validators/course"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func listChapters(db *gorm.DB, courseID uint) ([]courseModels.Chapter, error) {
	var chapters []courseModels.Chapter
	err := db.Where("course_id = ?", courseID).
		Preload("Lessons", orderedContent).
		Order("position asc").
		Find(&chapters).Error
	return chapters, err
}

// AdminCreateChapter appends a chapter to the course
func AdminCreateChapter(c *fiber.Ctx) error {
	courseID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedChapter").(*courseValidator.ChapterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	if _, err := findCourse(c, db, courseID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	chapter := courseModels.Chapter{CourseID: courseID, Title: reqData.Title}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := utils.LockParent(tx, &courseModels.Course{}, courseID); err != nil {
			return err
		}
		position, err := utils.NextPosition(tx, chapterSiblings(courseID))
		if err != nil {
			return err
		}
		chapter.Position = position
		return tx.Create(&chapter).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.ErrorHandler(c, errCourseNotFound)
		}
		logger.Log.Error("Error creating chapter", "courseId", courseID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create chapter!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Chapter created successfully!", chapter)
}

func AdminUpdateChapter(c *fiber.Ctx) error {
	chapterID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedChapter").(*courseValidator.ChapterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	chapter, err := findChapter(c, db, chapterID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}

	if err := db.Model(chapter).Update("title", reqData.Title).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update chapter!", nil)
	}
	chapter.Title = reqData.Title

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter updated successfully!", chapter)
}

// AdminDeleteChapter deletes the chapter with its lessons and closes the gap it leaves
func AdminDeleteChapter(c *fiber.Ctx) error {
	chapterID := shared.ID(c, "id")
	db := database.Database.Db

	chapter, err := findChapter(c, db, chapterID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}

	var keys []string
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := utils.LockParent(tx, &courseModels.Course{}, chapter.CourseID); err != nil {
			return err
		}
		var err error
		if keys, err = utils.DeleteChaptersTx(tx, []uint{chapter.ID}); err != nil {
			return err
		}
		return utils.Compact(tx, chapterSiblings(chapter.CourseID))
	})
	if err != nil {
		logger.Log.Error("Error deleting chapter", "chapterId", chapterID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete chapter!", nil)
	}

	utils.DeleteMedia(c.UserContext(), keys...)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter deleted successfully!", nil)
}

func AdminListChapters(c *fiber.Ctx) error {
	courseID := shared.ID(c, "id")
	db := database.Database.Db

	if _, err := findCourse(c, db, courseID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	chapters, err := listChapters(db, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch chapters!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapters fetched successfully!", chapters)
}

// AdminReorderChapters rewrites the chapter positions of a course to the given order.
// The ids must be exactly the course's chapters; otherwise nothing changes.
func AdminReorderChapters(c *fiber.Ctx) error {
	courseID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedOrder").(*courseValidator.OrderRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	if _, err := findCourse(c, db, courseID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := utils.LockParent(tx, &courseModels.Course{}, courseID); err != nil {
			return err
		}
		return utils.Reorder(tx, chapterSiblings(courseID), reqData.IDs)
	})
	if err != nil {
		if errors.Is(err, utils.ErrInvalidOrder) {
			return middleware.ValidationErrorResponse(c, map[string]string{"ids": err.Error()})
		}
		logger.Log.Error("Error reordering chapters", "courseId", courseID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reorder chapters!", nil)
	}

	chapters, err := listChapters(db, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch chapters!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapters reordered successfully!", chapters)
}
