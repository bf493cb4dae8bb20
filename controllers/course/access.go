package controllers

import (
	"errors"
	"fmt"

	"lms/config"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/storage"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	errCourseNotFound  = fiber.NewError(fiber.StatusNotFound, "Course not found!")
	errChapterNotFound = fiber.NewError(fiber.StatusNotFound, "Chapter not found!")
	errLessonNotFound  = fiber.NewError(fiber.StatusNotFound, "Lesson not found!")
	errNotYourCourse   = fiber.NewError(fiber.StatusForbidden, "You can only manage your own courses!")
)

// canManage reports whether user may change the content of course.
func canManage(user *models.User, course *courseModels.Course) bool {
	if user == nil {
		return false
	}
	return user.Role == models.RoleAdmin || (user.Role == models.RoleTeacher && course.TeacherID == user.ID)
}

// findCourse loads a course the current user may manage.
func findCourse(c *fiber.Ctx, db *gorm.DB, id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCourseNotFound
		}
		return nil, err
	}
	if !canManage(middleware.CurrentUser(c), &course) {
		return nil, errNotYourCourse
	}
	return &course, nil
}

// findChapter loads a chapter whose course the current user may manage.
func findChapter(c *fiber.Ctx, db *gorm.DB, id uint) (*courseModels.Chapter, error) {
	var chapter courseModels.Chapter
	if err := db.First(&chapter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errChapterNotFound
		}
		return nil, err
	}
	if _, err := findCourse(c, db, chapter.CourseID); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// findLesson loads a lesson whose course the current user may manage.
func findLesson(c *fiber.Ctx, db *gorm.DB, id uint) (*courseModels.Lesson, *courseModels.Chapter, error) {
	var lesson courseModels.Lesson
	if err := db.First(&lesson, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errLessonNotFound
		}
		return nil, nil, err
	}
	chapter, err := findChapter(c, db, lesson.ChapterID)
	if err != nil {
		return nil, nil, err
	}
	return &lesson, chapter, nil
}

func chapterSiblings(courseID uint) utils.Siblings {
	return utils.Siblings{Model: &courseModels.Chapter{}, ParentColumn: "course_id", ParentID: courseID}
}

func lessonSiblings(chapterID uint) utils.Siblings {
	return utils.Siblings{Model: &courseModels.Lesson{}, ParentColumn: "chapter_id", ParentID: chapterID}
}

// mediaErrorResponse maps an asset resolution failure on field to a response.
func mediaErrorResponse(c *fiber.Ctx, field string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedMedia):
		return middleware.ValidationErrorResponse(c, map[string]string{field: "Unsupported file type"})
	case errors.Is(err, storage.ErrFileTooLarge):
		return middleware.ValidationErrorResponse(c, map[string]string{
			field: fmt.Sprintf("File must be at most %d MB", config.AppConfig.MediaMaxUploadMB),
		})
	case errors.Is(err, utils.ErrMediaNotConfigured):
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Media storage is not configured!", nil)
	default:
		logger.Log.Error("Media upload failed", "field", field, "error", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to upload file!", nil)
	}
}

func orderedContent(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}
