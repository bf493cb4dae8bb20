package controllers

import (
	"errors"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/storage"
	"lms/utils"
	courseValidator "lms/validators/course"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// checkCourseRefs validates levelId and teacherId against the database.
func checkCourseRefs(db *gorm.DB, levelID, teacherID *uint) (map[string]string, error) {
	errs := map[string]string{}
	if levelID != nil {
		var count int64
		if err := db.Model(&models.Level{}).Where("id = ?", *levelID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			errs["levelId"] = "Level does not exist"
		}
	}
	if teacherID != nil {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ? AND role = ?", *teacherID, models.RoleTeacher).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			errs["teacherId"] = "teacherId must reference a teacher"
		}
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

func cashNumbers(values []string) datatypes.JSONSlice[string] {
	if values == nil {
		values = []string{}
	}
	return datatypes.JSONSlice[string](values)
}

// AdminCreateCourse creates a course; the image is uploaded before the row is written
func AdminCreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	refErrs, err := checkCourseRefs(db, &reqData.LevelID, &reqData.TeacherID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}
	if refErrs != nil {
		return middleware.ValidationErrorResponse(c, refErrs)
	}

	image, uploaded, err := utils.ResolveAsset(c.UserContext(), reqData.Image, utils.CourseImageRules(), "")
	if err != nil {
		return mediaErrorResponse(c, "image", err)
	}

	status := reqData.Status
	if status == "" {
		status = courseModels.StatusDraft
	}

	course := courseModels.Course{
		Title:            reqData.Title,
		Description:      reqData.Description,
		ImageURL:         image.URL,
		ImageKey:         image.Key,
		Price:            reqData.Price,
		Duration:         reqData.Duration,
		Term:             reqData.Term,
		Status:           status,
		CashNumbers:      cashNumbers(reqData.CashNumbers),
		InstapayUsername: reqData.InstapayUsername,
		LevelID:          reqData.LevelID,
		TeacherID:        reqData.TeacherID,
	}

	if err := db.Create(&course).Error; err != nil {
		logger.Log.Error("Error creating course", "error", err)
		utils.DiscardUpload(c.UserContext(), image, uploaded)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// AdminUpdateCourse applies a partial update. Teachers may only edit the content
// fields of their own courses.
func AdminUpdateCourse(c *fiber.Ctx) error {
	courseID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedCourseUpdate").(*courseValidator.CourseUpdateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	user := middleware.CurrentUser(c)

	course, err := findCourse(c, db, courseID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}

	adminOnly := reqData.Price != nil || reqData.Status != nil || reqData.LevelID != nil ||
		reqData.TeacherID != nil || reqData.CashNumbers != nil || reqData.InstapayUsername != nil
	if adminOnly && user.Role != models.RoleAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only admins can change pricing, status or assignment!", nil)
	}

	refErrs, err := checkCourseRefs(db, reqData.LevelID, reqData.TeacherID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}
	if refErrs != nil {
		return middleware.ValidationErrorResponse(c, refErrs)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Price != nil {
		updates["price"] = *reqData.Price
	}
	if reqData.Duration != nil {
		updates["duration"] = *reqData.Duration
	}
	if reqData.Term != nil {
		updates["term"] = *reqData.Term
	}
	if reqData.Status != nil {
		updates["status"] = *reqData.Status
	}
	if reqData.CashNumbers != nil {
		updates["cash_numbers"] = cashNumbers(reqData.CashNumbers)
	}
	if reqData.InstapayUsername != nil {
		updates["instapay_username"] = *reqData.InstapayUsername
	}
	if reqData.LevelID != nil {
		updates["level_id"] = *reqData.LevelID
	}
	if reqData.TeacherID != nil {
		updates["teacher_id"] = *reqData.TeacherID
	}

	// The new image is hosted before the row changes; the old one goes only after commit.
	var (
		image    storage.Object
		uploaded bool
		staleKey string
	)
	switch {
	case reqData.RemoveImage:
		updates["image_url"] = ""
		updates["image_key"] = ""
		staleKey = course.ImageKey
	case !reqData.Image.IsEmpty():
		image, uploaded, err = utils.ResolveAsset(c.UserContext(), reqData.Image, utils.CourseImageRules(), course.ImageKey)
		if err != nil {
			return mediaErrorResponse(c, "image", err)
		}
		updates["image_url"] = image.URL
		updates["image_key"] = image.Key
		staleKey = utils.ReplacedKey(course.ImageKey, image)
	}

	if len(updates) > 0 {
		if err := db.Model(course).Updates(updates).Error; err != nil {
			logger.Log.Error("Error updating course", "courseId", courseID, "error", err)
			utils.DiscardUpload(c.UserContext(), image, uploaded)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
		}
	}

	utils.DeleteMedia(c.UserContext(), staleKey)

	var updated courseModels.Course
	if err := db.Preload("Level").Preload("Teacher").First(&updated, courseID).Error; err != nil {
		logger.Log.Error("Error reloading course", "courseId", courseID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch updated course!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", updated)
}

// AdminSetCourseStatus handles PATCH /admin/courses/:id/status
func AdminSetCourseStatus(c *fiber.Ctx) error {
	courseID := shared.ID(c, "id")
	reqData, ok := c.Locals("validatedCourseStatus").(*courseValidator.CourseStatusRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	course, err := findCourse(c, db, courseID)
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}

	if err := db.Model(course).Update("status", reqData.Status).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course status!", nil)
	}
	course.Status = reqData.Status

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course status updated successfully!", course)
}

// AdminDeleteCourse removes the course with its chapters and lessons, then its media
func AdminDeleteCourse(c *fiber.Ctx) error {
	courseID := shared.ID(c, "id")
	db := database.Database.Db

	if _, err := findCourse(c, db, courseID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	var keys []string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		keys, err = utils.DeleteCoursesTx(tx, []uint{courseID})
		return err
	})
	if err != nil {
		logger.Log.Error("Error deleting course", "courseId", courseID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	utils.DeleteMedia(c.UserContext(), keys...)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// AdminListCourses lists courses; teachers only see their own
func AdminListCourses(c *fiber.Ctx) error {
	query := shared.Query(c)
	filter, _ := c.Locals("courseFilter").(*courseValidator.CourseListFilter)
	if filter == nil {
		filter = &courseValidator.CourseListFilter{}
	}
	user := middleware.CurrentUser(c)

	q := database.Database.Db.Model(&courseModels.Course{})
	if user.Role == models.RoleTeacher {
		q = q.Where("teacher_id = ?", user.ID)
	} else if filter.TeacherID != 0 {
		q = q.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.LevelID != 0 {
		q = q.Where("level_id = ?", filter.LevelID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if query.Search != "" {
		q = q.Where("LOWER(title) LIKE LOWER(?)", "%"+query.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	var courses []courseModels.Course
	if err := q.Preload("Level").Preload("Teacher").
		Order("created_at desc").Order("id desc").
		Offset(query.Offset()).Limit(query.Limit).
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"pagination": fiber.Map{
			"total": total,
			"page":  query.Page,
			"limit": query.Limit,
		},
	})
}

// AdminGetCourseDetails returns the course with its ordered chapters and lessons
func AdminGetCourseDetails(c *fiber.Ctx) error {
	courseID := shared.ID(c, "id")
	db := database.Database.Db

	if _, err := findCourse(c, db, courseID); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	var course courseModels.Course
	err := db.Preload("Level").Preload("Teacher").
		Preload("Chapters", orderedContent).
		Preload("Chapters.Lessons", orderedContent).
		First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.ErrorHandler(c, errCourseNotFound)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}
