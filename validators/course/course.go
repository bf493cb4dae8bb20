package courseValidator

import (
	"strings"

	"lms/middleware"
	"lms/storage"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
)

// ============ Course Validators ============

type CourseRequest struct {
	Title            string   `json:"title" form:"title" validate:"required,min=3,max=200"`
	Description      string   `json:"description" form:"description" validate:"max=5000"`
	ImageURL         string   `json:"imageUrl" form:"imageUrl" validate:"omitempty,http_url,max=2048"`
	Price            float64  `json:"price" form:"price" validate:"gte=0"`
	Duration         string   `json:"duration" form:"duration" validate:"max=100"`
	Term             string   `json:"term" form:"term" validate:"required,course_term"`
	Status           string   `json:"status" form:"status" validate:"omitempty,course_status"`
	CashNumbers      []string `json:"cashNumbers" form:"cashNumbers" validate:"omitempty,max=5,dive,eg_mobile"`
	InstapayUsername string   `json:"instapayUsername" form:"instapayUsername" validate:"max=100"`
	LevelID          uint     `json:"levelId" form:"levelId" validate:"required"`
	TeacherID        uint     `json:"teacherId" form:"teacherId" validate:"required"`

	Image storage.Asset `json:"-" form:"-"`
}

// CourseUpdateRequest only changes the fields that are present.
type CourseUpdateRequest struct {
	Title            *string  `json:"title" form:"title" validate:"omitempty,min=3,max=200"`
	Description      *string  `json:"description" form:"description" validate:"omitempty,max=5000"`
	ImageURL         string   `json:"imageUrl" form:"imageUrl" validate:"omitempty,http_url,max=2048"`
	RemoveImage      bool     `json:"removeImage" form:"removeImage"`
	Price            *float64 `json:"price" form:"price" validate:"omitempty,gte=0"`
	Duration         *string  `json:"duration" form:"duration" validate:"omitempty,max=100"`
	Term             *string  `json:"term" form:"term" validate:"omitempty,course_term"`
	Status           *string  `json:"status" form:"status" validate:"omitempty,course_status"`
	CashNumbers      []string `json:"cashNumbers" form:"cashNumbers" validate:"omitempty,max=5,dive,eg_mobile"`
	InstapayUsername *string  `json:"instapayUsername" form:"instapayUsername" validate:"omitempty,max=100"`
	LevelID          *uint    `json:"levelId" form:"levelId" validate:"omitempty,gt=0"`
	TeacherID        *uint    `json:"teacherId" form:"teacherId" validate:"omitempty,gt=0"`

	Image storage.Asset `json:"-" form:"-"`
}

type CourseStatusRequest struct {
	Status string `json:"status" validate:"required,course_status"`
}

// CourseListFilter narrows the course list.
type CourseListFilter struct {
	LevelID   uint
	TeacherID uint
	Status    string
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// CreateCourse validates admin course creation (JSON or multipart with an "image" file)
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)
		reqData.Duration = strings.TrimSpace(reqData.Duration)
		reqData.Term = strings.ToUpper(strings.TrimSpace(reqData.Term))
		reqData.Status = strings.ToUpper(strings.TrimSpace(reqData.Status))
		reqData.InstapayUsername = strings.TrimSpace(reqData.InstapayUsername)
		reqData.ImageURL = strings.TrimSpace(reqData.ImageURL)
		reqData.CashNumbers = trimAll(reqData.CashNumbers)

		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}

		reqData.Image = shared.FormAsset(c, "image", reqData.ImageURL)
		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse validates a partial course update
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseUpdateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		trimPtr(reqData.Title)
		trimPtr(reqData.Description)
		trimPtr(reqData.Duration)
		trimPtr(reqData.InstapayUsername)
		reqData.ImageURL = strings.TrimSpace(reqData.ImageURL)
		if reqData.Term != nil {
			*reqData.Term = strings.ToUpper(strings.TrimSpace(*reqData.Term))
		}
		if reqData.Status != nil {
			*reqData.Status = strings.ToUpper(strings.TrimSpace(*reqData.Status))
		}
		reqData.CashNumbers = trimAll(reqData.CashNumbers)

		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}

		reqData.Image = shared.FormAsset(c, "image", reqData.ImageURL)
		if reqData.RemoveImage && !reqData.Image.IsEmpty() {
			return middleware.ValidationErrorResponse(c, map[string]string{"removeImage": "removeImage cannot be combined with a new image"})
		}

		c.Locals("validatedCourseUpdate", reqData)
		return c.Next()
	}
}

// CourseStatus validates a status change
func CourseStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseStatusRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Status = strings.ToUpper(strings.TrimSpace(reqData.Status))
		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedCourseStatus", reqData)
		return c.Next()
	}
}

// ListCourses validates the course list filters
func ListCourses() fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := new(CourseListFilter)
		errors := make(map[string]string)

		var ok bool
		if filter.LevelID, ok = shared.QueryUint(c, "levelId"); !ok {
			errors["levelId"] = "levelId must be a positive integer"
		}
		if filter.TeacherID, ok = shared.QueryUint(c, "teacherId"); !ok {
			errors["teacherId"] = "teacherId must be a positive integer"
		}
		filter.Status = strings.ToUpper(strings.TrimSpace(c.Query("status")))
		if filter.Status != "" {
			valid := map[string]bool{"DRAFT": true, "ACTIVE": true, "INACTIVE": true}
			if !valid[filter.Status] {
				errors["status"] = "status must be DRAFT, ACTIVE or INACTIVE"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseFilter", filter)
		return c.Next()
	}
}
