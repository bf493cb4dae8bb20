package courseValidator

import (
	"strings"

	"lms/middleware"
	"lms/storage"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
)

// ============ Chapter Validators ============

type ChapterRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// OrderRequest is the full new order of a sibling group, first to last.
type OrderRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,max=1000,dive,gt=0"`
}

// Chapter validates chapter create/update
func Chapter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ChapterRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedChapter", reqData)
		return c.Next()
	}
}

// Order validates a reorder request
func Order() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(OrderRequest)
		if ok, err := shared.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedOrder", reqData)
		return c.Next()
	}
}

// ============ Lesson Validators ============

type LessonRequest struct {
	Title         string `json:"title" form:"title" validate:"required,min=1,max=200"`
	Description   string `json:"description" form:"description" validate:"max=10000"`
	VideoURL      string `json:"videoUrl" form:"videoUrl" validate:"omitempty,http_url,max=2048"`
	AttachmentURL string `json:"attachmentUrl" form:"attachmentUrl" validate:"omitempty,http_url,max=2048"`

	Attachment storage.Asset `json:"-" form:"-"`
}

type LessonUpdateRequest struct {
	Title            *string `json:"title" form:"title" validate:"omitempty,min=1,max=200"`
	Description      *string `json:"description" form:"description" validate:"omitempty,max=10000"`
	VideoURL         *string `json:"videoUrl" form:"videoUrl" validate:"omitempty,http_url,max=2048"`
	AttachmentURL    string  `json:"attachmentUrl" form:"attachmentUrl" validate:"omitempty,http_url,max=2048"`
	RemoveAttachment bool    `json:"removeAttachment" form:"removeAttachment"`

	Attachment storage.Asset `json:"-" form:"-"`
}

type MoveLessonRequest struct {
	ChapterID uint `json:"chapterId" validate:"required"`
}

// CreateLesson validates lesson creation (JSON or multipart with an "attachment" file)
func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)
		reqData.VideoURL = strings.TrimSpace(reqData.VideoURL)
		reqData.AttachmentURL = strings.TrimSpace(reqData.AttachmentURL)

		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}

		reqData.Attachment = shared.FormAsset(c, "attachment", reqData.AttachmentURL)
		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

// UpdateLesson validates a partial lesson update
func UpdateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonUpdateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		trimPtr(reqData.Title)
		trimPtr(reqData.Description)
		trimPtr(reqData.VideoURL)
		reqData.AttachmentURL = strings.TrimSpace(reqData.AttachmentURL)

		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}

		reqData.Attachment = shared.FormAsset(c, "attachment", reqData.AttachmentURL)
		if reqData.RemoveAttachment && !reqData.Attachment.IsEmpty() {
			return middleware.ValidationErrorResponse(c, map[string]string{"removeAttachment": "removeAttachment cannot be combined with a new attachment"})
		}

		c.Locals("validatedLessonUpdate", reqData)
		return c.Next()
	}
}

// MoveLesson validates a lesson move
func MoveLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(MoveLessonRequest)
		if ok, err := shared.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedLessonMove", reqData)
		return c.Next()
	}
}
