package userValidator

import (
	"strings"

	"lms/middleware"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Phone    string `json:"phone" validate:"omitempty,eg_mobile"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=3,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,eg_mobile"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type BanRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// CreateUser validates teacher account creation
func CreateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateUserRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Name = strings.TrimSpace(reqData.Name)
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		reqData.Phone = strings.TrimSpace(reqData.Phone)

		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}

// UpdateUser validates a partial user update
func UpdateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateUserRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.Name != nil {
			*reqData.Name = strings.TrimSpace(*reqData.Name)
		}
		if reqData.Email != nil {
			*reqData.Email = strings.ToLower(strings.TrimSpace(*reqData.Email))
		}
		if reqData.Phone != nil {
			*reqData.Phone = strings.TrimSpace(*reqData.Phone)
		}

		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedUserUpdate", reqData)
		return c.Next()
	}
}

// Ban validates a ban request
func Ban() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(BanRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Reason = strings.TrimSpace(reqData.Reason)
		if errs := shared.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedBan", reqData)
		return c.Next()
	}
}
