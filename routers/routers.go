package routers

import (
	"lms/routers/academicRoutes"
	"lms/routers/authRoutes"
	"lms/routers/courseRoutes"
	"lms/routers/userRoutes"

	"github.com/gofiber/fiber/v2"
)

// Setup mounts every route group on app.
func Setup(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": true, "message": "ok", "data": nil})
	})

	authRoutes.SetupAuthRoutes(app)
	academicRoutes.SetupAcademicRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app)
	userRoutes.SetupUserRoutes(app)
}
