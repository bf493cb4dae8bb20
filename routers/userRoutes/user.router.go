package userRoutes

import (
	userControllers "lms/controllers/userControllers"
	"lms/middleware"
	"lms/models"
	userValidators "lms/validators/user"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes mounts teacher and student administration. Admin only.
func SetupUserRoutes(app *fiber.App) {
	admin := middleware.RequireRole(models.RoleAdmin)

	teacherID := shared.ParamID("id", "Teacher")
	teacherGroup := app.Group("/admin/teachers", middleware.SessionMiddleware, admin)
	teacherGroup.Post("/", userValidators.CreateUser(), userControllers.CreateTeacher)
	teacherGroup.Get("/", shared.List(), userControllers.ListUsers(models.RoleTeacher))
	teacherGroup.Get("/:id", teacherID, userControllers.GetUser(models.RoleTeacher))
	teacherGroup.Put("/:id", teacherID, userValidators.UpdateUser(), userControllers.UpdateUser(models.RoleTeacher))
	teacherGroup.Delete("/:id", teacherID, userControllers.DeleteUser(models.RoleTeacher))

	studentID := shared.ParamID("id", "Student")
	studentGroup := app.Group("/admin/students", middleware.SessionMiddleware, admin)
	studentGroup.Get("/", shared.List(), userControllers.ListUsers(models.RoleUser))
	studentGroup.Get("/:id", studentID, userControllers.GetUser(models.RoleUser))
	studentGroup.Put("/:id", studentID, userValidators.UpdateUser(), userControllers.UpdateUser(models.RoleUser))
	studentGroup.Delete("/:id", studentID, userControllers.DeleteUser(models.RoleUser))

	userID := shared.ParamID("id", "User")
	userGroup := app.Group("/admin/users", middleware.SessionMiddleware, admin)
	userGroup.Patch("/:id/ban", userID, userValidators.Ban(), userControllers.BanUser)
	userGroup.Patch("/:id/unban", userID, userControllers.UnbanUser)
	userGroup.Patch("/:id/device/reset", userID, userControllers.ResetDevice)
}
