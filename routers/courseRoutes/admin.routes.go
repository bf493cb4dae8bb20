package courseRoutes

import (
	controllers "lms/controllers/course"
	dashboardControllers "lms/controllers/dashboard"
	"lms/middleware"
	"lms/models"
	validators "lms/validators/course"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up all course, chapter and lesson management routes
func SetupAdminCourseRoutes(app *fiber.App) {
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRole(models.RoleAdmin)

	courseID := shared.ParamID("id", "Course")
	chapterID := shared.ParamID("id", "Chapter")
	lessonID := shared.ParamID("id", "Lesson")

	// Course CRUD
	courseGroup := app.Group("/admin/courses", middleware.SessionMiddleware)
	courseGroup.Post("/", admin, validators.CreateCourse(), controllers.AdminCreateCourse)
	courseGroup.Get("/", staff, shared.List(), validators.ListCourses(), controllers.AdminListCourses)
	courseGroup.Get("/:id", staff, courseID, controllers.AdminGetCourseDetails)
	courseGroup.Put("/:id", staff, courseID, validators.UpdateCourse(), controllers.AdminUpdateCourse)
	courseGroup.Delete("/:id", admin, courseID, controllers.AdminDeleteCourse)
	courseGroup.Patch("/:id/status", admin, courseID, validators.CourseStatus(), controllers.AdminSetCourseStatus)

	// Chapters
	courseGroup.Get("/:id/chapters", staff, courseID, controllers.AdminListChapters)
	courseGroup.Post("/:id/chapters", staff, courseID, validators.Chapter(), controllers.AdminCreateChapter)
	courseGroup.Put("/:id/chapters/order", staff, courseID, validators.Order(), controllers.AdminReorderChapters)

	chapterGroup := app.Group("/admin/chapters", middleware.SessionMiddleware, staff)
	chapterGroup.Put("/:id", chapterID, validators.Chapter(), controllers.AdminUpdateChapter)
	chapterGroup.Delete("/:id", chapterID, controllers.AdminDeleteChapter)

	// Lessons
	chapterGroup.Get("/:id/lessons", chapterID, controllers.AdminListLessons)
	chapterGroup.Post("/:id/lessons", chapterID, validators.CreateLesson(), controllers.AdminCreateLesson)
	chapterGroup.Put("/:id/lessons/order", chapterID, validators.Order(), controllers.AdminReorderLessons)

	lessonGroup := app.Group("/admin/lessons", middleware.SessionMiddleware, staff)
	lessonGroup.Put("/:id", lessonID, validators.UpdateLesson(), controllers.AdminUpdateLesson)
	lessonGroup.Delete("/:id", lessonID, controllers.AdminDeleteLesson)
	lessonGroup.Patch("/:id/move", lessonID, validators.MoveLesson(), controllers.AdminMoveLesson)

	// Dashboard
	dashGroup := app.Group("/admin/dashboard", middleware.SessionMiddleware, admin)
	dashGroup.Get("/stats", dashboardControllers.AdminDashboardStats)
}
