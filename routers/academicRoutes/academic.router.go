package academicRoutes

import (
	academicControllers "lms/controllers/academic"
	"lms/middleware"
	"lms/models"
	academicValidators "lms/validators/academic"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
)

type node interface {
	Label() string
	ParentKey() string
	Create(c *fiber.Ctx) error
	List(c *fiber.Ctx) error
	Get(c *fiber.Ctx) error
	Update(c *fiber.Ctx) error
	Delete(c *fiber.Ctx) error
}

// SetupAcademicRoutes mounts the university → college → department → level CRUD.
// Reads are open to staff, writes to admins.
func SetupAcademicRoutes(app *fiber.App) {
	mount(app, "/admin/universities", academicControllers.University)
	mount(app, "/admin/colleges", academicControllers.College)
	mount(app, "/admin/departments", academicControllers.Department)
	mount(app, "/admin/levels", academicControllers.Level)
}

func mount(app *fiber.App, prefix string, n node) {
	read := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher)
	write := middleware.RequireRole(models.RoleAdmin)
	id := shared.ParamID("id", n.Label())

	group := app.Group(prefix, middleware.SessionMiddleware)

	group.Post("/", write, academicValidators.Node(n.ParentKey(), true), n.Create)
	group.Get("/", read, shared.List(), n.List)
	group.Get("/:id", read, id, n.Get)
	group.Put("/:id", write, id, academicValidators.Node(n.ParentKey(), false), n.Update)
	group.Delete("/:id", write, id, n.Delete)
}
