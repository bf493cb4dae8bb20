package dashboardController

import (
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Stats is the dashboard summary
type Stats struct {
	Universities    int64            `json:"universities"`
	Colleges        int64            `json:"colleges"`
	Departments     int64            `json:"departments"`
	Levels          int64            `json:"levels"`
	Courses         int64            `json:"courses"`
	CoursesByStatus map[string]int64 `json:"coursesByStatus"`
	Chapters        int64            `json:"chapters"`
	Lessons         int64            `json:"lessons"`
	Students        int64            `json:"students"`
	Teachers        int64            `json:"teachers"`
	BannedUsers     int64            `json:"bannedUsers"`
	PendingCleanups int64            `json:"pendingMediaCleanups"`
}

type statusCount struct {
	Status string
	Total  int64
}

// AdminDashboardStats counts every entity concurrently
func AdminDashboardStats(c *fiber.Ctx) error {
	db := database.Database.Db.WithContext(c.UserContext())
	stats := Stats{CoursesByStatus: map[string]int64{
		courseModels.StatusDraft:    0,
		courseModels.StatusActive:   0,
		courseModels.StatusInactive: 0,
	}}

	count := func(dst *int64, model interface{}, scope func(*gorm.DB) *gorm.DB) func() error {
		return func() error {
			q := db.Model(model)
			if scope != nil {
				q = scope(q)
			}
			return q.Count(dst).Error
		}
	}
	role := func(r string) func(*gorm.DB) *gorm.DB {
		return func(q *gorm.DB) *gorm.DB { return q.Where("role = ?", r) }
	}

	var g errgroup.Group
	g.Go(count(&stats.Universities, &models.University{}, nil))
	g.Go(count(&stats.Colleges, &models.College{}, nil))
	g.Go(count(&stats.Departments, &models.Department{}, nil))
	g.Go(count(&stats.Levels, &models.Level{}, nil))
	g.Go(count(&stats.Courses, &courseModels.Course{}, nil))
	g.Go(count(&stats.Chapters, &courseModels.Chapter{}, nil))
	g.Go(count(&stats.Lessons, &courseModels.Lesson{}, nil))
	g.Go(count(&stats.Students, &models.User{}, role(models.RoleUser)))
	g.Go(count(&stats.Teachers, &models.User{}, role(models.RoleTeacher)))
	g.Go(count(&stats.BannedUsers, &models.User{}, func(q *gorm.DB) *gorm.DB { return q.Where("is_banned = ?", true) }))
	g.Go(count(&stats.PendingCleanups, &models.MediaCleanup{}, nil))

	var byStatus []statusCount
	g.Go(func() error {
		return db.Model(&courseModels.Course{}).
			Select("status, COUNT(*) AS total").
			Group("status").
			Scan(&byStatus).Error
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error("Error computing dashboard stats", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard stats!", nil)
	}

	for _, row := range byStatus {
		stats.CoursesByStatus[row.Status] = row.Total
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", stats)
}
