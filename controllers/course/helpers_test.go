package controllers_test

import (
	"fmt"
	"testing"

	"lms/models"
	courseModels "lms/models/course"
	"lms/testutil"
	"lms/testutil/apitest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	store   *testutil.FakeStore
	app     *fiber.App
	level   *models.Level
	teacher *models.User
	admin   *apitest.Client
	tutor   *apitest.Client
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupDB(t)
	store := testutil.UseFakeStore(t)
	app := apitest.NewApp()

	testutil.SeedUser(t, db, models.RoleAdmin, "admin@example.com")
	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "teacher@example.com")

	return &fixture{
		db:      db,
		store:   store,
		app:     app,
		level:   testutil.SeedHierarchy(t, db),
		teacher: teacher,
		admin:   apitest.Login(t, app, "admin@example.com"),
		tutor:   apitest.Login(t, app, "teacher@example.com"),
	}
}

func (f *fixture) course(t *testing.T, title string) *courseModels.Course {
	return testutil.SeedCourse(t, f.db, f.level.ID, f.teacher.ID, title)
}

// withImage gives course a hosted image stored under key.
func (f *fixture) withImage(t *testing.T, course *courseModels.Course, key string) {
	url := f.store.Put(key)
	require.NoError(t, f.db.Model(course).Updates(map[string]interface{}{"image_url": url, "image_key": key}).Error)
	course.ImageURL, course.ImageKey = url, key
}

func (f *fixture) chapterTitles(t *testing.T, courseID uint) []string {
	var chapters []courseModels.Chapter
	require.NoError(t, f.db.Where("course_id = ?", courseID).Order("position").Find(&chapters).Error)
	out := make([]string, len(chapters))
	for i, ch := range chapters {
		require.Equal(t, i+1, ch.Position, "chapter positions must be contiguous")
		out[i] = ch.Title
	}
	return out
}

func (f *fixture) lessonTitles(t *testing.T, chapterID uint) []string {
	var lessons []courseModels.Lesson
	require.NoError(t, f.db.Where("chapter_id = ?", chapterID).Order("position").Find(&lessons).Error)
	out := make([]string, len(lessons))
	for i, l := range lessons {
		require.Equal(t, i+1, l.Position, "lesson positions must be contiguous")
		out[i] = l.Title
	}
	return out
}

func id(n uint) string { return fmt.Sprint(n) }
