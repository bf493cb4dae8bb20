package userController_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"lms/models"
	"lms/testutil"
	"lms/testutil/apitest"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	to, subject string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	done chan struct{}
}

func (m *recordingMailer) Send(to, _, subject, _ string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func useMailer(t *testing.T) *recordingMailer {
	m := &recordingMailer{done: make(chan struct{}, 10)}
	prev := utils.Mail
	utils.Mail = m
	t.Cleanup(func() { utils.Mail = prev })
	return m
}

func (m *recordingMailer) wait(t *testing.T) sentMail {
	t.Helper()
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func setup(t *testing.T) (*gorm.DB, *models.User, *apitest.Client, *fiber.App) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	admin := testutil.SeedUser(t, db, models.RoleAdmin, "admin@example.com")
	return db, admin, apitest.Login(t, app, "admin@example.com"), app
}

func path(format string, id uint) string { return fmt.Sprintf(format, id) }

func TestCreateTeacher(t *testing.T) {
	db, _, admin, app := setup(t)
	mail := useMailer(t)

	resp, env := admin.JSON(http.MethodPost, "/admin/teachers", map[string]string{
		"name":     "Mona Hassan",
		"email":    "Mona@Example.com",
		"phone":    "01012345678",
		"password": "secret-pass",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	var teacher models.User
	env.Decode(t, &teacher)
	assert.Equal(t, models.RoleTeacher, teacher.Role)
	assert.Equal(t, "mona@example.com", teacher.Email)

	sent := mail.wait(t)
	assert.Equal(t, "mona@example.com", sent.to)

	// the new teacher can sign in with the chosen password
	client := apitest.NewClient(t, app)
	resp, _ = client.JSON(http.MethodPost, "/auth/login", map[string]string{"email": "mona@example.com", "password": "secret-pass"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = admin.JSON(http.MethodPost, "/admin/teachers", map[string]string{
		"name": "Copy Cat", "email": "mona@example.com", "password": "secret-pass",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, env = admin.JSON(http.MethodPost, "/admin/teachers", map[string]string{
		"name": "Bad Phone", "email": "bad@example.com", "phone": "0201234567", "password": "secret-pass",
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	var errs map[string]string
	env.Decode(t, &errs)
	assert.Contains(t, errs, "phone")

	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleTeacher).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestListAndUpdateStudents(t *testing.T) {
	db, _, admin, _ := setup(t)
	student := testutil.SeedUser(t, db, models.RoleUser, "ali@example.com")
	testutil.SeedUser(t, db, models.RoleUser, "omar@example.com")
	testutil.SeedUser(t, db, models.RoleTeacher, "teacher@example.com")

	resp, env := admin.JSON(http.MethodGet, "/admin/students?search=ali", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page struct {
		Users      []models.User `json:"users"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	env.Decode(t, &page)
	require.Len(t, page.Users, 1)
	assert.Equal(t, student.ID, page.Users[0].ID)

	resp, env = admin.JSON(http.MethodGet, "/admin/students", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	env.Decode(t, &page)
	assert.EqualValues(t, 2, page.Pagination.Total)

	resp, env = admin.JSON(http.MethodPut, path("/admin/students/%d", student.ID), map[string]string{"name": "Ali Mahmoud"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	var updated models.User
	env.Decode(t, &updated)
	assert.Equal(t, "Ali Mahmoud", updated.Name)

	resp, _ = admin.JSON(http.MethodPut, path("/admin/students/%d", student.ID), map[string]string{"email": "omar@example.com"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// a teacher is not a student
	var teacher models.User
	require.NoError(t, db.Where("email = ?", "teacher@example.com").First(&teacher).Error)
	resp, _ = admin.JSON(http.MethodGet, path("/admin/students/%d", teacher.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteTeacherWithCourses(t *testing.T) {
	db, _, admin, _ := setup(t)
	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "busy@example.com")
	course := testutil.SeedCourse(t, db, testutil.SeedHierarchy(t, db).ID, teacher.ID, "Busy")

	resp, _ := admin.JSON(http.MethodDelete, path("/admin/teachers/%d", teacher.ID), nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	require.NoError(t, db.Delete(course).Error)
	resp, _ = admin.JSON(http.MethodDelete, path("/admin/teachers/%d", teacher.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	db.Unscoped().Model(&models.User{}).Where("email = ?", "busy@example.com").Count(&count)
	assert.Zero(t, count, "the email must be free for reuse")
}

func TestBanAndUnban(t *testing.T) {
	db, _, admin, app := setup(t)
	mail := useMailer(t)
	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")
	session := apitest.Login(t, app, "t@example.com")

	resp, _ := admin.JSON(http.MethodPatch, path("/admin/users/%d/ban", teacher.ID), map[string]string{"reason": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, env := admin.JSON(http.MethodPatch, path("/admin/users/%d/ban", teacher.ID), map[string]string{"reason": "Repeated complaints"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	assert.Equal(t, "t@example.com", mail.wait(t).to)

	var banned models.User
	require.NoError(t, db.First(&banned, teacher.ID).Error)
	assert.True(t, banned.IsBanned)
	assert.Equal(t, "Repeated complaints", banned.BanReason)
	assert.NotNil(t, banned.BannedAt)

	// the existing session stops working immediately
	resp, env = session.JSON(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, env.Message, "Repeated complaints")

	resp, _ = admin.JSON(http.MethodPatch, path("/admin/users/%d/unban", teacher.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	mail.wait(t)

	apitest.Login(t, app, "t@example.com")
}

func TestCannotBanOrDeleteAdmins(t *testing.T) {
	db, self, admin, _ := setup(t)
	other := testutil.SeedUser(t, db, models.RoleAdmin, "root@example.com")

	resp, _ := admin.JSON(http.MethodPatch, path("/admin/users/%d/ban", self.ID), map[string]string{"reason": "Testing myself"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = admin.JSON(http.MethodPatch, path("/admin/users/%d/ban", other.ID), map[string]string{"reason": "Coup attempt"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = admin.JSON(http.MethodDelete, path("/admin/teachers/%d", other.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = admin.JSON(http.MethodPatch, "/admin/users/999/ban", map[string]string{"reason": "Ghost user"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestResetDevice(t *testing.T) {
	db, _, admin, app := setup(t)
	student := testutil.SeedUser(t, db, models.RoleUser, "s@example.com")
	require.NoError(t, db.Model(student).Update("device_id", "old-phone").Error)

	client := apitest.NewClient(t, app)
	resp, _ := client.JSON(http.MethodPost, "/auth/login", map[string]string{
		"email": "s@example.com", "password": testutil.Password, "deviceId": "new-phone",
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = admin.JSON(http.MethodPatch, path("/admin/users/%d/device/reset", student.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = client.JSON(http.MethodPost, "/auth/login", map[string]string{
		"email": "s@example.com", "password": testutil.Password, "deviceId": "new-phone",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestResetDeviceRevokesSessions(t *testing.T) {
	db, _, admin, app := setup(t)
	student := testutil.SeedUser(t, db, models.RoleUser, "s@example.com")
	session := apitest.Login(t, app, "s@example.com")

	resp, _ := session.JSON(http.MethodGet, "/auth/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = admin.JSON(http.MethodPatch, path("/admin/users/%d/device/reset", student.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = session.JSON(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminPasswordResetRevokesSessions(t *testing.T) {
	db, _, admin, app := setup(t)
	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")
	session := apitest.Login(t, app, "t@example.com")

	resp, _ := admin.JSON(http.MethodPut, path("/admin/teachers/%d", teacher.ID), map[string]string{"name": "Renamed"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = session.JSON(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "profile edits keep sessions")

	resp, _ = admin.JSON(http.MethodPut, path("/admin/teachers/%d", teacher.ID), map[string]string{"password": "another-pass-1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = session.JSON(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUserAdminRequiresAdmin(t *testing.T) {
	db, _, _, app := setup(t)
	testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")
	teacher := apitest.Login(t, app, "t@example.com")

	resp, _ := teacher.JSON(http.MethodGet, "/admin/students", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = apitest.NewClient(t, app).JSON(http.MethodGet, "/admin/teachers", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
