package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/config"
	"lms/middleware"
	"lms/models"
	"lms/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/staff", middleware.SessionMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleTeacher), func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "ok", middleware.CurrentUser(c).Email)
	})
	return app
}

func requestWithCookie(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSessionRoundTrip(t *testing.T) {
	db := testutil.SetupDB(t)
	admin := testutil.SeedUser(t, db, models.RoleAdmin, "admin@example.com")

	token, expires, err := middleware.GenerateSession(admin)
	require.NoError(t, err)
	assert.False(t, expires.IsZero())

	claims, err := middleware.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	resp := requestWithCookie(t, newApp(), token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionAcceptsBearerHeader(t *testing.T) {
	db := testutil.SetupDB(t)
	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")
	token, _, err := middleware.GenerateSession(teacher)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newApp().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionRejections(t *testing.T) {
	db := testutil.SetupDB(t)
	app := newApp()

	assert.Equal(t, fiber.StatusUnauthorized, requestWithCookie(t, app, "").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, requestWithCookie(t, app, "garbage").StatusCode)

	student := testutil.SeedUser(t, db, models.RoleUser, "s@example.com")
	token, _, err := middleware.GenerateSession(student)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, requestWithCookie(t, app, token).StatusCode)

	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "banned@example.com")
	token, _, err = middleware.GenerateSession(teacher)
	require.NoError(t, err)
	require.NoError(t, db.Model(teacher).Updates(map[string]interface{}{"is_banned": true, "ban_reason": "spam"}).Error)
	assert.Equal(t, fiber.StatusForbidden, requestWithCookie(t, app, token).StatusCode)

	gone := testutil.SeedUser(t, db, models.RoleTeacher, "gone@example.com")
	token, _, err = middleware.GenerateSession(gone)
	require.NoError(t, err)
	require.NoError(t, db.Unscoped().Delete(gone).Error)
	assert.Equal(t, fiber.StatusUnauthorized, requestWithCookie(t, app, token).StatusCode)
}

func TestSessionRejectsRevokedVersion(t *testing.T) {
	db := testutil.SetupDB(t)
	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")
	token, _, err := middleware.GenerateSession(teacher)
	require.NoError(t, err)

	require.NoError(t, db.Model(teacher).Update("session_version", middleware.RevokeSessions).Error)
	assert.Equal(t, fiber.StatusUnauthorized, requestWithCookie(t, newApp(), token).StatusCode)

	require.NoError(t, db.First(teacher, teacher.ID).Error)
	assert.Equal(t, uint(1), teacher.SessionVersion)
	token, _, err = middleware.GenerateSession(teacher)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, requestWithCookie(t, newApp(), token).StatusCode)
}

func TestParseSessionRejectsOtherSecret(t *testing.T) {
	db := testutil.SetupDB(t)
	admin := testutil.SeedUser(t, db, models.RoleAdmin, "a@example.com")
	token, _, err := middleware.GenerateSession(admin)
	require.NoError(t, err)

	_, err = middleware.ParseSession(token + "x")
	assert.Error(t, err)

	config.AppConfig.JWTKey = "rotated"
	_, err = middleware.ParseSession(token)
	assert.Error(t, err)
}
