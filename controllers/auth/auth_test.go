package authController_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"lms/middleware"
	"lms/models"
	"lms/testutil"
	"lms/testutil/apitest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(c *apitest.Client, email, password, device string) (*http.Response, apitest.Envelope) {
	return c.JSON(http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password, "deviceId": device,
	})
}

func TestLoginSetsSessionCookie(t *testing.T) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	admin := testutil.SeedUser(t, db, models.RoleAdmin, "admin@example.com")

	client := apitest.NewClient(t, app)
	resp, env := login(client, "  ADMIN@example.com ", testutil.Password, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	require.NotNil(t, client.Cookie)

	var setCookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookie {
			setCookie = ck
		}
	}
	require.NotNil(t, setCookie)
	assert.True(t, setCookie.HttpOnly)

	resp, env = client.JSON(http.MethodGet, "/auth/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me map[string]interface{}
	env.Decode(t, &me)
	assert.Equal(t, "admin@example.com", me["email"])
	assert.NotContains(t, me, "password")
	assert.NotContains(t, me, "Password")

	var stored models.User
	require.NoError(t, db.First(&stored, admin.ID).Error)
	assert.NotNil(t, stored.LastLogin)
	assert.Empty(t, stored.DeviceID, "staff accounts are not device bound")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	testutil.SeedUser(t, db, models.RoleAdmin, "admin@example.com")
	client := apitest.NewClient(t, app)

	resp, env := login(client, "admin@example.com", "wrong-password", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials!", env.Message)

	resp, env = login(client, "nobody@example.com", testutil.Password, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials!", env.Message)

	resp, _ = login(client, "not-an-email", testutil.Password, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Nil(t, client.Cookie)
}

func TestLoginRejectsBannedUser(t *testing.T) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	teacher := testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")
	require.NoError(t, db.Model(teacher).Updates(map[string]interface{}{"is_banned": true, "ban_reason": "Unpaid fees"}).Error)

	resp, env := login(apitest.NewClient(t, app), "t@example.com", testutil.Password, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, env.Message, "Unpaid fees")
}

func TestStudentDeviceBinding(t *testing.T) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	student := testutil.SeedUser(t, db, models.RoleUser, "s@example.com")
	client := apitest.NewClient(t, app)

	resp, env := login(client, "s@example.com", testutil.Password, "")
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	var errs map[string]string
	env.Decode(t, &errs)
	assert.Contains(t, errs, "deviceId")

	resp, _ = login(client, "s@example.com", testutil.Password, "phone-1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, db.First(&stored, student.ID).Error)
	assert.Equal(t, "phone-1", stored.DeviceID)
	assert.NotNil(t, stored.DeviceBoundAt)

	resp, _ = login(client, "s@example.com", testutil.Password, "phone-1")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = login(client, "s@example.com", testutil.Password, "phone-2")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// the header is accepted when the body has no deviceId
	headerClient := apitest.NewClient(t, app)
	headerClient.Header["X-Device-Id"] = "phone-1"
	resp, _ = login(headerClient, "s@example.com", testutil.Password, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestConcurrentFirstLoginsBindOneDevice(t *testing.T) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	devices := []string{"device-A", "device-B"}

	for round := 0; round < 5; round++ {
		email := fmt.Sprintf("s%d@example.com", round)
		student := testutil.SeedUser(t, db, models.RoleUser, email)

		codes := make([]int, len(devices))
		var wg sync.WaitGroup
		for i, device := range devices {
			wg.Add(1)
			go func(i int, device string) {
				defer wg.Done()
				body := fmt.Sprintf(`{"email":%q,"password":%q,"deviceId":%q}`, email, testutil.Password, device)
				req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
				req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				if resp, err := app.Test(req, -1); err == nil {
					codes[i] = resp.StatusCode
				}
			}(i, device)
		}
		wg.Wait()

		var stored models.User
		require.NoError(t, db.First(&stored, student.ID).Error)
		winners := 0
		for i, code := range codes {
			if code == fiber.StatusOK {
				winners++
				assert.Equal(t, devices[i], stored.DeviceID)
			} else {
				assert.Equal(t, fiber.StatusForbidden, code, "round %d", round)
			}
		}
		assert.Equal(t, 1, winners, "round %d: %v", round, codes)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")

	client := apitest.Login(t, app, "t@example.com")
	resp, _ := client.JSON(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, client.Cookie)

	resp, _ = client.JSON(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	db := testutil.SetupDB(t)
	app := apitest.NewApp()
	testutil.SeedUser(t, db, models.RoleTeacher, "t@example.com")
	client := apitest.Login(t, app, "t@example.com")
	other := apitest.Login(t, app, "t@example.com")

	resp, _ := client.JSON(http.MethodPut, "/auth/change/password", map[string]string{
		"currentPassword": "wrong-one", "newPassword": "brand-new-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = client.JSON(http.MethodPut, "/auth/change/password", map[string]string{
		"currentPassword": testutil.Password, "newPassword": testutil.Password,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, env := client.JSON(http.MethodPut, "/auth/change/password", map[string]string{
		"currentPassword": testutil.Password, "newPassword": "brand-new-pass",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	// the session that changed the password is renewed, every other one is revoked
	resp, _ = client.JSON(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, env = other.JSON(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Session has been revoked!", env.Message)

	resp, _ = login(apitest.NewClient(t, app), "t@example.com", "brand-new-pass", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = login(apitest.NewClient(t, app), "t@example.com", testutil.Password, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
