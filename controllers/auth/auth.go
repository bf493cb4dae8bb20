package authController

import (
	"errors"
	"time"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Login checks the credentials, enforces ban and device binding, and sets the session cookie.
func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while logging in!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if user.IsBanned {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your account is banned: "+user.BanReason, nil)
	}

	now := time.Now()
	updates := map[string]interface{}{"last_login": now}
	query := db.Model(&models.User{}).Where("id = ?", user.ID)

	// Students are bound to the first device they log in from. The binding is a
	// conditional update so two first logins from different devices cannot both win.
	if user.Role == models.RoleUser {
		if reqData.DeviceID == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{"deviceId": "deviceId is required"})
		}
		if user.DeviceID != "" && user.DeviceID != reqData.DeviceID {
			return errDeviceMismatch(c)
		}
		if user.DeviceID == "" {
			updates["device_id"] = reqData.DeviceID
			updates["device_bound_at"] = now
		}
		query = query.Where("device_id = '' OR device_id IS NULL OR device_id = ?", reqData.DeviceID)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		logger.Log.Error("Error saving login", "userId", user.ID, "error", result.Error)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while logging in!", nil)
	}
	if user.Role == models.RoleUser && result.RowsAffected == 0 {
		return errDeviceMismatch(c)
	}

	user.LastLogin = &now
	if deviceID, ok := updates["device_id"].(string); ok {
		user.DeviceID, user.DeviceBoundAt = deviceID, &now
	}

	token, expires, err := middleware.GenerateSession(&user)
	if err != nil {
		logger.Log.Error("Error signing session", "userId", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create session!", nil)
	}
	middleware.SetSessionCookie(c, token, expires)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful!", fiber.Map{
		"user":      user,
		"expiresAt": expires,
	})
}

func errDeviceMismatch(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This account is already bound to another device!", nil)
}

func Logout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out successfully!", nil)
}

// Me returns the authenticated user
func Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", user)
}

func ChangePassword(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedPasswordChange").(*authValidator.ChangePasswordRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.CurrentPassword)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Current password is incorrect!", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
	}

	db := database.Database.Db
	err = db.Model(user).Updates(map[string]interface{}{
		"password":        string(hashed),
		"session_version": middleware.RevokeSessions,
	}).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change password!", nil)
	}

	// Other sessions are revoked; this one gets a fresh token.
	if err := db.First(user, user.ID).Error; err != nil {
		logger.Log.Error("Error reloading user after password change", "userId", user.ID, "error", err)
		middleware.ClearSessionCookie(c)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully! Please log in again.", nil)
	}
	token, expires, err := middleware.GenerateSession(user)
	if err != nil {
		middleware.ClearSessionCookie(c)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully! Please log in again.", nil)
	}
	middleware.SetSessionCookie(c, token, expires)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully!", nil)
}
