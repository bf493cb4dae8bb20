package userController

import (
	"errors"
	"strings"
	"time"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	userValidator "lms/validators/user"
	"lms/validators/shared"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func roleLabel(role string) string {
	if role == models.RoleTeacher {
		return "Teacher"
	}
	return "Student"
}

// findUser loads the user with id and role. It writes the error response itself.
func findUser(c *fiber.Ctx, db *gorm.DB, id uint, role string) (*models.User, error) {
	var user models.User
	q := db.Where("id = ?", id)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			label := "User"
			if role != "" {
				label = roleLabel(role)
			}
			return nil, fiber.NewError(fiber.StatusNotFound, label+" not found!")
		}
		return nil, err
	}
	return &user, nil
}

func emailTaken(db *gorm.DB, email string, excludeID uint) (bool, error) {
	var count int64
	q := db.Unscoped().Model(&models.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// guardTarget refuses ban/delete on the caller's own account and on other admins.
func guardTarget(c *fiber.Ctx, target *models.User) error {
	if current := middleware.CurrentUser(c); current != nil && current.ID == target.ID {
		return fiber.NewError(fiber.StatusForbidden, "You cannot perform this action on your own account!")
	}
	if target.Role == models.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "Admin accounts cannot be modified this way!")
	}
	return nil
}

// CreateTeacher creates a TEACHER account and sends the welcome email
func CreateTeacher(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*userValidator.CreateUserRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	taken, err := emailTaken(db, reqData.Email, 0)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create teacher!", nil)
	}
	if taken {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email already in use!", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
	}

	teacher := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Phone:    reqData.Phone,
		Role:     models.RoleTeacher,
		Password: string(hashed),
	}
	if err := db.Create(&teacher).Error; err != nil {
		logger.Log.Error("Error creating teacher", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create teacher!", nil)
	}

	utils.SendTeacherWelcomeEmail(&teacher)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Teacher created successfully!", teacher)
}

// ListUsers lists the accounts of one role. ?banned=true|false filters on the ban flag.
func ListUsers(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := shared.Query(c)

		q := database.Database.Db.Model(&models.User{}).Where("role = ?", role)
		if query.Search != "" {
			like := "%" + strings.ToLower(query.Search) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
		}
		switch strings.ToLower(c.Query("banned")) {
		case "true":
			q = q.Where("is_banned = ?", true)
		case "false":
			q = q.Where("is_banned = ?", false)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
		}

		var users []models.User
		if err := q.Order("created_at desc").Order("id desc").Offset(query.Offset()).Limit(query.Limit).Find(&users).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, roleLabel(role)+"s fetched successfully!", fiber.Map{
			"users": users,
			"pagination": fiber.Map{
				"total": total,
				"page":  query.Page,
				"limit": query.Limit,
			},
		})
	}
}

func GetUser(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := findUser(c, database.Database.Db, shared.ID(c, "id"), role)
		if err != nil {
			return middleware.ErrorHandler(c, err)
		}

		data := fiber.Map{"user": user}
		if role == models.RoleTeacher {
			var courses int64
			database.Database.Db.Model(&courseModels.Course{}).Where("teacher_id = ?", user.ID).Count(&courses)
			data["courseCount"] = courses
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, roleLabel(role)+" fetched successfully!", data)
	}
}

// UpdateUser applies a partial profile update to an account of role
func UpdateUser(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedUserUpdate").(*userValidator.UpdateUserRequest)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		db := database.Database.Db
		user, err := findUser(c, db, shared.ID(c, "id"), role)
		if err != nil {
			return middleware.ErrorHandler(c, err)
		}

		updates := map[string]interface{}{}
		if reqData.Name != nil {
			updates["name"] = *reqData.Name
		}
		if reqData.Phone != nil {
			updates["phone"] = *reqData.Phone
		}
		if reqData.Email != nil && *reqData.Email != user.Email {
			taken, err := emailTaken(db, *reqData.Email, user.ID)
			if err != nil {
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user!", nil)
			}
			if taken {
				return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email already in use!", nil)
			}
			updates["email"] = *reqData.Email
		}
		if reqData.Password != nil {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*reqData.Password), config.AppConfig.SaltRound)
			if err != nil {
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
			}
			updates["password"] = string(hashed)
			updates["session_version"] = middleware.RevokeSessions
		}

		if len(updates) > 0 {
			if err := db.Model(user).Updates(updates).Error; err != nil {
				logger.Log.Error("Error updating user", "userId", user.ID, "error", err)
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user!", nil)
			}
			if err := db.First(user, user.ID).Error; err != nil {
				logger.Log.Error("Error reloading user", "userId", user.ID, "error", err)
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch updated user!", nil)
			}
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, roleLabel(role)+" updated successfully!", user)
	}
}

// DeleteUser permanently removes an account of role. Teachers with courses are kept.
func DeleteUser(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := database.Database.Db
		user, err := findUser(c, db, shared.ID(c, "id"), role)
		if err != nil {
			return middleware.ErrorHandler(c, err)
		}
		if err := guardTarget(c, user); err != nil {
			return middleware.ErrorHandler(c, err)
		}

		if user.Role == models.RoleTeacher {
			var courses int64
			if err := db.Model(&courseModels.Course{}).Where("teacher_id = ?", user.ID).Count(&courses).Error; err != nil {
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete teacher!", nil)
			}
			if courses > 0 {
				return middleware.JsonResponse(c, fiber.StatusConflict, false, "Teacher is still assigned to courses! Reassign them first.", nil)
			}
		}

		if err := db.Unscoped().Delete(user).Error; err != nil {
			logger.Log.Error("Error deleting user", "userId", user.ID, "error", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete user!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, roleLabel(role)+" deleted successfully!", nil)
	}
}

// BanUser bans a non-admin account with a reason and notifies the user
func BanUser(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedBan").(*userValidator.BanRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	user, err := findUser(c, db, shared.ID(c, "id"), "")
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}
	if err := guardTarget(c, user); err != nil {
		return middleware.ErrorHandler(c, err)
	}

	now := time.Now()
	err = db.Model(user).Updates(map[string]interface{}{
		"is_banned":       true,
		"ban_reason":      reqData.Reason,
		"banned_at":       now,
		"session_version": middleware.RevokeSessions,
	}).Error
	if err != nil {
		logger.Log.Error("Error banning user", "userId", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to ban user!", nil)
	}

	user.IsBanned, user.BanReason, user.BannedAt = true, reqData.Reason, &now

	utils.SendBanEmail(user)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User banned successfully!", user)
}

func UnbanUser(c *fiber.Ctx) error {
	db := database.Database.Db
	user, err := findUser(c, db, shared.ID(c, "id"), "")
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}
	if err := guardTarget(c, user); err != nil {
		return middleware.ErrorHandler(c, err)
	}
	if !user.IsBanned {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "User is not banned!", user)
	}

	err = db.Model(user).Updates(map[string]interface{}{
		"is_banned":  false,
		"ban_reason": "",
		"banned_at":  nil,
	}).Error
	if err != nil {
		logger.Log.Error("Error unbanning user", "userId", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unban user!", nil)
	}

	user.IsBanned, user.BanReason, user.BannedAt = false, "", nil

	utils.SendUnbanEmail(user)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User unbanned successfully!", user)
}

// ResetDevice clears the device binding so the next login binds a new device
func ResetDevice(c *fiber.Ctx) error {
	db := database.Database.Db
	user, err := findUser(c, db, shared.ID(c, "id"), "")
	if err != nil {
		return middleware.ErrorHandler(c, err)
	}

	err = db.Model(user).Updates(map[string]interface{}{
		"device_id":       "",
		"device_bound_at": nil,
		"session_version": middleware.RevokeSessions,
	}).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset device!", nil)
	}
	user.DeviceID, user.DeviceBoundAt = "", nil

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Device binding reset successfully!", user)
}
