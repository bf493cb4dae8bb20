package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/config"
	"lms/database"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const SessionCookie = "session"

// SessionClaims is the payload of the session token.
type SessionClaims struct {
	UserID  uint   `json:"userId"`
	Role    string `json:"role"`
	Version uint   `json:"ver"`
	jwt.RegisteredClaims
}

// RevokeSessions is an update value for session_version that invalidates every
// session issued before it.
var RevokeSessions = gorm.Expr("session_version + 1")

// GenerateSession signs a session token for the user
func GenerateSession(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(time.Duration(config.AppConfig.SessionTTLHours) * time.Hour)

	claims := SessionClaims{
		UserID:  user.ID,
		Role:    user.Role,
		Version: user.SessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.AppConfig.JWTKey))
	return signed, expires, err
}

// ParseSession validates a session token and returns its claims.
func ParseSession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token payload")
	}
	return claims, nil
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   config.AppConfig.CookieDomain,
		Expires:  expires,
		Secure:   config.AppConfig.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   config.AppConfig.CookieDomain,
		Expires:  time.Unix(0, 0),
		Secure:   config.AppConfig.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

// SessionMiddleware authenticates the request from the session cookie (or a Bearer token)
// and loads the current user. Banned users are rejected on every request.
func SessionMiddleware(c *fiber.Ctx) error {
	tokenString := sessionToken(c)
	if tokenString == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Not authenticated!", nil)
	}

	claims, err := ParseSession(tokenString)
	if err != nil {
		ClearSessionCookie(c)
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired session!", nil)
	}

	var user models.User
	if err := database.Database.Db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ClearSessionCookie(c)
			return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}
		return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while loading session!", nil)
	}

	if user.IsBanned {
		ClearSessionCookie(c)
		return JsonResponse(c, fiber.StatusForbidden, false, "Your account is banned: "+user.BanReason, nil)
	}

	if claims.Version != user.SessionVersion {
		ClearSessionCookie(c)
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Session has been revoked!", nil)
	}

	c.Locals("userId", user.ID)
	c.Locals("user", &user)
	return c.Next()
}

// CurrentUser returns the user loaded by SessionMiddleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
