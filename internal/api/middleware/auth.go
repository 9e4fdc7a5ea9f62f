package middleware

import (
	"net/http"
	"strings"
	"time"

	"adboard/internal/db"
	"adboard/internal/models"
	"adboard/internal/utils"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
)

var log = logger.New("auth_middleware")

// SessionCookieName is the HTTP-only cookie carrying the session token
const SessionCookieName = "session"

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

func (m *AuthMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractToken(c)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing session token")
			}

			return m.validateSession(c, tokenString, next)
		}
	}
}

// extractToken accepts the session cookie or a bearer header
func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return ""
	}
	return tokenParts[1]
}

func (m *AuthMiddleware) validateSession(c echo.Context, tokenString string, next echo.HandlerFunc) error {
	claims, err := utils.ParseSessionToken(tokenString, m.jwtSecret)
	if err != nil {
		log.Error("Error parsing session token: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	// Validate expiration
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
	}

	// Verify user exists and may still authenticate
	user := &models.User{}
	if err := db.DB.Where("id = ?", claims.UserID).First(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	if !user.CanAuthenticate() {
		return echo.NewHTTPError(http.StatusUnauthorized, "Account is not active")
	}

	// Touch last-seen on every successful check
	now := time.Now()
	if err := db.DB.Model(user).UpdateColumn("last_seen_at", now).Error; err != nil {
		log.Warn("Failed to update last seen for %s: %v", user.Username, err)
	}

	// Set context values
	c.Set("userID", user.ID)
	c.Set("username", user.Username)
	c.Set("role", string(user.Role))

	return next(c)
}

// GetUserID Helper functions to get values from context
func GetUserID(c echo.Context) string {
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

func GetUsername(c echo.Context) string {
	if username, ok := c.Get("username").(string); ok {
		return username
	}
	return ""
}

func GetUserRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	return ""
}
