package handlers

import (
	"net/http"
	"time"

	"adboard/internal/api/middleware"
	"adboard/internal/events"
	"adboard/internal/models"
	"adboard/internal/utils"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db        *gorm.DB
	jwtSecret string
	log       *logger.Logger
}

func NewAuthHandler(db *gorm.DB, jwtSecret string) *AuthHandler {
	return &AuthHandler{db: db, jwtSecret: jwtSecret, log: logger.New("AuthHandler")}
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	InviteToken string `json:"inviteToken"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"new_password" validate:"required,min=8"`
}

// Register handles new account creation. With a valid invite token the
// account is active immediately and takes the invited role; without one
// it is created pending and an admin has to approve it.
// @Summary Register a new user
// @Description Register with username and password, optionally redeeming an invite token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} map[string]string "User registered successfully"
// @Failure 400 {object} map[string]string "Validation error or username exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var existing models.User
	if err := h.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Username already taken"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to hash password"})
	}

	user := models.User{
		Username:    req.Username,
		Password:    string(hashedPassword),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        models.UserRoleUser,
		Status:      models.UserStatusPending,
	}

	tx := h.db.Begin()
	if tx.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start transaction"})
	}

	var invite models.Invite
	invited := false
	if req.InviteToken != "" {
		// Single-use: a redeemed invite has used_at set and never matches again
		if err := tx.Where("token = ? AND used_at IS NULL AND expires_at > ?",
			req.InviteToken, time.Now()).First(&invite).Error; err != nil {
			tx.Rollback()
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or expired invite"})
		}
		invited = true

		user.Role = invite.Role
		user.Status = models.UserStatusActive
		if user.Email == "" {
			user.Email = invite.Email
		}

		now := time.Now()
		invite.UsedAt = &now
		if err := tx.Save(&invite).Error; err != nil {
			tx.Rollback()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to redeem invite"})
		}
	} else {
		token, err := utils.GenerateRandomString(32)
		if err != nil {
			tx.Rollback()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate approval token"})
		}
		user.ApprovalToken = token
	}

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Username already taken"})
	}

	if err := tx.Commit().Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to commit transaction"})
	}

	if invited {
		events.Emit("users.created", &user)
		return c.JSON(http.StatusCreated, map[string]string{"message": "User registered successfully"})
	}

	events.Emit("users.registered", &user)
	return c.JSON(http.StatusCreated, map[string]string{"message": "Registration received, awaiting approval"})
}

// Login authenticates a user and opens a 7-day session. The token is
// set as an HTTP-only cookie and also returned in the body for API
// clients using bearer auth.
// @Summary Login user
// @Description Authenticate user and return the session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]string "Session token"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Invalid credentials or inactive account"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var user models.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}

	if !user.CanAuthenticate() {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Account is not active"})
	}

	token, err := utils.GenerateSessionToken(user, h.jwtSecret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate token"})
	}

	now := time.Now()
	if err := h.db.Model(&user).UpdateColumn("last_seen_at", now).Error; err != nil {
		h.log.Warn("Failed to update last seen for %s: %v", user.Username, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(utils.SessionDuration),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if err := models.LogActivity(h.db, user.ID, user.Username, "login", "user", user.ID, ""); err != nil {
		h.log.Warn("Failed to log login activity: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// Logout clears the session cookie. Tokens are not revoked server-side;
// an API client simply stops sending its bearer token.
// @Summary Logout user
// @Description Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if userID := middleware.GetUserID(c); userID != "" {
		if err := models.LogActivity(h.db, userID, middleware.GetUsername(c), "logout", "user", userID, ""); err != nil {
			h.log.Warn("Failed to log logout activity: %v", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// Approve activates a pending account via the token mailed to admins
// @Summary Approve a pending registration
// @Description Activate a pending account using its approval token
// @Tags auth
// @Produce json
// @Param token path string true "Approval token"
// @Success 200 {object} map[string]string "Account activated"
// @Failure 400 {object} map[string]string "Invalid approval token"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/approve/{token} [get]
func (h *AuthHandler) Approve(c echo.Context) error {
	token := c.Param("token")

	var user models.User
	if err := h.db.Where("approval_token = ? AND status = ?",
		token, models.UserStatusPending).First(&user).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid approval token"})
	}

	user.Status = models.UserStatusActive
	user.ApprovalToken = ""
	if err := h.db.Save(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to activate account"})
	}

	if err := models.LogActivity(h.db, user.ID, user.Username, "approve", "user", user.ID, ""); err != nil {
		h.log.Warn("Failed to log approval activity: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Account activated"})
}

// RequestPasswordReset issues a 15-minute reset token and mails it.
// The response never reveals whether the email exists.
// @Summary Request password reset
// @Description Request a password reset link to be sent via email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Email for password reset"
// @Success 200 {object} map[string]string "Reset link sent if email exists"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	accepted := map[string]string{"message": "If the email exists, a reset link will be sent"}

	var user models.User
	if err := h.db.Where("email = ? AND email <> ''", req.Email).First(&user).Error; err != nil {
		return c.JSON(http.StatusOK, accepted)
	}

	token, err := utils.GenerateRandomString(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate reset token"})
	}

	expiresAt := time.Now().Add(15 * time.Minute)
	user.ResetToken = token
	user.ResetTokenExpiresAt = &expiresAt
	if err := h.db.Save(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store reset token"})
	}

	events.Emit("password.reset", &user)

	return c.JSON(http.StatusOK, accepted)
}

// ConfirmPasswordReset verifies a reset token and sets the new password
// @Summary Confirm password reset
// @Description Verify the reset token and update the password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ConfirmResetRequest true "Reset token and new password"
// @Success 200 {object} map[string]string "Password reset successful"
// @Failure 400 {object} map[string]string "Invalid or expired reset token"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/password-reset/verify [post]
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req ConfirmResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var user models.User
	if err := h.db.Where("reset_token = ? AND reset_token_expires_at > ?",
		req.Token, time.Now()).First(&user).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or expired reset token"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to hash password"})
	}

	updates := map[string]interface{}{
		"password":               string(hashedPassword),
		"reset_token":            "",
		"reset_token_expires_at": nil,
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update password"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

// GetMe returns the current user
// @Summary Get current user
// @Description Get details of the current authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User not found"
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	return c.JSON(http.StatusOK, user)
}
