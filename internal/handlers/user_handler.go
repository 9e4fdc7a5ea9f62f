package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"adboard/internal/api/middleware"
	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// maxAvatarSize caps avatar uploads at 5 MB
const maxAvatarSize = 5 << 20

type UserHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db, log: logger.New("UserHandler")}
}

type CreateUserRequest struct {
	Username    string            `json:"username" validate:"required,min=3"`
	Password    string            `json:"password" validate:"required,min=8"`
	DisplayName string            `json:"displayName" validate:"required"`
	Email       string            `json:"email" validate:"omitempty,email"`
	Role        models.UserRole   `json:"role" validate:"required,user_role"`
	Status      models.UserStatus `json:"status" validate:"omitempty,user_status"`
}

type UpdateUserRequest struct {
	DisplayName string            `json:"displayName"`
	Email       string            `json:"email" validate:"omitempty,email"`
	Role        models.UserRole   `json:"role" validate:"omitempty,user_role"`
	Status      models.UserStatus `json:"status" validate:"omitempty,user_status"`
	Password    string            `json:"password" validate:"omitempty,min=8"`
}

// ListUsers returns a list of all users (admin only)
// @Summary List all users
// @Description Get a list of all users (requires admin role)
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.db.Order("created_at desc").Find(&users).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch users"})
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser returns details of a specific user (admin only)
// @Summary Get user details
// @Description Get details of a specific user (requires admin role)
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id := c.Param("id")
	var user models.User
	if err := h.db.Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user"})
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser creates a user directly, skipping the approval flow (admin only)
// @Summary Create user
// @Description Create a user with an explicit role and status (requires admin role)
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User details"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Validation error or username exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to hash password"})
	}

	status := req.Status
	if status == "" {
		status = models.UserStatusActive
	}

	user := models.User{
		Username:    req.Username,
		Password:    string(hashedPassword),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
		Status:      status,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Username already taken"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"create", "user", user.ID, user.Username); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusCreated, user)
}

// UpdateUser updates a user's details (admin only)
// @Summary Update user details
// @Description Update role, status, email or display name of a user (requires admin role)
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Updated user details"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id := c.Param("id")
	var user models.User
	if err := h.db.Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user"})
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid input"})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	// The last admin cannot demote or disable itself
	if user.Role == models.UserRoleAdmin && user.ID == middleware.GetUserID(c) {
		demoted := req.Role != "" && req.Role != models.UserRoleAdmin
		disabled := req.Status != "" && req.Status != models.UserStatusActive
		if demoted || disabled {
			var admins int64
			h.db.Model(&models.User{}).
				Where("role = ? AND status = ?", models.UserRoleAdmin, models.UserStatusActive).
				Count(&admins)
			if admins <= 1 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot demote the last admin"})
			}
		}
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to hash password"})
		}
		user.Password = string(hashedPassword)
	}

	if err := h.db.Save(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update user"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"update", "user", user.ID, user.Username); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes a user (admin only)
// @Summary Delete user
// @Description Delete a specific user (requires admin role)
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string "User deleted successfully"
// @Failure 400 {object} map[string]string "Cannot delete own account"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")

	if id == middleware.GetUserID(c) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot delete own account"})
	}

	var user models.User
	if err := h.db.Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user"})
	}

	if err := h.db.Delete(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete user"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"delete", "user", user.ID, user.Username); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// UploadAvatar stores the current user's avatar image
// @Summary Upload avatar
// @Description Upload an avatar image for the current user
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} map[string]string "Avatar uploaded successfully"
// @Failure 400 {object} map[string]string "Validation error or file not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/me/avatar [post]
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	storage := GetStorageHandler()
	if storage == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Storage handler not configured",
		})
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file provided"})
	}

	if file.Size > maxAvatarSize {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("File too large, limit is %d bytes", maxAvatarSize),
		})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "File must be an image"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to open file"})
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read file"})
	}

	key, err := storage.UploadFile(c.Request().Context(), content, file.Filename,
		types.ObjectCannedACLPrivate, contentType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to upload file"})
	}

	userID := middleware.GetUserID(c)
	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("avatar_path", key).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save avatar"})
	}

	h.log.Success("Avatar uploaded for %s: %s", userID, key)

	return c.JSON(http.StatusOK, map[string]string{"message": "Avatar uploaded successfully"})
}
