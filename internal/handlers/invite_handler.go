package handlers

import (
	"net/http"
	"time"

	"adboard/internal/api/middleware"
	"adboard/internal/models"
	"adboard/internal/utils"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// InviteTTL is how long a fresh invite stays redeemable
const InviteTTL = 15 * time.Minute

type InviteHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInviteHandler(db *gorm.DB) *InviteHandler {
	return &InviteHandler{db: db, log: logger.New("InviteHandler")}
}

type InviteRequest struct {
	Email string          `json:"email" validate:"required,email"`
	Role  models.UserRole `json:"role" validate:"required,user_role"`
}

// CreateInvite issues a single-use invite valid for 15 minutes
// @Summary Create invite
// @Description Issue a single-use invite token mailed to the recipient (requires admin role)
// @Tags invites
// @Accept json
// @Produce json
// @Param request body InviteRequest true "Invite details"
// @Success 201 {object} models.Invite
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /invites [post]
func (h *InviteHandler) CreateInvite(c echo.Context) error {
	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	token, err := utils.GenerateRandomString(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate invite token"})
	}

	invite := models.Invite{
		Token:       token,
		Email:       req.Email,
		Role:        req.Role,
		CreatedByID: middleware.GetUserID(c),
		ExpiresAt:   time.Now().Add(InviteTTL),
	}

	if err := h.db.Create(&invite).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create invite"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"create", "invite", invite.ID, invite.Email); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusCreated, invite)
}

// ListInvites returns all invites, newest first
// @Summary List invites
// @Description Get all invites with their redemption state (requires admin role)
// @Tags invites
// @Produce json
// @Success 200 {array} models.Invite
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /invites [get]
func (h *InviteHandler) ListInvites(c echo.Context) error {
	var invites []models.Invite
	if err := h.db.Preload("CreatedBy").Order("created_at desc").Find(&invites).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch invites"})
	}
	return c.JSON(http.StatusOK, invites)
}

// DeleteInvite revokes an unredeemed invite
// @Summary Delete invite
// @Description Delete an invite so its token can no longer be redeemed (requires admin role)
// @Tags invites
// @Produce json
// @Param id path string true "Invite ID"
// @Success 200 {object} map[string]string "Invite deleted successfully"
// @Failure 404 {object} map[string]string "Invite not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /invites/{id} [delete]
func (h *InviteHandler) DeleteInvite(c echo.Context) error {
	id := c.Param("id")
	var invite models.Invite
	if err := h.db.Where("id = ?", id).First(&invite).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Invite not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch invite"})
	}

	if err := h.db.Delete(&invite).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete invite"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"delete", "invite", invite.ID, invite.Email); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Invite deleted successfully"})
}
