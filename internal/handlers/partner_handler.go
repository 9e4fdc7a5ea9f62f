package handlers

import (
	"fmt"
	"net/http"

	"adboard/internal/api/middleware"
	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type PartnerHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPartnerHandler(db *gorm.DB) *PartnerHandler {
	return &PartnerHandler{db: db, log: logger.New("PartnerHandler")}
}

type PartnerRequest struct {
	Name   string `json:"name" validate:"required,min=2"`
	Office string `json:"office"`
}

// ListPartners returns all partners with their ads
// @Summary List partners
// @Description Get all partners ordered by name
// @Tags partners
// @Produce json
// @Success 200 {array} models.Partner
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /partners [get]
func (h *PartnerHandler) ListPartners(c echo.Context) error {
	var partners []models.Partner
	if err := h.db.Order("name asc, office asc").Find(&partners).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch partners"})
	}
	return c.JSON(http.StatusOK, partners)
}

// GetPartner returns a partner with its ads
// @Summary Get partner
// @Description Get a partner and its ads
// @Tags partners
// @Produce json
// @Param id path string true "Partner ID"
// @Success 200 {object} models.Partner
// @Failure 404 {object} map[string]string "Partner not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /partners/{id} [get]
func (h *PartnerHandler) GetPartner(c echo.Context) error {
	id := c.Param("id")
	var partner models.Partner
	if err := h.db.Where("id = ?", id).Preload("Ads").First(&partner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Partner not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch partner"})
	}
	return c.JSON(http.StatusOK, partner)
}

// CreatePartner creates a partner, rejecting an existing (name, office) pair
// @Summary Create partner
// @Description Create a partner with a unique (name, office) pair
// @Tags partners
// @Accept json
// @Produce json
// @Param request body PartnerRequest true "Partner details"
// @Success 201 {object} models.Partner
// @Failure 400 {object} map[string]string "Validation error or duplicate"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /partners [post]
func (h *PartnerHandler) CreatePartner(c echo.Context) error {
	var req PartnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if _, err := models.GetPartnerByNameOffice(h.db, req.Name, req.Office); err == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Partner already exists"})
	}

	partner := models.Partner{
		Name:   req.Name,
		Office: req.Office,
		UserID: middleware.GetUserID(c),
	}

	if err := h.db.Create(&partner).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create partner"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"create", "partner", partner.ID, fmt.Sprintf("%s / %s", partner.Name, partner.Office)); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusCreated, partner)
}

// UpdatePartner updates a partner's name and office
// @Summary Update partner
// @Description Update a partner's details
// @Tags partners
// @Accept json
// @Produce json
// @Param id path string true "Partner ID"
// @Param request body PartnerRequest true "Updated partner details"
// @Success 200 {object} models.Partner
// @Failure 400 {object} map[string]string "Validation error or duplicate"
// @Failure 404 {object} map[string]string "Partner not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /partners/{id} [put]
func (h *PartnerHandler) UpdatePartner(c echo.Context) error {
	id := c.Param("id")
	var partner models.Partner
	if err := h.db.Where("id = ?", id).First(&partner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Partner not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch partner"})
	}

	var req PartnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if existing, err := models.GetPartnerByNameOffice(h.db, req.Name, req.Office); err == nil && existing.ID != partner.ID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Partner already exists"})
	}

	partner.Name = req.Name
	partner.Office = req.Office

	if err := h.db.Save(&partner).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update partner"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"update", "partner", partner.ID, fmt.Sprintf("%s / %s", partner.Name, partner.Office)); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, partner)
}

// DeletePartner deletes a partner and all of its ads
// @Summary Delete partner
// @Description Delete a partner; its ads are removed with it
// @Tags partners
// @Produce json
// @Param id path string true "Partner ID"
// @Success 200 {object} map[string]string "Partner deleted successfully"
// @Failure 404 {object} map[string]string "Partner not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /partners/{id} [delete]
func (h *PartnerHandler) DeletePartner(c echo.Context) error {
	id := c.Param("id")
	var partner models.Partner
	if err := h.db.Where("id = ?", id).First(&partner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Partner not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch partner"})
	}

	tx := h.db.Begin()
	if tx.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start transaction"})
	}

	// Explicit delete keeps the cascade working on sqlite, where
	// foreign keys may be off
	if err := tx.Where("partner_id = ?", partner.ID).Delete(&models.Ad{}).Error; err != nil {
		tx.Rollback()
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete partner ads"})
	}

	if err := tx.Delete(&partner).Error; err != nil {
		tx.Rollback()
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete partner"})
	}

	if err := tx.Commit().Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to commit transaction"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"delete", "partner", partner.ID, fmt.Sprintf("%s / %s", partner.Name, partner.Office)); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Partner deleted successfully"})
}
