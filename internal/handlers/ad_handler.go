package handlers

import (
	"fmt"
	"net/http"
	"time"

	"adboard/internal/api/middleware"
	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type AdHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdHandler(db *gorm.DB) *AdHandler {
	return &AdHandler{db: db, log: logger.New("AdHandler")}
}

type AdRequest struct {
	Position  string        `json:"position" validate:"required"`
	Content   string        `json:"content"`
	Type      models.AdType `json:"type" validate:"required,ad_type"`
	StartDate string        `json:"startDate" validate:"required"`
	EndDate   string        `json:"endDate" validate:"required"`
	PartnerID string        `json:"partnerId" validate:"required,uuid"`
}

// adDateLayouts accepts plain dates and full timestamps
var adDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseAdDate(value string) (time.Time, error) {
	for _, layout := range adDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", value)
}

// ListAds returns all ads with their partner and derived status. The
// optional status query filters on the derived value.
// @Summary List ads
// @Description Get all ads, optionally filtered by derived status or partner
// @Tags ads
// @Produce json
// @Param status query string false "Derived status filter (Tervezett, Aktív, Lezárt)"
// @Param partnerId query string false "Partner filter"
// @Success 200 {array} models.Ad
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads [get]
func (h *AdHandler) ListAds(c echo.Context) error {
	query := h.db.Preload("Partner").Order("end_date asc")

	if partnerID := c.QueryParam("partnerId"); partnerID != "" {
		query = query.Where("partner_id = ?", partnerID)
	}

	var ads []models.Ad
	if err := query.Find(&ads).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ads"})
	}

	// Status is derived, so the filter runs after the query
	if status := models.AdStatus(c.QueryParam("status")); status != "" {
		filtered := make([]models.Ad, 0, len(ads))
		for _, ad := range ads {
			if ad.Status == status {
				filtered = append(filtered, ad)
			}
		}
		ads = filtered
	}

	return c.JSON(http.StatusOK, ads)
}

// GetAd returns a single ad
// @Summary Get ad
// @Description Get an ad with its partner and derived status
// @Tags ads
// @Produce json
// @Param id path string true "Ad ID"
// @Success 200 {object} models.Ad
// @Failure 404 {object} map[string]string "Ad not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads/{id} [get]
func (h *AdHandler) GetAd(c echo.Context) error {
	id := c.Param("id")
	var ad models.Ad
	if err := h.db.Where("id = ?", id).Preload("Partner").First(&ad).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Ad not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ad"})
	}
	return c.JSON(http.StatusOK, ad)
}

// CreateAd creates an ad for an existing partner
// @Summary Create ad
// @Description Create an ad; status is derived from the date window
// @Tags ads
// @Accept json
// @Produce json
// @Param request body AdRequest true "Ad details"
// @Success 201 {object} models.Ad
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads [post]
func (h *AdHandler) CreateAd(c echo.Context) error {
	var req AdRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	start, err := parseAdDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start date"})
	}
	end, err := parseAdDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid end date"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End date must not precede start date"})
	}

	var partner models.Partner
	if err := h.db.Where("id = ?", req.PartnerID).First(&partner).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Partner not found"})
	}

	ad := models.Ad{
		Position:  req.Position,
		Content:   req.Content,
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
		Active:    true,
		PartnerID: partner.ID,
		UserID:    middleware.GetUserID(c),
	}

	if err := h.db.Create(&ad).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create ad"})
	}

	ad.Partner = &partner
	ad.Status = ad.StatusAt(time.Now())

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"create", "ad", ad.ID, ad.Position); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusCreated, ad)
}

// UpdateAd updates an ad's details
// @Summary Update ad
// @Description Update an ad; status is re-derived from the new window
// @Tags ads
// @Accept json
// @Produce json
// @Param id path string true "Ad ID"
// @Param request body AdRequest true "Updated ad details"
// @Success 200 {object} models.Ad
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Ad not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads/{id} [put]
func (h *AdHandler) UpdateAd(c echo.Context) error {
	id := c.Param("id")
	var ad models.Ad
	if err := h.db.Where("id = ?", id).Preload("Partner").First(&ad).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Ad not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ad"})
	}

	var req AdRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	start, err := parseAdDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start date"})
	}
	end, err := parseAdDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid end date"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End date must not precede start date"})
	}

	if req.PartnerID != ad.PartnerID {
		var partner models.Partner
		if err := h.db.Where("id = ?", req.PartnerID).First(&partner).Error; err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Partner not found"})
		}
		ad.PartnerID = partner.ID
		ad.Partner = &partner
	}

	ad.Position = req.Position
	ad.Content = req.Content
	ad.Type = req.Type
	ad.StartDate = start
	ad.EndDate = end

	if err := h.db.Omit("Partner").Save(&ad).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update ad"})
	}

	ad.Status = ad.StatusAt(time.Now())

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"update", "ad", ad.ID, ad.Position); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, ad)
}

// DeleteAd deletes an ad
// @Summary Delete ad
// @Description Delete a specific ad
// @Tags ads
// @Produce json
// @Param id path string true "Ad ID"
// @Success 200 {object} map[string]string "Ad deleted successfully"
// @Failure 404 {object} map[string]string "Ad not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads/{id} [delete]
func (h *AdHandler) DeleteAd(c echo.Context) error {
	id := c.Param("id")
	var ad models.Ad
	if err := h.db.Where("id = ?", id).First(&ad).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Ad not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ad"})
	}

	if err := h.db.Delete(&ad).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete ad"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"delete", "ad", ad.ID, ad.Position); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Ad deleted successfully"})
}
