package handlers

import (
	"net/http"
	"time"

	"adboard/internal/models"
	"adboard/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type StatsHandler struct {
	db *gorm.DB
}

func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

type StatsResponse struct {
	Partners     int64            `json:"partners"`
	Users        int64            `json:"users"`
	Ads          int64            `json:"ads"`
	AdsByStatus  map[string]int64 `json:"adsByStatus"`
	ExpiringSoon int64            `json:"expiringSoon"`
}

// GetStats returns dashboard counters. Ad counts per status are
// derived from the date windows at request time.
// @Summary Dashboard statistics
// @Description Get entity counts and derived ad status breakdown
// @Tags stats
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /stats [get]
func (h *StatsHandler) GetStats(c echo.Context) error {
	now := time.Now()
	resp := StatsResponse{AdsByStatus: map[string]int64{
		string(models.AdStatusPlanned): 0,
		string(models.AdStatusActive):  0,
		string(models.AdStatusClosed):  0,
	}}

	if err := h.db.Model(&models.Partner{}).Count(&resp.Partners).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to count partners"})
	}
	if err := h.db.Model(&models.User{}).Count(&resp.Users).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to count users"})
	}

	var ads []models.Ad
	if err := h.db.Find(&ads).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ads"})
	}

	resp.Ads = int64(len(ads))
	windowEnd := now.Add(services.DigestWindow)
	for _, ad := range ads {
		status := ad.StatusAt(now)
		resp.AdsByStatus[string(status)]++
		if status == models.AdStatusActive && !ad.EndDate.After(windowEnd) {
			resp.ExpiringSoon++
		}
	}

	return c.JSON(http.StatusOK, resp)
}
