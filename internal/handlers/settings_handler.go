package handlers

import (
	"encoding/json"
	"net/http"

	"adboard/internal/api/middleware"
	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type SettingsHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db, log: logger.New("SettingsHandler")}
}

// ListSettings returns every system setting as a key-value map
// @Summary List settings
// @Description Get all system settings (requires admin role)
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings [get]
func (h *SettingsHandler) ListSettings(c echo.Context) error {
	var settings []models.SystemSetting
	if err := h.db.Find(&settings).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch settings"})
	}

	out := make(map[string]interface{}, len(settings))
	for _, s := range settings {
		var value interface{}
		if err := json.Unmarshal(s.Value, &value); err != nil {
			value = string(s.Value)
		}
		out[s.Key] = value
	}

	return c.JSON(http.StatusOK, out)
}

// GetSetting returns one setting by key
// @Summary Get setting
// @Description Get a single system setting (requires admin role)
// @Tags settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Setting not found"
// @Router /settings/{key} [get]
func (h *SettingsHandler) GetSetting(c echo.Context) error {
	key := c.Param("key")

	var value interface{}
	if err := models.GetSetting(h.db, key, &value); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Setting not found"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"key": key, "value": value})
}

// PutSetting upserts a setting with an arbitrary JSON value
// @Summary Update setting
// @Description Create or update a system setting (requires admin role)
// @Tags settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param value body object true "JSON value"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid value"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings/{key} [put]
func (h *SettingsHandler) PutSetting(c echo.Context) error {
	key := c.Param("key")

	var value interface{}
	if err := json.NewDecoder(c.Request().Body).Decode(&value); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Value must be valid JSON"})
	}

	if err := models.SetSetting(h.db, key, value); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save setting"})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"update", "setting", key, ""); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"key": key, "value": value})
}
