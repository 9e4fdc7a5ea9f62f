package handlers

import (
	"fmt"
	"net/http"
	"time"

	"adboard/internal/api/middleware"
	"adboard/internal/models"
	"adboard/internal/services"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// maxImportSize caps workbook uploads at 10 MB
const maxImportSize = 10 << 20

type WorkbookHandler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkbookHandler(db *gorm.DB) *WorkbookHandler {
	return &WorkbookHandler{db: db, log: logger.New("WorkbookHandler")}
}

// ExportAds streams the full ad list as an xlsx workbook
// @Summary Export ads
// @Description Download every ad as an xlsx workbook
// @Tags workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads/export [get]
func (h *WorkbookHandler) ExportAds(c echo.Context) error {
	var ads []models.Ad
	if err := h.db.Preload("Partner").Order("end_date asc").Find(&ads).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ads"})
	}

	now := time.Now()
	f, err := services.ExportAds(ads, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to build workbook"})
	}
	defer f.Close()

	filename := fmt.Sprintf("hirdetesek-%s.xlsx", now.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)

	if err := f.Write(c.Response()); err != nil {
		return h.log.Error("Failed to stream workbook", err)
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"export", "ad", "", fmt.Sprintf("%d ads", len(ads))); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return nil
}

// ImportAds ingests an uploaded workbook and returns the import summary
// @Summary Import ads
// @Description Upload an xlsx workbook; rows are imported in one transaction with duplicate detection
// @Tags workbook
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook to import"
// @Success 200 {object} services.ImportSummary
// @Failure 400 {object} map[string]string "Invalid workbook"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /ads/import [post]
func (h *WorkbookHandler) ImportAds(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file provided"})
	}

	if file.Size > maxImportSize {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("File too large, limit is %d bytes", maxImportSize),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to open file"})
	}
	defer src.Close()

	summary, err := services.ImportAds(h.db, src, middleware.GetUserID(c))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := models.LogActivity(h.db, middleware.GetUserID(c), middleware.GetUsername(c),
		"import", "ad", "", fmt.Sprintf("%d imported, %d duplicates, %d skipped",
			summary.Imported, summary.Duplicates, summary.Skipped)); err != nil {
		h.log.Warn("Failed to log activity: %v", err)
	}

	return c.JSON(http.StatusOK, summary)
}
