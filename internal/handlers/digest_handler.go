package handlers

import (
	"net/http"
	"time"

	"adboard/internal/services"
	"adboard/internal/tasks"
	"adboard/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type DigestHandler struct {
	db     *gorm.DB
	client *tasks.TaskClient
	mailer services.Mailer
	log    *logger.Logger
}

// NewDigestHandler wires the manual digest trigger. The task client may
// be nil when redis is not available; the digest then runs inline.
func NewDigestHandler(db *gorm.DB, client *tasks.TaskClient, mailer services.Mailer) *DigestHandler {
	return &DigestHandler{
		db:     db,
		client: client,
		mailer: mailer,
		log:    logger.New("DigestHandler"),
	}
}

// TriggerDigest runs the expiring-ads digest outside its weekly schedule
// @Summary Trigger digest
// @Description Queue an immediate digest run (requires admin role)
// @Tags digest
// @Produce json
// @Success 200 {object} services.DigestResult "Inline run summary"
// @Success 202 {object} map[string]string "Digest queued"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /digest/run [post]
func (h *DigestHandler) TriggerDigest(c echo.Context) error {
	if h.client != nil {
		if err := h.client.EnqueueWeeklyDigest(); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to queue digest"})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"message": "Digest queued"})
	}

	result, err := services.RunDigest(h.db, h.mailer, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Digest run failed"})
	}

	h.log.Success("Manual digest run: %d sent, %d skipped, %d failed",
		result.Sent, result.Skipped, result.Failed)

	return c.JSON(http.StatusOK, result)
}
