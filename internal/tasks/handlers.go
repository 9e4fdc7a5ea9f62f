package tasks

import (
	"context"
	"encoding/json"
	"time"

	"adboard/internal/services"
	"adboard/internal/tasks/rate"
	"adboard/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// TaskHandler processes queued tasks
type TaskHandler struct {
	db          *gorm.DB
	logger      *logger.Logger
	mailer      services.Mailer
	mailLimiter *rate.QueueRateLimiter
}

// NewTaskHandler creates a new TaskHandler. The limiter may be nil
// when redis is not available (tests).
func NewTaskHandler(db *gorm.DB, mailer services.Mailer, mailLimiter *rate.QueueRateLimiter) *TaskHandler {
	return &TaskHandler{
		db:          db,
		logger:      logger.New("task_handler"),
		mailer:      mailer,
		mailLimiter: mailLimiter,
	}
}

// HandleWeeklyDigest runs the expiring-ads digest and logs its summary
func (h *TaskHandler) HandleWeeklyDigest(ctx context.Context, t *asynq.Task) error {
	h.logger.Info("Running weekly digest")

	mailer := h.mailer
	if h.mailLimiter != nil {
		mailer = &throttledMailer{
			inner:   h.mailer,
			limiter: h.mailLimiter,
			logger:  h.logger,
		}
	}

	result, err := services.RunDigest(h.db, mailer, time.Now())
	if err != nil {
		return err
	}

	summary, _ := json.Marshal(result)
	h.logger.Success("Weekly digest summary: %s", string(summary))

	if _, err := t.ResultWriter().Write(summary); err != nil {
		h.logger.Warn("Failed to record digest result: %v", err)
	}

	return nil
}

// throttledMailer waits for the sliding-window limiter before each send
type throttledMailer struct {
	inner   services.Mailer
	limiter *rate.QueueRateLimiter
	logger  *logger.Logger
}

func (m *throttledMailer) Send(to, subject, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), TimeoutShort)
	defer cancel()

	for {
		allowed, err := m.limiter.Allow(ctx, "digest")
		if err != nil {
			// Limiter trouble should not block the digest
			m.logger.Warn("Mail rate limiter unavailable: %v", err)
			break
		}
		if allowed {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}

	return m.inner.Send(to, subject, body)
}
