package tasks

import (
	"fmt"

	"adboard/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// defaultDigestSchedule runs Monday mornings when the configured spec
// does not parse
const defaultDigestSchedule = "0 8 * * 1"

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler      *asynq.Scheduler
	digestSchedule string
	logger         *logger.Logger
}

// NewScheduler creates a new task scheduler
func NewScheduler(redisAddr, username, password string, db int, digestSchedule string, logger *logger.Logger) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
		&asynq.SchedulerOpts{},
	)

	return &Scheduler{
		scheduler:      scheduler,
		digestSchedule: digestSchedule,
		logger:         logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Run()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

// registerTasks registers all periodic tasks
func (s *Scheduler) registerTasks() error {
	spec := s.digestSchedule
	if _, err := cron.ParseStandard(spec); err != nil {
		s.logger.Warn("Invalid digest schedule %q, using %q: %v", spec, defaultDigestSchedule, err)
		spec = defaultDigestSchedule
	}

	if err := s.RegisterCustomTask(spec, TaskTypeWeeklyDigest, nil,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(RetryMin),
		asynq.Timeout(TimeoutLong),
	); err != nil {
		return err
	}

	s.logger.Info("registered all periodic tasks")
	return nil
}

// RegisterCustomTask registers a custom periodic task
func (s *Scheduler) RegisterCustomTask(spec string, taskType string, payload []byte, opts ...asynq.Option) error {
	entryID, err := s.scheduler.Register(spec, asynq.NewTask(taskType, payload, opts...))
	if err != nil {
		return fmt.Errorf("failed to register custom task: %w", err)
	}

	s.logger.Info("registered custom task %s %s %s", taskType, spec, entryID)
	return nil
}
