package tasks

import (
	"adboard/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskClient handles task enqueuing
type TaskClient struct {
	client      *asynq.Client
	logger      *logger.Logger
	redisClient *redis.Client
}

func (c *TaskClient) GetClient() *asynq.Client {
	return c.client
}

// GetRedis exposes the raw redis client for the mail rate limiter
func (c *TaskClient) GetRedis() *redis.Client {
	return c.redisClient
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(redisAddr, username, password string, db int) *TaskClient {
	redisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Username: username,
		Password: password,
		DB:       db,
	}

	redisClient := redis.NewClient(
		&redis.Options{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
	)

	return &TaskClient{
		client:      asynq.NewClient(redisOpt),
		redisClient: redisClient,
		logger:      logger.New("TASKS"),
	}
}

// EnqueueWeeklyDigest queues an immediate digest run (the admin's
// manual trigger)
func (c *TaskClient) EnqueueWeeklyDigest() error {
	task := asynq.NewTask(TaskTypeWeeklyDigest, nil,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(RetryMin),
		asynq.Timeout(TimeoutLong),
	)

	info, err := c.client.Enqueue(task)
	if err != nil {
		return c.logger.Error("Failed to enqueue digest task", err)
	}

	c.logger.Info("Enqueued digest task %s on queue %s", info.ID, info.Queue)
	return nil
}

// Close closes the underlying asynq client
func (c *TaskClient) Close() error {
	return c.client.Close()
}
