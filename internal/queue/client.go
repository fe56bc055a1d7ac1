package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
)

// ingestUniqueTTL bounds how long a duplicate ingestion enqueue is rejected.
const ingestUniqueTTL = 30 * time.Minute

type Client struct {
	client *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueLibraryIngest never retries: a failed ingestion has already compensated
// and needs a fresh upload.
func (c *Client) EnqueueLibraryIngest(payload LibraryIngestPayload) error {
	return c.enqueue(TypeLibraryIngest, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Unique(ingestUniqueTTL),
	)
}

func (c *Client) EnqueueLibraryVectorDelete(payload LibraryVectorDeletePayload) error {
	return c.enqueue(TypeLibraryVectorDelete, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(5),
		asynq.Timeout(5*time.Minute),
	)
}

// EnqueueVideoGenerate has queue retry off. Parked videos come back through the
// retry sweep instead.
func (c *Client) EnqueueVideoGenerate(payload VideoGeneratePayload) error {
	return c.enqueueVideo(payload)
}

// EnqueueVideoGenerateIn re-submits the same payload after delay.
func (c *Client) EnqueueVideoGenerateIn(payload VideoGeneratePayload, delay time.Duration) error {
	return c.enqueueVideo(payload, asynq.ProcessIn(delay))
}

func (c *Client) enqueueVideo(payload VideoGeneratePayload, extra ...asynq.Option) error {
	opts := append([]asynq.Option{
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(0),
		asynq.Timeout(2 * time.Minute),
	}, extra...)
	return c.enqueue(TypeVideoGenerate, payload, opts...)
}

func (c *Client) EnqueueVideoArtifactDelete(payload VideoArtifactDeletePayload) error {
	return c.enqueue(TypeVideoArtifactDelete, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.TaskID("artifact-delete:"+strconv.FormatInt(payload.VideoID, 10)),
	)
}

func (c *Client) EnqueueNotifyEmail(payload NotifyEmailPayload) error {
	return c.enqueue(TypeNotifyEmail, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	)
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	task, err := NewTask(taskType, payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

func NewTask(taskType string, payload interface{}) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(taskType, data), nil
}

// SweepTask is the periodic task registered on the scheduler.
func SweepTask() *asynq.Task {
	return asynq.NewTask(TypeVideoRetrySweep, nil)
}
