package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Presence  PresenceStore
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Presence == nil {
		return nil, errors.New("jobs: presence store is required")
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePresenceTouch, NewPresenceTouchHandler(cfg.Presence, cfg.Logger))
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("jobs: worker not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// presenceThrottle caps how often a single account generates a presence task.
const presenceThrottle = time.Minute

// Client enqueues background tasks from the API process. When a redis client
// is supplied, presence touches are throttled per account so repeated logins
// within the throttle window enqueue at most one task.
type Client struct {
	client   *asynq.Client
	redis    *redis.Client
	throttle time.Duration
}

// NewClient constructs an enqueue-side client. rdb may be nil, in which case
// no throttling is applied.
func NewClient(opts asynq.RedisClientOpt, rdb *redis.Client) *Client {
	return &Client{client: asynq.NewClient(opts), redis: rdb, throttle: presenceThrottle}
}

// TouchPresence enqueues a presence touch for the given account.
func (c *Client) TouchPresence(ctx context.Context, email string) error {
	if c.redis != nil {
		ok, err := c.redis.SetNX(ctx, "presence:seen:"+email, 1, c.throttle).Result()
		if err == nil && !ok {
			return nil
		}
		// On redis failure fall through and enqueue anyway.
	}
	task, err := NewPresenceTouchTask(PresenceTouchPayload{Email: email, SeenAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
