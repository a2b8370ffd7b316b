package queue

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
)

// Worker consumes tasks from Redis and dispatches them through a Mux.
type Worker struct {
	server  *asynq.Server
	mux     *Mux
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig, mux *Mux) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{server: server, mux: mux}
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	serveMux := asynq.NewServeMux()
	for _, taskType := range w.mux.Types() {
		taskType := taskType
		serveMux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
			logger.Debug().Str("type", taskType).Msg("[Worker] Processing task")
			return w.mux.Process(ctx, taskType, t.Payload())
		})
	}

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting async worker...")
		if err := w.server.Run(serveMux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}
