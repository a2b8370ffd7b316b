package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
)

// HandlerFunc processes one task payload.
type HandlerFunc func(ctx context.Context, payload []byte) error

// Mux routes tasks to handlers by type. Both queue flavours and the worker
// dispatch through it, so handlers are registered once.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewMux() *Mux {
	return &Mux{handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for taskType, replacing any previous handler.
func (m *Mux) Handle(taskType string, fn HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[taskType] = fn
}

// Types returns the registered task types.
func (m *Mux) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, 0, len(m.handlers))
	for t := range m.handlers {
		types = append(types, t)
	}
	return types
}

// Process runs the handler for taskType.
func (m *Mux) Process(ctx context.Context, taskType string, payload []byte) error {
	m.mu.RLock()
	fn, ok := m.handlers[taskType]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler for task type %q", taskType)
	}
	return fn(ctx, payload)
}

// TaskQueue accepts background tasks.
type TaskQueue interface {
	// Enqueue serializes payload as JSON and schedules it
	Enqueue(taskType string, payload interface{}) error
	// IsAsync returns true if tasks are handed to an external worker
	IsAsync() bool
	// Close waits for in-flight work and releases resources
	Close() error
}

// New returns a Redis-backed queue when enabled and reachable, otherwise
// an in-process one running tasks through mux.
func New(cfg *config.RedisConfig, mux *Mux) TaskQueue {
	if cfg.Enabled {
		q, err := NewAsyncQueue(cfg)
		if err != nil {
			logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
			return NewSyncQueue(mux)
		}
		logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
		return q
	}
	logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
	return NewSyncQueue(mux)
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(taskType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(taskType, data),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("type", taskType).Msg("[AsyncQueue] Task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs tasks in background goroutines of this process.
type SyncQueue struct {
	mux    *Mux
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewSyncQueue(mux *Mux) *SyncQueue {
	return &SyncQueue{mux: mux}
}

// Enqueue returns immediately; the task runs in its own goroutine so the
// request that triggered it is not held up.
func (q *SyncQueue) Enqueue(taskType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("task queue closed")
	}
	if q.mux == nil {
		q.mu.Unlock()
		logger.Warnf("[SyncQueue] No handlers registered, task %s dropped", taskType)
		return nil
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		if err := q.mux.Process(context.Background(), taskType, data); err != nil {
			logger.Errorf("[SyncQueue] Task %s failed: %v", taskType, err)
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

// Close rejects new tasks and waits for running ones.
func (q *SyncQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
	return nil
}
