package handlers

import (
	"context"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const countTimeout = 2 * time.Second

// RegisterDomainMetrics adds gauges for the connection pool, live SSE
// clients, queue mode and marketplace activity. Counts run on scrape.
func RegisterDomainMetrics(reg prometheus.Registerer, db *gorm.DB, q queue.TaskQueue, hub *queue.Hub) {
	gauge := func(name, help string, fn func() float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "marketplace",
			Name:      name,
			Help:      help,
		}, fn)
	}
	poolStat := func(pick func(openConns, inUse, idle int) int) func() float64 {
		return func() float64 {
			sqlDB, err := db.DB()
			if err != nil {
				return 0
			}
			stats := sqlDB.Stats()
			return float64(pick(stats.OpenConnections, stats.InUse, stats.Idle))
		}
	}
	count := func(model interface{}, query string, args ...interface{}) func() float64 {
		return func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), countTimeout)
			defer cancel()
			var n int64
			tx := db.WithContext(ctx).Model(model)
			if query != "" {
				tx = tx.Where(query, args...)
			}
			if err := tx.Count(&n).Error; err != nil {
				return 0
			}
			return float64(n)
		}
	}

	reg.MustRegister(
		gauge("db_open_connections", "Number of open DB connections.",
			poolStat(func(o, _, _ int) int { return o })),
		gauge("db_in_use_connections", "Number of in-use DB connections.",
			poolStat(func(_, u, _ int) int { return u })),
		gauge("db_idle_connections", "Number of idle DB connections.",
			poolStat(func(_, _, i int) int { return i })),
		gauge("sse_active_clients", "Number of active SSE connections.", func() float64 {
			return float64(hub.ClientCount())
		}),
		gauge("queue_async_enabled", "Whether the Redis task queue is enabled (1=yes, 0=no).", func() float64 {
			if q != nil && q.IsAsync() {
				return 1
			}
			return 0
		}),
		gauge("jobs_public", "Number of public jobs.", count(&models.Job{}, "is_public = ?", true)),
		gauge("projects_active", "Number of active projects.", count(&models.Project{}, "status = ?", models.ProjectActive)),
		gauge("users_total", "Number of registered users.", count(&models.User{}, "")),
		gauge("ai_calls_24h", "AI provider calls in the last 24 hours.", func() float64 {
			return count(&models.AIUsageLog{}, "created_at >= ?", time.Now().Add(-24*time.Hour))()
		}),
	)
}
