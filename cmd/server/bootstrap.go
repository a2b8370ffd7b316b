package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/handlers"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	aiUsageRetention = 180 * 24 * time.Hour
	jobLockHold      = 10 * time.Minute
)

// appServices holds every service, handler and background component.
type appServices struct {
	cfg *config.Config
	db  *gorm.DB

	hub       *queue.Hub
	taskQueue queue.TaskQueue
	worker    *queue.Worker
	scheduler *services.Scheduler
	limiter   *middleware.RateLimiter
	metrics   *middleware.Metrics

	sessions   *services.SessionService
	authSvc    *services.AuthService
	systemLogs *services.SystemLogService
	aiUsage    *services.AIUsageService
	retry      *services.RetryService

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	professionalHandler *handlers.ProfessionalHandler
	companyHandler      *handlers.CompanyHandler
	serviceHandler      *handlers.ServiceHandler
	jobHandler          *handlers.JobHandler
	projectHandler      *handlers.ProjectHandler
	messagingHandler    *handlers.MessagingHandler
	reviewHandler       *handlers.ReviewHandler
	paymentHandler      *handlers.PaymentHandler
	notificationHandler *handlers.NotificationHandler
	sseHandler          *handlers.SSEHandler
	aiHandler           *handlers.AIHandler
	uploadHandler       *handlers.UploadHandler
	dashboardHandler    *handlers.DashboardHandler
	systemLogHandler    *handlers.SystemLogHandler
	aiUsageHandler      *handlers.AIUsageHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap wires the application on top of an open, migrated database.
// Nothing runs in the background until start is called.
func bootstrap(ctx context.Context, cfg *config.Config, db *gorm.DB) (*appServices, error) {
	handlers.RegisterValidators()

	hub := queue.NewHub()
	mux := queue.NewMux()
	taskQueue := queue.New(&cfg.Redis, mux)

	aiUsage := services.NewAIUsageService(db)
	embedder := services.NewEmbedder(&cfg.Embedding, aiUsage)
	translator := services.NewTranslator(&cfg.Translation, aiUsage)
	if embedder == nil {
		logger.Info().Msg("[AI] No embedding provider configured, matching disabled")
	}
	if translator == nil {
		logger.Info().Msg("[AI] No translation provider configured, content stays single-language")
	}

	store, err := services.NewObjectStore(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	mailer := services.NewMailer(&cfg.SMTP)

	notifications := services.NewNotificationService(db, hub, taskQueue)
	services.RegisterTasks(mux,
		services.NewIndexer(db, embedder, translator),
		services.NewEmailDelivery(db, mailer, cfg.Server.PublicURL))

	sessions := services.NewSessionService(db, time.Duration(cfg.Session.TTLHours)*time.Hour)
	authSvc := services.NewAuthService(db, sessions, &cfg.Identity, &cfg.Admin)
	users := services.NewUserService(db)
	professionals := services.NewProfessionalService(db, taskQueue)
	companies := services.NewCompanyService(db)
	catalog := services.NewCatalogService(db, taskQueue)
	jobs := services.NewJobService(db, taskQueue, notifications)
	projects := services.NewProjectService(db, notifications)
	messaging := services.NewMessagingService(db, notifications)
	reviews := services.NewReviewService(db, notifications)
	payments := services.NewPaymentService(db, services.NewPaymentProcessor(cfg.Payments.SecretKey), &cfg.Payments, notifications)
	systemLogs := services.NewSystemLogService(db)

	metrics := middleware.NewMetrics()
	handlers.RegisterDomainMetrics(metrics.Registry, db, taskQueue, hub)

	return &appServices{
		cfg:       cfg,
		db:        db,
		hub:       hub,
		taskQueue: taskQueue,
		worker:    queue.NewWorker(&cfg.Redis, mux),
		scheduler: services.NewScheduler(db),
		limiter:   middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		metrics:   metrics,

		sessions:   sessions,
		authSvc:    authSvc,
		systemLogs: systemLogs,
		aiUsage:    aiUsage,
		retry:      services.NewRetryService(db, taskQueue, embedder),

		authHandler:         handlers.NewAuthHandler(authSvc, &cfg.Session),
		userHandler:         handlers.NewUserHandler(users),
		professionalHandler: handlers.NewProfessionalHandler(professionals, catalog, jobs),
		companyHandler:      handlers.NewCompanyHandler(companies),
		serviceHandler:      handlers.NewServiceHandler(catalog, professionals),
		jobHandler:          handlers.NewJobHandler(jobs, companies),
		projectHandler:      handlers.NewProjectHandler(projects, companies, payments, reviews),
		messagingHandler:    handlers.NewMessagingHandler(messaging),
		reviewHandler:       handlers.NewReviewHandler(reviews),
		paymentHandler:      handlers.NewPaymentHandler(payments, projects),
		notificationHandler: handlers.NewNotificationHandler(notifications),
		sseHandler:          handlers.NewSSEHandler(hub),
		aiHandler:           handlers.NewAIHandler(services.NewMatchService(db, embedder), translator),
		uploadHandler:       handlers.NewUploadHandler(services.NewUploadService(store)),
		dashboardHandler:    handlers.NewDashboardHandler(services.NewDashboardService(db)),
		systemLogHandler:    handlers.NewSystemLogHandler(systemLogs),
		aiUsageHandler:      handlers.NewAIUsageHandler(aiUsage),
		healthHandler:       handlers.NewHealthHandler(db, taskQueue, hub),
	}, nil
}

// start seeds the admin account and launches the worker and the
// scheduled jobs.
func (s *appServices) start(ctx context.Context) error {
	if err := s.authSvc.CreateAdminIfNotExists(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	if s.worker != nil {
		if err := s.worker.Start(); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
	}

	jobs := []struct {
		spec string
		name string
		fn   services.JobFunc
	}{
		{"@hourly", "session-purge", func(ctx context.Context) error {
			n, err := s.sessions.PurgeExpired(ctx)
			if n > 0 {
				logger.Info().Int64("count", n).Msg("[Session] Purged expired sessions")
			}
			return err
		}},
		{"@every 10m", "index-retry", func(ctx context.Context) error {
			_, err := s.retry.ProcessUnindexed(ctx)
			return err
		}},
		{"0 3 * * *", "audit-cleanup", func(ctx context.Context) error {
			_, err := s.systemLogs.CleanupOld(ctx, s.cfg.Server.AuditRetentionDays)
			return err
		}},
		{"30 3 * * *", "ai-usage-cleanup", func(ctx context.Context) error {
			_, err := s.aiUsage.CleanupBefore(ctx, time.Now().Add(-aiUsageRetention))
			return err
		}},
	}
	for _, job := range jobs {
		if err := s.scheduler.Add(job.spec, job.name, jobLockHold, job.fn); err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
	}
	s.scheduler.Start()
	return nil
}

// shutdown gracefully stops all background work.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	s.limiter.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
}
