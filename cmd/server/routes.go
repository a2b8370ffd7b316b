package main

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(svc.metrics.Middleware())
	r.Use(middleware.CORS(svc.cfg.CORS.AllowOrigins))
	r.Use(middleware.AuditLog(svc.systemLogs))

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", gin.WrapH(svc.metrics.Handler()))

	cookie := svc.cfg.Session.CookieName
	session := middleware.SessionRequired(svc.sessions, cookie)
	optional := middleware.SessionOptional(svc.sessions, cookie)

	api := r.Group("/api", svc.limiter.Middleware())
	{
		api.GET("/health", svc.healthHandler.CheckHealth)

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/session", svc.authHandler.Exchange)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/logout", session, svc.authHandler.Logout)
			auth.GET("/user", session, svc.authHandler.CurrentUser)
		}

		// Public listings
		api.GET("/professionals", svc.professionalHandler.List)
		api.GET("/professionals/:id", svc.professionalHandler.Get)
		api.GET("/services", svc.serviceHandler.List)
		api.GET("/services/:id", optional, svc.serviceHandler.Get)
		api.GET("/jobs", svc.jobHandler.List)
		api.GET("/jobs/:id", optional, svc.jobHandler.Get)
		api.GET("/reviews/user/:userId", svc.reviewHandler.ListForUser)

		// Protected routes
		protected := api.Group("", session)
		{
			protected.POST("/user/type", svc.userHandler.SetType)
			protected.PATCH("/user/preferences", svc.userHandler.UpdatePreferences)

			// Professional side
			professional := protected.Group("/professional")
			{
				professional.GET("/profile", svc.professionalHandler.GetOwn)
				professional.POST("/profile", svc.professionalHandler.Create)
				professional.PATCH("/profile", svc.professionalHandler.Update)
				professional.DELETE("/profile", svc.professionalHandler.Delete)
				professional.GET("/projects", svc.professionalHandler.Projects)
				professional.GET("/services", svc.professionalHandler.Services)
				professional.GET("/stats", svc.professionalHandler.Stats)
				professional.GET("/invitations", svc.professionalHandler.Invitations)
				professional.GET("/certifications", svc.professionalHandler.ListCertifications)
				professional.POST("/certifications", svc.professionalHandler.AddCertification)
				professional.DELETE("/certifications/:id", svc.professionalHandler.DeleteCertification)
				professional.GET("/portfolio", svc.professionalHandler.ListPortfolio)
				professional.POST("/portfolio", svc.professionalHandler.AddPortfolioItem)
				professional.DELETE("/portfolio/:id", svc.professionalHandler.DeletePortfolioItem)
			}
			protected.PATCH("/invitations/:id", svc.professionalHandler.RespondInvitation)
			protected.POST("/uploads", svc.uploadHandler.Upload)

			// Company side
			company := protected.Group("/company")
			{
				company.GET("/profile", svc.companyHandler.Get)
				company.POST("/profile", svc.companyHandler.Create)
				company.PATCH("/profile", svc.companyHandler.Update)
				company.DELETE("/profile", svc.companyHandler.Delete)
				company.GET("/jobs", svc.companyHandler.Jobs)
				company.GET("/projects", svc.companyHandler.Projects)
				company.GET("/team", svc.companyHandler.ListTeam)
				company.POST("/team", svc.companyHandler.AddTeamMember)
				company.DELETE("/team/:id", svc.companyHandler.RemoveTeamMember)
			}

			// Listings
			protected.POST("/services", svc.serviceHandler.Create)
			protected.PATCH("/services/:id", svc.serviceHandler.Update)
			protected.DELETE("/services/:id", svc.serviceHandler.Delete)
			protected.POST("/jobs", svc.jobHandler.Create)
			protected.PATCH("/jobs/:id", svc.jobHandler.Update)
			protected.DELETE("/jobs/:id", svc.jobHandler.Delete)
			protected.POST("/jobs/:id/invitations", svc.jobHandler.Invite)

			// Projects
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.Get)
			protected.PATCH("/projects/:id", svc.projectHandler.Update)
			protected.GET("/projects/:id/milestones", svc.projectHandler.ListMilestones)
			protected.POST("/projects/:id/milestones", svc.projectHandler.AddMilestone)
			protected.GET("/projects/:id/payments", svc.projectHandler.ListPayments)
			protected.GET("/projects/:id/reviews", svc.projectHandler.ListReviews)
			protected.PATCH("/milestones/:id", svc.projectHandler.UpdateMilestone)

			// Messaging
			protected.GET("/conversations", svc.messagingHandler.ListConversations)
			protected.POST("/conversations", svc.messagingHandler.GetOrCreate)
			protected.GET("/conversations/:id/messages", svc.messagingHandler.ListMessages)
			protected.POST("/conversations/:id/read", svc.messagingHandler.MarkRead)
			protected.POST("/messages", svc.messagingHandler.Send)

			// Reviews
			protected.POST("/reviews", svc.reviewHandler.Create)

			// Payments
			protected.POST("/payments/create-intent", svc.paymentHandler.CreateIntent)
			protected.POST("/payments/:id/capture", svc.paymentHandler.Capture)
			protected.POST("/payments/:id/release", svc.paymentHandler.Release)
			protected.POST("/payments/:id/refund", svc.paymentHandler.Refund)

			// Notifications
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.GET("/notifications/unread-count", svc.notificationHandler.UnreadCount)
			protected.POST("/notifications/read-all", svc.notificationHandler.MarkAllRead)
			protected.POST("/notifications/:id/read", svc.notificationHandler.MarkRead)
			protected.GET("/events/notifications", svc.sseHandler.StreamNotifications)

			// AI
			protected.POST("/ai/match", svc.aiHandler.Match)
			protected.POST("/ai/translate", svc.aiHandler.Translate)
		}

		// Admin only routes
		admin := api.Group("/admin", session, middleware.AdminRequired())
		{
			admin.PATCH("/professionals/:id/verification", svc.professionalHandler.SetVerification)
			admin.PATCH("/reviews/:id/moderation", svc.reviewHandler.Moderate)
			admin.GET("/dashboard", svc.dashboardHandler.GetStats)
			admin.GET("/audit-logs", svc.systemLogHandler.List)
			admin.GET("/audit-logs/modules", svc.systemLogHandler.GetModules)
			admin.GET("/ai-usage", svc.aiUsageHandler.GetReport)
		}
	}
}
