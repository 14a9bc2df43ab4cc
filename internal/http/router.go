package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Authentication applies to every route except health, metrics, login and
// the CSRF token.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(AccessLogMiddleware())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(auth.NewMiddleware(cfg.AuthService, cfg.SessionManager).Handler())

	var pinger Pinger
	if cfg.Database != nil {
		pinger = cfg.Database
	}
	health := NewHealthController(pinger, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.Audit).RegisterRoutes(router)

	adminOnly := auth.RequireRole(entities.UserRoleAdmin)
	api := router.Group("/api")

	users := NewUsersController(cfg.AuthService)
	api.GET("/users", adminOnly, users.ListUsers)
	api.POST("/users", adminOnly, users.CreateUser)
	api.POST("/users/:username/reset-password", adminOnly, users.ResetPassword)

	books := NewBooksController(cfg.Catalog, cfg.Exporter)
	api.GET("/books", books.ListBooks)
	api.POST("/books", books.CreateBook)
	api.GET("/books/import-template.csv", books.ImportTemplate)

	var lookup ISBNLookup
	if cfg.Metadata != nil {
		lookup = cfg.Metadata
	}
	bookImport := NewBookImportController(cfg.Importer, lookup)
	api.POST("/books/import", bookImport.Import)
	api.GET("/books/lookup", bookImport.Lookup)

	api.GET("/books/:id", books.GetBook)
	api.PUT("/books/:id", books.UpdateBook)
	api.DELETE("/books/:id", books.DeleteBook)

	members := NewMembersController(cfg.Catalog)
	api.GET("/members", members.ListMembers)
	api.POST("/members", members.CreateMember)
	api.GET("/members/:id", members.GetMember)

	loans := NewLoansController(cfg.Loans, cfg.Exporter)
	api.GET("/loans", loans.ListLoans)
	api.POST("/loans", loans.Borrow)
	api.GET("/loans/export.csv", loans.ExportCSV)
	api.POST("/loans/:id/return", loans.Return)

	api.GET("/stats", adminOnly, NewStatsController(cfg.Loans).Dashboard)
	api.GET("/audit", adminOnly, NewAuditController(cfg.Audit, cfg.Location).Query)

	// Avoid typed-nil interfaces when the task queue is disabled
	var (
		enqueuer  tasks.Enqueuer
		statusSrc TaskStatusReader
		reminders ReminderTrigger
	)
	if cfg.TaskClient != nil {
		enqueuer = cfg.TaskClient
		statusSrc = cfg.TaskClient
	}
	if cfg.ReminderScheduler != nil {
		reminders = cfg.ReminderScheduler
	}

	settings := NewSettingsController(cfg.Settings, enqueuer)
	api.GET("/settings", settings.GetSettings)
	api.PUT("/settings", adminOnly, settings.UpdateSettings)
	api.POST("/settings/smtp/test", adminOnly, settings.TestSMTP)

	if statusSrc != nil {
		taskController := NewTasksController(statusSrc, reminders)
		api.GET("/tasks/:id", taskController.GetTaskStatus)
		api.POST("/reminders/run", adminOnly, taskController.RunReminders)
	}

	return router
}
