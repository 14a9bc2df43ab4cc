package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/config"
	http_controllers "github.com/mrlokans/librarydesk/internal/http"
	"github.com/mrlokans/librarydesk/internal/mailer"
	"github.com/mrlokans/librarydesk/internal/scheduler"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts down within the configured timeout.
func Serve(ctx context.Context, router http.Handler, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Dur("timeout", timeout).Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Dur("timeout", timeout).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the workers go away
	err := srv.Shutdown(shutdownCtx)
	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}

// Run wires every component and serves the API until shutdown.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	log.Info().Str("version", version).Msg("starting librarydesk")

	if cfg.Log.Level != "debug" && cfg.Log.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	if err := app.Bootstrap(ctx); err != nil {
		return err
	}

	sqlDB, err := app.DB.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	var csrfSecret []byte
	if cfg.Auth.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.SessionSecret)
		}
	} else {
		log.Warn().Msg("AUTH_SESSION_SECRET is not set, CSRF protection is disabled (generate one with 'librarydesk keygen')")
	}

	var (
		taskClient    *tasks.Client
		taskCtxCancel context.CancelFunc
		reminders     *scheduler.OverdueReminderScheduler
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("error closing task client")
			}
		}()

		sender := mailer.New(app.Settings, cfg.Mail.Timeout)
		taskClient.Register(
			tasks.NewSendEmailQueue(sender),
			tasks.NewSMTPTestQueue(app.Settings, sender),
			tasks.NewOverdueReminderQueue(app.Loans, taskClient),
		)
		app.Auth.SetNotifier(tasks.NewNotifier(app.DB.DB, taskClient))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		reminders = scheduler.NewOverdueReminderScheduler(taskClient, cfg.Reminders, app.Location)
		if err := reminders.Start(taskCtx); err != nil {
			taskCtxCancel()
			return fmt.Errorf("failed to start reminder scheduler: %w", err)
		}
	} else {
		log.Warn().Msg("task queue disabled, email notifications and reminders are off")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:          app.DB,
		Audit:             app.Audit,
		Catalog:           app.Catalog,
		Loans:             app.Loans,
		Exporter:          app.Exporter,
		Settings:          app.Settings,
		Importer:          app.Importer,
		Metadata:          app.Metadata,
		AuthService:       app.Auth,
		SessionManager:    sessionManager,
		CSRFSecret:        csrfSecret,
		SecureCookies:     cfg.Auth.SecureCookies,
		TaskClient:        taskClient,
		ReminderScheduler: reminders,
		Location:          app.Location,
		Version:           version,
	})

	onShutdown := func(ctx context.Context) {
		if reminders != nil {
			reminders.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(ctx, router, cfg, onShutdown)
}
