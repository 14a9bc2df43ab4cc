package entrypoint

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/crypto"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/exporters"
	"github.com/mrlokans/librarydesk/internal/importers"
	"github.com/mrlokans/librarydesk/internal/logger"
	"github.com/mrlokans/librarydesk/internal/metadata"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/settingsstore"
)

// ServiceName tags every log line and the log-level metrics.
const ServiceName = "librarydesk"

// App holds the services shared by the server and the CLI commands.
type App struct {
	Config   *config.Config
	DB       *database.Database
	Audit    *audit.Service
	Settings *settingsstore.SettingsStore
	Auth     *auth.Service
	Catalog  *services.CatalogService
	Loans    *services.LoanService
	Exporter *exporters.CSVExporter
	Importer *importers.Pipeline
	Location *time.Location

	// ISBN lookups; nil when disabled
	Metadata *metadata.OpenLibraryClient
}

// SetupLogging installs the global zerolog logger.
func SetupLogging(cfg config.Log) error {
	return logger.Init(logger.Log{
		Level:       cfg.Level,
		ServiceName: ServiceName,
		Console:     logger.Console{Enabled: cfg.Console, Pretty: cfg.Pretty},
		File: logger.File{
			Enabled:    cfg.FileEnabled,
			Path:       cfg.FilePath,
			MaxSizeMB:  cfg.FileMaxSizeMB,
			MaxBackups: cfg.FileMaxBackups,
			MaxAgeDays: cfg.FileMaxAgeDays,
		},
	})
}

// NewApp validates cfg, opens the database (creating the schema and default
// settings when missing) and builds the services on top of it.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Library.Location()
	if err != nil {
		return nil, err
	}

	sealer, err := crypto.NewSealerFromBase64(cfg.Crypto.SettingsKey)
	if err != nil {
		return nil, fmt.Errorf("SETTINGS_ENCRYPTION_KEY: %w", err)
	}
	if sealer == nil {
		log.Warn().Msg("SETTINGS_ENCRYPTION_KEY is not set, the SMTP password is stored as plaintext")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	auditSvc := audit.NewService(db.DB)
	settings := settingsstore.New(db.DB, auditSvc, sealer, settingsstore.SMTPSettings{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
	})
	catalog := services.NewCatalogService(db.DB, auditSvc)
	loans := services.NewLoanService(db.DB, auditSvc, settings, cfg.Library.DefaultLoanDays, loc)

	var lookup *metadata.OpenLibraryClient
	if cfg.Metadata.Enabled {
		lookup = metadata.NewOpenLibraryClient(cfg.Metadata.BaseURL, cfg.Metadata.Timeout)
	}

	return &App{
		Config:   cfg,
		DB:       db,
		Audit:    auditSvc,
		Settings: settings,
		Auth:     auth.NewService(db.DB, auditSvc, cfg.Auth),
		Catalog:  catalog,
		Loans:    loans,
		Exporter: exporters.NewCSVExporter(loans, auditSvc, loc),
		Importer: importers.NewPipeline(catalog),
		Location: loc,
		Metadata: lookup,
	}, nil
}

// Bootstrap creates the default admin when the users table is empty.
func (a *App) Bootstrap(ctx context.Context) error {
	if _, err := a.Auth.BootstrapDefaultAdmin(ctx); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
