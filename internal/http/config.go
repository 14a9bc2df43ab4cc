package http

import (
	"time"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/exporters"
	"github.com/mrlokans/librarydesk/internal/importers"
	"github.com/mrlokans/librarydesk/internal/metadata"
	"github.com/mrlokans/librarydesk/internal/scheduler"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/settingsstore"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Audit    *audit.Service
	Catalog  *services.CatalogService
	Loans    *services.LoanService
	Exporter *exporters.CSVExporter
	Settings *settingsstore.SettingsStore
	Importer *importers.Pipeline

	// ISBN lookup; nil when disabled
	Metadata *metadata.OpenLibraryClient

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// Background work; nil when the task queue is disabled
	TaskClient        *tasks.Client
	ReminderScheduler *scheduler.OverdueReminderScheduler

	// Library timezone for calendar-date query parameters; UTC when nil
	Location *time.Location

	// Application info
	Version string
}
