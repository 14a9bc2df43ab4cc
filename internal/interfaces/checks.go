package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/exporters"
	"github.com/mrlokans/librarydesk/internal/http"
	"github.com/mrlokans/librarydesk/internal/importers"
	"github.com/mrlokans/librarydesk/internal/mailer"
	"github.com/mrlokans/librarydesk/internal/metadata"
	"github.com/mrlokans/librarydesk/internal/scheduler"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/settingsstore"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// =============================================================================
// Services
// =============================================================================

var _ http.BookCatalog = (*services.CatalogService)(nil)
var _ http.MemberDirectory = (*services.CatalogService)(nil)
var _ importers.BookAdder = (*services.CatalogService)(nil)

var _ http.LoanDesk = (*services.LoanService)(nil)
var _ http.DashboardSource = (*services.LoanService)(nil)
var _ exporters.LoanLister = (*services.LoanService)(nil)
var _ tasks.OverdueLister = (*services.LoanService)(nil)

var _ http.UserAdmin = (*auth.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Settings and mail
// =============================================================================

var _ http.LibrarySettingsStore = (*settingsstore.SettingsStore)(nil)
var _ mailer.SettingsLoader = (*settingsstore.SettingsStore)(nil)
var _ tasks.Sender = (*mailer.Mailer)(nil)

// =============================================================================
// Background work
// =============================================================================

var _ tasks.Enqueuer = (*tasks.Client)(nil)
var _ http.TaskStatusReader = (*tasks.Client)(nil)
var _ auth.Notifier = (*tasks.Notifier)(nil)
var _ http.ReminderTrigger = (*scheduler.OverdueReminderScheduler)(nil)

// =============================================================================
// Import and export
// =============================================================================

var _ http.LoanExporter = (*exporters.CSVExporter)(nil)
var _ http.BookImporter = (*importers.Pipeline)(nil)
var _ http.ISBNLookup = (*metadata.OpenLibraryClient)(nil)
