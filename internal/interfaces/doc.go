// Package interfaces holds compile-time checks that the concrete services
// satisfy the narrow interfaces their consumers declare.
//
// Consumers define the interface they need next to the code that uses it:
//
//   - internal/http: BookCatalog, MemberDirectory, LoanDesk, LoanExporter,
//     BookImporter, ISBNLookup, UserAdmin, AuditReader, DashboardSource,
//     LibrarySettingsStore, TaskStatusReader, ReminderTrigger, Pinger
//   - internal/tasks: Enqueuer, Sender, OverdueLister
//   - internal/auth: Notifier
//   - internal/mailer: SettingsLoader
//   - internal/exporters: LoanLister
//   - internal/importers: BookAdder
//
// # Adding a New Endpoint
//
//  1. Declare the interface the controller needs in internal/http.
//
//  2. Implement it on a service in internal/services (or reuse one).
//
//  3. Add a check to checks.go:
//
//     var _ http.SomeInterface = (*services.SomeService)(nil)
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository over a transaction handle:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Let the service open the transaction and record the audit entry in it.
package interfaces
