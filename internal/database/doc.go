// Package database owns the SQLite store: connection setup, idempotent schema
// creation, default settings seeding and transaction scoping.
//
// Table access lives in sub-packages, one Repository per table:
//
//	database/
//	├── database.go   # connection, AutoMigrate, settings seeding, Transaction
//	├── errors.go     # sentinel errors shared by every layer above
//	├── books/
//	├── members/
//	├── loans/
//	├── users/
//	├── settings/
//	└── audit/
//
// Repositories are built on a *gorm.DB handle. Inside Database.Transaction,
// build them on the tx handle so every read and write of one logical
// operation shares the transaction:
//
//	err := db.Transaction(ctx, func(tx *gorm.DB) error {
//		book, err := books.NewRepository(tx).GetByID(id)
//		...
//	})
package database
