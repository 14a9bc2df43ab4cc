package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/logger/adapter/gormlog"
)

// Transactions take the write lock on BEGIN so two writers are serialised by
// SQLite itself rather than failing on lock upgrade.
const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (or creates) the SQLite file at dbPath, creates missing
// tables and seeds default settings. Running it against an initialised file
// changes nothing.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+dsnParams), &gorm.Config{
		Logger:         gormlog.New(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Member{},
		&entities.Loan{},
		&entities.User{},
		&entities.Setting{},
		&entities.AuditEntry{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedSettings(); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("database initialized")

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn inside one transaction. Any error returned by fn rolls
// everything back, so a business write and its audit entry land together or
// not at all.
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := d.DB.WithContext(ctx).Transaction(fn)
	if err != nil {
		return Classify(err)
	}
	return nil
}

func (d *Database) seedSettings() error {
	for _, setting := range entities.DefaultSettings {
		var existing entities.Setting
		err := d.DB.Where("key = ?", setting.Key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s := setting
			if err := d.DB.Create(&s).Error; err != nil {
				return fmt.Errorf("failed to create setting %s: %w", setting.Key, err)
			}
			log.Debug().Str("key", setting.Key).Msg("seeded default setting")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
