package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Auth
		Log
		Tasks
		Mail
		Reminders
		Library
		Metadata
		Crypto
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Credentials of the account created on first start. The account is
		// flagged for a forced password change.
		DefaultAdminUsername string
		DefaultAdminPassword string
	}
	Log struct {
		Level          string
		Console        bool
		Pretty         bool
		FileEnabled    bool
		FilePath       string
		FileMaxSizeMB  int
		FileMaxBackups int
		FileMaxAgeDays int
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	// Mail holds the SMTP timeout and environment-provided SMTP fallback
	// values. Values stored in the settings table take precedence.
	Mail struct {
		Timeout  time.Duration
		Host     string
		Port     int
		User     string
		Password string
	}
	Reminders struct {
		Enabled  bool
		Schedule string // Cron format: "0 8 * * *" = daily at 08:00
	}
	Library struct {
		DefaultLoanDays int
		// Timezone names the IANA zone used for calendar-date arithmetic.
		// Empty means the process local zone.
		Timezone string
	}
	// Metadata configures the ISBN lookup used to prefill new books.
	Metadata struct {
		Enabled bool
		BaseURL string
		Timeout time.Duration
	}
	Crypto struct {
		SettingsKey string // base64 AES-256 key sealing the SMTP password
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

// NewConfig reads configuration from the environment, after loading a .env
// file from the working directory if one exists.
func NewConfig() *Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded environment from .env")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("auth_session_secret", "")
	v.SetDefault("auth_session_lifetime", "12h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_default_admin_username", "admin")
	v.SetDefault("auth_default_admin_password", "admin")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_console", true)
	v.SetDefault("log_pretty", false)
	v.SetDefault("log_file_enabled", false)
	v.SetDefault("log_file_path", "./logs")
	v.SetDefault("log_file_max_size_mb", 10)
	v.SetDefault("log_file_max_backups", 5)
	v.SetDefault("log_file_max_age_days", 30)

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "5m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "72h")

	v.SetDefault("smtp_timeout", "10s")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_password", "")

	v.SetDefault("reminders_enabled", false)
	v.SetDefault("reminders_schedule", "0 8 * * *")

	v.SetDefault("library_loan_days", DefaultLoanDays)
	v.SetDefault("library_timezone", "")

	v.SetDefault("metadata_enabled", true)
	v.SetDefault("metadata_base_url", DefaultMetadataBaseURL)
	v.SetDefault("metadata_timeout", "10s")

	v.SetDefault("settings_encryption_key", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			SessionSecret:        v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:      v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:           v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:        v.GetBool("AUTH_SECURE_COOKIES"),
			DefaultAdminUsername: v.GetString("AUTH_DEFAULT_ADMIN_USERNAME"),
			DefaultAdminPassword: v.GetString("AUTH_DEFAULT_ADMIN_PASSWORD"),
		},
		Log: Log{
			Level:          v.GetString("LOG_LEVEL"),
			Console:        v.GetBool("LOG_CONSOLE"),
			Pretty:         v.GetBool("LOG_PRETTY"),
			FileEnabled:    v.GetBool("LOG_FILE_ENABLED"),
			FilePath:       v.GetString("LOG_FILE_PATH"),
			FileMaxSizeMB:  v.GetInt("LOG_FILE_MAX_SIZE_MB"),
			FileMaxBackups: v.GetInt("LOG_FILE_MAX_BACKUPS"),
			FileMaxAgeDays: v.GetInt("LOG_FILE_MAX_AGE_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Mail: Mail{
			Timeout:  v.GetDuration("SMTP_TIMEOUT"),
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
		},
		Reminders: Reminders{
			Enabled:  v.GetBool("REMINDERS_ENABLED"),
			Schedule: v.GetString("REMINDERS_SCHEDULE"),
		},
		Library: Library{
			DefaultLoanDays: v.GetInt("LIBRARY_LOAN_DAYS"),
			Timezone:        v.GetString("LIBRARY_TIMEZONE"),
		},
		Metadata: Metadata{
			Enabled: v.GetBool("METADATA_ENABLED"),
			BaseURL: v.GetString("METADATA_BASE_URL"),
			Timeout: v.GetDuration("METADATA_TIMEOUT"),
		},
		Crypto: Crypto{
			SettingsKey: v.GetString("SETTINGS_ENCRYPTION_KEY"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}

// Validate rejects settings the process cannot safely run with.
func (c *Config) Validate() error {
	if c.Auth.BcryptCost < MinBcryptCost {
		return fmt.Errorf("AUTH_BCRYPT_COST must be at least %d, got %d", MinBcryptCost, c.Auth.BcryptCost)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.Library.DefaultLoanDays < 1 {
		return fmt.Errorf("LIBRARY_LOAN_DAYS must be positive, got %d", c.Library.DefaultLoanDays)
	}
	if _, err := c.Library.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, defaulting to the process local zone.
func (l Library) Location() (*time.Location, error) {
	if l.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("LIBRARY_TIMEZONE %q: %w", l.Timezone, err)
	}
	return loc, nil
}
