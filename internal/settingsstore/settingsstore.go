// Package settingsstore turns the string-keyed settings table into a typed
// LibrarySettings value, loaded fresh for every operation that needs it.
//
// SMTP fields resolve with priority database > environment > default, so an
// operator can provide mail credentials through the environment and staff can
// still override them at runtime.
package settingsstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/crypto"
	"github.com/mrlokans/librarydesk/internal/database"
	settingsrepo "github.com/mrlokans/librarydesk/internal/database/settings"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// DefaultLateFeePerDay applies when the stored rate is missing or unparsable.
const DefaultLateFeePerDay = 0.50

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

type SMTPSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"-"`
}

// Complete reports whether enough is configured to attempt delivery.
func (s SMTPSettings) Complete() bool {
	return s.Host != "" && s.Port > 0 && s.User != "" && s.Password != ""
}

type LibrarySettings struct {
	LateFeePerDay float64      `json:"late_fee_per_day"`
	SMTP          SMTPSettings `json:"smtp"`
}

// View is the redacted form handed to clients.
type View struct {
	LateFeePerDay     float64 `json:"late_fee_per_day"`
	SMTPHost          string  `json:"smtp_host"`
	SMTPPort          int     `json:"smtp_port"`
	SMTPUser          string  `json:"smtp_user"`
	SMTPPasswordSet   bool    `json:"smtp_password_set"`
	SMTPSource        string  `json:"smtp_source"`
	SMTPConfigured    bool    `json:"smtp_configured"`
	PasswordEncrypted bool    `json:"smtp_password_encrypted"`
}

// Update carries the fields to change; nil leaves a field as stored.
type Update struct {
	LateFeePerDay *float64 `json:"late_fee_per_day"`
	SMTPHost      *string  `json:"smtp_host"`
	SMTPPort      *int     `json:"smtp_port"`
	SMTPUser      *string  `json:"smtp_user"`
	SMTPPassword  *string  `json:"smtp_password"`
}

type SettingsStore struct {
	db       *gorm.DB
	audit    *audit.Service
	sealer   *crypto.Sealer
	fallback SMTPSettings
}

// New builds a store. sealer may be nil, in which case the SMTP password is
// kept as plaintext. fallback holds SMTP values from the environment.
func New(db *gorm.DB, auditSvc *audit.Service, sealer *crypto.Sealer, fallback SMTPSettings) *SettingsStore {
	return &SettingsStore{db: db, audit: auditSvc, sealer: sealer, fallback: fallback}
}

func (s *SettingsStore) Load(ctx context.Context) (*LibrarySettings, error) {
	return s.LoadTx(s.db.WithContext(ctx))
}

// LoadTx reads every setting through tx, so callers inside a transaction see
// a consistent snapshot.
func (s *SettingsStore) LoadTx(tx *gorm.DB) (*LibrarySettings, error) {
	settings, _, err := s.load(tx)
	return settings, err
}

func (s *SettingsStore) load(tx *gorm.DB) (*LibrarySettings, string, error) {
	values, err := settingsrepo.NewRepository(tx).All()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load settings: %w", err)
	}

	password, err := s.sealer.Open(values[entities.SettingKeySMTPPassword])
	if err != nil {
		return nil, "", fmt.Errorf("failed to open smtp password: %w", err)
	}

	smtp := SMTPSettings{
		Host:     values[entities.SettingKeySMTPHost],
		Port:     parsePort(values[entities.SettingKeySMTPPort]),
		User:     values[entities.SettingKeySMTPUser],
		Password: password,
	}

	source := SourceDatabase
	switch {
	case smtp.Host != "":
	case s.fallback.Host != "":
		smtp = s.fallback
		source = SourceEnvironment
	default:
		source = SourceDefault
	}

	return &LibrarySettings{
		LateFeePerDay: parseRate(values[entities.SettingKeyLateFeePerDay]),
		SMTP:          smtp,
	}, source, nil
}

// LateFeePerDay reads the current rate through tx.
func (s *SettingsStore) LateFeePerDay(tx *gorm.DB) (float64, error) {
	value, _, err := settingsrepo.NewRepository(tx).Get(entities.SettingKeyLateFeePerDay)
	if err != nil {
		return 0, fmt.Errorf("failed to read late fee rate: %w", err)
	}
	return parseRate(value), nil
}

func (s *SettingsStore) View(ctx context.Context) (*View, error) {
	settings, source, err := s.load(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &View{
		LateFeePerDay:     settings.LateFeePerDay,
		SMTPHost:          settings.SMTP.Host,
		SMTPPort:          settings.SMTP.Port,
		SMTPUser:          settings.SMTP.User,
		SMTPPasswordSet:   settings.SMTP.Password != "",
		SMTPSource:        source,
		SMTPConfigured:    settings.SMTP.Complete(),
		PasswordEncrypted: s.sealer != nil,
	}, nil
}

// Update validates and writes the changed keys plus exactly one
// settings_update audit entry, all in one transaction. The SMTP password
// value never reaches the audit details.
func (s *SettingsStore) Update(ctx context.Context, actor string, u Update) (*LibrarySettings, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}

	changes := map[string]string{}
	if u.LateFeePerDay != nil {
		changes[entities.SettingKeyLateFeePerDay] = strconv.FormatFloat(*u.LateFeePerDay, 'f', 2, 64)
	}
	if u.SMTPHost != nil {
		changes[entities.SettingKeySMTPHost] = strings.TrimSpace(*u.SMTPHost)
	}
	if u.SMTPPort != nil {
		changes[entities.SettingKeySMTPPort] = strconv.Itoa(*u.SMTPPort)
	}
	if u.SMTPUser != nil {
		changes[entities.SettingKeySMTPUser] = strings.TrimSpace(*u.SMTPUser)
	}
	if u.SMTPPassword != nil {
		sealed, err := s.sealer.Seal(*u.SMTPPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to seal smtp password: %w", err)
		}
		changes[entities.SettingKeySMTPPassword] = sealed
	}

	var updated *LibrarySettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := settingsrepo.NewRepository(tx)
		for key, value := range changes {
			if err := repo.Set(key, value); err != nil {
				return fmt.Errorf("failed to store %s: %w", key, err)
			}
		}
		if err := s.audit.Record(tx, actor, entities.AuditActionSettingsUpdate, describeChanges(changes)); err != nil {
			return err
		}

		var err error
		updated, err = s.LoadTx(tx)
		return err
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	log.Info().Str("actor", actor).Int("keys", len(changes)).Msg("settings updated")
	return updated, nil
}

func (u Update) validate() error {
	if u.LateFeePerDay != nil {
		rate := *u.LateFeePerDay
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
			return fmt.Errorf("%w: late fee per day must be a non-negative number", database.ErrValidation)
		}
		if cents := rate * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
			return fmt.Errorf("%w: late fee per day must have at most 2 decimal places", database.ErrValidation)
		}
	}
	if u.SMTPPort != nil && (*u.SMTPPort < 1 || *u.SMTPPort > 65535) {
		return fmt.Errorf("%w: smtp port must be between 1 and 65535", database.ErrValidation)
	}
	return nil
}

func describeChanges(changes map[string]string) string {
	if len(changes) == 0 {
		return "no changes"
	}
	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == entities.SettingKeySMTPPassword {
			parts = append(parts, key+"=***")
			continue
		}
		parts = append(parts, key+"="+changes[key])
	}
	return strings.Join(parts, ", ")
}

func parseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultLateFeePerDay
	}
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		log.Warn().Str("value", value).Float64("fallback", DefaultLateFeePerDay).
			Msg("unparsable late fee rate, using default")
		return DefaultLateFeePerDay
	}
	return rate
}

func parsePort(value string) int {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < 1 || port > 65535 {
		return 0
	}
	return port
}
