package tasks

import (
	"time"

	"github.com/mrlokans/librarydesk/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 5m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long to keep finished email tasks. Default: 72h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		ReleaseAfter:      5 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 72 * time.Hour,
	}
}

// FromConfig fills unset application values with the defaults.
func FromConfig(cfg config.Tasks) Config {
	out := DefaultConfig()
	if cfg.Workers > 0 {
		out.Workers = cfg.Workers
	}
	if cfg.ReleaseAfter > 0 {
		out.ReleaseAfter = cfg.ReleaseAfter
	}
	if cfg.CleanupInterval > 0 {
		out.CleanupInterval = cfg.CleanupInterval
	}
	if cfg.RetentionDuration > 0 {
		out.RetentionDuration = cfg.RetentionDuration
	}
	return out
}
