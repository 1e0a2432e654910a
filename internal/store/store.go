package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"easylesson/config"
	"easylesson/internal/logger"
	"easylesson/internal/models"
)

// ErrNotFound is returned for unknown record ids.
var ErrNotFound = errors.New("record not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ListOptions filters and pages List. An empty Kind lists every kind.
type ListOptions struct {
	Kind   models.Kind
	Limit  int
	Offset int
}

// Normalize clamps Limit and Offset.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Store persists generated records.
type Store interface {
	Save(ctx context.Context, rec *models.Record) error
	Get(ctx context.Context, id string) (*models.Record, error)
	// List returns a page of records, newest first, and the total matching count.
	List(ctx context.Context, opts ListOptions) ([]*models.Record, int64, error)
	Delete(ctx context.Context, id string) error
	// DeleteOlderThan removes records created before cutoff and returns them.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Record, error)
	Name() string
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(cfg *config.DatabaseConfig, log *logger.Logger) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory", "mock":
		log.Warn("no database configured, records are kept in memory only")
		return NewMemoryStore(), nil
	case "postgres", "postgresql", "supabase":
		return OpenPostgres(cfg, log)
	case "sqlite", "sqlite3":
		return OpenSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
