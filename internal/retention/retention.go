package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"easylesson/config"
	"easylesson/internal/logger"
	"easylesson/internal/models"
	"easylesson/internal/store"
)

// ArchiveRemover deletes the object storage copies of a record.
type ArchiveRemover interface {
	RemoveArchive(ctx context.Context, rec *models.Record) error
}

// Sweeper deletes records older than a maximum age on a cron schedule.
type Sweeper struct {
	store    store.Store
	archive  ArchiveRemover
	schedule string
	maxAge   time.Duration
	now      func() time.Time
	log      *logger.Logger
	cron     *cron.Cron
}

// New creates a Sweeper. archive may be nil.
func New(st store.Store, archive ArchiveRemover, cfg *config.RetentionConfig, log *logger.Logger) *Sweeper {
	return &Sweeper{
		store:    st,
		archive:  archive,
		schedule: cfg.Schedule,
		maxAge:   cfg.MaxAge,
		now:      time.Now,
		log:      log.With("component", "retention"),
	}
}

// Enabled reports whether a positive max age is configured.
func (s *Sweeper) Enabled() bool {
	return s.maxAge > 0
}

// Run performs one sweep and returns the number of deleted records.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.maxAge)
	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	if s.archive != nil {
		for _, rec := range removed {
			if err := s.archive.RemoveArchive(ctx, rec); err != nil {
				s.log.Warn("failed to remove archive", "id", rec.ID, "error", err)
			}
		}
	}
	s.log.Info("retention sweep finished", "deleted", len(removed), "cutoff", cutoff)
	return len(removed), nil
}

// Start schedules the sweep. It is a no-op when retention is disabled.
func (s *Sweeper) Start() error {
	if !s.Enabled() {
		s.log.Info("retention disabled")
		return nil
	}
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.log.Error("retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule retention %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("retention scheduled", "schedule", s.schedule, "max_age", s.maxAge)
	return nil
}

// Stop stops the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
