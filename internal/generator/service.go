package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"easylesson/internal/ai"
	"easylesson/internal/logger"
	"easylesson/internal/models"
)

// Service generates records and continuations through a Completer.
type Service struct {
	completer ai.Completer
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(completer ai.Completer, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		completer: completer,
		log:       log.With("component", "generator"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces a new story or lesson. req is normalized and validated first.
func (s *Service) Generate(ctx context.Context, kind models.Kind, req *models.GenerationRequest) (*models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", models.ErrInvalidRequest, kind)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	system, user := ai.BuildGenerationPrompt(kind, req)
	start := time.Now()
	raw, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind, err)
	}

	rec, err := ParseGeneration(kind, raw, req)
	if err != nil {
		s.log.Warn("unusable model output", "kind", kind, "error", err, "bytes", len(raw))
		return nil, err
	}
	rec.ID = s.newID()
	rec.CreatedAt = s.now()

	s.log.Info("generated record",
		"kind", kind,
		"id", rec.ID,
		"word_count", rec.WordCount,
		"vocabulary", len(rec.Vocabulary),
		"quiz", len(rec.Quiz),
		"duration", time.Since(start),
	)
	return rec, nil
}

// Continue produces a continuation of req.Original(). id is echoed into the
// response under the kind's id field.
func (s *Service) Continue(ctx context.Context, kind models.Kind, id string, req *models.ContinuationRequest) (*models.ContinuationResponse, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", models.ErrInvalidRequest, kind)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	system, user := ai.BuildContinuationPrompt(kind, req)
	raw, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("continue %s %s: %w", kind, id, err)
	}

	resp, err := ParseContinuation(raw, req)
	if err != nil {
		s.log.Warn("unusable continuation output", "kind", kind, "id", id, "error", err)
		return nil, err
	}
	if kind == models.KindLesson {
		resp.LessonID = id
	} else {
		resp.StoryID = id
	}

	s.log.Info("generated continuation", "kind", kind, "id", id, "word_count", resp.WordCount, "difficulty", resp.Difficulty)
	return resp, nil
}
