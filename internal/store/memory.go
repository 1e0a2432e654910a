package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"easylesson/internal/models"
)

// MemoryStore keeps records in a map. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.Record)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Save(_ context.Context, rec *models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: record id is required", models.ErrInvalidRequest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*models.Record, int64, error) {
	opts = opts.Normalize()

	m.mu.RLock()
	matched := make([]*models.Record, 0, len(m.records))
	for _, rec := range m.records {
		if opts.Kind != "" && rec.Kind != opts.Kind {
			continue
		}
		matched = append(matched, rec)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return []*models.Record{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]*models.Record, 0, end-opts.Offset)
	for _, rec := range matched[opts.Offset:end] {
		page = append(page, cloneRecord(rec))
	}
	return page, total, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []*models.Record
	for id, rec := range m.records {
		if rec.CreatedAt.Before(cutoff) {
			removed = append(removed, rec)
			delete(m.records, id)
		}
	}
	return removed, nil
}

func cloneRecord(rec *models.Record) *models.Record {
	c := *rec
	if rec.Vocabulary != nil {
		c.Vocabulary = append([]models.VocabularyItem(nil), rec.Vocabulary...)
	}
	if rec.Quiz != nil {
		c.Quiz = make([]models.QuizItem, len(rec.Quiz))
		for i, q := range rec.Quiz {
			q.Options = append([]string(nil), q.Options...)
			c.Quiz[i] = q
		}
	}
	if rec.LearningObjectives != nil {
		c.LearningObjectives = append([]string(nil), rec.LearningObjectives...)
	}
	return &c
}
