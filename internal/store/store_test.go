package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easylesson/config"
	"easylesson/internal/logger"
	"easylesson/internal/models"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id string, kind models.Kind, age time.Duration) *models.Record {
	return &models.Record{
		ID:            id,
		Kind:          kind,
		Title:         "Title " + id,
		Content:       "some words here",
		Subject:       "science",
		AcademicGrade: "4",
		WordCount:     3,
		Language:      "English",
		CreatedAt:     base.Add(-age),
		Vocabulary:    []models.VocabularyItem{{Term: "word", Definition: "meaning"}},
		Quiz:          []models.QuizItem{{Question: "q?", Options: []string{"a", "b"}, CorrectAnswer: 1}},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemoryStore()}

	sq, err := OpenSQLite(&config.DatabaseConfig{SQLitePath: filepath.Join(t.TempDir(), "test.db")}, logger.Nop())
	if err != nil {
		t.Logf("sqlite unavailable, running memory store only: %v", err)
		return out
	}
	t.Cleanup(func() { _ = sq.Close() })
	out["sqlite"] = sq
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec := record("r1", models.KindLesson, 0)
			require.NoError(t, s.Save(ctx, rec))

			got, err := s.Get(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, rec.Title, got.Title)
			assert.Equal(t, rec.Vocabulary, got.Vocabulary)
			assert.Equal(t, rec.Quiz, got.Quiz)
			assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
			assert.Nil(t, got.LearningObjectives)

			got.Title = "changed"
			again, err := s.Get(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, "Title r1", again.Title)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec := record("bad", models.KindStory, 0)
			rec.Quiz[0].CorrectAnswer = 7
			assert.ErrorIs(t, s.Save(ctx, rec), models.ErrInvalidRequest)

			rec = record("", models.KindStory, 0)
			assert.ErrorIs(t, s.Save(ctx, rec), models.ErrInvalidRequest)
		})
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, record("old", models.KindLesson, 2*time.Hour)))
			require.NoError(t, s.Save(ctx, record("new", models.KindLesson, 0)))
			require.NoError(t, s.Save(ctx, record("mid", models.KindStory, time.Hour)))

			all, total, err := s.List(ctx, ListOptions{})
			require.NoError(t, err)
			assert.Equal(t, int64(3), total)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"new", "mid", "old"}, ids(all))

			lessons, total, err := s.List(ctx, ListOptions{Kind: models.KindLesson, Limit: 1, Offset: 1})
			require.NoError(t, err)
			assert.Equal(t, int64(2), total)
			assert.Equal(t, []string{"old"}, ids(lessons))

			empty, _, err := s.List(ctx, ListOptions{Offset: 10})
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, record("d1", models.KindStory, 0)))
			require.NoError(t, s.Delete(ctx, "d1"))
			assert.ErrorIs(t, s.Delete(ctx, "d1"), ErrNotFound)
			_, err := s.Get(ctx, "d1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, record("keep", models.KindStory, time.Minute)))
			require.NoError(t, s.Save(ctx, record("drop", models.KindStory, 48*time.Hour)))

			removed, err := s.DeleteOlderThan(ctx, base.Add(-24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, []string{"drop"}, ids(removed))

			_, total, err := s.List(ctx, ListOptions{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
		})
	}
}

func TestListOptionsNormalize(t *testing.T) {
	assert.Equal(t, ListOptions{Limit: DefaultListLimit}, ListOptions{Limit: -1, Offset: -5}.Normalize())
	assert.Equal(t, MaxListLimit, ListOptions{Limit: 10000}.Normalize().Limit)
}

func TestOpenSelectsDriver(t *testing.T) {
	s, err := Open(&config.DatabaseConfig{Driver: "memory"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())

	_, err = Open(&config.DatabaseConfig{Driver: "oracle"}, logger.Nop())
	assert.Error(t, err)
}

func ids(recs []*models.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
