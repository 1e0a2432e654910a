package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"easylesson/config"
	"easylesson/internal/logger"
	"easylesson/internal/models"
	"easylesson/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type removerFunc func(ctx context.Context, rec *models.Record) error

func (f removerFunc) RemoveArchive(ctx context.Context, rec *models.Record) error { return f(ctx, rec) }

func seed(t *testing.T, st store.Store, id string, created time.Time) {
	t.Helper()
	require.NoError(t, st.Save(context.Background(), &models.Record{
		ID: id, Kind: models.KindLesson, Title: id, CreatedAt: created,
	}))
}

func TestRunDeletesExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	st := store.NewMemoryStore()
	seed(t, st, "fresh", now.Add(-time.Hour))
	seed(t, st, "stale", now.Add(-72*time.Hour))

	var archived []string
	s := New(st, removerFunc(func(_ context.Context, rec *models.Record) error {
		archived = append(archived, rec.ID)
		return errors.New("archive offline")
	}), &config.RetentionConfig{Schedule: "0 0 3 * * *", MaxAge: 24 * time.Hour}, logger.Nop())
	s.now = func() time.Time { return now }

	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"stale"}, archived)

	_, err = st.Get(context.Background(), "stale")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(context.Background(), "fresh")
	assert.NoError(t, err)
}

func TestDisabled(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, "old", time.Unix(0, 0))

	s := New(st, nil, &config.RetentionConfig{Schedule: "0 0 3 * * *"}, logger.Nop())
	assert.False(t, s.Enabled())
	require.NoError(t, s.Start())
	s.Stop()

	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartStop(t *testing.T) {
	st := store.NewMemoryStore()
	s := New(st, nil, &config.RetentionConfig{Schedule: "* * * * * *", MaxAge: time.Hour}, logger.Nop())
	require.NoError(t, s.Start())
	time.Sleep(1100 * time.Millisecond)
	s.Stop()
	s.Stop()
}

func TestBadSchedule(t *testing.T) {
	s := New(store.NewMemoryStore(), nil, &config.RetentionConfig{Schedule: "never", MaxAge: time.Hour}, logger.Nop())
	assert.Error(t, s.Start())
}
