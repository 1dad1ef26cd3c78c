package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/repos"
)

type fakeSource struct {
	mu        sync.Mutex
	total     int64
	rated     int64
	ratings   int64
	average   float64
	err       error
	refreshes int
}

func (f *fakeSource) Count(_ context.Context, filter repos.CountFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if filter.RatedOnly {
		return f.rated, nil
	}
	f.refreshes++
	return f.total, nil
}

func (f *fakeSource) CountRatings(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ratings, f.err
}

func (f *fakeSource) AverageJointRating(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.average, f.err
}

func (f *fakeSource) set(fn func(*fakeSource)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeSource) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func TestRefreshComputesSnapshot(t *testing.T) {
	src := &fakeSource{total: 4, rated: 2, ratings: 7, average: 3.25}
	s, err := NewSnapshotter(src, logger.NewNop())
	require.NoError(t, err)

	assert.Zero(t, s.Current())
	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Current()
	assert.Equal(t, int64(4), snap.TotalRecipes)
	assert.Equal(t, int64(2), snap.RatedRecipeCount)
	assert.Equal(t, int64(7), snap.TotalRatings)
	assert.Equal(t, 3.25, snap.AverageRating)
	assert.False(t, snap.RefreshedAt.IsZero())
}

func TestRefreshFailureKeepsPrevious(t *testing.T) {
	src := &fakeSource{total: 1, rated: 1, ratings: 1, average: 5}
	s, err := NewSnapshotter(src, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Refresh(context.Background()))
	before := s.Current()

	src.set(func(f *fakeSource) {
		f.total = 99
		f.err = errors.New("database unavailable")
	})
	assert.Error(t, s.Refresh(context.Background()))
	assert.Equal(t, before, s.Current())
}

func TestGaugesExported(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &fakeSource{total: 3, rated: 1, ratings: 2, average: 4.5}
	s, err := NewSnapshotter(src, logger.NewNop(), WithRegisterer(reg))
	require.NoError(t, err)
	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, 3.0, testutil.ToFloat64(s.gauges.totalRecipes))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.gauges.ratedRecipes))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.gauges.totalRatings))
	assert.Equal(t, 4.5, testutil.ToFloat64(s.gauges.averageRating))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewSnapshotter(&fakeSource{}, logger.NewNop(), WithRegisterer(reg))
	require.NoError(t, err)

	_, err = NewSnapshotter(&fakeSource{}, logger.NewNop(), WithRegisterer(reg))
	assert.Error(t, err)
}

func TestStartRefreshesOnInterval(t *testing.T) {
	src := &fakeSource{total: 1}
	s, err := NewSnapshotter(src, logger.NewNop(), WithInterval(10*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, s.Interval())

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return src.refreshCount() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := src.refreshCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, src.refreshCount())

	// Stop is idempotent.
	s.Stop()
}

func TestStopAfterParentCancelAndRestart(t *testing.T) {
	src := &fakeSource{total: 2}
	s, err := NewSnapshotter(src, logger.NewNop(), WithInterval(time.Hour))
	require.NoError(t, err)

	// Stop before Start does nothing.
	s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return src.refreshCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Stop()

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return src.refreshCount() == 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
	assert.Equal(t, int64(2), s.Current().TotalRecipes)
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	s, err := NewSnapshotter(&fakeSource{}, logger.NewNop(), WithInterval(0))
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, s.Interval())
}
