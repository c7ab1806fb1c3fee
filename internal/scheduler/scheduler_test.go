package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventStudy/internal/cache"
	"EventStudy/internal/model"
	"EventStudy/internal/recorder"
)

type pruneSpy struct {
	recorder.NoopRecorder
	cutoffs []time.Time
}

func (p *pruneSpy) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, nil
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), cache.NewSeriesCache(time.Minute), recorder.NewNoopRecorder(), nil, 30)
	require.NoError(t, s.RegisterAll("0 */5 * * * *", "0 30 3 * * *"))
	assert.Len(t, s.Cron.Entries(), 2)
}

func TestRegisterAll_SkipsPruneWithoutRetention(t *testing.T) {
	s := NewScheduler(context.Background(), cache.NewSeriesCache(time.Minute), recorder.NewNoopRecorder(), nil, 0)
	require.NoError(t, s.RegisterAll("0 */5 * * * *", "0 30 3 * * *"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestRegisterAll_InvalidExpression(t *testing.T) {
	s := NewScheduler(context.Background(), nil, nil, nil, 30)
	err := s.RegisterAll("every five minutes", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register purge task")
}

func TestPruneStudies_UsesRetention(t *testing.T) {
	spy := &pruneSpy{}
	s := NewScheduler(context.Background(), nil, spy, nil, 90)
	fixed := time.Date(2024, 6, 1, 3, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.PruneStudies()
	require.Len(t, spy.cutoffs, 1)
	assert.Equal(t, fixed.AddDate(0, 0, -90), spy.cutoffs[0])
}

func TestPurgeCache(t *testing.T) {
	c := cache.NewSeriesCache(time.Nanosecond)
	c.Set("k", &model.PriceSeries{Symbol: "AAPL"})
	time.Sleep(time.Millisecond)

	s := NewScheduler(context.Background(), c, nil, nil, 0)
	s.PurgeCache()
	assert.Equal(t, 0, c.Len())
}
