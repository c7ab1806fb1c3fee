package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"EventStudy/internal/cache"
	"EventStudy/internal/observability"
	"EventStudy/internal/recorder"
)

// Scheduler runs housekeeping jobs on cron schedules.
type Scheduler struct {
	Cron          *cron.Cron
	Cache         *cache.SeriesCache
	Recorder      recorder.Recorder
	Metrics       *observability.Metrics
	RetentionDays int
	Ctx           context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, c *cache.SeriesCache, rec recorder.Recorder, m *observability.Metrics, retentionDays int) *Scheduler {
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds()),
		Cache:         c,
		Recorder:      rec,
		Metrics:       m,
		RetentionDays: retentionDays,
		Ctx:           ctx,
		now:           time.Now,
	}
}

// RegisterAll registers the cache purge and study-log prune tasks.
// An empty expression skips that task.
func (s *Scheduler) RegisterAll(purgeCron, pruneCron string) error {
	if purgeCron != "" {
		if _, err := s.Cron.AddFunc(purgeCron, s.PurgeCache); err != nil {
			return fmt.Errorf("register purge task: %w", err)
		}
	}
	if pruneCron != "" && s.RetentionDays > 0 {
		if _, err := s.Cron.AddFunc(pruneCron, s.PruneStudies); err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// PurgeCache drops expired price histories.
func (s *Scheduler) PurgeCache() {
	n := s.Cache.Purge()
	s.Metrics.SetCacheEntries(s.Cache.Len())
	if n > 0 {
		log.Debug().Int("purged", n).Msg("cache purged")
	}
}

// PruneStudies deletes study-log rows older than the retention period.
func (s *Scheduler) PruneStudies() {
	if s.Recorder == nil || s.RetentionDays <= 0 {
		return
	}
	cutoff := s.now().AddDate(0, 0, -s.RetentionDays)
	n, err := s.Recorder.PruneBefore(s.Ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("prune study log")
		return
	}
	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("study log pruned")
}
