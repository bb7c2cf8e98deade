package history

import (
	"time"

	"github.com/rs/zerolog"
)

// CleanupJob prunes expired runs and cache entries. It implements the
// scheduler's Job interface and runs daily.
type CleanupJob struct {
	repo      *Repository
	cache     *NarrativeCache
	retention time.Duration
	log       zerolog.Logger
}

// NewCleanupJob creates the retention cleanup job. cache may be nil.
func NewCleanupJob(repo *Repository, cache *NarrativeCache, retentionDays int, log zerolog.Logger) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &CleanupJob{
		repo:      repo,
		cache:     cache,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		log:       log.With().Str("component", "history_cleanup").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *CleanupJob) Name() string {
	return "history-cleanup"
}

// Run implements scheduler.Job.
func (j *CleanupJob) Run() error {
	cutoff := time.Now().Add(-j.retention)

	removed, err := j.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}

	var purged int64
	if j.cache != nil {
		// Cache entries age out on the same schedule as runs.
		purged, err = j.cache.PurgeOlderThan(cutoff)
		if err != nil {
			return err
		}
	}

	if removed > 0 || purged > 0 {
		j.log.Info().Int64("runs", removed).Int64("cache_entries", purged).Msg("Retention cleanup completed")
	}
	return nil
}
