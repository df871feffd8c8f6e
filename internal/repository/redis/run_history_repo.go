package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cache "encore/internal/cache/iface"
	"encore/internal/domain"
	"encore/internal/logger"
	repository "encore/internal/repository/iface"
)

// DefaultHistorySize bounds each job's run list when no size is configured
const DefaultHistorySize = 100

type runHistoryRepository struct {
	cache   cache.Cache
	maxSize int
	logger  logger.Logger
}

// NewRunHistoryRepository keeps the last maxSize runs of every job as a Redis list
func NewRunHistoryRepository(c cache.Cache, maxSize int, log logger.Logger) repository.RunHistoryRepository {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &runHistoryRepository{
		cache:   c,
		maxSize: maxSize,
		logger:  log.With(logger.String("component", "run_history_repository")),
	}
}

func (r *runHistoryRepository) Append(ctx context.Context, record *domain.RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	key := r.key(record.JobID)
	if err := r.cache.RPush(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to append run record: %w", err)
	}
	if err := r.cache.LTrim(ctx, key, int64(-r.maxSize), -1); err != nil {
		return fmt.Errorf("failed to trim run history: %w", err)
	}

	return nil
}

// Recent returns up to limit runs, newest first
func (r *runHistoryRepository) Recent(ctx context.Context, jobID string, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 || limit > r.maxSize {
		limit = r.maxSize
	}

	raw, err := r.cache.LRange(ctx, r.key(jobID), int64(-limit), -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read run history: %w", err)
	}

	records := make([]*domain.RunRecord, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var rec domain.RunRecord
		if err := json.Unmarshal([]byte(raw[i]), &rec); err != nil {
			r.logger.Warn("failed to unmarshal run record",
				logger.String("job_id", jobID),
				logger.Error(err))
			continue
		}
		records = append(records, &rec)
	}

	return records, nil
}

// Prune drops runs fired before olderThan and reports how many were removed.
// Runs are appended in fire order, so only the expired head of the list is
// trimmed; entries pushed while pruning sit past that head and survive.
// Undecodable entries at the head are dropped as well.
func (r *runHistoryRepository) Prune(ctx context.Context, jobID string, olderThan time.Time) (int, error) {
	key := r.key(jobID)

	raw, err := r.cache.LRange(ctx, key, 0, -1)
	if err != nil {
		return 0, fmt.Errorf("failed to read run history: %w", err)
	}

	removed := 0
	for _, item := range raw {
		var rec domain.RunRecord
		if err := json.Unmarshal([]byte(item), &rec); err == nil && !rec.FiredAt.Before(olderThan) {
			break
		}
		removed++
	}

	if removed == 0 {
		return 0, nil
	}

	if err := r.cache.LTrim(ctx, key, int64(removed), -1); err != nil {
		return 0, fmt.Errorf("failed to trim run history: %w", err)
	}

	r.logger.Debug("pruned run history",
		logger.String("job_id", jobID),
		logger.Int("removed", removed))

	return removed, nil
}

func (r *runHistoryRepository) key(jobID string) string {
	return fmt.Sprintf("runs:%s", jobID)
}
