package service

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const reviewQueueKey = "review:pending"

// ReviewQueue collects submissions whose recognition confidence fell below the
// review threshold so a human can follow up. Low confidence never blocks
// grading; the queue is a side output.
type ReviewQueue interface {
	Enqueue(ctx context.Context, submissionID uint) error
	Pending(ctx context.Context, limit int64) ([]uint, error)
}

type reviewQueue struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewReviewQueue builds a redis-backed review queue. A nil client degrades to
// a logged no-op so the pipeline keeps working without redis.
func NewReviewQueue(client *redis.Client, logger zerolog.Logger) ReviewQueue {
	return &reviewQueue{
		client: client,
		logger: logger.With().Str("component", "review_queue").Logger(),
	}
}

func (q *reviewQueue) Enqueue(ctx context.Context, submissionID uint) error {
	if q.client == nil {
		q.logger.Warn().Uint("submission_id", submissionID).Msg("review queue unavailable, flag not enqueued")
		return nil
	}

	if err := q.client.RPush(ctx, reviewQueueKey, strconv.FormatUint(uint64(submissionID), 10)).Err(); err != nil {
		return err
	}

	q.logger.Info().Uint("submission_id", submissionID).Msg("submission flagged for manual review")
	return nil
}

func (q *reviewQueue) Pending(ctx context.Context, limit int64) ([]uint, error) {
	if q.client == nil {
		return nil, nil
	}

	if limit <= 0 {
		limit = 50
	}

	values, err := q.client.LRange(ctx, reviewQueueKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(values))
	for _, value := range values {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			q.logger.Warn().Str("value", value).Msg("skipping malformed review queue entry")
			continue
		}
		ids = append(ids, uint(parsed))
	}

	return ids, nil
}
