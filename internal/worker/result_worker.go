package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edulane/quizdesk-backend/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker consumes the result persist queue. Attempt totals are
// written in one bulk UPDATE per batch; each attempt's answer scores are
// upserted row by row, then the Redis answer buffers are cleared.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*ResultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p ResultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*ResultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateAttempts(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk attempt update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	ok := 0
	for _, p := range batch {
		if err := w.persistAnswerScores(ctx, p); err != nil {
			w.log.Error().Err(err).
				Str("attempt_id", p.AttemptID).
				Msg("answer score persist failed, requeueing")
			raw, _ := json.Marshal(p)
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			continue
		}
		ok++
	}

	// After successful persists, drop the autosave buffers in Redis.
	w.bulkClearBuffers(ctx, batch)

	w.log.Debug().Int("persisted", ok).Int("batch", len(batch)).Msg("Batch flushed")
}

func (w *ResultWorker) bulkUpdateAttempts(ctx context.Context, batch []*ResultPayload) error {
	n := len(batch)

	attemptIDs := make([]uuid.UUID, 0, n)
	scores := make([]int, 0, n)
	percentages := make([]float64, 0, n)
	passeds := make([]bool, 0, n)
	completedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		id, err := uuid.Parse(p.AttemptID)
		if err != nil {
			continue
		}
		attemptIDs = append(attemptIDs, id)
		scores = append(scores, p.Score)
		percentages = append(percentages, p.Percentage)
		passeds = append(passeds, p.Passed)
		completedAts = append(completedAts, p.CompletedAt)
	}

	query := `
		UPDATE attempts AS a
		SET status = 'COMPLETED',
		    score = t.score,
		    percentage = t.percentage,
		    passed = t.passed,
		    completed_at = t.completed_at
		FROM (
			SELECT
				u.id,
				u.score,
				u.percentage,
				u.passed,
				u.completed_at
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::float8[],
				$4::bool[],
				$5::timestamptz[]
			) AS u (id, score, percentage, passed, completed_at)
		) AS t
		WHERE a.id = t.id
		  AND a.status = 'IN_PROGRESS'
	`

	_, err := w.pool.Exec(ctx, query, attemptIDs, scores, percentages, passeds, completedAts)
	return err
}

func (w *ResultWorker) persistAnswerScores(ctx context.Context, p *ResultPayload) error {
	attemptID, err := uuid.Parse(p.AttemptID)
	if err != nil {
		return err
	}

	for _, a := range p.Answers {
		valueJSON, err := json.Marshal(a.AnswerValue)
		if err != nil {
			return err
		}
		_, err = w.pool.Exec(ctx,
			`INSERT INTO answers (attempt_id, question_id, value, is_correct, points_earned, feedback, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 ON CONFLICT (attempt_id, question_id)
			 DO UPDATE SET value = EXCLUDED.value,
			               is_correct = EXCLUDED.is_correct,
			               points_earned = EXCLUDED.points_earned,
			               updated_at = NOW()`,
			attemptID, a.QuestionID, valueJSON, a.IsCorrect, a.PointsEarned, a.Feedback)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *ResultWorker) bulkClearBuffers(ctx context.Context, batch []*ResultPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.StudentAnswersKey(p.QuizID, p.StudentID))
	}
	_, _ = pipe.Exec(ctx)
}

func (w *ResultWorker) persistSingle(ctx context.Context, p *ResultPayload) error {
	attemptID, err := uuid.Parse(p.AttemptID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'COMPLETED',
		     score = $1,
		     percentage = $2,
		     passed = $3,
		     completed_at = $4
		 WHERE id = $5 AND status = 'IN_PROGRESS'`,
		p.Score, p.Percentage, p.Passed, p.CompletedAt, attemptID)
	if err != nil {
		return err
	}
	return w.persistAnswerScores(ctx, p)
}
