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
	OrderBatchSize    = 100
	OrderBatchTimeout = 2 * time.Second
	OrderPollTimeout  = 1 * time.Second
)

// OrderWorker consumes the question order queue and persists each
// student's shuffled order to their attempt row in one bulk UPDATE.
type OrderWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewOrderWorker creates a new OrderWorker.
func NewOrderWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *OrderWorker {
	return &OrderWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "order_worker").Logger(),
	}
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *OrderWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*OrderPayload, 0, OrderBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= OrderBatchSize || time.Since(lastFlush) >= OrderBatchTimeout) {

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
			item, err := w.rdb.BLPop(ctx, OrderPollTimeout, config.WorkerKey.PersistQuestionOrderQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p OrderPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *OrderWorker) flushSafe(ctx context.Context, batch []*OrderPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateOrders(ctx, batch); err != nil {
		w.log.Error().Err(err).Msg("bulk order update failed, requeueing batch")
		for _, p := range batch {
			raw, _ := json.Marshal(p)
			w.rdb.RPush(ctx, config.WorkerKey.PersistQuestionOrderQueue, raw)
		}
	}
}

func (w *OrderWorker) bulkUpdateOrders(ctx context.Context, batch []*OrderPayload) error {
	n := len(batch)

	attemptIDs := make([]uuid.UUID, 0, n)
	orders := make([][]byte, 0, n)

	for _, p := range batch {
		id, err := uuid.Parse(p.AttemptID)
		if err != nil {
			continue
		}
		ob, err := json.Marshal(p.Order)
		if err != nil {
			continue
		}
		attemptIDs = append(attemptIDs, id)
		orders = append(orders, ob)
	}

	query := `
		UPDATE attempts AS a
		SET question_order = t.qo
		FROM (
			SELECT
				u.id,
				u.qo
			FROM UNNEST(
				$1::uuid[],
				$2::jsonb[]
			) AS u (id, qo)
		) AS t
		WHERE a.id = t.id
	`

	_, err := w.pool.Exec(ctx, query, attemptIDs, orders)
	return err
}
