package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/metrics"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	PredictionBatchSize    = 50
	PredictionBatchTimeout = 2 * time.Second
	PredictionPollTimeout  = 1 * time.Second
	// PredictionMaxAttempts bounds single-row inserts before a prediction
	// is parked on the dead-letter list.
	PredictionMaxAttempts = 5
)

// queuedPrediction is the queue payload. Attempts is absent on first enqueue.
type queuedPrediction struct {
	model.Prediction
	Attempts int `json:"attempts,omitempty"`
}

type predictionWriter interface {
	BulkCreate(ctx context.Context, batch []*model.Prediction) error
	Create(ctx context.Context, p *model.Prediction) error
}

// PredictionWorker drains queued predictions into Postgres in batches.
type PredictionWorker struct {
	store predictionWriter
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewPredictionWorker(store predictionWriter, rdb *redis.Client, log zerolog.Logger) *PredictionWorker {
	return &PredictionWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "prediction_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *PredictionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("PredictionWorker started")

	batch := make([]*queuedPrediction, 0, PredictionBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= PredictionBatchSize || time.Since(lastFlush) >= PredictionBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			if p, ok := w.next(ctx); ok {
				batch = append(batch, p)
			}
		}
	}
}

// next pops one queued prediction, waiting up to PredictionPollTimeout.
func (w *PredictionWorker) next(ctx context.Context) (*queuedPrediction, bool) {
	item, err := w.rdb.BLPop(ctx, PredictionPollTimeout, config.WorkerKey.PersistPredictionsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return nil, false
	}
	if len(item) < 2 {
		return nil, false
	}

	var p queuedPrediction
	if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return nil, false
	}
	return &p, true
}

// ----------------------------------------------------------------
// Bulk insert with single-row fallback
// ----------------------------------------------------------------

func (w *PredictionWorker) flushSafe(ctx context.Context, batch []*queuedPrediction) {
	if len(batch) == 0 {
		return
	}

	rows := make([]*model.Prediction, len(batch))
	for i, q := range batch {
		rows[i] = &q.Prediction
	}

	if err := w.store.BulkCreate(ctx, rows); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk prediction insert failed, using fallback")

		persisted := 0
		for _, q := range batch {
			if err := w.store.Create(ctx, &q.Prediction); err != nil {
				q.Attempts++
				if q.Attempts >= PredictionMaxAttempts {
					w.log.Error().Err(err).Int("student_id", q.StudentID).Int("attempts", q.Attempts).Msg("single insert failed, moving to dead letter")
					w.deadLetter(ctx, q)
					continue
				}
				w.log.Error().Err(err).Int("student_id", q.StudentID).Int("attempts", q.Attempts).Msg("single insert failed, requeueing")
				w.requeue(ctx, q)
				continue
			}
			persisted++
		}
		w.persisted(ctx, persisted)
		return
	}

	w.persisted(ctx, len(batch))
}

func (w *PredictionWorker) persisted(ctx context.Context, n int) {
	if n == 0 {
		return
	}
	metrics.PredictionsPersisted.Add(float64(n))
	service.InvalidateDashboards(ctx, w.rdb, w.log)
	w.log.Debug().Int("count", n).Msg("Predictions persisted")
}

func (w *PredictionWorker) requeue(ctx context.Context, q *queuedPrediction) {
	if w.push(ctx, config.WorkerKey.PersistPredictionsQueue, q) {
		metrics.PredictionsRequeued.Inc()
	}
}

func (w *PredictionWorker) deadLetter(ctx context.Context, q *queuedPrediction) {
	if w.push(ctx, config.WorkerKey.PersistPredictionsDeadLetter, q) {
		metrics.PredictionsDeadLettered.Inc()
	}
}

func (w *PredictionWorker) push(ctx context.Context, key string, q *queuedPrediction) bool {
	raw, err := json.Marshal(q)
	if err != nil {
		return false
	}
	if err := w.rdb.RPush(ctx, key, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("key", key).Int("student_id", q.StudentID).Msg("push failed, prediction dropped")
		return false
	}
	return true
}
