package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/infra"
	"notaentrada/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueFinance = "jobs:finance"
	QueueRepair  = "jobs:repair"
)

// Job types carried in the envelope.
const (
	JobGreenUnits  = "green_units"
	JobCreditNote  = "credit_note"
	JobRepairBatch = "repair_batch"
)

const maxJobAttempts = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// GreenUnitsPayload is the body of a JobGreenUnits job.
type GreenUnitsPayload struct {
	NoteID string            `json:"note_id"`
	Units  []dto.FinanceUnit `json:"units"`
}

// Handler processes one job payload. A returned error triggers a retry and,
// once attempts are exhausted, the dead letter queue.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues triage outcomes into Redis lists for the finance and
// assistance departments. It satisfies the service collaborator interfaces.
type Dispatcher struct {
	rdb *redis.Client
	cb  *infra.Breaker
}

func NewDispatcher(rdb *redis.Client, cb *infra.Breaker) *Dispatcher {
	return &Dispatcher{rdb: rdb, cb: cb}
}

func (d *Dispatcher) ReceiveGreenUnits(ctx context.Context, noteID string, units []dto.FinanceUnit) error {
	return d.enqueue(ctx, QueueFinance, JobGreenUnits, GreenUnitsPayload{NoteID: noteID, Units: units})
}

func (d *Dispatcher) ReceiveCreditNote(ctx context.Context, cn model.SupplierCreditNote) error {
	return d.enqueue(ctx, QueueFinance, JobCreditNote, cn)
}

func (d *Dispatcher) ReceiveRepairBatch(ctx context.Context, batch dto.RepairBatch) error {
	return d.enqueue(ctx, QueueRepair, JobRepairBatch, batch)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	push := func(ctx context.Context) error { return d.rdb.LPush(ctx, queue, encoded).Err() }
	if d.cb == nil {
		return push(ctx)
	}
	if err := d.cb.Do(ctx, push); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]Handler) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, handlers)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, handlers map[string]Handler) {
	queues := []string{QueueFinance, QueueRepair}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			if err := processJob(ctx, handlers, result[0], result[1]); err != nil {
				var job Job
				_ = json.Unmarshal([]byte(result[1]), &job)
				SendToDLQ(ctx, rdb, result[0], job.Type, job.Payload, err.Error(), maxJobAttempts)
			}
		}
	}
}

// processJob decodes the envelope and runs its handler with retries.
// Unknown job types and malformed envelopes are not retried.
func processJob(ctx context.Context, handlers map[string]Handler, queue, raw string) error {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return fmt.Errorf("malformed job: %w", err)
	}
	h, ok := handlers[job.Type]
	if !ok {
		log.Error().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	log.Info().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	return withRetry(ctx, maxJobAttempts, func(attempt int) error {
		err := h(ctx, job.Payload)
		if err != nil {
			log.Warn().Err(err).
				Str("type", job.Type).
				Int("attempt", attempt+1).
				Msg("job attempt failed")
		}
		return err
	})
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
