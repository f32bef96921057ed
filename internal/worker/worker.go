// Package worker drains the publish queue: expand, guard, execute,
// record, acknowledge.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"app/internal/executor"
	"app/internal/expand"
	"app/internal/history"
	"app/internal/idempotency"
	"app/internal/model"
	"app/internal/queue"
)

// Queue is the transport the worker consumes. Satisfied by
// queue.Client; tests substitute a fake.
type Queue interface {
	Receive(ctx context.Context) ([]queue.Message, error)
	DeleteBatch(ctx context.Context, handles []string) error
	ChangeVisibility(ctx context.Context, handle string, timeoutSec int32) error
}

// MediaResolver optionally rewrites job media references before the
// engine runs. Satisfied by media.Resolver.
type MediaResolver interface {
	Resolve(ctx context.Context, job *model.PlatformJob) error
}

type Worker struct {
	queue   Queue
	guard   *idempotency.Guard
	exec    executor.Executor
	history history.Store
	media   MediaResolver

	visibilitySec   int32
	receiveErrSleep time.Duration
	logger          zerolog.Logger
}

func New(q Queue, guard *idempotency.Guard, exec executor.Executor, store history.Store, media MediaResolver, visibilitySec int, receiveErrSleep time.Duration, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:           q,
		guard:           guard,
		exec:            exec,
		history:         store,
		media:           media,
		visibilitySec:   int32(visibilitySec),
		receiveErrSleep: receiveErrSleep,
		logger:          logger.With().Str("component", "worker").Logger(),
	}
}

// Run loops until ctx is canceled. Receive-level failures are
// infrastructure faults, never terminal: log, sleep, retry.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("Starting publish worker")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down publish worker")
			return nil
		default:
		}

		msgs, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error receiving from queue")
			time.Sleep(w.receiveErrSleep)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		w.processBatch(ctx, msgs)
	}
}

// processBatch runs each message of one receive batch concurrently,
// then settles acknowledgment in a single pass: one batch delete for
// the succeeded messages, a visibility extension per failed one.
func (w *Worker) processBatch(ctx context.Context, msgs []queue.Message) {
	succeeded := make([]bool, len(msgs))

	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func(i int, msg queue.Message) {
			defer wg.Done()
			if err := w.processMessage(ctx, msg); err != nil {
				w.logger.Error().Err(err).Msg("Message processing failed")
				return
			}
			succeeded[i] = true
		}(i, msg)
	}
	wg.Wait()

	var deletable []string
	for i, msg := range msgs {
		if succeeded[i] {
			deletable = append(deletable, msg.ReceiptHandle)
			continue
		}
		// Double the visibility window so the redelivery backs off
		// without blocking the rest of the batch. If the call fails the
		// message simply reappears at the original timeout, which is
		// safe because of idempotency.
		if err := w.queue.ChangeVisibility(ctx, msg.ReceiptHandle, 2*w.visibilitySec); err != nil {
			w.logger.Error().Err(err).Msg("Error extending message visibility")
		}
	}

	if err := w.queue.DeleteBatch(ctx, deletable); err != nil {
		w.logger.Error().Err(err).Msg("Error deleting processed messages")
	}
}

// processMessage runs every expanded job of one message sequentially.
// The message is the unit of acknowledgment; the job is the unit of
// idempotency. Any job failure fails the whole message.
func (w *Worker) processMessage(ctx context.Context, msg queue.Message) error {
	jobs := expand.Jobs(msg.Body)
	if len(jobs) == 0 {
		jobs = []model.PlatformJob{model.RawJob(msg.Body)}
	}

	for _, job := range jobs {
		key := idempotency.Key(job)
		if w.guard.AlreadyProcessed(ctx, key) {
			w.logger.Info().Str("key", key).Msg("Skipping already-processed job")
			continue
		}

		if w.media != nil {
			if err := w.media.Resolve(ctx, &job); err != nil {
				return fmt.Errorf("resolving media for job %s: %w", key, err)
			}
		}

		result, err := w.exec.Execute(ctx, job)
		if err != nil {
			return fmt.Errorf("executing job %s: %w", key, err)
		}
		w.logger.Info().
			Str("key", key).
			Str("platform", result.Platform).
			Str("post_id", result.PostID).
			Msg("Job published")

		w.guard.MarkProcessed(ctx, key)
		w.recordOutcome(ctx, key, job, result)
	}
	return nil
}

// recordOutcome appends the audit record. Best-effort: a write failure
// never affects the message outcome.
func (w *Worker) recordOutcome(ctx context.Context, key string, job model.PlatformJob, result *model.ExecutionResult) {
	if w.history == nil {
		return
	}
	platform := result.Platform
	if platform == "" {
		platform = job.Payload.Platform
	}
	rec := model.PublishHistoryRecord{
		IdempotencyKey: key,
		Platform:       platform,
		CampaignID:     job.Payload.CampaignID,
		ContentID:      job.Payload.ContentID,
		PostID:         result.PostID,
		Permalink:      result.Permalink,
	}
	if err := w.history.RecordPost(ctx, rec); err != nil {
		w.logger.Error().Err(err).Str("key", key).Msg("Failed to record publish history")
	}
}
