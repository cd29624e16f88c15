package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fileindex/models"

	"github.com/rs/zerolog"
)

// RetryPolicy bounds the retry loop around a flush. Delays double per
// attempt, capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}
}

// Accumulator collects records into bounded batches and flushes them to the
// sink. Flushes are synchronous: the next batch does not start its write
// until the previous flush has returned, so a slow sink back-pressures the
// workers through the records channel.
type Accumulator struct {
	sink      Sink
	batchSize int
	failFast  bool
	retry     RetryPolicy
	counters  *Counters
	log       zerolog.Logger
}

func NewAccumulator(sink Sink, batchSize int, failFast bool, retry RetryPolicy, counters *Counters, log zerolog.Logger) *Accumulator {
	return &Accumulator{
		sink:      sink,
		batchSize: batchSize,
		failFast:  failFast,
		retry:     retry,
		counters:  counters,
		log:       log,
	}
}

// Run consumes records until the channel closes, then flushes the final
// partial batch. A batch-level failure is counted and the run continues
// with the next batch, unless fail-fast mode is set or the failure is
// fatal (schema error, retries exhausted). The flush itself is never
// interrupted by cancellation; a graceful cancel drains whatever the
// accumulator currently holds.
func (a *Accumulator) Run(ctx context.Context, records <-chan models.FileRecord) error {
	batch := make([]models.FileRecord, 0, a.batchSize)

	for rec := range records {
		batch = append(batch, rec)
		if len(batch) < a.batchSize {
			continue
		}
		if err := a.flushChecked(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
	}

	if len(batch) == 0 {
		return nil
	}
	return a.flushChecked(ctx, batch)
}

func (a *Accumulator) flushChecked(ctx context.Context, batch []models.FileRecord) error {
	err := a.flush(ctx, batch)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSchema) || errors.Is(err, ErrConnectivity) {
		return err
	}
	if a.failFast {
		return fmt.Errorf("%w: batch of %d records: %v", ErrFailFast, len(batch), err)
	}
	a.counters.FilesFailed.Add(int64(len(batch)))
	a.log.Error().Int("records", len(batch)).Err(err).Msg("batch write failed, continuing")
	return nil
}

// flush writes one batch, retrying transient connectivity failures with
// exponential backoff up to the attempt cap. Schema errors abort at once.
func (a *Accumulator) flush(ctx context.Context, batch []models.FileRecord) error {
	// The write must not be abandoned mid-flight by a graceful cancel.
	writeCtx := context.WithoutCancel(ctx)

	delay := a.retry.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= a.retry.MaxAttempts; attempt++ {
		rows, err := a.sink.WriteBatch(writeCtx, batch)
		if err == nil {
			a.counters.FilesWritten.Add(int64(len(batch)))
			a.counters.Batches.Add(1)
			a.log.Debug().Int("records", len(batch)).Int64("rows", rows).Msg("batch flushed")
			return nil
		}
		if !errors.Is(err, ErrConnectivity) {
			return err
		}

		lastErr = err
		if attempt == a.retry.MaxAttempts {
			break
		}
		a.log.Warn().Int("attempt", attempt).Dur("backoff", delay).Err(err).Msg("batch write failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// Cancelled while backing off: give up on retries but report
			// the original failure.
			return fmt.Errorf("retry interrupted: %w", lastErr)
		}
		delay *= 2
		if delay > a.retry.MaxDelay {
			delay = a.retry.MaxDelay
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", a.retry.MaxAttempts, lastErr)
}
