package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"fileindex/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the lifecycle of a scan run.
type State int

const (
	StateConfiguring State = iota
	StateScanning
	StateDraining
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateScanning:
		return "scanning"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Controller orchestrates one scan run: it validates the configuration,
// wires enumerator, worker pool and accumulator together, aggregates live
// counters, and decides the terminal state. Batches already committed stay
// committed even when the run fails.
type Controller struct {
	cfg  *models.ScanConfig
	sink Sink
	log  zerolog.Logger

	mu       sync.Mutex
	state    State
	counters Counters
	runID    string
}

func NewController(cfg *models.ScanConfig, sink Sink, log zerolog.Logger) *Controller {
	return &Controller{
		cfg:   cfg,
		sink:  sink,
		log:   log,
		state: StateConfiguring,
		runID: uuid.NewString(),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setState transitions the run state. Completed and Failed are terminal: a
// lagging Draining transition from the enumerator goroutine must not
// overwrite the outcome already decided by Run.
func (c *Controller) setState(s State) {
	c.mu.Lock()
	if c.state == StateCompleted || c.state == StateFailed {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.log.Info().Stringer("state", s).Msg("run state changed")
}

// Run executes the full pipeline and returns the final statistics. The
// returned error, if any, classifies the fatal category; per-file skips are
// reported through the stats, not the error.
func (c *Controller) Run(ctx context.Context) (models.RunStats, error) {
	stats := models.RunStats{RunID: c.runID, StartedAt: time.Now()}

	err := c.run(ctx, &stats)

	stats.FinishedAt = time.Now()
	c.counters.fill(&stats)

	if err != nil {
		c.setState(StateFailed)
		c.log.Error().
			Err(err).
			Int64("files_seen", stats.FilesSeen).
			Int64("files_written", stats.FilesWritten).
			Int64("files_failed", stats.FilesFailed).
			Msg("run failed")
		return stats, err
	}

	c.setState(StateCompleted)
	c.recordOutcome(ctx, stats)
	c.log.Info().
		Int64("files_seen", stats.FilesSeen).
		Int64("files_written", stats.FilesWritten).
		Int64("files_failed", stats.FilesFailed).
		Int64("bytes_hashed", stats.BytesHashed).
		Dur("elapsed", stats.FinishedAt.Sub(stats.StartedAt)).
		Msg("run completed")
	return stats, nil
}

func (c *Controller) run(ctx context.Context, stats *models.RunStats) error {
	ApplyDefaults(c.cfg)
	if err := Validate(c.cfg); err != nil {
		return err
	}
	mode, err := ParseHashMode(c.cfg.HashMode)
	if err != nil {
		return err
	}
	// Schema ensure runs even when cancellation already fired: a graceful
	// cancel still drains through the sink.
	if err := c.sink.EnsureSchema(context.WithoutCancel(ctx)); err != nil {
		if errors.Is(err, ErrSchema) {
			return err
		}
		return fmt.Errorf("%w: datastore unreachable at schema-ensure: %v", ErrConfiguration, err)
	}

	c.setState(StateScanning)
	c.log.Info().
		Strs("roots", c.cfg.Roots).
		Int("workers", c.cfg.Workers).
		Int("batch_size", c.cfg.BatchSize).
		Stringer("hash_mode", mode).
		Str("run_id", c.runID).
		Msg("scan starting")

	// A fatal sink error must also stop the producers, not just this
	// goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	paths := make(chan string, 4*c.cfg.BatchSize)
	records := make(chan models.FileRecord, 2*c.cfg.BatchSize)

	walker := NewWalker(c.cfg.Roots, c.cfg.Include, c.cfg.Exclude, c.cfg.FollowSymlinks, c.log)
	pool := NewPool(c.cfg.Workers, mode, &c.counters, c.log)
	acc := NewAccumulator(c.sink, c.cfg.BatchSize, c.cfg.FailFast, DefaultRetryPolicy(), &c.counters, c.log)

	walkErr := make(chan error, 1)
	go func() {
		err := walker.Run(ctx, paths)
		// Enumeration finished; whatever is still in flight is draining.
		c.setState(StateDraining)
		walkErr <- err
	}()

	pool.Run(ctx, paths, records)

	progress := NewProgressReporter(&c.counters, 10*time.Second, c.log)
	progress.Start()
	defer progress.Stop()

	if err := acc.Run(ctx, records); err != nil {
		return err
	}
	if err := <-walkErr; err != nil && !isCanceled(err) {
		return err
	}
	if err := ctx.Err(); err != nil {
		c.log.Warn().Msg("scan cancelled, partial progress committed")
	}
	return nil
}

// recordOutcome persists last_scan and the scan history entry. Bookkeeping
// failures are logged, not fatal: the data itself is already committed.
func (c *Controller) recordOutcome(ctx context.Context, stats models.RunStats) {
	rec, ok := c.sink.(interface {
		SetMetadata(ctx context.Context, key, value string) error
		RecordRun(ctx context.Context, runID string, finished time.Time, statsJSON string) error
	})
	if !ok {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if err := rec.SetMetadata(ctx, "last_scan", stats.FinishedAt.Format(time.RFC3339)); err != nil {
		c.log.Warn().Err(err).Msg("failed to record last_scan")
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := rec.RecordRun(ctx, stats.RunID, stats.FinishedAt, string(raw)); err != nil {
		c.log.Warn().Err(err).Msg("failed to record scan history")
	}
}
