package app

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"fileindex/models"

	"github.com/rs/zerolog"
)

func defaultWorkers() int {
	return runtime.NumCPU()
}

// Counters are the live counters of a scan run, shared between the pool,
// the accumulator and the progress reporter.
type Counters struct {
	FilesSeen    atomic.Int64
	FilesWritten atomic.Int64
	FilesFailed  atomic.Int64
	BytesHashed  atomic.Int64
	Batches      atomic.Int64
}

func (c *Counters) fill(stats *models.RunStats) {
	stats.FilesSeen = c.FilesSeen.Load()
	stats.FilesWritten = c.FilesWritten.Load()
	stats.FilesFailed = c.FilesFailed.Load()
	stats.BytesHashed = c.BytesHashed.Load()
	stats.Batches = c.Batches.Load()
}

// Pool is a fixed-size set of workers turning paths into FileRecords. Each
// worker runs metadata extraction and, when enabled, hashing. A failure in
// one file is logged and counted, never fatal to the worker or the run; a
// hashing failure drops the whole record rather than persisting it without
// digests.
type Pool struct {
	workers  int
	mode     HashMode
	counters *Counters
	log      zerolog.Logger
}

func NewPool(workers int, mode HashMode, counters *Counters, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = defaultWorkers()
	}
	return &Pool{workers: workers, mode: mode, counters: counters, log: log}
}

// Run starts the workers consuming paths and emitting records on out. The
// output channel is closed exactly once, after the input is exhausted and
// all in-flight work has completed.
func (p *Pool) Run(ctx context.Context, paths <-chan string, out chan<- models.FileRecord) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, paths, out)
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
}

func (p *Pool) worker(ctx context.Context, paths <-chan string, out chan<- models.FileRecord) {
	for path := range paths {
		p.counters.FilesSeen.Add(1)

		rec, err := p.process(path)
		if err != nil {
			p.counters.FilesFailed.Add(1)
			p.log.Warn().Str("path", path).Err(err).Msg("skipping file")
			continue
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) process(path string) (models.FileRecord, error) {
	rec, err := ExtractMetadata(path)
	if err != nil {
		return rec, err
	}

	if p.mode != HashNone {
		digests, n, err := ComputeDigests(path, p.mode)
		p.counters.BytesHashed.Add(n)
		if err != nil {
			return rec, err
		}
		rec.SHA256 = digests.SHA256
		rec.MD5 = digests.MD5
	}
	return rec, nil
}
