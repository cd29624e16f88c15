package app

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// ProgressReporter periodically logs throughput while a scan is running.
// It is a collaborator surface only; nothing in the pipeline depends on it.
type ProgressReporter struct {
	counters *Counters
	interval time.Duration
	log      zerolog.Logger

	start time.Time
	done  chan struct{}
	wg    sync.WaitGroup
}

func NewProgressReporter(counters *Counters, interval time.Duration, log zerolog.Logger) *ProgressReporter {
	return &ProgressReporter{
		counters: counters,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (p *ProgressReporter) Start() {
	p.start = time.Now()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.report()
			case <-p.done:
				return
			}
		}
	}()
}

func (p *ProgressReporter) Stop() {
	close(p.done)
	p.wg.Wait()
}

func (p *ProgressReporter) report() {
	elapsed := time.Since(p.start)
	seen := p.counters.FilesSeen.Load()
	hashed := p.counters.BytesHashed.Load()

	rate := float64(seen) / elapsed.Seconds()
	byteRate := uint64(float64(hashed) / elapsed.Seconds())

	p.log.Info().
		Int64("seen", seen).
		Int64("written", p.counters.FilesWritten.Load()).
		Int64("failed", p.counters.FilesFailed.Load()).
		Str("elapsed", elapsed.Round(time.Second).String()).
		Str("rate", humanize.CommafWithDigits(rate, 0)+" files/s").
		Str("hash_rate", humanize.Bytes(byteRate)+"/s").
		Msg("progress")
}
