package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"fileindex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSink wraps a real sink and counts WriteBatch round-trips.
type countingSink struct {
	Sink
	writes atomic.Int64
}

func (c *countingSink) WriteBatch(ctx context.Context, records []models.FileRecord) (int64, error) {
	c.writes.Add(1)
	return c.Sink.WriteBatch(ctx, records)
}

func testConfig(root string) *models.ScanConfig {
	return &models.ScanConfig{
		Roots:     []string{root},
		DBPath:    "unused.db", // the sink is injected directly
		Workers:   2,
		BatchSize: 2,
		HashMode:  "both",
	}
}

func TestControllerEndToEnd(t *testing.T) {
	root := makeTree(t, map[string][]byte{
		"a.txt":     []byte("alpha"),
		"b.txt":     []byte("beta"),
		"sub/c.txt": []byte("gamma"),
	})
	sink := setupTestSink(t)
	cfg := testConfig(root)

	ctrl := NewController(cfg, sink, testLogger())
	stats, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, ctrl.State())
	assert.EqualValues(t, 3, stats.FilesSeen)
	assert.EqualValues(t, 3, stats.FilesWritten)
	assert.Zero(t, stats.FilesFailed)
	assert.Equal(t, 3, countRows(t, sink))
	assert.Equal(t, 0, ExitCode(err))

	t.Run("hashes populated", func(t *testing.T) {
		var missing int
		require.NoError(t, sink.DB().QueryRow(
			`SELECT COUNT(*) FROM files WHERE sha256 IS NULL OR md5 IS NULL`).Scan(&missing))
		assert.Zero(t, missing)
	})

	t.Run("rescan is idempotent", func(t *testing.T) {
		_, err := NewController(testConfig(root), sink, testLogger()).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 3, countRows(t, sink), "scanning twice must not add rows")

		var distinct, total int
		require.NoError(t, sink.DB().QueryRow(
			`SELECT COUNT(DISTINCT path), COUNT(*) FROM files`).Scan(&distinct, &total))
		assert.Equal(t, total, distinct)
	})

	t.Run("run bookkeeping recorded", func(t *testing.T) {
		var runs int
		require.NoError(t, sink.DB().QueryRow(`SELECT COUNT(*) FROM scan_history`).Scan(&runs))
		assert.Equal(t, 2, runs)

		var lastScan string
		require.NoError(t, sink.DB().QueryRow(
			`SELECT value FROM metadata WHERE key = 'last_scan'`).Scan(&lastScan))
		assert.NotEmpty(t, lastScan)
	})
}

func TestControllerInvalidConfig(t *testing.T) {
	cases := []*models.ScanConfig{
		{Roots: nil, DBPath: "x.db", Workers: 1, BatchSize: 1, HashMode: "none"},
		{Roots: []string{"/tmp"}, DBPath: "x.db", Workers: 1, BatchSize: -5, HashMode: "none"},
		{Roots: []string{"/tmp"}, DBPath: "x.db", Workers: -1, BatchSize: 1, HashMode: "none"},
		{Roots: []string{"/tmp"}, DBPath: "x.db", Workers: 1, BatchSize: 1, HashMode: "crc32"},
	}

	for _, cfg := range cases {
		sink := &fakeSink{}
		ctrl := NewController(cfg, sink, testLogger())
		_, err := ctrl.Run(context.Background())

		assert.True(t, errors.Is(err, ErrConfiguration), "cfg %+v: got %v", cfg, err)
		assert.Equal(t, StateFailed, ctrl.State())
		assert.Equal(t, ExitConfiguration, ExitCode(err))
		assert.Zero(t, sink.calls(), "nothing downstream may start on bad config")
	}
}

func TestControllerCancellation(t *testing.T) {
	root := makeTree(t, map[string][]byte{"a.txt": []byte("a")})
	sink := setupTestSink(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ctrl := NewController(testConfig(root), sink, testLogger())
	_, err := ctrl.Run(ctx)
	require.NoError(t, err, "graceful cancellation is not a failure")
	assert.Equal(t, StateCompleted, ctrl.State())
}

func TestControllerFatalDuringScan(t *testing.T) {
	files := make(map[string][]byte, 300)
	for i := 0; i < 300; i++ {
		files[fmt.Sprintf("f%03d.txt", i)] = []byte("x")
	}
	root := makeTree(t, files)

	sink := &fakeSink{errs: []error{fmt.Errorf("%w: no such table: files", ErrSchema)}}
	cfg := &models.ScanConfig{
		Roots:     []string{root},
		DBPath:    "unused.db",
		Workers:   2,
		BatchSize: 1,
		HashMode:  "none",
	}

	ctrl := NewController(cfg, sink, testLogger())
	_, err := ctrl.Run(context.Background())
	require.ErrorIs(t, err, ErrSchema)
	require.Equal(t, StateFailed, ctrl.State())
	assert.Equal(t, ExitSchema, ExitCode(err))

	// The enumerator goroutine may still be unwinding after Run returns; the
	// failed state must hold once decided.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateFailed, ctrl.State())
}

// The reference scenario: three candidate files, one of them unreadable,
// batch size two, hashing enabled.
func TestScenarioPartialFailure(t *testing.T) {
	content := make([]byte, 1_000_000)
	rand.New(rand.NewSource(7)).Read(content)

	root := makeTree(t, map[string][]byte{
		"a.txt": []byte("0123456789"), // 10 bytes
		"b.bin": content,
	})
	unreadable := filepath.Join(root, "c.txt") // never created: stat fails

	sink := setupTestSink(t)
	counting := &countingSink{Sink: sink}

	var counters Counters
	pool := NewPool(2, HashBoth, &counters, testLogger())
	out := make(chan models.FileRecord)
	pool.Run(context.Background(), feedPaths(
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b.bin"),
		unreadable,
	), out)

	acc := NewAccumulator(counting, 2, false, fastRetry(1), &counters, testLogger())
	err := acc.Run(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err), "per-file skips still exit zero")

	assert.Equal(t, 2, countRows(t, sink))
	assert.EqualValues(t, 1, counters.FilesFailed.Load())
	assert.EqualValues(t, 1, counting.writes.Load(), "two writable files fit one batch")

	sum := sha256.Sum256(content)
	var got string
	require.NoError(t, sink.DB().QueryRow(
		`SELECT sha256 FROM files WHERE name = 'b.bin'`).Scan(&got))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}
