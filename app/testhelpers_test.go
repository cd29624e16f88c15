package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fileindex/models"

	"github.com/rs/zerolog"
)

// setupTestSink creates a temporary SQLite database with the schema applied.
func setupTestSink(t *testing.T) *SQLiteSink {
	t.Helper()

	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open sink: %v", err)
	}
	if err := sink.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	t.Cleanup(func() { sink.Close() })

	return sink
}

// makeTree materializes files (path -> content) under a fresh temp root and
// returns the root path.
func makeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	return root
}

// testRecord builds a minimal valid FileRecord for sink-level tests.
func testRecord(path string, size int64) models.FileRecord {
	now := time.Now()
	return models.FileRecord{
		Path:       path,
		Name:       filepath.Base(path),
		Dir:        filepath.Dir(path),
		Ext:        filepath.Ext(path),
		Size:       size,
		ModTime:    now,
		ChangeTime: now,
		AccessTime: now,
		Attributes: "-rw-r--r--",
		PathLength: len(path),
		PathDepth:  1,
		ScannedAt:  now,
	}
}

func countRows(t *testing.T, sink *SQLiteSink) int {
	t.Helper()

	var count int
	if err := sink.DB().QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// fakeSink records WriteBatch calls and plays back scripted errors, one per
// call, for accumulator tests.
type fakeSink struct {
	mu      sync.Mutex
	batches [][]models.FileRecord
	errs    []error
}

func (f *fakeSink) EnsureSchema(context.Context) error { return nil }

func (f *fakeSink) WriteBatch(_ context.Context, records []models.FileRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	batch := make([]models.FileRecord, len(records))
	copy(batch, records)
	f.batches = append(f.batches, batch)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	return int64(len(records)), nil
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeSink) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	sizes := make([]int, len(f.batches))
	for i, b := range f.batches {
		sizes[i] = len(b)
	}
	return sizes
}

// feedRecords pushes records into a fresh channel and closes it.
func feedRecords(records ...models.FileRecord) <-chan models.FileRecord {
	ch := make(chan models.FileRecord, len(records))
	for _, rec := range records {
		ch <- rec
	}
	close(ch)
	return ch
}

// feedPaths pushes paths into a fresh channel and closes it.
func feedPaths(paths ...string) <-chan string {
	ch := make(chan string, len(paths))
	for _, p := range paths {
		ch <- p
	}
	close(ch)
	return ch
}
