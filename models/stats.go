package models

import "time"

// RunStats is the aggregate outcome of one scan run.
type RunStats struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	FilesSeen    int64     `json:"files_seen"`
	FilesWritten int64     `json:"files_written"`
	FilesFailed  int64     `json:"files_failed"`
	BytesHashed  int64     `json:"bytes_hashed"`
	Batches      int64     `json:"batches"`
}

// TableStats summarizes the whole files table.
type TableStats struct {
	TotalFiles  int64     `json:"total_files"`
	TotalSize   int64     `json:"total_size"`
	AvgFileSize int64     `json:"avg_file_size"`
	OldestFile  time.Time `json:"oldest_file"`
	NewestFile  time.Time `json:"newest_file"`
	LastScan    time.Time `json:"last_scan"`
}

type ExtensionStats struct {
	Extension string `json:"extension"`
	Count     int64  `json:"count"`
	Size      int64  `json:"size"`
}

// DuplicateGroup is a set of paths sharing one SHA-256 digest.
type DuplicateGroup struct {
	SHA256    string   `json:"sha256"`
	Count     int64    `json:"count"`
	TotalSize int64    `json:"total_size"`
	Paths     []string `json:"paths"`
}

// RangeStats is one bucket of a size or path-length distribution.
type RangeStats struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
	Size  int64  `json:"size"`
}
