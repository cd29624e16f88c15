package app

import (
	"database/sql"
	"time"

	"fileindex/models"
)

// StatsReader runs the analytical queries the secondary indexes exist for:
// aggregate counts, duplicate detection by hash, size and path-length
// distributions. It is a read-only companion to the ingestion pipeline.
type StatsReader struct {
	db *sql.DB
}

func NewStatsReader(db *sql.DB) *StatsReader {
	return &StatsReader{db: db}
}

func (r *StatsReader) TableStats() (*models.TableStats, error) {
	stats := &models.TableStats{}

	err := r.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files`).
		Scan(&stats.TotalFiles, &stats.TotalSize)
	if err != nil {
		return nil, err
	}
	if stats.TotalFiles > 0 {
		stats.AvgFileSize = stats.TotalSize / stats.TotalFiles
	}

	var oldest, newest sql.NullFloat64
	err = r.db.QueryRow(`SELECT MIN(mtime_unix), MAX(mtime_unix) FROM files`).Scan(&oldest, &newest)
	if err == nil {
		if oldest.Valid {
			stats.OldestFile = time.UnixMicro(int64(oldest.Float64 * 1e6))
		}
		if newest.Valid {
			stats.NewestFile = time.UnixMicro(int64(newest.Float64 * 1e6))
		}
	}

	var lastScan string
	if err := r.db.QueryRow(`SELECT value FROM metadata WHERE key = 'last_scan'`).Scan(&lastScan); err == nil {
		stats.LastScan, _ = time.Parse(time.RFC3339, lastScan)
	}

	return stats, nil
}

// TopExtensions returns the most frequent extensions with their cumulative
// sizes, largest count first.
func (r *StatsReader) TopExtensions(limit int) ([]models.ExtensionStats, error) {
	rows, err := r.db.Query(`
		SELECT extension, COUNT(*) AS cnt, COALESCE(SUM(size), 0)
		FROM files
		WHERE extension != ''
		GROUP BY extension
		ORDER BY cnt DESC, extension
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ExtensionStats
	for rows.Next() {
		var e models.ExtensionStats
		if err := rows.Scan(&e.Extension, &e.Count, &e.Size); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DuplicateGroups returns hash groups holding more than one path, largest
// wasted size first. Rows without a hash are ignored.
func (r *StatsReader) DuplicateGroups(limit int) ([]models.DuplicateGroup, error) {
	rows, err := r.db.Query(`
		SELECT sha256, COUNT(*) AS cnt, COALESCE(SUM(size), 0) AS total
		FROM files
		WHERE sha256 IS NOT NULL
		GROUP BY sha256
		HAVING cnt > 1
		ORDER BY total DESC, sha256
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.DuplicateGroup
	for rows.Next() {
		var g models.DuplicateGroup
		if err := rows.Scan(&g.SHA256, &g.Count, &g.TotalSize); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		paths, err := r.duplicatePaths(groups[i].SHA256)
		if err != nil {
			return nil, err
		}
		groups[i].Paths = paths
	}
	return groups, nil
}

func (r *StatsReader) duplicatePaths(sha string) ([]string, error) {
	rows, err := r.db.Query(`SELECT path FROM files WHERE sha256 = ? ORDER BY path`, sha)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

type bucket struct {
	label string
	min   int64
	max   int64 // exclusive, <0 = unbounded
}

var sizeBuckets = []bucket{
	{"< 1 KB", 0, 1 << 10},
	{"1 KB - 1 MB", 1 << 10, 1 << 20},
	{"1 MB - 100 MB", 1 << 20, 100 << 20},
	{"100 MB - 1 GB", 100 << 20, 1 << 30},
	{"> 1 GB", 1 << 30, -1},
}

var pathLengthBuckets = []bucket{
	{"< 64", 0, 64},
	{"64 - 127", 64, 128},
	{"128 - 199", 128, 200},
	{"200 - 259", 200, 260},
	{">= 260", 260, -1},
}

// SizeDistribution buckets files by size.
func (r *StatsReader) SizeDistribution() ([]models.RangeStats, error) {
	return r.distribution("size", sizeBuckets)
}

// PathLengthDistribution buckets files by path character count; the top
// bucket flags paths beyond the classic Windows MAX_PATH limit.
func (r *StatsReader) PathLengthDistribution() ([]models.RangeStats, error) {
	return r.distribution("path_length", pathLengthBuckets)
}

func (r *StatsReader) distribution(column string, buckets []bucket) ([]models.RangeStats, error) {
	out := make([]models.RangeStats, 0, len(buckets))
	for _, b := range buckets {
		var rs models.RangeStats
		rs.Label = b.label

		query := `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files WHERE ` + column + ` >= ?`
		args := []any{b.min}
		if b.max >= 0 {
			query += ` AND ` + column + ` < ?`
			args = append(args, b.max)
		}
		if err := r.db.QueryRow(query, args...).Scan(&rs.Count, &rs.Size); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}
