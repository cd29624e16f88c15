package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fileindex/app"
	"fileindex/models"
	"fileindex/web"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	roots := flag.String("roots", "", "Comma-separated root directories to scan")
	dbPath := flag.String("db", "", "SQLite database file to write")
	workers := flag.Int("workers", 0, "Number of scan workers (0 = CPU count)")
	batchSize := flag.Int("batch-size", 0, "Records per database batch")
	hashBoth := flag.Bool("hash", false, "Compute SHA-256 and MD5 for each file (slow)")
	hashMode := flag.String("hash-mode", "", "Digest selection: none, sha256, md5, both")
	include := flag.String("include", "", "Comma-separated include glob patterns")
	exclude := flag.String("exclude", "", "Comma-separated exclude glob patterns")
	followSymlinks := flag.Bool("follow-symlinks", false, "Follow symlinks when walking")
	failFast := flag.Bool("fail-fast", false, "Abort the run on the first batch-write failure")
	report := flag.Bool("report", false, "Print aggregate statistics for the database and exit")
	serve := flag.String("serve", "", "Serve statistics as JSON on this address (e.g. :8080) and exit")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := newLogger(*verbose)

	cfg := &models.ScanConfig{}
	if *configPath != "" {
		loaded, err := app.LoadConfig(*configPath)
		if err != nil {
			log.Error().Err(err).Msg("failed to load config")
			os.Exit(app.ExitCode(err))
		}
		cfg = loaded
	}
	overlayFlags(cfg, *roots, *dbPath, *workers, *batchSize, *hashBoth, *hashMode,
		*include, *exclude, *followSymlinks, *failFast)
	app.ApplyDefaults(cfg)

	switch {
	case *report:
		os.Exit(runReport(cfg, log))
	case *serve != "":
		os.Exit(runServe(cfg, *serve, log))
	default:
		os.Exit(runScan(cfg, log))
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// overlayFlags lets explicit CLI flags win over config file values.
func overlayFlags(cfg *models.ScanConfig, roots, dbPath string, workers, batchSize int,
	hashBoth bool, hashMode, include, exclude string, followSymlinks, failFast bool) {
	if roots != "" {
		cfg.Roots = splitList(roots)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if batchSize != 0 {
		cfg.BatchSize = batchSize
	}
	if hashBoth {
		cfg.HashMode = "both"
	}
	if hashMode != "" {
		cfg.HashMode = hashMode
	}
	if include != "" {
		cfg.Include = splitList(include)
	}
	if exclude != "" {
		cfg.Exclude = splitList(exclude)
	}
	if followSymlinks {
		cfg.FollowSymlinks = true
	}
	if failFast {
		cfg.FailFast = true
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runScan(cfg *models.ScanConfig, log zerolog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := app.NewSQLiteSink(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		return app.ExitCode(fmt.Errorf("%w: %v", app.ErrConfiguration, err))
	}
	defer sink.Close()

	stats, err := app.NewController(cfg, sink, log).Run(ctx)
	if err != nil {
		return app.ExitCode(err)
	}

	fmt.Printf("Scanned %d files in %s: %d written, %d skipped, %s hashed\n",
		stats.FilesSeen,
		stats.FinishedAt.Sub(stats.StartedAt).Round(time.Millisecond),
		stats.FilesWritten,
		stats.FilesFailed,
		humanize.Bytes(uint64(stats.BytesHashed)))
	return app.ExitOK
}

func runReport(cfg *models.ScanConfig, log zerolog.Logger) int {
	db, err := app.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		return app.ExitConfiguration
	}
	defer db.Close()

	reader := app.NewStatsReader(db)
	table, err := reader.TableStats()
	if err != nil {
		log.Error().Err(err).Msg("stats query failed")
		return app.ExitFailed
	}

	fmt.Printf("Files:      %d\n", table.TotalFiles)
	fmt.Printf("Total size: %s\n", humanize.Bytes(uint64(table.TotalSize)))
	fmt.Printf("Avg size:   %s\n", humanize.Bytes(uint64(table.AvgFileSize)))
	if !table.LastScan.IsZero() {
		fmt.Printf("Last scan:  %s\n", table.LastScan.Format(time.RFC3339))
	}

	if extensions, err := reader.TopExtensions(10); err == nil && len(extensions) > 0 {
		fmt.Println("\nTop extensions:")
		for _, e := range extensions {
			fmt.Printf("  %-10s %8d  %s\n", e.Extension, e.Count, humanize.Bytes(uint64(e.Size)))
		}
	}

	if groups, err := reader.DuplicateGroups(10); err == nil && len(groups) > 0 {
		fmt.Println("\nDuplicate groups:")
		for _, g := range groups {
			fmt.Printf("  %s  %d files, %s\n", g.SHA256[:12], g.Count, humanize.Bytes(uint64(g.TotalSize)))
		}
	}
	return app.ExitOK
}

func runServe(cfg *models.ScanConfig, addr string, log zerolog.Logger) int {
	db, err := app.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		return app.ExitConfiguration
	}
	defer db.Close()

	server := web.NewServer(app.NewStatsReader(db), log)
	if err := server.Listen(addr); err != nil {
		log.Error().Err(err).Msg("server failed")
		return app.ExitFailed
	}
	return app.ExitOK
}
