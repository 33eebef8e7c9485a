// Package main primes the SQLite table cache from the live sources so the
// server can answer even when Supabase or R2 is down at startup. With
// -publish it also mirrors every loaded table to the R2 bucket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/garyellow/baera-chatbot-go/internal/app"
	"github.com/garyellow/baera-chatbot-go/internal/config"
	"github.com/garyellow/baera-chatbot-go/internal/logger"
	"github.com/garyellow/baera-chatbot-go/internal/storage"
	"github.com/garyellow/baera-chatbot-go/internal/warmup"
)

type cliOptions struct {
	reset       bool
	publish     bool
	localCSV    bool
	concurrency int
	timeout     time.Duration
}

var errPublishWithoutBucket = errors.New("-publish requires R2_ENABLED=true")

func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("warmup", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&opts.reset, "reset", false, "Delete every cached table before loading")
	fs.BoolVar(&opts.publish, "publish", false, "Upload every loaded table to the R2 bucket")
	fs.BoolVar(&opts.localCSV, "csv", false, "Also read tables from DATA_DIR CSV files")
	fs.IntVar(&opts.concurrency, "concurrency", 4, "Concurrent uploads when publishing")
	fs.DurationVar(&opts.timeout, "timeout", config.KnowledgeLoad, "Overall timeout")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if opts.concurrency <= 0 {
		return cliOptions{}, fmt.Errorf("-concurrency must be positive, got %d", opts.concurrency)
	}
	if opts.timeout <= 0 {
		return cliOptions{}, fmt.Errorf("-timeout must be positive, got %v", opts.timeout)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(2)
	}

	// Live sources are mandatory here; the server alone may run on CSV.
	cfg, err := config.LoadForMode(config.WarmupMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log.Logger)

	if err := run(cfg, opts, log); err != nil {
		log.WithError(err).Error("Warmup failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts cliOptions, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	log.Info("Starting warmup tool")

	db, err := storage.New(ctx, cfg.SQLitePath(), storage.Options{
		BusyTimeout:     config.DatabaseBusyTimeout,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Table cache opened")

	// The cache is the target, never a source.
	sources, err := app.BuildLoader(ctx, cfg, db, nil, app.SourceOptions{LocalCSV: opts.localCSV})
	if err != nil {
		return err
	}

	wopts := warmup.Options{
		Reset:       opts.reset,
		Cache:       db,
		Concurrency: opts.concurrency,
	}
	if opts.publish {
		if sources.Bucket == nil {
			return errPublishWithoutBucket
		}
		wopts.Publisher = sources.Bucket
	}

	start := time.Now()
	stats, err := warmup.Run(ctx, sources.Loader, wopts)
	if err != nil {
		return err
	}

	log.WithField("tables", stats.Tables.Load()).
		WithField("rows", stats.Rows.Load()).
		WithField("published", stats.Published.Load()).
		WithField("failed", stats.Failed.Load()).
		WithField("duration", time.Since(start).Round(time.Millisecond)).
		Info("Warmup complete")
	fmt.Printf("\n✅ Warmup complete: %d tables, %d rows cached, %d published\n",
		stats.Tables.Load(), stats.Rows.Load(), stats.Published.Load())
	return nil
}
