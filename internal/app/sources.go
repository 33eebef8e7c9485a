package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garyellow/baera-chatbot-go/internal/config"
	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
	"github.com/garyellow/baera-chatbot-go/internal/metrics"
	"github.com/garyellow/baera-chatbot-go/internal/r2client"
	"github.com/garyellow/baera-chatbot-go/internal/storage"
)

// SourceOptions selects which sources BuildLoader chains.
type SourceOptions struct {
	// LocalCSV adds the DATA_DIR CSV files after the live sources.
	LocalCSV bool
	// CacheFallback adds the SQLite cache as the last source.
	CacheFallback bool
}

// Sources is the table source chain built from configuration.
type Sources struct {
	Loader *knowledge.Loader
	// Bucket is non-nil when R2 is enabled.
	Bucket *knowledge.BucketSource
	Names  []string
}

// BuildLoader wires the configured table sources in priority order:
// Supabase, R2 bucket, local CSV, SQLite cache. Every table served by a live
// source is written back to the cache.
func BuildLoader(ctx context.Context, cfg *config.Config, db *storage.DB, m *metrics.Metrics, opts SourceOptions) (*Sources, error) {
	var (
		chain  []knowledge.Source
		bucket *knowledge.BucketSource
	)

	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		chain = append(chain, knowledge.NewSupabaseSource(cfg.SupabaseURL, cfg.SupabaseKey, knowledge.SupabaseOptions{
			Timeout:          config.TableFetch,
			RetryCount:       config.TableFetchMaxRetries,
			RetryWaitTime:    config.TableFetchRetryInitial,
			RetryMaxWaitTime: 4 * config.TableFetchRetryInitial,
		}))
	}

	if cfg.R2Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			AccountID:   cfg.R2AccountID,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("r2 client: %w", err)
		}
		bucket = knowledge.NewBucketSource(client, cfg.R2Prefix)
		chain = append(chain, bucket)
	}

	if opts.LocalCSV {
		chain = append(chain, knowledge.NewCSVSource(cfg.DataDir))
	}

	var cache *knowledge.CacheSource
	if db != nil {
		cache = knowledge.NewCacheSource(db)
		if opts.CacheFallback {
			chain = append(chain, cache)
		}
	}

	names := make([]string, len(chain))
	for i, s := range chain {
		names[i] = s.Name()
	}
	slog.InfoContext(ctx, "knowledge sources configured", "sources", names)

	return &Sources{
		Loader: knowledge.NewLoader(knowledge.LoaderConfig{
			Sources:      chain,
			Cache:        cache,
			FetchTimeout: config.TableFetch,
			Metrics:      m,
		}),
		Bucket: bucket,
		Names:  names,
	}, nil
}
