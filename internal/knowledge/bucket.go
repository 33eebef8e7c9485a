package knowledge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/r2client"
)

// ObjectStore is the part of the R2 client the bucket source needs.
type ObjectStore interface {
	GetDecompressed(ctx context.Context, key string) ([]byte, error)
	PutCompressed(ctx context.Context, key string, data []byte) (string, error)
}

// BucketSource reads zstd-compressed CSV objects named <prefix>/<table>.csv.zst.
type BucketSource struct {
	store  ObjectStore
	prefix string
}

// NewBucketSource creates a bucket-backed source.
func NewBucketSource(store ObjectStore, prefix string) *BucketSource {
	return &BucketSource{store: store, prefix: prefix}
}

// Name implements Source.
func (s *BucketSource) Name() string { return SourceBucket }

// Key returns the object key for table.
func (s *BucketSource) Key(table string) string {
	return path.Join(s.prefix, table+".csv.zst")
}

// Fetch implements Source.
func (s *BucketSource) Fetch(ctx context.Context, table string) (*Table, error) {
	data, err := s.store.GetDecompressed(ctx, s.Key(table))
	if errors.Is(err, r2client.ErrNotFound) {
		return nil, fmt.Errorf("bucket %s: %w", table, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", table, err)
	}
	return ParseCSV(table, bytes.NewReader(data))
}

// Publish uploads t so later loads can read it from the bucket.
func (s *BucketSource) Publish(ctx context.Context, t *Table) error {
	data, err := EncodeCSV(t)
	if err != nil {
		return err
	}
	if _, err := s.store.PutCompressed(ctx, s.Key(t.Name), data); err != nil {
		return fmt.Errorf("publish %s: %w", t.Name, err)
	}
	return nil
}
