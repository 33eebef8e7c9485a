package knowledge

import "context"

// Source names as reported in logs and metrics.
const (
	SourceSupabase = "supabase"
	SourceBucket   = "bucket"
	SourceCSV      = "csv"
	SourceCache    = "cache"
)

// Source fetches tables by name.
// A table the source does not have returns an error matching
// errors.ErrNotFound from internal/errors.
type Source interface {
	Name() string
	Fetch(ctx context.Context, table string) (*Table, error)
}
