package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/sliceutil"
	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// SupabaseOptions tunes the PostgREST client.
type SupabaseOptions struct {
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
}

// SupabaseSource reads tables through the Supabase REST API (PostgREST).
type SupabaseSource struct {
	client *resty.Client
}

// NewSupabaseSource creates a source for the project at baseURL.
// The key is sent both as apikey and as bearer token.
func NewSupabaseSource(baseURL, key string, opts SupabaseOptions) *SupabaseSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWaitTime).
		SetRetryMaxWaitTime(opts.RetryMaxWaitTime).
		SetHeader("apikey", key).
		SetHeader("Accept", "application/json").
		SetAuthToken(key).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &SupabaseSource{client: client}
}

// Name implements Source.
func (s *SupabaseSource) Name() string { return SourceSupabase }

// Fetch implements Source. It selects every column of the table.
func (s *SupabaseSource) Fetch(ctx context.Context, table string) (*Table, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		Get("/" + url.PathEscape(table))
	if err != nil {
		return nil, fmt.Errorf("supabase %s: %w", table, err)
	}

	if !resp.IsSuccess() {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, fmt.Errorf("supabase %s: %w", table, domerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("supabase %s: status %d: %s",
			table, resp.StatusCode(), stringutil.Truncate(resp.String(), 200))
	}

	columns, rows, err := decodeRows(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("supabase %s: %w", table, err)
	}
	return &Table{Name: table, Columns: columns, Rows: rows}, nil
}

// decodeRows decodes a JSON array of objects. Column order is the order
// keys are first seen, which PostgREST emits in table definition order.
func decodeRows(data []byte) ([]string, []Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, nil, err
	}

	var (
		columns sliceutil.OrderedSet[string]
		rows    []Row
	)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, nil, err
		}
		row := make(Row)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, nil, fmt.Errorf("decode key: %w", err)
			}
			key, ok := tok.(string)
			if !ok {
				return nil, nil, fmt.Errorf("decode key: unexpected %v", tok)
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, nil, fmt.Errorf("decode %s: %w", key, err)
			}
			row[key] = cellString(raw)
			columns.Add(key)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, nil, err
	}

	cols := columns.Values()
	// Rows missing a column read as empty.
	for _, row := range rows {
		for _, col := range cols {
			if !row.Has(col) {
				row[col] = ""
			}
		}
	}
	return cols, rows, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("decode rows: expected %q, got %v", want, tok)
	}
	return nil
}

// cellString renders a JSON value as cell text. null becomes "", strings
// are unquoted, and anything else keeps its JSON spelling.
func cellString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
