// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	// DuckDB driver - read_csv gives a parallel, error-tolerant CSV scan
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/models"
)

// DuckDBSource reads a local CSV file through DuckDB's read_csv table
// function. Every column is read as text and rows DuckDB cannot parse are
// dropped by the engine, so Stats().Skipped stays zero.
type DuckDBSource struct {
	db             *sql.DB
	path           string
	progressEvery  int
	avgRecordBytes int
	onProgress     ProgressFunc
}

// NewDuckDBSource opens an in-memory DuckDB connection for path.
func NewDuckDBSource(path string, opts ...ReaderOption) (*DuckDBSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// Reuse ReaderOption so both engines share one option set.
	r := &Reader{progressEvery: DefaultProgressEvery, avgRecordBytes: DefaultAvgRecordBytes}
	for _, opt := range opts {
		opt(r)
	}

	return &DuckDBSource{
		db:             db,
		path:           abs,
		progressEvery:  r.progressEvery,
		avgRecordBytes: r.avgRecordBytes,
		onProgress:     r.onProgress,
	}, nil
}

// Close closes the DuckDB connection.
func (s *DuckDBSource) Close() error {
	return s.db.Close()
}

// readCSVQuery builds the scan statement. Table function arguments cannot be
// bound parameters, so the path is quoted as a literal.
func readCSVQuery(path string, limit int) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM read_csv(")
	b.WriteString(quoteLiteral(path))
	b.WriteString(", header = true, all_varchar = true, ignore_errors = true, parallel = false)")
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// StreamRecords implements Source.
func (s *DuckDBSource) StreamRecords(ctx context.Context, limit int) (*Cursor, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open source: %w: %s", ErrObjectNotFound, s.path)
		}
		return nil, fmt.Errorf("open source: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, readCSVQuery(s.path, limit))
	if err != nil {
		return nil, fmt.Errorf("read_csv %s: %w", s.path, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("read_csv columns: %w", err)
	}

	logging.Ctx(ctx).Debug().Str("path", s.path).Strs("fields", cols).Int("limit", limit).Msg("Streaming source records via DuckDB")

	fn := s.onProgress
	if fn == nil {
		fn = func(st Stats) {
			logging.Info().Str("path", s.path).Int64("records", st.Records).Msg("Source read progress")
		}
	}
	dec := &sqlDecoder{rows: rows, cols: cols}
	return newCursor(ctx, dec, dec, limit, s.progressEvery, fn), nil
}

// Metadata implements Source.
func (s *DuckDBSource) Metadata(_ context.Context) (ObjectMeta, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ObjectMeta{}, fmt.Errorf("source metadata: %w: %s", ErrObjectNotFound, s.path)
		}
		return ObjectMeta{}, fmt.Errorf("source metadata: %w", err)
	}
	return ObjectMeta{
		Bucket:       filepath.Dir(s.path),
		Object:       filepath.Base(s.path),
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
	}, nil
}

// EstimateRowCount implements Source.
func (s *DuckDBSource) EstimateRowCount(ctx context.Context) (int64, error) {
	meta, err := s.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return EstimateRows(meta.Size, s.avgRecordBytes), nil
}

// sqlDecoder adapts *sql.Rows to rowDecoder.
type sqlDecoder struct {
	rows *sql.Rows
	cols []string
	read int64
}

func (d *sqlDecoder) decode() (models.RawRecord, error) {
	if !d.rows.Next() {
		if err := d.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	vals := make([]sql.NullString, len(d.cols))
	ptrs := make([]any, len(d.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := d.rows.Scan(ptrs...); err != nil {
		logging.Debug().Err(err).Msg("Skipping unscannable source row")
		return nil, errSkipRow
	}

	rec := make(models.RawRecord, len(d.cols))
	for i, c := range d.cols {
		rec[c] = vals[i].String
		d.read += int64(len(vals[i].String))
	}
	return rec, nil
}

// offset approximates bytes read as the sum of field lengths.
func (d *sqlDecoder) offset() int64 {
	return d.read
}

func (d *sqlDecoder) Close() error {
	return d.rows.Close()
}
