// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/models"
)

// Defaults.
const (
	DefaultProgressEvery  = 1000
	DefaultAvgRecordBytes = 600
)

// Source is what the orchestrator pulls records from.
type Source interface {
	StreamRecords(ctx context.Context, limit int) (*Cursor, error)
	Metadata(ctx context.Context) (ObjectMeta, error)
	EstimateRowCount(ctx context.Context) (int64, error)
}

// Reader streams CSV records from one object.
type Reader struct {
	objects        ObjectReader
	bucket         string
	object         string
	progressEvery  int
	avgRecordBytes int
	onProgress     ProgressFunc
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithProgress registers a progress callback fired every n records.
func WithProgress(n int, fn ProgressFunc) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.progressEvery = n
		}
		r.onProgress = fn
	}
}

// WithAvgRecordBytes sets the per-record size used by EstimateRowCount.
func WithAvgRecordBytes(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.avgRecordBytes = n
		}
	}
}

// NewReader returns a Reader for bucket/object.
func NewReader(objects ObjectReader, bucket, object string, opts ...ReaderOption) *Reader {
	r := &Reader{
		objects:        objects,
		bucket:         bucket,
		object:         object,
		progressEvery:  DefaultProgressEvery,
		avgRecordBytes: DefaultAvgRecordBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.onProgress == nil {
		r.onProgress = r.logProgress
	}
	return r
}

func (r *Reader) logProgress(s Stats) {
	logging.Info().
		Str("object", r.bucket+"/"+r.object).
		Int64("records", s.Records).
		Int64("skipped", s.Skipped).
		Int64("bytes", s.Bytes).
		Msg("Source read progress")
}

// StreamRecords opens the object and returns a cursor over its records. The
// header row names the fields. limit > 0 stops after that many records.
func (r *Reader) StreamRecords(ctx context.Context, limit int) (*Cursor, error) {
	body, err := r.objects.Open(ctx, r.bucket, r.object)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	dec, err := newCSVDecoder(body)
	if err != nil {
		body.Close()
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("object", r.bucket+"/"+r.object).
		Strs("fields", dec.header).
		Int("limit", limit).
		Msg("Streaming source records")

	return newCursor(ctx, dec, body, limit, r.progressEvery, r.onProgress), nil
}

// StreamBatches is StreamRecords grouped into chunks of batchSize.
func (r *Reader) StreamBatches(ctx context.Context, batchSize, limit int) (*BatchCursor, error) {
	cur, err := r.StreamRecords(ctx, limit)
	if err != nil {
		return nil, err
	}
	return NewBatchCursor(cur, batchSize), nil
}

// Metadata returns the object's size and last-modified time.
func (r *Reader) Metadata(ctx context.Context) (ObjectMeta, error) {
	meta, err := r.objects.Stat(ctx, r.bucket, r.object)
	if err != nil {
		return ObjectMeta{}, fmt.Errorf("source metadata: %w", err)
	}
	return meta, nil
}

// EstimateRowCount divides the object size by the average record size. The
// result is advisory.
func (r *Reader) EstimateRowCount(ctx context.Context) (int64, error) {
	meta, err := r.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return EstimateRows(meta.Size, r.avgRecordBytes), nil
}

// EstimateRows returns size/avg, or 0 when either is unknown.
func EstimateRows(size int64, avg int) int64 {
	if size <= 0 || avg <= 0 {
		return 0
	}
	return size / int64(avg)
}

// csvDecoder turns CSV rows into records keyed by the header.
type csvDecoder struct {
	r      *csv.Reader
	header []string
}

func newCSVDecoder(body io.Reader) (*csvDecoder, error) {
	r := csv.NewReader(body)
	r.LazyQuotes = true
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty source")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	// Every data row must match the header width.
	r.FieldsPerRecord = len(header)

	return &csvDecoder{r: r, header: header}, nil
}

func (d *csvDecoder) decode() (models.RawRecord, error) {
	row, err := d.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			logging.Debug().Int("line", pe.StartLine).Err(pe.Err).Msg("Skipping malformed source row")
			return nil, errSkipRow
		}
		return nil, err
	}

	rec := make(models.RawRecord, len(d.header))
	for i, h := range d.header {
		rec[h] = row[i]
	}
	return rec, nil
}

func (d *csvDecoder) offset() int64 {
	return d.r.InputOffset()
}
