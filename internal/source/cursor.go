// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package source

import (
	"context"
	"errors"
	"io"

	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/models"
)

// errSkipRow is returned by a row decoder for a row that should be counted
// and skipped.
var errSkipRow = errors.New("skip row")

// Stats counts cursor progress.
type Stats struct {
	Records int64 `json:"records"`
	Skipped int64 `json:"skipped"`
	Bytes   int64 `json:"bytes"`
}

// ProgressFunc receives periodic read progress.
type ProgressFunc func(Stats)

// rowDecoder yields rows until io.EOF. errSkipRow marks a bad row; any other
// error is fatal.
type rowDecoder interface {
	decode() (models.RawRecord, error)
	offset() int64
}

// Cursor is a lazy pull cursor over source records. It is not safe for
// concurrent use.
type Cursor struct {
	ctx        context.Context
	dec        rowDecoder
	closer     io.Closer
	limit      int
	every      int
	onProgress ProgressFunc

	rec    models.RawRecord
	err    error
	done   bool
	closed bool
	stats  Stats
}

func newCursor(ctx context.Context, dec rowDecoder, closer io.Closer, limit, every int, fn ProgressFunc) *Cursor {
	return &Cursor{ctx: ctx, dec: dec, closer: closer, limit: limit, every: every, onProgress: fn}
}

// Next advances to the next record. It returns false at end of stream, when
// the limit is reached, or on a fatal error (see Err).
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if c.limit > 0 && c.stats.Records >= int64(c.limit) {
		return c.finish(nil)
	}

	for {
		if err := c.ctx.Err(); err != nil {
			return c.finish(err)
		}

		rec, err := c.dec.decode()
		c.stats.Bytes = c.dec.offset()
		switch {
		case err == nil:
			c.rec = rec
			c.stats.Records++
			metrics.SourceRecordsRead.Inc()
			if c.every > 0 && c.onProgress != nil && c.stats.Records%int64(c.every) == 0 {
				c.onProgress(c.stats)
			}
			return true
		case errors.Is(err, errSkipRow):
			c.stats.Skipped++
			metrics.SourceRecordsSkipped.Inc()
		case errors.Is(err, io.EOF):
			return c.finish(nil)
		default:
			return c.finish(err)
		}
	}
}

func (c *Cursor) finish(err error) bool {
	c.done = true
	c.rec = nil
	c.err = err
	return false
}

// Record returns the current record.
func (c *Cursor) Record() models.RawRecord {
	return c.rec
}

// Err returns the fatal error that stopped the cursor, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Stats returns the counters so far.
func (c *Cursor) Stats() Stats {
	return c.stats
}

// Close releases the underlying stream. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.done = true
	metrics.SourceBytesRead.Add(float64(c.stats.Bytes))
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// BatchCursor groups a Cursor's records into fixed-size chunks. The final
// chunk may be shorter.
type BatchCursor struct {
	cur   *Cursor
	size  int
	batch []models.RawRecord
}

// NewBatchCursor wraps cur. size <= 0 is treated as 1.
func NewBatchCursor(cur *Cursor, size int) *BatchCursor {
	if size <= 0 {
		size = 1
	}
	return &BatchCursor{cur: cur, size: size}
}

// Next fills the next batch. It returns false when no records remain.
func (b *BatchCursor) Next() bool {
	b.batch = make([]models.RawRecord, 0, b.size)
	for len(b.batch) < b.size && b.cur.Next() {
		b.batch = append(b.batch, b.cur.Record())
	}
	return len(b.batch) > 0
}

// Batch returns the current batch.
func (b *BatchCursor) Batch() []models.RawRecord {
	return b.batch
}

// Err returns the underlying cursor's fatal error.
func (b *BatchCursor) Err() error {
	return b.cur.Err()
}

// Stats returns the underlying cursor's counters.
func (b *BatchCursor) Stats() Stats {
	return b.cur.Stats()
}

// Close closes the underlying cursor.
func (b *BatchCursor) Close() error {
	return b.cur.Close()
}
