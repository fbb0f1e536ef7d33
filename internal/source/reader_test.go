// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleCSV = `id,title,genres,popularity
1,Alpha,"[{'id': 28, 'name': 'Action'}]",10.5
2,Beta,"Drama, Comedy",3
3,Gamma,,0
4,Delta,"[{""id"": 18, ""name"": ""Drama""}]",7
5,Epsilon,Horror,1
`

// memObjects is an in-memory ObjectReader.
type memObjects struct {
	objects map[string]string
	openErr error
	body    func(string) io.ReadCloser
}

func (m *memObjects) Stat(_ context.Context, bucket, object string) (ObjectMeta, error) {
	data, ok := m.objects[bucket+"/"+object]
	if !ok {
		return ObjectMeta{}, ErrObjectNotFound
	}
	return ObjectMeta{Bucket: bucket, Object: object, Size: int64(len(data))}, nil
}

func (m *memObjects) Open(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	data, ok := m.objects[bucket+"/"+object]
	if !ok {
		return nil, ErrObjectNotFound
	}
	if m.body != nil {
		return m.body(data), nil
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func newMemReader(data string, opts ...ReaderOption) *Reader {
	objs := &memObjects{objects: map[string]string{"catalog/movies.csv": data}}
	return NewReader(objs, "catalog", "movies.csv", opts...)
}

func drain(t *testing.T, cur *Cursor) []string {
	t.Helper()
	var ids []string
	for cur.Next() {
		ids = append(ids, cur.Record().Get("id"))
	}
	return ids
}

func TestStreamRecords(t *testing.T) {
	r := newMemReader(sampleCSV, WithProgress(1000, func(Stats) {}))
	cur, err := r.StreamRecords(context.Background(), 0)
	if err != nil {
		t.Fatalf("StreamRecords: %v", err)
	}
	defer cur.Close()

	ids := drain(t, cur)
	if err := cur.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if strings.Join(ids, ",") != "1,2,3,4,5" {
		t.Errorf("ids = %v", ids)
	}
	st := cur.Stats()
	if st.Records != 5 || st.Skipped != 0 {
		t.Errorf("Stats = %+v, want 5 records", st)
	}
	if st.Bytes != int64(len(sampleCSV)) {
		t.Errorf("Bytes = %d, want %d", st.Bytes, len(sampleCSV))
	}
}

func TestStreamRecords_FieldsKeyedByHeader(t *testing.T) {
	cur, err := newMemReader(sampleCSV, WithProgress(0, func(Stats) {})).StreamRecords(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	if !cur.Next() {
		t.Fatal("expected a record")
	}
	rec := cur.Record()
	if rec["title"] != "Alpha" || rec["genres"] != "[{'id': 28, 'name': 'Action'}]" || rec["popularity"] != "10.5" {
		t.Errorf("record = %v", rec)
	}
}

func TestStreamRecords_Limit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 5},
		{2, 2},
		{5, 5},
		{50, 5},
	}
	for _, tt := range tests {
		cur, err := newMemReader(sampleCSV, WithProgress(0, func(Stats) {})).StreamRecords(context.Background(), tt.limit)
		if err != nil {
			t.Fatal(err)
		}
		if got := len(drain(t, cur)); got != tt.want {
			t.Errorf("limit %d: got %d records, want %d", tt.limit, got, tt.want)
		}
		cur.Close()
	}
}

func TestStreamRecords_SkipsMalformedRows(t *testing.T) {
	data := "id,title,popularity\n1,A,1\n2,B\n3,C,3,extra\n4,D,4\n"
	cur, err := newMemReader(data, WithProgress(0, func(Stats) {})).StreamRecords(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	ids := drain(t, cur)
	if strings.Join(ids, ",") != "1,4" {
		t.Errorf("ids = %v, want [1 4]", ids)
	}
	if cur.Err() != nil {
		t.Errorf("row errors must not be fatal: %v", cur.Err())
	}
	if cur.Stats().Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", cur.Stats().Skipped)
	}
}

// failingBody yields some data and then a hard read error.
type failingBody struct {
	r   io.Reader
	err error
}

func (f *failingBody) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, f.err
	}
	return n, err
}

func (f *failingBody) Close() error { return nil }

func TestStreamRecords_IOErrorIsFatal(t *testing.T) {
	errConnReset := errors.New("connection reset by peer")
	objs := &memObjects{
		objects: map[string]string{"b/o": "id,title\n1,A\n2,B\n"},
		body: func(s string) io.ReadCloser {
			return &failingBody{r: strings.NewReader(s), err: errConnReset}
		},
	}
	cur, err := NewReader(objs, "b", "o", WithProgress(0, func(Stats) {})).StreamRecords(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	drain(t, cur)
	if !errors.Is(cur.Err(), errConnReset) {
		t.Errorf("Err() = %v, want connection reset", cur.Err())
	}
}

func TestStreamRecords_OpenErrors(t *testing.T) {
	_, err := newMemReader(sampleCSV).StreamRecords(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}

	objs := &memObjects{objects: map[string]string{}}
	_, err = NewReader(objs, "b", "missing.csv").StreamRecords(context.Background(), 0)
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("err = %v, want ErrObjectNotFound", err)
	}

	_, err = newMemReader("").StreamRecords(context.Background(), 0)
	if err == nil {
		t.Error("empty object should fail on the header")
	}
}

func TestStreamRecords_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cur, err := newMemReader(sampleCSV, WithProgress(0, func(Stats) {})).StreamRecords(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	if !cur.Next() {
		t.Fatal("expected first record")
	}
	cancel()
	if cur.Next() {
		t.Error("Next() after cancel should be false")
	}
	if !errors.Is(cur.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", cur.Err())
	}
}

func TestStreamRecords_Progress(t *testing.T) {
	var calls []Stats
	r := newMemReader(sampleCSV, WithProgress(2, func(s Stats) { calls = append(calls, s) }))
	cur, err := r.StreamRecords(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	drain(t, cur)
	cur.Close()

	if len(calls) != 2 {
		t.Fatalf("progress calls = %d, want 2", len(calls))
	}
	if calls[0].Records != 2 || calls[1].Records != 4 {
		t.Errorf("progress records = %d,%d, want 2,4", calls[0].Records, calls[1].Records)
	}
	if calls[1].Bytes <= calls[0].Bytes {
		t.Error("bytes read should grow between checkpoints")
	}
}

func TestStreamBatches(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		limit     int
		want      []int
	}{
		{"even split with remainder", 2, 0, []int{2, 2, 1}},
		{"single batch", 10, 0, []int{5}},
		{"limited", 2, 3, []int{2, 1}},
		{"one per batch", 0, 2, []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc, err := newMemReader(sampleCSV, WithProgress(0, func(Stats) {})).StreamBatches(context.Background(), tt.batchSize, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			defer bc.Close()

			var sizes []int
			for bc.Next() {
				sizes = append(sizes, len(bc.Batch()))
			}
			if bc.Err() != nil {
				t.Fatalf("Err() = %v", bc.Err())
			}
			if len(sizes) != len(tt.want) {
				t.Fatalf("batches = %v, want %v", sizes, tt.want)
			}
			for i := range sizes {
				if sizes[i] != tt.want[i] {
					t.Errorf("batches = %v, want %v", sizes, tt.want)
				}
			}
		})
	}
}

func TestEstimateRowCount(t *testing.T) {
	r := newMemReader(strings.Repeat("x", 6000), WithAvgRecordBytes(600))
	n, err := r.EstimateRowCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Errorf("EstimateRowCount = %d, want 10", n)
	}

	if EstimateRows(-1, 600) != 0 || EstimateRows(1000, 0) != 0 {
		t.Error("unknown size or average should estimate 0")
	}
}

func TestFileObjectReader(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "catalog"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "catalog", "movies.csv"), []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	fr := NewFileObjectReader(root)
	meta, err := fr.Stat(context.Background(), "catalog", "movies.csv")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.Size != int64(len(sampleCSV)) || meta.LastModified.IsZero() {
		t.Errorf("meta = %+v", meta)
	}

	if _, err := fr.Stat(context.Background(), "catalog", "nope.csv"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Stat(missing) = %v, want ErrObjectNotFound", err)
	}
	if _, err := fr.Open(context.Background(), "catalog", "../../etc/passwd"); err == nil {
		t.Error("path traversal should be rejected")
	}

	cur, err := NewReader(fr, "catalog", "movies.csv", WithProgress(0, func(Stats) {})).StreamRecords(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()
	if got := len(drain(t, cur)); got != 5 {
		t.Errorf("records = %d, want 5", got)
	}
}

func TestHTTPObjectReader(t *testing.T) {
	modified := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog/movies.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
		http.ServeContent(w, r, "movies.csv", modified, strings.NewReader(sampleCSV))
	}))
	defer srv.Close()

	hr := NewHTTPObjectReader(srv.URL+"/", srv.Client())

	meta, err := hr.Stat(context.Background(), "catalog", "movies.csv")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.Size != int64(len(sampleCSV)) {
		t.Errorf("Size = %d, want %d", meta.Size, len(sampleCSV))
	}
	if !meta.LastModified.Equal(modified) {
		t.Errorf("LastModified = %v, want %v", meta.LastModified, modified)
	}

	if _, err := hr.Stat(context.Background(), "catalog", "missing.csv"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Stat(missing) = %v, want ErrObjectNotFound", err)
	}
	if _, err := hr.Open(context.Background(), "catalog", "missing.csv"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Open(missing) = %v, want ErrObjectNotFound", err)
	}

	bc, err := NewReader(hr, "catalog", "movies.csv", WithProgress(0, func(Stats) {})).StreamBatches(context.Background(), 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer bc.Close()
	total := 0
	for bc.Next() {
		total += len(bc.Batch())
	}
	if total != 5 {
		t.Errorf("records = %d, want 5", total)
	}
}

func TestHTTPObjectReader_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPObjectReader(srv.URL, nil).Open(context.Background(), "b", "o")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, want status 503", err)
	}
}
