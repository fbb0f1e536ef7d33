// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadCSVQuery(t *testing.T) {
	tests := []struct {
		path  string
		limit int
		want  string
	}{
		{
			path: "/data/movies.csv",
			want: "SELECT * FROM read_csv('/data/movies.csv', header = true, all_varchar = true, ignore_errors = true, parallel = false)",
		},
		{
			path:  "/data/o'brien.csv",
			limit: 10,
			want:  "SELECT * FROM read_csv('/data/o''brien.csv', header = true, all_varchar = true, ignore_errors = true, parallel = false) LIMIT 10",
		},
	}
	for _, tt := range tests {
		if got := readCSVQuery(tt.path, tt.limit); got != tt.want {
			t.Errorf("readCSVQuery(%q, %d) =\n%s\nwant\n%s", tt.path, tt.limit, got, tt.want)
		}
	}
}

func TestDuckDBSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	src, err := NewDuckDBSource(path, WithProgress(0, func(Stats) {}))
	if err != nil {
		t.Fatalf("NewDuckDBSource: %v", err)
	}
	defer src.Close()

	cur, err := src.StreamRecords(context.Background(), 0)
	if err != nil {
		t.Fatalf("StreamRecords: %v", err)
	}
	defer cur.Close()

	byID := map[string]string{}
	for cur.Next() {
		rec := cur.Record()
		byID[rec.Get("id")] = rec.Get("title")
	}
	if err := cur.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(byID) != 5 || byID["4"] != "Delta" {
		t.Errorf("records = %v", byID)
	}

	meta, err := src.Metadata(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if meta.Size != int64(len(sampleCSV)) {
		t.Errorf("Size = %d, want %d", meta.Size, len(sampleCSV))
	}
}

func TestDuckDBSource_Missing(t *testing.T) {
	src, err := NewDuckDBSource(filepath.Join(t.TempDir(), "none.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if _, err := src.StreamRecords(context.Background(), 0); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("err = %v, want ErrObjectNotFound", err)
	}
}
