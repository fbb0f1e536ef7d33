// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

/*
Package source streams catalog records out of object storage.

A Reader opens one CSV object through an ObjectReader (a local directory or a
public HTTP endpoint) and hands back a lazy Cursor. The header row names the
fields of every RawRecord. Rows the CSV decoder rejects (bad quoting, wrong
field count) are counted and skipped; I/O failures stop the cursor and are
reported by Err.

	r := source.NewReader(source.NewFileObjectReader("./data"), "catalog", "movies.csv")
	cur, err := r.StreamRecords(ctx, 0)
	if err != nil {
		return err
	}
	defer cur.Close()
	for cur.Next() {
		rec := cur.Record()
		...
	}
	if err := cur.Err(); err != nil {
		return err
	}

DuckDBSource is an alternative engine for local files that scans with DuckDB's
read_csv and yields the same Cursor.
*/
package source
