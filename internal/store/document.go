// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediagraph/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidOp is returned for an upsert without a collection or ID.
	ErrInvalidOp = errors.New("invalid store operation")
)

// Document is a schemaless JSON object. Nested objects are addressed with
// dotted paths such as "platformReadiness.netflix".
type Document map[string]any

// Op is a single merge-upsert.
type Op struct {
	Collection string
	ID         string
	Doc        Document
}

// Comparison operators accepted by Filter.
const (
	OpEq  = "=="
	OpNe  = "!="
	OpGt  = ">"
	OpGte = ">="
	OpLt  = "<"
	OpLte = "<="
)

// Filter restricts a query to documents whose Field compares to Value.
// A document missing Field never matches.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Where is shorthand for a Filter literal.
func Where(field, op string, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Order sorts query results by one field. Documents missing the field sort
// last regardless of direction.
type Order struct {
	Field string
	Desc  bool
}

// DocumentStore is the persistence collaborator behind EntityStore.
//
// Commit applies every op or none of them. Query has no native offset;
// callers over-fetch and slice.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	GetMany(ctx context.Context, collection string, ids []string) (map[string]Document, error)
	Query(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Document, error)
	Count(ctx context.Context, collection string, filters []Filter) (int, error)
	Commit(ctx context.Context, ops []Op) error
	MaxBatchOps() int
	Close() error
}

// DefaultMaxBatchOps bounds one atomic commit.
const DefaultMaxBatchOps = 500

// ToDocument converts a JSON-tagged value to a Document.
func ToDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Decode fills v from the document.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Lookup resolves a dotted path.
func (d Document) Lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if doc, isDoc := cur.(Document); isDoc {
				m = doc
			} else {
				return nil, false
			}
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Merge combines a stored document with an incoming upsert. Top-level fields
// absent from incoming survive, so an embedding written by an earlier run is
// kept when a later run skips embeddings. On top of that:
//   - createdAt keeps the first value ever written
//   - distributionStatus only moves forward along the workflow; otherwise the
//     stored status and the platformReadiness behind it are kept
//   - a distribution right keeps its first transactionTime and validFrom while
//     it stays in force
//   - movieCount keeps the larger value
func Merge(existing, incoming Document) Document {
	if existing == nil {
		return incoming
	}
	out := make(Document, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}

	if v, ok := existing["createdAt"]; ok {
		out["createdAt"] = v
	}
	mergeStatus(out, existing, incoming)
	if existing["type"] == string(models.EdgeDistributionRight) {
		mergeRightWindow(out, existing, incoming)
	}
	if a, ok := toFloat(existing["movieCount"]); ok {
		if b, ok := toFloat(incoming["movieCount"]); !ok || a > b {
			out["movieCount"] = existing["movieCount"]
		}
	}
	return out
}

func mergeStatus(out, existing, incoming Document) {
	prev, ok := existing["distributionStatus"].(string)
	if !ok {
		return
	}
	next, _ := incoming["distributionStatus"].(string)
	if next == "" || models.DistributionStatus(prev).CanReach(models.DistributionStatus(next)) {
		return
	}
	out["distributionStatus"] = prev
	if r, ok := existing["platformReadiness"]; ok {
		out["platformReadiness"] = r
	}
}

// mergeRightWindow keeps the recorded entry of a right that is renewed or
// closed. A right that lapsed before the incoming validFrom is granted anew
// and takes the incoming times.
func mergeRightWindow(out, existing, incoming Document) {
	from, ok := documentTime(incoming, "validFrom")
	if !ok {
		return
	}
	if to, ok := documentTime(existing, "validTo"); ok && !from.Before(to) {
		return
	}
	for _, k := range []string{"validFrom", "transactionTime"} {
		if v, ok := existing[k]; ok {
			out[k] = v
		}
	}
}

func documentTime(doc Document, field string) (time.Time, bool) {
	s, ok := doc[field].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func validateOps(ops []Op) error {
	for i, op := range ops {
		if op.Collection == "" || op.ID == "" {
			return fmt.Errorf("%w: op %d has collection %q id %q", ErrInvalidOp, i, op.Collection, op.ID)
		}
		if strings.Contains(op.Collection, keySep) {
			return fmt.Errorf("%w: collection %q contains %q", ErrInvalidOp, op.Collection, keySep)
		}
	}
	return nil
}

const keySep = "/"

func docKey(collection, id string) []byte {
	return []byte(collection + keySep + id)
}

func collectionPrefix(collection string) []byte {
	return []byte(collection + keySep)
}

// matches reports whether doc satisfies every filter.
func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc.Lookup(f.Field)
		if !ok {
			return false
		}
		c, comparable := compareValues(v, f.Value)
		if !comparable {
			if f.Op == OpNe {
				continue
			}
			return false
		}
		switch f.Op {
		case OpEq:
			if c != 0 {
				return false
			}
		case OpNe:
			if c == 0 {
				return false
			}
		case OpGt:
			if c <= 0 {
				return false
			}
		case OpGte:
			if c < 0 {
				return false
			}
		case OpLt:
			if c >= 0 {
				return false
			}
		case OpLte:
			if c > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders a stored JSON value against a Go filter value.
// Numbers compare as float64; named string and bool types compare by value.
func compareValues(stored, want any) (int, bool) {
	if a, ok := toFloat(stored); ok {
		b, ok := toFloat(want)
		if !ok {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	}

	rv := reflect.ValueOf(want)
	switch s := stored.(type) {
	case string:
		if !rv.IsValid() || rv.Kind() != reflect.String {
			return 0, false
		}
		return strings.Compare(s, rv.String()), true
	case bool:
		if !rv.IsValid() || rv.Kind() != reflect.Bool {
			return 0, false
		}
		b := rv.Bool()
		switch {
		case s == b:
			return 0, true
		case !s:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}

// sortDocuments orders docs in place. Without an order the input order
// (key order for both stores) is kept.
func sortDocuments(docs []Document, order *Order) {
	if order == nil || order.Field == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, aok := docs[i].Lookup(order.Field)
		b, bok := docs[j].Lookup(order.Field)
		switch {
		case !aok && !bok:
			return false
		case !aok:
			return false
		case !bok:
			return true
		}
		c, ok := compareValues(a, b)
		if !ok {
			return false
		}
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
}

// applyLimit trims docs to limit; a limit <= 0 means unlimited.
func applyLimit(docs []Document, limit int) []Document {
	if limit > 0 && len(docs) > limit {
		return docs[:limit]
	}
	return docs
}
