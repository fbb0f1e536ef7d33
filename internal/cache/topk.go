// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package cache

import "sort"

// Scored is an item kept by TopK.
type Scored[T any] struct {
	Key   string
	Value T
	Score float64
}

// TopK keeps the k highest-scoring items pushed into it. It is a min-heap on
// score: the root is the weakest survivor and is replaced when a stronger item
// arrives. Push is O(log k).
//
// Ties are broken by key so the result is deterministic regardless of push
// order.
type TopK[T any] struct {
	k    int
	heap []Scored[T]
}

// NewTopK creates a TopK holding at most k items. k <= 0 keeps nothing.
func NewTopK[T any](k int) *TopK[T] {
	if k < 0 {
		k = 0
	}
	return &TopK[T]{k: k, heap: make([]Scored[T], 0, k)}
}

// Push offers an item. It reports whether the item was kept.
func (h *TopK[T]) Push(key string, value T, score float64) bool {
	if h.k == 0 {
		return false
	}
	item := Scored[T]{Key: key, Value: value, Score: score}
	if len(h.heap) < h.k {
		h.heap = append(h.heap, item)
		h.bubbleUp(len(h.heap) - 1)
		return true
	}
	if !less(h.heap[0], item) {
		return false
	}
	h.heap[0] = item
	h.bubbleDown(0)
	return true
}

// Len returns the number of kept items.
func (h *TopK[T]) Len() int {
	return len(h.heap)
}

// Min returns the weakest kept item.
func (h *TopK[T]) Min() (Scored[T], bool) {
	if len(h.heap) == 0 {
		return Scored[T]{}, false
	}
	return h.heap[0], true
}

// Sorted returns the kept items ordered by score descending, then key.
func (h *TopK[T]) Sorted() []Scored[T] {
	out := make([]Scored[T], len(h.heap))
	copy(out, h.heap)
	sort.Slice(out, func(i, j int) bool { return less(out[j], out[i]) })
	return out
}

// less orders by score ascending; on equal scores the larger key ranks lower.
func less[T any](a, b Scored[T]) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Key > b.Key
}

func (h *TopK[T]) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !less(h.heap[i], h.heap[parent]) {
			return
		}
		h.heap[i], h.heap[parent] = h.heap[parent], h.heap[i]
		i = parent
	}
}

func (h *TopK[T]) bubbleDown(i int) {
	n := len(h.heap)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && less(h.heap[left], h.heap[smallest]) {
			smallest = left
		}
		if right < n && less(h.heap[right], h.heap[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.heap[i], h.heap[smallest] = h.heap[smallest], h.heap[i]
		i = smallest
	}
}
