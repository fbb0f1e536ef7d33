// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package transform

import (
	"sort"
	"time"

	"github.com/tomtom215/mediagraph/internal/models"
)

// EntityCache deduplicates entities within one ingestion run. It is owned by
// a single run and is not safe for concurrent use.
type EntityCache struct {
	nodes map[string]*models.EntityNode
	byTyp map[models.NodeType][]*models.EntityNode
}

// NewEntityCache returns an empty cache.
func NewEntityCache() *EntityCache {
	return &EntityCache{
		nodes: make(map[string]*models.EntityNode),
		byTyp: make(map[models.NodeType][]*models.EntityNode),
	}
}

// Resolve returns the cached entity for (t, id), creating it with count 1 on
// first sight and incrementing it otherwise. The same pointer is returned for
// every call with the same key. init runs only on creation.
func (c *EntityCache) Resolve(t models.NodeType, id, name string, now time.Time, init func(*models.EntityNode)) *models.EntityNode {
	key := models.EntityKey(t, id)
	if e, ok := c.nodes[key]; ok {
		e.Touch(now)
		return e
	}
	e := models.NewEntityNode(t, id, name, now)
	if init != nil {
		init(e)
	}
	c.nodes[key] = e
	c.byTyp[t] = append(c.byTyp[t], e)
	return e
}

// Get returns a cached entity without touching it.
func (c *EntityCache) Get(t models.NodeType, id string) (*models.EntityNode, bool) {
	e, ok := c.nodes[models.EntityKey(t, id)]
	return e, ok
}

// Len returns the number of distinct entities of type t.
func (c *EntityCache) Len(t models.NodeType) int {
	return len(c.byTyp[t])
}

// Counts returns the number of distinct entities per type.
func (c *EntityCache) Counts() map[models.NodeType]int {
	out := make(map[models.NodeType]int, len(models.EntityTypes))
	for _, t := range models.EntityTypes {
		out[t] = len(c.byTyp[t])
	}
	return out
}

// All returns the entities of type t ordered by descending movie count, then ID.
func (c *EntityCache) All(t models.NodeType) []*models.EntityNode {
	out := append([]*models.EntityNode(nil), c.byTyp[t]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].MovieCount != out[j].MovieCount {
			return out[i].MovieCount > out[j].MovieCount
		}
		return out[i].ID < out[j].ID
	})
	return out
}
