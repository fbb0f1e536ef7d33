// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/models"
	"github.com/tomtom215/mediagraph/internal/retry"
)

// DefaultRelatedFanout caps how many movies are read per shared genre.
const DefaultRelatedFanout = 200

// EntityStore persists the hypergraph into a DocumentStore.
type EntityStore struct {
	docs   DocumentStore
	mirror GraphMirror
	policy retry.Policy
	now    func() time.Time
	fanout int
	log    zerolog.Logger
}

// Option configures an EntityStore.
type Option func(*EntityStore)

// WithMirror projects every committed batch into a graph database.
func WithMirror(m GraphMirror) Option {
	return func(s *EntityStore) { s.mirror = m }
}

// WithRetry retries each chunk commit under p.
func WithRetry(p retry.Policy) Option {
	return func(s *EntityStore) { s.policy = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *EntityStore) { s.now = now }
}

// WithRelatedFanout sets the per-genre cap used by RelatedMovies.
func WithRelatedFanout(n int) Option {
	return func(s *EntityStore) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// NewEntityStore wraps docs. Without WithRetry each chunk is attempted once.
func NewEntityStore(docs DocumentStore, opts ...Option) *EntityStore {
	s := &EntityStore{
		docs:   docs,
		policy: retry.Policy{MaxRetries: 0},
		now:    time.Now,
		fanout: DefaultRelatedFanout,
		log:    logging.WithComponent("entity_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Documents returns the underlying document store.
func (s *EntityStore) Documents() DocumentStore {
	return s.docs
}

// BatchResult reports one StoreProcessed or Upsert call. Chunks commit
// independently, so a result can be partially successful.
type BatchResult struct {
	Movies   int // movie documents committed
	Entities int // entity documents committed
	Edges    int // edge documents committed

	Chunks       int
	FailedChunks int
	Errors       []error
}

// Err joins the chunk errors, or returns nil when every chunk committed.
func (r *BatchResult) Err() error {
	return errors.Join(r.Errors...)
}

// OK reports whether every chunk committed.
func (r *BatchResult) OK() bool {
	return r.FailedChunks == 0
}

// item is one pending document with the typed value it came from.
type item struct {
	op     Op
	movie  *models.MovieNode
	entity *models.EntityNode
	edge   *models.Hyperedge
}

// StoreProcessed upserts the movies, their deduplicated entities and their
// edges. Entities are written first so edges never reference a node that a
// failed earlier chunk left out of the graph mirror.
func (s *EntityStore) StoreProcessed(ctx context.Context, movies []*models.ProcessedMovie) *BatchResult {
	var entities []*models.EntityNode
	seen := make(map[string]int)
	var nodes []*models.MovieNode
	var edges []*models.Hyperedge

	for _, pm := range movies {
		if pm == nil || pm.Movie == nil {
			continue
		}
		for _, e := range pm.Entities() {
			if i, ok := seen[e.Key()]; ok {
				entities[i] = e
				continue
			}
			seen[e.Key()] = len(entities)
			entities = append(entities, e)
		}
		nodes = append(nodes, pm.Movie)
		edges = append(edges, pm.Edges...)
	}

	items, result := s.buildItems(entities, nodes, edges)
	if result != nil {
		return result
	}
	return s.commitItems(ctx, items)
}

// UpsertMovies writes movie documents.
func (s *EntityStore) UpsertMovies(ctx context.Context, movies []*models.MovieNode) *BatchResult {
	items, result := s.buildItems(nil, movies, nil)
	if result != nil {
		return result
	}
	return s.commitItems(ctx, items)
}

// UpsertEntities writes entity documents into their type's collection.
func (s *EntityStore) UpsertEntities(ctx context.Context, entities []*models.EntityNode) *BatchResult {
	items, result := s.buildItems(entities, nil, nil)
	if result != nil {
		return result
	}
	return s.commitItems(ctx, items)
}

// UpsertEdges writes hyperedge documents.
func (s *EntityStore) UpsertEdges(ctx context.Context, edges []*models.Hyperedge) *BatchResult {
	items, result := s.buildItems(nil, nil, edges)
	if result != nil {
		return result
	}
	return s.commitItems(ctx, items)
}

// buildItems encodes every value. An encoding failure fails the whole call
// before anything is written.
func (s *EntityStore) buildItems(entities []*models.EntityNode, movies []*models.MovieNode, edges []*models.Hyperedge) ([]item, *BatchResult) {
	items := make([]item, 0, len(entities)+len(movies)+len(edges))
	fail := func(err error) ([]item, *BatchResult) {
		return nil, &BatchResult{FailedChunks: 1, Errors: []error{err}}
	}

	for _, e := range entities {
		coll := e.Type.Collection()
		if coll == "" {
			return fail(fmt.Errorf("%w: entity %s has unknown type %q", ErrInvalidOp, e.ID, e.Type))
		}
		doc, err := ToDocument(e)
		if err != nil {
			return fail(fmt.Errorf("entity %s: %w", e.Key(), err))
		}
		items = append(items, item{op: Op{Collection: coll, ID: e.ID, Doc: doc}, entity: e})
	}
	for _, m := range movies {
		doc, err := ToDocument(m)
		if err != nil {
			return fail(fmt.Errorf("movie %s: %w", m.ID, err))
		}
		items = append(items, item{op: Op{Collection: models.CollectionMovies, ID: m.ID, Doc: doc}, movie: m})
	}
	for _, e := range edges {
		doc, err := ToDocument(e)
		if err != nil {
			return fail(fmt.Errorf("edge %s: %w", e.ID, err))
		}
		items = append(items, item{op: Op{Collection: models.CollectionEdges, ID: e.ID, Doc: doc}, edge: e})
	}
	return items, nil
}

// commitItems splits items into MaxBatchOps chunks and commits each one on
// its own. A failed chunk is recorded and the remaining chunks still run.
func (s *EntityStore) commitItems(ctx context.Context, items []item) *BatchResult {
	result := &BatchResult{}
	size := s.docs.MaxBatchOps()
	if size <= 0 {
		size = DefaultMaxBatchOps
	}

	var mirrored MirrorBatch
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			result.FailedChunks++
			result.Errors = append(result.Errors, err)
			break
		}
		end := min(start+size, len(items))
		chunk := items[start:end]
		result.Chunks++

		ops := make([]Op, len(chunk))
		for i, it := range chunk {
			ops[i] = it.op
		}

		err := retry.Do(ctx, "store commit", s.policy, func() error {
			return s.docs.Commit(ctx, ops)
		})
		if err != nil {
			result.FailedChunks++
			result.Errors = append(result.Errors, fmt.Errorf("chunk %d (%d ops): %w", result.Chunks, len(ops), err))
			metrics.StoreBatches.WithLabelValues(metrics.ResultFailure).Inc()
			s.log.Error().Err(err).Int("chunk", result.Chunks).Int("ops", len(ops)).Msg("Store chunk failed")
			continue
		}
		metrics.StoreBatches.WithLabelValues(metrics.ResultSuccess).Inc()

		for _, it := range chunk {
			switch {
			case it.movie != nil:
				result.Movies++
				mirrored.Movies = append(mirrored.Movies, it.movie)
			case it.entity != nil:
				result.Entities++
				mirrored.Entities = append(mirrored.Entities, it.entity)
			case it.edge != nil:
				result.Edges++
				mirrored.Edges = append(mirrored.Edges, it.edge)
			}
		}
	}

	if s.mirror != nil && !mirrored.Empty() {
		if err := s.mirror.Apply(ctx, mirrored); err != nil {
			metrics.GraphMirrorErrors.Inc()
			s.log.Warn().Err(err).Int("movies", len(mirrored.Movies)).Msg("Graph mirror failed; document store is unaffected")
		}
	}
	return result
}

// GetMovie returns one movie or ErrNotFound.
func (s *EntityStore) GetMovie(ctx context.Context, id string) (*models.MovieNode, error) {
	doc, err := s.docs.Get(ctx, models.CollectionMovies, id)
	if err != nil {
		return nil, err
	}
	var m models.MovieNode
	if err := doc.Decode(&m); err != nil {
		return nil, fmt.Errorf("movie %s: %w", id, err)
	}
	return &m, nil
}

// GetMovies returns the movies that exist, in the order of ids.
func (s *EntityStore) GetMovies(ctx context.Context, ids []string) ([]*models.MovieNode, error) {
	docs, err := s.docs.GetMany(ctx, models.CollectionMovies, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.MovieNode, 0, len(docs))
	for _, id := range ids {
		doc, ok := docs[id]
		if !ok {
			continue
		}
		var m models.MovieNode
		if err := doc.Decode(&m); err != nil {
			return nil, fmt.Errorf("movie %s: %w", id, err)
		}
		out = append(out, &m)
	}
	return out, nil
}

// Range is an inclusive numeric bound. A nil end is open.
type Range struct {
	Min *float64
	Max *float64
}

// AtLeast is the range [v, +inf).
func AtLeast(v float64) Range { return Range{Min: &v} }

// AtMost is the range (-inf, v].
func AtMost(v float64) Range { return Range{Max: &v} }

// Between is the range [lo, hi].
func Between(lo, hi float64) Range { return Range{Min: &lo, Max: &hi} }

func (r Range) filters(field string) []Filter {
	var out []Filter
	if r.Min != nil {
		out = append(out, Where(field, OpGte, *r.Min))
	}
	if r.Max != nil {
		out = append(out, Where(field, OpLte, *r.Max))
	}
	return out
}

// MovieQuery selects movies. OrderBy names a document field such as
// "popularity" or "voteAverage".
type MovieQuery struct {
	VoteAverage Range
	VoteCount   Range
	Popularity  Range
	ReleaseYear Range
	Runtime     Range

	Status  models.DistributionStatus
	ReadyOn models.Platform

	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

func (q MovieQuery) filters() []Filter {
	var out []Filter
	out = append(out, q.VoteAverage.filters("voteAverage")...)
	out = append(out, q.VoteCount.filters("voteCount")...)
	out = append(out, q.Popularity.filters("popularity")...)
	out = append(out, q.ReleaseYear.filters("releaseYear")...)
	out = append(out, q.Runtime.filters("runtime")...)
	if q.Status != "" {
		out = append(out, Where("distributionStatus", OpEq, string(q.Status)))
	}
	if q.ReadyOn != "" {
		out = append(out, Where("platformReadiness."+string(q.ReadyOn), OpEq, true))
	}
	return out
}

// QueryMovies runs q. The store has no native offset, so limit+offset
// documents are fetched and the first offset dropped.
func (s *EntityStore) QueryMovies(ctx context.Context, q MovieQuery) ([]*models.MovieNode, error) {
	var order *Order
	if q.OrderBy != "" {
		order = &Order{Field: q.OrderBy, Desc: q.Desc}
	}
	offset := max(q.Offset, 0)
	fetch := 0
	if q.Limit > 0 {
		fetch = q.Limit + offset
	}

	docs, err := s.docs.Query(ctx, models.CollectionMovies, q.filters(), order, fetch)
	if err != nil {
		return nil, err
	}
	if offset >= len(docs) {
		return []*models.MovieNode{}, nil
	}
	docs = docs[offset:]

	out := make([]*models.MovieNode, 0, len(docs))
	for _, doc := range docs {
		var m models.MovieNode
		if err := doc.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, nil
}

// EdgesForMovie returns the hyperedges anchored on a movie, optionally of
// one type.
func (s *EntityStore) EdgesForMovie(ctx context.Context, movieID string, edgeType models.EdgeType) ([]*models.Hyperedge, error) {
	filters := []Filter{Where("movieId", OpEq, movieID)}
	if edgeType != "" {
		filters = append(filters, Where("type", OpEq, string(edgeType)))
	}
	return s.queryEdges(ctx, filters, &Order{Field: "ordinal"}, 0)
}

// EdgesForEntity returns the hyperedges pointing at an entity.
func (s *EntityStore) EdgesForEntity(ctx context.Context, t models.NodeType, entityID string) ([]*models.Hyperedge, error) {
	return s.queryEdges(ctx, []Filter{
		Where("targetId", OpEq, entityID),
		Where("targetType", OpEq, string(t)),
	}, nil, 0)
}

func (s *EntityStore) queryEdges(ctx context.Context, filters []Filter, order *Order, limit int) ([]*models.Hyperedge, error) {
	docs, err := s.docs.Query(ctx, models.CollectionEdges, filters, order, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Hyperedge, 0, len(docs))
	for _, doc := range docs {
		var e models.Hyperedge
		if err := doc.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, nil
}

// RelatedMovie is a movie sharing genres with the source movie.
type RelatedMovie struct {
	Movie        *models.MovieNode
	SharedGenres int
}

// RelatedMovies returns movies sharing at least one genre with movieID,
// ordered by shared genre count then popularity. At most the configured
// fan-out of movies is read per genre.
func (s *EntityStore) RelatedMovies(ctx context.Context, movieID string, limit int) ([]RelatedMovie, error) {
	genres, err := s.EdgesForMovie(ctx, movieID, models.EdgeGenreOf)
	if err != nil {
		return nil, err
	}

	shared := make(map[string]int)
	for _, g := range genres {
		peers, err := s.queryEdges(ctx, []Filter{
			Where("targetId", OpEq, g.TargetID),
			Where("type", OpEq, string(models.EdgeGenreOf)),
		}, nil, s.fanout)
		if err != nil {
			return nil, err
		}
		for _, p := range peers {
			if p.MovieID != movieID {
				shared[p.MovieID]++
			}
		}
	}
	if len(shared) == 0 {
		return []RelatedMovie{}, nil
	}

	ids := make([]string, 0, len(shared))
	for id := range shared {
		ids = append(ids, id)
	}
	movies, err := s.GetMovies(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]RelatedMovie, 0, len(movies))
	for _, m := range movies {
		out = append(out, RelatedMovie{Movie: m, SharedGenres: shared[m.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SharedGenres != b.SharedGenres {
			return a.SharedGenres > b.SharedGenres
		}
		if a.Movie.Popularity != b.Movie.Popularity {
			return a.Movie.Popularity > b.Movie.Popularity
		}
		return a.Movie.ID < b.Movie.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var aggregateCollections = []string{
	models.CollectionMovies,
	models.CollectionGenres,
	models.CollectionCompanies,
	models.CollectionCountries,
	models.CollectionLanguages,
	models.CollectionKeywords,
	models.CollectionEdges,
}

// Aggregates counts documents per collection, ready movies per platform and
// movies per status. Movies without a readiness flag count as not ready.
func (s *EntityStore) Aggregates(ctx context.Context) (*models.StoreAggregates, error) {
	agg := &models.StoreAggregates{
		Collections:   make(map[string]int, len(aggregateCollections)),
		PlatformReady: make(map[models.Platform]int, len(models.AllPlatforms)),
		StatusCounts:  make(map[models.DistributionStatus]int, len(models.AllStatuses)),
	}

	for _, c := range aggregateCollections {
		n, err := s.docs.Count(ctx, c, nil)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c, err)
		}
		agg.Collections[c] = n
	}
	for _, p := range models.AllPlatforms {
		n, err := s.docs.Count(ctx, models.CollectionMovies, []Filter{
			Where("platformReadiness."+string(p), OpEq, true),
		})
		if err != nil {
			return nil, fmt.Errorf("count ready on %s: %w", p, err)
		}
		agg.PlatformReady[p] = n
	}
	for _, st := range models.AllStatuses {
		n, err := s.docs.Count(ctx, models.CollectionMovies, []Filter{
			Where("distributionStatus", OpEq, string(st)),
		})
		if err != nil {
			return nil, fmt.Errorf("count status %s: %w", st, err)
		}
		agg.StatusCounts[st] = n
	}

	n, err := s.docs.Count(ctx, models.CollectionMovies, []Filter{Where("embeddingModel", OpNe, "")})
	if err != nil {
		return nil, fmt.Errorf("count embeddings: %w", err)
	}
	agg.WithEmbedding = n
	return agg, nil
}

// SaveRunStats records a finished run in the stats collection.
func (s *EntityStore) SaveRunStats(ctx context.Context, stats *models.RunStats) error {
	doc, err := ToDocument(stats)
	if err != nil {
		return err
	}
	err = retry.Do(ctx, "save run stats", s.policy, func() error {
		return s.docs.Commit(ctx, []Op{{Collection: models.CollectionStats, ID: stats.RunID, Doc: doc}})
	})
	if err != nil {
		return fmt.Errorf("save run stats %s: %w", stats.RunID, err)
	}
	return nil
}

// LatestRunStats returns the most recently started run, or ErrNotFound.
func (s *EntityStore) LatestRunStats(ctx context.Context) (*models.RunStats, error) {
	docs, err := s.docs.Query(ctx, models.CollectionStats, nil, &Order{Field: "startedAt", Desc: true}, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("run stats: %w", ErrNotFound)
	}
	var st models.RunStats
	if err := docs[0].Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Close releases the mirror and the document store.
func (s *EntityStore) Close(ctx context.Context) error {
	var errs []error
	if s.mirror != nil {
		errs = append(errs, s.mirror.Close(ctx))
	}
	errs = append(errs, s.docs.Close())
	return errors.Join(errs...)
}
