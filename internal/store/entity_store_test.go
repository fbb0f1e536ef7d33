// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/models"
	"github.com/tomtom215/mediagraph/internal/retry"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// failingStore fails the commits whose 1-based sequence numbers are listed.
type failingStore struct {
	DocumentStore
	mu      sync.Mutex
	commits int
	failOn  map[int]bool
}

func (f *failingStore) Commit(ctx context.Context, ops []Op) error {
	f.mu.Lock()
	f.commits++
	n := f.commits
	fail := f.failOn[n]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("injected failure on commit %d", n)
	}
	return f.DocumentStore.Commit(ctx, ops)
}

type recordingMirror struct {
	mu      sync.Mutex
	batches []MirrorBatch
	err     error
	closed  bool
}

func (m *recordingMirror) Apply(_ context.Context, b MirrorBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, b)
	return m.err
}

func (m *recordingMirror) Close(context.Context) error {
	m.closed = true
	return nil
}

func newProcessed(id, title string, pop float64, genres ...string) *models.ProcessedMovie {
	m := models.NewMovieNode(id, title, testNow)
	m.Popularity = pop
	pm := &models.ProcessedMovie{Movie: m}
	for i, g := range genres {
		node := models.NewEntityNode(models.NodeGenre, "genre-"+g, g, testNow)
		pm.Genres = append(pm.Genres, node)
		pm.Edges = append(pm.Edges, models.NewEntityEdge(id, node, i, i == 0, testNow))
	}
	return pm
}

func TestEntityStore_StoreProcessed(t *testing.T) {
	ctx := context.Background()
	docs := NewMemoryStore(0)
	mirror := &recordingMirror{}
	es := NewEntityStore(docs, WithMirror(mirror))

	res := es.StoreProcessed(ctx, []*models.ProcessedMovie{
		newProcessed("1", "Heat", 10, "Action", "Crime"),
		newProcessed("2", "Ronin", 5, "Action"),
		nil,
	})
	if err := res.Err(); err != nil {
		t.Fatalf("StoreProcessed() error = %v", err)
	}
	if res.Movies != 2 || res.Entities != 2 || res.Edges != 3 {
		t.Errorf("result = %+v, want 2 movies, 2 deduplicated entities, 3 edges", res)
	}
	if !res.OK() || res.Chunks != 1 {
		t.Errorf("chunks = %d ok = %v", res.Chunks, res.OK())
	}

	m, err := es.GetMovie(ctx, "1")
	if err != nil {
		t.Fatalf("GetMovie() error = %v", err)
	}
	if m.Title != "Heat" || !m.CreatedAt.Equal(testNow) {
		t.Errorf("movie = %+v", m)
	}

	if _, err := es.GetMovie(ctx, "404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMovie(missing) error = %v, want ErrNotFound", err)
	}

	if len(mirror.batches) != 1 || len(mirror.batches[0].Movies) != 2 {
		t.Errorf("mirror batches = %+v", mirror.batches)
	}
}

func TestEntityStore_ChunkIsolation(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore(2)
	fs := &failingStore{DocumentStore: inner, failOn: map[int]bool{2: true}}
	mirror := &recordingMirror{}
	es := NewEntityStore(fs, WithMirror(mirror))

	movies := []*models.MovieNode{
		models.NewMovieNode("1", "A", testNow),
		models.NewMovieNode("2", "B", testNow),
		models.NewMovieNode("3", "C", testNow),
		models.NewMovieNode("4", "D", testNow),
		models.NewMovieNode("5", "E", testNow),
		models.NewMovieNode("6", "F", testNow),
	}

	before := testutil.ToFloat64(metrics.StoreBatches.WithLabelValues(metrics.ResultFailure))
	res := es.UpsertMovies(ctx, movies)

	if res.Chunks != 3 || res.FailedChunks != 1 {
		t.Fatalf("chunks = %d failed = %d, want 3 and 1", res.Chunks, res.FailedChunks)
	}
	if res.Movies != 4 {
		t.Errorf("Movies = %d, want 4 from chunks 1 and 3", res.Movies)
	}
	if res.Err() == nil {
		t.Error("Err() = nil for a failed chunk")
	}
	if got := testutil.ToFloat64(metrics.StoreBatches.WithLabelValues(metrics.ResultFailure)) - before; got != 1 {
		t.Errorf("failure metric delta = %v, want 1", got)
	}

	for _, id := range []string{"1", "2", "5", "6"} {
		if _, err := es.GetMovie(ctx, id); err != nil {
			t.Errorf("movie %s missing: %v", id, err)
		}
	}
	for _, id := range []string{"3", "4"} {
		if _, err := es.GetMovie(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("movie %s from the failed chunk was written", id)
		}
	}

	if len(mirror.batches) != 1 || len(mirror.batches[0].Movies) != 4 {
		t.Errorf("mirror should only see committed chunks: %+v", mirror.batches)
	}
}

func TestEntityStore_RetryRecoversChunk(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{DocumentStore: NewMemoryStore(0), failOn: map[int]bool{1: true}}
	es := NewEntityStore(fs, WithRetry(retry.Policy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}))

	res := es.UpsertMovies(ctx, []*models.MovieNode{models.NewMovieNode("1", "A", testNow)})
	if !res.OK() || res.Movies != 1 {
		t.Errorf("result = %+v, want recovered chunk", res)
	}
	if fs.commits != 2 {
		t.Errorf("commits = %d, want 2", fs.commits)
	}
}

func TestEntityStore_MirrorFailureIsNotFatal(t *testing.T) {
	mirror := &recordingMirror{err: errors.New("bolt down")}
	es := NewEntityStore(NewMemoryStore(0), WithMirror(mirror))

	before := testutil.ToFloat64(metrics.GraphMirrorErrors)
	res := es.StoreProcessed(context.Background(), []*models.ProcessedMovie{newProcessed("1", "A", 1, "Drama")})
	if !res.OK() {
		t.Errorf("mirror failure leaked into result: %v", res.Err())
	}
	if got := testutil.ToFloat64(metrics.GraphMirrorErrors) - before; got != 1 {
		t.Errorf("mirror error metric delta = %v, want 1", got)
	}
}

func TestEntityStore_PreservesDeliveredAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))

	m := models.NewMovieNode("1", "Heat", testNow)
	m.DistributionStatus = models.StatusDelivered
	es.UpsertMovies(ctx, []*models.MovieNode{m})

	later := testNow.Add(24 * time.Hour)
	again := models.NewMovieNode("1", "Heat (Remastered)", later)
	again.DistributionStatus = models.StatusValidated
	es.UpsertMovies(ctx, []*models.MovieNode{again})

	got, err := es.GetMovie(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if got.DistributionStatus != models.StatusDelivered {
		t.Errorf("status = %s, want delivered", got.DistributionStatus)
	}
	if !got.CreatedAt.Equal(testNow) || !got.UpdatedAt.Equal(later) {
		t.Errorf("createdAt = %v updatedAt = %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Title != "Heat (Remastered)" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestEntityStore_ReadyNotDemotedByLaterRun(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))

	m := models.NewMovieNode("1", "Heat", testNow)
	if err := m.ApplyReadiness(models.PlatformReadiness{Netflix: true, Amazon: true, FAST: true}, models.StatusReady, testNow); err != nil {
		t.Fatal(err)
	}
	if res := es.UpsertMovies(ctx, []*models.MovieNode{m}); !res.OK() {
		t.Fatal(res.Err())
	}

	later := testNow.Add(24 * time.Hour)
	again := models.NewMovieNode("1", "Heat", later)
	if err := again.ApplyReadiness(models.PlatformReadiness{}, models.StatusFailed, later); err != nil {
		t.Fatal(err)
	}
	if res := es.UpsertMovies(ctx, []*models.MovieNode{again}); !res.OK() {
		t.Fatal(res.Err())
	}

	got, err := es.GetMovie(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if got.DistributionStatus != models.StatusReady || !got.PlatformReadiness.All() {
		t.Errorf("stored = %s %+v, want ready with every platform", got.DistributionStatus, got.PlatformReadiness)
	}
}

func TestEntityStore_DistributionRightAcrossRuns(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	year := 365 * 24 * time.Hour
	grant := func(now time.Time) *models.Hyperedge {
		return models.NewDistributionRightEdge("1", models.DistributionRight{
			Territory: "US",
			Platform:  models.PlatformNetflix,
			ValidFrom: now,
			ValidTo:   now.Add(year),
			Status:    models.StatusValidated,
		}, now)
	}

	first := grant(t1)
	if res := es.UpsertEdges(ctx, []*models.Hyperedge{first}); !res.OK() {
		t.Fatal(res.Err())
	}
	if res := es.UpsertEdges(ctx, []*models.Hyperedge{grant(t2)}); !res.OK() {
		t.Fatal(res.Err())
	}

	edges, err := es.EdgesForMovie(ctx, "1", models.EdgeDistributionRight)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(edges))
	}
	e := edges[0]
	if e.ID != first.ID {
		t.Errorf("id = %s, want %s", e.ID, first.ID)
	}
	if !e.TransactionTime.Equal(t1) || !e.ValidFrom.Equal(t1) {
		t.Errorf("transactionTime = %v validFrom = %v, want both %v", e.TransactionTime, e.ValidFrom, t1)
	}
	if !e.ValidTo.Equal(t2.Add(year)) {
		t.Errorf("validTo = %v, want renewal to %v", e.ValidTo, t2.Add(year))
	}
}

func seedMovies(t *testing.T, es *EntityStore) {
	t.Helper()
	ready := func(pm *models.ProcessedMovie, r models.PlatformReadiness, s models.DistributionStatus, year, votes int, avg float64) *models.ProcessedMovie {
		pm.Movie.PlatformReadiness = r
		pm.Movie.DistributionStatus = s
		pm.Movie.ReleaseYear = year
		pm.Movie.VoteCount = votes
		pm.Movie.VoteAverage = avg
		return pm
	}
	all := models.PlatformReadiness{Netflix: true, Amazon: true, FAST: true}
	netflix := models.PlatformReadiness{Netflix: true}

	withEmbedding := newProcessed("1", "Heat", 50, "Action", "Crime", "Drama")
	withEmbedding.Movie.Embedding = []float32{0.1, 0.2}
	withEmbedding.Movie.EmbeddingModel = "models/text-embedding-004"

	res := es.StoreProcessed(context.Background(), []*models.ProcessedMovie{
		ready(withEmbedding, all, models.StatusReady, 1995, 5000, 8.3),
		ready(newProcessed("2", "Ronin", 20, "Action", "Crime"), netflix, models.StatusValidated, 1998, 2000, 7.2),
		ready(newProcessed("3", "Collateral", 30, "Crime"), all, models.StatusReady, 2004, 4000, 7.5),
		ready(newProcessed("4", "Amélie", 40, "Comedy"), models.PlatformReadiness{}, models.StatusFailed, 2001, 6000, 7.9),
		ready(newProcessed("5", "Speed", 10, "Action"), netflix, models.StatusValidated, 1994, 100, 6.1),
	})
	if err := res.Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestEntityStore_QueryMovies(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))
	seedMovies(t, es)

	tests := []struct {
		name string
		q    MovieQuery
		want []string
	}{
		{"all by popularity", MovieQuery{OrderBy: "popularity", Desc: true}, []string{"1", "4", "3", "2", "5"}},
		{"limit", MovieQuery{OrderBy: "popularity", Desc: true, Limit: 2}, []string{"1", "4"}},
		{"offset", MovieQuery{OrderBy: "popularity", Desc: true, Limit: 2, Offset: 2}, []string{"3", "2"}},
		{"offset past end", MovieQuery{OrderBy: "popularity", Limit: 2, Offset: 10}, []string{}},
		{"ready status", MovieQuery{Status: models.StatusReady, OrderBy: "releaseYear"}, []string{"1", "3"}},
		{"ready on netflix", MovieQuery{ReadyOn: models.PlatformNetflix, OrderBy: "popularity"}, []string{"5", "2", "3", "1"}},
		{"ready on fast", MovieQuery{ReadyOn: models.PlatformFAST, OrderBy: "popularity"}, []string{"3", "1"}},
		{"nineties", MovieQuery{ReleaseYear: Between(1990, 1999), OrderBy: "releaseYear"}, []string{"5", "1", "2"}},
		{"well rated", MovieQuery{VoteAverage: AtLeast(7.5), VoteCount: AtLeast(1000), OrderBy: "voteAverage", Desc: true}, []string{"1", "4", "3"}},
		{"low popularity", MovieQuery{Popularity: AtMost(20), OrderBy: "popularity"}, []string{"5", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := es.QueryMovies(ctx, tt.q)
			if err != nil {
				t.Fatalf("QueryMovies() error = %v", err)
			}
			ids := make([]string, len(got))
			for i, m := range got {
				ids[i] = m.ID
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestEntityStore_Edges(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))
	seedMovies(t, es)

	edges, err := es.EdgesForMovie(ctx, "1", models.EdgeGenreOf)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 3 || !edges[0].Primary || edges[0].TargetID != "genre-Action" {
		t.Errorf("EdgesForMovie = %+v", edges)
	}

	none, err := es.EdgesForMovie(ctx, "1", models.EdgeSimilarTo)
	if err != nil || len(none) != 0 {
		t.Errorf("EdgesForMovie(SIMILAR_TO) = %v, %v", none, err)
	}

	crime, err := es.EdgesForEntity(ctx, models.NodeGenre, "genre-Crime")
	if err != nil {
		t.Fatal(err)
	}
	if len(crime) != 3 {
		t.Errorf("EdgesForEntity(Crime) = %d edges, want 3", len(crime))
	}
}

func TestEntityStore_RelatedMovies(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))
	seedMovies(t, es)

	related, err := es.RelatedMovies(ctx, "1", 0)
	if err != nil {
		t.Fatal(err)
	}

	// Ronin shares Action+Crime; Collateral shares Crime (pop 30); Speed
	// shares Action (pop 10); Amélie shares nothing.
	want := []struct {
		id     string
		shared int
	}{{"2", 2}, {"3", 1}, {"5", 1}}
	if len(related) != len(want) {
		t.Fatalf("related = %d movies, want %d", len(related), len(want))
	}
	for i, w := range want {
		if related[i].Movie.ID != w.id || related[i].SharedGenres != w.shared {
			t.Errorf("related[%d] = %s/%d, want %s/%d", i, related[i].Movie.ID, related[i].SharedGenres, w.id, w.shared)
		}
	}

	limited, _ := es.RelatedMovies(ctx, "1", 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}

	lonely, err := es.RelatedMovies(ctx, "unknown", 5)
	if err != nil || len(lonely) != 0 {
		t.Errorf("RelatedMovies(unknown) = %v, %v", lonely, err)
	}
}

func TestEntityStore_Aggregates(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))
	seedMovies(t, es)

	agg, err := es.Aggregates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Collections[models.CollectionMovies] != 5 || agg.Collections[models.CollectionGenres] != 4 {
		t.Errorf("collections = %v", agg.Collections)
	}
	if agg.Collections[models.CollectionCompanies] != 0 {
		t.Errorf("empty collection = %d", agg.Collections[models.CollectionCompanies])
	}
	if agg.PlatformReady[models.PlatformNetflix] != 4 || agg.PlatformReady[models.PlatformAmazon] != 2 || agg.PlatformReady[models.PlatformFAST] != 2 {
		t.Errorf("platform ready = %v", agg.PlatformReady)
	}
	if agg.StatusCounts[models.StatusReady] != 2 || agg.StatusCounts[models.StatusValidated] != 2 ||
		agg.StatusCounts[models.StatusFailed] != 1 || agg.StatusCounts[models.StatusDelivered] != 0 {
		t.Errorf("status counts = %v", agg.StatusCounts)
	}
	if agg.WithEmbedding != 1 {
		t.Errorf("with embedding = %d, want 1", agg.WithEmbedding)
	}
}

func TestEntityStore_RunStats(t *testing.T) {
	ctx := context.Background()
	es := NewEntityStore(NewMemoryStore(0))

	if _, err := es.LatestRunStats(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestRunStats() on empty store error = %v", err)
	}

	first := models.NewRunStats("run-1", testNow)
	first.SuccessfulMovies = 10
	second := models.NewRunStats("run-2", testNow.Add(time.Hour))
	second.SuccessfulMovies = 20
	second.Duration = 90 * time.Second
	second.PlatformReady[models.PlatformFAST] = 7

	for _, st := range []*models.RunStats{first, second} {
		if err := es.SaveRunStats(ctx, st); err != nil {
			t.Fatalf("SaveRunStats() error = %v", err)
		}
	}

	got, err := es.LatestRunStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-2" || got.SuccessfulMovies != 20 || got.Duration != 90*time.Second || got.PlatformReady[models.PlatformFAST] != 7 {
		t.Errorf("LatestRunStats() = %+v", got)
	}
}

func TestEntityStore_Close(t *testing.T) {
	mirror := &recordingMirror{}
	es := NewEntityStore(NewMemoryStore(0), WithMirror(mirror))
	if err := es.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !mirror.closed {
		t.Error("mirror not closed")
	}
}
