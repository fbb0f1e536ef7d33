// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/mediagraph/internal/config"
	"github.com/tomtom215/mediagraph/internal/embedding"
	"github.com/tomtom215/mediagraph/internal/logging"
	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/models"
	"github.com/tomtom215/mediagraph/internal/source"
	"github.com/tomtom215/mediagraph/internal/store"
	"github.com/tomtom215/mediagraph/internal/transform"
	"github.com/tomtom215/mediagraph/internal/validation"
)

// ErrRunInProgress is returned by Run while another run is active.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// EventSink receives readiness and run-completed notifications.
// *events.Publisher implements it.
type EventSink interface {
	PublishReadiness(ctx context.Context, runID string, movies []*models.MovieNode) error
	PublishRunCompleted(ctx context.Context, stats *models.RunStats, runErr error) error
}

// Failure is one entry of the run's failure log.
type Failure struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Phase Phase  `json:"phase"`
	Error string `json:"error"`
}

// RunResult is what Run returns. On a run-level failure Stats holds the
// partial counts reached before the failure.
type RunResult struct {
	Success         bool             `json:"success"`
	Error           string           `json:"error,omitempty"`
	Phase           Phase            `json:"phase"`
	Stats           *models.RunStats `json:"stats"`
	Failures        []Failure        `json:"failures,omitempty"`
	FailuresDropped int              `json:"failuresDropped,omitempty"`
	ResumedAfter    string           `json:"resumedAfter,omitempty"`
}

// Orchestrator drives the five-phase ingestion pipeline.
type Orchestrator struct {
	cfg        *config.Config
	source     source.Source
	store      *store.EntityStore
	embedder   embedding.Provider
	validator  *validation.Validator
	events     EventSink
	progress   ProgressTracker
	onProgress ProgressFunc
	now        func() time.Time

	// State
	mu      sync.RWMutex
	running bool
	runID   string
	phase   Phase
	cancel  context.CancelFunc
	last    *RunResult
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEmbedder enables the embeddings phase.
func WithEmbedder(p embedding.Provider) Option {
	return func(o *Orchestrator) { o.embedder = p }
}

// WithValidator replaces the validator used for full validation.
func WithValidator(v *validation.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithEvents publishes readiness and run-completed events to sink.
func WithEvents(sink EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

// WithProgressTracker persists a checkpoint after every stored batch.
func WithProgressTracker(t ProgressTracker) Option {
	return func(o *Orchestrator) { o.progress = t }
}

// WithProgressFunc registers a progress callback.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator reading from src and writing to st.
func New(cfg *config.Config, src source.Source, st *store.EntityStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		source: src,
		store:  st,
		now:    time.Now,
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.validator == nil {
		o.validator = validation.NewValidator()
	}
	return o
}

// Run executes one ingestion run. Row and batch failures are counted and
// logged; only a source failure, cancellation or a panic fails the run, in
// which case both the result and the error are returned.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	id := logging.GenerateRunID()
	r := &run{
		o:     o,
		id:    id,
		stats: models.NewRunStats(id, o.now()),
		limit: o.cfg.Ingest.FailureLogLimit,
	}
	o.running = true
	o.runID = r.id
	o.phase = PhaseIdle
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.running = false
		o.cancel = nil
		o.mu.Unlock()
	}()

	ctx = logging.ContextWithRunID(ctx, r.id)
	logging.Ctx(ctx).Info().
		Int("target_size", o.cfg.Ingest.TargetSize).
		Int("min_vote_count", o.cfg.Ingest.MinVoteCount).
		Bool("embeddings", o.embeddingsEnabled()).
		Bool("resume", o.cfg.Ingest.Resume).
		Msg("Starting ingestion run")

	err := r.execute(ctx)
	return o.finish(ctx, r, err)
}

// Stop cancels the active run.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return fmt.Errorf("no ingestion run in progress")
	}
	o.cancel()
	return nil
}

// IsRunning reports whether a run is active.
func (o *Orchestrator) IsRunning() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running
}

// Phase returns the current run ID and phase. Between runs the phase is
// that of the last run.
func (o *Orchestrator) Phase() (string, Phase) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.runID, o.phase
}

// LastResult returns the result of the last finished run, or nil.
func (o *Orchestrator) LastResult() *RunResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return nil
	}
	res := *o.last
	return &res
}

func (o *Orchestrator) embeddingsEnabled() bool {
	return o.embedder != nil && !o.cfg.Ingest.SkipEmbeddings
}

// finish records the outcome of a run.
func (o *Orchestrator) finish(ctx context.Context, r *run, runErr error) (*RunResult, error) {
	final := PhaseComplete
	if runErr != nil {
		final = PhaseFailed
	}
	r.enter(ctx, final, 0)

	stats := r.stats
	stats.CompletedAt = o.now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)

	result := &RunResult{
		Success:         runErr == nil,
		Phase:           final,
		Stats:           stats,
		Failures:        r.failures,
		FailuresDropped: r.dropped,
		ResumedAfter:    r.resumedAfter,
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	// The run context may already be canceled; bookkeeping still has to land.
	bg := context.WithoutCancel(ctx)

	if err := o.store.SaveRunStats(bg, stats); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to save run statistics")
	}
	if o.events != nil {
		if err := o.events.PublishRunCompleted(bg, stats, runErr); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish run completed event")
		}
	}
	if runErr == nil && o.progress != nil {
		if err := o.progress.Clear(bg); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear checkpoint")
		}
	}

	metrics.SetReadiness(platformCounts(stats.PlatformReady), statusCounts(stats.StatusCounts))
	metrics.RecordRun(runErr)

	o.mu.Lock()
	o.last = result
	o.mu.Unlock()

	ev := logging.Ctx(ctx).Info()
	if runErr != nil {
		ev = logging.Ctx(ctx).Error().Err(runErr)
	}
	ev.
		Int("total_processed", stats.TotalProcessed).
		Int("successful", stats.SuccessfulMovies).
		Int("stored", stats.Stored).
		Int("embeddings", stats.EmbeddingsGenerated).
		Int("errors", stats.Errors).
		Int("skipped", stats.RecordsSkipped).
		Int("edges", stats.EdgesCreated).
		Dur("duration", stats.Duration).
		Float64("movies_per_second", stats.MoviesPerSecond()).
		Msg("Ingestion run finished")

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func platformCounts(in map[models.Platform]int) map[string]int {
	out := make(map[string]int, len(models.AllPlatforms))
	for _, p := range models.AllPlatforms {
		out[string(p)] = in[p]
	}
	return out
}

func statusCounts(in map[models.DistributionStatus]int) map[string]int {
	out := make(map[string]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		out[string(s)] = in[s]
	}
	return out
}

// run holds the state of one Run call. Nothing in it is shared between runs.
type run struct {
	o     *Orchestrator
	id    string
	stats *models.RunStats

	phase      Phase
	phaseStart time.Time

	failures     []Failure
	dropped      int
	limit        int
	resumedAfter string
}

// execute runs the phases in order, turning a panic into a run failure.
func (r *run) execute(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("ingestion panic in %s phase: %v", r.phase, p)
		}
	}()

	ranked, err := r.load(ctx)
	if err != nil {
		return err
	}
	movies, err := r.transform(ctx, ranked)
	if err != nil {
		return err
	}
	if err := r.embed(ctx, movies); err != nil {
		return err
	}
	if err := r.validate(ctx, movies); err != nil {
		return err
	}
	return r.persist(ctx, movies)
}

// enter moves the run to phase p, closing the timing of the previous phase
// and reporting the transition.
func (r *run) enter(ctx context.Context, p Phase, total int) {
	now := r.o.now()
	if r.phase != "" {
		metrics.RecordPhase(string(r.phase), now.Sub(r.phaseStart))
	}
	r.phase = p
	r.phaseStart = now

	r.o.mu.Lock()
	r.o.phase = p
	r.o.mu.Unlock()

	logging.Ctx(ctx).Debug().Str("phase", string(p)).Int("total", total).Msg("Entering phase")
	if r.o.onProgress != nil {
		r.o.onProgress(Progress{RunID: r.id, Phase: p, Total: total, At: now})
	}
}

func (r *run) meter(total int) *progressMeter {
	return newProgressMeter(r.o.onProgress, r.o.cfg.Ingest.ProgressEvery,
		Progress{RunID: r.id, Phase: r.phase, Total: total}, r.o.now)
}

// fail appends to the failure log, counting entries past the cap.
func (r *run) fail(id, title string, phase Phase, err error) {
	if r.limit > 0 && len(r.failures) >= r.limit {
		r.dropped++
		return
	}
	r.failures = append(r.failures, Failure{ID: id, Title: title, Phase: phase, Error: err.Error()})
}

// load streams the source through the ranking buffer and applies the resume
// checkpoint.
func (r *run) load(ctx context.Context) ([]models.RawRecord, error) {
	cfg := r.o.cfg
	r.enter(ctx, PhaseLoading, cfg.Ingest.TargetSize)
	ctx = logging.ContextWithPhase(ctx, string(PhaseLoading))

	if est, err := r.o.source.EstimateRowCount(ctx); err == nil {
		logging.Ctx(ctx).Info().Int64("estimated_rows", est).Msg("Source row estimate")
	} else {
		logging.Ctx(ctx).Debug().Err(err).Msg("Source row estimate unavailable")
	}

	cur, err := r.o.source.StreamRecords(ctx, cfg.Source.Limit)
	if err != nil {
		return nil, fmt.Errorf("stream source: %w", err)
	}
	defer func() {
		if closeErr := cur.Close(); closeErr != nil {
			logging.Ctx(ctx).Warn().Err(closeErr).Msg("Error closing source cursor")
		}
	}()

	ranked, rs, err := Rank(cur, RankOptions{TargetSize: cfg.Ingest.TargetSize, MinVoteCount: cfg.Ingest.MinVoteCount})
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.RecordsFiltered.Add(float64(rs.Filtered))
	r.stats.RecordsSkipped += int(cur.Stats().Skipped) + rs.Filtered

	logging.Ctx(ctx).Info().
		Int("read", rs.Read).
		Int("filtered", rs.Filtered).
		Int("compactions", rs.Compactions).
		Int("ranked", len(ranked)).
		Msg("Source ranked")

	if cfg.Ingest.Resume && r.o.progress != nil {
		cp, err := r.o.progress.Load(ctx)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to load checkpoint, starting fresh")
		} else if cp != nil {
			rest, skipped := SkipThrough(ranked, cp.LastMovieID)
			if skipped > 0 {
				r.resumedAfter = cp.LastMovieID
				r.stats.RecordsSkipped += skipped
				logging.Ctx(ctx).Info().
					Str("last_movie_id", cp.LastMovieID).
					Str("previous_run_id", cp.RunID).
					Int("skipped", skipped).
					Msg("Resuming from checkpoint")
			}
			ranked = rest
		}
	}

	r.meter(len(ranked)).update(len(ranked))
	return ranked, nil
}

// transform turns ranked records into processed movies with a run-scoped
// entity cache.
func (r *run) transform(ctx context.Context, ranked []models.RawRecord) ([]*models.ProcessedMovie, error) {
	r.enter(ctx, PhaseProcessing, len(ranked))
	ctx = logging.ContextWithPhase(ctx, string(PhaseProcessing))

	cache := transform.NewEntityCache()
	proc := transform.NewProcessor(cache, transform.WithClock(r.o.now))
	size := r.o.cfg.Ingest.TransformBatchSize
	if size <= 0 {
		size = 100
	}
	meter := r.meter(len(ranked))

	movies := make([]*models.ProcessedMovie, 0, len(ranked))
	for start := 0; start < len(ranked); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+size, len(ranked))
		out := proc.ProcessBatch(ranked[start:end])

		r.stats.TotalProcessed += out.Stats.Processed
		r.stats.SuccessfulMovies += out.Stats.Succeeded
		r.stats.Errors += out.Stats.Failed
		metrics.RowsProcessed.WithLabelValues(metrics.ResultSuccess).Add(float64(out.Stats.Succeeded))
		metrics.RowsProcessed.WithLabelValues(metrics.ResultFailure).Add(float64(out.Stats.Failed))

		for _, f := range out.Failures {
			r.fail(f.ID, f.Title, PhaseProcessing, f.Err)
			logging.Ctx(ctx).Debug().Err(f.Err).Str("movie_id", f.ID).Msg("Row skipped")
		}
		movies = append(movies, out.Movies...)
		meter.update(end)
	}

	r.stats.EntityCounts = cache.Counts()
	logging.Ctx(ctx).Info().
		Int("processed", r.stats.TotalProcessed).
		Int("successful", r.stats.SuccessfulMovies).
		Int("failed", r.stats.Errors).
		Interface("entities", r.stats.EntityCounts).
		Msg("Transform complete")
	return movies, nil
}

// embed attaches vectors to movies in rate-limited batches. A failed batch
// leaves its movies without vectors.
func (r *run) embed(ctx context.Context, movies []*models.ProcessedMovie) error {
	r.enter(ctx, PhaseEmbeddings, len(movies))
	ctx = logging.ContextWithPhase(ctx, string(PhaseEmbeddings))

	if !r.o.embeddingsEnabled() {
		logging.Ctx(ctx).Info().Msg("Embeddings skipped")
		return nil
	}

	ecfg := r.o.cfg.Embedding
	size := ecfg.BatchSize
	if size <= 0 {
		size = 100
	}
	maxChars := ecfg.MaxTextChars
	if maxChars <= 0 {
		maxChars = embedding.DefaultMaxTextChars
	}
	var limiter *rate.Limiter
	if ecfg.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(ecfg.BatchDelay), 1)
	}
	model := r.o.embedder.Model()
	meter := r.meter(len(movies))

	for start := 0; start < len(movies); start += size {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("embedding rate limit: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(movies))
		batch := movies[start:end]

		texts := make([]string, len(batch))
		for i, pm := range batch {
			texts[i] = embedding.BuildText(pm.Movie, pm.GenreNames(), maxChars)
		}

		vectors, err := r.o.embedder.Embed(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.stats.Errors += len(batch)
			for _, pm := range batch {
				r.fail(pm.Movie.ID, pm.Movie.Title, PhaseEmbeddings, err)
			}
			logging.Ctx(ctx).Error().Err(err).Int("batch_start", start).Int("batch_size", len(batch)).Msg("Embedding batch failed")
			meter.update(end)
			continue
		}

		if len(vectors) != len(batch) {
			err := fmt.Errorf("%w: got %d vectors for %d texts", embedding.ErrResultMismatch, len(vectors), len(batch))
			r.stats.Errors += len(batch)
			for _, pm := range batch {
				r.fail(pm.Movie.ID, pm.Movie.Title, PhaseEmbeddings, err)
			}
			logging.Ctx(ctx).Error().Err(err).Int("batch_start", start).Int("batch_size", len(batch)).Msg("Embedding batch failed")
			meter.update(end)
			continue
		}

		for i, pm := range batch {
			pm.Movie.Embedding = vectors[i]
			pm.Movie.EmbeddingModel = model
		}
		r.stats.EmbeddingsGenerated += len(batch)
		meter.update(end)
	}

	logging.Ctx(ctx).Info().Int("generated", r.stats.EmbeddingsGenerated).Str("model", model).Msg("Embeddings complete")
	return nil
}

// validate assigns readiness and status, and derives distribution-right and
// similarity hyperedges. Movies stored by an earlier run start from their
// stored status and readiness, so the workflow carries across runs.
func (r *run) validate(ctx context.Context, movies []*models.ProcessedMovie) error {
	r.enter(ctx, PhaseStoring, len(movies))
	ctx = logging.ContextWithPhase(ctx, string(PhaseStoring))

	icfg := r.o.cfg.Ingest
	terms := RightsTerms{
		Territories:      icfg.Territories,
		Window:           icfg.LicenseWindow,
		LicenseType:      icfg.LicenseType,
		DistributionType: icfg.DistributionType,
	}
	now := r.o.now()
	stored, err := r.storedMovies(ctx, movies)
	if err != nil {
		return err
	}

	for i, pm := range movies {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		m := pm.Movie
		prev := stored[m.ID]
		if prev != nil {
			m.DistributionStatus = prev.DistributionStatus
			m.PlatformReadiness = prev.PlatformReadiness
		}
		readiness := validation.QuickCheck(m)
		if icfg.FullValidation {
			m.PlatformValidation = r.o.validator.ValidateForAllPlatforms(ctx, pm).Platforms
		}
		if err := m.ApplyReadiness(readiness, validation.DeriveStatus(readiness), now); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("movie_id", m.ID).Str("status", string(m.DistributionStatus)).Msg("Stored status kept")
		}
		if prev != nil {
			pm.Edges = append(pm.Edges, r.retireRights(ctx, m, prev.PlatformReadiness, now)...)
		}
		pm.Edges = append(pm.Edges, DistributionEdges(m, terms, now)...)

		for _, p := range m.PlatformReadiness.Ready() {
			r.stats.PlatformReady[p]++
		}
		r.stats.StatusCounts[m.DistributionStatus]++
	}

	if icfg.SimilarityTopK > 0 && r.stats.EmbeddingsGenerated > 0 {
		nodes := make([]*models.MovieNode, len(movies))
		for i, pm := range movies {
			nodes[i] = pm.Movie
		}
		sims := SimilarityEdges(nodes, icfg.SimilarityTopK, icfg.SimilarityThreshold, now)
		n := 0
		for _, pm := range movies {
			edges := sims[pm.Movie.ID]
			pm.Edges = append(pm.Edges, edges...)
			n += len(edges)
		}
		logging.Ctx(ctx).Info().Int("edges", n).Int("top_k", icfg.SimilarityTopK).Msg("Similarity edges built")
	}

	logging.Ctx(ctx).Info().
		Interface("platform_ready", r.stats.PlatformReady).
		Interface("status_counts", r.stats.StatusCounts).
		Msg("Validation complete")
	return nil
}

// storedMovies returns the movies an earlier run already stored, keyed by ID.
// A failed lookup is logged and its movies are treated as new.
func (r *run) storedMovies(ctx context.Context, movies []*models.ProcessedMovie) (map[string]*models.MovieNode, error) {
	size := r.o.cfg.Ingest.StoreBatchSize
	if size <= 0 {
		size = 100
	}
	out := make(map[string]*models.MovieNode)
	for start := 0; start < len(movies); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+size, len(movies))
		ids := make([]string, 0, end-start)
		for _, pm := range movies[start:end] {
			ids = append(ids, pm.Movie.ID)
		}
		found, err := r.o.store.GetMovies(ctx, ids)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("batch_start", start).Msg("Stored status lookup failed")
			continue
		}
		for _, m := range found {
			out[m.ID] = m
		}
	}
	return out, nil
}

// retireRights closes the stored rights of platforms m was ready for before
// this run and no longer is.
func (r *run) retireRights(ctx context.Context, m *models.MovieNode, before models.PlatformReadiness, now time.Time) []*models.Hyperedge {
	dropped := false
	for _, p := range before.Ready() {
		if !m.PlatformReadiness.Get(p) {
			dropped = true
			break
		}
	}
	if !dropped {
		return nil
	}
	edges, err := r.o.store.EdgesForMovie(ctx, m.ID, models.EdgeDistributionRight)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("movie_id", m.ID).Msg("Stored rights lookup failed")
		return nil
	}
	retired := RetiredRights(edges, m, now)
	if len(retired) > 0 {
		logging.Ctx(ctx).Debug().Str("movie_id", m.ID).Int("rights", len(retired)).Msg("Distribution rights closed")
	}
	return retired
}

// persist writes movies in fixed-size batches. A failed batch counts every
// movie in it as an error and the remaining batches still run.
func (r *run) persist(ctx context.Context, movies []*models.ProcessedMovie) error {
	size := r.o.cfg.Ingest.StoreBatchSize
	if size <= 0 {
		size = 100
	}
	ctx = logging.ContextWithPhase(ctx, string(PhaseStoring))
	meter := r.meter(len(movies))
	checkpointing := r.o.progress != nil

	for start, batchNo := 0, 1; start < len(movies); start, batchNo = start+size, batchNo+1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(movies))
		batch := movies[start:end]

		res := r.o.store.StoreProcessed(ctx, batch)
		if !res.OK() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err := res.Err()
			r.stats.Errors += len(batch)
			for _, pm := range batch {
				r.fail(pm.Movie.ID, pm.Movie.Title, PhaseStoring, err)
			}
			logging.Ctx(ctx).Error().Err(err).Int("batch", batchNo).Int("batch_size", len(batch)).Msg("Store batch failed")
			// A later checkpoint would skip this batch on resume.
			checkpointing = false
			meter.update(end)
			continue
		}

		r.stats.Stored += len(batch)
		r.stats.EdgesCreated += res.Edges
		r.publishReady(ctx, batch)
		if checkpointing {
			r.checkpoint(ctx, batch[len(batch)-1].Movie.ID)
		}
		logging.Ctx(ctx).Debug().Int("batch", batchNo).Int("movies", res.Movies).Int("edges", res.Edges).Msg("Batch stored")
		meter.update(end)
	}
	return nil
}

func (r *run) publishReady(ctx context.Context, batch []*models.ProcessedMovie) {
	if r.o.events == nil {
		return
	}
	var ready []*models.MovieNode
	for _, pm := range batch {
		if pm.Movie.DistributionStatus == models.StatusReady {
			ready = append(ready, pm.Movie)
		}
	}
	if len(ready) == 0 {
		return
	}
	if err := r.o.events.PublishReadiness(ctx, r.id, ready); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("movies", len(ready)).Msg("Failed to publish readiness events")
	}
}

func (r *run) checkpoint(ctx context.Context, lastID string) {
	cp := &Checkpoint{RunID: r.id, LastMovieID: lastID, Stored: r.stats.Stored, UpdatedAt: r.o.now()}
	if err := r.o.progress.Save(ctx, cp); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to save checkpoint")
	}
}
