package selection

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "movienight-workers/internal/common/errors"
	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/common/metrics"
	"movienight-workers/internal/tmdb"
)

// Engine combines the selector and the enricher into one run.
type Engine struct {
	selector *Selector
	enricher *Enricher
	logger   logger.Logger
	// defaults per category, applied under the caller's Config
	defaults map[Category]Config
}

func NewEngine(catalog Catalog, defaults map[Category]Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if defaults == nil {
		defaults = map[Category]Config{}
	}
	return &Engine{
		selector: NewSelector(catalog, log),
		enricher: NewEnricher(catalog, log),
		logger:   log,
		defaults: defaults,
	}
}

// Resolve layers cfg over the category defaults and the built-in fallbacks.
func (e *Engine) Resolve(d *Descriptor, cfg Config) Config {
	base := e.defaults[d.Category]
	merged := base
	if cfg.PagesToSearch > 0 {
		merged.PagesToSearch = cfg.PagesToSearch
	}
	if cfg.PageRange > 0 {
		merged.PageRange = cfg.PageRange
	}
	if cfg.PriorStrength > 0 {
		merged.PriorStrength = cfg.PriorStrength
	}
	if cfg.PriorMean > 0 {
		merged.PriorMean = cfg.PriorMean
	}
	if cfg.MinWeightedScore > 0 {
		merged.MinWeightedScore = cfg.MinWeightedScore
	}
	if cfg.MinVoteCount > 0 {
		merged.MinVoteCount = cfg.MinVoteCount
	}
	if cfg.MinVoteAverage > 0 {
		merged.MinVoteAverage = cfg.MinVoteAverage
	}
	if cfg.MaxAttempts > 0 {
		merged.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.ExcludedGenres != nil {
		merged.ExcludedGenres = cfg.ExcludedGenres
	}
	if cfg.SortBy != "" {
		merged.SortBy = cfg.SortBy
	}
	if cfg.Region != "" {
		merged.Region = cfg.Region
	}
	if cfg.MaxProviderChecks > 0 {
		merged.MaxProviderChecks = cfg.MaxProviderChecks
	}
	merged.RequireStreaming = cfg.RequireStreaming || base.RequireStreaming
	if len(cfg.ProviderIDs) > 0 {
		merged.ProviderIDs = cfg.ProviderIDs
	}
	return merged.withDefaults(d)
}

// Select runs one full selection. Empty, degraded and failed outcomes are
// reported through Result.Status; the error is non-nil only for an unknown
// category or a done context.
func (e *Engine) Select(ctx context.Context, category Category, cfg Config) (*Result, error) {
	d, ok := Lookup(string(category))
	if !ok {
		return nil, apperrors.NewInvalidCategoryError(string(category))
	}
	cfg = e.Resolve(d, cfg)

	res := &Result{
		RunID:     uuid.NewString(),
		Category:  d.Category,
		Providers: map[int][]Provider{},
		StartedAt: time.Now().UTC(),
	}
	log := e.logger.WithFields(map[string]interface{}{
		"category": string(d.Category),
		"runId":    res.RunID,
	})

	outcome, err := e.selector.Run(ctx, d, cfg)
	if err != nil {
		return nil, err
	}
	res.Attempts = outcome.Attempts
	for id, p := range outcome.Providers {
		res.Providers[id] = p
	}

	if outcome.Pick == nil {
		res.Status = StatusEmpty
		if outcome.FailedAttempts == outcome.Attempts {
			res.Status = StatusFailed
		}
		return e.finish(log, res), nil
	}

	var known []Provider
	if cfg.RequireStreaming {
		known = outcome.Providers[outcome.Pick.ID]
	}
	enrichment := e.enricher.Enrich(ctx, d, *outcome.Pick, cfg.Region, known)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.applyEnrichment(d, res, enrichment)
	return e.finish(log, res), nil
}

// EnrichByID enriches a caller supplied id. The details lookup seeds the
// candidate, so its failure is returned as an error.
func (e *Engine) EnrichByID(ctx context.Context, category Category, id int, cfg Config) (*Result, error) {
	d, ok := Lookup(string(category))
	if !ok {
		return nil, apperrors.NewInvalidCategoryError(string(category))
	}
	cfg = e.Resolve(d, cfg)

	var cand Candidate
	var item Item
	if d.Media == tmdb.MediaMovie {
		details, err := e.enricher.catalog.MovieDetails(ctx, id)
		if err != nil {
			return nil, apperrors.NewLookupFailedError(LookupDetails, id, err)
		}
		cand = candidateFromMovieDetails(details)
		item = Item{Candidate: cand, Runtime: details.Runtime}
	} else {
		details, err := e.enricher.catalog.SeriesDetails(ctx, id)
		if err != nil {
			return nil, apperrors.NewLookupFailedError(LookupDetails, id, err)
		}
		cand = candidateFromSeriesDetails(details)
		item = Item{Candidate: cand, Seasons: details.NumberOfSeasons}
	}
	item.Score = Score(cand, cfg.PriorStrength, cfg.PriorMean)

	res := &Result{
		RunID:     uuid.NewString(),
		Category:  d.Category,
		Providers: map[int][]Provider{},
		StartedAt: time.Now().UTC(),
	}
	enrichment := e.enricher.enrich(ctx, d, item, cfg.Region, nil, false)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.applyEnrichment(d, res, enrichment)
	return e.finish(e.logger.WithFields(map[string]interface{}{
		"category": string(d.Category),
		"runId":    res.RunID,
	}), res), nil
}

func (e *Engine) applyEnrichment(d *Descriptor, res *Result, en *Enrichment) {
	item := en.Item
	res.Item = &item
	res.Certification = en.Certification
	res.RatingLabel = NormalizeRating(en.Certification)
	res.AgeWarning = AgeWarning(en.Certification, d)
	res.Providers[item.ID] = en.Providers
	res.Degradations = en.Degradations
	res.Status = StatusSuccess
	if len(en.Degradations) > 0 {
		res.Status = StatusDegraded
	}
}

func (e *Engine) finish(log logger.Logger, res *Result) *Result {
	res.FinishedAt = time.Now().UTC()
	metrics.SelectionRuns.WithLabelValues(string(res.Category), string(res.Status)).Inc()

	fields := map[string]interface{}{
		"status":   string(res.Status),
		"attempts": res.Attempts,
		"duration": res.FinishedAt.Sub(res.StartedAt).String(),
	}
	if res.Item != nil {
		fields["id"] = res.Item.ID
		fields["title"] = res.Item.Title
	}
	switch res.Status {
	case StatusFailed:
		log.Warn("selection failed, metadata service unreachable", fields)
	case StatusDegraded:
		fields["degradations"] = len(res.Degradations)
		log.Warn("selection degraded", fields)
	default:
		log.Info("selection finished", fields)
	}
	return res
}
