package selection

import (
	"context"

	"github.com/sourcegraph/conc"

	apperrors "movienight-workers/internal/common/errors"
	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/common/metrics"
	"movienight-workers/internal/tmdb"
)

const (
	LookupDetails       = "details"
	LookupCertification = "certification"
	LookupProviders     = "providers"
)

// Enricher runs the secondary lookups for a selected candidate. No lookup
// failure removes the candidate; each one only voids its own fields.
type Enricher struct {
	catalog Catalog
	logger  logger.Logger
}

func NewEnricher(catalog Catalog, log logger.Logger) *Enricher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Enricher{catalog: catalog, logger: log}
}

// Enrichment is the merged output of the three lookups.
type Enrichment struct {
	Item          Item
	Certification string
	// Providers is never nil; an empty list means checked and none found
	Providers    []Provider
	Degradations []Degradation
}

// Enrich runs details, certification and providers concurrently. known, when
// non-nil, is used instead of a providers lookup.
func (e *Enricher) Enrich(ctx context.Context, d *Descriptor, sc ScoredCandidate, region string, known []Provider) *Enrichment {
	item := Item{Candidate: sc.Candidate, Score: sc.Score}
	return e.enrich(ctx, d, item, region, known, true)
}

func (e *Enricher) enrich(ctx context.Context, d *Descriptor, item Item, region string, known []Provider, withDetails bool) *Enrichment {
	var (
		wg         conc.WaitGroup
		detailsErr error
		cert       string
		certErr    error
		providers  = known
		provErr    error
	)

	id := item.ID
	if withDetails {
		wg.Go(func() { detailsErr = e.applyDetails(ctx, d, &item) })
	}
	wg.Go(func() { cert, certErr = e.certification(ctx, d, id, region) })
	if known == nil {
		wg.Go(func() { providers, provErr = e.providers(ctx, d, id, region) })
	}
	wg.Wait()

	out := &Enrichment{Item: item, Certification: cert, Providers: providers}
	if out.Providers == nil {
		out.Providers = []Provider{}
	}
	e.applyGenreNames(ctx, d, &out.Item)

	for _, f := range []struct {
		lookup string
		err    error
	}{
		{LookupDetails, detailsErr},
		{LookupCertification, certErr},
		{LookupProviders, provErr},
	} {
		if f.err == nil {
			continue
		}
		stdErr := apperrors.NewLookupFailedError(f.lookup, id, f.err)
		out.Degradations = append(out.Degradations, Degradation{
			Lookup:  f.lookup,
			Code:    string(stdErr.Code),
			Message: f.err.Error(),
		})
		metrics.EnrichmentFailures.WithLabelValues(string(d.Category), f.lookup).Inc()
		e.logger.Warn("enrichment lookup failed", map[string]interface{}{
			"category":  string(d.Category),
			"id":        id,
			"lookup":    f.lookup,
			"errorCode": string(stdErr.Code),
			"error":     f.err.Error(),
		})
	}
	return out
}

func (e *Enricher) applyDetails(ctx context.Context, d *Descriptor, item *Item) error {
	if d.Media == tmdb.MediaMovie {
		details, err := e.catalog.MovieDetails(ctx, item.ID)
		if err != nil {
			return err
		}
		mergeMovieDetails(item, details)
		return nil
	}
	details, err := e.catalog.SeriesDetails(ctx, item.ID)
	if err != nil {
		return err
	}
	mergeSeriesDetails(item, details)
	return nil
}

func mergeMovieDetails(item *Item, details *tmdb.MovieDetails) {
	item.Runtime = details.Runtime
	if item.Overview == "" {
		item.Overview = details.Overview
	}
	if item.PosterPath == "" {
		item.PosterPath = details.PosterPath
	}
	if len(item.GenreIDs) == 0 {
		item.GenreIDs = genreIDs(details.Genres)
	}
}

func mergeSeriesDetails(item *Item, details *tmdb.SeriesDetails) {
	item.Seasons = details.NumberOfSeasons
	if len(details.Genres) > 0 {
		item.GenreIDs = genreIDs(details.Genres)
	}
	if item.Overview == "" {
		item.Overview = details.Overview
	}
	if item.PosterPath == "" {
		item.PosterPath = details.PosterPath
	}
}

func (e *Enricher) certification(ctx context.Context, d *Descriptor, id int, region string) (string, error) {
	if d.Media == tmdb.MediaMovie {
		resp, err := e.catalog.MovieReleaseDates(ctx, id)
		if err != nil {
			return "", err
		}
		return MovieCertification(resp, region), nil
	}
	resp, err := e.catalog.SeriesContentRatings(ctx, id)
	if err != nil {
		return "", err
	}
	return SeriesCertification(resp, region), nil
}

func (e *Enricher) providers(ctx context.Context, d *Descriptor, id int, region string) ([]Provider, error) {
	resp, err := e.catalog.WatchProviders(ctx, d.Media, id)
	if err != nil {
		return []Provider{}, err
	}
	return FlattenProviders(resp, region), nil
}

// applyGenreNames resolves genre ids through the cached genre list. Unknown
// ids are skipped and a failed lookup leaves the names empty.
func (e *Enricher) applyGenreNames(ctx context.Context, d *Descriptor, item *Item) {
	if len(item.GenreIDs) == 0 {
		return
	}
	names, err := e.catalog.Genres(ctx, d.Media)
	if err != nil {
		e.logger.Warn("genre lookup failed", map[string]interface{}{
			"category": string(d.Category),
			"error":    err.Error(),
		})
		return
	}
	for _, id := range item.GenreIDs {
		if name, ok := names[id]; ok {
			item.GenreNames = append(item.GenreNames, name)
		}
	}
}

func genreIDs(genres []tmdb.Genre) []int {
	ids := make([]int, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}

func candidateFromMovieDetails(m *tmdb.MovieDetails) Candidate {
	return Candidate{
		ID:               m.ID,
		Title:            m.Title,
		OriginalLanguage: m.OriginalLanguage,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		GenreIDs:         genreIDs(m.Genres),
		ReleaseDate:      m.ReleaseDate,
		PosterPath:       m.PosterPath,
		Overview:         m.Overview,
	}
}

func candidateFromSeriesDetails(s *tmdb.SeriesDetails) Candidate {
	return Candidate{
		ID:               s.ID,
		Title:            s.Name,
		OriginalLanguage: s.OriginalLanguage,
		VoteAverage:      s.VoteAverage,
		VoteCount:        s.VoteCount,
		GenreIDs:         genreIDs(s.Genres),
		ReleaseDate:      s.FirstAirDate,
		PosterPath:       s.PosterPath,
		Overview:         s.Overview,
	}
}
