package selection

import (
	"context"
	"math/rand"

	"github.com/sourcegraph/conc/pool"

	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/common/metrics"
	"movienight-workers/internal/tmdb"
)

// Selector runs the sample, fetch, filter loop.
type Selector struct {
	catalog Catalog
	logger  logger.Logger
}

func NewSelector(catalog Catalog, log logger.Logger) *Selector {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Selector{catalog: catalog, logger: log}
}

// Outcome is what the retry loop hands to enrichment. Pick is nil when no
// attempt produced an admissible candidate.
type Outcome struct {
	Pick      *ScoredCandidate
	Providers map[int][]Provider
	Attempts  int
	// FailedAttempts counts attempts in which every page fetch failed
	FailedAttempts int
}

type pageResult struct {
	page  int
	items []tmdb.DiscoverItem
	err   error
}

// Run performs at most cfg.MaxAttempts attempts and stops at the first one
// that yields a pick. It only returns an error when ctx is done.
func (s *Selector) Run(ctx context.Context, d *Descriptor, cfg Config) (*Outcome, error) {
	out := &Outcome{Providers: make(map[int][]Provider)}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		out.Attempts = attempt
		metrics.SelectionAttempts.WithLabelValues(string(d.Category)).Inc()

		pages := samplePages(cfg.PageRange, cfg.PagesToSearch)
		results := s.fetchPages(ctx, d, cfg, pages)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var candidates []Candidate
		failed := 0
		for _, r := range results {
			if r.err != nil {
				failed++
				s.logger.Warn("discover page failed", map[string]interface{}{
					"category": string(d.Category),
					"page":     r.page,
					"attempt":  attempt,
					"error":    r.err.Error(),
				})
				continue
			}
			for _, it := range r.items {
				candidates = append(candidates, candidateFromDiscover(it))
			}
		}
		if failed == len(results) {
			out.FailedAttempts++
			continue
		}

		admissible := Filter(candidates, cfg, d)
		metrics.SelectionAdmissibleCandidates.WithLabelValues(string(d.Category)).Observe(float64(len(admissible)))
		s.logger.Debug("attempt filtered", map[string]interface{}{
			"category":   string(d.Category),
			"attempt":    attempt,
			"pages":      pages,
			"candidates": len(candidates),
			"admissible": len(admissible),
		})
		if len(admissible) == 0 {
			continue
		}

		if !cfg.RequireStreaming {
			pick := admissible[rand.Intn(len(admissible))]
			out.Pick = &pick
			return out, nil
		}

		pick, err := s.firstWithProviders(ctx, d, cfg, admissible, out.Providers)
		if err != nil {
			return nil, err
		}
		if pick != nil {
			out.Pick = pick
			return out, nil
		}
	}
	return out, nil
}

func (s *Selector) fetchPages(ctx context.Context, d *Descriptor, cfg Config, pages []int) []pageResult {
	p := pool.NewWithResults[pageResult]().WithMaxGoroutines(len(pages))
	for _, page := range pages {
		page := page
		p.Go(func() pageResult {
			resp, err := s.catalog.Discover(ctx, d.Media, tmdb.DiscoverQuery{
				Page:           page,
				MinVoteCount:   cfg.MinVoteCount,
				MinVoteAverage: cfg.MinVoteAverage,
				SortBy:         cfg.SortBy,
				WithoutGenres:  cfg.ExcludedGenres,
			})
			if err != nil {
				return pageResult{page: page, err: err}
			}
			return pageResult{page: page, items: resp.Results}
		})
	}
	return p.Wait()
}

// firstWithProviders walks the admissible set in random order and returns the
// first candidate available in the region. Every checked candidate lands in
// checked, failed lookups excepted.
func (s *Selector) firstWithProviders(ctx context.Context, d *Descriptor, cfg Config, admissible []ScoredCandidate, checked map[int][]Provider) (*ScoredCandidate, error) {
	order := rand.Perm(len(admissible))
	limit := min(cfg.MaxProviderChecks, len(order))

	for _, idx := range order[:limit] {
		c := admissible[idx]
		resp, err := s.catalog.WatchProviders(ctx, d.Media, c.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("provider check failed", map[string]interface{}{
				"category": string(d.Category),
				"id":       c.ID,
				"error":    err.Error(),
			})
			continue
		}
		providers := FlattenProviders(resp, cfg.Region)
		checked[c.ID] = providers
		if hasAnyProvider(providers, cfg.ProviderIDs) {
			return &c, nil
		}
	}
	return nil, nil
}

// samplePages draws n distinct pages from 1..pageRange.
func samplePages(pageRange, n int) []int {
	if n > pageRange {
		n = pageRange
	}
	perm := rand.Perm(pageRange)[:n]
	pages := make([]int, n)
	for i, p := range perm {
		pages[i] = p + 1
	}
	return pages
}
