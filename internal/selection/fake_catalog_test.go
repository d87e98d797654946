package selection

import (
	"context"
	"errors"
	"sync"

	"movienight-workers/internal/tmdb"
)

var errUpstream = &tmdb.APIError{Endpoint: "test", StatusCode: 500, Err: errors.New("status 500")}

// fakeCatalog is an in-memory Catalog. Nil funcs answer with empty data.
type fakeCatalog struct {
	mu            sync.Mutex
	discoverCalls int
	pages         []int
	providerCalls map[int]int

	discover       func(call int, media tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error)
	genres         map[int]string
	genresErr      error
	movieDetails   func(id int) (*tmdb.MovieDetails, error)
	seriesDetails  func(id int) (*tmdb.SeriesDetails, error)
	releaseDates   func(id int) (*tmdb.ReleaseDatesResponse, error)
	contentRatings func(id int) (*tmdb.ContentRatingsResponse, error)
	watchProviders func(id int) (*tmdb.WatchProvidersResponse, error)
}

func (f *fakeCatalog) Discover(ctx context.Context, media tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.discoverCalls++
	call := f.discoverCalls
	f.pages = append(f.pages, q.Page)
	f.mu.Unlock()
	if f.discover == nil {
		return &tmdb.DiscoverPage{Page: q.Page}, nil
	}
	return f.discover(call, media, q)
}

func (f *fakeCatalog) Genres(ctx context.Context, media tmdb.MediaType) (map[int]string, error) {
	if f.genresErr != nil {
		return nil, f.genresErr
	}
	return f.genres, nil
}

func (f *fakeCatalog) MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	if f.movieDetails == nil {
		return &tmdb.MovieDetails{ID: id}, nil
	}
	return f.movieDetails(id)
}

func (f *fakeCatalog) SeriesDetails(ctx context.Context, id int) (*tmdb.SeriesDetails, error) {
	if f.seriesDetails == nil {
		return &tmdb.SeriesDetails{ID: id}, nil
	}
	return f.seriesDetails(id)
}

func (f *fakeCatalog) MovieReleaseDates(ctx context.Context, id int) (*tmdb.ReleaseDatesResponse, error) {
	if f.releaseDates == nil {
		return &tmdb.ReleaseDatesResponse{ID: id}, nil
	}
	return f.releaseDates(id)
}

func (f *fakeCatalog) SeriesContentRatings(ctx context.Context, id int) (*tmdb.ContentRatingsResponse, error) {
	if f.contentRatings == nil {
		return &tmdb.ContentRatingsResponse{ID: id}, nil
	}
	return f.contentRatings(id)
}

func (f *fakeCatalog) WatchProviders(ctx context.Context, media tmdb.MediaType, id int) (*tmdb.WatchProvidersResponse, error) {
	f.mu.Lock()
	if f.providerCalls == nil {
		f.providerCalls = map[int]int{}
	}
	f.providerCalls[id]++
	f.mu.Unlock()
	if f.watchProviders == nil {
		return &tmdb.WatchProvidersResponse{ID: id}, nil
	}
	return f.watchProviders(id)
}

func (f *fakeCatalog) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discoverCalls
}

// pageOf returns a discover handler that always answers with items.
func pageOf(items ...tmdb.DiscoverItem) func(int, tmdb.MediaType, tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
	return func(_ int, _ tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
		return &tmdb.DiscoverPage{Page: q.Page, Results: items}, nil
	}
}

func goodMovie(id int, title string) tmdb.DiscoverItem {
	return tmdb.DiscoverItem{
		ID:               id,
		Title:            title,
		OriginalLanguage: "pt",
		VoteAverage:      8.5,
		VoteCount:        2000,
		GenreIDs:         []int{18},
	}
}

func lowVoteMovie(id int) tmdb.DiscoverItem {
	return tmdb.DiscoverItem{ID: id, Title: "Obscuro", VoteAverage: 9.0, VoteCount: 1, GenreIDs: []int{18}}
}

func brProviders(block tmdb.RegionProviders) *tmdb.WatchProvidersResponse {
	return &tmdb.WatchProvidersResponse{Results: map[string]tmdb.RegionProviders{"BR": block}}
}
