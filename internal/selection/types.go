// Package selection picks one well rated title from randomly sampled discover
// pages and enriches it with details, certification and watch providers.
package selection

import (
	"context"

	"movienight-workers/internal/tmdb"
)

// Candidate is a title as returned by a discover page.
type Candidate struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalLanguage string  `json:"originalLanguage"`
	VoteAverage      float64 `json:"voteAverage"`
	VoteCount        int     `json:"voteCount"`
	GenreIDs         []int   `json:"genreIds"`
	ReleaseDate      string  `json:"releaseDate,omitempty"`
	PosterPath       string  `json:"posterPath,omitempty"`
	Overview         string  `json:"overview,omitempty"`
}

// ScoredCandidate carries the weighted score computed during one filter pass.
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"`
}

// Item is the selected candidate after enrichment.
type Item struct {
	Candidate
	Score      float64  `json:"score"`
	Runtime    int      `json:"runtime,omitempty"`
	Seasons    int      `json:"seasons,omitempty"`
	GenreNames []string `json:"genreNames,omitempty"`
}

type ProviderKind string

const (
	KindStreaming ProviderKind = "streaming"
	KindRental    ProviderKind = "rental"
	KindPurchase  ProviderKind = "purchase"
)

// Provider is one availability entry. The same provider id may appear once
// per kind.
type Provider struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	LogoPath string       `json:"logoPath,omitempty"`
	Kind     ProviderKind `json:"kind"`
}

// Catalog is the subset of the metadata client the engine needs.
type Catalog interface {
	Discover(ctx context.Context, media tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error)
	Genres(ctx context.Context, media tmdb.MediaType) (map[int]string, error)
	MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	SeriesDetails(ctx context.Context, id int) (*tmdb.SeriesDetails, error)
	MovieReleaseDates(ctx context.Context, id int) (*tmdb.ReleaseDatesResponse, error)
	SeriesContentRatings(ctx context.Context, id int) (*tmdb.ContentRatingsResponse, error)
	WatchProviders(ctx context.Context, media tmdb.MediaType, id int) (*tmdb.WatchProvidersResponse, error)
}

func candidateFromDiscover(it tmdb.DiscoverItem) Candidate {
	title := it.Title
	if title == "" {
		title = it.Name
	}
	date := it.ReleaseDate
	if date == "" {
		date = it.FirstAirDate
	}
	return Candidate{
		ID:               it.ID,
		Title:            title,
		OriginalLanguage: it.OriginalLanguage,
		VoteAverage:      it.VoteAverage,
		VoteCount:        it.VoteCount,
		GenreIDs:         it.GenreIDs,
		ReleaseDate:      date,
		PosterPath:       it.PosterPath,
		Overview:         it.Overview,
	}
}
