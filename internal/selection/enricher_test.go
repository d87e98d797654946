package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "movienight-workers/internal/common/errors"
	"movienight-workers/internal/tmdb"
)

func movieCatalog() *fakeCatalog {
	return &fakeCatalog{
		discover: pageOf(goodMovie(42, "Ainda Estou Aqui")),
		genres:   map[int]string{18: "Drama", 36: "História"},
		movieDetails: func(id int) (*tmdb.MovieDetails, error) {
			return &tmdb.MovieDetails{ID: id, Runtime: 137, Overview: "Rio, 1971."}, nil
		},
		releaseDates: func(id int) (*tmdb.ReleaseDatesResponse, error) {
			return &tmdb.ReleaseDatesResponse{ID: id, Results: []tmdb.ReleaseDatesResult{
				{ISO3166_1: "BR", ReleaseDates: []tmdb.ReleaseDate{{Certification: "18"}}},
			}}, nil
		},
		watchProviders: func(id int) (*tmdb.WatchProvidersResponse, error) {
			return brProviders(tmdb.RegionProviders{
				Flatrate: []tmdb.ProviderRecord{{ProviderID: 1899, ProviderName: "Max"}},
			}), nil
		},
	}
}

func TestSelect_FullyEnriched(t *testing.T) {
	engine := createTestEngine(t, movieCatalog())

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	require.NotNil(t, res.Item)
	assert.Equal(t, 137, res.Item.Runtime)
	assert.Equal(t, "Rio, 1971.", res.Item.Overview)
	assert.Equal(t, []string{"Drama"}, res.Item.GenreNames)
	assert.Equal(t, "18", res.Certification)
	assert.Equal(t, "18 anos", res.RatingLabel)
	assert.Equal(t, "Filme indicado para maiores de 18 anos.", res.AgeWarning)
	assert.Equal(t, []Provider{{ID: 1899, Name: "Max", Kind: KindStreaming}}, res.ItemProviders())
	assert.Empty(t, res.Degradations)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestSelect_ProvidersFailureDegrades(t *testing.T) {
	catalog := movieCatalog()
	catalog.watchProviders = func(int) (*tmdb.WatchProvidersResponse, error) { return nil, errUpstream }
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, res.Status)
	require.NotNil(t, res.Item)
	assert.Equal(t, 42, res.Item.ID)

	providers, ok := res.Providers[42]
	require.True(t, ok, "checked ids always have an entry")
	assert.NotNil(t, providers)
	assert.Empty(t, providers)

	require.Len(t, res.Degradations, 1)
	assert.Equal(t, LookupProviders, res.Degradations[0].Lookup)
	assert.Equal(t, string(apperrors.ErrCodeProvidersLookupFailed), res.Degradations[0].Code)
	assert.Equal(t, "Filme indicado para maiores de 18 anos.", res.AgeWarning)
}

func TestSelect_CertificationFailureDegrades(t *testing.T) {
	catalog := movieCatalog()
	catalog.releaseDates = func(int) (*tmdb.ReleaseDatesResponse, error) { return nil, errUpstream }
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, res.Status)
	require.NotNil(t, res.Item)
	assert.Empty(t, res.AgeWarning)
	assert.Empty(t, res.Certification)
	assert.Equal(t, RatingUnavailable, res.RatingLabel)
	assert.Len(t, res.ItemProviders(), 1)
	require.Len(t, res.Degradations, 1)
	assert.Equal(t, string(apperrors.ErrCodeCertificationLookupFailed), res.Degradations[0].Code)
}

func TestSelect_DetailsFailureKeepsCandidate(t *testing.T) {
	catalog := movieCatalog()
	catalog.movieDetails = func(int) (*tmdb.MovieDetails, error) { return nil, &tmdb.APIError{Endpoint: "movie/details", Err: tmdb.ErrTimeout} }
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, res.Status)
	require.NotNil(t, res.Item)
	assert.Equal(t, "Ainda Estou Aqui", res.Item.Title)
	assert.Zero(t, res.Item.Runtime)
	require.Len(t, res.Degradations, 1)
	assert.Equal(t, LookupDetails, res.Degradations[0].Lookup)
}

func TestSelect_AllEnrichmentFails(t *testing.T) {
	catalog := movieCatalog()
	catalog.movieDetails = func(int) (*tmdb.MovieDetails, error) { return nil, errUpstream }
	catalog.releaseDates = func(int) (*tmdb.ReleaseDatesResponse, error) { return nil, errUpstream }
	catalog.watchProviders = func(int) (*tmdb.WatchProvidersResponse, error) { return nil, errUpstream }
	catalog.genresErr = errUpstream
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, res.Status)
	require.NotNil(t, res.Item)
	assert.Equal(t, 42, res.Item.ID)
	assert.Empty(t, res.Item.GenreNames)
	assert.Len(t, res.Degradations, 3)
}

func TestSelect_SeriesEnrichment(t *testing.T) {
	catalog := &fakeCatalog{
		discover: pageOf(tmdb.DiscoverItem{ID: 77, Name: "Cangaço Novo", VoteAverage: 8.1, VoteCount: 300, GenreIDs: []int{18}}),
		genres:   map[int]string{18: "Drama", 80: "Crime"},
		seriesDetails: func(id int) (*tmdb.SeriesDetails, error) {
			return &tmdb.SeriesDetails{ID: id, NumberOfSeasons: 2, Genres: []tmdb.Genre{{ID: 80}, {ID: 18}}}, nil
		},
		contentRatings: func(id int) (*tmdb.ContentRatingsResponse, error) {
			return &tmdb.ContentRatingsResponse{Results: []tmdb.ContentRating{{ISO3166_1: "BR", Rating: "12"}}}, nil
		},
		watchProviders: func(id int) (*tmdb.WatchProvidersResponse, error) {
			return brProviders(tmdb.RegionProviders{Buy: []tmdb.ProviderRecord{{ProviderID: 2}}}), nil
		},
	}
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategorySeries, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Cangaço Novo", res.Item.Title)
	assert.Equal(t, 2, res.Item.Seasons)
	assert.Equal(t, []string{"Crime", "Drama"}, res.Item.GenreNames)
	assert.Equal(t, "12 anos", res.RatingLabel)
	assert.Empty(t, res.AgeWarning)
	assert.Equal(t, KindPurchase, res.ItemProviders()[0].Kind)
}

func TestEnrichByID(t *testing.T) {
	catalog := movieCatalog()
	catalog.movieDetails = func(id int) (*tmdb.MovieDetails, error) {
		return &tmdb.MovieDetails{
			ID:          id,
			Title:       "Cidade de Deus",
			Runtime:     130,
			VoteAverage: 8.4,
			VoteCount:   7000,
			Genres:      []tmdb.Genre{{ID: 18, Name: "Drama"}},
		}, nil
	}
	engine := createTestEngine(t, catalog)

	res, err := engine.EnrichByID(context.Background(), CategoryMovie, 598, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 598, res.Item.ID)
	assert.Equal(t, 130, res.Item.Runtime)
	assert.InDelta(t, Score(res.Item.Candidate, 30, 7), res.Item.Score, 1e-9)
	assert.Equal(t, []string{"Drama"}, res.Item.GenreNames)
	assert.Equal(t, "Filme indicado para maiores de 18 anos.", res.AgeWarning)
}

func TestEnrichByID_DetailsFailure(t *testing.T) {
	catalog := movieCatalog()
	catalog.movieDetails = func(int) (*tmdb.MovieDetails, error) { return nil, errUpstream }
	engine := createTestEngine(t, catalog)

	_, err := engine.EnrichByID(context.Background(), CategoryMovie, 1, Config{})
	require.Error(t, err)
	std := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeDetailsLookupFailed, std.Code)
}
