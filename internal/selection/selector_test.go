package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/tmdb"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestEngine(t *testing.T, catalog Catalog) *Engine {
	return NewEngine(catalog, nil, logger.NewTestLogger(t))
}

// ==========================
// Page sampling
// ==========================

func TestSamplePages_DistinctAndInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		pages := samplePages(500, 5)
		require.Len(t, pages, 5)
		seen := map[int]bool{}
		for _, p := range pages {
			assert.GreaterOrEqual(t, p, 1)
			assert.LessOrEqual(t, p, 500)
			assert.False(t, seen[p], "page %d sampled twice", p)
			seen[p] = true
		}
	}

	all := samplePages(3, 10)
	assert.ElementsMatch(t, []int{1, 2, 3}, all)
}

// ==========================
// Selection outcomes
// ==========================

func TestSelect_NeverReturnsInadmissibleCandidate(t *testing.T) {
	catalog := &fakeCatalog{discover: pageOf(
		goodMovie(1, "Central do Brasil"),
		lowVoteMovie(2),
		tmdb.DiscoverItem{ID: 3, Title: "Toy Story", VoteAverage: 8.5, VoteCount: 9000, GenreIDs: []int{16}},
		tmdb.DiscoverItem{ID: 4, Title: "七人の侍", VoteAverage: 8.9, VoteCount: 4000, GenreIDs: []int{18}},
		goodMovie(5, "O Auto da Compadecida"),
	)}
	engine := createTestEngine(t, catalog)
	d := descriptors[CategoryMovie]

	for i := 0; i < 50; i++ {
		res, err := engine.Select(context.Background(), CategoryMovie, Config{})
		require.NoError(t, err)
		require.NotNil(t, res.Item)
		assert.Contains(t, []int{1, 5}, res.Item.ID)
		assert.True(t, IsAdmissible(res.Item.Candidate, engine.Resolve(d, Config{}), d))
	}
}

func TestSelect_EmptyAfterAllAttempts(t *testing.T) {
	catalog := &fakeCatalog{discover: pageOf(lowVoteMovie(1), lowVoteMovie(2))}
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Nil(t, res.Item)
	assert.False(t, res.HasSelection())
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2*DefaultPagesToSearch, catalog.calls())
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.AgeWarning)
}

func TestSelect_RespectsMaxAttempts(t *testing.T) {
	catalog := &fakeCatalog{}
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategorySeries, Config{MaxAttempts: 4, PagesToSearch: 3})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 12, catalog.calls())
}

func TestSelect_SecondAttemptSucceeds(t *testing.T) {
	catalog := &fakeCatalog{
		discover: func(call int, _ tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
			if call <= DefaultPagesToSearch {
				return &tmdb.DiscoverPage{Page: q.Page, Results: []tmdb.DiscoverItem{lowVoteMovie(1)}}, nil
			}
			return &tmdb.DiscoverPage{Page: q.Page, Results: []tmdb.DiscoverItem{goodMovie(7, "Bacurau")}}, nil
		},
	}
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 7, res.Item.ID)
}

func TestSelect_AllPagesFailIsFailed(t *testing.T) {
	catalog := &fakeCatalog{
		discover: func(int, tmdb.MediaType, tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
			return nil, errUpstream
		},
	}
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Item)
	assert.Equal(t, 2, res.Attempts)
}

func TestSelect_PartialPageFailureStillSelects(t *testing.T) {
	catalog := &fakeCatalog{
		discover: func(call int, _ tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
			if call%2 == 0 {
				return nil, errUpstream
			}
			return &tmdb.DiscoverPage{Page: q.Page, Results: []tmdb.DiscoverItem{goodMovie(3, "Tropa de Elite")}}, nil
		},
	}
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Attempts)
}

func TestSelect_DiscoverQueryCarriesCategoryParameters(t *testing.T) {
	var got []tmdb.DiscoverQuery
	var media []tmdb.MediaType
	catalog := &fakeCatalog{}
	catalog.discover = func(_ int, m tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
		catalog.mu.Lock()
		got = append(got, q)
		media = append(media, m)
		catalog.mu.Unlock()
		return &tmdb.DiscoverPage{}, nil
	}
	engine := createTestEngine(t, catalog)

	_, err := engine.Select(context.Background(), CategoryAnime, Config{MaxAttempts: 1, PagesToSearch: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, q := range got {
		assert.Equal(t, tmdb.MediaTV, media[i])
		assert.Equal(t, []int{GenreHorror}, q.WithoutGenres)
		assert.Equal(t, DefaultMinVoteCount, q.MinVoteCount)
		assert.Equal(t, DefaultMinVoteAverage, q.MinVoteAverage)
		assert.Equal(t, DefaultSortBy, q.SortBy)
	}
}

func TestSelect_ProviderNarrowedMovieExcludesDrama(t *testing.T) {
	var got []tmdb.DiscoverQuery
	catalog := &fakeCatalog{}
	catalog.discover = func(_ int, _ tmdb.MediaType, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error) {
		catalog.mu.Lock()
		got = append(got, q)
		catalog.mu.Unlock()
		return &tmdb.DiscoverPage{}, nil
	}
	engine := createTestEngine(t, catalog)

	_, err := engine.Select(context.Background(), CategoryMovie, Config{MaxAttempts: 1, PagesToSearch: 1, ProviderIDs: []int{8, 337}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []int{GenreAnimation, GenreHorror, GenreDrama}, got[0].WithoutGenres)
}

func TestSelect_UnknownCategory(t *testing.T) {
	engine := createTestEngine(t, &fakeCatalog{})
	_, err := engine.Select(context.Background(), Category("documentary"), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CATEGORY")
}

func TestSelect_CanceledContext(t *testing.T) {
	engine := createTestEngine(t, &fakeCatalog{discover: pageOf(goodMovie(1, "Aquarius"))})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Select(ctx, CategoryMovie, Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Streaming-required selection
// ==========================

func TestSelect_RequireStreamingPicksCandidateWithProviders(t *testing.T) {
	catalog := &fakeCatalog{
		discover: pageOf(goodMovie(1, "Sem Streaming"), goodMovie(2, "Com Streaming")),
		watchProviders: func(id int) (*tmdb.WatchProvidersResponse, error) {
			if id == 2 {
				return brProviders(tmdb.RegionProviders{
					Flatrate: []tmdb.ProviderRecord{{ProviderID: 8, ProviderName: "Netflix"}},
				}), nil
			}
			return &tmdb.WatchProvidersResponse{ID: id}, nil
		},
	}
	engine := createTestEngine(t, catalog)

	for i := 0; i < 20; i++ {
		res, err := engine.Select(context.Background(), CategoryMovie, Config{RequireStreaming: true})
		require.NoError(t, err)
		require.NotNil(t, res.Item)
		assert.Equal(t, 2, res.Item.ID)
		require.Len(t, res.ItemProviders(), 1)
		assert.Equal(t, KindStreaming, res.ItemProviders()[0].Kind)
		if p, ok := res.Providers[1]; ok {
			assert.Empty(t, p)
		}
	}
	// the winner's providers are reused, never fetched twice per run
	assert.Equal(t, 20, catalog.providerCalls[2])
}

func TestSelect_ProviderIDsFilter(t *testing.T) {
	comedy := func(id int, title string) tmdb.DiscoverItem {
		it := goodMovie(id, title)
		it.GenreIDs = []int{35}
		return it
	}
	catalog := &fakeCatalog{
		discover: pageOf(comedy(1, "Netflix Only"), comedy(2, "Prime Only"), goodMovie(3, "Drama no Prime")),
		watchProviders: func(id int) (*tmdb.WatchProvidersResponse, error) {
			providerID := 8
			if id != 1 {
				providerID = 119
			}
			return brProviders(tmdb.RegionProviders{
				Flatrate: []tmdb.ProviderRecord{{ProviderID: providerID}},
			}), nil
		},
	}
	engine := createTestEngine(t, catalog)

	// the drama is on the provider too, but narrowing by provider excludes drama
	for i := 0; i < 10; i++ {
		res, err := engine.Select(context.Background(), CategoryMovie, Config{ProviderIDs: []int{119}})
		require.NoError(t, err)
		require.NotNil(t, res.Item)
		assert.Equal(t, 2, res.Item.ID)
	}
}

func TestSelect_RequireStreamingNoneAvailableIsEmpty(t *testing.T) {
	catalog := &fakeCatalog{discover: pageOf(goodMovie(1, "Nada"), goodMovie(2, "Nada 2"))}
	engine := createTestEngine(t, catalog)

	res, err := engine.Select(context.Background(), CategoryMovie, Config{RequireStreaming: true})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []Provider{}, res.Providers[1])
}

func TestSelect_MaxProviderChecksBoundsWalk(t *testing.T) {
	items := make([]tmdb.DiscoverItem, 0, 10)
	for i := 1; i <= 10; i++ {
		items = append(items, goodMovie(i, "Filme"))
	}
	catalog := &fakeCatalog{discover: pageOf(items...)}
	engine := createTestEngine(t, catalog)

	_, err := engine.Select(context.Background(), CategoryMovie, Config{
		RequireStreaming:  true,
		MaxProviderChecks: 3,
		MaxAttempts:       1,
	})
	require.NoError(t, err)

	total := 0
	for _, n := range catalog.providerCalls {
		total += n
	}
	assert.Equal(t, 3, total)
}
