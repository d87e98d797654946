package selection

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movienight-workers/internal/tmdb"
)

func TestScore_LowVoteCountShrinksTowardPrior(t *testing.T) {
	c := Candidate{VoteAverage: 9.0, VoteCount: 1}
	score := Score(c, 30, 7.0)
	assert.InDelta(t, (9.0*1+7.0*30)/31, score, 1e-9)
	assert.InDelta(t, 7.06, score, 0.01)

	cfg := Config{MinWeightedScore: 7.5, MinVoteCount: 1}.withDefaults(nil)
	c.ID = 1
	c.Title = "Raro"
	assert.False(t, IsAdmissible(c, cfg, descriptors[CategoryMovie]))
}

func TestScore_Properties(t *testing.T) {
	t.Run("zero votes equals prior", func(t *testing.T) {
		assert.Equal(t, 7.0, Score(Candidate{VoteAverage: 10, VoteCount: 0}, 30, 7.0))
	})

	t.Run("converges to raw average", func(t *testing.T) {
		s := Score(Candidate{VoteAverage: 8.5, VoteCount: 100_000_000}, 30, 7.0)
		assert.InDelta(t, 8.5, s, 1e-5)
	})

	t.Run("monotonic in vote average", func(t *testing.T) {
		for _, votes := range []int{0, 1, 10, 500, 10000} {
			prev := math.Inf(-1)
			for avg := 0.0; avg <= 10.0; avg += 0.5 {
				s := Score(Candidate{VoteAverage: avg, VoteCount: votes}, 30, 7.0)
				require.GreaterOrEqual(t, s, prev)
				prev = s
			}
		}
	})

	t.Run("always defined", func(t *testing.T) {
		for _, k := range []float64{0.001, 1, 30} {
			s := Score(Candidate{VoteAverage: 5, VoteCount: 0}, k, 7.0)
			assert.False(t, math.IsNaN(s))
			assert.False(t, math.IsInf(s, 0))
		}
		assert.Equal(t, 7.0, Score(Candidate{}, 0, 7.0))
	})
}

func TestIsLatinTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Cidade de Deus", true},
		{"Amélie", true},
		{"千と千尋の神隠し", false},
		{"기생충", false},
		{"", false},
		{"   ", false},
		{"1917", false},
		{"Ωmega", true},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLatinTitle(tt.title))
		})
	}
}

func TestIsAdmissible_CategoryRules(t *testing.T) {
	base := Candidate{ID: 1, Title: "Title", OriginalLanguage: "en", VoteAverage: 8.5, VoteCount: 5000, GenreIDs: []int{18}}
	with := func(mut func(*Candidate)) Candidate {
		c := base
		c.GenreIDs = append([]int(nil), base.GenreIDs...)
		mut(&c)
		return c
	}

	tests := []struct {
		name     string
		category Category
		c        Candidate
		want     bool
	}{
		{"movie ok", CategoryMovie, base, true},
		{"movie animation excluded", CategoryMovie, with(func(c *Candidate) { c.GenreIDs = []int{16, 18} }), false},
		{"movie horror excluded", CategoryMovie, with(func(c *Candidate) { c.GenreIDs = []int{27} }), false},
		{"movie non latin title", CategoryMovie, with(func(c *Candidate) { c.Title = "寄生獣" }), false},
		{"movie missing title", CategoryMovie, with(func(c *Candidate) { c.Title = "" }), false},
		{"movie too few votes", CategoryMovie, with(func(c *Candidate) { c.VoteCount = 29 }), false},
		{"movie missing id", CategoryMovie, with(func(c *Candidate) { c.ID = 0 }), false},
		{"movie null genres", CategoryMovie, with(func(c *Candidate) { c.GenreIDs = nil }), false},
		{"movie empty genres", CategoryMovie, with(func(c *Candidate) { c.GenreIDs = []int{} }), true},
		{"series null genres", CategorySeries, with(func(c *Candidate) { c.GenreIDs = nil }), false},
		{"anime null genres", CategoryAnime, with(func(c *Candidate) { c.OriginalLanguage = "ja"; c.GenreIDs = nil }), false},
		{"series ok", CategorySeries, base, true},
		{"series horror allowed", CategorySeries, with(func(c *Candidate) { c.GenreIDs = []int{27} }), true},
		{"series animation excluded", CategorySeries, with(func(c *Candidate) { c.GenreIDs = []int{16} }), false},
		{"anime needs japanese or animation", CategoryAnime, base, false},
		{"anime japanese", CategoryAnime, with(func(c *Candidate) { c.OriginalLanguage = "ja" }), true},
		{"anime animation genre", CategoryAnime, with(func(c *Candidate) { c.GenreIDs = []int{16} }), true},
		{"anime non latin title allowed", CategoryAnime, with(func(c *Candidate) { c.OriginalLanguage = "ja"; c.Title = "進撃の巨人" }), true},
		{"anime horror excluded", CategoryAnime, with(func(c *Candidate) { c.OriginalLanguage = "ja"; c.GenreIDs = []int{16, 27} }), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := descriptors[tt.category]
			cfg := Config{}.withDefaults(d)
			assert.Equal(t, tt.want, IsAdmissible(tt.c, cfg, d))
		})
	}
}

func TestIsAdmissible_NullGenresFromDiscover(t *testing.T) {
	var page tmdb.DiscoverPage
	require.NoError(t, json.Unmarshal([]byte(`{"page":1,"results":[
		{"id":7,"title":"Heat","original_language":"en","vote_average":8.3,"vote_count":5000,"genre_ids":null},
		{"id":8,"title":"Ronin","original_language":"en","vote_average":8.1,"vote_count":4000}
	]}`), &page))
	require.Len(t, page.Results, 2)

	d := descriptors[CategoryMovie]
	cfg := Config{}.withDefaults(d)
	for _, it := range page.Results {
		c := candidateFromDiscover(it)
		assert.Nil(t, c.GenreIDs)
		assert.False(t, IsAdmissible(c, cfg, d), c.Title)
	}
}

func TestFilter_DeduplicatesAndScores(t *testing.T) {
	d := descriptors[CategoryMovie]
	cfg := Config{}.withDefaults(d)
	in := []Candidate{
		{ID: 1, Title: "A", VoteAverage: 8, VoteCount: 1000, GenreIDs: []int{18}},
		{ID: 1, Title: "A", VoteAverage: 8, VoteCount: 1000, GenreIDs: []int{18}},
		{ID: 2, Title: "B", VoteAverage: 9, VoteCount: 1, GenreIDs: []int{18}},
	}
	out := Filter(in, cfg, d)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ID)
	assert.InDelta(t, Score(in[0], 30, 7), out[0].Score, 1e-9)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.PagesToSearch)
	assert.Equal(t, 500, cfg.PageRange)
	assert.Equal(t, 30.0, cfg.PriorStrength)
	assert.Equal(t, 7.0, cfg.PriorMean)
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, 20, cfg.MaxProviderChecks)
	assert.Equal(t, "BR", cfg.Region)

	withIDs := Config{ProviderIDs: []int{8}}.withDefaults(descriptors[CategoryMovie])
	assert.True(t, withIDs.RequireStreaming)
	assert.Equal(t, []int{GenreAnimation, GenreHorror, GenreDrama}, withIDs.ExcludedGenres)
	assert.Equal(t, []int{GenreAnimation, GenreHorror}, descriptors[CategoryMovie].ExcludedGenres)

	// drama already excluded is not added twice
	custom := Config{ProviderIDs: []int{8}, ExcludedGenres: []int{GenreDrama}}.withDefaults(descriptors[CategoryMovie])
	assert.Equal(t, []int{GenreDrama}, custom.ExcludedGenres)

	seriesIDs := Config{ProviderIDs: []int{8}}.withDefaults(descriptors[CategorySeries])
	assert.Equal(t, []int{GenreAnimation}, seriesIDs.ExcludedGenres)

	noIDs := Config{}.withDefaults(descriptors[CategoryMovie])
	assert.Equal(t, []int{GenreAnimation, GenreHorror}, noIDs.ExcludedGenres)

	clamped := Config{PagesToSearch: 10, PageRange: 3}.withDefaults(nil)
	assert.Equal(t, 3, clamped.PagesToSearch)
}

func TestLookup(t *testing.T) {
	d, ok := Lookup(" Anime ")
	require.True(t, ok)
	assert.Equal(t, CategoryAnime, d.Category)

	_, ok = Lookup("documentary")
	assert.False(t, ok)
}
