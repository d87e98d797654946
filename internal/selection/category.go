package selection

import (
	"fmt"
	"strings"

	"movienight-workers/internal/tmdb"
)

type Category string

const (
	CategoryMovie  Category = "movie"
	CategorySeries Category = "series"
	CategoryAnime  Category = "anime"
)

const (
	GenreAnimation = 16
	GenreDrama     = 18
	GenreHorror    = 27
)

// Descriptor captures everything that differs between categories.
type Descriptor struct {
	Category          Category
	Media             tmdb.MediaType
	ExcludedGenres    []int
	// ProviderExcludedGenres are also excluded when the caller narrows the
	// run to specific providers.
	ProviderExcludedGenres []int
	RequireLatinTitle      bool
	// Requires is an extra admissibility rule; nil accepts every candidate.
	Requires      func(Candidate) bool
	warningFormat string
}

// AgeWarningText renders the category's warning for a minimum age.
func (d *Descriptor) AgeWarningText(age int) string {
	return fmt.Sprintf(d.warningFormat, age)
}

var descriptors = map[Category]*Descriptor{
	CategoryMovie: {
		Category:               CategoryMovie,
		Media:                  tmdb.MediaMovie,
		ExcludedGenres:         []int{GenreAnimation, GenreHorror},
		ProviderExcludedGenres: []int{GenreDrama},
		RequireLatinTitle:      true,
		warningFormat:          "Filme indicado para maiores de %d anos.",
	},
	CategorySeries: {
		Category:          CategorySeries,
		Media:             tmdb.MediaTV,
		ExcludedGenres:    []int{GenreAnimation},
		RequireLatinTitle: true,
		warningFormat:     "Série indicada para maiores de %d anos.",
	},
	CategoryAnime: {
		Category:       CategoryAnime,
		Media:          tmdb.MediaTV,
		ExcludedGenres: []int{GenreHorror},
		Requires:       isAnime,
		warningFormat:  "Anime indicado para maiores de %d anos.",
	},
}

func isAnime(c Candidate) bool {
	return c.OriginalLanguage == "ja" || hasGenre(c.GenreIDs, GenreAnimation)
}

// Lookup returns the descriptor for a category name (case insensitive).
func Lookup(name string) (*Descriptor, bool) {
	d, ok := descriptors[Category(strings.ToLower(strings.TrimSpace(name)))]
	return d, ok
}

func Categories() []Category {
	return []Category{CategoryMovie, CategorySeries, CategoryAnime}
}
