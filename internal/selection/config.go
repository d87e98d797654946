package selection

const (
	DefaultPagesToSearch     = 5
	DefaultPageRange         = 500
	DefaultPriorStrength     = 30
	DefaultPriorMean         = 7.0
	DefaultMinWeightedScore  = 7.0
	DefaultMinVoteCount      = 30
	DefaultMinVoteAverage    = 7.0
	DefaultMaxAttempts       = 2
	DefaultMaxProviderChecks = 20
	DefaultSortBy            = "vote_average.desc"
	DefaultRegion            = "BR"
)

// Config holds the parameters of one selection run. Zero values take the
// documented defaults; a nil ExcludedGenres takes the category's defaults.
type Config struct {
	PagesToSearch    int
	PageRange        int
	PriorStrength    float64
	PriorMean        float64
	MinWeightedScore float64
	MinVoteCount     int
	MinVoteAverage   float64
	MaxAttempts      int
	ExcludedGenres   []int
	SortBy           string
	Region           string

	// RequireStreaming only accepts candidates with at least one provider in
	// Region. ProviderIDs narrows that to the given providers.
	RequireStreaming  bool
	ProviderIDs       []int
	MaxProviderChecks int
}

func DefaultConfig() Config {
	return Config{}.withDefaults(nil)
}

func (c Config) withDefaults(d *Descriptor) Config {
	if c.PagesToSearch <= 0 {
		c.PagesToSearch = DefaultPagesToSearch
	}
	if c.PageRange <= 0 {
		c.PageRange = DefaultPageRange
	}
	if c.PagesToSearch > c.PageRange {
		c.PagesToSearch = c.PageRange
	}
	if c.PriorStrength <= 0 {
		c.PriorStrength = DefaultPriorStrength
	}
	if c.PriorMean <= 0 {
		c.PriorMean = DefaultPriorMean
	}
	if c.MinWeightedScore <= 0 {
		c.MinWeightedScore = DefaultMinWeightedScore
	}
	if c.MinVoteCount <= 0 {
		c.MinVoteCount = DefaultMinVoteCount
	}
	if c.MinVoteAverage <= 0 {
		c.MinVoteAverage = DefaultMinVoteAverage
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxProviderChecks <= 0 {
		c.MaxProviderChecks = DefaultMaxProviderChecks
	}
	if c.SortBy == "" {
		c.SortBy = DefaultSortBy
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.ExcludedGenres == nil && d != nil {
		c.ExcludedGenres = append([]int(nil), d.ExcludedGenres...)
	}
	if len(c.ProviderIDs) > 0 {
		c.RequireStreaming = true
		if d != nil {
			for _, g := range d.ProviderExcludedGenres {
				if !hasGenre(c.ExcludedGenres, g) {
					c.ExcludedGenres = append(append([]int(nil), c.ExcludedGenres...), g)
				}
			}
		}
	}
	return c
}
