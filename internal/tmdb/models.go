package tmdb

// MediaType selects the movie or tv flavour of an endpoint.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// DiscoverItem is one entry of a discover page. Movies fill Title and
// ReleaseDate, series fill Name and FirstAirDate.
type DiscoverItem struct {
	ID               int      `json:"id"`
	Title            string   `json:"title,omitempty"`
	Name             string   `json:"name,omitempty"`
	OriginalLanguage string   `json:"original_language"`
	Overview         string   `json:"overview"`
	PosterPath       string   `json:"poster_path"`
	ReleaseDate      string   `json:"release_date,omitempty"`
	FirstAirDate     string   `json:"first_air_date,omitempty"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	GenreIDs         []int    `json:"genre_ids"`
	Popularity       float64  `json:"popularity,omitempty"`
	OriginCountry    []string `json:"origin_country,omitempty"`
}

type DiscoverPage struct {
	Page         int            `json:"page"`
	Results      []DiscoverItem `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// DiscoverQuery holds the filters of one discover call.
type DiscoverQuery struct {
	Page           int
	MinVoteCount   int
	MinVoteAverage float64
	SortBy         string
	WithoutGenres  []int
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	Genres      []Genre `json:"genres"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	// original_language is needed when a details lookup seeds a candidate
	OriginalLanguage string `json:"original_language"`
}

type SeriesDetails struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	FirstAirDate     string  `json:"first_air_date"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	Genres           []Genre `json:"genres"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	OriginalLanguage string  `json:"original_language"`
}

type ReleaseDate struct {
	Certification string `json:"certification"`
	ReleaseDate   string `json:"release_date"`
	Type          int    `json:"type"`
}

type ReleaseDatesResult struct {
	ISO3166_1    string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

type ReleaseDatesResponse struct {
	ID      int                  `json:"id"`
	Results []ReleaseDatesResult `json:"results"`
}

type ContentRating struct {
	ISO3166_1 string `json:"iso_3166_1"`
	Rating    string `json:"rating"`
}

type ContentRatingsResponse struct {
	ID      int             `json:"id"`
	Results []ContentRating `json:"results"`
}

type ProviderRecord struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

// RegionProviders is the per-region availability block.
type RegionProviders struct {
	Link     string           `json:"link"`
	Flatrate []ProviderRecord `json:"flatrate"`
	Rent     []ProviderRecord `json:"rent"`
	Buy      []ProviderRecord `json:"buy"`
}

type WatchProvidersResponse struct {
	ID      int                        `json:"id"`
	Results map[string]RegionProviders `json:"results"`
}
