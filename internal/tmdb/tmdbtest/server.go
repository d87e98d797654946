// Package tmdbtest serves a canned metadata API over httptest for worker and
// end to end tests.
package tmdbtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	commonhttp "movienight-workers/internal/common/http"
	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/tmdb"
)

const Region = "BR"

// Server answers every discover page with the same items. Per-id fixtures
// that are missing answer 404 (details) or an empty body (the rest).
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	Movies         []tmdb.DiscoverItem
	Series         []tmdb.DiscoverItem
	Genres         map[tmdb.MediaType][]tmdb.Genre
	MovieDetails   map[int]tmdb.MovieDetails
	SeriesDetails  map[int]tmdb.SeriesDetails
	Certifications map[int]string
	Providers      map[int]tmdb.RegionProviders

	failures map[string]int
	hits     map[string]int
}

func NewServer() *Server {
	s := &Server{
		Genres:         map[tmdb.MediaType][]tmdb.Genre{},
		MovieDetails:   map[int]tmdb.MovieDetails{},
		SeriesDetails:  map[int]tmdb.SeriesDetails{},
		Certifications: map[int]string{},
		Providers:      map[int]tmdb.RegionProviders{},
		failures:       map[string]int{},
		hits:           map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Fail makes every call to endpoint (e.g. "movie/watch/providers") answer status.
func (s *Server) Fail(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = status
}

// Hits returns how many calls endpoint received.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// Client returns a metadata client pointed at the server with retries off.
func (s *Server) Client(cache tmdb.Cache, log logger.Logger) *tmdb.Client {
	httpClient := commonhttp.NewClientWithOptions(commonhttp.Options{Timeout: 2 * time.Second})
	return tmdb.NewClient(httpClient, cache, tmdb.Options{
		BaseURL:     s.URL,
		APIKey:      "test-key",
		GenreTTL:    time.Hour,
		DiscoverTTL: time.Minute,
	}, log)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	endpoint := endpointOf(parts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[endpoint]++
	if status, ok := s.failures[endpoint]; ok {
		http.Error(w, `{"status_message":"injected failure"}`, status)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	switch endpoint {
	case "discover/movie":
		writeJSON(w, tmdb.DiscoverPage{Page: page, Results: s.Movies, TotalPages: 500})
	case "discover/tv":
		writeJSON(w, tmdb.DiscoverPage{Page: page, Results: s.Series, TotalPages: 500})
	case "genre/movie/list", "genre/tv/list":
		writeJSON(w, map[string]interface{}{"genres": s.Genres[tmdb.MediaType(parts[1])]})
	case "movie/details":
		d, ok := s.MovieDetails[idOf(parts)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, d)
	case "tv/details":
		d, ok := s.SeriesDetails[idOf(parts)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, d)
	case "movie/release_dates":
		id := idOf(parts)
		resp := tmdb.ReleaseDatesResponse{ID: id}
		if cert, ok := s.Certifications[id]; ok {
			resp.Results = []tmdb.ReleaseDatesResult{{
				ISO3166_1:    Region,
				ReleaseDates: []tmdb.ReleaseDate{{Certification: cert, Type: 3}},
			}}
		}
		writeJSON(w, resp)
	case "tv/content_ratings":
		id := idOf(parts)
		resp := tmdb.ContentRatingsResponse{ID: id}
		if cert, ok := s.Certifications[id]; ok {
			resp.Results = []tmdb.ContentRating{{ISO3166_1: Region, Rating: cert}}
		}
		writeJSON(w, resp)
	case "movie/watch/providers", "tv/watch/providers":
		id := idOf(parts)
		resp := tmdb.WatchProvidersResponse{ID: id, Results: map[string]tmdb.RegionProviders{}}
		if block, ok := s.Providers[id]; ok {
			resp.Results[Region] = block
		}
		writeJSON(w, resp)
	default:
		http.NotFound(w, r)
	}
}

// endpointOf maps a request path onto the endpoint names the client reports.
func endpointOf(parts []string) string {
	switch {
	case len(parts) == 2 && parts[0] == "discover":
		return "discover/" + parts[1]
	case len(parts) == 3 && parts[0] == "genre":
		return strings.Join(parts, "/")
	case len(parts) == 2:
		return parts[0] + "/details"
	case len(parts) >= 3:
		return parts[0] + "/" + strings.Join(parts[2:], "/")
	default:
		return strings.Join(parts, "/")
	}
}

func idOf(parts []string) int {
	id, _ := strconv.Atoi(parts[1])
	return id
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
