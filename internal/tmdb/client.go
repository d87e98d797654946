// Package tmdb is a client for the movie metadata service.
package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "movienight-workers/internal/common/errors"
	commonhttp "movienight-workers/internal/common/http"
	"movienight-workers/internal/common/logger"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "pt-BR"

	// CacheKeyPrefix starts every key the client writes to its cache.
	CacheKeyPrefix = "tmdb:"
)

type Options struct {
	BaseURL     string
	APIKey      string
	Language    string
	GenreTTL    time.Duration
	DiscoverTTL time.Duration
}

// Client talks to the metadata service. A nil cache disables response caching.
type Client struct {
	http    *commonhttp.Client
	cache   Cache
	logger  logger.Logger
	opts    Options
	genreMu sync.Mutex
	genres  map[MediaType]map[int]string
}

func NewClient(httpClient *commonhttp.Client, cache Cache, opts Options, log logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		http:   httpClient,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"component": "tmdb"}),
		opts:   opts,
		genres: make(map[MediaType]map[int]string),
	}
}

func (c *Client) buildURL(path string, params url.Values, localized bool) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.opts.APIKey)
	if localized {
		params.Set("language", c.opts.Language)
	}
	return fmt.Sprintf("%s/%s?%s", c.opts.BaseURL, path, params.Encode())
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, localized bool, out interface{}) error {
	return wrapErr(endpoint, c.http.GetJSON(ctx, endpoint, c.buildURL(path, params, localized), out))
}

// Discover fetches one discover page.
func (c *Client) Discover(ctx context.Context, media MediaType, q DiscoverQuery) (*DiscoverPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	params.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	params.Set("vote_average.gte", strconv.FormatFloat(q.MinVoteAverage, 'f', -1, 64))
	if len(q.WithoutGenres) > 0 {
		params.Set("without_genres", joinInts(q.WithoutGenres))
	}

	endpoint := "discover/" + string(media)
	key := fmt.Sprintf("%s%s:%s:%s", CacheKeyPrefix, endpoint, c.opts.Language, params.Encode())

	var page DiscoverPage
	if c.cacheGet(ctx, key, &page) {
		return &page, nil
	}
	if err := c.get(ctx, endpoint, endpoint, params, true, &page); err != nil {
		return nil, err
	}
	c.cacheSet(ctx, key, &page, c.opts.DiscoverTTL)
	return &page, nil
}

// Genres returns the id to name map for media. It is fetched once per
// process and mirrored in the cache.
func (c *Client) Genres(ctx context.Context, media MediaType) (map[int]string, error) {
	c.genreMu.Lock()
	if g, ok := c.genres[media]; ok {
		c.genreMu.Unlock()
		return g, nil
	}
	c.genreMu.Unlock()

	endpoint := "genre/" + string(media) + "/list"
	key := fmt.Sprintf("%s%s:%s", CacheKeyPrefix, endpoint, c.opts.Language)

	var names map[int]string
	if !c.cacheGet(ctx, key, &names) {
		var list genreList
		if err := c.get(ctx, endpoint, endpoint, nil, true, &list); err != nil {
			return nil, err
		}
		names = make(map[int]string, len(list.Genres))
		for _, g := range list.Genres {
			names[g.ID] = g.Name
		}
		c.cacheSet(ctx, key, names, c.opts.GenreTTL)
	}

	c.genreMu.Lock()
	c.genres[media] = names
	c.genreMu.Unlock()
	return names, nil
}

func (c *Client) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var d MovieDetails
	if err := c.get(ctx, "movie/details", fmt.Sprintf("movie/%d", id), nil, true, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) SeriesDetails(ctx context.Context, id int) (*SeriesDetails, error) {
	var d SeriesDetails
	if err := c.get(ctx, "tv/details", fmt.Sprintf("tv/%d", id), nil, true, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) MovieReleaseDates(ctx context.Context, id int) (*ReleaseDatesResponse, error) {
	var r ReleaseDatesResponse
	if err := c.get(ctx, "movie/release_dates", fmt.Sprintf("movie/%d/release_dates", id), nil, false, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) SeriesContentRatings(ctx context.Context, id int) (*ContentRatingsResponse, error) {
	var r ContentRatingsResponse
	if err := c.get(ctx, "tv/content_ratings", fmt.Sprintf("tv/%d/content_ratings", id), nil, false, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) WatchProviders(ctx context.Context, media MediaType, id int) (*WatchProvidersResponse, error) {
	var r WatchProvidersResponse
	endpoint := string(media) + "/watch/providers"
	if err := c.get(ctx, endpoint, fmt.Sprintf("%s/%d/watch/providers", media, id), nil, false, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// cacheGet never fails the caller; redis problems are logged and treated as a miss.
func (c *Client) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}
	hit, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logCacheError("get", key, err)
		return false
	}
	return hit
}

func (c *Client) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logCacheError("set", key, err)
	}
}

func (c *Client) logCacheError(op, key string, err error) {
	stdErr := apperrors.NewCacheUnavailableError(err)
	c.logger.Warn("cache "+op+" failed", map[string]interface{}{
		"key":       key,
		"errorCode": string(stdErr.Code),
		"error":     err.Error(),
	})
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
