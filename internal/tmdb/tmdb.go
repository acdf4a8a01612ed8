// Package tmdb is a thin client for the TMDB v3 HTTP JSON API. It maps query
// parameters, decodes responses and reports failures as *RemoteFetchError.
// It keeps no state and never retries.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/cineshelf/internal/logger"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "pt-BR"

	detailsAppendToResponse = "credits,videos,similar"
)

var (
	ErrInvalidPage = errors.New("page must be greater than or equal to 1")
	ErrEmptyQuery  = errors.New("search query must not be empty")
)

// RemoteFetchError is returned for transport failures, non-2xx responses and
// undecodable bodies. Err carries the original cause.
type RemoteFetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb %s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("tmdb %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

type apiError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

type Client struct {
	http *resty.Client
}

type initOptions struct {
	timeout    time.Duration
	httpClient *http.Client
}

type InitOption func(*initOptions)

// WithTimeout bounds every request. Zero keeps the transport default.
func WithTimeout(timeout time.Duration) InitOption {
	return func(options *initOptions) {
		options.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) InitOption {
	return func(options *initOptions) {
		options.httpClient = httpClient
	}
}

// New creates a client for baseURL. The API key and language are sent as
// query parameters on every request.
func New(baseURL, apiKey, language string, optionsProto ...InitOption) *Client {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	var restyClient *resty.Client
	if options.httpClient != nil {
		restyClient = resty.NewWithClient(options.httpClient)
	} else {
		restyClient = resty.New()
	}

	restyClient.
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if apiKey != "" {
		restyClient.SetQueryParam("api_key", apiKey)
	}
	if language != "" {
		restyClient.SetQueryParam("language", language)
	}
	if options.timeout > 0 {
		restyClient.SetTimeout(options.timeout)
	}

	return &Client{http: logger.WithRestyLogging(restyClient)}
}

// FetchPopular returns one page of popular movies or series.
// List endpoints omit media_type, so every item is stamped with kind.
func (c *Client) FetchPopular(ctx context.Context, kind models.MediaKind, page int) (models.CatalogPage, error) {
	if err := kind.Validate(); err != nil {
		return models.CatalogPage{}, err
	}

	result, err := c.fetchPage(ctx, "fetchPopular", "/"+string(kind)+"/popular", page, nil)
	if err != nil {
		return models.CatalogPage{}, err
	}
	stampKind(result.Items, kind)

	return result, nil
}

// FetchTopRated returns one page of the best rated movies.
func (c *Client) FetchTopRated(ctx context.Context, page int) (models.CatalogPage, error) {
	result, err := c.fetchPage(ctx, "fetchTopRated", "/movie/top_rated", page, nil)
	if err != nil {
		return models.CatalogPage{}, err
	}
	stampKind(result.Items, models.MediaKindMovie)

	return result, nil
}

// SearchMulti searches movies, series and people at once.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (models.CatalogPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.CatalogPage{}, ErrEmptyQuery
	}

	return c.fetchPage(ctx, "searchMulti", "/search/multi", page, map[string]string{"query": query})
}

// SearchMovies searches movies only.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (models.CatalogPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.CatalogPage{}, ErrEmptyQuery
	}

	result, err := c.fetchPage(ctx, "searchMovies", "/search/movie", page, map[string]string{"query": query})
	if err != nil {
		return models.CatalogPage{}, err
	}
	stampKind(result.Items, models.MediaKindMovie)

	return result, nil
}

// FetchDetails returns the detailed entry with credits, videos and similar titles.
func (c *Client) FetchDetails(ctx context.Context, id int, kind models.MediaKind) (models.CatalogEntry, error) {
	if err := kind.Validate(); err != nil {
		return models.CatalogEntry{}, err
	}

	var entry models.CatalogEntry
	path := "/" + string(kind) + "/" + strconv.Itoa(id)
	err := c.get(ctx, "fetchDetails", path, map[string]string{"append_to_response": detailsAppendToResponse}, &entry)
	if err != nil {
		return models.CatalogEntry{}, err
	}
	if entry.MediaType == "" {
		entry.MediaType = kind
	}
	if entry.Similar != nil {
		entry.Similar.Normalize()
		stampKind(entry.Similar.Items, kind)
	}

	return entry, nil
}

func (c *Client) fetchPage(
	ctx context.Context,
	op string,
	path string,
	page int,
	params map[string]string,
) (models.CatalogPage, error) {
	if page < 1 {
		return models.CatalogPage{}, ErrInvalidPage
	}

	query := map[string]string{"page": strconv.Itoa(page)}
	for k, v := range params {
		query[k] = v
	}

	var result models.CatalogPage
	if err := c.get(ctx, op, path, query, &result); err != nil {
		return models.CatalogPage{}, err
	}
	if result.Page == 0 {
		result.Page = page
	}
	result.Normalize()

	return result, nil
}

func (c *Client) get(ctx context.Context, op, path string, query map[string]string, dst any) error {
	response, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return &RemoteFetchError{Op: op, URL: path, Err: err}
	}

	if !response.IsSuccess() {
		return &RemoteFetchError{
			Op:         op,
			URL:        path,
			StatusCode: response.StatusCode(),
			Err:        describeFailure(response),
		}
	}

	if err := json.Unmarshal(response.Body(), dst); err != nil {
		return &RemoteFetchError{Op: op, URL: path, StatusCode: response.StatusCode(), Err: err}
	}

	return nil
}

func describeFailure(response *resty.Response) error {
	var body apiError
	if err := json.Unmarshal(response.Body(), &body); err == nil && body.StatusMessage != "" {
		return errors.New(body.StatusMessage)
	}

	return errors.New(response.Status())
}

func stampKind(items []models.CatalogEntry, kind models.MediaKind) {
	for i := range items {
		if items[i].MediaType == "" {
			items[i].MediaType = kind
		}
	}
}
