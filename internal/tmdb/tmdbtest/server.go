// Package tmdbtest runs an in-process fake of the TMDB endpoints the client
// consumes, for use in tests.
package tmdbtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/cineshelf/internal/models"
)

const APIKey = "test-api-key"

// Server serves canned pages. Pages are indexed from 1; a request beyond the
// configured pages gets an empty page.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	popular  map[models.MediaKind][]models.CatalogPage
	topRated []models.CatalogPage
	search   map[string][]models.CatalogPage
	details  map[string]models.CatalogEntry
	failWith int
	calls    map[string]int
	lastURIs []string
}

func New() *Server {
	s := &Server{
		popular: map[models.MediaKind][]models.CatalogPage{},
		search:  map[string][]models.CatalogPage{},
		details: map[string]models.CatalogEntry{},
		calls:   map[string]int{},
	}

	router := chi.NewRouter()
	router.Use(s.record)
	router.Use(s.checkAPIKey)
	router.Get(`/movie/popular`, s.handlePopular(models.MediaKindMovie))
	router.Get(`/tv/popular`, s.handlePopular(models.MediaKindTV))
	router.Get(`/movie/top_rated`, s.handleTopRated)
	router.Get(`/search/multi`, s.handleSearch)
	router.Get(`/search/movie`, s.handleSearch)
	router.Get(`/{kind}/{id}`, s.handleDetails)

	s.Server = httptest.NewServer(router)

	return s
}

// SetPopular configures the popular pages of kind.
func (s *Server) SetPopular(kind models.MediaKind, pages ...models.CatalogPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popular[kind] = pages
}

func (s *Server) SetTopRated(pages ...models.CatalogPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topRated = pages
}

// SetSearch configures the result pages of query for both search endpoints.
func (s *Server) SetSearch(query string, pages ...models.CatalogPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search[query] = pages
}

func (s *Server) SetDetails(kind models.MediaKind, entry models.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[detailsKey(string(kind), strconv.Itoa(entry.ID))] = entry
}

// FailWith makes every following request answer with status. Zero disables it.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = status
}

// Calls returns how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls returns the number of requests served so far.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastURIs)
}

// LastRequestURI returns the request URI of the most recent call.
func (s *Server) LastRequestURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lastURIs) == 0 {
		return ""
	}
	return s.lastURIs[len(s.lastURIs)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.lastURIs = append(s.lastURIs, r.URL.RequestURI())
		failWith := s.failWith
		s.mu.Unlock()

		if failWith != 0 {
			writeJSON(w, failWith, map[string]any{
				"status_code":    failWith,
				"status_message": http.StatusText(failWith),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"status_code":    7,
				"status_message": "Invalid API key: You must be granted a valid key.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePopular(kind models.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		pages := s.popular[kind]
		s.mu.Unlock()
		writePage(w, r, pages)
	}
}

func (s *Server) handleTopRated(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pages := s.topRated
	s.mu.Unlock()
	writePage(w, r, pages)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pages := s.search[r.URL.Query().Get("query")]
	s.mu.Unlock()
	writePage(w, r, pages)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entry, found := s.details[detailsKey(chi.URLParam(r, "kind"), chi.URLParam(r, "id"))]
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"status_code":    34,
			"status_message": "The resource you requested could not be found.",
		})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func writePage(w http.ResponseWriter, r *http.Request, pages []models.CatalogPage) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result := models.CatalogPage{Items: []models.CatalogEntry{}, Page: page, TotalPages: len(pages)}
	if page <= len(pages) {
		result.Items = pages[page-1].Items
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func detailsKey(kind, id string) string {
	return kind + "/" + id
}

// Page builds a page of entries with the given ids, titled "<prefix> <id>".
func Page(prefix string, ids ...int) models.CatalogPage {
	items := make([]models.CatalogEntry, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.CatalogEntry{
			ID:         id,
			Title:      prefix + " " + strconv.Itoa(id),
			PosterPath: "/" + strconv.Itoa(id) + ".jpg",
		})
	}

	return models.CatalogPage{Items: items}
}
