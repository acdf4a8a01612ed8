// Package catalog holds the browsing state: the home lists, search results
// with their pagination cursor, and the last remote error.
package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/cineshelf/internal/logger"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
)

type remoteCatalog interface {
	FetchPopular(ctx context.Context, kind models.MediaKind, page int) (models.CatalogPage, error)
	SearchMulti(ctx context.Context, query string, page int) (models.CatalogPage, error)
	FetchDetails(ctx context.Context, id int, kind models.MediaKind) (models.CatalogEntry, error)
}

// Store is safe for concurrent use. The state lock is never held during a
// remote call.
type Store struct {
	remote remoteCatalog

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func New(remote remoteCatalog) *Store {
	return &Store{
		remote:    remote,
		listeners: map[int]func(State){},
	}
}

// LoadInitial fetches the first page of popular movies and series in parallel.
func (s *Store) LoadInitial(ctx context.Context) {
	s.dispatch(ctx, LoadInitialRequested{})
}

// Search runs query. Page 1, or any page of a query other than the last
// executed one, replaces the results; a later page of the same query appends.
// A blank query clears the results.
func (s *Store) Search(ctx context.Context, query string, page int) {
	s.dispatch(ctx, SearchRequested{Query: query, Page: page})
}

// LoadMore fetches the next page of the last executed query. It does nothing
// while a fetch is in flight or when the last page was already loaded.
func (s *Store) LoadMore(ctx context.Context) {
	s.dispatch(ctx, LoadMoreRequested{})
}

// FetchDetails returns the detailed entry. On failure the error is recorded in
// the state and ok is false.
func (s *Store) FetchDetails(ctx context.Context, id int, kind models.MediaKind) (*models.CatalogEntry, bool) {
	entry, err := s.remote.FetchDetails(ctx, id, kind)
	if err != nil {
		logger.Log.Infow("failed to fetch details", "id", id, "kind", kind, zap.Error(err))
		s.dispatch(ctx, DetailsFailed{Err: err})
		return nil, false
	}

	return &entry, true
}

// State returns a snapshot of the browsing state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.clone()
}

// Subscribe registers listener to be called after every state change.
func (s *Store) Subscribe(listener func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) dispatch(ctx context.Context, command Command) {
	s.mu.Lock()
	prev := s.state
	next, effects := Reduce(prev, command)
	s.state = next
	listeners := make([]func(State), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()

	if len(effects) > 0 || !sameState(prev, next) {
		snapshot := next.clone()
		for _, listener := range listeners {
			listener(snapshot)
		}
	}

	for _, effect := range effects {
		s.dispatch(ctx, s.run(ctx, effect))
	}
}

// run performs a fetch and turns its outcome into a command.
func (s *Store) run(ctx context.Context, effect Effect) Command {
	switch e := effect.(type) {
	case FetchInitial:
		var movies, series models.CatalogPage
		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			var err error
			movies, err = s.remote.FetchPopular(groupCtx, models.MediaKindMovie, 1)
			return err
		})
		group.Go(func() error {
			var err error
			series, err = s.remote.FetchPopular(groupCtx, models.MediaKindTV, 1)
			return err
		})
		if err := group.Wait(); err != nil {
			logger.Log.Infow("failed to load the home lists", zap.Error(err))
			return InitialFailed{Err: err}
		}
		return InitialLoaded{Movies: movies, Series: series}

	case FetchSearch:
		result, err := s.remote.SearchMulti(ctx, e.Query, e.Page)
		if err != nil {
			logger.Log.Infow("search failed", "query", e.Query, "page", e.Page, zap.Error(err))
			return SearchFailed{Seq: e.Seq, Err: err}
		}
		return SearchLoaded{Seq: e.Seq, Query: e.Query, Result: result}
	}

	return nil
}

// sameState reports whether a transition changed nothing the UI can see.
func sameState(a, b State) bool {
	return a.Loading == b.Loading &&
		a.SearchLoading == b.SearchLoading &&
		a.initialLoading == b.initialLoading &&
		a.Err == b.Err &&
		a.Query == b.Query &&
		a.Page == b.Page &&
		a.TotalPages == b.TotalPages &&
		a.searchSeq == b.searchSeq &&
		sameEntries(a.Movies, b.Movies) &&
		sameEntries(a.Series, b.Series) &&
		sameEntries(a.Results, b.Results)
}

func sameEntries(a, b []models.CatalogEntry) bool {
	if len(a) != len(b) {
		return false
	}

	return len(a) == 0 || &a[0] == &b[0]
}
