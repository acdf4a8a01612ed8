// Package favorites keeps the per-user list of favorite titles. The list
// follows the session: it is reloaded whenever the logged-in user changes.
package favorites

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
	"github.com/patric-chuzhbe/cineshelf/internal/logger"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
	"github.com/patric-chuzhbe/cineshelf/internal/session"
)

type sessionSource interface {
	State() session.State
	Subscribe(listener func(session.State)) (unsubscribe func())
}

type Store struct {
	db storage.Storage

	// opMu serializes read-modify-write cycles, including the persist.
	opMu sync.Mutex

	stateMu   sync.RWMutex
	state     State
	bound     bool
	listeners map[int]func(State)
	nextID    int

	unsubscribe func()
}

// New creates a store bound to the current user of sessions and keeps it
// bound to whoever logs in later.
func New(ctx context.Context, db storage.Storage, sessions sessionSource) *Store {
	s := &Store{
		db:        db,
		state:     State{Items: []models.FavoriteItem{}},
		listeners: map[int]func(State){},
	}

	s.unsubscribe = sessions.Subscribe(func(state session.State) {
		s.Bind(context.WithoutCancel(ctx), state.UserID())
	})
	s.Bind(ctx, sessions.State().UserID())

	return s
}

// Close detaches the store from the session.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Bind loads the list of userID, or clears it for "". Binding to the user the
// store already follows does nothing. An unreadable list is logged and
// treated as empty.
func (s *Store) Bind(ctx context.Context, userID string) {
	s.opMu.Lock()

	s.stateMu.RLock()
	current := s.state.clone()
	alreadyBound := s.bound && current.UserID == userID
	s.stateMu.RUnlock()
	if alreadyBound {
		s.opMu.Unlock()
		return
	}

	var items []models.FavoriteItem
	if userID != "" {
		if _, err := storage.GetJSON(ctx, s.db, models.FavoritesKey(userID), &items); err != nil {
			logger.Log.Errorw("failed to load favorites", "user", userID, zap.Error(err))
			items = nil
		}
	}

	next, _ := Reduce(current, Bound{UserID: userID, Items: items})
	listeners := s.commit(next)
	s.opMu.Unlock()

	s.notify(next, listeners)
}

// Add appends item unless it is already in the list or nobody is logged in.
// It reports whether the list changed and was persisted.
func (s *Store) Add(ctx context.Context, item models.FavoriteItem) bool {
	return s.dispatch(ctx, Add{Item: item})
}

// Remove drops the item with the given id. The list is persisted even when
// nothing matched; it reports false only without a user or on a storage failure.
func (s *Store) Remove(ctx context.Context, id int) bool {
	return s.dispatch(ctx, Remove{ID: id})
}

// Items returns a copy of the current list.
func (s *Store) Items() []models.FavoriteItem {
	return s.State().Items
}

func (s *Store) Contains(id int) bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.state.Contains(id)
}

func (s *Store) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.state.clone()
}

func (s *Store) Subscribe(listener func(State)) (unsubscribe func()) {
	s.stateMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.stateMu.Unlock()

	return func() {
		s.stateMu.Lock()
		delete(s.listeners, id)
		s.stateMu.Unlock()
	}
}

func (s *Store) dispatch(ctx context.Context, command Command) bool {
	s.opMu.Lock()

	next, effects := Reduce(s.State(), command)
	if len(effects) == 0 {
		s.opMu.Unlock()
		return false
	}

	for _, effect := range effects {
		persist, ok := effect.(Persist)
		if !ok {
			continue
		}
		if err := storage.SetJSON(ctx, s.db, persist.Key, persist.Items); err != nil {
			s.opMu.Unlock()
			logger.Log.Errorw("failed to persist favorites", "key", persist.Key, zap.Error(err))
			return false
		}
	}

	listeners := s.commit(next)
	s.opMu.Unlock()

	s.notify(next, listeners)

	return true
}

func (s *Store) commit(next State) []func(State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.state = next.clone()
	s.bound = true
	listeners := make([]func(State), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}

	return listeners
}

func (s *Store) notify(next State, listeners []func(State)) {
	for _, listener := range listeners {
		listener(next.clone())
	}
}
