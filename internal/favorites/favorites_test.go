package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/cineshelf/internal/db/memorystorage"
	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
	"github.com/patric-chuzhbe/cineshelf/internal/mockstorage"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
	"github.com/patric-chuzhbe/cineshelf/internal/notifier"
	"github.com/patric-chuzhbe/cineshelf/internal/session"
	"github.com/patric-chuzhbe/cineshelf/internal/user"
)

type staticSession struct {
	state    session.State
	listener func(session.State)
}

func (s *staticSession) State() session.State {
	return s.state
}

func (s *staticSession) Subscribe(listener func(session.State)) func() {
	s.listener = listener
	return func() { s.listener = nil }
}

func (s *staticSession) switchTo(userID string) {
	s.state = session.State{Phase: session.Anonymous}
	if userID != "" {
		s.state = session.State{Phase: session.Authenticated, User: &user.User{ID: userID}}
	}
	if s.listener != nil {
		s.listener(s.state)
	}
}

var (
	matrix = models.FavoriteItem{ID: 603, Title: "Matrix", MediaType: models.MediaKindMovie, VoteAverage: 8.2}
	dune   = models.FavoriteItem{ID: 438631, Title: "Dune", MediaType: models.MediaKindMovie}
	lost   = models.FavoriteItem{ID: 4607, Title: "Lost", MediaType: models.MediaKindTV}
)

func newMemoryDB(t *testing.T) *memorystorage.MemoryStorage {
	t.Helper()
	db, err := memorystorage.New()
	require.NoError(t, err)

	return db
}

func TestAddIsUnique(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	sessions := &staticSession{}
	sessions.switchTo("u1")
	store := New(ctx, db, sessions)

	assert.True(t, store.Add(ctx, matrix))
	assert.False(t, store.Add(ctx, matrix), "a second add of the same id is a no-op")
	assert.False(t, store.Add(ctx, models.FavoriteItem{ID: 603, Title: "Matrix (copy)"}))

	assert.Equal(t, []models.FavoriteItem{matrix}, store.Items())
	assert.True(t, store.Contains(603))

	var persisted []models.FavoriteItem
	found, err := storage.GetJSON(ctx, db, models.FavoritesKey("u1"), &persisted)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []models.FavoriteItem{matrix}, persisted)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	sessions := &staticSession{}
	sessions.switchTo("u1")
	store := New(ctx, db, sessions)

	require.True(t, store.Add(ctx, matrix))
	require.True(t, store.Add(ctx, dune))
	require.True(t, store.Add(ctx, lost))

	assert.True(t, store.Remove(ctx, dune.ID))
	assert.Equal(t, []models.FavoriteItem{matrix, lost}, store.Items(), "order is preserved")
	assert.False(t, store.Contains(dune.ID))

	assert.True(t, store.Remove(ctx, 999999), "removing a missing id still persists")
	assert.Len(t, store.Items(), 2)
}

func TestNoUserIsNoOp(t *testing.T) {
	ctx := context.Background()
	db := &mockstorage.StorageMock{}
	store := New(ctx, db, &staticSession{state: session.State{Phase: session.Anonymous}})

	assert.False(t, store.Add(ctx, matrix))
	assert.False(t, store.Remove(ctx, matrix.ID))
	assert.Empty(t, store.Items())
	db.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestIsolationBetweenUsers(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	sessions := &staticSession{}
	store := New(ctx, db, sessions)

	sessions.switchTo("A")
	require.True(t, store.Add(ctx, matrix))

	sessions.switchTo("B")
	assert.Empty(t, store.Items(), "B never sees A's list")
	require.True(t, store.Add(ctx, dune))

	sessions.switchTo("")
	assert.Empty(t, store.Items())

	sessions.switchTo("A")
	assert.Equal(t, []models.FavoriteItem{matrix}, store.Items())

	sessions.switchTo("B")
	assert.Equal(t, []models.FavoriteItem{dune}, store.Items())
}

func TestPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	db := &mockstorage.StorageMock{
		OnGet: func(ctx context.Context, key string) (json.RawMessage, bool, error) {
			return json.RawMessage(`[{"id":603,"title":"Matrix","poster_path":"","media_type":"movie","vote_average":8.2}]`), true, nil
		},
	}
	db.On("Set", mock.Anything, models.FavoritesKey("u1"), mock.Anything).Return(errors.New("quota exceeded"))
	sessions := &staticSession{}
	sessions.switchTo("u1")
	store := New(ctx, db, sessions)
	require.Equal(t, []models.FavoriteItem{matrix}, store.Items())

	assert.False(t, store.Add(ctx, dune))
	assert.False(t, store.Remove(ctx, matrix.ID))

	assert.Equal(t, []models.FavoriteItem{matrix}, store.Items(), "memory is unchanged when the write fails")
	db.AssertNumberOfCalls(t, "Set", 2)
}

func TestUnreadableListIsEmpty(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	require.NoError(t, db.Set(ctx, models.FavoritesKey("u1"), json.RawMessage(`{"not":"a list"}`)))
	sessions := &staticSession{}
	sessions.switchTo("u1")

	store := New(ctx, db, sessions)

	assert.Empty(t, store.Items())
	assert.True(t, store.Add(ctx, matrix), "the store stays usable")
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	sessions := &staticSession{}
	sessions.switchTo("u1")
	store := New(ctx, newMemoryDB(t), sessions)

	var sizes []int
	unsubscribe := store.Subscribe(func(state State) {
		sizes = append(sizes, len(state.Items))
	})
	defer unsubscribe()

	require.True(t, store.Add(ctx, matrix))
	require.False(t, store.Add(ctx, matrix))
	require.True(t, store.Add(ctx, dune))
	sessions.switchTo("")

	assert.Equal(t, []int{1, 2, 0}, sizes)
}

func TestReduce(t *testing.T) {
	t.Run("bound drops duplicate ids", func(t *testing.T) {
		next, effects := Reduce(State{}, Bound{UserID: "u1", Items: []models.FavoriteItem{matrix, matrix, dune}})
		assert.Nil(t, effects)
		assert.Equal(t, []models.FavoriteItem{matrix, dune}, next.Items)
	})

	t.Run("add persists under the user key", func(t *testing.T) {
		state := State{UserID: "u1", Items: []models.FavoriteItem{matrix}}
		next, effects := Reduce(state, Add{Item: dune})
		assert.Equal(t, []Effect{Persist{Key: "favorites_u1", Items: next.Items}}, effects)
		assert.Len(t, state.Items, 1, "the input state is not mutated")
	})
}

// Register Ana, favorite Matrix, log out, log back in: Matrix is still there.
func TestSessionScenario(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	sessions := session.New(db, session.WithNotifier(&notifier.Recorder{}), session.WithBcryptCost(bcrypt.MinCost))
	sessions.Load(ctx)
	store := New(ctx, db, sessions)
	defer store.Close()

	require.True(t, sessions.Register(ctx, "Ana", "ana@x.com", "123456"))
	require.True(t, store.Add(ctx, matrix))

	require.True(t, sessions.Logout(ctx))
	assert.Empty(t, store.Items())

	require.True(t, sessions.Login(ctx, "ana@x.com", "123456"))
	assert.Equal(t, []models.FavoriteItem{matrix}, store.Items())

	require.True(t, sessions.Register(ctx, "Bia", "bia@x.com", "654321"))
	assert.Empty(t, store.Items(), "a new user starts with no favorites")
}
