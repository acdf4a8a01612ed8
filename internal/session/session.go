// Package session owns the local user registry and the at-most-one active
// session. Every mutation is computed by Reduce and made durable before the
// in-memory state changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
	"github.com/patric-chuzhbe/cineshelf/internal/logger"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
	"github.com/patric-chuzhbe/cineshelf/internal/notifier"
	"github.com/patric-chuzhbe/cineshelf/internal/user"
)

var (
	ErrDuplicateEmail     = errors.New("e-mail is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("no user is logged in")
	ErrUnknownUser        = errors.New("session user is missing from the registry")
)

// Store is the session store. It is safe for concurrent use; mutating
// operations are serialized.
type Store struct {
	db         storage.Storage
	notifier   notifier.Notifier
	bcryptCost int
	now        func() time.Time
	newID      func() (string, error)

	opMu sync.Mutex

	stateMu   sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

type initOptions struct {
	notifier   notifier.Notifier
	bcryptCost int
	now        func() time.Time
	newID      func() (string, error)
}

type InitOption func(*initOptions)

func WithNotifier(n notifier.Notifier) InitOption {
	return func(options *initOptions) {
		options.notifier = n
	}
}

func WithBcryptCost(cost int) InitOption {
	return func(options *initOptions) {
		options.bcryptCost = cost
	}
}

func WithClock(now func() time.Time) InitOption {
	return func(options *initOptions) {
		options.now = now
	}
}

func WithIDGenerator(newID func() (string, error)) InitOption {
	return func(options *initOptions) {
		options.newID = newID
	}
}

// newTimeOrderedID returns a UUIDv7: time-based and unique within the process.
func newTimeOrderedID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func New(db storage.Storage, optionsProto ...InitOption) *Store {
	options := &initOptions{
		notifier:   notifier.LogNotifier{},
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		newID:      newTimeOrderedID,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	return &Store{
		db:         db,
		notifier:   options.notifier,
		bcryptCost: options.bcryptCost,
		now:        options.now,
		newID:      options.newID,
		state:      State{Phase: Unloaded},
		listeners:  map[int]func(State){},
	}
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.state.clone()
}

// Subscribe registers listener to be called after every committed change.
// Listeners run synchronously on the goroutine that made the change.
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

// Load reads the persisted session pointer. A missing or unreadable pointer
// leaves the session anonymous.
func (s *Store) Load(ctx context.Context) {
	s.dispatch(ctx, "load", func(context.Context) (Command, error) {
		return LoadStarted{}, nil
	})

	s.dispatch(ctx, "load", func(ctx context.Context) (Command, error) {
		var usr user.User
		found, err := storage.GetJSON(ctx, s.db, models.KeyCurrentUser, &usr)
		if err != nil {
			logger.Log.Errorw("failed to load the session", zap.Error(err))
			return Loaded{}, nil
		}
		if !found || usr.ID == "" {
			return Loaded{}, nil
		}
		return Loaded{User: &usr}, nil
	})
}

// Register creates a user, makes it the current session and reports success.
// Failures are logged and shown to the user through the notifier.
func (s *Store) Register(ctx context.Context, name, email, password string) bool {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.fail(ctx, "register", fmt.Errorf("hash password: %w", err))
		return false
	}

	id, err := s.newID()
	if err != nil {
		s.fail(ctx, "register", fmt.Errorf("generate user id: %w", err))
		return false
	}

	return s.dispatch(ctx, "register", func(ctx context.Context) (Command, error) {
		registry, err := s.loadRegistry(ctx)
		if err != nil {
			return nil, err
		}
		return Register{
			Registry: registry,
			Candidate: user.User{
				ID:           id,
				Name:         name,
				Email:        email,
				PasswordHash: string(hash),
				CreatedAt:    s.now().UTC(),
			},
		}, nil
	})
}

// Login authenticates against the registry. Email and password must match exactly.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	return s.dispatch(ctx, "login", func(ctx context.Context) (Command, error) {
		registry, err := s.loadRegistry(ctx)
		if err != nil {
			return nil, err
		}
		usr, found := registry.FindByEmail(email)
		if !found || !passwordMatches(usr.PasswordHash, password) {
			return Login{}, nil
		}
		return Login{User: &usr}, nil
	})
}

// Logout clears the session pointer. The registry is untouched.
func (s *Store) Logout(ctx context.Context) bool {
	return s.dispatch(ctx, "logout", func(context.Context) (Command, error) {
		return Logout{}, nil
	})
}

func (s *Store) UpdateAvatar(ctx context.Context, avatarURL string) bool {
	return s.dispatch(ctx, "updateAvatar", func(ctx context.Context) (Command, error) {
		registry, err := s.loadRegistry(ctx)
		if err != nil {
			return nil, err
		}
		return UpdateProfile{Registry: registry, AvatarURL: &avatarURL}, nil
	})
}

type ProfileUpdate struct {
	Bio *string
}

func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) bool {
	return s.dispatch(ctx, "updateProfile", func(ctx context.Context) (Command, error) {
		registry, err := s.loadRegistry(ctx)
		if err != nil {
			return nil, err
		}
		return UpdateProfile{Registry: registry, Bio: update.Bio}, nil
	})
}

// Users returns the registry as persisted.
func (s *Store) Users(ctx context.Context) (user.Registry, error) {
	return s.loadRegistry(ctx)
}

func (s *Store) loadRegistry(ctx context.Context) (user.Registry, error) {
	var registry user.Registry
	if _, err := storage.GetJSON(ctx, s.db, models.KeyUsers, &registry); err != nil {
		return nil, err
	}

	return registry, nil
}

// dispatch builds a command, reduces it, performs the effects and commits the
// new state only if every effect succeeded. Listeners are notified after the
// operation lock is released.
func (s *Store) dispatch(ctx context.Context, op string, build func(context.Context) (Command, error)) bool {
	s.opMu.Lock()

	command, err := build(ctx)
	if err != nil {
		s.opMu.Unlock()
		s.fail(ctx, op, err)
		return false
	}

	next, effects := Reduce(s.State(), command)
	if err := s.apply(ctx, effects); err != nil {
		s.opMu.Unlock()
		s.fail(ctx, op, err)
		return false
	}

	listeners := s.commit(next)
	s.opMu.Unlock()

	snapshot := next.clone()
	for _, listener := range listeners {
		listener(snapshot)
	}

	return true
}

func (s *Store) apply(ctx context.Context, effects []Effect) error {
	var registryWritten *WriteRegistry

	for _, effect := range effects {
		switch e := effect.(type) {
		case Reject:
			return e.Err

		case WriteRegistry:
			if err := storage.SetJSON(ctx, s.db, models.KeyUsers, e.Registry); err != nil {
				return err
			}
			registryWritten = &e

		case WriteSession:
			if err := storage.SetJSON(ctx, s.db, models.KeyCurrentUser, e.User); err != nil {
				if registryWritten != nil {
					s.rollbackRegistry(ctx, registryWritten.Previous)
				}
				return err
			}

		case RemoveSession:
			if err := s.db.Remove(ctx, models.KeyCurrentUser); err != nil {
				return storage.Wrap("remove", models.KeyCurrentUser, err)
			}
		}
	}

	return nil
}

// rollbackRegistry restores the registry after the session pointer write
// failed, so the two keys never disagree.
func (s *Store) rollbackRegistry(ctx context.Context, previous user.Registry) {
	if err := storage.SetJSON(ctx, s.db, models.KeyUsers, previous); err != nil {
		logger.Log.Errorw(
			"failed to roll back the registry; registry and session pointer diverged",
			zap.Error(err),
		)
	}
}

func (s *Store) commit(next State) []func(State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.state = next.clone()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}

	return listeners
}

func (s *Store) fail(ctx context.Context, op string, err error) {
	logger.Log.Infow("session operation failed", "op", op, zap.Error(err))

	if op == "logout" || op == "load" {
		return
	}
	s.notifier.Alert(ctx, "Error", alertMessage(op, err))
}

func alertMessage(op string, err error) string {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return "This e-mail is already registered"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrUnknownUser):
		return "You need to be logged in"
	}

	switch op {
	case "register":
		return "Failed to register"
	case "login":
		return "Failed to log in"
	}

	return "Failed to update the profile"
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
