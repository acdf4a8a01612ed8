package session

import "github.com/patric-chuzhbe/cineshelf/internal/user"

type Phase int

const (
	Unloaded Phase = iota
	Loading
	Authenticated
	Anonymous
)

func (p Phase) String() string {
	switch p {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}

	return "unknown"
}

// State is the single process-wide session. User is set only when Phase is
// Authenticated.
type State struct {
	Phase Phase
	User  *user.User
}

// IsLoading reports whether the persisted session has not been read yet.
func (s State) IsLoading() bool {
	return s.Phase == Unloaded || s.Phase == Loading
}

// UserID returns the id of the authenticated user, or "" when anonymous.
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}

	return s.User.ID
}

func (s State) clone() State {
	if s.User != nil {
		usr := *s.User
		s.User = &usr
	}

	return s
}

// Command is an input of Reduce.
type Command interface {
	isCommand()
}

type LoadStarted struct{}

// Loaded carries the persisted session pointer; nil means no session.
type Loaded struct {
	User *user.User
}

// Register carries the current registry and a fully prepared candidate
// (id, password hash and creation time already assigned).
type Register struct {
	Registry  user.Registry
	Candidate user.User
}

// Login carries the registry entry whose e-mail and password matched, or nil
// when none did. The credential check happens before the command is built.
type Login struct {
	User *user.User
}

type Logout struct{}

// UpdateProfile rewrites the authenticated user. Nil fields are left as they are.
type UpdateProfile struct {
	Registry  user.Registry
	Bio       *string
	AvatarURL *string
}

func (LoadStarted) isCommand()   {}
func (Loaded) isCommand()        {}
func (Register) isCommand()      {}
func (Login) isCommand()         {}
func (Logout) isCommand()        {}
func (UpdateProfile) isCommand() {}

// Effect is a side effect the store must perform before committing the state
// returned alongside it.
type Effect interface {
	isEffect()
}

// WriteRegistry persists Registry. Previous is what to write back if a later
// effect of the same transition fails.
type WriteRegistry struct {
	Registry user.Registry
	Previous user.Registry
}

type WriteSession struct {
	User user.User
}

type RemoveSession struct{}

// Reject aborts the transition with Err. It is always the only effect.
type Reject struct {
	Err error
}

func (WriteRegistry) isEffect() {}
func (WriteSession) isEffect()  {}
func (RemoveSession) isEffect() {}
func (Reject) isEffect()        {}

// Reduce computes the next session state and the effects needed to make it
// durable. It performs no I/O.
func Reduce(state State, command Command) (State, []Effect) {
	switch cmd := command.(type) {
	case LoadStarted:
		return State{Phase: Loading}, nil

	case Loaded:
		if cmd.User == nil {
			return State{Phase: Anonymous}, nil
		}
		usr := *cmd.User
		return State{Phase: Authenticated, User: &usr}, nil

	case Register:
		if cmd.Registry.HasEmail(cmd.Candidate.Email) {
			return state, []Effect{Reject{Err: ErrDuplicateEmail}}
		}
		usr := cmd.Candidate
		return State{Phase: Authenticated, User: &usr}, []Effect{
			WriteRegistry{Registry: cmd.Registry.With(usr), Previous: nonNil(cmd.Registry)},
			WriteSession{User: usr},
		}

	case Login:
		if cmd.User == nil {
			return state, []Effect{Reject{Err: ErrInvalidCredentials}}
		}
		usr := *cmd.User
		return State{Phase: Authenticated, User: &usr}, []Effect{WriteSession{User: usr}}

	case Logout:
		return State{Phase: Anonymous}, []Effect{RemoveSession{}}

	case UpdateProfile:
		if state.Phase != Authenticated || state.User == nil {
			return state, []Effect{Reject{Err: ErrNotAuthenticated}}
		}
		current, found := cmd.Registry.FindByID(state.User.ID)
		if !found {
			return state, []Effect{Reject{Err: ErrUnknownUser}}
		}
		if cmd.Bio != nil {
			current.Bio = *cmd.Bio
		}
		if cmd.AvatarURL != nil {
			current.AvatarURL = *cmd.AvatarURL
		}
		registry, _ := cmd.Registry.Replace(current)
		return State{Phase: Authenticated, User: &current}, []Effect{
			WriteRegistry{Registry: registry, Previous: nonNil(cmd.Registry)},
			WriteSession{User: current},
		}
	}

	return state, nil
}

func nonNil(registry user.Registry) user.Registry {
	if registry == nil {
		return user.Registry{}
	}

	return registry
}
