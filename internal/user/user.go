// Package user defines the locally registered user and the registry of all
// users known on the device.
package user

import (
	"time"

	"github.com/thoas/go-funk"
)

// User represents a locally registered account.
type User struct {
	// ID is the unique, time-ordered identifier of the user.
	ID string `json:"id"`

	Name  string `json:"name"`
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the password. The plaintext is never persisted.
	PasswordHash string `json:"passwordHash"`

	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registry is the ordered collection of all users, persisted as one blob.
// Emails are unique across entries, compared case-sensitively.
type Registry []User

// FindByEmail returns the user whose email equals email exactly.
func (r Registry) FindByEmail(email string) (User, bool) {
	found := funk.Find(r, func(u User) bool {
		return u.Email == email
	})
	if found == nil {
		return User{}, false
	}

	return found.(User), true
}

func (r Registry) FindByID(id string) (User, bool) {
	for _, u := range r {
		if u.ID == id {
			return u, true
		}
	}

	return User{}, false
}

// HasEmail reports whether an entry with exactly this email exists.
func (r Registry) HasEmail(email string) bool {
	_, found := r.FindByEmail(email)

	return found
}

// With returns a copy of the registry with usr appended.
func (r Registry) With(usr User) Registry {
	result := make(Registry, 0, len(r)+1)
	result = append(result, r...)

	return append(result, usr)
}

// Replace returns a copy of the registry with the entry matching usr.ID
// swapped for usr. The second result is false if no entry matched.
func (r Registry) Replace(usr User) (Registry, bool) {
	result := make(Registry, len(r))
	copy(result, r)
	for i := range result {
		if result[i].ID == usr.ID {
			result[i] = usr

			return result, true
		}
	}

	return result, false
}
