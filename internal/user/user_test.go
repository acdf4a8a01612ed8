package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookups(t *testing.T) {
	registry := Registry{
		{ID: "1", Email: "a@b.com"},
		{ID: "2", Email: "c@d.com"},
	}

	usr, found := registry.FindByEmail("c@d.com")
	require.True(t, found)
	assert.Equal(t, "2", usr.ID)

	_, found = registry.FindByEmail("A@b.com")
	assert.False(t, found, "email lookup must be case-sensitive")

	usr, found = registry.FindByID("1")
	require.True(t, found)
	assert.Equal(t, "a@b.com", usr.Email)

	_, found = registry.FindByID("3")
	assert.False(t, found)

	assert.True(t, registry.HasEmail("a@b.com"))
	assert.False(t, registry.HasEmail("nobody@b.com"))
}

func TestRegistryWithDoesNotAlias(t *testing.T) {
	registry := make(Registry, 1, 4)
	registry[0] = User{ID: "1"}

	first := registry.With(User{ID: "2"})
	second := registry.With(User{ID: "3"})

	assert.Len(t, registry, 1)
	assert.Equal(t, "2", first[1].ID)
	assert.Equal(t, "3", second[1].ID)
}

func TestRegistryReplace(t *testing.T) {
	registry := Registry{{ID: "1", Bio: "old"}, {ID: "2"}}

	updated, ok := registry.Replace(User{ID: "1", Bio: "new"})
	require.True(t, ok)
	assert.Equal(t, "new", updated[0].Bio)
	assert.Equal(t, "old", registry[0].Bio, "the source registry must stay untouched")

	_, ok = registry.Replace(User{ID: "9"})
	assert.False(t, ok)
}
