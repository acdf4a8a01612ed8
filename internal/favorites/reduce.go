package favorites

import (
	funk "github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/cineshelf/internal/models"
)

// State is the favorites list of the user the store is bound to. UserID is
// empty while nobody is logged in, and then Items is always empty.
type State struct {
	UserID string
	Items  []models.FavoriteItem
}

// Contains reports whether an item with the given id is in the list.
func (s State) Contains(id int) bool {
	return funk.Find(s.Items, func(item models.FavoriteItem) bool {
		return item.ID == id
	}) != nil
}

func (s State) clone() State {
	items := make([]models.FavoriteItem, len(s.Items))
	copy(items, s.Items)
	s.Items = items

	return s
}

type Command interface {
	isCommand()
}

// Bound switches the store to another user with that user's persisted list.
type Bound struct {
	UserID string
	Items  []models.FavoriteItem
}

type Add struct {
	Item models.FavoriteItem
}

type Remove struct {
	ID int
}

func (Bound) isCommand()  {}
func (Add) isCommand()    {}
func (Remove) isCommand() {}

type Effect interface {
	isEffect()
}

// Persist writes the whole list under Key.
type Persist struct {
	Key   string
	Items []models.FavoriteItem
}

func (Persist) isEffect() {}

// Reduce computes the next favorites state. Mutations without a bound user
// and duplicate additions leave the state as it is and produce no effects.
func Reduce(state State, command Command) (State, []Effect) {
	switch cmd := command.(type) {
	case Bound:
		if cmd.UserID == "" {
			return State{Items: []models.FavoriteItem{}}, nil
		}
		return State{UserID: cmd.UserID, Items: dedupe(cmd.Items)}, nil

	case Add:
		if state.UserID == "" || state.Contains(cmd.Item.ID) {
			return state, nil
		}
		items := make([]models.FavoriteItem, 0, len(state.Items)+1)
		items = append(items, state.Items...)
		items = append(items, cmd.Item)
		return State{UserID: state.UserID, Items: items}, []Effect{
			Persist{Key: models.FavoritesKey(state.UserID), Items: items},
		}

	case Remove:
		if state.UserID == "" {
			return state, nil
		}
		items := funk.Filter(state.Items, func(item models.FavoriteItem) bool {
			return item.ID != cmd.ID
		}).([]models.FavoriteItem)
		return State{UserID: state.UserID, Items: items}, []Effect{
			Persist{Key: models.FavoritesKey(state.UserID), Items: items},
		}
	}

	return state, nil
}

// dedupe keeps the first occurrence of every id, so a hand-edited blob cannot
// break the uniqueness of the list.
func dedupe(items []models.FavoriteItem) []models.FavoriteItem {
	result := make([]models.FavoriteItem, 0, len(items))
	seen := make(map[int]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		result = append(result, item)
	}

	return result
}
