package catalog

import (
	"strings"

	"github.com/patric-chuzhbe/cineshelf/internal/models"
)

// State is the browsing state shown by the UI. Query is the last executed
// search; Page and TotalPages describe its cursor. Loading is set while any
// fetch is in flight; SearchLoading only while a search page is.
type State struct {
	Movies     []models.CatalogEntry
	Series     []models.CatalogEntry
	Results    []models.CatalogEntry
	Query      string
	Page       int
	TotalPages int
	Loading    bool
	Err        string

	SearchLoading  bool
	initialLoading bool

	// searchSeq identifies the newest search request; older responses are dropped.
	searchSeq int
}

// HasMore reports whether LoadMore would fetch anything.
func (s State) HasMore() bool {
	return s.Query != "" && s.Page < s.TotalPages
}

func (s State) withLoading() State {
	s.Loading = s.initialLoading || s.SearchLoading

	return s
}

func (s State) clone() State {
	s.Movies = cloneEntries(s.Movies)
	s.Series = cloneEntries(s.Series)
	s.Results = cloneEntries(s.Results)

	return s
}

func cloneEntries(entries []models.CatalogEntry) []models.CatalogEntry {
	if entries == nil {
		return nil
	}
	result := make([]models.CatalogEntry, len(entries))
	copy(result, entries)

	return result
}

type Command interface {
	isCommand()
}

type LoadInitialRequested struct{}

type InitialLoaded struct {
	Movies models.CatalogPage
	Series models.CatalogPage
}

type InitialFailed struct {
	Err error
}

type SearchRequested struct {
	Query string
	Page  int
}

type LoadMoreRequested struct{}

type SearchLoaded struct {
	Seq    int
	Query  string
	Result models.CatalogPage
}

type SearchFailed struct {
	Seq int
	Err error
}

// DetailsFailed records a failed details lookup without touching the lists.
type DetailsFailed struct {
	Err error
}

func (LoadInitialRequested) isCommand() {}
func (InitialLoaded) isCommand()        {}
func (InitialFailed) isCommand()        {}
func (SearchRequested) isCommand()      {}
func (LoadMoreRequested) isCommand()    {}
func (SearchLoaded) isCommand()         {}
func (SearchFailed) isCommand()         {}
func (DetailsFailed) isCommand()        {}

// Effect is a remote fetch the store must run; its outcome comes back as a
// command.
type Effect interface {
	isEffect()
}

// FetchInitial fetches page 1 of popular movies and popular series.
type FetchInitial struct{}

type FetchSearch struct {
	Seq   int
	Query string
	Page  int
}

func (FetchInitial) isEffect() {}
func (FetchSearch) isEffect()  {}

// Reduce computes the next catalog state and the fetches to run. It performs
// no I/O.
func Reduce(state State, command Command) (State, []Effect) {
	switch cmd := command.(type) {
	case LoadInitialRequested:
		state.initialLoading = true
		state.Err = ""
		return state.withLoading(), []Effect{FetchInitial{}}

	case InitialLoaded:
		state.Movies = cmd.Movies.Items
		state.Series = cmd.Series.Items
		state.initialLoading = false
		return state.withLoading(), nil

	case InitialFailed:
		state.initialLoading = false
		state.Err = cmd.Err.Error()
		return state.withLoading(), nil

	case SearchRequested:
		query := strings.TrimSpace(cmd.Query)
		state.searchSeq++
		if query == "" {
			state.Results = nil
			state.Query = ""
			state.Page = 0
			state.TotalPages = 0
			state.SearchLoading = false
			return state.withLoading(), nil
		}
		page := cmd.Page
		if page < 1 {
			page = 1
		}
		state.SearchLoading = true
		state.Err = ""
		return state.withLoading(), []Effect{FetchSearch{Seq: state.searchSeq, Query: query, Page: page}}

	case LoadMoreRequested:
		if state.SearchLoading || !state.HasMore() {
			return state, nil
		}
		state.searchSeq++
		state.SearchLoading = true
		state.Err = ""
		return state.withLoading(), []Effect{FetchSearch{Seq: state.searchSeq, Query: state.Query, Page: state.Page + 1}}

	case SearchLoaded:
		if cmd.Seq != state.searchSeq {
			return state, nil
		}
		if cmd.Result.Page <= 1 || cmd.Query != state.Query {
			state.Results = cmd.Result.Items
		} else {
			results := make([]models.CatalogEntry, 0, len(state.Results)+len(cmd.Result.Items))
			results = append(results, state.Results...)
			state.Results = append(results, cmd.Result.Items...)
		}
		state.Query = cmd.Query
		state.Page = cmd.Result.Page
		state.TotalPages = cmd.Result.TotalPages
		state.SearchLoading = false
		return state.withLoading(), nil

	case SearchFailed:
		if cmd.Seq != state.searchSeq {
			return state, nil
		}
		state.SearchLoading = false
		state.Err = cmd.Err.Error()
		return state.withLoading(), nil

	case DetailsFailed:
		state.Err = cmd.Err.Error()
		return state, nil
	}

	return state, nil
}
