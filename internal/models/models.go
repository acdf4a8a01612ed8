package models

import "errors"

// MediaKind identifies the TMDB media family of a catalog item.
type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindTV     MediaKind = "tv"
	MediaKindPerson MediaKind = "person"
)

// ErrUnsupportedKind is returned when an operation needs a movie or tv kind.
var ErrUnsupportedKind = errors.New("unsupported media kind")

// Validate reports whether the kind addresses a movie or tv endpoint.
func (k MediaKind) Validate() error {
	switch k {
	case MediaKindMovie, MediaKindTV:
		return nil
	}

	return ErrUnsupportedKind
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type Videos struct {
	Results []Video `json:"results"`
}

// CatalogEntry is a snapshot of one catalog item. List endpoints fill the
// summary fields; detail endpoints additionally fill the optional ones.
type CatalogEntry struct {
	ID           int       `json:"id"`
	Title        string    `json:"title,omitempty"`
	Name         string    `json:"name,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	VoteAverage  float64   `json:"vote_average"`
	MediaType    MediaKind `json:"media_type,omitempty"`
	GenreIDs     []int     `json:"genre_ids,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	ReleaseDate  string    `json:"release_date,omitempty"`
	FirstAirDate string    `json:"first_air_date,omitempty"`

	Genres         []Genre      `json:"genres,omitempty"`
	Runtime        int          `json:"runtime,omitempty"`
	EpisodeRunTime []int        `json:"episode_run_time,omitempty"`
	Tagline        string       `json:"tagline,omitempty"`
	Status         string       `json:"status,omitempty"`
	Credits        *Credits     `json:"credits,omitempty"`
	Videos         *Videos      `json:"videos,omitempty"`
	Similar        *CatalogPage `json:"similar,omitempty"`
}

// DisplayTitle returns the movie title, falling back to the series name.
func (e CatalogEntry) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}

	return e.Name
}

// IsDetailed reports whether the entry came from a detail endpoint.
func (e CatalogEntry) IsDetailed() bool {
	return len(e.Genres) > 0 || e.Runtime > 0 || len(e.EpisodeRunTime) > 0 || e.Credits != nil
}

// Favorite snapshots the entry into a favorites list item.
func (e CatalogEntry) Favorite() FavoriteItem {
	return FavoriteItem{
		ID:          e.ID,
		Title:       e.DisplayTitle(),
		PosterPath:  e.PosterPath,
		MediaType:   e.MediaType,
		VoteAverage: e.VoteAverage,
	}
}

type CatalogPage struct {
	Items      []CatalogEntry `json:"results"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// Normalize clamps the cursor so that 1 <= Page <= TotalPages.
func (p *CatalogPage) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.TotalPages < p.Page {
		p.TotalPages = p.Page
	}
	if p.Items == nil {
		p.Items = []CatalogEntry{}
	}
}

// HasMore reports whether another page can be requested.
func (p CatalogPage) HasMore() bool {
	return p.Page < p.TotalPages
}

type FavoriteItem struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"poster_path,omitempty"`
	MediaType   MediaKind `json:"media_type,omitempty"`
	VoteAverage float64   `json:"vote_average"`
}

// Durable storage keys. Each store owns a disjoint namespace.
const (
	KeyCurrentUser     = "user"
	KeyUsers           = "users"
	favoritesKeyPrefix = "favorites_"
)

// FavoritesKey returns the storage key of the favorites list of a user.
func FavoritesKey(userID string) string {
	return favoritesKeyPrefix + userID
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeSQLite
	StorageTypeBolt
	StorageTypeFile
	StorageTypeMemory
)
