package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogPageNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   CatalogPage
		want CatalogPage
	}{
		{
			name: "zero page becomes first page",
			in:   CatalogPage{},
			want: CatalogPage{Items: []CatalogEntry{}, Page: 1, TotalPages: 1},
		},
		{
			name: "total pages never below page",
			in:   CatalogPage{Items: []CatalogEntry{{ID: 1}}, Page: 3, TotalPages: 2},
			want: CatalogPage{Items: []CatalogEntry{{ID: 1}}, Page: 3, TotalPages: 3},
		},
		{
			name: "valid cursor is kept",
			in:   CatalogPage{Items: []CatalogEntry{}, Page: 2, TotalPages: 10},
			want: CatalogPage{Items: []CatalogEntry{}, Page: 2, TotalPages: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := tt.in
			page.Normalize()
			assert.Equal(t, tt.want, page)
		})
	}
}

func TestCatalogEntryDecodesListAndDetailShapes(t *testing.T) {
	var series CatalogEntry
	err := json.Unmarshal([]byte(`{
		"id": 1399,
		"name": "Game of Thrones",
		"poster_path": "/got.jpg",
		"vote_average": 8.4,
		"genre_ids": [18, 10765]
	}`), &series)
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", series.DisplayTitle())
	assert.False(t, series.IsDetailed())

	var movie CatalogEntry
	err = json.Unmarshal([]byte(`{
		"id": 550,
		"title": "Fight Club",
		"name": "ignored",
		"runtime": 139,
		"genres": [{"id": 18, "name": "Drama"}],
		"credits": {"cast": [{"id": 819, "name": "Edward Norton"}]}
	}`), &movie)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", movie.DisplayTitle())
	assert.True(t, movie.IsDetailed())
	assert.Equal(t, "Edward Norton", movie.Credits.Cast[0].Name)
}

func TestCatalogEntryFavorite(t *testing.T) {
	entry := CatalogEntry{
		ID:          42,
		Name:        "Series",
		PosterPath:  "/p.jpg",
		MediaType:   MediaKindTV,
		VoteAverage: 7.5,
		Overview:    "not part of the snapshot",
	}

	assert.Equal(t, FavoriteItem{
		ID:          42,
		Title:       "Series",
		PosterPath:  "/p.jpg",
		MediaType:   MediaKindTV,
		VoteAverage: 7.5,
	}, entry.Favorite())
}

func TestMediaKindValidate(t *testing.T) {
	assert.NoError(t, MediaKindMovie.Validate())
	assert.NoError(t, MediaKindTV.Validate())
	assert.ErrorIs(t, MediaKindPerson.Validate(), ErrUnsupportedKind)
	assert.ErrorIs(t, MediaKind("").Validate(), ErrUnsupportedKind)
}

func TestFavoritesKey(t *testing.T) {
	assert.Equal(t, "favorites_abc", FavoritesKey("abc"))
}
