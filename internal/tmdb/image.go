package tmdb

const (
	posterBaseURL     = "https://image.tmdb.org/t/p/w500"
	PosterPlaceholder = "https://via.placeholder.com/500x750?text=Sem+Imagem"
)

// PosterURL builds the w500 poster URL, or the placeholder when the item has
// no poster.
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return PosterPlaceholder
	}
	if posterPath[0] != '/' {
		posterPath = "/" + posterPath
	}

	return posterBaseURL + posterPath
}
