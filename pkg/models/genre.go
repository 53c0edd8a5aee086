package models

// Genres is the fixed set of book genres. Book.Genre and
// User.FavoriteGenres are validated against it.
var Genres = []string{
	"fantasy",
	"science-fiction",
	"mystery",
	"thriller",
	"romance",
	"literary",
	"historical",
	"horror",
	"biography",
	"non-fiction",
	"young-adult",
	"poetry",
}

var genreSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Genres))
	for _, g := range Genres {
		set[g] = struct{}{}
	}
	return set
}()

// IsValidGenre reports whether name is one of the fixed genres.
func IsValidGenre(name string) bool {
	_, ok := genreSet[name]
	return ok
}
