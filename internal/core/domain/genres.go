package domain

// Genre identifiers selectable on the input screen.
const (
	GenreAmbient    = "ambient"
	GenreClassical  = "classical"
	GenreJazz       = "jazz"
	GenreLofi       = "lofi"
	GenreAcoustic   = "acoustic"
	GenreFolk       = "folk"
	GenreElectronic = "electronic"
	GenrePop        = "pop"
	GenreRock       = "rock"
	GenreHipHop     = "hiphop"
	GenreSoul       = "soul"
	GenreWorld      = "world"
)

// GenreNames maps genre identifiers to display names.
var GenreNames = map[string]string{
	GenreAmbient:    "Ambient",
	GenreClassical:  "Classical",
	GenreJazz:       "Jazz",
	GenreLofi:       "Lo-Fi",
	GenreAcoustic:   "Acoustic",
	GenreFolk:       "Folk",
	GenreElectronic: "Electronic",
	GenrePop:        "Pop",
	GenreRock:       "Rock",
	GenreHipHop:     "Hip-Hop",
	GenreSoul:       "Soul",
	GenreWorld:      "World",
}

// IsValidGenre reports whether id names a selectable genre.
func IsValidGenre(id string) bool {
	_, ok := GenreNames[id]
	return ok
}

// NormalizeGenres filters ids down to known genres, dropping unknowns and
// duplicates while preserving order.
func NormalizeGenres(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !IsValidGenre(id) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
