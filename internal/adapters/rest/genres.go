package rest

import (
	"net/http"
	"sort"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

type genreView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListGenres handles GET /api/genres. The input screen renders its genre
// chips from this list.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres := make([]genreView, 0, len(domain.GenreNames))
	for id, name := range domain.GenreNames {
		genres = append(genres, genreView{ID: id, Name: name})
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
	writeJSON(w, http.StatusOK, genres)
}
