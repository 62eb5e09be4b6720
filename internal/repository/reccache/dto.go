package reccache

import (
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
)

// recordDTO is the cached representation of a recommendation.Record.
type recordDTO struct {
	ItemID        int      `json:"item_id"`
	Title         string   `json:"title"`
	Year          *int     `json:"year,omitempty"`
	Genres        []string `json:"genres"`
	OriginalScore float64  `json:"original_score"`
	Score         float64  `json:"score"`
	TMDbID        *int     `json:"tmdb_id,omitempty"`
}

func toDTO(r *recommendation.Record) recordDTO {
	m := r.Movie()
	d := recordDTO{
		ItemID:        r.ItemID(),
		Title:         r.Title(),
		Genres:        m.Genres(),
		OriginalScore: r.OriginalScore(),
		Score:         r.Score(),
	}
	if y, ok := r.Year(); ok {
		d.Year = &y
	}
	if id, ok := r.TMDbID(); ok {
		d.TMDbID = &id
	}
	return d
}

func (d *recordDTO) toRecord() recommendation.Record {
	return recommendation.New(
		movie.New(d.ItemID, d.Title, d.Year, d.Genres),
		d.OriginalScore, d.Score, d.TMDbID,
	)
}
