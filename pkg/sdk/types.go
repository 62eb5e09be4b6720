package recserve

import "github.com/kailas-cloud/recserve/internal/domain/recommendation"

// Recommendation is one ranked item.
type Recommendation struct {
	ItemID        int
	Title         string
	Genres        []string
	Year          *int // nil when unknown
	OriginalScore float64
	Score         float64 // rescaled onto [1, 5]
	TMDbID        *int    // nil when the item has no external link
}

func recommendationFromDomain(r *recommendation.Record) Recommendation {
	m := r.Movie()
	out := Recommendation{
		ItemID:        r.ItemID(),
		Title:         r.Title(),
		Genres:        append([]string(nil), m.Genres()...),
		OriginalScore: r.OriginalScore(),
		Score:         r.Score(),
	}
	if y, ok := r.Year(); ok {
		out.Year = &y
	}
	if id, ok := r.TMDbID(); ok {
		out.TMDbID = &id
	}
	return out
}

func recommendationsFromDomain(recs []recommendation.Record) []Recommendation {
	out := make([]Recommendation, len(recs))
	for i := range recs {
		out[i] = recommendationFromDomain(&recs[i])
	}
	return out
}
