package recommend

import (
	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
)

// Assemble joins ranked items with their metadata rows and external catalog ids.
// A ranked item without a metadata row fails the whole list; a missing link only
// leaves the external id empty.
func Assemble(ranked []Ranked, catalog *movie.Catalog, links *movie.Links) ([]recommendation.Record, error) {
	out := make([]recommendation.Record, 0, len(ranked))
	for _, r := range ranked {
		m, ok := catalog.Get(r.ItemID)
		if !ok {
			return nil, domain.NewMetadataMissing(r.ItemID)
		}
		var tmdb *int
		if id, ok := links.TMDbID(r.ItemID); ok {
			tmdb = &id
		}
		out = append(out, recommendation.New(m, r.Raw, r.Score, tmdb))
	}
	return out, nil
}
