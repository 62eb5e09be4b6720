package recommend

import (
	"context"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
)

// Scorer evaluates one model family over a candidate set.
// The result is aligned by position with candidates.
type Scorer interface {
	Family() domain.ModelFamily
	Score(ctx context.Context, userID int, candidates []int) ([]float64, error)
}

// Cache stores ranked lists computed from immutable artifacts.
// Implementations swallow their own failures; a miss is always safe.
type Cache interface {
	Get(ctx context.Context, family domain.ModelFamily, userID, n int) ([]recommendation.Record, bool)
	Put(ctx context.Context, family domain.ModelFamily, userID, n int, records []recommendation.Record)
}

// SeenSet answers whether a user already rated or watched an item.
type SeenSet interface {
	HasSeen(itemID int) bool
}
