package recommend

import (
	"sort"

	"github.com/kailas-cloud/recserve/internal/domain"
)

// Ranked is one candidate after ordering and normalization.
type Ranked struct {
	ItemID int
	Raw    float64
	Score  float64
}

// Rank orders candidates by raw score descending, keeping candidate order on ties,
// and returns the top n. Scores are rescaled onto the presentation range using
// the min and max of the whole scored set, so truncation never moves the bounds.
// When every score is equal each item gets the range midpoint.
func Rank(candidates []int, scores []float64, n int) []Ranked {
	size := min(len(candidates), len(scores))
	if size == 0 || n < 1 {
		return []Ranked{}
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:size] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	order := make([]int, size)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if n > size {
		n = size
	}
	out := make([]Ranked, n)
	for k, i := range order[:n] {
		out[k] = Ranked{
			ItemID: candidates[i],
			Raw:    scores[i],
			Score:  normalize(scores[i], lo, hi),
		}
	}
	return out
}

func normalize(s, lo, hi float64) float64 {
	const span = domain.MaxPresentationScore - domain.MinPresentationScore
	if hi == lo {
		return domain.MinPresentationScore + span/2
	}
	return domain.MinPresentationScore + (s-lo)/(hi-lo)*span
}
