package feature

import (
	"sort"
	"strconv"
)

// Vocabulary maps raw categorical values to dense indices.
//
// Canonical encoding: when every value parses as an integer, the value is its
// own index (codes are already dense bucket numbers). Otherwise the distinct
// values are sorted lexicographically and the index is the position.
type Vocabulary struct {
	toIdx  map[string]int
	values []string
}

// NewVocabulary builds a vocabulary from raw values. Empty strings are ignored.
func NewVocabulary(raw []string) *Vocabulary {
	distinct := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if r != "" {
			distinct[r] = struct{}{}
		}
	}

	values := make([]string, 0, len(distinct))
	numeric := true
	for v := range distinct {
		values = append(values, v)
		if _, err := strconv.Atoi(v); err != nil {
			numeric = false
		}
	}

	if numeric {
		sort.Slice(values, func(i, j int) bool {
			a, _ := strconv.Atoi(values[i])
			b, _ := strconv.Atoi(values[j])
			return a < b
		})
	} else {
		sort.Strings(values)
	}

	toIdx := make(map[string]int, len(values))
	for i, v := range values {
		if numeric {
			i, _ = strconv.Atoi(v)
		}
		toIdx[v] = i
	}
	return &Vocabulary{toIdx: toIdx, values: values}
}

// Index returns the dense index of raw.
func (v *Vocabulary) Index(raw string) (int, bool) {
	i, ok := v.toIdx[raw]
	return i, ok
}

// Values returns the distinct values in sort order.
func (v *Vocabulary) Values() []string { return v.values }

// Len returns the number of distinct values.
func (v *Vocabulary) Len() int { return len(v.values) }
