package domain

// KeyPrefix namespaces every key recserve writes to a shared store.
const KeyPrefix = "recserve:"

// ModelFamily identifies which scoring protocol produced a recommendation list.
type ModelFamily string

const (
	// FamilyFactorization is the matrix-factorization model with item side features.
	FamilyFactorization ModelFamily = "factorization"
	// FamilyValue is the value-based (Q-value) network.
	FamilyValue ModelFamily = "value"
)

// IsValid reports whether f is a known model family.
func (f ModelFamily) IsValid() bool {
	switch f {
	case FamilyFactorization, FamilyValue:
		return true
	}
	return false
}

// Presentation range for normalized scores.
const (
	MinPresentationScore = 1.0
	MaxPresentationScore = 5.0
)
