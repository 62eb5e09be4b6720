// Package feature builds the fixed-length state vectors consumed by the value network.
//
// A vector is a concatenation of one-hot blocks at fixed offsets:
//
//	[ age group | gender | occupation | genres (item-conditioned only) ]
//
// Each categorical block holds exactly one 1, or is all-zero when the value is
// absent or outside the declared bucket count. The genre block is a multi-hot
// indicator over the declared genre names.
package feature

import "fmt"

// Field names reported in Diagnostics.
const (
	FieldAgeGroup     = "age_group"
	FieldGender       = "gender"
	FieldOccupation   = "occupation"
	FieldDemographics = "demographics"
)

// Schema declares the bucket counts of each block.
type Schema struct {
	AgeGroups   int
	Genders     int
	Occupations int
	Genres      []string
}

// Validate checks that every block has a positive size and genre names are unique.
func (s Schema) Validate() error {
	if s.AgeGroups <= 0 {
		return fmt.Errorf("num_age_groups must be positive, got %d", s.AgeGroups)
	}
	if s.Genders <= 0 {
		return fmt.Errorf("num_genders must be positive, got %d", s.Genders)
	}
	if s.Occupations <= 0 {
		return fmt.Errorf("num_occupations must be positive, got %d", s.Occupations)
	}
	seen := make(map[string]struct{}, len(s.Genres))
	for _, g := range s.Genres {
		if g == "" {
			return fmt.Errorf("genre names must be non-empty")
		}
		if _, dup := seen[g]; dup {
			return fmt.Errorf("duplicate genre name %q", g)
		}
		seen[g] = struct{}{}
	}
	return nil
}

// UserDim is the length of a user-only vector.
func (s Schema) UserDim() int { return s.AgeGroups + s.Genders + s.Occupations }

// Dim is the length of an item-conditioned vector.
func (s Schema) Dim() int { return s.UserDim() + len(s.Genres) }

func (s Schema) genderOffset() int     { return s.AgeGroups }
func (s Schema) occupationOffset() int { return s.AgeGroups + s.Genders }
func (s Schema) genreOffset() int      { return s.UserDim() }
