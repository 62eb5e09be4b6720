package feature

import (
	"fmt"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/user"
)

// Diagnostics reports data-quality findings of one encoding.
type Diagnostics struct {
	// OutOfRange lists the fields whose block was left all-zero.
	OutOfRange []string
	// ItemFallback is set when the item had no genre row and got a zero genre block.
	ItemFallback bool
}

// OK reports whether every categorical block was populated.
func (d Diagnostics) OK() bool { return len(d.OutOfRange) == 0 }

// Encoder converts users (and optionally items) into state vectors.
// All lookups are precomputed at construction; Encoder is safe for concurrent use.
type Encoder struct {
	schema     Schema
	users      *user.Directory
	occupation *Vocabulary
	itemGenres map[int][]int
}

// NewEncoder builds the occupation vocabulary from the user table and the
// per-item genre indices from the catalog. items may be nil for user-only models.
func NewEncoder(schema Schema, users *user.Directory, items *movie.Catalog) (*Encoder, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature schema: %w", err)
	}
	if users == nil {
		return nil, fmt.Errorf("user table is required")
	}

	var raw []string
	for _, u := range users.Users() {
		if d, ok := u.Demographics(); ok {
			raw = append(raw, d.Occupation)
		}
	}

	e := &Encoder{
		schema:     schema,
		users:      users,
		occupation: NewVocabulary(raw),
		itemGenres: make(map[int][]int),
	}

	if items != nil {
		genreIdx := make(map[string]int, len(schema.Genres))
		for i, g := range schema.Genres {
			genreIdx[g] = i
		}
		for _, id := range items.IDs() {
			m, _ := items.Get(id)
			var idx []int
			for _, g := range m.Genres() {
				if i, ok := genreIdx[g]; ok {
					idx = append(idx, i)
				}
			}
			e.itemGenres[id] = idx
		}
	}

	return e, nil
}

// Schema returns the block layout.
func (e *Encoder) Schema() Schema { return e.schema }

// Occupations returns the occupation vocabulary built at load time.
func (e *Encoder) Occupations() *Vocabulary { return e.occupation }

// Encode returns the user-only vector (length Schema.UserDim).
func (e *Encoder) Encode(userID int) ([]float64, Diagnostics, error) {
	u, ok := e.users.Get(userID)
	if !ok {
		return nil, Diagnostics{}, domain.NewUnknownUser(userID)
	}
	vec := make([]float64, e.schema.UserDim())
	diag := e.fillUser(vec, &u)
	return vec, diag, nil
}

// EncodeItem returns the item-conditioned vector (length Schema.Dim).
// An item without a genre row gets an all-zero genre block.
func (e *Encoder) EncodeItem(userID, itemID int) ([]float64, Diagnostics, error) {
	u, ok := e.users.Get(userID)
	if !ok {
		return nil, Diagnostics{}, domain.NewUnknownUser(userID)
	}
	vec := make([]float64, e.schema.Dim())
	diag := e.fillUser(vec, &u)
	diag.ItemFallback = !e.FillItem(vec, itemID)
	return vec, diag, nil
}

// FillItem writes the genre block of itemID into an item-conditioned vector
// whose user blocks are already set. It reports whether the item had a genre row.
func (e *Encoder) FillItem(vec []float64, itemID int) bool {
	off := e.schema.genreOffset()
	clear(vec[off : off+len(e.schema.Genres)])
	genres, ok := e.itemGenres[itemID]
	if !ok {
		return false
	}
	for _, g := range genres {
		vec[off+g] = 1
	}
	return true
}

func (e *Encoder) fillUser(vec []float64, u *user.User) Diagnostics {
	var diag Diagnostics
	demo, ok := u.Demographics()
	if !ok {
		diag.OutOfRange = append(diag.OutOfRange, FieldDemographics)
		return diag
	}

	if !setOneHot(vec, 0, e.schema.AgeGroups, demo.AgeGroup) {
		diag.OutOfRange = append(diag.OutOfRange, FieldAgeGroup)
	}
	if !setOneHot(vec, e.schema.genderOffset(), e.schema.Genders, demo.Gender) {
		diag.OutOfRange = append(diag.OutOfRange, FieldGender)
	}

	occ, known := e.occupation.Index(demo.Occupation)
	if !known || !setOneHot(vec, e.schema.occupationOffset(), e.schema.Occupations, occ) {
		diag.OutOfRange = append(diag.OutOfRange, FieldOccupation)
	}
	return diag
}

// setOneHot sets vec[off+value] when value is inside the block; the block is left zero otherwise.
func setOneHot(vec []float64, off, size, value int) bool {
	if value < 0 || value >= size {
		return false
	}
	vec[off+value] = 1
	return true
}
