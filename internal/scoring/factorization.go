// Package scoring evaluates the loaded models over candidate sets.
//
// Models are immutable after construction and safe for concurrent use.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrDimensionMismatch signals inconsistent model, index or feature shapes.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNonFinite signals a NaN or Inf model output.
	ErrNonFinite = errors.New("non-finite model output")
)

// Entry is one non-zero cell of a sparse matrix.
type Entry struct {
	Row   int
	Col   int
	Value float64
}

// FeatureMatrix is a sparse item x feature matrix in CSR layout.
type FeatureMatrix struct {
	rows, cols int
	indptr     []int
	indices    []int
	values     []float64
}

// NewFeatureMatrix builds a CSR matrix. Duplicate cells are summed; zero cells are kept.
func NewFeatureMatrix(rows, cols int, entries []Entry) (*FeatureMatrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape %dx%d", ErrDimensionMismatch, rows, cols)
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	m := &FeatureMatrix{rows: rows, cols: cols, indptr: make([]int, rows+1)}
	prevRow, prevCol := -1, -1
	for _, e := range sorted {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			return nil, fmt.Errorf("%w: entry (%d,%d) outside %dx%d", ErrDimensionMismatch, e.Row, e.Col, rows, cols)
		}
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return nil, fmt.Errorf("%w: entry (%d,%d)", ErrNonFinite, e.Row, e.Col)
		}
		if e.Row == prevRow && e.Col == prevCol {
			m.values[len(m.values)-1] += e.Value
			continue
		}
		m.indices = append(m.indices, e.Col)
		m.values = append(m.values, e.Value)
		m.indptr[e.Row+1]++
		prevRow, prevCol = e.Row, e.Col
	}
	for r := 0; r < rows; r++ {
		m.indptr[r+1] += m.indptr[r]
	}
	return m, nil
}

// IdentityFeatures returns the n x n identity matrix (one indicator feature per item).
func IdentityFeatures(n int) *FeatureMatrix {
	m := &FeatureMatrix{
		rows:    n,
		cols:    n,
		indptr:  make([]int, n+1),
		indices: make([]int, n),
		values:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		m.indptr[i+1] = i + 1
		m.indices[i] = i
		m.values[i] = 1
	}
	return m
}

// Rows returns the number of items.
func (m *FeatureMatrix) Rows() int { return m.rows }

// Cols returns the number of features.
func (m *FeatureMatrix) Cols() int { return m.cols }

// NNZ returns the number of stored cells.
func (m *FeatureMatrix) NNZ() int { return len(m.values) }

func (m *FeatureMatrix) row(r int) ([]int, []float64) {
	lo, hi := m.indptr[r], m.indptr[r+1]
	return m.indices[lo:hi], m.values[lo:hi]
}

// Factorization is a hybrid matrix-factorization model: a user embedding and
// bias, and per-feature item embeddings and biases combined through the item
// feature matrix.
//
//	score(u, i) = <p_u, sum_f x_if q_f> + b_u + sum_f x_if c_f
type Factorization struct {
	userEmb  [][]float64
	userBias []float64
	featEmb  [][]float64
	featBias []float64
	dim      int
}

// NewFactorization validates shapes and creates the model.
func NewFactorization(userEmb [][]float64, userBias []float64, featEmb [][]float64, featBias []float64) (*Factorization, error) {
	if len(userEmb) == 0 {
		return nil, fmt.Errorf("%w: no user embeddings", ErrDimensionMismatch)
	}
	if len(featEmb) == 0 {
		return nil, fmt.Errorf("%w: no item feature embeddings", ErrDimensionMismatch)
	}
	dim := len(userEmb[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero embedding dimension", ErrDimensionMismatch)
	}
	for i, row := range userEmb {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: user embedding %d has %d components, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
	}
	for i, row := range featEmb {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: feature embedding %d has %d components, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
	}
	if len(userBias) != len(userEmb) {
		return nil, fmt.Errorf("%w: %d user biases for %d users", ErrDimensionMismatch, len(userBias), len(userEmb))
	}
	if len(featBias) != len(featEmb) {
		return nil, fmt.Errorf("%w: %d feature biases for %d features", ErrDimensionMismatch, len(featBias), len(featEmb))
	}
	return &Factorization{
		userEmb:  userEmb,
		userBias: userBias,
		featEmb:  featEmb,
		featBias: featBias,
		dim:      dim,
	}, nil
}

// Users returns the number of users the model was trained on.
func (f *Factorization) Users() int { return len(f.userEmb) }

// Features returns the number of item features.
func (f *Factorization) Features() int { return len(f.featEmb) }

// Dim returns the embedding dimension.
func (f *Factorization) Dim() int { return f.dim }

// Predict scores items for one user in a single batched call.
// The result is aligned by position with items. No partial result is returned on error.
func (f *Factorization) Predict(userIdx int, items []int, features *FeatureMatrix) ([]float64, error) {
	if userIdx < 0 || userIdx >= len(f.userEmb) {
		return nil, fmt.Errorf("%w: user index %d outside [0,%d)", ErrDimensionMismatch, userIdx, len(f.userEmb))
	}
	if features == nil {
		return nil, fmt.Errorf("%w: item feature matrix is required", ErrDimensionMismatch)
	}
	if features.cols != len(f.featEmb) {
		return nil, fmt.Errorf("%w: feature matrix has %d columns, model has %d features",
			ErrDimensionMismatch, features.cols, len(f.featEmb))
	}

	p := f.userEmb[userIdx]
	bu := f.userBias[userIdx]
	q := make([]float64, f.dim)
	scores := make([]float64, len(items))

	for n, itemIdx := range items {
		if itemIdx < 0 || itemIdx >= features.rows {
			return nil, fmt.Errorf("%w: item index %d outside [0,%d)", ErrDimensionMismatch, itemIdx, features.rows)
		}
		clear(q)
		bias := 0.0
		cols, vals := features.row(itemIdx)
		for k, c := range cols {
			x := vals[k]
			emb := f.featEmb[c]
			for d := range q {
				q[d] += x * emb[d]
			}
			bias += x * f.featBias[c]
		}

		s := 0.0
		for d := range q {
			s += p[d] * q[d]
		}
		s += bu + bias
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: item index %d", ErrNonFinite, itemIdx)
		}
		scores[n] = s
	}
	return scores, nil
}
