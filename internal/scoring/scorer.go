package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/feature"
	"github.com/kailas-cloud/recserve/internal/domain/index"
)

// FactorizationScorer scores candidates with one batched Predict call.
type FactorizationScorer struct {
	model    *Factorization
	users    *index.Index
	items    *index.Index
	features *FeatureMatrix
}

// NewFactorizationScorer ties the model to its id mappings and item feature matrix.
func NewFactorizationScorer(
	model *Factorization, users, items *index.Index, features *FeatureMatrix,
) (*FactorizationScorer, error) {
	if users.Len() != model.Users() {
		return nil, fmt.Errorf("%w: %d mapped users, model has %d", ErrDimensionMismatch, users.Len(), model.Users())
	}
	if items.Len() != features.Rows() {
		return nil, fmt.Errorf("%w: %d mapped items, feature matrix has %d rows",
			ErrDimensionMismatch, items.Len(), features.Rows())
	}
	if features.Cols() != model.Features() {
		return nil, fmt.Errorf("%w: feature matrix has %d columns, model has %d features",
			ErrDimensionMismatch, features.Cols(), model.Features())
	}
	return &FactorizationScorer{model: model, users: users, items: items, features: features}, nil
}

// Family returns domain.FamilyFactorization.
func (s *FactorizationScorer) Family() domain.ModelFamily { return domain.FamilyFactorization }

// Score returns one raw score per candidate, aligned by position.
func (s *FactorizationScorer) Score(_ context.Context, userID int, candidates []int) ([]float64, error) {
	userIdx, ok := s.users.Index(userID)
	if !ok {
		return nil, domain.NewUnknownUser(userID)
	}
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	itemIdx := make([]int, len(candidates))
	for i, id := range candidates {
		idx, ok := s.items.Index(id)
		if !ok {
			return nil, domain.NewScoringError(userID, len(candidates),
				fmt.Errorf("%w: item %d has no model index", ErrDimensionMismatch, id))
		}
		itemIdx[i] = idx
	}

	scores, err := s.model.Predict(userIdx, itemIdx, s.features)
	if err != nil {
		return nil, domain.NewScoringError(userID, len(candidates), err)
	}
	return scores, nil
}

// StateEncoder builds value-network states.
type StateEncoder interface {
	Encode(userID int) ([]float64, feature.Diagnostics, error)
	FillItem(vec []float64, itemID int) bool
	Schema() feature.Schema
}

// ValueScorer scores candidates with the value network.
//
// Item-conditioned networks (input = user blocks + genre block) are evaluated
// once per candidate, taking the output at the candidate's own action index.
// User-only networks need a single forward pass for all candidates.
type ValueScorer struct {
	net             *ValueNetwork
	enc             StateEncoder
	actions         *index.Index
	pool            *Pool
	itemConditioned bool
	outOfRange      *prometheus.CounterVec
	logger          *zap.Logger
}

// NewValueScorer validates that the network matches the encoder layout and the action universe.
// outOfRange is a counter vec with label "field", passed explicitly; it may be nil.
func NewValueScorer(
	net *ValueNetwork,
	enc StateEncoder,
	actions *index.Index,
	pool *Pool,
	outOfRange *prometheus.CounterVec,
	logger *zap.Logger,
) (*ValueScorer, error) {
	if actions.Len() != net.Actions() {
		return nil, fmt.Errorf("%w: %d items in universe, network has %d actions",
			ErrDimensionMismatch, actions.Len(), net.Actions())
	}
	schema := enc.Schema()
	var conditioned bool
	switch net.InputDim() {
	case schema.Dim():
		conditioned = true
	case schema.UserDim():
		conditioned = false
	default:
		return nil, fmt.Errorf("%w: network expects %d inputs, encoder produces %d (user) or %d (user+genres)",
			ErrDimensionMismatch, net.InputDim(), schema.UserDim(), schema.Dim())
	}
	if pool == nil {
		pool = NewPool(0, 0)
	}
	return &ValueScorer{
		net:             net,
		enc:             enc,
		actions:         actions,
		pool:            pool,
		itemConditioned: conditioned && len(schema.Genres) > 0,
		outOfRange:      outOfRange,
		logger:          logger,
	}, nil
}

// Family returns domain.FamilyValue.
func (s *ValueScorer) Family() domain.ModelFamily { return domain.FamilyValue }

// ItemConditioned reports whether states include the candidate's genre block.
func (s *ValueScorer) ItemConditioned() bool { return s.itemConditioned }

// Score returns one value per candidate, aligned by position.
func (s *ValueScorer) Score(ctx context.Context, userID int, candidates []int) ([]float64, error) {
	userVec, diag, err := s.enc.Encode(userID)
	if err != nil {
		return nil, err
	}
	s.report(userID, diag)

	if len(candidates) == 0 {
		return []float64{}, nil
	}

	actions := make([]int, len(candidates))
	for i, id := range candidates {
		a, ok := s.actions.Index(id)
		if !ok {
			return nil, domain.NewScoringError(userID, len(candidates),
				fmt.Errorf("%w: item %d has no action index", ErrDimensionMismatch, id))
		}
		actions[i] = a
	}

	scores := make([]float64, len(candidates))
	if s.itemConditioned {
		err = s.pool.Run(ctx, len(candidates), func(_ context.Context, lo, hi int) error {
			state := make([]float64, s.enc.Schema().Dim())
			copy(state, userVec)
			for i := lo; i < hi; i++ {
				s.enc.FillItem(state, candidates[i])
				v, err := s.net.ActionValue(state, actions[i])
				if err != nil {
					return fmt.Errorf("item %d: %w", candidates[i], err)
				}
				scores[i] = v
			}
			return nil
		})
	} else {
		var out []float64
		out, err = s.net.Forward(userVec)
		if err == nil {
			for i, a := range actions {
				scores[i] = out[a]
			}
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("score candidates: %w", err)
		}
		return nil, domain.NewScoringError(userID, len(candidates), err)
	}
	return scores, nil
}

func (s *ValueScorer) report(userID int, diag feature.Diagnostics) {
	if diag.OK() {
		return
	}
	s.logger.Warn("Categorical feature out of declared range, block left zero",
		zap.Int("user_id", userID),
		zap.Strings("fields", diag.OutOfRange),
	)
	if s.outOfRange != nil {
		for _, f := range diag.OutOfRange {
			s.outOfRange.WithLabelValues(f).Inc()
		}
	}
}
