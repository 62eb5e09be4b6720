// Package recommend turns a user id into a ranked, bounded list of unseen items.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
	"github.com/kailas-cloud/recserve/internal/domain/user"
	"github.com/kailas-cloud/recserve/internal/logger"
	"github.com/kailas-cloud/recserve/internal/metrics"
)

// Model bundles a scorer with the tables it serves from.
// Universe is the candidate item order used for tie-breaking.
type Model struct {
	Scorer   Scorer
	Users    *user.Directory
	Universe []int
	Catalog  *movie.Catalog
}

// Service serves recommendations for every configured model family.
type Service struct {
	models map[domain.ModelFamily]Model
	links  *movie.Links
	cache  Cache
	logger *zap.Logger
}

// New creates a recommendation service. cache and links may be nil.
func New(links *movie.Links, cache Cache, logger *zap.Logger, models ...Model) (*Service, error) {
	s := &Service{
		models: make(map[domain.ModelFamily]Model, len(models)),
		links:  links,
		cache:  cache,
		logger: logger,
	}
	for _, m := range models {
		if m.Scorer == nil || m.Users == nil || m.Catalog == nil {
			return nil, fmt.Errorf("model is missing a scorer, user table or catalog")
		}
		f := m.Scorer.Family()
		if _, dup := s.models[f]; dup {
			return nil, fmt.Errorf("model family %q configured twice", f)
		}
		s.models[f] = m
	}
	return s, nil
}

// Families returns the configured model families.
func (s *Service) Families() []domain.ModelFamily {
	out := make([]domain.ModelFamily, 0, len(s.models))
	for _, f := range []domain.ModelFamily{domain.FamilyFactorization, domain.FamilyValue} {
		if _, ok := s.models[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Has reports whether family is configured.
func (s *Service) Has(family domain.ModelFamily) bool {
	_, ok := s.models[family]
	return ok
}

// Recommend returns up to n unseen items for userID ranked by the family's scorer.
// An unknown user fails before any scoring; a user who has seen everything gets
// an empty list.
func (s *Service) Recommend(
	ctx context.Context, family domain.ModelFamily, userID, n int,
) ([]recommendation.Record, error) {
	m, ok := s.models[family]
	if !ok {
		return nil, fmt.Errorf("%w: model %q is not loaded", domain.ErrNotImplemented, family)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be at least 1, got %d", domain.ErrInvalidRequest, n)
	}

	u, ok := m.Users.Get(userID)
	if !ok {
		s.countError(family, "unknown_user")
		return nil, domain.NewUnknownUser(userID)
	}

	if s.cache != nil {
		if recs, hit := s.cache.Get(ctx, family, userID, n); hit {
			return recs, nil
		}
	}

	log := logger.FromContext(ctx)
	if log.Core().Enabled(zap.DebugLevel) {
		log.Debug("User history",
			zap.String("model", string(family)),
			zap.Int("user_id", userID),
			zap.Ints("seen", u.Seen()),
		)
	}

	candidates := Candidates(m.Universe, &u)
	metrics.CandidateSetSize.WithLabelValues(string(family)).Observe(float64(len(candidates)))
	if len(candidates) == 0 {
		return []recommendation.Record{}, nil
	}

	start := time.Now()
	scores, err := m.Scorer.Score(ctx, userID, candidates)
	metrics.ScoringDuration.WithLabelValues(string(family)).Observe(time.Since(start).Seconds())
	if err == nil && len(scores) != len(candidates) {
		err = domain.NewScoringError(userID, len(candidates),
			fmt.Errorf("scorer returned %d scores", len(scores)))
	}
	if err != nil {
		return nil, s.scoringFailed(ctx, family, userID, len(candidates), err)
	}

	records, err := Assemble(Rank(candidates, scores, n), m.Catalog, s.links)
	if err != nil {
		s.countError(family, "metadata_missing")
		s.logger.Error("Recommended item has no metadata",
			zap.String("model", string(family)),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("assemble: %w", err)
	}

	if s.cache != nil {
		s.cache.Put(ctx, family, userID, n, records)
	}
	return records, nil
}

func (s *Service) scoringFailed(
	ctx context.Context, family domain.ModelFamily, userID, candidates int, err error,
) error {
	switch {
	case errors.Is(err, domain.ErrUnknownUser):
		s.countError(family, "unknown_user")
		return err
	case ctx.Err() != nil:
		s.countError(family, "canceled")
		return fmt.Errorf("score: %w", err)
	}
	s.countError(family, "scoring")
	s.logger.Error("Scoring failed",
		zap.String("model", string(family)),
		zap.Int("user_id", userID),
		zap.Int("candidates", candidates),
		zap.Error(err),
	)
	return fmt.Errorf("score: %w", err)
}

func (s *Service) countError(family domain.ModelFamily, kind string) {
	metrics.RecommendErrorsTotal.WithLabelValues(string(family), kind).Inc()
}
