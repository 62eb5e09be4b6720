package recserve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/artifact"
	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
	"github.com/kailas-cloud/recserve/internal/scoring"
	healthuc "github.com/kailas-cloud/recserve/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/recserve/internal/usecase/recommend"
)

// recommendUseCase is the internal interface for swapping the core in tests.
type recommendUseCase interface {
	Recommend(ctx context.Context, family domain.ModelFamily, userID, n int) ([]recommendation.Record, error)
	Families() []domain.ModelFamily
}

// Client is the recserve SDK entry point. It is safe for concurrent use.
type Client struct {
	recSvc    recommendUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New loads the configured artifacts and returns a ready Client.
// Any missing or inconsistent artifact fails with an error wrapping ErrLoad.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.linksPath == "" {
		return nil, errors.New("recserve: links table required (use WithLinks)")
	}
	if cfg.factorizationPath == "" && cfg.valueWeightsPath == "" {
		return nil, errors.New("recserve: no model configured (use WithFactorization or WithValue)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	aopts := artifact.Options{MaxBytes: cfg.maxBytes}
	links, err := artifact.LoadLinks(cfg.linksPath, aopts)
	if err != nil {
		return nil, fmt.Errorf("recserve: %w", err)
	}

	var models []recommenduc.Model
	if cfg.factorizationPath != "" {
		m, err := loadFactorization(cfg.factorizationPath, aopts)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if cfg.valueWeightsPath != "" {
		m, err := loadValue(cfg, aopts)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	recSvc, err := recommenduc.New(links, nil, zap.NewNop(), models...)
	if err != nil {
		return nil, fmt.Errorf("recserve: %w", err)
	}

	return &Client{
		recSvc:    recSvc,
		healthSvc: healthuc.New(recSvc, nil),
		obs:       obs,
	}, nil
}

func loadFactorization(path string, opts artifact.Options) (recommenduc.Model, error) {
	f, err := artifact.LoadFactorization(path, opts)
	if err != nil {
		return recommenduc.Model{}, fmt.Errorf("recserve: %w", err)
	}
	scorer, err := scoring.NewFactorizationScorer(f.Model, f.Users, f.Items, f.Features)
	if err != nil {
		return recommenduc.Model{}, fmt.Errorf("recserve: %w", domain.NewLoadError(path, "scorer", err))
	}
	return recommenduc.Model{
		Scorer:   scorer,
		Users:    f.Directory,
		Universe: f.Universe(),
		Catalog:  f.Catalog,
	}, nil
}

func loadValue(cfg *clientConfig, opts artifact.Options) (recommenduc.Model, error) {
	v, err := artifact.LoadValue(cfg.valueWeightsPath, cfg.valueDataPath, opts)
	if err != nil {
		return recommenduc.Model{}, fmt.Errorf("recserve: %w", err)
	}
	pool := scoring.NewPool(cfg.workers, cfg.chunkSize)
	scorer, err := scoring.NewValueScorer(v.Network, v.Encoder, v.Actions, pool, nil, zap.NewNop())
	if err != nil {
		return recommenduc.Model{}, fmt.Errorf("recserve: %w", domain.NewLoadError(cfg.valueWeightsPath, "scorer", err))
	}
	return recommenduc.Model{
		Scorer:   scorer,
		Users:    v.Directory,
		Universe: v.Universe(),
		Catalog:  v.Catalog,
	}, nil
}

// Models returns the loaded model families ("factorization", "value").
func (c *Client) Models() []string {
	fams := c.recSvc.Families()
	out := make([]string, len(fams))
	for i, f := range fams {
		out[i] = string(f)
	}
	return out
}

// Recommend returns up to n unseen items for userID ranked by the factorization model.
func (c *Client) Recommend(ctx context.Context, userID, n int) ([]Recommendation, error) {
	return c.recommend(ctx, "recommend", domain.FamilyFactorization, userID, n)
}

// ValueRecommend returns up to n unseen items for userID ranked by the value network.
func (c *Client) ValueRecommend(ctx context.Context, userID, n int) ([]Recommendation, error) {
	return c.recommend(ctx, "value_recommend", domain.FamilyValue, userID, n)
}

// Best returns the single highest-valued unseen item for userID.
// ok is false when the user has already seen every item.
func (c *Client) Best(ctx context.Context, userID int) (rec Recommendation, ok bool, err error) {
	recs, err := c.recommend(ctx, "best", domain.FamilyValue, userID, 1)
	if err != nil || len(recs) == 0 {
		return Recommendation{}, false, err
	}
	return recs[0], true, nil
}

func (c *Client) recommend(
	ctx context.Context, op string, family domain.ModelFamily, userID, n int,
) (_ []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	recs, err := c.recSvc.Recommend(ctx, family, userID, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return recommendationsFromDomain(recs), nil
}
