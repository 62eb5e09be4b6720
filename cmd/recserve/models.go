package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/artifact"
	"github.com/kailas-cloud/recserve/internal/config"
	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/metrics"
	"github.com/kailas-cloud/recserve/internal/scoring"
	recommenduc "github.com/kailas-cloud/recserve/internal/usecase/recommend"
)

// loaded is everything read from disk at startup.
type loaded struct {
	links  *movie.Links
	models []recommenduc.Model
}

// loadModels reads every configured artifact and builds its scorer.
// Any failure is a LoadError and must stop the process before serving.
func loadModels(cfg *config.Config, logger *zap.Logger) (*loaded, error) {
	opts := artifact.Options{MaxBytes: cfg.Artifacts.MaxBytes}

	links, err := artifact.LoadLinks(cfg.Artifacts.LinksPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	logger.Info("Loaded external catalog links",
		zap.String("path", cfg.Artifacts.LinksPath),
		zap.Int("links", links.Len()),
	)

	out := &loaded{links: links}

	if cfg.Artifacts.FactorizationEnabled() {
		m, err := loadFactorization(cfg, opts, logger)
		if err != nil {
			return nil, err
		}
		out.models = append(out.models, m)
	}

	if cfg.Artifacts.ValueEnabled() {
		m, err := loadValue(cfg, opts, logger)
		if err != nil {
			return nil, err
		}
		out.models = append(out.models, m)
	}

	return out, nil
}

func loadFactorization(cfg *config.Config, opts artifact.Options, logger *zap.Logger) (recommenduc.Model, error) {
	f, err := artifact.LoadFactorization(cfg.Artifacts.FactorizationPath, opts)
	if err != nil {
		return recommenduc.Model{}, fmt.Errorf("load factorization model: %w", err)
	}

	scorer, err := scoring.NewFactorizationScorer(f.Model, f.Users, f.Items, f.Features)
	if err != nil {
		return recommenduc.Model{}, domain.NewLoadError(cfg.Artifacts.FactorizationPath, "scorer", err)
	}

	logger.Info("Loaded factorization model",
		zap.String("path", cfg.Artifacts.FactorizationPath),
		zap.Int("users", f.Users.Len()),
		zap.Int("items", f.Items.Len()),
		zap.Int("features", f.Features.Cols()),
		zap.Int("feature_nnz", f.Features.NNZ()),
		zap.Int("dim", f.Model.Dim()),
		zap.Int("ratings", f.Ratings),
		zap.Int("catalog", f.Catalog.Len()),
	)
	metrics.ArtifactItems.WithLabelValues(string(domain.FamilyFactorization)).Set(float64(f.Items.Len()))

	return recommenduc.Model{
		Scorer:   scorer,
		Users:    f.Directory,
		Universe: f.Universe(),
		Catalog:  f.Catalog,
	}, nil
}

func loadValue(cfg *config.Config, opts artifact.Options, logger *zap.Logger) (recommenduc.Model, error) {
	v, err := artifact.LoadValue(cfg.Artifacts.ValueWeightsPath, cfg.Artifacts.ValueDataPath, opts)
	if err != nil {
		return recommenduc.Model{}, fmt.Errorf("load value model: %w", err)
	}

	pool := scoring.NewPool(cfg.Scoring.Workers, cfg.Scoring.ChunkSize)
	scorer, err := scoring.NewValueScorer(v.Network, v.Encoder, v.Actions, pool,
		metrics.FeatureOutOfRangeTotal, logger.Named("value"))
	if err != nil {
		return recommenduc.Model{}, domain.NewLoadError(cfg.Artifacts.ValueWeightsPath, "scorer", err)
	}

	logger.Info("Loaded value model",
		zap.String("weights", cfg.Artifacts.ValueWeightsPath),
		zap.String("data", cfg.Artifacts.ValueDataPath),
		zap.Int("users", v.Directory.Len()),
		zap.Int("actions", v.Actions.Len()),
		zap.Int("input_dim", v.Network.InputDim()),
		zap.Int("age_groups", v.Schema.AgeGroups),
		zap.Int("genders", v.Schema.Genders),
		zap.Int("occupations", v.Schema.Occupations),
		zap.Int("genres", len(v.Schema.Genres)),
		zap.Bool("item_conditioned", scorer.ItemConditioned()),
		zap.Int("workers", pool.Workers()),
		zap.Int("catalog", v.Catalog.Len()),
	)
	metrics.ArtifactItems.WithLabelValues(string(domain.FamilyValue)).Set(float64(v.Actions.Len()))

	return recommenduc.Model{
		Scorer:   scorer,
		Users:    v.Directory,
		Universe: v.Universe(),
		Catalog:  v.Catalog,
	}, nil
}
