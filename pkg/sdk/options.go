package recserve

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	linksPath         string
	factorizationPath string
	valueWeightsPath  string
	valueDataPath     string
	maxBytes          int64

	workers   int
	chunkSize int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithLinks sets the external catalog link table (movieId,imdbId,tmdbId CSV). Required.
func WithLinks(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.linksPath = path
	})
}

// WithFactorization enables the factorization model from a bundle file.
func WithFactorization(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.factorizationPath = path
	})
}

// WithValue enables the value network from its weights and data bundle.
func WithValue(weightsPath, dataPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.valueWeightsPath = weightsPath
		c.valueDataPath = dataPath
	})
}

// WithMaxArtifactBytes caps the size of each artifact file. Default: 1 GiB.
func WithMaxArtifactBytes(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBytes = n
	})
}

// WithWorkers bounds value-network scoring concurrency and the candidates per work unit.
// Zero keeps the defaults (GOMAXPROCS workers, 256 candidates).
func WithWorkers(workers, chunkSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = workers
		c.chunkSize = chunkSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
