// Package reccache caches ranked recommendation lists in a key-value store.
//
// Lists are computed from immutable artifacts, so a cached list is identical to
// a fresh one for the lifetime of the process that wrote it. Cache failures
// are logged and reported as misses; a circuit breaker stops calling a
// failing store until it recovers.
package reccache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/db"
	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
)

var cacheKeyPrefix = domain.KeyPrefix + "rec:"

// store is the consumer interface for the recommendation cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config tunes expiry and the circuit breaker.
type Config struct {
	TTL time.Duration
	// MaxFailures consecutive store errors open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// Namespace separates entries of different artifact generations.
	Namespace string
}

// Cache stores ranked lists keyed by model family, user and list size.
type Cache struct {
	store      store
	cfg        Config
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache over s.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, cfg Config, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	c := &Cache{store: s, cfg: cfg, cacheTotal: cacheTotal, logger: logger}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "recommend-cache",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, db.ErrKeyNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Get returns the cached list, or ok=false on a miss or any store failure.
func (c *Cache) Get(
	ctx context.Context, family domain.ModelFamily, userID, n int,
) ([]recommendation.Record, bool) {
	key := c.key(family, userID, n)

	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.store.Get(ctx, key)
	})
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) && !isBreakerRejection(err) {
			c.logger.Warn("Failed to get cached recommendations", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	recs, err := decodeRecords(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached recommendations", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return recs, true
}

// Put stores a list. Failures are logged and otherwise ignored.
func (c *Cache) Put(
	ctx context.Context, family domain.ModelFamily, userID, n int, records []recommendation.Record,
) {
	key := c.key(family, userID, n)

	data, err := encodeRecords(records)
	if err != nil {
		c.logger.Warn("Failed to encode recommendations for cache", zap.String("key", key), zap.Error(err))
		return
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.store.SetWithTTL(ctx, key, data, c.cfg.TTL)
	})
	if err != nil && !isBreakerRejection(err) {
		c.logger.Warn("Failed to cache recommendations", zap.String("key", key), zap.Error(err))
	}
}

// State reports the breaker state ("closed", "half-open", "open").
func (c *Cache) State() string { return c.breaker.State().String() }

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// key: recserve:rec:[<namespace>:]<family>:user:<id>:n:<n>
func (c *Cache) key(family domain.ModelFamily, userID, n int) string {
	k := cacheKeyPrefix
	if c.cfg.Namespace != "" {
		k += c.cfg.Namespace + ":"
	}
	return k + string(family) + ":user:" + strconv.Itoa(userID) + ":n:" + strconv.Itoa(n)
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func encodeRecords(records []recommendation.Record) ([]byte, error) {
	dtos := make([]recordDTO, len(records))
	for i := range records {
		dtos[i] = toDTO(&records[i])
	}
	data, err := json.Marshal(dtos)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return data, nil
}

func decodeRecords(data []byte) ([]recommendation.Record, error) {
	var dtos []recordDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	if dtos == nil {
		return nil, fmt.Errorf("cached payload is not a list")
	}
	out := make([]recommendation.Record, len(dtos))
	for i := range dtos {
		out[i] = dtos[i].toRecord()
	}
	return out, nil
}
