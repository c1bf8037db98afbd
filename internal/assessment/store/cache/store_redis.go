package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"flowcare/internal/assessment/legacy"
	"flowcare/internal/assessment/models"
	"flowcare/pkg/platform/sentinel"
)

var (
	getDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowcare_assessment_cache_get_duration_ms",
		Help:    "Latency of assessment cache reads in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for reconstructed assessment views
	keyPrefix = "flowcare:assessment:"

	DefaultTTL = 5 * time.Minute
)

// Redis caches reconstructed views. Entries keep their schema tag so a cached
// legacy row comes back in its nested shape.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a Redis cache instance.
type RedisOption func(*Redis)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewRedis constructs a Redis-backed view cache.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type entry struct {
	Schema    string                   `json:"schema"`
	Flattened *models.Assessment       `json:"flattened,omitempty"`
	Legacy    *models.LegacyAssessment `json:"legacy,omitempty"`
}

// Get returns the cached view for id, or sentinel.ErrNotFound on a miss.
func (r *Redis) Get(ctx context.Context, id string) (*legacy.View, error) {
	start := time.Now()
	defer func() {
		getDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached assessment: %w: %w", sentinel.ErrUnavailable, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cached assessment: %w", err)
	}
	switch e.Schema {
	case legacy.SchemaLegacy.String():
		if e.Legacy == nil {
			return nil, sentinel.ErrNotFound
		}
		return legacy.NewLegacyView(e.Legacy), nil
	case legacy.SchemaFlattened.String():
		if e.Flattened == nil {
			return nil, sentinel.ErrNotFound
		}
		return legacy.NewFlattenedView(e.Flattened), nil
	default:
		return nil, sentinel.ErrNotFound
	}
}

// Set stores view under its id with the configured TTL.
func (r *Redis) Set(ctx context.Context, view *legacy.View) error {
	if view == nil {
		return nil
	}
	e := entry{Schema: view.Schema().String()}
	if a, ok := view.Legacy(); ok {
		e.Legacy = a
	} else if a, ok := view.Flattened(); ok {
		e.Flattened = a
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cached assessment: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+view.ID(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached assessment: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// Invalidate drops any cached view for id.
func (r *Redis) Invalidate(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("invalidate cached assessment: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
