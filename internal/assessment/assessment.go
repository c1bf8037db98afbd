package assessment

import (
	"log/slog"

	"flowcare/internal/assessment/metrics"
	"flowcare/internal/assessment/service"
)

// Service exposes assessment submission and normalized reads.
type Service = service.Service

// NewService constructs the assessment service with its ambient dependencies.
// cache may be nil to read straight from the store.
func NewService(store service.Store, cache service.Cache, logger *slog.Logger, m *metrics.Metrics) *Service {
	opts := []service.Option{service.WithLogger(logger), service.WithMetrics(m)}
	if cache != nil {
		opts = append(opts, service.WithCache(cache))
	}
	return service.New(store, opts...)
}
