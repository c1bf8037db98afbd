package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Transactor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"flowcare/internal/assessment/classifier"
	"flowcare/internal/assessment/codec"
	"flowcare/internal/assessment/legacy"
	"flowcare/internal/assessment/metrics"
	"flowcare/internal/assessment/models"
	"flowcare/internal/assessment/transform"
	dErrors "flowcare/pkg/domain-errors"
	"flowcare/pkg/platform/sentinel"
	"flowcare/pkg/requestcontext"
)

// Store persists assessment rows. Implementations return sentinel.ErrNotFound
// and sentinel.ErrConflict for the matching conditions.
type Store interface {
	Create(ctx context.Context, rec *models.StorageRecord) error
	Update(ctx context.Context, rec *models.StorageRecord) error
	FindByID(ctx context.Context, id string) (*models.StorageRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*models.StorageRecord, error)
}

// Transactor is implemented by stores that can run several calls as one unit.
// Update uses it when available so the read and the write see the same row.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache holds reconstructed views keyed by assessment id. Get returns
// sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, id string) (*legacy.View, error)
	Set(ctx context.Context, view *legacy.View) error
	Invalidate(ctx context.Context, id string) error
}

// Service submits, updates and reads assessments through the normalization
// engine. It owns identifiers and timestamps; the engine never assigns them.
type Service struct {
	store   Store
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	newID   func() string

	codec   *codec.Codec
	adapter *legacy.Adapter
	loads   singleflight.Group
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithIDGenerator overrides uuid-based identifiers, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("flowcare/assessment"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = codec.New(s.logger, codec.WithMetrics(s.metrics))
	s.adapter = legacy.NewAdapter(s.codec, legacy.WithLogger(s.logger), legacy.WithMetrics(s.metrics))
	return s
}

// Submit records a new assessment for userID and returns its normalized view.
func (s *Service) Submit(ctx context.Context, userID string, p models.Payload) (*legacy.View, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.Submit")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, s.fail(span, dErrors.New(dErrors.CodeValidation, "user_id is required"))
	}
	if err := p.Validate(); err != nil {
		return nil, s.fail(span, err)
	}

	computed := s.resolvePattern(&p)
	rec := transform.ToStorage(p)
	rec.ID = s.newID()
	rec.UserID = userID
	rec.CreatedAt = requestcontext.Now(ctx).UTC()

	if err := s.store.Create(ctx, &rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeConflict, "assessment already exists"))
		}
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save assessment"))
	}

	s.metrics.IncrementPattern(*rec.Pattern, computed)
	span.SetAttributes(
		attribute.String("assessment.id", rec.ID),
		attribute.String("assessment.pattern", *rec.Pattern),
	)
	s.logger.InfoContext(ctx, "assessment submitted",
		"request_id", requestcontext.RequestID(ctx),
		"assessment_id", rec.ID,
		"user_id", userID,
		"pattern", *rec.Pattern,
		"pattern_computed", computed,
	)

	return s.adapter.Reconstruct(&rec), nil
}

// Update replaces every mutable field of an existing assessment. Identifier,
// owner and creation time are kept from the stored row. The pattern is
// recomputed unless the payload supplies one.
func (s *Service) Update(ctx context.Context, id string, p models.Payload) (*legacy.View, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.Update", trace.WithAttributes(attribute.String("assessment.id", id)))
	defer span.End()

	if err := p.Validate(); err != nil {
		return nil, s.fail(span, err)
	}

	computed := s.resolvePattern(&p)
	rec := transform.ToStorage(p)
	err := s.inTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		rec.ID = existing.ID
		rec.UserID = existing.UserID
		rec.CreatedAt = existing.CreatedAt
		now := requestcontext.Now(ctx).UTC()
		rec.UpdatedAt = &now
		return s.store.Update(ctx, &rec)
	})
	if err != nil {
		return nil, s.fail(span, translateLookup(err))
	}
	s.invalidate(ctx, id)

	s.metrics.IncrementPattern(*rec.Pattern, computed)
	s.logger.InfoContext(ctx, "assessment updated",
		"request_id", requestcontext.RequestID(ctx),
		"assessment_id", rec.ID,
		"pattern", *rec.Pattern,
		"pattern_computed", computed,
	)

	return s.adapter.Reconstruct(&rec), nil
}

// Get returns the normalized view of a stored assessment. Concurrent reads of
// the same id share one store round trip.
func (s *Service) Get(ctx context.Context, id string) (*legacy.View, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.Get", trace.WithAttributes(attribute.String("assessment.id", id)))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, s.fail(span, dErrors.New(dErrors.CodeValidation, "assessment id is required"))
	}

	if view, ok := s.cached(ctx, id); ok {
		return view, nil
	}

	// The shared load outlives any single caller; each caller stops waiting
	// when its own context is done.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(id, func() (any, error) {
		rec, err := s.store.FindByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		view := s.adapter.Reconstruct(rec)
		s.remember(loadCtx, view)
		return view, nil
	})
	select {
	case <-ctx.Done():
		return nil, s.fail(span, translateLookup(ctx.Err()))
	case res := <-ch:
		if res.Err != nil {
			return nil, s.fail(span, translateLookup(res.Err))
		}
		return res.Val.(*legacy.View), nil
	}
}

// ListByUser returns every assessment owned by userID, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*legacy.View, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.ListByUser")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, s.fail(span, dErrors.New(dErrors.CodeValidation, "user_id is required"))
	}
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assessments"))
	}
	views := make([]*legacy.View, 0, len(recs))
	for _, rec := range recs {
		views = append(views, s.adapter.Reconstruct(rec))
	}
	return views, nil
}

// resolvePattern fills an absent pattern from the classifier. A supplied
// pattern is kept as-is.
func (s *Service) resolvePattern(p *models.Payload) bool {
	pattern, computed := classifier.Resolve(p.Pattern.Text(), classifier.Inputs{
		Age:            p.Age.Text(),
		CycleLength:    p.CycleLength.Text(),
		PeriodDuration: p.PeriodDuration.Text(),
		FlowHeaviness:  p.FlowHeaviness.Text(),
		PainLevel:      p.PainLevel.Text(),
	})
	p.Pattern = models.BandOf(pattern)
	return computed
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t, ok := s.store.(Transactor); ok {
		return t.RunInTx(ctx, fn)
	}
	return fn(ctx)
}

func (s *Service) cached(ctx context.Context, id string) (*legacy.View, bool) {
	if s.cache == nil {
		return nil, false
	}
	view, err := s.cache.Get(ctx, id)
	switch {
	case err == nil && view != nil:
		s.metrics.IncrementCacheLookup("hit")
		return view, true
	case err == nil || errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncrementCacheLookup("miss")
	default:
		s.metrics.IncrementCacheLookup("error")
		s.logger.WarnContext(ctx, "assessment cache read failed",
			"assessment_id", id,
			"error", err,
		)
	}
	return nil, false
}

func (s *Service) remember(ctx context.Context, view *legacy.View) {
	if s.cache == nil || view == nil {
		return
	}
	if err := s.cache.Set(ctx, view); err != nil {
		s.logger.WarnContext(ctx, "assessment cache write failed",
			"assessment_id", view.ID(),
			"error", err,
		)
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "assessment cache invalidation failed",
			"assessment_id", id,
			"error", err,
		)
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func translateLookup(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "assessment not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assessment")
}
