package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"flowcare/internal/assessment/legacy"
	"flowcare/internal/assessment/metrics"
	"flowcare/internal/assessment/models"
	"flowcare/internal/assessment/service/mocks"
	"flowcare/internal/assessment/store"
	dErrors "flowcare/pkg/domain-errors"
	"flowcare/pkg/platform/sentinel"
	"flowcare/pkg/requestcontext"
)

// =============================================================================
// Assessment Service Test Suite
// =============================================================================
// Happy paths run against the in-memory store. Failure translation and cache
// behaviour use gomock doubles so each branch can be forced.

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	logs    *bytes.Buffer
	metrics *metrics.Metrics
	store   *store.InMemory
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.logs = &bytes.Buffer{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = store.NewInMemory()
	s.service = s.newService(s.store)
}

func (s *ServiceSuite) newService(st Store, opts ...Option) *Service {
	seq := 0
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(s.logs, nil))),
		WithMetrics(s.metrics),
		WithIDGenerator(func() string {
			seq++
			return "assessment-" + string(rune('0'+seq))
		}),
	}
	return New(st, append(base, opts...)...)
}

func payload() models.Payload {
	return models.Payload{
		Age:               models.BandOf("13-17"),
		CycleLength:       models.BandOf("irregular"),
		PeriodDuration:    models.BandOf("4-5"),
		FlowHeaviness:     models.BandOf("heavy"),
		PainLevel:         models.BandOf("severe"),
		PhysicalSymptoms:  models.Sequence("bloating", "fatigue"),
		EmotionalSymptoms: models.FreeText("anxious"),
		OtherSymptoms:     models.FreeText("back pain"),
	}
}

// =============================================================================
// Submit Tests
// =============================================================================

func (s *ServiceSuite) TestSubmit() {
	s.Run("computes pattern and stamps identity", func() {
		view, err := s.service.Submit(s.ctx, "user-1", payload())
		s.Require().NoError(err)

		a, ok := view.Flattened()
		s.Require().True(ok)
		s.Equal("assessment-1", a.ID)
		s.Equal("user-1", a.UserID)
		s.Equal(s.now, a.CreatedAt)
		s.Equal("developing", *a.Pattern)
		s.Equal([]string{"bloating", "fatigue"}, a.PhysicalSymptoms)
		s.Equal([]string{"anxious"}, a.EmotionalSymptoms)
		s.Equal([]string{"back pain"}, a.OtherSymptoms)
		s.Equal([]models.Recommendation{}, a.Recommendations)

		stored, err := s.store.FindByID(s.ctx, "assessment-1")
		s.Require().NoError(err)
		s.Equal("developing", *stored.Pattern)
		s.Equal(`["back pain"]`, *stored.OtherSymptoms)
		s.Nil(stored.UpdatedAt)

		s.Equal(float64(1), testutil.ToFloat64(s.metrics.PatternsResolved.WithLabelValues("developing", "computed")))
		s.Contains(s.logs.String(), "assessment submitted")
	})

	s.Run("keeps a supplied pattern", func() {
		p := payload()
		p.Pattern = models.BandOf("pain")
		view, err := s.service.Submit(s.ctx, "user-1", p)
		s.Require().NoError(err)
		s.Equal("pain", view.Pattern())
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.PatternsResolved.WithLabelValues("pain", "supplied")))
	})

	s.Run("missing answers are a validation error", func() {
		p := payload()
		p.FlowHeaviness = nil
		_, err := s.service.Submit(s.ctx, "user-1", p)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("blank user is a validation error", func() {
		_, err := s.service.Submit(s.ctx, "  ", payload())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSubmitStoreFailures() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	svc := s.newService(st)

	s.Run("conflict", func() {
		st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
		_, err := svc.Submit(s.ctx, "user-1", payload())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unexpected error is internal", func() {
		st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		_, err := svc.Submit(s.ctx, "user-1", payload())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Update Tests
// =============================================================================

func (s *ServiceSuite) TestUpdate() {
	created, err := s.service.Submit(s.ctx, "user-1", payload())
	s.Require().NoError(err)

	later := s.now.Add(time.Hour)
	ctx := requestcontext.WithTime(context.Background(), later)

	p := payload()
	p.Age = models.BandOf("26-35")
	p.CycleLength = models.BandOf("26-30")
	view, err := s.service.Update(ctx, created.ID(), p)
	s.Require().NoError(err)

	a, ok := view.Flattened()
	s.Require().True(ok)
	s.Equal(created.ID(), a.ID)
	s.Equal("user-1", a.UserID)
	s.Equal(s.now, a.CreatedAt)
	s.Equal("heavy", *a.Pattern, "pattern is recomputed from the new answers")

	stored, err := s.store.FindByID(ctx, created.ID())
	s.Require().NoError(err)
	s.Require().NotNil(stored.UpdatedAt)
	s.Equal(later, *stored.UpdatedAt)
}

func (s *ServiceSuite) TestUpdateLegacyRowTakesFlattenedPath() {
	blob := `{"age":"13-17"}`
	s.Require().NoError(s.store.Create(s.ctx, &models.StorageRecord{
		ID: "old-1", UserID: "user-1", CreatedAt: s.now, AssessmentData: &blob,
	}))

	view, err := s.service.Update(s.ctx, "old-1", payload())
	s.Require().NoError(err)
	s.Equal(legacy.SchemaFlattened, view.Schema())

	stored, err := s.store.FindByID(s.ctx, "old-1")
	s.Require().NoError(err)
	s.Nil(stored.AssessmentData)
}

func (s *ServiceSuite) TestUpdateUnknownID() {
	_, err := s.service.Update(s.ctx, "missing", payload())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateInvalidatesCache() {
	ctrl := gomock.NewController(s.T())
	cache := mocks.NewMockCache(ctrl)
	svc := s.newService(s.store, WithCache(cache))

	created, err := svc.Submit(s.ctx, "user-1", payload())
	s.Require().NoError(err)

	cache.EXPECT().Invalidate(gomock.Any(), created.ID()).Return(nil)
	_, err = svc.Update(s.ctx, created.ID(), payload())
	s.NoError(err)
}

// =============================================================================
// Get Tests
// =============================================================================

func (s *ServiceSuite) TestGet() {
	s.Run("returns the flattened view", func() {
		created, err := s.service.Submit(s.ctx, "user-1", payload())
		s.Require().NoError(err)

		view, err := s.service.Get(s.ctx, created.ID())
		s.Require().NoError(err)
		s.Equal(created.ID(), view.ID())
		s.Equal("developing", view.Pattern())
	})

	s.Run("returns the legacy view for blob rows", func() {
		blob := `{"age":"18-25","painLevel":"debilitating","symptoms":{"physical":["cramps"]}}`
		s.Require().NoError(s.store.Create(s.ctx, &models.StorageRecord{
			ID: "old-2", UserID: "user-2", CreatedAt: s.now, AssessmentData: &blob,
		}))

		view, err := s.service.Get(s.ctx, "old-2")
		s.Require().NoError(err)
		a, ok := view.Legacy()
		s.Require().True(ok)
		s.Equal("pain", *a.AssessmentData.Pattern)
		s.Equal([]string{"cramps"}, a.AssessmentData.Symptoms.Physical)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.Get(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("blank id is a validation error", func() {
		_, err := s.service.Get(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestGetStoreFailureIsInternal() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	svc := s.newService(st)

	st.EXPECT().FindByID(gomock.Any(), "a-1").Return(nil, errors.New("timeout"))
	_, err := svc.Get(s.ctx, "a-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestGetReadThroughCache() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	cache := mocks.NewMockCache(ctrl)
	svc := s.newService(st, WithCache(cache))

	pattern := "regular"
	rec := &models.StorageRecord{ID: "a-1", UserID: "user-1", Pattern: &pattern}

	s.Run("miss loads from the store and fills the cache", func() {
		gomock.InOrder(
			cache.EXPECT().Get(gomock.Any(), "a-1").Return(nil, sentinel.ErrNotFound),
			st.EXPECT().FindByID(gomock.Any(), "a-1").Return(rec, nil),
			cache.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, view *legacy.View) error {
					s.Equal("a-1", view.ID())
					return nil
				}),
		)
		view, err := svc.Get(s.ctx, "a-1")
		s.Require().NoError(err)
		s.Equal("regular", view.Pattern())
	})

	s.Run("hit skips the store", func() {
		cached := legacy.NewFlattenedView(&models.Assessment{ID: "a-1", Pattern: &pattern})
		cache.EXPECT().Get(gomock.Any(), "a-1").Return(cached, nil)
		view, err := svc.Get(s.ctx, "a-1")
		s.Require().NoError(err)
		s.Same(cached, view)
	})

	s.Run("cache errors fall through to the store", func() {
		cache.EXPECT().Get(gomock.Any(), "a-1").Return(nil, errors.New("redis down"))
		st.EXPECT().FindByID(gomock.Any(), "a-1").Return(rec, nil)
		cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		_, err := svc.Get(s.ctx, "a-1")
		s.NoError(err)
		s.Contains(s.logs.String(), "assessment cache read failed")
		s.Contains(s.logs.String(), "assessment cache write failed")
	})

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("hit")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("miss")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("error")))
}

func (s *ServiceSuite) TestGetConcurrentReadsShareLoad() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	svc := s.newService(st)

	release := make(chan struct{})
	pattern := "heavy"
	st.EXPECT().FindByID(gomock.Any(), "a-1").DoAndReturn(
		func(context.Context, string) (*models.StorageRecord, error) {
			<-release
			return &models.StorageRecord{ID: "a-1", Pattern: &pattern}, nil
		}).MinTimes(1).MaxTimes(5)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := svc.Get(s.ctx, "a-1")
			s.NoError(err)
			s.Equal("heavy", view.Pattern())
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
}

func (s *ServiceSuite) TestGetCancelledCallerDoesNotFailOthers() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	svc := s.newService(st)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	pattern := "pain"
	st.EXPECT().FindByID(gomock.Any(), "a-1").DoAndReturn(
		func(ctx context.Context, _ string) (*models.StorageRecord, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			select {
			case <-release:
				return &models.StorageRecord{ID: "a-1", Pattern: &pattern}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}).MinTimes(1).MaxTimes(2)

	first, cancel := context.WithCancel(s.ctx)
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Get(first, "a-1")
		firstErr <- err
	}()
	<-started

	type result struct {
		view *legacy.View
		err  error
	}
	second := make(chan result, 1)
	go func() {
		view, err := svc.Get(s.ctx, "a-1")
		second <- result{view, err}
	}()

	cancel()
	err := <-firstErr
	s.ErrorIs(err, context.Canceled)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	close(release)
	got := <-second
	s.Require().NoError(got.err)
	s.Equal("pain", got.view.Pattern())
}

// =============================================================================
// ListByUser Tests
// =============================================================================

func (s *ServiceSuite) TestListByUser() {
	first, err := s.service.Submit(s.ctx, "user-1", payload())
	s.Require().NoError(err)
	second, err := s.service.Submit(requestcontext.WithTime(context.Background(), s.now.Add(time.Minute)), "user-1", payload())
	s.Require().NoError(err)
	_, err = s.service.Submit(s.ctx, "user-2", payload())
	s.Require().NoError(err)

	views, err := s.service.ListByUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal(second.ID(), views[0].ID())
	s.Equal(first.ID(), views[1].ID())

	views, err = s.service.ListByUser(s.ctx, "nobody")
	s.NoError(err)
	s.Empty(views)

	_, err = s.service.ListByUser(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
