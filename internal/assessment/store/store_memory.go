package store

import (
	"context"
	"sort"
	"sync"

	"flowcare/internal/assessment/models"
	"flowcare/pkg/platform/sentinel"
)

// InMemory keeps assessment rows in a map. Rows are copied on the way in and
// out so callers never share pointers with the store.
type InMemory struct {
	mu   sync.RWMutex
	rows map[string]models.StorageRecord

	// serializes RunInTx callers; individual calls still take mu
	txMu sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[string]models.StorageRecord)}
}

// RunInTx serializes read-modify-write sequences. Nothing is rolled back.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *InMemory) Create(_ context.Context, rec *models.StorageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	s.rows[rec.ID] = clone(rec)
	return nil
}

func (s *InMemory) Update(_ context.Context, rec *models.StorageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[rec.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.rows[rec.ID] = clone(rec)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.StorageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(&rec)
	return &out, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID string) ([]*models.StorageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.StorageRecord, 0)
	for _, rec := range s.rows {
		if rec.UserID == userID {
			c := clone(&rec)
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func clone(rec *models.StorageRecord) models.StorageRecord {
	out := *rec
	out.Age = copyString(rec.Age)
	out.Pattern = copyString(rec.Pattern)
	out.CycleLength = copyString(rec.CycleLength)
	out.PeriodDuration = copyString(rec.PeriodDuration)
	out.FlowHeaviness = copyString(rec.FlowHeaviness)
	out.PainLevel = copyString(rec.PainLevel)
	out.PhysicalSymptoms = copyString(rec.PhysicalSymptoms)
	out.EmotionalSymptoms = copyString(rec.EmotionalSymptoms)
	out.OtherSymptoms = copyString(rec.OtherSymptoms)
	out.Recommendations = copyString(rec.Recommendations)
	out.AssessmentData = copyString(rec.AssessmentData)
	if rec.UpdatedAt != nil {
		t := *rec.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
