package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"flowcare/internal/assessment/models"
	"flowcare/pkg/platform/sentinel"
	txcontext "flowcare/pkg/platform/tx"
)

const uniqueViolation = "23505"

const selectColumns = `
	id, user_id, created_at, updated_at,
	age, pattern, cycle_length, period_duration, flow_heaviness, pain_level,
	physical_symptoms, emotional_symptoms, other_symptoms, recommendations,
	assessment_data`

// PostgresStore persists assessment rows in PostgreSQL. Both the flattened
// columns and the legacy assessment_data blob live in the same table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed assessment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// RunInTx runs fn inside one transaction. Store calls made with the context
// passed to fn join it, and FindByID locks the row it reads.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, fn)
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.StorageRecord) error {
	query := `
		INSERT INTO assessments (
			id, user_id, created_at, updated_at,
			age, pattern, cycle_length, period_duration, flow_heaviness, pain_level,
			physical_symptoms, emotional_symptoms, other_symptoms, recommendations,
			assessment_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.CreatedAt, nullTime(rec),
		rec.Age, rec.Pattern, rec.CycleLength, rec.PeriodDuration, rec.FlowHeaviness, rec.PainLevel,
		rec.PhysicalSymptoms, rec.EmotionalSymptoms, rec.OtherSymptoms, rec.Recommendations,
		rec.AssessmentData,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create assessment %s: %w", rec.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// Update rewrites every mutable column. user_id and created_at are left as
// stored. Writing the row clears any legacy blob, so later reads take the
// flattened path.
func (s *PostgresStore) Update(ctx context.Context, rec *models.StorageRecord) error {
	query := `
		UPDATE assessments SET
			updated_at = $2,
			age = $3, pattern = $4, cycle_length = $5, period_duration = $6,
			flow_heaviness = $7, pain_level = $8,
			physical_symptoms = $9, emotional_symptoms = $10, other_symptoms = $11,
			recommendations = $12, assessment_data = $13
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, nullTime(rec),
		rec.Age, rec.Pattern, rec.CycleLength, rec.PeriodDuration,
		rec.FlowHeaviness, rec.PainLevel,
		rec.PhysicalSymptoms, rec.EmotionalSymptoms, rec.OtherSymptoms,
		rec.Recommendations, rec.AssessmentData,
	)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assessment rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.StorageRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM assessments WHERE id = $1`
	if _, ok := txcontext.From(ctx); ok {
		query += ` FOR UPDATE`
	}
	row := s.execer(ctx).QueryRowContext(ctx, query, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find assessment by id: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*models.StorageRecord, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM assessments WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assessments by user: %w", err)
	}
	defer rows.Close()

	out := make([]*models.StorageRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.StorageRecord, error) {
	var (
		rec       models.StorageRecord
		updatedAt sql.NullTime
		cols      [11]sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.CreatedAt, &updatedAt,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5],
		&cols[6], &cols[7], &cols[8], &cols[9],
		&cols[10],
	)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		rec.UpdatedAt = &t
	}
	targets := []**string{
		&rec.Age, &rec.Pattern, &rec.CycleLength, &rec.PeriodDuration, &rec.FlowHeaviness, &rec.PainLevel,
		&rec.PhysicalSymptoms, &rec.EmotionalSymptoms, &rec.OtherSymptoms, &rec.Recommendations,
		&rec.AssessmentData,
	}
	for i, dst := range targets {
		if cols[i].Valid {
			v := cols[i].String
			*dst = &v
		}
	}
	return &rec, nil
}

func nullTime(rec *models.StorageRecord) sql.NullTime {
	if rec.UpdatedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *rec.UpdatedAt, Valid: true}
}
