package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-core-api/internal/models"
)

// LessonRepository resolves curriculum configuration for (subject, section)
// pairs and counts how often a subject is already scheduled. Read-only: the
// lesson catalog is owned by curriculum setup.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// GetConfig resolves the lesson configuration for a pair. A missing row is a
// valid state and yields the single-period, no-quota default.
func (r *LessonRepository) GetConfig(ctx context.Context, subjectCode, section string) (models.LessonConfig, error) {
	const query = `SELECT subject_code, section, weekly_quota, lesson_type, default_teacher FROM lesson_configs WHERE subject_code = $1 AND section = $2`
	var cfg models.LessonConfig
	if err := r.db.GetContext(ctx, &cfg, query, subjectCode, section); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultLessonConfig(subjectCode, section), nil
		}
		return models.LessonConfig{}, fmt.Errorf("get lesson config: %w", err)
	}
	return cfg, nil
}

// ListConfigs returns every curriculum row, used by the audit sweep.
func (r *LessonRepository) ListConfigs(ctx context.Context) ([]models.LessonConfig, error) {
	const query = `SELECT subject_code, section, weekly_quota, lesson_type, default_teacher FROM lesson_configs ORDER BY section ASC, subject_code ASC`
	var configs []models.LessonConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list lesson configs: %w", err)
	}
	return configs, nil
}

// CountScheduled counts how many cells a subject already occupies in a
// section's week, the number compared against the weekly quota.
func (r *LessonRepository) CountScheduled(ctx context.Context, subjectCode, section string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_entries WHERE subject_code = $1 AND section = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectCode, section); err != nil {
		return 0, fmt.Errorf("count scheduled lessons: %w", err)
	}
	return count, nil
}
