package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-core-api/internal/models"
)

const scheduleColumns = "id, section, day_of_week, period, subject_code, teacher_code, created_at, updated_at"

// ScheduleRepository provides persistence for schedule entries. Every write
// goes through the deterministic per-cell id, so repeated commits of the
// same placement converge on one row.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedule entries with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error) {
	base := "FROM schedule_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Section != "" {
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)+1))
		args = append(args, filter.Section)
	}
	if filter.Day != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.Day)
	}
	if filter.TeacherCode != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_code = $%d", len(args)+1))
		args = append(args, filter.TeacherCode)
	}
	if filter.SubjectCode != "" {
		conditions = append(conditions, fmt.Sprintf("subject_code = $%d", len(args)+1))
		args = append(args, filter.SubjectCode)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"section":     true,
		"day_of_week": true,
		"period":      true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, period ASC LIMIT %d OFFSET %d", scheduleColumns, base, sortBy, order, size, offset)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}

	return entries, total, nil
}

// ListAll returns every stored entry, ordered for deterministic audits.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries ORDER BY section ASC, day_of_week ASC, period ASC", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list all schedule entries: %w", err)
	}
	return entries, nil
}

// ListBySection returns the occupied cells of one section's week grid.
func (r *ScheduleRepository) ListBySection(ctx context.Context, section string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE section = $1 ORDER BY day_of_week ASC, period ASC", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, section); err != nil {
		return nil, fmt.Errorf("list schedule entries by section: %w", err)
	}
	return entries, nil
}

// FindBySlot loads the entry occupying a cell, or nil when the cell is free.
func (r *ScheduleRepository) FindBySlot(ctx context.Context, section string, day, period int) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE id = $1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, models.EntryID(section, day, period)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find schedule entry by slot: %w", err)
	}
	return &entry, nil
}

// ListTeacherSlot returns every entry a teacher holds at one (day, period)
// coordinate across all sections.
func (r *ScheduleRepository) ListTeacherSlot(ctx context.Context, day, period int, teacherCode string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE day_of_week = $1 AND period = $2 AND teacher_code = $3 ORDER BY section ASC", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, day, period, teacherCode); err != nil {
		return nil, fmt.Errorf("list teacher slot entries: %w", err)
	}
	return entries, nil
}

// CountTeacherSlot counts a teacher's entries at one coordinate.
func (r *ScheduleRepository) CountTeacherSlot(ctx context.Context, day, period int, teacherCode string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_entries WHERE day_of_week = $1 AND period = $2 AND teacher_code = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, day, period, teacherCode); err != nil {
		return 0, fmt.Errorf("count teacher slot entries: %w", err)
	}
	return count, nil
}

// CountByTeacherDay counts how many periods a teacher already holds on one
// day, feeding the daily-load rule.
func (r *ScheduleRepository) CountByTeacherDay(ctx context.Context, day int, teacherCode string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_entries WHERE day_of_week = $1 AND teacher_code = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, day, teacherCode); err != nil {
		return 0, fmt.Errorf("count teacher day entries: %w", err)
	}
	return count, nil
}

// UpsertBatch writes every entry of a merge plan inside one transaction.
// Any failure rolls the whole batch back, so a multi-period lesson is never
// half-written.
func (r *ScheduleRepository) UpsertBatch(ctx context.Context, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert schedule entries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.upsertEntries(ctx, tx, entries); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert schedule entries: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) upsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error {
	now := time.Now().UTC()

	const query = `
INSERT INTO schedule_entries (id, section, day_of_week, period, subject_code, teacher_code, created_at, updated_at)
VALUES (:id, :section, :day_of_week, :period, :subject_code, :teacher_code, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE
SET subject_code = EXCLUDED.subject_code,
    teacher_code = EXCLUDED.teacher_code,
    updated_at = EXCLUDED.updated_at`

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = models.EntryID(entry.Section, entry.Day, entry.Period)
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
			return fmt.Errorf("upsert schedule entry %s: %w", entry.ID, err)
		}
	}
	return nil
}

// Delete clears one cell. Deleting a free cell is not an error.
func (r *ScheduleRepository) Delete(ctx context.Context, section string, day, period int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, models.EntryID(section, day, period)); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}
