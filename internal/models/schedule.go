package models

import (
	"fmt"
	"time"
)

// ScheduleEntry is one occupied cell of the weekly grid for a section.
// The id is derived from (section, day, period), so at most one entry can
// exist per cell and writes are idempotent upserts. An unassigned cell is an
// absent row, never a stored placeholder.
type ScheduleEntry struct {
	ID          string    `db:"id" json:"id"`
	Section     string    `db:"section" json:"section"`
	Day         int       `db:"day_of_week" json:"day"`
	Period      int       `db:"period" json:"period"`
	SubjectCode string    `db:"subject_code" json:"subject_code"`
	TeacherCode string    `db:"teacher_code" json:"teacher_code"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EntryID derives the deterministic id for a grid cell.
func EntryID(section string, day, period int) string {
	return fmt.Sprintf("%s-%d-%d", section, day, period)
}

// Assigned reports whether the entry carries a real assignment. Empty codes
// replace the legacy "NULL" sentinel strings.
func (e ScheduleEntry) Assigned() bool {
	return e.SubjectCode != "" && e.TeacherCode != ""
}

// ScheduleFilter describes query params for listing schedule entries.
type ScheduleFilter struct {
	Section     string
	Day         *int
	TeacherCode string
	SubjectCode string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// SectionTimetable is the read model rendered by grid views: every occupied
// cell for one section, ordered by day then period.
type SectionTimetable struct {
	Section string          `json:"section"`
	Grid    Grid            `json:"grid"`
	Entries []ScheduleEntry `json:"entries"`
}

// Pagination describes list paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
