package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLessonTypePeriods(t *testing.T) {
	assert.Equal(t, 1, LessonSingle.Periods())
	assert.Equal(t, 2, LessonDouble.Periods())
	assert.Equal(t, 3, LessonTriple.Periods())
	assert.Equal(t, 4, LessonQuad.Periods())
	assert.Equal(t, 5, LessonQuint.Periods())
	assert.Equal(t, 6, LessonHex.Periods())
}

func TestLessonTypePeriodsUnknownFallsBackToSingle(t *testing.T) {
	assert.Equal(t, 1, LessonType("Marathon").Periods())
	assert.Equal(t, 1, LessonType("").Periods())
}

func TestDefaultLessonConfig(t *testing.T) {
	cfg := DefaultLessonConfig("MATH", "10A")

	assert.Equal(t, "MATH", cfg.SubjectCode)
	assert.Equal(t, "10A", cfg.Section)
	assert.Equal(t, 0, cfg.WeeklyQuota)
	assert.Equal(t, LessonSingle, cfg.LessonType)
}

func TestEntryIDDeterministic(t *testing.T) {
	assert.Equal(t, EntryID("10A", 1, 3), EntryID("10A", 1, 3))
	assert.NotEqual(t, EntryID("10A", 1, 3), EntryID("10A", 1, 4))
	assert.NotEqual(t, EntryID("10A", 1, 3), EntryID("10B", 1, 3))
}

func TestScheduleEntryAssigned(t *testing.T) {
	assert.True(t, ScheduleEntry{SubjectCode: "MATH", TeacherCode: "JS"}.Assigned())
	assert.False(t, ScheduleEntry{SubjectCode: "MATH"}.Assigned())
	assert.False(t, ScheduleEntry{TeacherCode: "JS"}.Assigned())
	assert.False(t, ScheduleEntry{}.Assigned())
}
