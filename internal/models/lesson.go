package models

// LessonType is the configured duration of a subject's single session,
// expressed as a count of consecutive periods.
type LessonType string

const (
	LessonSingle LessonType = "Single"
	LessonDouble LessonType = "Double"
	LessonTriple LessonType = "Triple"
	LessonQuad   LessonType = "Quad"
	LessonQuint  LessonType = "Quint"
	LessonHex    LessonType = "Hex"
)

var lessonPeriods = map[LessonType]int{
	LessonSingle: 1,
	LessonDouble: 2,
	LessonTriple: 3,
	LessonQuad:   4,
	LessonQuint:  5,
	LessonHex:    6,
}

// Periods maps the lesson type to the number of consecutive periods one
// session occupies. Unknown values fall back to a single period.
func (t LessonType) Periods() int {
	if n, ok := lessonPeriods[t]; ok {
		return n
	}
	return 1
}

// LessonConfig is the curriculum row for a (subject, section) pair. It is
// owned by curriculum setup and read-only for this service. WeeklyQuota of
// zero means no limit is enforced.
type LessonConfig struct {
	SubjectCode    string     `db:"subject_code" json:"subject_code"`
	Section        string     `db:"section" json:"section"`
	WeeklyQuota    int        `db:"weekly_quota" json:"weekly_quota"`
	LessonType     LessonType `db:"lesson_type" json:"lesson_type"`
	DefaultTeacher string     `db:"default_teacher" json:"default_teacher"`
}

// DefaultLessonConfig is the fallback used when no curriculum row exists for
// a pair: a single-period lesson with no quota.
func DefaultLessonConfig(subjectCode, section string) LessonConfig {
	return LessonConfig{
		SubjectCode: subjectCode,
		Section:     section,
		WeeklyQuota: 0,
		LessonType:  LessonSingle,
	}
}
