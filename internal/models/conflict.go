package models

import "time"

// ConflictKind identifies the scheduling rule a conflict violates.
type ConflictKind string

const (
	ConflictTeacherDoubleBooked ConflictKind = "TEACHER_DOUBLE_BOOKED"
	ConflictTeacherOverloaded   ConflictKind = "TEACHER_OVERLOADED"
	ConflictBreakAdjacency      ConflictKind = "BREAK_ADJACENCY"
	ConflictQuotaExceeded       ConflictKind = "QUOTA_EXCEEDED"
	ConflictImproperMerge       ConflictKind = "IMPROPER_MERGE"
)

// ConflictSeverity grades how strongly a conflict should be surfaced. The
// whole engine is warn-don't-block, so no severity ever rejects a placement.
type ConflictSeverity string

const (
	SeverityWarning  ConflictSeverity = "warning"
	SeverityAdvisory ConflictSeverity = "advisory"
)

// SlotRef points at one grid cell involved in a conflict.
type SlotRef struct {
	Section string `json:"section"`
	Day     int    `json:"day"`
	Period  int    `json:"period"`
}

// Conflict is one detected rule violation.
type Conflict struct {
	Kind        ConflictKind     `json:"kind"`
	Severity    ConflictSeverity `json:"severity"`
	Description string           `json:"description"`
	Slots       []SlotRef        `json:"slots,omitempty"`
}

// PlacementCandidate is a proposed single-cell assignment.
type PlacementCandidate struct {
	Section     string `json:"section"`
	Day         int    `json:"day"`
	Period      int    `json:"period"`
	SubjectCode string `json:"subject_code"`
	TeacherCode string `json:"teacher_code"`
}

// PlacementCheck is the outcome of validating a candidate. OK stays true
// even when conflicts were found; the operator decides whether to override.
type PlacementCheck struct {
	OK        bool       `json:"ok"`
	Conflicts []Conflict `json:"conflicts"`
}

// MergeBlockReason explains why a merge plan is infeasible.
type MergeBlockReason string

const (
	MergeNotEnoughPeriods MergeBlockReason = "NOT_ENOUGH_PERIODS_IN_DAY"
	MergeSlotOccupied     MergeBlockReason = "SLOT_OCCUPIED"
)

// MergePlan is the expansion of an anchor cell into the full run of periods
// a multi-period lesson must occupy. Slots always extend forward from the
// anchor, never backward.
type MergePlan struct {
	Section      string           `json:"section"`
	SubjectCode  string           `json:"subject_code"`
	Day          int              `json:"day"`
	AnchorPeriod int              `json:"anchor_period"`
	LessonType   LessonType       `json:"lesson_type"`
	Slots        []int            `json:"slots"`
	Feasible     bool             `json:"feasible"`
	Reason       MergeBlockReason `json:"reason,omitempty"`
	BlockedSlot  int              `json:"blocked_slot,omitempty"`
	OccupiedBy   string           `json:"occupied_by,omitempty"`
}

// CommitResult reports a committed merge: the entries written plus any
// advisory conflicts (quota) detected alongside the write.
type CommitResult struct {
	Entries   []ScheduleEntry `json:"entries"`
	Conflicts []Conflict      `json:"conflicts,omitempty"`
}

// ConflictReport is the auditor's full-timetable sweep result. An empty
// Conflicts slice signals a clean timetable.
type ConflictReport struct {
	ID          string     `json:"id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Conflicts   []Conflict `json:"conflicts"`
}

// Clean reports whether the sweep found nothing.
func (r ConflictReport) Clean() bool {
	return len(r.Conflicts) == 0
}
