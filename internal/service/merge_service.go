package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core-api/internal/models"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
)

type lessonCatalog interface {
	GetConfig(ctx context.Context, subjectCode, section string) (models.LessonConfig, error)
	CountScheduled(ctx context.Context, subjectCode, section string) (int, error)
}

type mergeScheduleStore interface {
	FindBySlot(ctx context.Context, section string, day, period int) (*models.ScheduleEntry, error)
	UpsertBatch(ctx context.Context, entries []models.ScheduleEntry) error
	Delete(ctx context.Context, section string, day, period int) error
}

type reportInvalidator interface {
	Invalidate(ctx context.Context)
}

// PlanMergeRequest identifies the anchor cell a lesson is being placed into.
type PlanMergeRequest struct {
	Section      string `json:"section" validate:"required"`
	SubjectCode  string `json:"subject_code" validate:"required"`
	Day          int    `json:"day"`
	AnchorPeriod int    `json:"anchor_period"`
}

// PlaceRequest commits a lesson into its anchor cell, expanding multi-period
// lessons forward. ForceSingle places only the anchor cell even when the
// lesson type wants more periods, mirroring the legacy editor's fallback.
type PlaceRequest struct {
	Section      string `json:"section" validate:"required"`
	SubjectCode  string `json:"subject_code" validate:"required"`
	TeacherCode  string `json:"teacher_code"`
	Day          int    `json:"day"`
	AnchorPeriod int    `json:"anchor_period"`
	ForceSingle  bool   `json:"force_single"`
}

// MergeService is the period-merge planner: it expands an anchor cell into
// the run of consecutive periods the lesson type requires, validates the run
// and commits it as one atomic write.
type MergeService struct {
	catalog   lessonCatalog
	store     mergeScheduleStore
	grid      models.Grid
	reports   reportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMergeService instantiates MergeService. The report invalidator may be
// nil when audit caching is disabled.
func NewMergeService(catalog lessonCatalog, store mergeScheduleStore, grid models.Grid, reports reportInvalidator, validate *validator.Validate, logger *zap.Logger) *MergeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergeService{catalog: catalog, store: store, grid: grid, reports: reports, validator: validate, logger: logger}
}

// Plan expands the anchor cell into the slots the lesson must occupy. The
// run always extends forward from the anchor, never backward. Single-period
// lessons are trivially feasible.
func (s *MergeService) Plan(ctx context.Context, req PlanMergeRequest) (*models.MergePlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid merge payload")
	}
	if !s.grid.IsValid(req.Day, req.AnchorPeriod) {
		return nil, appErrors.Clone(appErrors.ErrOutOfRange, fmt.Sprintf("day %d period %d outside the %dx%d grid", req.Day, req.AnchorPeriod, s.grid.NumDays, s.grid.NumPeriods))
	}

	cfg, err := s.catalog.GetConfig(ctx, req.SubjectCode, req.Section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to resolve lesson config")
	}

	plan := &models.MergePlan{
		Section:      req.Section,
		SubjectCode:  req.SubjectCode,
		Day:          req.Day,
		AnchorPeriod: req.AnchorPeriod,
		LessonType:   cfg.LessonType,
	}

	needed := cfg.LessonType.Periods()
	if needed == 1 {
		plan.Feasible = true
		plan.Slots = []int{req.AnchorPeriod}
		return plan, nil
	}

	slots := make([]int, 0, needed)
	for p := req.AnchorPeriod; p < req.AnchorPeriod+needed; p++ {
		slots = append(slots, p)
	}
	plan.Slots = slots

	if req.AnchorPeriod+needed > s.grid.PeriodsPerDay() {
		plan.Reason = models.MergeNotEnoughPeriods
		return plan, nil
	}

	for _, p := range slots[1:] {
		entry, err := s.store.FindBySlot(ctx, req.Section, req.Day, p)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to inspect merge slots")
		}
		if entry != nil && entry.SubjectCode != req.SubjectCode {
			plan.Reason = models.MergeSlotOccupied
			plan.BlockedSlot = p
			plan.OccupiedBy = entry.SubjectCode
			return plan, nil
		}
	}

	plan.Feasible = true
	return plan, nil
}

// Commit writes one entry per planned slot as a single all-or-nothing
// transaction. Entry ids are derived from the cell coordinates, so replaying
// the same commit converges on the same rows. The returned result carries
// the advisory quota conflict when the subject's weekly quota is already
// met; it never blocks the write.
func (s *MergeService) Commit(ctx context.Context, plan *models.MergePlan, teacherCode string) (*models.CommitResult, error) {
	if plan == nil || !plan.Feasible {
		return nil, appErrors.Clone(appErrors.ErrMergeInfeasible, infeasibleMessage(plan))
	}

	cfg, err := s.catalog.GetConfig(ctx, plan.SubjectCode, plan.Section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to resolve lesson config")
	}
	if teacherCode == "" {
		teacherCode = cfg.DefaultTeacher
	}
	if teacherCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no teacher given and no default teacher configured for %s in %s", plan.SubjectCode, plan.Section))
	}

	result := &models.CommitResult{}
	count, err := s.catalog.CountScheduled(ctx, plan.SubjectCode, plan.Section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count scheduled lessons")
	}
	if cfg.WeeklyQuota > 0 && count >= cfg.WeeklyQuota {
		result.Conflicts = append(result.Conflicts, models.Conflict{
			Kind:     models.ConflictQuotaExceeded,
			Severity: models.SeverityAdvisory,
			Description: fmt.Sprintf("subject %s is already scheduled %d times in section %s (weekly quota %d)",
				plan.SubjectCode, count, plan.Section, cfg.WeeklyQuota),
		})
	}

	entries := make([]models.ScheduleEntry, 0, len(plan.Slots))
	for _, p := range plan.Slots {
		entries = append(entries, models.ScheduleEntry{
			ID:          models.EntryID(plan.Section, plan.Day, p),
			Section:     plan.Section,
			Day:         plan.Day,
			Period:      p,
			SubjectCode: plan.SubjectCode,
			TeacherCode: teacherCode,
		})
	}

	if err := s.store.UpsertBatch(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to commit merge plan")
	}
	result.Entries = entries

	s.invalidateReports(ctx)
	s.logger.Info("merge committed",
		zap.String("section", plan.Section),
		zap.String("subject", plan.SubjectCode),
		zap.Int("day", plan.Day),
		zap.Int("slots", len(entries)),
	)
	return result, nil
}

// Place plans and commits in one step, the flow a grid editor cell uses.
// When the plan is infeasible and ForceSingle is set, only the anchor cell
// is written.
func (s *MergeService) Place(ctx context.Context, req PlaceRequest) (*models.CommitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	plan, err := s.Plan(ctx, PlanMergeRequest{
		Section:      req.Section,
		SubjectCode:  req.SubjectCode,
		Day:          req.Day,
		AnchorPeriod: req.AnchorPeriod,
	})
	if err != nil {
		return nil, err
	}
	if !plan.Feasible {
		if !req.ForceSingle {
			return nil, appErrors.Clone(appErrors.ErrMergeInfeasible, infeasibleMessage(plan))
		}
		plan.Feasible = true
		plan.Slots = []int{req.AnchorPeriod}
		plan.Reason = ""
		plan.BlockedSlot = 0
		plan.OccupiedBy = ""
	}

	return s.Commit(ctx, plan, req.TeacherCode)
}

// ClearSlot removes the assignment from one cell. The delete path is never
// conflict-checked: removing a lesson cannot violate a rule.
func (s *MergeService) ClearSlot(ctx context.Context, section string, day, period int) error {
	if section == "" {
		return appErrors.Clone(appErrors.ErrValidation, "section is required")
	}
	if !s.grid.IsValid(day, period) {
		return appErrors.Clone(appErrors.ErrOutOfRange, fmt.Sprintf("day %d period %d outside the %dx%d grid", day, period, s.grid.NumDays, s.grid.NumPeriods))
	}
	if err := s.store.Delete(ctx, section, day, period); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to clear slot")
	}
	s.invalidateReports(ctx)
	return nil
}

func (s *MergeService) invalidateReports(ctx context.Context) {
	if s.reports != nil {
		s.reports.Invalidate(ctx)
	}
}

func infeasibleMessage(plan *models.MergePlan) string {
	if plan == nil {
		return "no merge plan"
	}
	switch plan.Reason {
	case models.MergeNotEnoughPeriods:
		return fmt.Sprintf("not enough periods left in the day for a %s lesson starting at period %d", plan.LessonType, plan.AnchorPeriod+1)
	case models.MergeSlotOccupied:
		return fmt.Sprintf("period %d is already assigned to %s", plan.BlockedSlot+1, plan.OccupiedBy)
	default:
		return "merge plan is not feasible"
	}
}
