package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core-api/internal/models"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
)

type placementScheduleReader interface {
	ListTeacherSlot(ctx context.Context, day, period int, teacherCode string) ([]models.ScheduleEntry, error)
	CountTeacherSlot(ctx context.Context, day, period int, teacherCode string) (int, error)
	CountByTeacherDay(ctx context.Context, day int, teacherCode string) (int, error)
}

// PlacementRules holds the advisory policy knobs applied during validation.
type PlacementRules struct {
	TeacherDailyLimit int
}

// ValidatePlacementRequest describes a candidate single-cell assignment.
// An empty teacher code means the operator is clearing the cell.
type ValidatePlacementRequest struct {
	Section     string `json:"section" validate:"required"`
	Day         int    `json:"day"`
	Period      int    `json:"period"`
	SubjectCode string `json:"subject_code"`
	TeacherCode string `json:"teacher_code"`
}

// PlacementService is the conflict engine: it inspects a candidate placement
// against the stored schedule and reports every rule it would bend. It never
// rejects a candidate; all findings are returned for the operator to accept
// or override.
type PlacementService struct {
	repo      placementScheduleReader
	grid      models.Grid
	rules     PlacementRules
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlacementService instantiates PlacementService.
func NewPlacementService(repo placementScheduleReader, grid models.Grid, rules PlacementRules, validate *validator.Validate, logger *zap.Logger) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules.TeacherDailyLimit <= 0 {
		rules.TeacherDailyLimit = 5
	}
	return &PlacementService{repo: repo, grid: grid, rules: rules, validator: validate, logger: logger}
}

// Validate runs every conflict check against the candidate. The checks are
// independent and all evaluated; a finding in one never short-circuits the
// others. Clearing a cell (empty teacher) is never a conflict.
func (s *PlacementService) Validate(ctx context.Context, req ValidatePlacementRequest) (*models.PlacementCheck, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	if !s.grid.IsValid(req.Day, req.Period) {
		return nil, appErrors.Clone(appErrors.ErrOutOfRange, fmt.Sprintf("day %d period %d outside the %dx%d grid", req.Day, req.Period, s.grid.NumDays, s.grid.NumPeriods))
	}

	check := &models.PlacementCheck{OK: true, Conflicts: []models.Conflict{}}
	if req.TeacherCode == "" {
		return check, nil
	}

	doubleBooked, err := s.checkDoubleBooked(ctx, req)
	if err != nil {
		return nil, err
	}
	check.Conflicts = append(check.Conflicts, doubleBooked...)

	overloaded, err := s.checkDailyLoad(ctx, req)
	if err != nil {
		return nil, err
	}
	check.Conflicts = append(check.Conflicts, overloaded...)

	breakAdjacent, err := s.checkBreakAdjacency(ctx, req)
	if err != nil {
		return nil, err
	}
	check.Conflicts = append(check.Conflicts, breakAdjacent...)

	if len(check.Conflicts) > 0 {
		s.logger.Info("placement conflicts detected",
			zap.String("section", req.Section),
			zap.String("teacher", req.TeacherCode),
			zap.Int("day", req.Day),
			zap.Int("period", req.Period),
			zap.Int("count", len(check.Conflicts)),
		)
	}
	return check, nil
}

// checkDoubleBooked emits one conflict per distinct other section already
// holding the teacher at the candidate's coordinate.
func (s *PlacementService) checkDoubleBooked(ctx context.Context, req ValidatePlacementRequest) ([]models.Conflict, error) {
	existing, err := s.repo.ListTeacherSlot(ctx, req.Day, req.Period, req.TeacherCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check teacher bookings")
	}

	seen := make(map[string]bool)
	var conflicts []models.Conflict
	for _, entry := range existing {
		if entry.Section == req.Section || seen[entry.Section] {
			continue
		}
		seen[entry.Section] = true
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictTeacherDoubleBooked,
			Severity: models.SeverityWarning,
			Description: fmt.Sprintf("teacher %s is already assigned to section %s during %s period %d",
				req.TeacherCode, entry.Section, s.grid.DayName(req.Day), req.Period+1),
			Slots: []models.SlotRef{{Section: entry.Section, Day: entry.Day, Period: entry.Period}},
		})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Slots[0].Section < conflicts[j].Slots[0].Section
	})
	return conflicts, nil
}

// checkDailyLoad counts the teacher's existing load for the day, before the
// candidate is added. Reaching the limit yields a single advisory conflict.
func (s *PlacementService) checkDailyLoad(ctx context.Context, req ValidatePlacementRequest) ([]models.Conflict, error) {
	count, err := s.repo.CountByTeacherDay(ctx, req.Day, req.TeacherCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check teacher daily load")
	}
	if count < s.rules.TeacherDailyLimit {
		return nil, nil
	}
	return []models.Conflict{{
		Kind:     models.ConflictTeacherOverloaded,
		Severity: models.SeverityAdvisory,
		Description: fmt.Sprintf("teacher %s already has %d periods on %s (limit %d)",
			req.TeacherCode, count, s.grid.DayName(req.Day), s.rules.TeacherDailyLimit),
	}}, nil
}

// checkBreakAdjacency fires when the candidate sits on one side of the
// recess break and the teacher already holds the slot on the other side of
// it that day, leaving no rest between the two sessions.
func (s *PlacementService) checkBreakAdjacency(ctx context.Context, req ValidatePlacementRequest) ([]models.Conflict, error) {
	adjacent, ok := s.grid.AcrossBreak(req.Period)
	if !ok {
		return nil, nil
	}
	count, err := s.repo.CountTeacherSlot(ctx, req.Day, adjacent, req.TeacherCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check break adjacency")
	}
	if count == 0 {
		return nil, nil
	}
	return []models.Conflict{{
		Kind:     models.ConflictBreakAdjacency,
		Severity: models.SeverityAdvisory,
		Description: fmt.Sprintf("teacher %s would teach back-to-back across the recess break on %s",
			req.TeacherCode, s.grid.DayName(req.Day)),
		Slots: []models.SlotRef{{Section: req.Section, Day: req.Day, Period: adjacent}},
	}}, nil
}
