package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core-api/internal/models"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
)

type scheduleReader interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error)
	ListBySection(ctx context.Context, section string) ([]models.ScheduleEntry, error)
}

// ScheduleService serves the read side of the schedule: filtered listings and
// the per-section week grid.
type ScheduleService struct {
	repo   scheduleReader
	grid   models.Grid
	logger *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleReader, grid models.Grid, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, grid: grid, logger: logger}
}

// List returns schedule entries matching the filter plus paging metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, *models.Pagination, error) {
	if filter.Day != nil && (*filter.Day < 0 || *filter.Day >= s.grid.NumDays) {
		return nil, nil, appErrors.Clone(appErrors.ErrOutOfRange, "day filter outside the grid")
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list schedule entries")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// SectionTimetable returns every occupied cell of one section's week. Cells
// without an entry are simply absent; the grid dimensions tell the caller how
// to lay the week out.
func (s *ScheduleService) SectionTimetable(ctx context.Context, section string) (*models.SectionTimetable, error) {
	if section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section is required")
	}
	entries, err := s.repo.ListBySection(ctx, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section timetable")
	}
	return &models.SectionTimetable{
		Section: section,
		Grid:    s.grid,
		Entries: entries,
	}, nil
}
