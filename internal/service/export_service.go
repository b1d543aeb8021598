package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core-api/internal/models"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
	"github.com/noah-isme/timetable-core-api/pkg/export"
)

// ExportService renders a section's week grid as a downloadable document.
// Bytes are streamed straight to the caller; nothing is written to disk.
type ExportService struct {
	repo   scheduleReader
	grid   models.Grid
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService instantiates ExportService.
func NewExportService(repo scheduleReader, grid models.Grid, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		grid:   grid,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// RenderCSV produces the section grid as CSV bytes.
func (s *ExportService) RenderCSV(ctx context.Context, section string) ([]byte, string, error) {
	dataset, err := s.buildDataset(ctx, section)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return payload, fmt.Sprintf("timetable-%s.csv", section), nil
}

// RenderPDF produces the section grid as a landscape PDF.
func (s *ExportService) RenderPDF(ctx context.Context, section string) ([]byte, string, error) {
	dataset, err := s.buildDataset(ctx, section)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(*dataset, fmt.Sprintf("Timetable %s", section))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return payload, fmt.Sprintf("timetable-%s.pdf", section), nil
}

// buildDataset lays the week out with one row per period and one column per
// day, the orientation the grid editor uses. Empty cells stay empty.
func (s *ExportService) buildDataset(ctx context.Context, section string) (*export.Dataset, error) {
	if section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section is required")
	}
	entries, err := s.repo.ListBySection(ctx, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section timetable")
	}

	headers := make([]string, 0, s.grid.NumDays+1)
	headers = append(headers, "Period")
	for day := 0; day < s.grid.NumDays; day++ {
		headers = append(headers, s.grid.DayName(day))
	}

	cells := make(map[int]map[int]models.ScheduleEntry)
	for _, e := range entries {
		if cells[e.Period] == nil {
			cells[e.Period] = make(map[int]models.ScheduleEntry)
		}
		cells[e.Period][e.Day] = e
	}

	rows := make([]map[string]string, 0, s.grid.NumPeriods)
	for period := 0; period < s.grid.NumPeriods; period++ {
		row := map[string]string{"Period": strconv.Itoa(period + 1)}
		for day := 0; day < s.grid.NumDays; day++ {
			if entry, ok := cells[period][day]; ok && entry.Assigned() {
				row[s.grid.DayName(day)] = fmt.Sprintf("%s (%s)", entry.SubjectCode, entry.TeacherCode)
			}
		}
		rows = append(rows, row)
	}

	return &export.Dataset{Headers: headers, Rows: rows}, nil
}
