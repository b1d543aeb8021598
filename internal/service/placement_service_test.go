package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core-api/internal/models"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
)

type stubPlacementReader struct {
	slotEntries []models.ScheduleEntry
	slotCount   int
	dayCount    int
	calls       int
}

func (s *stubPlacementReader) ListTeacherSlot(ctx context.Context, day, period int, teacherCode string) ([]models.ScheduleEntry, error) {
	s.calls++
	return s.slotEntries, nil
}

func (s *stubPlacementReader) CountTeacherSlot(ctx context.Context, day, period int, teacherCode string) (int, error) {
	s.calls++
	return s.slotCount, nil
}

func (s *stubPlacementReader) CountByTeacherDay(ctx context.Context, day int, teacherCode string) (int, error) {
	s.calls++
	return s.dayCount, nil
}

func newPlacementService(repo *stubPlacementReader) *PlacementService {
	return NewPlacementService(repo, models.DefaultGrid(), PlacementRules{TeacherDailyLimit: 5}, nil, zap.NewNop())
}

func TestPlacementValidateClearingCellHasNoConflicts(t *testing.T) {
	repo := &stubPlacementReader{}
	svc := newPlacementService(repo)

	check, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section: "10A",
		Day:     1,
		Period:  2,
	})
	require.NoError(t, err)
	assert.True(t, check.OK)
	assert.Empty(t, check.Conflicts)
	assert.Zero(t, repo.calls, "clearing a cell should not touch the store")
}

func TestPlacementValidateOutOfRange(t *testing.T) {
	svc := newPlacementService(&stubPlacementReader{})

	_, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section:     "10A",
		Day:         5,
		Period:      0,
		TeacherCode: "JS",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrOutOfRange.Code, appErr.Code)
}

func TestPlacementValidateDoubleBookedPerDistinctSection(t *testing.T) {
	repo := &stubPlacementReader{
		slotEntries: []models.ScheduleEntry{
			{Section: "10B", Day: 0, Period: 0, SubjectCode: "PHY", TeacherCode: "JS"},
			{Section: "10B", Day: 0, Period: 0, SubjectCode: "PHY", TeacherCode: "JS"},
			{Section: "10C", Day: 0, Period: 0, SubjectCode: "CHEM", TeacherCode: "JS"},
			{Section: "10A", Day: 0, Period: 0, SubjectCode: "MATH", TeacherCode: "JS"},
		},
	}
	svc := newPlacementService(repo)

	check, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section:     "10A",
		Day:         0,
		Period:      0,
		SubjectCode: "MATH",
		TeacherCode: "JS",
	})
	require.NoError(t, err)
	assert.True(t, check.OK)

	var doubleBooked []models.Conflict
	for _, c := range check.Conflicts {
		if c.Kind == models.ConflictTeacherDoubleBooked {
			doubleBooked = append(doubleBooked, c)
		}
	}
	require.Len(t, doubleBooked, 2, "one conflict per distinct other section")
	assert.Equal(t, "10B", doubleBooked[0].Slots[0].Section)
	assert.Equal(t, "10C", doubleBooked[1].Slots[0].Section)
}

func TestPlacementValidateDailyLoadAtLimit(t *testing.T) {
	repo := &stubPlacementReader{dayCount: 5}
	svc := newPlacementService(repo)

	check, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section:     "10A",
		Day:         2,
		Period:      1,
		SubjectCode: "MATH",
		TeacherCode: "JS",
	})
	require.NoError(t, err)
	assert.True(t, check.OK, "overload is advisory, never a rejection")
	require.Len(t, check.Conflicts, 1)
	assert.Equal(t, models.ConflictTeacherOverloaded, check.Conflicts[0].Kind)
	assert.Equal(t, models.SeverityAdvisory, check.Conflicts[0].Severity)
}

func TestPlacementValidateUnderDailyLimitIsClean(t *testing.T) {
	repo := &stubPlacementReader{dayCount: 4}
	svc := newPlacementService(repo)

	check, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section:     "10A",
		Day:         2,
		Period:      1,
		SubjectCode: "MATH",
		TeacherCode: "JS",
	})
	require.NoError(t, err)
	assert.Empty(t, check.Conflicts)
}

func TestPlacementValidateBreakAdjacency(t *testing.T) {
	repo := &stubPlacementReader{slotCount: 1}
	svc := newPlacementService(repo)

	// Period 3 is the first slot after the break; the teacher already holds
	// period 2 on the same day.
	check, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section:     "10A",
		Day:         1,
		Period:      3,
		SubjectCode: "MATH",
		TeacherCode: "JS",
	})
	require.NoError(t, err)
	require.Len(t, check.Conflicts, 1)
	assert.Equal(t, models.ConflictBreakAdjacency, check.Conflicts[0].Kind)
	assert.Equal(t, 2, check.Conflicts[0].Slots[0].Period)
}

func TestPlacementValidateBreakAdjacencyIgnoredAwayFromBreak(t *testing.T) {
	repo := &stubPlacementReader{slotCount: 1}
	svc := newPlacementService(repo)

	check, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section:     "10A",
		Day:         1,
		Period:      5,
		SubjectCode: "MATH",
		TeacherCode: "JS",
	})
	require.NoError(t, err)
	assert.Empty(t, check.Conflicts)
}

func TestPlacementValidateAllChecksAccumulate(t *testing.T) {
	repo := &stubPlacementReader{
		slotEntries: []models.ScheduleEntry{
			{Section: "10B", Day: 1, Period: 2, SubjectCode: "PHY", TeacherCode: "JS"},
		},
		slotCount: 1,
		dayCount:  5,
	}
	svc := newPlacementService(repo)

	check, err := svc.Validate(context.Background(), ValidatePlacementRequest{
		Section:     "10A",
		Day:         1,
		Period:      2,
		SubjectCode: "MATH",
		TeacherCode: "JS",
	})
	require.NoError(t, err)
	assert.True(t, check.OK)
	require.Len(t, check.Conflicts, 3, "each check reports independently")

	kinds := map[models.ConflictKind]bool{}
	for _, c := range check.Conflicts {
		kinds[c.Kind] = true
	}
	assert.True(t, kinds[models.ConflictTeacherDoubleBooked])
	assert.True(t, kinds[models.ConflictTeacherOverloaded])
	assert.True(t, kinds[models.ConflictBreakAdjacency])
}

func TestPlacementValidateMissingSection(t *testing.T) {
	svc := newPlacementService(&stubPlacementReader{})

	_, err := svc.Validate(context.Background(), ValidatePlacementRequest{TeacherCode: "JS"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
