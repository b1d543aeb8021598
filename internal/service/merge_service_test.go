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

type stubLessonCatalog struct {
	configs map[string]models.LessonConfig
	counts  map[string]int
}

func catalogKey(subjectCode, section string) string {
	return section + "/" + subjectCode
}

func (s *stubLessonCatalog) GetConfig(ctx context.Context, subjectCode, section string) (models.LessonConfig, error) {
	if cfg, ok := s.configs[catalogKey(subjectCode, section)]; ok {
		return cfg, nil
	}
	return models.DefaultLessonConfig(subjectCode, section), nil
}

func (s *stubLessonCatalog) CountScheduled(ctx context.Context, subjectCode, section string) (int, error) {
	return s.counts[catalogKey(subjectCode, section)], nil
}

type memoryScheduleStore struct {
	entries map[string]models.ScheduleEntry
}

func newMemoryScheduleStore() *memoryScheduleStore {
	return &memoryScheduleStore{entries: make(map[string]models.ScheduleEntry)}
}

func (m *memoryScheduleStore) FindBySlot(ctx context.Context, section string, day, period int) (*models.ScheduleEntry, error) {
	if entry, ok := m.entries[models.EntryID(section, day, period)]; ok {
		return &entry, nil
	}
	return nil, nil
}

func (m *memoryScheduleStore) UpsertBatch(ctx context.Context, entries []models.ScheduleEntry) error {
	for _, e := range entries {
		if e.ID == "" {
			e.ID = models.EntryID(e.Section, e.Day, e.Period)
		}
		m.entries[e.ID] = e
	}
	return nil
}

func (m *memoryScheduleStore) Delete(ctx context.Context, section string, day, period int) error {
	delete(m.entries, models.EntryID(section, day, period))
	return nil
}

func (m *memoryScheduleStore) all(ctx context.Context) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.calls++
}

func newMergeService(catalog *stubLessonCatalog, store *memoryScheduleStore, reports reportInvalidator) *MergeService {
	return NewMergeService(catalog, store, models.DefaultGrid(), reports, nil, zap.NewNop())
}

func TestMergePlanSingleIsTrivial(t *testing.T) {
	catalog := &stubLessonCatalog{}
	svc := newMergeService(catalog, newMemoryScheduleStore(), nil)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "ENG",
		Day:          0,
		AnchorPeriod: 4,
	})
	require.NoError(t, err)
	assert.True(t, plan.Feasible)
	assert.Equal(t, []int{4}, plan.Slots)
}

func TestMergePlanDoubleExpandsForward(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", LessonType: models.LessonDouble, DefaultTeacher: "JS"},
	}}
	svc := newMergeService(catalog, newMemoryScheduleStore(), nil)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          1,
		AnchorPeriod: 2,
	})
	require.NoError(t, err)
	assert.True(t, plan.Feasible)
	assert.Equal(t, []int{2, 3}, plan.Slots)
}

func TestMergePlanDoubleAtLastPeriodInfeasible(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", LessonType: models.LessonDouble},
	}}
	svc := newMergeService(catalog, newMemoryScheduleStore(), nil)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          1,
		AnchorPeriod: 5,
	})
	require.NoError(t, err)
	assert.False(t, plan.Feasible)
	assert.Equal(t, models.MergeNotEnoughPeriods, plan.Reason)
}

func TestMergePlanSkipsOccupiedAnchorButBlocksOnLaterSlots(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", LessonType: models.LessonTriple},
	}}
	store := newMemoryScheduleStore()
	// The anchor already holding another subject never blocks: placing there
	// overwrites it. A later slot holding another subject does block.
	require.NoError(t, store.UpsertBatch(context.Background(), []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 0, SubjectCode: "ENG", TeacherCode: "MW"},
		{Section: "10A", Day: 0, Period: 2, SubjectCode: "BIO", TeacherCode: "KL"},
	}))
	svc := newMergeService(catalog, store, nil)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          0,
		AnchorPeriod: 0,
	})
	require.NoError(t, err)
	assert.False(t, plan.Feasible)
	assert.Equal(t, models.MergeSlotOccupied, plan.Reason)
	assert.Equal(t, 2, plan.BlockedSlot)
	assert.Equal(t, "BIO", plan.OccupiedBy)
}

func TestMergePlanSameSubjectSlotsDoNotBlock(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", LessonType: models.LessonDouble},
	}}
	store := newMemoryScheduleStore()
	require.NoError(t, store.UpsertBatch(context.Background(), []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 1, SubjectCode: "MATH", TeacherCode: "JS"},
	}))
	svc := newMergeService(catalog, store, nil)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          0,
		AnchorPeriod: 0,
	})
	require.NoError(t, err)
	assert.True(t, plan.Feasible)
}

func TestMergeCommitWritesRunAndIsIdempotent(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", LessonType: models.LessonDouble, DefaultTeacher: "JS"},
	}}
	store := newMemoryScheduleStore()
	invalidator := &countingInvalidator{}
	svc := newMergeService(catalog, store, invalidator)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          1,
		AnchorPeriod: 0,
	})
	require.NoError(t, err)
	require.True(t, plan.Feasible)

	result, err := svc.Commit(context.Background(), plan, "")
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "JS", result.Entries[0].TeacherCode, "default teacher from catalog")
	assert.Len(t, store.entries, 2)
	assert.Equal(t, 1, invalidator.calls)

	// Replaying the same commit converges on the same rows.
	_, err = svc.Commit(context.Background(), plan, "")
	require.NoError(t, err)
	assert.Len(t, store.entries, 2)
}

func TestMergeCommitInfeasiblePlanRejected(t *testing.T) {
	svc := newMergeService(&stubLessonCatalog{}, newMemoryScheduleStore(), nil)

	_, err := svc.Commit(context.Background(), &models.MergePlan{Feasible: false, Reason: models.MergeNotEnoughPeriods}, "JS")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMergeInfeasible.Code, appErr.Code)
}

func TestMergeCommitQuotaAdvisory(t *testing.T) {
	catalog := &stubLessonCatalog{
		configs: map[string]models.LessonConfig{
			catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", WeeklyQuota: 3, LessonType: models.LessonDouble, DefaultTeacher: "JS"},
		},
		counts: map[string]int{catalogKey("MATH", "10A"): 3},
	}
	store := newMemoryScheduleStore()
	svc := newMergeService(catalog, store, nil)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          2,
		AnchorPeriod: 0,
	})
	require.NoError(t, err)

	result, err := svc.Commit(context.Background(), plan, "")
	require.NoError(t, err, "quota is advisory, the write still lands")
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.ConflictQuotaExceeded, result.Conflicts[0].Kind)
	assert.Len(t, store.entries, 2)
}

func TestMergeCommitNoTeacherAnywhere(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("ART", "10A"): {SubjectCode: "ART", Section: "10A", LessonType: models.LessonSingle},
	}}
	svc := newMergeService(catalog, newMemoryScheduleStore(), nil)

	plan, err := svc.Plan(context.Background(), PlanMergeRequest{
		Section:      "10A",
		SubjectCode:  "ART",
		Day:          0,
		AnchorPeriod: 0,
	})
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), plan, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMergePlaceForceSingleFallsBackToAnchor(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", LessonType: models.LessonDouble, DefaultTeacher: "JS"},
	}}
	store := newMemoryScheduleStore()
	svc := newMergeService(catalog, store, nil)

	result, err := svc.Place(context.Background(), PlaceRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          0,
		AnchorPeriod: 5,
		ForceSingle:  true,
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 5, result.Entries[0].Period)
}

func TestMergePlaceInfeasibleWithoutForceSingle(t *testing.T) {
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): {SubjectCode: "MATH", Section: "10A", LessonType: models.LessonDouble, DefaultTeacher: "JS"},
	}}
	svc := newMergeService(catalog, newMemoryScheduleStore(), nil)

	_, err := svc.Place(context.Background(), PlaceRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          0,
		AnchorPeriod: 5,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMergeInfeasible.Code, appErr.Code)
}

func TestMergeClearSlot(t *testing.T) {
	store := newMemoryScheduleStore()
	require.NoError(t, store.UpsertBatch(context.Background(), []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 0, SubjectCode: "MATH", TeacherCode: "JS"},
	}))
	invalidator := &countingInvalidator{}
	svc := newMergeService(&stubLessonCatalog{}, store, invalidator)

	require.NoError(t, svc.ClearSlot(context.Background(), "10A", 0, 0))
	assert.Empty(t, store.entries)
	assert.Equal(t, 1, invalidator.calls)

	// Clearing an already empty cell is fine.
	require.NoError(t, svc.ClearSlot(context.Background(), "10A", 0, 0))
}

func TestMergeClearSlotOutOfRange(t *testing.T) {
	svc := newMergeService(&stubLessonCatalog{}, newMemoryScheduleStore(), nil)

	err := svc.ClearSlot(context.Background(), "10A", 9, 0)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrOutOfRange.Code, appErr.Code)
}
