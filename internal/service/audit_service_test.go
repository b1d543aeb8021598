package service

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core-api/internal/models"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
)

type stubAuditReader struct {
	entries []models.ScheduleEntry
}

func (s *stubAuditReader) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

type stubAuditLessons struct {
	configs []models.LessonConfig
}

func (s *stubAuditLessons) ListConfigs(ctx context.Context) ([]models.LessonConfig, error) {
	return s.configs, nil
}

type memoryAuditCache struct {
	values map[string][]byte
	sets   int
	hits   int
}

func newMemoryAuditCache() *memoryAuditCache {
	return &memoryAuditCache{values: make(map[string][]byte)}
}

func (m *memoryAuditCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *memoryAuditCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.sets++
	return nil
}

func (m *memoryAuditCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func newAuditService(reader *stubAuditReader, lessons *stubAuditLessons, cache AuditCache) *AuditService {
	return NewAuditService(reader, lessons, cache, models.DefaultGrid(), AuditRules{TeacherDailyLimit: 5}, zap.NewNop())
}

func TestAuditSweepCleanSchedule(t *testing.T) {
	reader := &stubAuditReader{entries: []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 0, SubjectCode: "MATH", TeacherCode: "JS"},
		{Section: "10B", Day: 0, Period: 1, SubjectCode: "MATH", TeacherCode: "JS"},
	}}
	svc := newAuditService(reader, &stubAuditLessons{}, nil)

	report, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestAuditSweepDoubleBookedNamesAllSections(t *testing.T) {
	reader := &stubAuditReader{entries: []models.ScheduleEntry{
		{Section: "10A", Day: 2, Period: 1, SubjectCode: "MATH", TeacherCode: "JS"},
		{Section: "10B", Day: 2, Period: 1, SubjectCode: "PHY", TeacherCode: "JS"},
		{Section: "10C", Day: 2, Period: 1, SubjectCode: "CHEM", TeacherCode: "JS"},
	}}
	svc := newAuditService(reader, &stubAuditLessons{}, nil)

	report, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1, "one conflict per double-booked slot, not per pair")
	conflict := report.Conflicts[0]
	assert.Equal(t, models.ConflictTeacherDoubleBooked, conflict.Kind)
	require.Len(t, conflict.Slots, 3)

	sections := make([]string, 0, 3)
	for _, slot := range conflict.Slots {
		sections = append(sections, slot.Section)
	}
	sort.Strings(sections)
	assert.Equal(t, []string{"10A", "10B", "10C"}, sections)
}

func TestAuditSweepOverloadStrictlyAboveLimit(t *testing.T) {
	entries := make([]models.ScheduleEntry, 0, 6)
	for p := 0; p < 5; p++ {
		entries = append(entries, models.ScheduleEntry{Section: "10A", Day: 0, Period: p, SubjectCode: "MATH", TeacherCode: "JS"})
	}
	reader := &stubAuditReader{entries: entries}
	svc := newAuditService(reader, &stubAuditLessons{}, nil)

	report, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "exactly at the limit is not an audit finding")

	reader.entries = append(reader.entries, models.ScheduleEntry{Section: "10A", Day: 0, Period: 5, SubjectCode: "MATH", TeacherCode: "JS"})
	report, err = svc.Sweep(context.Background(), false)
	require.NoError(t, err)

	var overloads int
	for _, c := range report.Conflicts {
		if c.Kind == models.ConflictTeacherOverloaded {
			overloads++
		}
	}
	assert.Equal(t, 1, overloads)
}

func TestAuditSweepQuota(t *testing.T) {
	reader := &stubAuditReader{entries: []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 0, SubjectCode: "MATH", TeacherCode: "JS"},
		{Section: "10A", Day: 1, Period: 0, SubjectCode: "MATH", TeacherCode: "JS"},
		{Section: "10A", Day: 2, Period: 0, SubjectCode: "MATH", TeacherCode: "JS"},
		{Section: "10A", Day: 3, Period: 0, SubjectCode: "ART", TeacherCode: "MW"},
	}}
	lessons := &stubAuditLessons{configs: []models.LessonConfig{
		{SubjectCode: "MATH", Section: "10A", WeeklyQuota: 3, LessonType: models.LessonSingle},
		{SubjectCode: "ART", Section: "10A", WeeklyQuota: 0, LessonType: models.LessonSingle},
	}}
	svc := newAuditService(reader, lessons, nil)

	report, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictQuotaExceeded, report.Conflicts[0].Kind)
	assert.Contains(t, report.Conflicts[0].Description, "MATH")
}

func TestAuditSweepMergeIntegrity(t *testing.T) {
	lessons := &stubAuditLessons{configs: []models.LessonConfig{
		{SubjectCode: "MATH", Section: "10A", LessonType: models.LessonDouble},
	}}

	// A proper Double run is clean.
	reader := &stubAuditReader{entries: []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 1, SubjectCode: "MATH", TeacherCode: "JS"},
		{Section: "10A", Day: 0, Period: 2, SubjectCode: "MATH", TeacherCode: "JS"},
	}}
	svc := newAuditService(reader, lessons, nil)
	report, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	// An orphaned single leg of a Double is flagged at its coordinate.
	reader.entries = []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 1, SubjectCode: "MATH", TeacherCode: "JS"},
	}
	report, err = svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictImproperMerge, report.Conflicts[0].Kind)
	assert.Equal(t, 1, report.Conflicts[0].Slots[0].Period)
}

func TestAuditSweepCachedReportReused(t *testing.T) {
	reader := &stubAuditReader{entries: []models.ScheduleEntry{
		{Section: "10A", Day: 0, Period: 0, SubjectCode: "MATH", TeacherCode: "JS"},
	}}
	cache := newMemoryAuditCache()
	svc := newAuditService(reader, &stubAuditLessons{}, cache)

	first, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "second sweep served from cache")
	assert.Equal(t, 1, cache.hits)

	third, err := svc.Sweep(context.Background(), true)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID, "refresh bypasses the cache")

	svc.Invalidate(context.Background())
	fourth, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.NotEqual(t, third.ID, fourth.ID)
}

// Committing a merge and then auditing the result must come back clean: the
// writer and the auditor agree on what a proper run looks like.
func TestMergeCommitThenAuditRoundTrip(t *testing.T) {
	configs := []models.LessonConfig{
		{SubjectCode: "MATH", Section: "10A", WeeklyQuota: 4, LessonType: models.LessonDouble, DefaultTeacher: "JS"},
	}
	catalog := &stubLessonCatalog{configs: map[string]models.LessonConfig{
		catalogKey("MATH", "10A"): configs[0],
	}}
	store := newMemoryScheduleStore()
	mergeSvc := newMergeService(catalog, store, nil)

	_, err := mergeSvc.Place(context.Background(), PlaceRequest{
		Section:      "10A",
		SubjectCode:  "MATH",
		Day:          1,
		AnchorPeriod: 0,
	})
	require.NoError(t, err)

	reader := &stubAuditReader{entries: store.all(context.Background())}
	auditSvc := newAuditService(reader, &stubAuditLessons{configs: configs}, nil)
	report, err := auditSvc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	// Clearing one leg of the Double leaves an orphan the auditor catches.
	require.NoError(t, mergeSvc.ClearSlot(context.Background(), "10A", 1, 1))
	reader.entries = store.all(context.Background())
	report, err = auditSvc.Sweep(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictImproperMerge, report.Conflicts[0].Kind)
}
