package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core-api/internal/models"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
)

const auditReportCacheKey = "audit:report"

type auditScheduleReader interface {
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
}

type auditLessonReader interface {
	ListConfigs(ctx context.Context) ([]models.LessonConfig, error)
}

// AuditCache stores generated reports between schedule writes. Exported so
// callers can pass an untyped nil when caching is disabled.
type AuditCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AuditRules tunes the sweep thresholds and report caching.
type AuditRules struct {
	TeacherDailyLimit int
	CacheTTL          time.Duration
}

// AuditService sweeps the whole stored schedule and aggregates every
// conflict type into one report. The sweep never mutates state and never
// fails because of conflicts; an empty report means a clean timetable.
type AuditService struct {
	schedules auditScheduleReader
	lessons   auditLessonReader
	cache     AuditCache
	grid      models.Grid
	rules     AuditRules
	logger    *zap.Logger
}

// NewAuditService instantiates AuditService. The cache may be nil.
func NewAuditService(schedules auditScheduleReader, lessons auditLessonReader, cache AuditCache, grid models.Grid, rules AuditRules, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules.TeacherDailyLimit <= 0 {
		rules.TeacherDailyLimit = 5
	}
	if rules.CacheTTL <= 0 {
		rules.CacheTTL = 5 * time.Minute
	}
	return &AuditService{schedules: schedules, lessons: lessons, cache: cache, grid: grid, rules: rules, logger: logger}
}

// Sweep runs the four audit passes over the full schedule. All passes run
// regardless of what the earlier ones found. Set refresh to bypass the
// cached report.
func (s *AuditService) Sweep(ctx context.Context, refresh bool) (*models.ConflictReport, error) {
	if !refresh && s.cache != nil {
		var cached models.ConflictReport
		if err := s.cache.Get(ctx, auditReportCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	entries, err := s.schedules.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load schedule for audit")
	}
	configs, err := s.lessons.ListConfigs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load lesson configs for audit")
	}

	assigned := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if e.Assigned() {
			assigned = append(assigned, e)
		}
	}

	report := &models.ConflictReport{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Conflicts:   []models.Conflict{},
	}
	report.Conflicts = append(report.Conflicts, s.doubleBookingPass(assigned)...)
	report.Conflicts = append(report.Conflicts, s.overloadPass(assigned)...)
	report.Conflicts = append(report.Conflicts, s.quotaPass(assigned, configs)...)
	report.Conflicts = append(report.Conflicts, s.mergeIntegrityPass(assigned, configs)...)

	if s.cache != nil {
		if err := s.cache.Set(ctx, auditReportCacheKey, report, s.rules.CacheTTL); err != nil {
			s.logger.Warn("audit report cache write failed", zap.Error(err))
		}
	}

	s.logger.Info("audit sweep completed",
		zap.Int("entries", len(assigned)),
		zap.Int("conflicts", len(report.Conflicts)),
	)
	return report, nil
}

// Invalidate drops the cached report after a schedule write.
func (s *AuditService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, auditReportCacheKey); err != nil {
		s.logger.Warn("audit report cache invalidation failed", zap.Error(err))
	}
}

// doubleBookingPass groups entries by (day, period, teacher) and reports one
// conflict per group spanning more than one section, naming all of them.
func (s *AuditService) doubleBookingPass(entries []models.ScheduleEntry) []models.Conflict {
	type slotKey struct {
		day, period int
		teacher     string
	}
	groups := make(map[slotKey][]models.ScheduleEntry)
	for _, e := range entries {
		k := slotKey{e.Day, e.Period, e.TeacherCode}
		groups[k] = append(groups[k], e)
	}

	keys := make([]slotKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.day != b.day {
			return a.day < b.day
		}
		if a.period != b.period {
			return a.period < b.period
		}
		return a.teacher < b.teacher
	})

	var conflicts []models.Conflict
	for _, k := range keys {
		group := groups[k]
		sections := make([]string, 0, len(group))
		seen := make(map[string]bool)
		slots := make([]models.SlotRef, 0, len(group))
		for _, e := range group {
			if seen[e.Section] {
				continue
			}
			seen[e.Section] = true
			sections = append(sections, e.Section)
			slots = append(slots, models.SlotRef{Section: e.Section, Day: e.Day, Period: e.Period})
		}
		if len(sections) < 2 {
			continue
		}
		sort.Strings(sections)
		sort.Slice(slots, func(i, j int) bool { return slots[i].Section < slots[j].Section })
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictTeacherDoubleBooked,
			Severity: models.SeverityWarning,
			Description: fmt.Sprintf("teacher %s is assigned to sections %s during %s period %d",
				k.teacher, strings.Join(sections, ", "), s.grid.DayName(k.day), k.period+1),
			Slots: slots,
		})
	}
	return conflicts
}

// overloadPass groups by (day, teacher) and flags days where the teacher
// holds more periods than the configured limit.
func (s *AuditService) overloadPass(entries []models.ScheduleEntry) []models.Conflict {
	type dayKey struct {
		day     int
		teacher string
	}
	counts := make(map[dayKey]int)
	for _, e := range entries {
		counts[dayKey{e.Day, e.TeacherCode}]++
	}

	keys := make([]dayKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].teacher < keys[j].teacher
	})

	var conflicts []models.Conflict
	for _, k := range keys {
		if counts[k] <= s.rules.TeacherDailyLimit {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictTeacherOverloaded,
			Severity: models.SeverityAdvisory,
			Description: fmt.Sprintf("teacher %s has %d periods on %s (limit %d)",
				k.teacher, counts[k], s.grid.DayName(k.day), s.rules.TeacherDailyLimit),
		})
	}
	return conflicts
}

// quotaPass compares the scheduled count of every (section, subject) pair
// against its weekly quota. A quota of zero enforces nothing.
func (s *AuditService) quotaPass(entries []models.ScheduleEntry, configs []models.LessonConfig) []models.Conflict {
	type pairKey struct {
		section, subject string
	}
	quotas := make(map[pairKey]int, len(configs))
	for _, cfg := range configs {
		quotas[pairKey{cfg.Section, cfg.SubjectCode}] = cfg.WeeklyQuota
	}
	counts := make(map[pairKey]int)
	for _, e := range entries {
		counts[pairKey{e.Section, e.SubjectCode}]++
	}

	keys := make([]pairKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].section != keys[j].section {
			return keys[i].section < keys[j].section
		}
		return keys[i].subject < keys[j].subject
	})

	var conflicts []models.Conflict
	for _, k := range keys {
		quota := quotas[k]
		if quota <= 0 || counts[k] < quota {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictQuotaExceeded,
			Severity: models.SeverityAdvisory,
			Description: fmt.Sprintf("subject %s in section %s is scheduled %d times (weekly quota %d)",
				k.subject, k.section, counts[k], quota),
		})
	}
	return conflicts
}

// mergeIntegrityPass verifies that every occurrence of a multi-period
// subject belongs to a contiguous run of exactly the configured length. An
// orphaned leg, for example after one cell of a Double was cleared, is
// reported at its own day/period.
func (s *AuditService) mergeIntegrityPass(entries []models.ScheduleEntry, configs []models.LessonConfig) []models.Conflict {
	type pairKey struct {
		section, subject string
	}
	multi := make(map[pairKey]models.LessonConfig)
	for _, cfg := range configs {
		if cfg.LessonType.Periods() > 1 {
			multi[pairKey{cfg.Section, cfg.SubjectCode}] = cfg
		}
	}

	occupied := make(map[pairKey]map[int]map[int]bool)
	for _, e := range entries {
		k := pairKey{e.Section, e.SubjectCode}
		if _, ok := multi[k]; !ok {
			continue
		}
		if occupied[k] == nil {
			occupied[k] = make(map[int]map[int]bool)
		}
		if occupied[k][e.Day] == nil {
			occupied[k][e.Day] = make(map[int]bool)
		}
		occupied[k][e.Day][e.Period] = true
	}

	keys := make([]pairKey, 0, len(occupied))
	for k := range occupied {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].section != keys[j].section {
			return keys[i].section < keys[j].section
		}
		return keys[i].subject < keys[j].subject
	})

	var conflicts []models.Conflict
	for _, k := range keys {
		cfg := multi[k]
		needed := cfg.LessonType.Periods()
		days := make([]int, 0, len(occupied[k]))
		for day := range occupied[k] {
			days = append(days, day)
		}
		sort.Ints(days)
		for _, day := range days {
			periods := occupied[k][day]
			sorted := make([]int, 0, len(periods))
			for p := range periods {
				sorted = append(sorted, p)
			}
			sort.Ints(sorted)
			for _, p := range sorted {
				if partOfRun(periods, p, needed) {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					Kind:     models.ConflictImproperMerge,
					Severity: models.SeverityWarning,
					Description: fmt.Sprintf("subject %s in section %s is a %s lesson but %s period %d is not part of %d consecutive periods",
						k.subject, k.section, cfg.LessonType, s.grid.DayName(day), p+1, needed),
					Slots: []models.SlotRef{{Section: k.section, Day: day, Period: p}},
				})
			}
		}
	}
	return conflicts
}

// partOfRun reports whether period p sits inside some contiguous run of
// exactly n occupied periods.
func partOfRun(occupied map[int]bool, p, n int) bool {
	for start := p - n + 1; start <= p; start++ {
		if start < 0 {
			continue
		}
		full := true
		for q := start; q < start+n; q++ {
			if !occupied[q] {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}
	return false
}
