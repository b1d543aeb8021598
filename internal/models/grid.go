package models

import "fmt"

// Grid describes the shape of the weekly timetable: how many days are
// taught, how many periods each day holds and where the recess break falls.
// BreakAfterPeriod is the zero-based index of the first period taught after
// the break, so the default of 3 places the break after period index 2.
type Grid struct {
	NumDays          int `json:"num_days"`
	NumPeriods       int `json:"num_periods"`
	BreakAfterPeriod int `json:"break_after_period"`
}

// DefaultGrid returns the stock 5-day, 6-period week.
func DefaultGrid() Grid {
	return Grid{NumDays: 5, NumPeriods: 6, BreakAfterPeriod: 3}
}

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// IsValid reports whether the coordinate lies inside the grid.
func (g Grid) IsValid(day, period int) bool {
	return day >= 0 && day < g.NumDays && period >= 0 && period < g.NumPeriods
}

// DayName returns the display name for a day index.
func (g Grid) DayName(day int) string {
	if day >= 0 && day < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprintf("Day %d", day+1)
}

// PeriodsPerDay returns the total number of periods taught in one day.
func (g Grid) PeriodsPerDay() int {
	return g.NumPeriods
}

// TouchesBreak reports whether a period sits directly on either side of the
// recess break.
func (g Grid) TouchesBreak(period int) bool {
	return period == g.BreakAfterPeriod || period == g.BreakAfterPeriod-1
}

// AcrossBreak returns the period on the opposite side of the break from the
// given one. The boolean is false when the period does not touch the break.
func (g Grid) AcrossBreak(period int) (int, bool) {
	switch period {
	case g.BreakAfterPeriod:
		return g.BreakAfterPeriod - 1, g.BreakAfterPeriod-1 >= 0
	case g.BreakAfterPeriod - 1:
		return g.BreakAfterPeriod, g.BreakAfterPeriod < g.NumPeriods
	default:
		return 0, false
	}
}
