package domain

import (
	"fmt"
	"time"
)

// AnchorDate is the year-independent month/day that anchors a client's
// recurring plan year. A client whose anchor is March 15 starts a new plan
// year every March 15.
type AnchorDate struct {
	Month time.Month
	Day   int
}

// NewAnchorDate validates month/day and returns the anchor.
// Feb 29 is a valid anchor; it projects to Feb 28 in non-leap years.
func NewAnchorDate(month time.Month, day int) (AnchorDate, error) {
	if month < time.January || month > time.December {
		return AnchorDate{}, NewValidationError("anchor_date", fmt.Sprintf("invalid month %d", month))
	}
	if day < 1 || day > daysInMonth(month) {
		return AnchorDate{}, NewValidationError("anchor_date", fmt.Sprintf("invalid day %d for %s", day, month))
	}
	return AnchorDate{Month: month, Day: day}, nil
}

// AnchorDateOf extracts the month/day anchor from a calendar date.
func AnchorDateOf(t time.Time) AnchorDate {
	t = t.UTC()
	return AnchorDate{Month: t.Month(), Day: t.Day()}
}

func (a AnchorDate) String() string {
	return fmt.Sprintf("%02d-%02d", a.Month, a.Day)
}

// Matches reports whether t falls on the anchor's month/day.
// A Feb 29 anchor also matches Feb 28 in non-leap years, so leap-day
// clients are still picked up by the daily sweep every year.
func (a AnchorDate) Matches(t time.Time) bool {
	t = t.UTC()
	if t.Month() == a.Month && t.Day() == a.Day {
		return true
	}
	if a.Month == time.February && a.Day == 29 && !isLeapYear(t.Year()) {
		return t.Month() == time.February && t.Day() == 28
	}
	return false
}

// onYear projects the anchor onto a calendar year at midnight UTC.
// Feb 29 clamps to Feb 28 in non-leap years; time.Date would normalize it
// to Mar 1 instead, which is not what compliance reviewers expect.
func (a AnchorDate) onYear(year int) time.Time {
	day := a.Day
	if a.Month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, a.Month, day, 0, 0, 0, 0, time.UTC)
}

// PlanYear is a half-open interval [Start, End) in calendar time.
type PlanYear struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the interval.
func (p PlanYear) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && t.Before(p.End)
}

// PlanYear computes the plan year containing now. The anchor is projected
// onto now's calendar year; if that projection is strictly after now, the
// current plan year began last year. Calendar month/day arithmetic, not
// fixed-second offsets, so leap years and DST shifts are handled.
func (a AnchorDate) PlanYear(now time.Time) PlanYear {
	now = now.UTC()
	thisYear := a.onYear(now.Year())
	if thisYear.After(now) {
		return PlanYear{Start: a.onYear(now.Year() - 1), End: thisYear}
	}
	return PlanYear{Start: thisYear, End: a.onYear(now.Year() + 1)}
}

// WindowEnding returns the plan year whose end boundary is the anchor's
// anniversary in the given calendar year. The sweep archives this window on
// anniversary day: end = today's anniversary, start = one year prior.
func (a AnchorDate) WindowEnding(year int) PlanYear {
	return PlanYear{Start: a.onYear(year - 1), End: a.onYear(year)}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// daysInMonth returns the maximum day count for the month across all years
// (29 for February, so leap-day anchors validate).
func daysInMonth(m time.Month) int {
	switch m {
	case time.February:
		return 29
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
