package core

import (
	"fmt"
	"strings"
	"time"
)

// Period selects the window of history a stats request covers.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts any casing; empty means all.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PeriodAll, nil
	}
	switch p {
	case PeriodAll, PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// Start returns the earliest instant included in the period, or the zero
// time for PeriodAll. Day and month start at UTC midnight; week is the
// trailing seven days.
func (p Period) Start(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case PeriodDay:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

// Contains reports whether t falls inside the period ending at now.
func (p Period) Contains(t, now time.Time) bool {
	start := p.Start(now)
	return start.IsZero() || !t.Before(start)
}
