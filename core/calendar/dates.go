package calendar

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// DateOf drops the clock part of t, keeping its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing date %q", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func IsWeekend(t time.Time) bool {
	return WeekdayOf(t).IsWeekend()
}

// Holidays is a set of special non-teaching dates, each with an optional name.
type Holidays map[time.Time]string

func NewHolidays() Holidays {
	return make(Holidays)
}

func (h Holidays) Add(date time.Time, name string) {
	h[DateOf(date)] = name
}

func (h Holidays) Contains(date time.Time) bool {
	_, ok := h[DateOf(date)]
	return ok
}

// Dates returns the holiday dates in ascending order.
func (h Holidays) Dates() []time.Time {
	dates := make([]time.Time, 0, len(h))
	for d := range h {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// SchoolDays lists the dates in [start, end] that are weekdays, fall on one of days and are not holidays.
func SchoolDays(start, end time.Time, days DaySet, holidays Holidays) []time.Time {
	start, end = DateOf(start), DateOf(end)
	var dates []time.Time
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if IsWeekend(date) || !days.Contains(WeekdayOf(date)) || holidays.Contains(date) {
			continue
		}
		dates = append(dates, date)
	}
	return dates
}
