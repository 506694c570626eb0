// Package calendar holds the day-name vocabulary, teaching-day sets and the date helpers
// shared by schedule configuration and schedule generation.
package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Weekday is one of the seven English day names, Monday=1 ... Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var (
	ErrInvalidWeekday = errors.New("invalid weekday")

	weekdayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	// AllWeekdays lists every Weekday in canonical order.
	AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
)

func (d Weekday) IsValid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.IsValid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

func (d Weekday) IsWeekend() bool {
	return d == Saturday || d == Sunday
}

// TimeWeekday converts to the standard library representation (Sunday=0).
func (d Weekday) TimeWeekday() time.Weekday {
	return time.Weekday(int(d) % 7)
}

// WeekdayOf returns the Weekday of t.
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// ParseWeekday matches s against the canonical day names, ignoring case and surrounding whitespace.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.TrimSpace(s)
	for _, d := range AllWeekdays {
		if strings.EqualFold(name, weekdayNames[d]) {
			return d, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidWeekday, "%q", s)
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, ErrInvalidWeekday
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(text []byte) error {
	wd, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = wd
	return nil
}
