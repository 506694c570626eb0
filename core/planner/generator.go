// Package planner turns lesson sequences and schedule configurations into dated schedule events.
package planner

import (
	"time"

	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/schedule"
)

// Cycle hands out the lessons of a course in order, starting over after the last one.
type Cycle struct {
	lessons []int64
	pos     int
}

// NewCycle starts at position start, taken modulo the number of lessons.
func NewCycle(lessons []int64, start int) *Cycle {
	c := &Cycle{lessons: lessons}
	if n := len(lessons); n > 0 {
		c.pos = ((start % n) + n) % n
	}
	return c
}

// Next returns the current lesson and advances. It reports false when there are no lessons.
func (c *Cycle) Next() (int64, bool) {
	if len(c.lessons) == 0 {
		return 0, false
	}
	id := c.lessons[c.pos]
	c.pos = (c.pos + 1) % len(c.lessons)
	return id, true
}

// Resume moves the cursor just past lastLessonID. An unknown id restarts the sequence.
// Lesson ids are unique within a course, so the first match is the only one; ResumeIndex relies on that.
func (c *Cycle) Resume(lastLessonID int64) {
	c.pos = 0
	for i, id := range c.lessons {
		if id == lastLessonID {
			c.pos = (i + 1) % len(c.lessons)
			return
		}
	}
}

// Position is the index of the lesson the next call to Next returns.
func (c *Cycle) Position() int { return c.pos }

func (c *Cycle) Len() int { return len(c.lessons) }

// Generate walks days calendar days from start and assigns one lesson to each weekday.
// Weekends use up a calendar day but not a lesson. No lessons means no events.
func Generate(lessons []int64, start time.Time, days int) []Event {
	cycle := NewCycle(lessons, 0)
	start = calendar.DateOf(start)

	var events []Event
	for offset := 0; offset < days; offset++ {
		date := start.AddDate(0, 0, offset)
		if calendar.IsWeekend(date) {
			continue
		}
		lessonID, ok := cycle.Next()
		if !ok {
			continue
		}
		events = append(events, Event{Date: date, Kind: KindLesson, LessonID: lessonID})
	}
	return events
}

// GenerateUntil is Generate over [start, end], both included.
func GenerateUntil(lessons []int64, start, end time.Time) []Event {
	return Generate(lessons, start, CalendarDays(start, end))
}

// CalendarDays counts the dates in [start, end], both included.
func CalendarDays(start, end time.Time) int {
	start, end = calendar.DateOf(start), calendar.DateOf(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

type Options struct {
	// From skips the dates before it. Zero means the configuration's start date.
	From time.Time
	// Cursors sets the starting cycle position per course id.
	Cursors map[int64]int
}

// GenerateConfiguration produces one event per (school day, period) of conf.
// A course slot takes the next lesson of that course's cycle, or an underflow marker when the course has none.
// A slot no assignment covers gets an overflow marker.
func GenerateConfiguration(conf schedule.Configuration, lessonsByCourse map[int64][]int64, opts Options) []Event {
	cycles := make(map[int64]*Cycle)
	cycleFor := func(courseID int64) *Cycle {
		c, ok := cycles[courseID]
		if !ok {
			c = NewCycle(lessonsByCourse[courseID], opts.Cursors[courseID])
			cycles[courseID] = c
		}
		return c
	}

	var from time.Time
	if !opts.From.IsZero() {
		from = calendar.DateOf(opts.From)
	}

	var events []Event
	for _, date := range conf.SchoolDays() {
		if date.Before(from) {
			continue
		}
		day := calendar.WeekdayOf(date)

		for period := 1; period <= conf.PeriodsPerDay; period++ {
			ev := Event{ConfigurationID: conf.ID, Date: date, Period: period}

			pa, ok := conf.AssignmentFor(period, day)
			if !ok {
				ev.Kind = KindOverflow
				events = append(events, ev)
				continue
			}

			if courseID, isCourse := pa.Target.CourseID(); isCourse {
				ev.CourseID = courseID
				if lessonID, ok := cycleFor(courseID).Next(); ok {
					ev.Kind = KindLesson
					ev.LessonID = lessonID
				} else {
					ev.Kind = KindUnderflow
				}
			} else {
				duty, _ := pa.Target.Duty()
				ev.Kind = KindDuty
				ev.Duty = duty.String()
			}
			events = append(events, ev)
		}
	}
	return events
}

// ResumeIndex finds the cycle position that follows the last lesson scheduled before from.
// Events of other kinds are ignored; with no earlier lesson the sequence restarts at 0.
func ResumeIndex(events []Event, lessons []int64, from time.Time) int {
	if len(lessons) == 0 {
		return 0
	}
	from = calendar.DateOf(from)

	var (
		last  Event
		found bool
	)
	for _, ev := range events {
		if ev.Kind != KindLesson || !ev.Date.Before(from) {
			continue
		}
		if !found || ev.Date.After(last.Date) || (ev.Date.Equal(last.Date) && ev.Period > last.Period) {
			last, found = ev, true
		}
	}
	if !found {
		return 0
	}
	c := NewCycle(lessons, 0)
	c.Resume(last.LessonID)
	return c.Position()
}
