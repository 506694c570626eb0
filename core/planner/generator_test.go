package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/schedule"
)

// 2024-09-02 is a Monday
var monday = calendar.Date(2024, time.September, 2)

func TestCycle(t *testing.T) {
	c := NewCycle([]int64{10, 20, 30}, 4)
	assert.Equal(t, 1, c.Position())

	var got []int64
	for i := 0; i < 5; i++ {
		id, ok := c.Next()
		require.True(t, ok)
		got = append(got, id)
	}
	assert.Equal(t, []int64{20, 30, 10, 20, 30}, got)
	assert.Equal(t, 0, c.Position())

	assert.Equal(t, 2, NewCycle([]int64{1, 2, 3}, -1).Position())

	empty := NewCycle(nil, 3)
	_, ok := empty.Next()
	assert.False(t, ok)
	assert.Equal(t, 0, empty.Len())

	c.Resume(30)
	assert.Equal(t, 0, c.Position())
	c.Resume(10)
	assert.Equal(t, 1, c.Position())
	c.Resume(99)
	assert.Equal(t, 0, c.Position())
	empty.Resume(1)
	assert.Equal(t, 0, empty.Position())

	// first occurrence wins
	dup := NewCycle([]int64{10, 20, 10}, 0)
	dup.Resume(10)
	assert.Equal(t, 1, dup.Position())
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		lessons []int64
		start   time.Time
		days    int
		want    []Event
	}{
		{
			name:    "skips the weekend without consuming a lesson",
			lessons: []int64{1, 2, 3, 4, 5, 6},
			start:   calendar.Date(2024, time.September, 5), // Thursday
			days:    5,
			want: []Event{
				{Date: calendar.Date(2024, time.September, 5), Kind: KindLesson, LessonID: 1},
				{Date: calendar.Date(2024, time.September, 6), Kind: KindLesson, LessonID: 2},
				{Date: calendar.Date(2024, time.September, 9), Kind: KindLesson, LessonID: 3},
			},
		},
		{
			name:    "wraps around when lessons run out",
			lessons: []int64{7, 8},
			start:   monday,
			days:    3,
			want: []Event{
				{Date: monday, Kind: KindLesson, LessonID: 7},
				{Date: monday.AddDate(0, 0, 1), Kind: KindLesson, LessonID: 8},
				{Date: monday.AddDate(0, 0, 2), Kind: KindLesson, LessonID: 7},
			},
		},
		{name: "no lessons", lessons: nil, start: monday, days: 30},
		{name: "no days", lessons: []int64{1}, start: monday, days: 0},
		{name: "negative days", lessons: []int64{1}, start: monday, days: -4},
		{name: "weekend only", lessons: []int64{1}, start: monday.AddDate(0, 0, 5), days: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.lessons, tt.start, tt.days))
		})
	}
}

func TestGenerate_CyclesWithPeriodL(t *testing.T) {
	for _, start := range []time.Time{monday, monday.AddDate(0, 0, 3), monday.AddDate(0, 0, 5)} {
		for l := 1; l <= 7; l++ {
			lessons := make([]int64, l)
			for i := range lessons {
				lessons[i] = int64(100 + i)
			}
			const n = 45

			weekend := 0
			for offset := 0; offset < n; offset++ {
				if calendar.IsWeekend(start.AddDate(0, 0, offset)) {
					weekend++
				}
			}

			events := Generate(lessons, start, n)
			require.Len(t, events, n-weekend)
			for i, ev := range events {
				assert.Equal(t, lessons[i%l], ev.LessonID, "start %s, L=%d, event %d", start, l, i)
				assert.False(t, calendar.IsWeekend(ev.Date))
			}
		}
	}
}

func TestGenerateUntil(t *testing.T) {
	end := monday.AddDate(0, 0, 13) // Sunday, two weeks later
	events := GenerateUntil([]int64{1, 2, 3}, monday, end)
	require.Len(t, events, 10)
	assert.Equal(t, monday.AddDate(0, 0, 11), events[9].Date)
	assert.Equal(t, int64(1), events[9].LessonID)

	assert.Empty(t, GenerateUntil([]int64{1}, end, monday))
	assert.Equal(t, 1, CalendarDays(monday, monday))
	assert.Equal(t, 14, CalendarDays(monday, end.Add(23*time.Hour)))
}

func testConfiguration() schedule.Configuration {
	return schedule.Configuration{
		ID:            7,
		PeriodsPerDay: 2,
		StartDate:     monday,
		EndDate:       monday.AddDate(0, 0, 11), // Friday of the second week
		TeachingDays:  calendar.SchoolWeek,
		Assignments: []schedule.PeriodAssignment{
			{Period: 1, Target: schedule.CourseTarget(1), TeachingDays: calendar.NewDaySet(calendar.Monday, calendar.Wednesday, calendar.Friday)},
			{Period: 1, Target: schedule.CourseTarget(2), TeachingDays: calendar.NewDaySet(calendar.Tuesday, calendar.Thursday)},
			{Period: 2, Target: schedule.DutyTarget(schedule.Lunch), TeachingDays: calendar.SchoolWeek},
		},
	}
}

func TestGenerateConfiguration(t *testing.T) {
	conf := testConfiguration()
	lessons := map[int64][]int64{1: {11, 12}, 2: {21, 22, 23}}

	events := GenerateConfiguration(conf, lessons, Options{})
	require.Len(t, events, 20)

	var course1, course2 []int64
	for _, ev := range events {
		assert.Equal(t, conf.ID, ev.ConfigurationID)
		switch ev.Period {
		case 1:
			require.Equal(t, KindLesson, ev.Kind)
			if ev.CourseID == 1 {
				course1 = append(course1, ev.LessonID)
			} else {
				course2 = append(course2, ev.LessonID)
			}
		case 2:
			assert.Equal(t, KindDuty, ev.Kind)
			assert.Equal(t, "Lunch", ev.Duty)
		}
	}
	assert.Equal(t, []int64{11, 12, 11, 12, 11, 12}, course1)
	assert.Equal(t, []int64{21, 22, 23, 21}, course2)
}

func TestGenerateConfiguration_Sentinels(t *testing.T) {
	conf := testConfiguration()
	conf.EndDate = monday.AddDate(0, 0, 1)
	conf.Assignments = conf.Assignments[:2] // drop lunch: period 2 is uncovered

	events := GenerateConfiguration(conf, map[int64][]int64{1: {11}}, Options{})
	assert.Equal(t, []Event{
		{ConfigurationID: 7, Date: monday, Period: 1, Kind: KindLesson, CourseID: 1, LessonID: 11},
		{ConfigurationID: 7, Date: monday, Period: 2, Kind: KindOverflow},
		{ConfigurationID: 7, Date: monday.AddDate(0, 0, 1), Period: 1, Kind: KindUnderflow, CourseID: 2},
		{ConfigurationID: 7, Date: monday.AddDate(0, 0, 1), Period: 2, Kind: KindOverflow},
	}, events)
}

func TestGenerateConfiguration_SkipsHolidaysAndOffDays(t *testing.T) {
	conf := testConfiguration()
	conf.TeachingDays = calendar.NewDaySet(calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday)
	conf.Holidays = []schedule.Holiday{{Date: monday.AddDate(0, 0, 1), Name: "Staff day"}}

	events := GenerateConfiguration(conf, map[int64][]int64{1: {11}, 2: {21}}, Options{})
	dates := make(map[time.Time]bool)
	for _, ev := range events {
		dates[ev.Date] = true
	}
	assert.Len(t, dates, 7) // 8 Monday-Thursday dates minus the holiday
	assert.False(t, dates[monday.AddDate(0, 0, 1)])
	assert.False(t, dates[monday.AddDate(0, 0, 4)])
}

func TestGenerateConfiguration_Resume(t *testing.T) {
	conf := testConfiguration()
	lessons := map[int64][]int64{1: {11, 12, 13}, 2: {21, 22, 23}}
	full := GenerateConfiguration(conf, lessons, Options{})

	from := monday.AddDate(0, 0, 7) // second Monday
	start := ResumeIndex(filterCourse(full, 1), lessons[1], from)
	resumed := GenerateConfiguration(conf, lessons, Options{From: from, Cursors: map[int64]int{1: start}})

	// resuming mid-way must give what a full run produced for the same dates
	var want []Event
	for _, ev := range full {
		if !ev.Date.Before(from) {
			want = append(want, ev)
		}
	}
	assert.Equal(t, filterCourse(want, 1), filterCourse(resumed, 1))
}

func TestResumeIndex(t *testing.T) {
	lessons := []int64{11, 12, 13}
	events := []Event{
		{Date: monday, Period: 1, Kind: KindLesson, LessonID: 11},
		{Date: monday, Period: 3, Kind: KindLesson, LessonID: 12},
		{Date: monday.AddDate(0, 0, 1), Period: 1, Kind: KindUnderflow},
		{Date: monday.AddDate(0, 0, 2), Period: 1, Kind: KindLesson, LessonID: 13},
	}
	tests := []struct {
		name    string
		events  []Event
		lessons []int64
		from    time.Time
		want    int
	}{
		{name: "after last lesson of the list", events: events, lessons: lessons, from: monday.AddDate(0, 0, 3), want: 0},
		{name: "latest period of the day wins", events: events, lessons: lessons, from: monday.AddDate(0, 0, 2), want: 2},
		{name: "nothing before from", events: events, lessons: lessons, from: monday, want: 0},
		{name: "unknown lesson", events: events, lessons: []int64{99}, from: monday.AddDate(0, 0, 1), want: 0},
		{name: "no lessons", events: events, from: monday.AddDate(0, 0, 1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResumeIndex(tt.events, tt.lessons, tt.from); got != tt.want {
				t.Errorf("ResumeIndex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	conf := testConfiguration()
	conf.Assignments = conf.Assignments[:2]
	events := GenerateConfiguration(conf, map[int64][]int64{1: {11}}, Options{})

	s := Summarize(conf.ID, events)
	assert.Equal(t, 20, s.Events)
	assert.Equal(t, 6, s.Lessons)
	assert.Equal(t, 0, s.Duties)
	assert.Equal(t, 14, s.Errors) // 4 underflows for course 2, 10 overflows in period 2
	assert.Equal(t, monday, s.From)
	assert.Equal(t, conf.EndDate, s.To)
}

func filterCourse(events []Event, courseID int64) []Event {
	var out []Event
	for _, ev := range events {
		if ev.CourseID == courseID {
			out = append(out, ev)
		}
	}
	return out
}
