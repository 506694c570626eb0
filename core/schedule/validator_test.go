package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lessonplan/core/calendar"
)

const (
	courseA = int64(101)
	courseB = int64(102)
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func validWeek() []Candidate {
	return []Candidate{
		{Period: 1, Target: CourseTarget(courseA), Days: []string{"Monday", "Wednesday", "Friday"}},
		{Period: 1, Target: CourseTarget(courseB), Days: []string{"Tuesday", "Thursday"}},
		{Period: 2, Target: DutyTarget(Lunch), Days: weekdays},
	}
}

func TestValidate_Scenarios(t *testing.T) {
	t.Run("full week", func(t *testing.T) {
		res := Validate(validWeek(), 2)
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Errors)
	})

	t.Run("course B misses thursday", func(t *testing.T) {
		cands := validWeek()
		cands[1].Days = []string{"Tuesday"}

		res := Validate(cands, 2)
		assert.False(t, res.IsValid)
		if assert.Len(t, res.Errors, 1) {
			assert.Contains(t, res.Errors[0], "Period 1")
			assert.Contains(t, res.Errors[0], "Thursday")
		}
	})
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name  string
		cands []Candidate
		want  []string
	}{
		{
			name:  "valid, case-insensitive",
			cands: []Candidate{{Period: 1, Target: DutyTarget(Prep), Days: []string{"monday", "TUESDAY"}}},
		},
		{
			name:  "blank days",
			cands: []Candidate{{Period: 3, Target: DutyTarget(Prep), Days: []string{" ", ""}}},
			want:  []string{"Period 3: no teaching days specified"},
		},
		{
			name:  "no days",
			cands: []Candidate{{Period: 2, Target: DutyTarget(Prep)}},
			want:  []string{"Period 2: no teaching days specified"},
		},
		{
			name:  "invalid and duplicate days",
			cands: []Candidate{{Period: 1, Target: CourseTarget(courseA), Days: []string{"Monday", "Mon", "monday", "Funday"}}},
			want: []string{
				"Period 1: invalid day(s): Mon, Funday",
				"Period 1: duplicate day(s): Monday",
			},
		},
		{
			name: "every candidate is reported",
			cands: []Candidate{
				{Period: 1, Target: CourseTarget(courseA), Days: []string{"Moonday"}},
				{Period: 2, Target: CourseTarget(courseB), Days: []string{"Friday", "friday"}},
			},
			want: []string{
				"Period 1: invalid day(s): Moonday",
				"Period 2: duplicate day(s): Friday",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateFormat(tt.cands))
		})
	}
}

func TestValidate_FormatShortCircuits(t *testing.T) {
	// conflicting and uncovered, but the format error must be the only one reported
	cands := []Candidate{
		{Period: 1, Target: CourseTarget(courseA), Days: []string{"Monday", "Tuesday"}},
		{Period: 1, Target: CourseTarget(courseB), Days: []string{"Monday", "Someday"}},
	}
	res := Validate(cands, 3)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Period 1: invalid day(s): Someday"}, res.Errors)

	for _, msg := range res.Errors {
		assert.NotContains(t, msg, "conflict")
		assert.NotContains(t, msg, "coverage")
		assert.NotContains(t, msg, "no assignments")
	}
}

func TestValidateConflicts(t *testing.T) {
	tests := []struct {
		name  string
		cands []Candidate
		want  []string
	}{
		{name: "no overlap", cands: validWeek()},
		{
			name: "two courses share a day",
			cands: []Candidate{
				{Period: 1, Target: CourseTarget(courseA), Days: []string{"Monday", "Wednesday"}},
				{Period: 1, Target: CourseTarget(courseB), Days: []string{"Wednesday", "Thursday"}},
			},
			want: []string{"Period 1: conflict on Wednesday between Course 101 and Course 102"},
		},
		{
			name: "three-way conflict with a duty",
			cands: []Candidate{
				{Period: 4, Target: CourseTarget(courseA), Days: []string{"Friday"}},
				{Period: 4, Target: DutyTarget(HallDuty), Days: []string{"Friday", "Monday"}},
				{Period: 4, Target: DutyTarget(StudyHall), Days: []string{"friday", "MONDAY"}},
			},
			want: []string{
				"Period 4: conflict on Monday between HallDuty and StudyHall",
				"Period 4: conflict on Friday between Course 101, HallDuty and StudyHall",
			},
		},
		{
			name: "same days in different periods",
			cands: []Candidate{
				{Period: 1, Target: CourseTarget(courseA), Days: weekdays},
				{Period: 2, Target: CourseTarget(courseB), Days: weekdays},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateConflicts(tt.cands))
		})
	}
}

func TestValidateConflicts_AlwaysNamesSharedDay(t *testing.T) {
	for _, day := range calendar.AllWeekdays {
		cands := []Candidate{
			{Period: 1, Target: CourseTarget(courseA), Days: []string{day.String()}},
			{Period: 1, Target: DutyTarget(Lunch), Days: []string{strings.ToLower(day.String())}},
		}
		errs := ValidateConflicts(cands)
		if assert.Len(t, errs, 1) {
			assert.Contains(t, errs[0], day.String())
		}
	}
}

func TestValidateCoverage(t *testing.T) {
	tests := []struct {
		name          string
		cands         []Candidate
		periodsPerDay int
		want          []string
	}{
		{name: "covered", cands: validWeek(), periodsPerDay: 2},
		{
			name:          "empty list",
			periodsPerDay: 2,
			want:          []string{msgNoTeachingDays, "Period 1: no assignments", "Period 2: no assignments"},
		},
		{
			name:          "empty list, no periods",
			periodsPerDay: 0,
			want:          []string{msgNoTeachingDays},
		},
		{
			name:          "negative periods per day",
			cands:         validWeek(),
			periodsPerDay: -3,
		},
		{
			name:          "period without assignments",
			cands:         validWeek(),
			periodsPerDay: 3,
			want:          []string{"Period 3: no assignments"},
		},
		{
			name: "reference is the union of assigned days",
			cands: []Candidate{
				{Period: 1, Target: CourseTarget(courseA), Days: []string{"Monday", "Tuesday"}},
				{Period: 2, Target: CourseTarget(courseB), Days: []string{"Tuesday", "Saturday"}},
			},
			periodsPerDay: 2,
			want: []string{
				"Period 1: missing coverage for Saturday",
				"Period 2: missing coverage for Monday",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCoverage(tt.cands, tt.periodsPerDay))
		})
	}
}

func TestValidateCoverage_StrictSubsetReported(t *testing.T) {
	// period 2 covers a strict subset of the global union in every case
	for _, day := range calendar.SchoolWeek.Days() {
		rest := calendar.SchoolWeek.Difference(calendar.NewDaySet(day))
		cands := []Candidate{
			{Period: 1, Target: CourseTarget(courseA), Days: weekdays},
			{Period: 2, Target: CourseTarget(courseB), Days: rest.Strings()},
		}
		errs := ValidateCoverage(cands, 2)
		if assert.Len(t, errs, 1) {
			assert.Contains(t, errs[0], "Period 2")
			assert.Contains(t, errs[0], day.String())
		}
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name         string
		cands        []Candidate
		teachingDays calendar.DaySet
		want         []string
	}{
		{name: "valid", cands: validWeek(), teachingDays: calendar.SchoolWeek},
		{
			name: "period out of range and missing target",
			cands: append(validWeek(),
				Candidate{Period: 3, Target: DutyTarget(Prep), Days: []string{"Monday"}},
				Candidate{Period: 2, Days: []string{"Saturday"}},
			),
			teachingDays: calendar.SchoolWeek,
			want: []string{
				"Period 3: must be between 1 and 2",
				"Period 2: " + ErrInvalidTarget.Error(),
				"Period 2: Saturday not in the configuration's teaching days",
			},
		},
		{
			name: "coverage against the configuration days",
			cands: []Candidate{
				{Period: 1, Target: CourseTarget(courseA), Days: []string{"Monday", "Wednesday"}},
				{Period: 2, Target: DutyTarget(Lunch), Days: []string{"Monday", "Wednesday"}},
			},
			teachingDays: calendar.NewDaySet(calendar.Monday, calendar.Wednesday, calendar.Friday),
			want: []string{
				"Period 1: missing coverage for Friday",
				"Period 2: missing coverage for Friday",
			},
		},
		{
			name:         "no assignments",
			teachingDays: calendar.SchoolWeek,
			want:         []string{msgNoTeachingDays, "Period 1: no assignments", "Period 2: no assignments"},
		},
		{
			name:         "format errors short-circuit",
			cands:        []Candidate{{Period: 9, Days: []string{"Caturday"}}},
			teachingDays: calendar.SchoolWeek,
			want:         []string{"Period 9: invalid day(s): Caturday"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateConfiguration(tt.cands, 2, tt.teachingDays)
			if tt.want == nil {
				assert.True(t, res.IsValid)
				assert.Empty(t, res.Errors)
				return
			}
			assert.False(t, res.IsValid)
			assert.Equal(t, tt.want, res.Errors)
		})
	}
}

func TestConfiguration_IsComplete(t *testing.T) {
	conf := Configuration{
		PeriodsPerDay: 2,
		TeachingDays:  calendar.SchoolWeek,
		Assignments: []PeriodAssignment{
			{Period: 1, Target: CourseTarget(courseA), TeachingDays: calendar.NewDaySet(calendar.Monday, calendar.Wednesday, calendar.Friday)},
			{Period: 1, Target: CourseTarget(courseB), TeachingDays: calendar.NewDaySet(calendar.Tuesday, calendar.Thursday)},
			{Period: 2, Target: DutyTarget(Lunch), TeachingDays: calendar.SchoolWeek},
		},
	}
	assert.True(t, conf.IsComplete())
	assert.True(t, conf.Check().IsValid)
	assert.Equal(t, []int64{courseA, courseB}, conf.CourseIDs())

	pa, ok := conf.AssignmentFor(1, calendar.Thursday)
	assert.True(t, ok)
	assert.Equal(t, CourseTarget(courseB), pa.Target)

	conf.PeriodsPerDay = 3
	assert.False(t, conf.IsComplete())
	assert.Equal(t, []string{"Period 3: no assignments"}, conf.Incomplete())
}
