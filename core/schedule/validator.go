package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trezcool/lessonplan/core/calendar"
)

const msgNoTeachingDays = "No teaching days found in period assignments"

// Candidate is a period assignment as submitted, before its day names are known to be valid.
type Candidate struct {
	Period int
	Target Target
	Days   []string
}

type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

func newResult(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// Validate reports every problem with a set of period assignments.
// Day-name errors stop the check early: conflicts and coverage are only computed over well-formed days.
func Validate(candidates []Candidate, periodsPerDay int) ValidationResult {
	if errs := ValidateFormat(candidates); len(errs) > 0 {
		return newResult(errs)
	}
	errs := ValidateConflicts(candidates)
	errs = append(errs, ValidateCoverage(candidates, periodsPerDay)...)
	return newResult(errs)
}

// ValidateFormat checks the day names of each candidate.
func ValidateFormat(candidates []Candidate) []string {
	var errs []string
	for _, c := range candidates {
		dn := calendar.InspectDayNames(c.Days)
		if dn.Blank {
			errs = append(errs, fmt.Sprintf("Period %d: no teaching days specified", c.Period))
			continue
		}
		if len(dn.Invalid) > 0 {
			errs = append(errs, fmt.Sprintf("Period %d: invalid day(s): %s", c.Period, strings.Join(dn.Invalid, ", ")))
		}
		if len(dn.Duplicates) > 0 {
			errs = append(errs, fmt.Sprintf("Period %d: duplicate day(s): %s", c.Period, strings.Join(dn.Duplicates, ", ")))
		}
	}
	return errs
}

// ValidateConflicts reports each day of a period claimed by more than one assignment.
func ValidateConflicts(candidates []Candidate) []string {
	byPeriod := groupByPeriod(candidates)

	var errs []string
	for _, period := range sortedPeriods(byPeriod) {
		group := byPeriod[period]
		if len(group) < 2 {
			continue
		}
		for _, day := range calendar.AllWeekdays {
			var labels []string
			for _, c := range group {
				if daySet(c).Contains(day) {
					labels = append(labels, c.Target.Label())
				}
			}
			if len(labels) > 1 {
				errs = append(errs, fmt.Sprintf("Period %d: conflict on %s between %s", period, day, joinLabels(labels)))
			}
		}
	}
	return errs
}

// ValidateCoverage checks periods 1..periodsPerDay against the union of all assigned days.
func ValidateCoverage(candidates []Candidate, periodsPerDay int) []string {
	var reference calendar.DaySet
	for _, c := range candidates {
		reference = reference.Union(daySet(c))
	}

	var errs []string
	if reference.IsEmpty() {
		errs = append(errs, msgNoTeachingDays)
	}
	return append(errs, CoverageAgainst(candidates, periodsPerDay, reference)...)
}

// CoverageAgainst checks that each period 1..periodsPerDay has assignments covering every day of reference.
func CoverageAgainst(candidates []Candidate, periodsPerDay int, reference calendar.DaySet) []string {
	byPeriod := groupByPeriod(candidates)

	var errs []string
	for period := 1; period <= periodsPerDay; period++ {
		group := byPeriod[period]
		if len(group) == 0 {
			errs = append(errs, fmt.Sprintf("Period %d: no assignments", period))
			continue
		}
		var covered calendar.DaySet
		for _, c := range group {
			covered = covered.Union(daySet(c))
		}
		if missing := reference.Difference(covered); !missing.IsEmpty() {
			errs = append(errs, fmt.Sprintf("Period %d: missing coverage for %s", period, missing))
		}
	}
	return errs
}

// ValidateConfiguration runs Validate, then the checks that need the configuration itself:
// period range, target presence, assignment days within teachingDays and coverage of all teachingDays.
func ValidateConfiguration(candidates []Candidate, periodsPerDay int, teachingDays calendar.DaySet) ValidationResult {
	if errs := ValidateFormat(candidates); len(errs) > 0 {
		return newResult(errs)
	}

	var errs []string
	for _, c := range candidates {
		if c.Period < 1 || c.Period > periodsPerDay {
			errs = append(errs, fmt.Sprintf("Period %d: must be between 1 and %d", c.Period, periodsPerDay))
		}
		if !c.Target.IsValid() {
			errs = append(errs, fmt.Sprintf("Period %d: %v", c.Period, ErrInvalidTarget))
		}
		if extra := daySet(c).Difference(teachingDays); !extra.IsEmpty() {
			errs = append(errs, fmt.Sprintf("Period %d: %s not in the configuration's teaching days", c.Period, extra))
		}
	}
	errs = append(errs, ValidateConflicts(candidates)...)
	if len(candidates) == 0 {
		errs = append(errs, msgNoTeachingDays)
	}
	errs = append(errs, CoverageAgainst(candidates, periodsPerDay, teachingDays)...)
	return newResult(errs)
}

func daySet(c Candidate) calendar.DaySet {
	return calendar.InspectDayNames(c.Days).Set
}

func groupByPeriod(candidates []Candidate) map[int][]Candidate {
	byPeriod := make(map[int][]Candidate)
	for _, c := range candidates {
		byPeriod[c.Period] = append(byPeriod[c.Period], c)
	}
	return byPeriod
}

func sortedPeriods(byPeriod map[int][]Candidate) []int {
	periods := make([]int, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	return periods
}

// joinLabels renders "A and B" or "A, B and C".
func joinLabels(labels []string) string {
	if len(labels) < 2 {
		return strings.Join(labels, "")
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
}
