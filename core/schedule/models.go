package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/calendar"
)

const MaxPeriodsPerDay = 10

type PeriodAssignment struct {
	ID              int64           `json:"id"`
	Period          int             `json:"period"`
	Target          Target          `json:"target"`
	TeachingDays    calendar.DaySet `json:"teaching_days"`
	Room            string          `json:"room,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	BackgroundColor string          `json:"background_color,omitempty"`
	ForegroundColor string          `json:"foreground_color,omitempty"`
}

func (pa PeriodAssignment) Candidate() Candidate {
	return Candidate{Period: pa.Period, Target: pa.Target, Days: pa.TeachingDays.Strings()}
}

type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Configuration owns the period assignments a schedule is generated from.
type Configuration struct {
	ID            int64              `json:"id"`
	UserID        string             `json:"user_id"`
	Name          string             `json:"name"`
	PeriodsPerDay int                `json:"periods_per_day"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	TeachingDays  calendar.DaySet    `json:"teaching_days"`
	IsActive      bool               `json:"is_active"`
	IsTemplate    bool               `json:"is_template"`
	SchoolYear    string             `json:"school_year"`
	Assignments   []PeriodAssignment `json:"assignments"`
	Holidays      []Holiday          `json:"holidays"`
	CreatedAt     time.Time          `json:"created_at"` // UTC
	UpdatedAt     time.Time          `json:"updated_at"` // UTC
}

func (c Configuration) Candidates() []Candidate {
	cands := make([]Candidate, 0, len(c.Assignments))
	for _, pa := range c.Assignments {
		cands = append(cands, pa.Candidate())
	}
	return cands
}

// Check validates the stored assignments against the configuration.
func (c Configuration) Check() ValidationResult {
	return ValidateConfiguration(c.Candidates(), c.PeriodsPerDay, c.TeachingDays)
}

// Incomplete lists the periods that leave some of the configuration's teaching days uncovered.
func (c Configuration) Incomplete() []string {
	return CoverageAgainst(c.Candidates(), c.PeriodsPerDay, c.TeachingDays)
}

func (c Configuration) IsComplete() bool {
	return len(c.Incomplete()) == 0
}

// AssignmentFor returns the assignment of period on day. Validated configurations have at most one.
func (c Configuration) AssignmentFor(period int, day calendar.Weekday) (PeriodAssignment, bool) {
	for _, pa := range c.Assignments {
		if pa.Period == period && pa.TeachingDays.Contains(day) {
			return pa, true
		}
	}
	return PeriodAssignment{}, false
}

// CourseIDs lists the distinct courses assigned, in first-seen order.
func (c Configuration) CourseIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, pa := range c.Assignments {
		if id, ok := pa.Target.CourseID(); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (c Configuration) HolidaySet() calendar.Holidays {
	h := calendar.NewHolidays()
	for _, hol := range c.Holidays {
		h.Add(hol.Date, hol.Name)
	}
	return h
}

// SchoolDays lists the dates a schedule is generated for.
func (c Configuration) SchoolDays() []time.Time {
	return calendar.SchoolDays(c.StartDate, c.EndDate, c.TeachingDays, c.HolidaySet())
}

// NewAssignment is a period assignment as submitted by a user. Day names are checked by the assignment validator.
type NewAssignment struct {
	Period          int      `json:"period" validate:"required,min=1,max=10"`
	Target          Target   `json:"target"`
	TeachingDays    []string `json:"teaching_days"`
	Room            string   `json:"room" validate:"max=64"`
	Notes           string   `json:"notes"`
	BackgroundColor string   `json:"background_color" validate:"omitempty,hexcolor"`
	ForegroundColor string   `json:"foreground_color" validate:"omitempty,hexcolor"`
}

func (na NewAssignment) Candidate() Candidate {
	return Candidate{Period: na.Period, Target: na.Target, Days: na.TeachingDays}
}

func (na NewAssignment) assignment() PeriodAssignment {
	return PeriodAssignment{
		Period:          na.Period,
		Target:          na.Target,
		TeachingDays:    calendar.InspectDayNames(na.TeachingDays).Set,
		Room:            core.CleanString(na.Room),
		Notes:           core.CleanString(na.Notes),
		BackgroundColor: na.BackgroundColor,
		ForegroundColor: na.ForegroundColor,
	}
}

type NewHoliday struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"max=255"`
}

// NewConfiguration contains information needed to create a new Configuration.
type NewConfiguration struct {
	Name          string          `json:"name" validate:"required,notblank,max=255"`
	PeriodsPerDay int             `json:"periods_per_day" validate:"required,min=1,max=10"`
	StartDate     string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	TeachingDays  []string        `json:"teaching_days" validate:"required,min=1,dive,required,weekday"`
	IsActive      bool            `json:"is_active"`
	IsTemplate    bool            `json:"is_template"`
	Assignments   []NewAssignment `json:"assignments" validate:"dive"`
	Holidays      []NewHoliday    `json:"holidays" validate:"dive"`
}

func (nc *NewConfiguration) Candidates() []Candidate {
	cands := make([]Candidate, 0, len(nc.Assignments))
	for _, na := range nc.Assignments {
		cands = append(cands, na.Candidate())
	}
	return cands
}

// Validate checks the payload, then the period assignments as a whole.
func (nc *NewConfiguration) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)

	if err := validate.Struct(nc); err != nil {
		return err
	}

	start, _ := calendar.ParseDate(nc.StartDate)
	end, _ := calendar.ParseDate(nc.EndDate)
	if !start.Before(end) {
		return core.NewValidationError(
			ErrInvalidDateRange,
			core.FieldError{Field: "end_date", Error: ErrInvalidDateRange.Error()},
		)
	}

	days, err := calendar.ParseDaySet(nc.TeachingDays)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "teaching_days", Error: err.Error()})
	}

	if res := ValidateConfiguration(nc.Candidates(), nc.PeriodsPerDay, days); !res.IsValid {
		return core.NewValidationErrorList(ErrInvalidAssignments, res.Errors)
	}
	return nil
}

// configuration builds the aggregate from a payload that passed Validate.
func (nc *NewConfiguration) configuration() Configuration {
	start, _ := calendar.ParseDate(nc.StartDate)
	end, _ := calendar.ParseDate(nc.EndDate)
	days, _ := calendar.ParseDaySet(nc.TeachingDays)

	conf := Configuration{
		Name:          nc.Name,
		PeriodsPerDay: nc.PeriodsPerDay,
		StartDate:     start,
		EndDate:       end,
		TeachingDays:  days,
		IsActive:      nc.IsActive,
		IsTemplate:    nc.IsTemplate,
		SchoolYear:    calendar.ComputeLabel(start, end),
		Assignments:   make([]PeriodAssignment, 0, len(nc.Assignments)),
		Holidays:      make([]Holiday, 0, len(nc.Holidays)),
	}
	for _, na := range nc.Assignments {
		conf.Assignments = append(conf.Assignments, na.assignment())
	}
	for _, nh := range nc.Holidays {
		date, _ := calendar.ParseDate(nh.Date)
		conf.Holidays = append(conf.Holidays, Holiday{Date: date, Name: core.CleanString(nh.Name)})
	}
	return conf
}

// UpdateConfiguration replaces a configuration wholesale: its assignment and holiday lists are not merged.
type UpdateConfiguration = NewConfiguration

// CheckRequest is a dry-run of the assignment validator.
type CheckRequest struct {
	PeriodsPerDay int             `json:"periods_per_day" validate:"required,min=1,max=10"`
	TeachingDays  []string        `json:"teaching_days"`
	Assignments   []NewAssignment `json:"assignments"`
}

type QueryFilter struct {
	IsActive   *bool
	IsTemplate *bool
}
