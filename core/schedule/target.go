package schedule

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Duty is a fixed, non-course activity a period can be assigned to.
type Duty int

const (
	Lunch Duty = iota + 1
	HallDuty
	CafeteriaDuty
	StudyHall
	Prep
	OtherDuty
)

var (
	ErrInvalidDuty   = errors.New("invalid duty")
	ErrInvalidTarget = errors.New("an assignment needs exactly one of course_id or duty")

	dutyNames = [...]string{"", "Lunch", "HallDuty", "CafeteriaDuty", "StudyHall", "Prep", "OtherDuty"}

	AllDuties = []Duty{Lunch, HallDuty, CafeteriaDuty, StudyHall, Prep, OtherDuty}
)

func (d Duty) IsValid() bool { return d >= Lunch && d <= OtherDuty }

func (d Duty) String() string {
	if !d.IsValid() {
		return "Duty(" + strconv.Itoa(int(d)) + ")"
	}
	return dutyNames[d]
}

func ParseDuty(s string) (Duty, error) {
	name := strings.TrimSpace(s)
	for _, d := range AllDuties {
		if strings.EqualFold(name, dutyNames[d]) {
			return d, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidDuty, "%q", s)
}

func (d Duty) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, ErrInvalidDuty
	}
	return []byte(d.String()), nil
}

func (d *Duty) UnmarshalText(text []byte) error {
	duty, err := ParseDuty(string(text))
	if err != nil {
		return err
	}
	*d = duty
	return nil
}

// Target is what a period is spent on: a course or a duty, never both.
// The zero Target is invalid.
type Target struct {
	courseID int64
	duty     Duty
}

func CourseTarget(courseID int64) Target { return Target{courseID: courseID} }
func DutyTarget(duty Duty) Target        { return Target{duty: duty} }

func (t Target) CourseID() (int64, bool) { return t.courseID, t.courseID > 0 }
func (t Target) Duty() (Duty, bool)      { return t.duty, t.duty.IsValid() }
func (t Target) IsCourse() bool          { return t.courseID > 0 }

func (t Target) IsValid() bool {
	return (t.courseID > 0 && t.duty == 0) || (t.courseID == 0 && t.duty.IsValid())
}

// Label is the human name used in validation messages, e.g. "Course 12" or "Lunch".
func (t Target) Label() string {
	switch {
	case t.courseID > 0:
		return "Course " + strconv.FormatInt(t.courseID, 10)
	case t.duty.IsValid():
		return t.duty.String()
	default:
		return "Unassigned"
	}
}

func (t Target) String() string { return t.Label() }

// StorageID encodes the target in a single integer column: course ids as-is, duties as -1 (Lunch) to -6 (OtherDuty).
func (t Target) StorageID() int64 {
	if t.courseID > 0 {
		return t.courseID
	}
	return -int64(t.duty)
}

func TargetFromStorageID(id int64) (Target, error) {
	if id > 0 {
		return CourseTarget(id), nil
	}
	duty := Duty(-id)
	if !duty.IsValid() {
		return Target{}, errors.Wrapf(ErrInvalidTarget, "storage id %d", id)
	}
	return DutyTarget(duty), nil
}

type targetJSON struct {
	CourseID int64  `json:"course_id,omitempty"`
	Duty     string `json:"duty,omitempty"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	var tj targetJSON
	if t.courseID > 0 {
		tj.CourseID = t.courseID
	} else if t.duty.IsValid() {
		tj.Duty = t.duty.String()
	}
	return json.Marshal(tj)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var tj targetJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	switch {
	case tj.CourseID != 0 && tj.Duty != "":
		return ErrInvalidTarget
	case tj.CourseID > 0:
		*t = CourseTarget(tj.CourseID)
	case tj.Duty != "":
		duty, err := ParseDuty(tj.Duty)
		if err != nil {
			return err
		}
		*t = DutyTarget(duty)
	default:
		return ErrInvalidTarget
	}
	return nil
}
