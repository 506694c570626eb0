package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

var ErrEmptyDaySet = errors.New("no teaching days specified")

// DaySet is a set of weekdays. The zero value is the empty set.
// Sets compare with == and always list their days in canonical order.
type DaySet uint8

// SchoolWeek is Monday through Friday.
const SchoolWeek = DaySet(1<<Monday | 1<<Tuesday | 1<<Wednesday | 1<<Thursday | 1<<Friday)

func NewDaySet(days ...Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// DayNames is the outcome of inspecting a raw list of day names.
type DayNames struct {
	Set        DaySet
	Invalid    []string // entries that are not day names, as given
	Duplicates []string // canonical names repeated within the list
	Blank      bool     // nothing left after dropping blank entries
}

func (dn DayNames) OK() bool {
	return !dn.Blank && len(dn.Invalid) == 0 && len(dn.Duplicates) == 0
}

// InspectDayNames parses names without failing fast. Blank entries are dropped.
func InspectDayNames(names []string) DayNames {
	var dn DayNames
	var seen DaySet
	var dupes DaySet
	nonBlank := 0

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		nonBlank++
		d, err := ParseWeekday(name)
		if err != nil {
			dn.Invalid = append(dn.Invalid, name)
			continue
		}
		if seen.Contains(d) {
			if !dupes.Contains(d) {
				dn.Duplicates = append(dn.Duplicates, d.String())
			}
			dupes = dupes.Add(d)
			continue
		}
		seen = seen.Add(d)
	}

	dn.Set = seen
	dn.Blank = nonBlank == 0
	return dn
}

// ParseDaySet builds a non-empty set from day names. Invalid or repeated names are rejected.
func ParseDaySet(names []string) (DaySet, error) {
	dn := InspectDayNames(names)
	switch {
	case dn.Blank:
		return 0, ErrEmptyDaySet
	case len(dn.Invalid) > 0:
		return 0, errors.Wrapf(ErrInvalidWeekday, "%s", strings.Join(dn.Invalid, ", "))
	case len(dn.Duplicates) > 0:
		return 0, errors.Errorf("duplicate day(s): %s", strings.Join(dn.Duplicates, ", "))
	}
	return dn.Set, nil
}

func (s DaySet) Add(d Weekday) DaySet {
	if !d.IsValid() {
		return s
	}
	return s | 1<<uint(d)
}

func (s DaySet) Contains(d Weekday) bool {
	return d.IsValid() && s&(1<<uint(d)) != 0
}

func (s DaySet) Union(other DaySet) DaySet      { return s | other }
func (s DaySet) Intersect(other DaySet) DaySet  { return s & other }
func (s DaySet) Difference(other DaySet) DaySet { return s &^ other }
func (s DaySet) IsSubsetOf(other DaySet) bool   { return s&^other == 0 }
func (s DaySet) IsEmpty() bool                  { return s == 0 }

func (s DaySet) Len() int {
	n := 0
	for _, d := range AllWeekdays {
		if s.Contains(d) {
			n++
		}
	}
	return n
}

// Days returns the members in canonical order.
func (s DaySet) Days() []Weekday {
	days := make([]Weekday, 0, s.Len())
	for _, d := range AllWeekdays {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s DaySet) Strings() []string {
	names := make([]string, 0, s.Len())
	for _, d := range s.Days() {
		names = append(names, d.String())
	}
	return names
}

func (s DaySet) String() string {
	return strings.Join(s.Strings(), ", ")
}

func (s DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *DaySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set, err := ParseDaySet(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// Value stores the set as a Postgres text[].
func (s DaySet) Value() (driver.Value, error) {
	return pq.StringArray(s.Strings()).Value()
}

func (s *DaySet) Scan(src interface{}) error {
	var names pq.StringArray
	if err := names.Scan(src); err != nil {
		return errors.Wrap(err, "scanning day set")
	}
	if len(names) == 0 {
		*s = 0
		return nil
	}
	set, err := ParseDaySet(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
