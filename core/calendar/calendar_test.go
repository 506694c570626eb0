package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Weekday
		wantErr bool
	}{
		{name: "canonical", in: "Monday", want: Monday},
		{name: "lower case", in: "wednesday", want: Wednesday},
		{name: "upper case padded", in: "  SUNDAY ", want: Sunday},
		{name: "abbreviation", in: "Mon", wantErr: true},
		{name: "typo", in: "Tusday", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekday() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWeekday() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2024-09-02 is a Monday
	start := Date(2024, time.September, 2)
	for i, want := range AllWeekdays {
		got := WeekdayOf(start.AddDate(0, 0, i))
		assert.Equal(t, want, got)
		assert.Equal(t, start.AddDate(0, 0, i).Weekday(), got.TimeWeekday())
	}
}

func TestParseDaySet(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    DaySet
		wantErr bool
	}{
		{name: "school week", in: []string{"Friday", "monday", "Tuesday", "Thursday", "WEDNESDAY"}, want: SchoolWeek},
		{name: "blanks dropped", in: []string{"Monday", " ", ""}, want: NewDaySet(Monday)},
		{name: "only blanks", in: []string{" ", ""}, wantErr: true},
		{name: "nil", in: nil, wantErr: true},
		{name: "invalid name", in: []string{"Monday", "Funday"}, wantErr: true},
		{name: "duplicate", in: []string{"Monday", "monday"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDaySet(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDaySet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDaySet() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInspectDayNames(t *testing.T) {
	dn := InspectDayNames([]string{"Monday", "Funday", "monday", "MONDAY", "Tuesday", "Tuesday"})
	assert.False(t, dn.OK())
	assert.False(t, dn.Blank)
	assert.Equal(t, []string{"Funday"}, dn.Invalid)
	assert.Equal(t, []string{"Monday", "Tuesday"}, dn.Duplicates)
	assert.Equal(t, NewDaySet(Monday, Tuesday), dn.Set)
}

func TestDaySet_RoundTrip(t *testing.T) {
	// every subset of the week survives format -> parse unchanged
	for mask := 1; mask < 1<<7; mask++ {
		var set DaySet
		for i, d := range AllWeekdays {
			if mask&(1<<i) != 0 {
				set = set.Add(d)
			}
		}

		names := set.Strings()
		got, err := ParseDaySet(names)
		require.NoError(t, err)
		assert.Equal(t, set, got)
		assert.Equal(t, names, got.Strings())

		for i := 1; i < len(names); i++ {
			prev, _ := ParseWeekday(names[i-1])
			cur, _ := ParseWeekday(names[i])
			assert.Less(t, int(prev), int(cur), "days not in canonical order: %v", names)
		}
	}
}

func TestDaySet_SetOperations(t *testing.T) {
	mwf := NewDaySet(Monday, Wednesday, Friday)
	tt := NewDaySet(Tuesday, Thursday)

	assert.Equal(t, SchoolWeek, mwf.Union(tt))
	assert.Equal(t, NewDaySet(Tuesday, Thursday), SchoolWeek.Difference(mwf))
	assert.True(t, mwf.IsSubsetOf(SchoolWeek))
	assert.False(t, SchoolWeek.IsSubsetOf(mwf))
	assert.True(t, DaySet(0).IsSubsetOf(mwf))
	assert.True(t, mwf.Intersect(tt).IsEmpty())
	assert.Equal(t, 3, mwf.Len())
	assert.Equal(t, "Monday, Wednesday, Friday", mwf.String())
	assert.Equal(t, NewDaySet(Friday, Monday, Wednesday), mwf, "equality must not depend on insertion order")
	assert.Equal(t, mwf, mwf.Add(Weekday(0)).Add(Weekday(9)))
}

func TestDaySet_JSON(t *testing.T) {
	set := NewDaySet(Thursday, Monday)
	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["Monday","Thursday"]`, string(data))

	var got DaySet
	require.NoError(t, json.Unmarshal([]byte(`["thursday","MONDAY"]`), &got))
	assert.Equal(t, set, got)

	assert.Error(t, json.Unmarshal([]byte(`["Someday"]`), &got))
	assert.Error(t, json.Unmarshal([]byte(`[]`), &got))
}

func TestDaySet_ValueScan(t *testing.T) {
	set := NewDaySet(Tuesday, Friday)
	val, err := set.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"Tuesday","Friday"}`, val)

	var got DaySet
	require.NoError(t, got.Scan([]byte(`{Tuesday,Friday}`)))
	assert.Equal(t, set, got)

	require.NoError(t, got.Scan([]byte(`{}`)))
	assert.True(t, got.IsEmpty())
}

func TestSchoolDays(t *testing.T) {
	start := Date(2024, time.September, 2) // Monday
	end := Date(2024, time.September, 15)  // Sunday, two weeks later
	holidays := NewHolidays()
	holidays.Add(Date(2024, time.September, 11), "Staff day")

	got := SchoolDays(start, end, NewDaySet(Monday, Wednesday, Saturday), holidays)
	want := []time.Time{
		Date(2024, time.September, 2),
		Date(2024, time.September, 4),
		Date(2024, time.September, 9),
	}
	assert.Equal(t, want, got)

	assert.Empty(t, SchoolDays(end, start, SchoolWeek, nil))
}

func TestHolidays_Dates(t *testing.T) {
	h := NewHolidays()
	h.Add(time.Date(2024, time.December, 25, 15, 30, 0, 0, time.UTC), "Christmas")
	h.Add(Date(2024, time.November, 28), "Thanksgiving")

	assert.True(t, h.Contains(Date(2024, time.December, 25)))
	assert.Equal(t, []time.Time{Date(2024, time.November, 28), Date(2024, time.December, 25)}, h.Dates())
}

func TestComputeLabel(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{name: "academic year", start: Date(2024, 9, 1), end: Date(2025, 6, 15), want: "2024-2025"},
		{name: "academic year from august to may", start: Date(2024, 8, 20), end: Date(2025, 5, 30), want: "2024-2025"},
		{name: "august to june same year", start: Date(2024, 8, 1), end: Date(2024, 6, 30), want: "Instructional Period 2024 to 2024"},
		{name: "fall semester", start: Date(2024, 9, 1), end: Date(2024, 12, 20), want: "Fall Semester 2024"},
		{name: "fall semester from october", start: Date(2024, 10, 1), end: Date(2024, 11, 30), want: "Fall Semester 2024"},
		{name: "fall semester into january", start: Date(2024, 8, 26), end: Date(2025, 1, 17), want: "Fall Semester 2024"},
		{name: "october to june falls through", start: Date(2024, 10, 1), end: Date(2025, 6, 1), want: "Instructional Period 2024 to 2025"},
		{name: "spring semester", start: Date(2024, 2, 1), end: Date(2024, 6, 10), want: "Spring Semester 2024"},
		{name: "spring semester from january", start: Date(2025, 1, 6), end: Date(2025, 5, 23), want: "Spring Semester 2025"},
		{name: "march start is not spring", start: Date(2024, 3, 1), end: Date(2024, 6, 1), want: "Instructional Period 2024 to 2024"},
		{name: "summer session", start: Date(2024, 6, 10), end: Date(2024, 8, 2), want: "Summer Session 2024"},
		{name: "summer session from may", start: Date(2024, 5, 20), end: Date(2024, 7, 31), want: "Summer Session 2024"},
		{name: "instructional period", start: Date(2024, 3, 1), end: Date(2024, 4, 1), want: "Instructional Period 2024 to 2024"},
		{name: "multi year", start: Date(2023, 4, 1), end: Date(2025, 4, 1), want: "Instructional Period 2023 to 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeLabel(tt.start, tt.end); got != tt.want {
				t.Errorf("ComputeLabel() = %v, want %v", got, tt.want)
			}
		})
	}
}
