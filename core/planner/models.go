package planner

import (
	"time"
)

type EventKind string

const (
	KindLesson EventKind = "lesson"
	KindDuty   EventKind = "duty"
	// KindOverflow marks a slot no period assignment covers.
	KindOverflow EventKind = "OverflowError"
	// KindUnderflow marks a course slot for a course without lessons.
	KindUnderflow EventKind = "UnderflowError"
)

func (k EventKind) IsValid() bool {
	switch k {
	case KindLesson, KindDuty, KindOverflow, KindUnderflow:
		return true
	}
	return false
}

func (k EventKind) IsError() bool {
	return k == KindOverflow || k == KindUnderflow
}

// Event is one generated (date, period) slot.
type Event struct {
	ID              int64     `json:"id"`
	ConfigurationID int64     `json:"configuration_id,omitempty"`
	Date            time.Time `json:"date"`
	Period          int       `json:"period,omitempty"`
	Kind            EventKind `json:"kind"`
	CourseID        int64     `json:"course_id,omitempty"`
	LessonID        int64     `json:"lesson_id,omitempty"`
	Duty            string    `json:"duty,omitempty"`
}

type EventFilter struct {
	From     time.Time
	To       time.Time // included
	CourseID int64
}

// Match reports whether ev passes the filter.
func (f EventFilter) Match(ev Event) bool {
	if !f.From.IsZero() && ev.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ev.Date.After(f.To) {
		return false
	}
	return f.CourseID == 0 || ev.CourseID == f.CourseID
}

// Summary counts the events of a generation run.
type Summary struct {
	ConfigurationID int64     `json:"configuration_id"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	Events          int       `json:"events"`
	Lessons         int       `json:"lessons"`
	Duties          int       `json:"duties"`
	Errors          int       `json:"errors"`
}

func Summarize(configID int64, events []Event) Summary {
	s := Summary{ConfigurationID: configID, Events: len(events)}
	for i, ev := range events {
		if i == 0 || ev.Date.Before(s.From) {
			s.From = ev.Date
		}
		if ev.Date.After(s.To) {
			s.To = ev.Date
		}
		switch {
		case ev.Kind == KindLesson:
			s.Lessons++
		case ev.Kind == KindDuty:
			s.Duties++
		case ev.Kind.IsError():
			s.Errors++
		}
	}
	return s
}

type PreviewRequest struct {
	CourseID  int64  `json:"course_id" validate:"required,min=1"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Days      int    `json:"days" validate:"required_without=EndDate,omitempty,min=1"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type ContinueRequest struct {
	CourseID int64  `json:"course_id" validate:"required,min=1"`
	From     string `json:"from" validate:"required,datetime=2006-01-02"`
}
