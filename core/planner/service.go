package planner

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
)

var (
	// errors
	ErrNotGeneratable   = errors.New("the configuration cannot generate a schedule")
	ErrTooManyDays      = errors.New("the requested date range is too long")
	ErrCourseNotInSched = errors.New("the course is not assigned in this configuration")
	ErrOutOfRange       = errors.New("the date is outside the configuration's date range")
	ErrEndBeforeStart   = errors.New("end_date must not be before start_date")
	ErrDaysAndEndDate   = errors.New("give either days or end_date, not both")
)

const scheduleGeneratedTemplate = "schedule_generated"

type (
	// LessonSource lists the lesson ids of a course in teaching order.
	LessonSource interface {
		OrderedLessons(ctx context.Context, userID string, courseID int64) ([]int64, error)
	}

	ConfigurationSource interface {
		GetConfiguration(ctx context.Context, userID string, id int64) (schedule.Configuration, error)
	}

	EventRepository interface {
		// ReplaceEvents drops every event of the configuration and stores events instead.
		ReplaceEvents(ctx context.Context, configID int64, events []Event) error
		// ReplaceEventsFrom drops the course's events on or after from and stores events instead.
		ReplaceEventsFrom(ctx context.Context, configID, courseID int64, from time.Time, events []Event) error
		QueryEvents(ctx context.Context, configID int64, filter EventFilter) ([]Event, error)
	}

	UserFinder interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		configs  ConfigurationSource
		lessons  LessonSource
		events   EventRepository
		users    UserFinder
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
		maxDays  int
	}

	Deps struct {
		Conf     *core.Config
		Logger   core.Logger
		Validate *validator.Validate
		Configs  ConfigurationSource
		Lessons  LessonSource
		Events   EventRepository
		Users    UserFinder
		MailSvc  core.EmailService
	}
)

func NewService(deps Deps) *Service {
	return &Service{
		configs:  deps.Configs,
		lessons:  deps.Lessons,
		events:   deps.Events,
		users:    deps.Users,
		mailSvc:  deps.MailSvc,
		logger:   deps.Logger,
		validate: deps.Validate,
		maxDays:  deps.Conf.Planner.MaxGenerationDays,
	}
}

// loadGeneratable loads a configuration and checks that a schedule can be generated from it.
func (svc *Service) loadGeneratable(ctx context.Context, userID string, configID int64) (schedule.Configuration, error) {
	conf, err := svc.configs.GetConfiguration(ctx, userID, configID)
	if err != nil {
		return schedule.Configuration{}, errors.Wrapf(err, "loading configuration %d", configID)
	}
	if res := conf.Check(); !res.IsValid {
		return schedule.Configuration{}, core.NewValidationErrorList(ErrNotGeneratable, res.Errors)
	}
	if err = svc.checkSpan(conf.StartDate, conf.EndDate); err != nil {
		return schedule.Configuration{}, err
	}
	return conf, nil
}

func (svc *Service) checkSpan(start, end time.Time) error {
	if svc.maxDays > 0 && CalendarDays(start, end) > svc.maxDays {
		msg := fmt.Sprintf("%v (max %d days)", ErrTooManyDays, svc.maxDays)
		return core.NewValidationErrorList(ErrTooManyDays, []string{msg})
	}
	return nil
}

func (svc *Service) lessonsByCourse(ctx context.Context, userID string, courseIDs []int64) (map[int64][]int64, error) {
	lessons := make(map[int64][]int64, len(courseIDs))
	for _, id := range courseIDs {
		ids, err := svc.lessons.OrderedLessons(ctx, userID, id)
		if err != nil {
			return nil, errors.Wrapf(err, "loading lessons of course %d", id)
		}
		lessons[id] = ids
	}
	return lessons, nil
}

// Generate rebuilds the whole schedule of a configuration, replacing any previous events.
func (svc *Service) Generate(ctx context.Context, userID string, configID int64) (Summary, error) {
	conf, err := svc.loadGeneratable(ctx, userID, configID)
	if err != nil {
		return Summary{}, err
	}
	lessons, err := svc.lessonsByCourse(ctx, userID, conf.CourseIDs())
	if err != nil {
		return Summary{}, err
	}

	events := GenerateConfiguration(conf, lessons, Options{})
	if err = svc.events.ReplaceEvents(ctx, conf.ID, events); err != nil {
		return Summary{}, errors.Wrap(err, "saving events")
	}

	summary := Summarize(conf.ID, events)
	svc.logger.Info(
		fmt.Sprintf("schedule generated for configuration %d: %d events, %d errors", conf.ID, summary.Events, summary.Errors),
		map[string]interface{}{"user_id": userID, "configuration_id": conf.ID},
	)
	svc.notify(ctx, userID, conf, summary)
	return summary, nil
}

// ContinueCourse regenerates one course from a date on, picking up the lesson sequence where the earlier events left it.
func (svc *Service) ContinueCourse(ctx context.Context, userID string, configID int64, req ContinueRequest) (Summary, error) {
	if err := svc.validate.Struct(req); err != nil {
		return Summary{}, err
	}
	conf, err := svc.loadGeneratable(ctx, userID, configID)
	if err != nil {
		return Summary{}, err
	}

	from, _ := calendar.ParseDate(req.From)
	if from.Before(conf.StartDate) || from.After(conf.EndDate) {
		return Summary{}, core.NewValidationError(ErrOutOfRange, core.FieldError{Field: "from", Error: ErrOutOfRange.Error()})
	}
	if !containsID(conf.CourseIDs(), req.CourseID) {
		return Summary{}, core.NewValidationError(
			ErrCourseNotInSched,
			core.FieldError{Field: "course_id", Error: ErrCourseNotInSched.Error()},
		)
	}

	lessons, err := svc.lessonsByCourse(ctx, userID, []int64{req.CourseID})
	if err != nil {
		return Summary{}, err
	}
	earlier, err := svc.events.QueryEvents(ctx, conf.ID, EventFilter{CourseID: req.CourseID, To: from.AddDate(0, 0, -1)})
	if err != nil {
		return Summary{}, errors.Wrap(err, "loading earlier events")
	}

	start := ResumeIndex(earlier, lessons[req.CourseID], from)
	all := GenerateConfiguration(conf, lessons, Options{From: from, Cursors: map[int64]int{req.CourseID: start}})

	events := make([]Event, 0, len(all))
	for _, ev := range all {
		if ev.CourseID == req.CourseID {
			events = append(events, ev)
		}
	}
	if err = svc.events.ReplaceEventsFrom(ctx, conf.ID, req.CourseID, from, events); err != nil {
		return Summary{}, errors.Wrap(err, "saving events")
	}
	return Summarize(conf.ID, events), nil
}

// Events lists the stored events of a configuration owned by userID.
func (svc *Service) Events(ctx context.Context, userID string, configID int64, filter EventFilter) ([]Event, error) {
	if _, err := svc.configs.GetConfiguration(ctx, userID, configID); err != nil {
		return nil, errors.Wrapf(err, "loading configuration %d", configID)
	}
	return svc.events.QueryEvents(ctx, configID, filter)
}

// Preview lays out a single course over a date window without saving anything.
func (svc *Service) Preview(ctx context.Context, userID string, req PreviewRequest) ([]Event, error) {
	if err := svc.validate.Struct(req); err != nil {
		return nil, err
	}
	start, _ := calendar.ParseDate(req.StartDate)
	days := req.Days
	if req.EndDate != "" {
		if req.Days != 0 {
			return nil, core.NewValidationError(ErrDaysAndEndDate, core.FieldError{Field: "days", Error: ErrDaysAndEndDate.Error()})
		}
		end, _ := calendar.ParseDate(req.EndDate)
		if end.Before(start) {
			return nil, core.NewValidationError(ErrEndBeforeStart, core.FieldError{Field: "end_date", Error: ErrEndBeforeStart.Error()})
		}
		days = CalendarDays(start, end)
	}
	if svc.maxDays > 0 && days > svc.maxDays {
		return nil, svc.checkSpan(start, start.AddDate(0, 0, days-1))
	}

	lessons, err := svc.lessonsByCourse(ctx, userID, []int64{req.CourseID})
	if err != nil {
		return nil, err
	}
	events := Generate(lessons[req.CourseID], start, days)
	for i := range events {
		events[i].CourseID = req.CourseID
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

func (svc *Service) notify(ctx context.Context, userID string, conf schedule.Configuration, summary Summary) {
	if svc.mailSvc == nil || svc.users == nil {
		return
	}
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("loading user %s for notification: %v", userID, err), err)
		return
	}
	if usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your schedule is ready",
		TemplateName: scheduleGeneratedTemplate,
		TemplateData: map[string]interface{}{
			"Name":              usr.Name,
			"ConfigurationName": conf.Name,
			"SchoolYear":        conf.SchoolYear,
			"LessonCount":       summary.Lessons,
			"DutyCount":         summary.Duties,
			"ErrorCount":        summary.Errors,
		},
	})
}

func containsID(ids []int64, id int64) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
