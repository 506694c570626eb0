package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/planner"
)

type eventRow struct {
	ID              int64       `db:"id"`
	ConfigurationID int64       `db:"configuration_id"`
	Date            time.Time   `db:"date"`
	Period          int         `db:"period"`
	Kind            string      `db:"kind"`
	CourseID        null.Int64  `db:"course_id"`
	LessonID        null.Int64  `db:"lesson_id"`
	Duty            null.String `db:"duty"`
}

func toEventRow(configID int64, ev planner.Event) eventRow {
	return eventRow{
		ConfigurationID: configID,
		Date:            calendar.DateOf(ev.Date),
		Period:          ev.Period,
		Kind:            string(ev.Kind),
		CourseID:        null.NewInt64(ev.CourseID, ev.CourseID != 0),
		LessonID:        null.NewInt64(ev.LessonID, ev.LessonID != 0),
		Duty:            null.NewString(ev.Duty, ev.Duty != ""),
	}
}

func (r eventRow) event() planner.Event {
	return planner.Event{
		ID:              r.ID,
		ConfigurationID: r.ConfigurationID,
		Date:            calendar.DateOf(r.Date),
		Period:          r.Period,
		Kind:            planner.EventKind(r.Kind),
		CourseID:        r.CourseID.Int64,
		LessonID:        r.LessonID.Int64,
		Duty:            r.Duty.String,
	}
}

type eventRepository struct {
	db core.DB
}

var _ planner.EventRepository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db core.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) insert(ctx context.Context, tx core.DBExecutor, configID int64, events []planner.Event) error {
	for _, ev := range events {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO schedule_events (configuration_id, date, period, kind, course_id, lesson_id, duty)
			VALUES (:configuration_id, :date, :period, :kind, :course_id, :lesson_id, :duty)`,
			toEventRow(configID, ev),
		)
		if err != nil {
			return errors.Wrap(err, "inserting event")
		}
	}
	return nil
}

func (repo *eventRepository) ReplaceEvents(ctx context.Context, configID int64, events []planner.Event) error {
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_events WHERE configuration_id = $1", configID); err != nil {
			return errors.Wrap(err, "deleting events")
		}
		return repo.insert(ctx, tx, configID, events)
	})
}

func (repo *eventRepository) ReplaceEventsFrom(ctx context.Context, configID, courseID int64, from time.Time, events []planner.Event) error {
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM schedule_events WHERE configuration_id = $1 AND course_id = $2 AND date >= $3",
			configID, courseID, calendar.DateOf(from),
		)
		if err != nil {
			return errors.Wrap(err, "deleting events")
		}
		return repo.insert(ctx, tx, configID, events)
	})
}

// eventsQuery selects the events of a configuration matching filter, in timetable order.
func eventsQuery(configID int64, filter planner.EventFilter) sq.SelectBuilder {
	q := psql.Select("id", "configuration_id", "date", "period", "kind", "course_id", "lesson_id", "duty").
		From("schedule_events").
		Where(sq.Eq{"configuration_id": configID}).
		OrderBy("date", "period", "id")
	if !filter.From.IsZero() {
		q = q.Where(sq.GtOrEq{"date": calendar.DateOf(filter.From)})
	}
	if !filter.To.IsZero() {
		q = q.Where(sq.LtOrEq{"date": calendar.DateOf(filter.To)})
	}
	if filter.CourseID != 0 {
		q = q.Where(sq.Eq{"course_id": filter.CourseID})
	}
	return q
}

func (repo *eventRepository) QueryEvents(ctx context.Context, configID int64, filter planner.EventFilter) ([]planner.Event, error) {
	var rows []eventRow
	if err := selectBuilt(ctx, repo.db, &rows, eventsQuery(configID, filter)); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}

	events := make([]planner.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.event())
	}
	return events, nil
}
