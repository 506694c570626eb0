package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/schedule"
)

const configurationColumns = "id, user_id, name, periods_per_day, start_date, end_date, teaching_days, is_active, " +
	"is_template, school_year, created_at, updated_at"

type (
	configurationRow struct {
		ID            int64           `db:"id"`
		UserID        string          `db:"user_id"`
		Name          string          `db:"name"`
		PeriodsPerDay int             `db:"periods_per_day"`
		StartDate     time.Time       `db:"start_date"`
		EndDate       time.Time       `db:"end_date"`
		TeachingDays  calendar.DaySet `db:"teaching_days"`
		IsActive      bool            `db:"is_active"`
		IsTemplate    bool            `db:"is_template"`
		SchoolYear    string          `db:"school_year"`
		CreatedAt     time.Time       `db:"created_at"`
		UpdatedAt     time.Time       `db:"updated_at"`
	}

	assignmentRow struct {
		ID              int64           `db:"id"`
		ConfigurationID int64           `db:"configuration_id"`
		Period          int             `db:"period"`
		TargetID        int64           `db:"target_id"`
		TeachingDays    calendar.DaySet `db:"teaching_days"`
		Room            null.String     `db:"room"`
		Notes           null.String     `db:"notes"`
		BackgroundColor string          `db:"background_color"`
		ForegroundColor string          `db:"foreground_color"`
		Position        int             `db:"position"`
	}

	holidayRow struct {
		ConfigurationID int64     `db:"configuration_id"`
		Date            time.Time `db:"date"`
		Name            string    `db:"name"`
	}
)

func toConfigurationRow(conf schedule.Configuration) configurationRow {
	return configurationRow{
		ID:            conf.ID,
		UserID:        conf.UserID,
		Name:          conf.Name,
		PeriodsPerDay: conf.PeriodsPerDay,
		StartDate:     calendar.DateOf(conf.StartDate),
		EndDate:       calendar.DateOf(conf.EndDate),
		TeachingDays:  conf.TeachingDays,
		IsActive:      conf.IsActive,
		IsTemplate:    conf.IsTemplate,
		SchoolYear:    conf.SchoolYear,
		CreatedAt:     conf.CreatedAt.UTC(),
		UpdatedAt:     conf.UpdatedAt.UTC(),
	}
}

func (r configurationRow) configuration() schedule.Configuration {
	return schedule.Configuration{
		ID:            r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		PeriodsPerDay: r.PeriodsPerDay,
		StartDate:     calendar.DateOf(r.StartDate),
		EndDate:       calendar.DateOf(r.EndDate),
		TeachingDays:  r.TeachingDays,
		IsActive:      r.IsActive,
		IsTemplate:    r.IsTemplate,
		SchoolYear:    r.SchoolYear,
		Assignments:   make([]schedule.PeriodAssignment, 0),
		Holidays:      make([]schedule.Holiday, 0),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (r assignmentRow) assignment() (schedule.PeriodAssignment, error) {
	target, err := schedule.TargetFromStorageID(r.TargetID)
	if err != nil {
		return schedule.PeriodAssignment{}, errors.Wrapf(err, "assignment %d", r.ID)
	}
	return schedule.PeriodAssignment{
		ID:              r.ID,
		Period:          r.Period,
		Target:          target,
		TeachingDays:    r.TeachingDays,
		Room:            r.Room.String,
		Notes:           r.Notes.String,
		BackgroundColor: r.BackgroundColor,
		ForegroundColor: r.ForegroundColor,
	}, nil
}

type scheduleRepository struct {
	db core.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db core.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

// loadChildren fills the assignments and holidays of confs, keyed by id.
func (repo *scheduleRepository) loadChildren(ctx context.Context, exec core.DBExecutor, confs map[int64]*schedule.Configuration) error {
	if len(confs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(confs))
	for id := range confs {
		ids = append(ids, id)
	}

	var assignments []assignmentRow
	err := exec.SelectContext(ctx, &assignments, `
		SELECT id, configuration_id, period, target_id, teaching_days, room, notes, background_color, foreground_color, position
		FROM period_assignments WHERE configuration_id = ANY($1) ORDER BY configuration_id, position, id`,
		pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "querying period assignments")
	}
	for _, r := range assignments {
		pa, err := r.assignment()
		if err != nil {
			return err
		}
		conf := confs[r.ConfigurationID]
		conf.Assignments = append(conf.Assignments, pa)
	}

	var holidays []holidayRow
	err = exec.SelectContext(ctx, &holidays,
		"SELECT configuration_id, date, name FROM holidays WHERE configuration_id = ANY($1) ORDER BY configuration_id, date",
		pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "querying holidays")
	}
	for _, r := range holidays {
		conf := confs[r.ConfigurationID]
		conf.Holidays = append(conf.Holidays, schedule.Holiday{Date: calendar.DateOf(r.Date), Name: r.Name})
	}
	return nil
}

func (repo *scheduleRepository) getOne(ctx context.Context, notFound error, cond string, args ...interface{}) (schedule.Configuration, error) {
	var row configurationRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+configurationColumns+" FROM schedule_configurations WHERE "+cond, args...)
	if err != nil {
		return schedule.Configuration{}, trapNoRowsErr(err, notFound, "finding configuration")
	}
	conf := row.configuration()
	if err = repo.loadChildren(ctx, repo.db, map[int64]*schedule.Configuration{conf.ID: &conf}); err != nil {
		return schedule.Configuration{}, err
	}
	return conf, nil
}

// insertChildren stores the assignments and holidays of conf, filling in the assignment ids.
func (repo *scheduleRepository) insertChildren(ctx context.Context, tx core.DBExecutor, conf *schedule.Configuration) error {
	for i := range conf.Assignments {
		pa := &conf.Assignments[i]
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO period_assignments
				(configuration_id, period, target_id, teaching_days, room, notes, background_color, foreground_color, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			conf.ID, pa.Period, pa.Target.StorageID(), pa.TeachingDays,
			null.NewString(pa.Room, pa.Room != ""), null.NewString(pa.Notes, pa.Notes != ""),
			pa.BackgroundColor, pa.ForegroundColor, i,
		).Scan(&pa.ID)
		if err != nil {
			return errors.Wrap(err, "inserting period assignment")
		}
	}
	for _, h := range conf.Holidays {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO holidays (configuration_id, date, name) VALUES ($1, $2, $3) ON CONFLICT (configuration_id, date) DO NOTHING",
			conf.ID, calendar.DateOf(h.Date), h.Name,
		)
		if err != nil {
			return errors.Wrap(err, "inserting holiday")
		}
	}
	return nil
}

func (repo *scheduleRepository) CreateConfiguration(ctx context.Context, conf schedule.Configuration) (schedule.Configuration, error) {
	conf.Assignments = append([]schedule.PeriodAssignment(nil), conf.Assignments...)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		id, err := insertReturningID(ctx, tx, `
			INSERT INTO schedule_configurations
				(user_id, name, periods_per_day, start_date, end_date, teaching_days, is_active, is_template, school_year,
				 created_at, updated_at)
			VALUES
				(:user_id, :name, :periods_per_day, :start_date, :end_date, :teaching_days, :is_active, :is_template,
				 :school_year, :created_at, :updated_at)
			RETURNING id`,
			toConfigurationRow(conf),
		)
		if err != nil {
			return errors.Wrap(err, "inserting configuration")
		}
		conf.ID = id
		return repo.insertChildren(ctx, tx, &conf)
	})
	if err != nil {
		return schedule.Configuration{}, err
	}
	return conf, nil
}

func (repo *scheduleRepository) GetConfiguration(ctx context.Context, userID string, id int64) (schedule.Configuration, error) {
	return repo.getOne(ctx, schedule.ErrNotFound, "user_id::text = $1 AND id = $2", userID, id)
}

func (repo *scheduleRepository) GetActiveConfiguration(ctx context.Context, userID string) (schedule.Configuration, error) {
	return repo.getOne(ctx, schedule.ErrNoActive, "user_id::text = $1 AND is_active", userID)
}

func configurationsQuery(userID string, filter schedule.QueryFilter) sq.SelectBuilder {
	q := psql.Select(configurationColumns).
		From("schedule_configurations").
		Where("user_id::text = ?", userID).
		OrderBy("id")
	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	if filter.IsTemplate != nil {
		q = q.Where(sq.Eq{"is_template": *filter.IsTemplate})
	}
	return q
}

func (repo *scheduleRepository) QueryConfigurations(ctx context.Context, userID string, filter schedule.QueryFilter) ([]schedule.Configuration, error) {
	var rows []configurationRow
	if err := selectBuilt(ctx, repo.db, &rows, configurationsQuery(userID, filter)); err != nil {
		return nil, errors.Wrap(err, "querying configurations")
	}

	confs := make([]schedule.Configuration, 0, len(rows))
	for _, r := range rows {
		confs = append(confs, r.configuration())
	}
	byID := make(map[int64]*schedule.Configuration, len(confs))
	for i := range confs {
		byID[confs[i].ID] = &confs[i]
	}
	if err := repo.loadChildren(ctx, repo.db, byID); err != nil {
		return nil, err
	}
	return confs, nil
}

func (repo *scheduleRepository) SaveReplacingAssignments(ctx context.Context, conf schedule.Configuration) (schedule.Configuration, error) {
	conf.Assignments = append([]schedule.PeriodAssignment(nil), conf.Assignments...)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE schedule_configurations SET
				name = :name, periods_per_day = :periods_per_day, start_date = :start_date, end_date = :end_date,
				teaching_days = :teaching_days, is_active = :is_active, is_template = :is_template,
				school_year = :school_year, updated_at = :updated_at
			WHERE id = :id AND user_id = :user_id`,
			toConfigurationRow(conf),
		)
		if err != nil {
			return errors.Wrap(err, "updating configuration")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return schedule.ErrNotFound
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM period_assignments WHERE configuration_id = $1", conf.ID); err != nil {
			return errors.Wrap(err, "deleting period assignments")
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM holidays WHERE configuration_id = $1", conf.ID); err != nil {
			return errors.Wrap(err, "deleting holidays")
		}
		return repo.insertChildren(ctx, tx, &conf)
	})
	if err != nil {
		return schedule.Configuration{}, err
	}
	return conf, nil
}

func (repo *scheduleRepository) SetActiveExclusive(ctx context.Context, userID string, id int64) error {
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		var found bool
		err := tx.GetContext(ctx, &found,
			"SELECT true FROM schedule_configurations WHERE user_id::text = $1 AND id = $2 FOR UPDATE", userID, id)
		if err != nil {
			return trapNoRowsErr(err, schedule.ErrNotFound, "finding configuration")
		}
		// deactivate first: the partial unique index allows one active row per user
		_, err = tx.ExecContext(ctx,
			"UPDATE schedule_configurations SET is_active = false WHERE user_id::text = $1 AND is_active AND id <> $2",
			userID, id)
		if err != nil {
			return errors.Wrap(err, "deactivating configurations")
		}
		if _, err = tx.ExecContext(ctx, "UPDATE schedule_configurations SET is_active = true WHERE id = $1", id); err != nil {
			return errors.Wrap(err, "activating configuration")
		}
		return nil
	})
}

func (repo *scheduleRepository) DeleteConfiguration(ctx context.Context, userID string, id int64) error {
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		var found bool
		err := tx.GetContext(ctx, &found,
			"SELECT true FROM schedule_configurations WHERE user_id::text = $1 AND id = $2 FOR UPDATE", userID, id)
		if err != nil {
			return trapNoRowsErr(err, schedule.ErrNotFound, "finding configuration")
		}
		for _, table := range []string{"schedule_events", "holidays", "period_assignments"} {
			if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE configuration_id = $1", id); err != nil {
				return errors.Wrapf(err, "deleting %s", table)
			}
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM schedule_configurations WHERE id = $1", id); err != nil {
			return errors.Wrap(err, "deleting configuration")
		}
		return nil
	})
}
