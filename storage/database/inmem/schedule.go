package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/lessonplan/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db.schedule}
}

// clone copies conf so callers never share slices with the table.
func clone(conf schedule.Configuration) schedule.Configuration {
	conf.Assignments = append(make([]schedule.PeriodAssignment, 0, len(conf.Assignments)), conf.Assignments...)
	conf.Holidays = append(make([]schedule.Holiday, 0, len(conf.Holidays)), conf.Holidays...)
	return conf
}

func (repo *scheduleRepository) setAssignmentIDs(conf *schedule.Configuration) {
	for i := range conf.Assignments {
		repo.db.subPK++
		conf.Assignments[i].ID = repo.db.subPK
	}
}

func (repo *scheduleRepository) get(userID string, id int64) (*schedule.Configuration, bool) {
	conf, ok := repo.db.table[id]
	if !ok || conf.UserID != userID {
		return nil, false
	}
	return conf, true
}

func (repo *scheduleRepository) CreateConfiguration(_ context.Context, conf schedule.Configuration) (schedule.Configuration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.pk++
	conf = clone(conf)
	conf.ID = repo.db.pk
	repo.setAssignmentIDs(&conf)
	repo.db.table[conf.ID] = &conf
	return clone(conf), nil
}

func (repo *scheduleRepository) GetConfiguration(_ context.Context, userID string, id int64) (schedule.Configuration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if conf, ok := repo.get(userID, id); ok {
		return clone(*conf), nil
	}
	return schedule.Configuration{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) GetActiveConfiguration(_ context.Context, userID string) (schedule.Configuration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, conf := range repo.db.table {
		if conf.UserID == userID && conf.IsActive {
			return clone(*conf), nil
		}
	}
	return schedule.Configuration{}, schedule.ErrNoActive
}

func (repo *scheduleRepository) QueryConfigurations(_ context.Context, userID string, filter schedule.QueryFilter) ([]schedule.Configuration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	confs := make([]schedule.Configuration, 0)
	for _, conf := range repo.db.table {
		if conf.UserID != userID {
			continue
		}
		if filter.IsActive != nil && conf.IsActive != *filter.IsActive {
			continue
		}
		if filter.IsTemplate != nil && conf.IsTemplate != *filter.IsTemplate {
			continue
		}
		confs = append(confs, clone(*conf))
	}
	sort.Slice(confs, func(i, j int) bool { return confs[i].ID < confs[j].ID })
	return confs, nil
}

func (repo *scheduleRepository) SaveReplacingAssignments(_ context.Context, conf schedule.Configuration) (schedule.Configuration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.get(conf.UserID, conf.ID); !ok {
		return schedule.Configuration{}, schedule.ErrNotFound
	}
	conf = clone(conf)
	repo.setAssignmentIDs(&conf)
	repo.db.table[conf.ID] = &conf
	return clone(conf), nil
}

func (repo *scheduleRepository) SetActiveExclusive(_ context.Context, userID string, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.get(userID, id); !ok {
		return schedule.ErrNotFound
	}
	for _, conf := range repo.db.table {
		if conf.UserID == userID {
			conf.IsActive = conf.ID == id
		}
	}
	return nil
}

func (repo *scheduleRepository) DeleteConfiguration(_ context.Context, userID string, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.get(userID, id); !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.table, id)

	repo.db.events.mutex.Lock()
	delete(repo.db.events.table, id)
	repo.db.events.mutex.Unlock()
	return nil
}
