package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/lessonplan/core/planner"
)

type eventRepository struct {
	db *eventTable
}

var _ planner.EventRepository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) insert(configID int64, kept, events []planner.Event) []planner.Event {
	for _, ev := range events {
		repo.db.pk++
		ev.ID = repo.db.pk
		ev.ConfigurationID = configID
		kept = append(kept, ev)
	}
	return kept
}

func (repo *eventRepository) ReplaceEvents(_ context.Context, configID int64, events []planner.Event) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[configID] = repo.insert(configID, make([]planner.Event, 0, len(events)), events)
	return nil
}

func (repo *eventRepository) ReplaceEventsFrom(_ context.Context, configID, courseID int64, from time.Time, events []planner.Event) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	kept := make([]planner.Event, 0, len(repo.db.table[configID])+len(events))
	for _, ev := range repo.db.table[configID] {
		if ev.CourseID == courseID && !ev.Date.Before(from) {
			continue
		}
		kept = append(kept, ev)
	}
	repo.db.table[configID] = repo.insert(configID, kept, events)
	return nil
}

// QueryEvents lists matching events by date, then period.
func (repo *eventRepository) QueryEvents(_ context.Context, configID int64, filter planner.EventFilter) ([]planner.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]planner.Event, 0)
	for _, ev := range repo.db.table[configID] {
		if filter.Match(ev) {
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if events[i].Period != events[j].Period {
			return events[i].Period < events[j].Period
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}
