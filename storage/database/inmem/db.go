// Package inmemdb holds map-backed repositories used by tests and by the API when no database is configured.
package inmemdb

import (
	"sync"

	"github.com/trezcool/lessonplan/core/curriculum"
	"github.com/trezcool/lessonplan/core/planner"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
)

type (
	DB struct {
		user       *userTable
		schedule   *scheduleTable
		event      *eventTable
		curriculum *curriculumTables
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	// scheduleTable stores whole aggregates: assignments and holidays live inside each Configuration.
	scheduleTable struct {
		table  map[int64]*schedule.Configuration
		pk     int64
		subPK  int64 // period assignments
		mutex  sync.RWMutex
		events *eventTable
	}

	eventTable struct {
		table map[int64][]planner.Event // by configuration id
		pk    int64
		mutex sync.RWMutex
	}

	curriculumTables struct {
		courses     map[int64]*curriculum.Course
		topics      map[int64]*curriculum.Topic
		subTopics   map[int64]*curriculum.SubTopic
		lessons     map[int64]*curriculum.Lesson
		standards   map[int64]*curriculum.Standard
		attachments map[int64]*curriculum.Attachment
		pk          int64
		mutex       sync.RWMutex
	}
)

func Open() *DB {
	events := &eventTable{table: make(map[int64][]planner.Event)}
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		schedule: &scheduleTable{table: make(map[int64]*schedule.Configuration), events: events},
		event:    events,
		curriculum: &curriculumTables{
			courses:     make(map[int64]*curriculum.Course),
			topics:      make(map[int64]*curriculum.Topic),
			subTopics:   make(map[int64]*curriculum.SubTopic),
			lessons:     make(map[int64]*curriculum.Lesson),
			standards:   make(map[int64]*curriculum.Standard),
			attachments: make(map[int64]*curriculum.Attachment),
		},
	}
}
