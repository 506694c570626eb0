// Package curriculum manages the course content schedules are built from:
// courses, their topics and sub-topics, lessons, standards and lesson attachments.
package curriculum

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lessonplan/core"
)

type (
	Course struct {
		ID          int64     `json:"id"`
		UserID      string    `json:"user_id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Notes       string    `json:"notes"`
		Topics      []Topic   `json:"topics,omitempty"`
		CreatedAt   time.Time `json:"created_at"` // UTC
		UpdatedAt   time.Time `json:"updated_at"` // UTC
	}

	Topic struct {
		ID        int64      `json:"id"`
		CourseID  int64      `json:"course_id"`
		Title     string     `json:"title"`
		SortOrder int        `json:"sort_order"`
		Lessons   []Lesson   `json:"lessons,omitempty"` // lessons outside any sub-topic
		SubTopics []SubTopic `json:"sub_topics,omitempty"`
	}

	SubTopic struct {
		ID        int64    `json:"id"`
		TopicID   int64    `json:"topic_id"`
		Title     string   `json:"title"`
		SortOrder int      `json:"sort_order"`
		Lessons   []Lesson `json:"lessons,omitempty"`
	}

	Lesson struct {
		ID          int64        `json:"id"`
		TopicID     int64        `json:"topic_id"`
		SubTopicID  int64        `json:"sub_topic_id,omitempty"` // 0: directly under the topic
		Title       string       `json:"title"`
		Notes       string       `json:"notes"`
		SortOrder   int          `json:"sort_order"`
		StandardIDs []int64      `json:"standard_ids"`
		Attachments []Attachment `json:"attachments"`
	}

	Standard struct {
		ID          int64     `json:"id"`
		UserID      string    `json:"user_id"`
		Code        string    `json:"code"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Attachment is metadata about a document linked to a lesson. The file itself lives elsewhere.
	Attachment struct {
		ID          int64  `json:"id"`
		LessonID    int64  `json:"lesson_id"`
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
		URL         string `json:"url"`
	}

	// Outline is the flat content of one course, as stored.
	Outline struct {
		Topics    []Topic
		SubTopics []SubTopic
		Lessons   []Lesson
	}
)

// LessonIDs flattens the outline into teaching order: each topic in turn, its own lessons first,
// then the lessons of each of its sub-topics.
func (o Outline) LessonIDs() []int64 {
	var ids []int64
	for _, tp := range o.Tree() {
		for _, l := range tp.Lessons {
			ids = append(ids, l.ID)
		}
		for _, st := range tp.SubTopics {
			for _, l := range st.Lessons {
				ids = append(ids, l.ID)
			}
		}
	}
	return ids
}

// Tree nests sub-topics and lessons under their topics, every level sorted by SortOrder then ID.
// Lessons whose sub-topic is unknown are dropped.
func (o Outline) Tree() []Topic {
	lessonsBySub := make(map[int64][]Lesson)
	lessonsByTopic := make(map[int64][]Lesson)
	for _, l := range o.Lessons {
		if l.SubTopicID != 0 {
			lessonsBySub[l.SubTopicID] = append(lessonsBySub[l.SubTopicID], l)
		} else {
			lessonsByTopic[l.TopicID] = append(lessonsByTopic[l.TopicID], l)
		}
	}

	subsByTopic := make(map[int64][]SubTopic)
	for _, st := range o.SubTopics {
		st.Lessons = sortLessons(lessonsBySub[st.ID])
		subsByTopic[st.TopicID] = append(subsByTopic[st.TopicID], st)
	}

	topics := make([]Topic, 0, len(o.Topics))
	for _, tp := range o.Topics {
		tp.Lessons = sortLessons(lessonsByTopic[tp.ID])
		subs := subsByTopic[tp.ID]
		sort.SliceStable(subs, func(i, j int) bool {
			return less(subs[i].SortOrder, subs[i].ID, subs[j].SortOrder, subs[j].ID)
		})
		tp.SubTopics = subs
		topics = append(topics, tp)
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return less(topics[i].SortOrder, topics[i].ID, topics[j].SortOrder, topics[j].ID)
	})
	return topics
}

func sortLessons(lessons []Lesson) []Lesson {
	sort.SliceStable(lessons, func(i, j int) bool {
		return less(lessons[i].SortOrder, lessons[i].ID, lessons[j].SortOrder, lessons[j].ID)
	})
	return lessons
}

func less(order1 int, id1 int64, order2 int, id2 int64) bool {
	if order1 != order2 {
		return order1 < order2
	}
	return id1 < id2
}

// NewCourse contains information needed to create or update a Course.
type NewCourse struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Notes = core.CleanString(nc.Notes)
	return validate.Struct(nc)
}

type NewTopic struct {
	Title     string `json:"title" validate:"required,notblank,max=255"`
	SortOrder int    `json:"sort_order"`
}

func (nt *NewTopic) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	return validate.Struct(nt)
}

type NewSubTopic struct {
	TopicID   int64  `json:"topic_id" validate:"required,min=1"`
	Title     string `json:"title" validate:"required,notblank,max=255"`
	SortOrder int    `json:"sort_order"`
}

func (ns *NewSubTopic) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	return validate.Struct(ns)
}

type NewLesson struct {
	TopicID     int64   `json:"topic_id" validate:"required,min=1"`
	SubTopicID  int64   `json:"sub_topic_id" validate:"min=0"`
	Title       string  `json:"title" validate:"required,notblank,max=255"`
	Notes       string  `json:"notes"`
	SortOrder   int     `json:"sort_order"`
	StandardIDs []int64 `json:"standard_ids" validate:"unique,dive,min=1"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Notes = core.CleanString(nl.Notes)
	return validate.Struct(nl)
}

type NewStandard struct {
	Code        string `json:"code" validate:"required,notblank,max=64"`
	Description string `json:"description"`
}

func (ns *NewStandard) Validate(validate *validator.Validate) error {
	ns.Code = core.CleanString(ns.Code)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

type NewAttachment struct {
	FileName    string `json:"file_name" validate:"required,notblank,max=255"`
	ContentType string `json:"content_type" validate:"max=127"`
	URL         string `json:"url" validate:"omitempty,url"`
}

func (na *NewAttachment) Validate(validate *validator.Validate) error {
	na.FileName = core.CleanString(na.FileName)
	return validate.Struct(na)
}
