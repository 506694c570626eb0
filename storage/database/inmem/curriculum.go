package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/lessonplan/core/curriculum"
)

type curriculumRepository struct {
	db *curriculumTables
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) *curriculumRepository {
	return &curriculumRepository{db: db.curriculum}
}

func (repo *curriculumRepository) nextPK() int64 {
	repo.db.pk++
	return repo.db.pk
}

// topicInCourse, subTopicInCourse and lessonInCourse resolve a child through its course.

func (repo *curriculumRepository) topicInCourse(courseID, id int64) (*curriculum.Topic, bool) {
	tp, ok := repo.db.topics[id]
	if !ok || tp.CourseID != courseID {
		return nil, false
	}
	return tp, true
}

func (repo *curriculumRepository) subTopicInCourse(courseID, id int64) (*curriculum.SubTopic, bool) {
	st, ok := repo.db.subTopics[id]
	if !ok {
		return nil, false
	}
	if _, ok = repo.topicInCourse(courseID, st.TopicID); !ok {
		return nil, false
	}
	return st, true
}

func (repo *curriculumRepository) lessonInCourse(courseID, id int64) (*curriculum.Lesson, bool) {
	l, ok := repo.db.lessons[id]
	if !ok {
		return nil, false
	}
	if _, ok = repo.topicInCourse(courseID, l.TopicID); !ok {
		return nil, false
	}
	return l, true
}

// lesson copies a stored lesson and attaches its attachments.
func (repo *curriculumRepository) lesson(l *curriculum.Lesson) curriculum.Lesson {
	out := *l
	out.StandardIDs = append(make([]int64, 0, len(l.StandardIDs)), l.StandardIDs...)
	out.Attachments = make([]curriculum.Attachment, 0)
	for _, att := range repo.db.attachments {
		if att.LessonID == l.ID {
			out.Attachments = append(out.Attachments, *att)
		}
	}
	sort.Slice(out.Attachments, func(i, j int) bool { return out.Attachments[i].ID < out.Attachments[j].ID })
	return out
}

func (repo *curriculumRepository) deleteLesson(id int64) {
	for attID, att := range repo.db.attachments {
		if att.LessonID == id {
			delete(repo.db.attachments, attID)
		}
	}
	delete(repo.db.lessons, id)
}

func (repo *curriculumRepository) deleteSubTopic(id int64) {
	for lID, l := range repo.db.lessons {
		if l.SubTopicID == id {
			repo.deleteLesson(lID)
		}
	}
	delete(repo.db.subTopics, id)
}

func (repo *curriculumRepository) deleteTopic(id int64) {
	for lID, l := range repo.db.lessons {
		if l.TopicID == id {
			repo.deleteLesson(lID)
		}
	}
	for stID, st := range repo.db.subTopics {
		if st.TopicID == id {
			repo.deleteSubTopic(stID)
		}
	}
	delete(repo.db.topics, id)
}

// Courses

func (repo *curriculumRepository) CreateCourse(_ context.Context, course curriculum.Course) (curriculum.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	course.ID = repo.nextPK()
	course.Topics = nil
	repo.db.courses[course.ID] = &course
	return course, nil
}

func (repo *curriculumRepository) GetCourse(_ context.Context, userID string, id int64) (curriculum.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if course, ok := repo.db.courses[id]; ok && course.UserID == userID {
		return *course, nil
	}
	return curriculum.Course{}, curriculum.ErrCourseNotFound
}

func (repo *curriculumRepository) QueryCourses(_ context.Context, userID string) ([]curriculum.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]curriculum.Course, 0)
	for _, course := range repo.db.courses {
		if course.UserID == userID {
			courses = append(courses, *course)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *curriculumRepository) UpdateCourse(_ context.Context, course curriculum.Course) (curriculum.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.courses[course.ID]; !ok || orig.UserID != course.UserID {
		return curriculum.Course{}, curriculum.ErrCourseNotFound
	}
	course.Topics = nil
	repo.db.courses[course.ID] = &course
	return course, nil
}

func (repo *curriculumRepository) DeleteCourse(_ context.Context, userID string, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if course, ok := repo.db.courses[id]; !ok || course.UserID != userID {
		return curriculum.ErrCourseNotFound
	}
	for tpID, tp := range repo.db.topics {
		if tp.CourseID == id {
			repo.deleteTopic(tpID)
		}
	}
	delete(repo.db.courses, id)
	return nil
}

func (repo *curriculumRepository) QueryOutline(_ context.Context, courseID int64) (curriculum.Outline, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var outline curriculum.Outline
	topicIDs := make(map[int64]bool)
	for _, tp := range repo.db.topics {
		if tp.CourseID == courseID {
			outline.Topics = append(outline.Topics, *tp)
			topicIDs[tp.ID] = true
		}
	}
	for _, st := range repo.db.subTopics {
		if topicIDs[st.TopicID] {
			outline.SubTopics = append(outline.SubTopics, *st)
		}
	}
	for _, l := range repo.db.lessons {
		if topicIDs[l.TopicID] {
			outline.Lessons = append(outline.Lessons, repo.lesson(l))
		}
	}
	return outline, nil
}

// Topics

func (repo *curriculumRepository) CreateTopic(_ context.Context, topic curriculum.Topic) (curriculum.Topic, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[topic.CourseID]; !ok {
		return curriculum.Topic{}, curriculum.ErrCourseNotFound
	}
	topic.ID = repo.nextPK()
	topic.Lessons, topic.SubTopics = nil, nil
	repo.db.topics[topic.ID] = &topic
	return topic, nil
}

func (repo *curriculumRepository) GetTopic(_ context.Context, courseID, id int64) (curriculum.Topic, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tp, ok := repo.topicInCourse(courseID, id); ok {
		return *tp, nil
	}
	return curriculum.Topic{}, curriculum.ErrTopicNotFound
}

func (repo *curriculumRepository) UpdateTopic(_ context.Context, topic curriculum.Topic) (curriculum.Topic, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.topicInCourse(topic.CourseID, topic.ID); !ok {
		return curriculum.Topic{}, curriculum.ErrTopicNotFound
	}
	topic.Lessons, topic.SubTopics = nil, nil
	repo.db.topics[topic.ID] = &topic
	return topic, nil
}

func (repo *curriculumRepository) DeleteTopic(_ context.Context, courseID, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.topicInCourse(courseID, id); !ok {
		return curriculum.ErrTopicNotFound
	}
	repo.deleteTopic(id)
	return nil
}

// Sub-topics

func (repo *curriculumRepository) CreateSubTopic(_ context.Context, sub curriculum.SubTopic) (curriculum.SubTopic, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.topics[sub.TopicID]; !ok {
		return curriculum.SubTopic{}, curriculum.ErrTopicNotFound
	}
	sub.ID = repo.nextPK()
	sub.Lessons = nil
	repo.db.subTopics[sub.ID] = &sub
	return sub, nil
}

func (repo *curriculumRepository) GetSubTopic(_ context.Context, courseID, id int64) (curriculum.SubTopic, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.subTopicInCourse(courseID, id); ok {
		return *st, nil
	}
	return curriculum.SubTopic{}, curriculum.ErrSubTopicNotFound
}

func (repo *curriculumRepository) UpdateSubTopic(_ context.Context, sub curriculum.SubTopic) (curriculum.SubTopic, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subTopics[sub.ID]; !ok {
		return curriculum.SubTopic{}, curriculum.ErrSubTopicNotFound
	}
	sub.Lessons = nil
	repo.db.subTopics[sub.ID] = &sub
	// lessons follow their sub-topic when it moves to another topic
	for _, l := range repo.db.lessons {
		if l.SubTopicID == sub.ID {
			l.TopicID = sub.TopicID
		}
	}
	return sub, nil
}

func (repo *curriculumRepository) DeleteSubTopic(_ context.Context, courseID, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.subTopicInCourse(courseID, id); !ok {
		return curriculum.ErrSubTopicNotFound
	}
	repo.deleteSubTopic(id)
	return nil
}

// Lessons

func (repo *curriculumRepository) CreateLesson(_ context.Context, lesson curriculum.Lesson) (curriculum.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.topics[lesson.TopicID]; !ok {
		return curriculum.Lesson{}, curriculum.ErrTopicNotFound
	}
	lesson.ID = repo.nextPK()
	lesson.StandardIDs = append(make([]int64, 0, len(lesson.StandardIDs)), lesson.StandardIDs...)
	lesson.Attachments = nil
	repo.db.lessons[lesson.ID] = &lesson
	return repo.lesson(&lesson), nil
}

func (repo *curriculumRepository) GetLesson(_ context.Context, courseID, id int64) (curriculum.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.lessonInCourse(courseID, id); ok {
		return repo.lesson(l), nil
	}
	return curriculum.Lesson{}, curriculum.ErrLessonNotFound
}

func (repo *curriculumRepository) UpdateLesson(_ context.Context, lesson curriculum.Lesson) (curriculum.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lessons[lesson.ID]; !ok {
		return curriculum.Lesson{}, curriculum.ErrLessonNotFound
	}
	lesson.StandardIDs = append(make([]int64, 0, len(lesson.StandardIDs)), lesson.StandardIDs...)
	lesson.Attachments = nil
	repo.db.lessons[lesson.ID] = &lesson
	return repo.lesson(&lesson), nil
}

func (repo *curriculumRepository) DeleteLesson(_ context.Context, courseID, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.lessonInCourse(courseID, id); !ok {
		return curriculum.ErrLessonNotFound
	}
	repo.deleteLesson(id)
	return nil
}

// Standards

func (repo *curriculumRepository) CreateStandard(_ context.Context, std curriculum.Standard) (curriculum.Standard, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.standards {
		if s.UserID == std.UserID && s.Code == std.Code {
			return curriculum.Standard{}, curriculum.ErrStandardExists
		}
	}
	std.ID = repo.nextPK()
	repo.db.standards[std.ID] = &std
	return std, nil
}

func (repo *curriculumRepository) QueryStandards(_ context.Context, userID string) ([]curriculum.Standard, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	stds := make([]curriculum.Standard, 0)
	for _, s := range repo.db.standards {
		if s.UserID == userID {
			stds = append(stds, *s)
		}
	}
	sort.Slice(stds, func(i, j int) bool { return stds[i].Code < stds[j].Code })
	return stds, nil
}

func (repo *curriculumRepository) DeleteStandard(_ context.Context, userID string, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if s, ok := repo.db.standards[id]; !ok || s.UserID != userID {
		return curriculum.ErrStandardNotFound
	}
	for _, l := range repo.db.lessons {
		ids := l.StandardIDs[:0]
		for _, sid := range l.StandardIDs {
			if sid != id {
				ids = append(ids, sid)
			}
		}
		l.StandardIDs = ids
	}
	delete(repo.db.standards, id)
	return nil
}

// Attachments

func (repo *curriculumRepository) AddAttachment(_ context.Context, att curriculum.Attachment) (curriculum.Attachment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lessons[att.LessonID]; !ok {
		return curriculum.Attachment{}, curriculum.ErrLessonNotFound
	}
	att.ID = repo.nextPK()
	repo.db.attachments[att.ID] = &att
	return att, nil
}

func (repo *curriculumRepository) DeleteAttachment(_ context.Context, lessonID, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if att, ok := repo.db.attachments[id]; !ok || att.LessonID != lessonID {
		return curriculum.ErrAttachmentNotFound
	}
	delete(repo.db.attachments, id)
	return nil
}
