package curriculum

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lessonplan/core"
)

var (
	// errors
	ErrCourseNotFound     = core.NewNotFoundError("course")
	ErrTopicNotFound      = core.NewNotFoundError("topic")
	ErrSubTopicNotFound   = core.NewNotFoundError("sub-topic")
	ErrLessonNotFound     = core.NewNotFoundError("lesson")
	ErrStandardNotFound   = core.NewNotFoundError("standard")
	ErrAttachmentNotFound = core.NewNotFoundError("attachment")
	ErrStandardExists     = errors.New("a standard with this code already exists")
	ErrSubTopicMismatch   = errors.New("the sub-topic does not belong to this topic")
)

type (
	// Repository persists curriculum content. Getters return the matching ErrXxxNotFound, never a zero value.
	// Children are always looked up through their course so ownership is checked once, on the course.
	Repository interface {
		CreateCourse(ctx context.Context, course Course) (Course, error)
		GetCourse(ctx context.Context, userID string, id int64) (Course, error)
		QueryCourses(ctx context.Context, userID string) ([]Course, error)
		UpdateCourse(ctx context.Context, course Course) (Course, error)
		// DeleteCourse removes, in order: lesson standards and attachments, lessons, sub-topics, topics, the course.
		DeleteCourse(ctx context.Context, userID string, id int64) error

		// QueryOutline loads every topic, sub-topic and lesson of a course.
		QueryOutline(ctx context.Context, courseID int64) (Outline, error)

		CreateTopic(ctx context.Context, topic Topic) (Topic, error)
		GetTopic(ctx context.Context, courseID, id int64) (Topic, error)
		UpdateTopic(ctx context.Context, topic Topic) (Topic, error)
		// DeleteTopic removes the topic with its sub-topics, lessons and their join rows.
		DeleteTopic(ctx context.Context, courseID, id int64) error

		CreateSubTopic(ctx context.Context, sub SubTopic) (SubTopic, error)
		GetSubTopic(ctx context.Context, courseID, id int64) (SubTopic, error)
		UpdateSubTopic(ctx context.Context, sub SubTopic) (SubTopic, error)
		// DeleteSubTopic removes the sub-topic with its lessons and their join rows.
		DeleteSubTopic(ctx context.Context, courseID, id int64) error

		CreateLesson(ctx context.Context, lesson Lesson) (Lesson, error)
		GetLesson(ctx context.Context, courseID, id int64) (Lesson, error)
		UpdateLesson(ctx context.Context, lesson Lesson) (Lesson, error)
		// DeleteLesson removes the lesson with its standard links and attachments.
		DeleteLesson(ctx context.Context, courseID, id int64) error

		CreateStandard(ctx context.Context, std Standard) (Standard, error)
		QueryStandards(ctx context.Context, userID string) ([]Standard, error)
		// DeleteStandard also unlinks the standard from every lesson.
		DeleteStandard(ctx context.Context, userID string, id int64) error

		AddAttachment(ctx context.Context, att Attachment) (Attachment, error)
		DeleteAttachment(ctx context.Context, lessonID, id int64) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, userID string, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		UserID:      userID,
		Name:        nc.Name,
		Description: nc.Description,
		Notes:       nc.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetCourse(ctx context.Context, userID string, id int64) (Course, error) {
	course, err := svc.repo.GetCourse(ctx, userID, id)
	if err != nil {
		return Course{}, errors.Wrapf(err, "loading course %d", id)
	}
	return course, nil
}

// GetCourseTree loads a course with its full topic hierarchy.
func (svc *Service) GetCourseTree(ctx context.Context, userID string, id int64) (Course, error) {
	course, err := svc.GetCourse(ctx, userID, id)
	if err != nil {
		return Course{}, err
	}
	outline, err := svc.repo.QueryOutline(ctx, course.ID)
	if err != nil {
		return Course{}, errors.Wrap(err, "loading course outline")
	}
	course.Topics = outline.Tree()
	return course, nil
}

func (svc *Service) QueryCourses(ctx context.Context, userID string) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, userID)
}

func (svc *Service) UpdateCourse(ctx context.Context, userID string, id int64, uc NewCourse) (Course, error) {
	course, err := svc.GetCourse(ctx, userID, id)
	if err != nil {
		return Course{}, err
	}
	if err = uc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	course.Name = uc.Name
	course.Description = uc.Description
	course.Notes = uc.Notes
	course.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, course)
}

func (svc *Service) DeleteCourse(ctx context.Context, userID string, id int64) error {
	if _, err := svc.GetCourse(ctx, userID, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, userID, id)
}

// OrderedLessons lists the lesson ids of a course in teaching order.
func (svc *Service) OrderedLessons(ctx context.Context, userID string, courseID int64) ([]int64, error) {
	course, err := svc.GetCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	outline, err := svc.repo.QueryOutline(ctx, course.ID)
	if err != nil {
		return nil, errors.Wrap(err, "loading course outline")
	}
	return outline.LessonIDs(), nil
}

// Topics

func (svc *Service) CreateTopic(ctx context.Context, userID string, courseID int64, nt NewTopic) (Topic, error) {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return Topic{}, err
	}
	if err := nt.Validate(svc.validate); err != nil {
		return Topic{}, err
	}
	return svc.repo.CreateTopic(ctx, Topic{CourseID: courseID, Title: nt.Title, SortOrder: nt.SortOrder})
}

func (svc *Service) UpdateTopic(ctx context.Context, userID string, courseID, id int64, ut NewTopic) (Topic, error) {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return Topic{}, err
	}
	topic, err := svc.repo.GetTopic(ctx, courseID, id)
	if err != nil {
		return Topic{}, errors.Wrapf(err, "loading topic %d", id)
	}
	if err = ut.Validate(svc.validate); err != nil {
		return Topic{}, err
	}
	topic.Title = ut.Title
	topic.SortOrder = ut.SortOrder
	return svc.repo.UpdateTopic(ctx, topic)
}

func (svc *Service) DeleteTopic(ctx context.Context, userID string, courseID, id int64) error {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return err
	}
	if _, err := svc.repo.GetTopic(ctx, courseID, id); err != nil {
		return errors.Wrapf(err, "loading topic %d", id)
	}
	return svc.repo.DeleteTopic(ctx, courseID, id)
}

// Sub-topics

func (svc *Service) CreateSubTopic(ctx context.Context, userID string, courseID int64, ns NewSubTopic) (SubTopic, error) {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return SubTopic{}, err
	}
	if err := ns.Validate(svc.validate); err != nil {
		return SubTopic{}, err
	}
	if _, err := svc.repo.GetTopic(ctx, courseID, ns.TopicID); err != nil {
		return SubTopic{}, errors.Wrapf(err, "loading topic %d", ns.TopicID)
	}
	return svc.repo.CreateSubTopic(ctx, SubTopic{TopicID: ns.TopicID, Title: ns.Title, SortOrder: ns.SortOrder})
}

func (svc *Service) UpdateSubTopic(ctx context.Context, userID string, courseID, id int64, us NewSubTopic) (SubTopic, error) {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return SubTopic{}, err
	}
	sub, err := svc.repo.GetSubTopic(ctx, courseID, id)
	if err != nil {
		return SubTopic{}, errors.Wrapf(err, "loading sub-topic %d", id)
	}
	if err = us.Validate(svc.validate); err != nil {
		return SubTopic{}, err
	}
	if _, err = svc.repo.GetTopic(ctx, courseID, us.TopicID); err != nil {
		return SubTopic{}, errors.Wrapf(err, "loading topic %d", us.TopicID)
	}
	sub.TopicID = us.TopicID
	sub.Title = us.Title
	sub.SortOrder = us.SortOrder
	return svc.repo.UpdateSubTopic(ctx, sub)
}

func (svc *Service) DeleteSubTopic(ctx context.Context, userID string, courseID, id int64) error {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return err
	}
	if _, err := svc.repo.GetSubTopic(ctx, courseID, id); err != nil {
		return errors.Wrapf(err, "loading sub-topic %d", id)
	}
	return svc.repo.DeleteSubTopic(ctx, courseID, id)
}

// Lessons

// checkLessonParents makes sure the topic (and sub-topic, if any) exist in the course and belong together.
func (svc *Service) checkLessonParents(ctx context.Context, courseID int64, nl NewLesson) error {
	if _, err := svc.repo.GetTopic(ctx, courseID, nl.TopicID); err != nil {
		return errors.Wrapf(err, "loading topic %d", nl.TopicID)
	}
	if nl.SubTopicID == 0 {
		return nil
	}
	sub, err := svc.repo.GetSubTopic(ctx, courseID, nl.SubTopicID)
	if err != nil {
		return errors.Wrapf(err, "loading sub-topic %d", nl.SubTopicID)
	}
	if sub.TopicID != nl.TopicID {
		return core.NewValidationError(
			ErrSubTopicMismatch,
			core.FieldError{Field: "sub_topic_id", Error: ErrSubTopicMismatch.Error()},
		)
	}
	return nil
}

func (svc *Service) checkStandards(ctx context.Context, userID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	stds, err := svc.repo.QueryStandards(ctx, userID)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(stds))
	for _, s := range stds {
		known[s.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return errors.Wrapf(ErrStandardNotFound, "standard %d", id)
		}
	}
	return nil
}

func (svc *Service) CreateLesson(ctx context.Context, userID string, courseID int64, nl NewLesson) (Lesson, error) {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return Lesson{}, err
	}
	if err := nl.Validate(svc.validate); err != nil {
		return Lesson{}, err
	}
	if err := svc.checkLessonParents(ctx, courseID, nl); err != nil {
		return Lesson{}, err
	}
	if err := svc.checkStandards(ctx, userID, nl.StandardIDs); err != nil {
		return Lesson{}, err
	}
	return svc.repo.CreateLesson(ctx, Lesson{
		TopicID:     nl.TopicID,
		SubTopicID:  nl.SubTopicID,
		Title:       nl.Title,
		Notes:       nl.Notes,
		SortOrder:   nl.SortOrder,
		StandardIDs: nl.StandardIDs,
	})
}

func (svc *Service) GetLesson(ctx context.Context, userID string, courseID, id int64) (Lesson, error) {
	if _, err := svc.GetCourse(ctx, userID, courseID); err != nil {
		return Lesson{}, err
	}
	lesson, err := svc.repo.GetLesson(ctx, courseID, id)
	if err != nil {
		return Lesson{}, errors.Wrapf(err, "loading lesson %d", id)
	}
	return lesson, nil
}

// UpdateLesson replaces the lesson's fields and its standards list.
func (svc *Service) UpdateLesson(ctx context.Context, userID string, courseID, id int64, ul NewLesson) (Lesson, error) {
	lesson, err := svc.GetLesson(ctx, userID, courseID, id)
	if err != nil {
		return Lesson{}, err
	}
	if err = ul.Validate(svc.validate); err != nil {
		return Lesson{}, err
	}
	if err = svc.checkLessonParents(ctx, courseID, ul); err != nil {
		return Lesson{}, err
	}
	if err = svc.checkStandards(ctx, userID, ul.StandardIDs); err != nil {
		return Lesson{}, err
	}
	lesson.TopicID = ul.TopicID
	lesson.SubTopicID = ul.SubTopicID
	lesson.Title = ul.Title
	lesson.Notes = ul.Notes
	lesson.SortOrder = ul.SortOrder
	lesson.StandardIDs = ul.StandardIDs
	return svc.repo.UpdateLesson(ctx, lesson)
}

func (svc *Service) DeleteLesson(ctx context.Context, userID string, courseID, id int64) error {
	if _, err := svc.GetLesson(ctx, userID, courseID, id); err != nil {
		return err
	}
	return svc.repo.DeleteLesson(ctx, courseID, id)
}

func (svc *Service) AddAttachment(ctx context.Context, userID string, courseID, lessonID int64, na NewAttachment) (Attachment, error) {
	if _, err := svc.GetLesson(ctx, userID, courseID, lessonID); err != nil {
		return Attachment{}, err
	}
	if err := na.Validate(svc.validate); err != nil {
		return Attachment{}, err
	}
	return svc.repo.AddAttachment(ctx, Attachment{
		LessonID:    lessonID,
		FileName:    na.FileName,
		ContentType: na.ContentType,
		URL:         na.URL,
	})
}

func (svc *Service) DeleteAttachment(ctx context.Context, userID string, courseID, lessonID, id int64) error {
	if _, err := svc.GetLesson(ctx, userID, courseID, lessonID); err != nil {
		return err
	}
	return svc.repo.DeleteAttachment(ctx, lessonID, id)
}

// Standards

func (svc *Service) CreateStandard(ctx context.Context, userID string, ns NewStandard) (Standard, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Standard{}, err
	}
	std, err := svc.repo.CreateStandard(ctx, Standard{
		UserID:      userID,
		Code:        ns.Code,
		Description: ns.Description,
		CreatedAt:   time.Now().UTC(),
	})
	if errors.Cause(err) == ErrStandardExists {
		return Standard{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: ErrStandardExists.Error()})
	}
	return std, err
}

func (svc *Service) QueryStandards(ctx context.Context, userID string) ([]Standard, error) {
	return svc.repo.QueryStandards(ctx, userID)
}

func (svc *Service) DeleteStandard(ctx context.Context, userID string, id int64) error {
	return svc.repo.DeleteStandard(ctx, userID, id)
}
