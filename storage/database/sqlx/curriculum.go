package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/curriculum"
)

type (
	courseRow struct {
		ID          int64     `db:"id"`
		UserID      string    `db:"user_id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		Notes       string    `db:"notes"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	lessonRow struct {
		ID         int64      `db:"id"`
		TopicID    int64      `db:"topic_id"`
		SubTopicID null.Int64 `db:"sub_topic_id"`
		Title      string     `db:"title"`
		Notes      string     `db:"notes"`
		SortOrder  int        `db:"sort_order"`
	}

	topicRow struct {
		ID        int64  `db:"id"`
		CourseID  int64  `db:"course_id"`
		Title     string `db:"title"`
		SortOrder int    `db:"sort_order"`
	}

	subTopicRow struct {
		ID        int64  `db:"id"`
		TopicID   int64  `db:"topic_id"`
		Title     string `db:"title"`
		SortOrder int    `db:"sort_order"`
	}

	standardRow struct {
		ID          int64     `db:"id"`
		UserID      string    `db:"user_id"`
		Code        string    `db:"code"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
	}

	attachmentRow struct {
		ID          int64  `db:"id"`
		LessonID    int64  `db:"lesson_id"`
		FileName    string `db:"file_name"`
		ContentType string `db:"content_type"`
		URL         string `db:"url"`
	}

	lessonStandardRow struct {
		LessonID   int64 `db:"lesson_id"`
		StandardID int64 `db:"standard_id"`
	}
)

func (r courseRow) course() curriculum.Course {
	return curriculum.Course{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r topicRow) topic() curriculum.Topic {
	return curriculum.Topic{ID: r.ID, CourseID: r.CourseID, Title: r.Title, SortOrder: r.SortOrder}
}

func (r subTopicRow) subTopic() curriculum.SubTopic {
	return curriculum.SubTopic{ID: r.ID, TopicID: r.TopicID, Title: r.Title, SortOrder: r.SortOrder}
}

func (r standardRow) standard() curriculum.Standard {
	return curriculum.Standard{
		ID:          r.ID,
		UserID:      r.UserID,
		Code:        r.Code,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r attachmentRow) attachment() curriculum.Attachment {
	return curriculum.Attachment{
		ID:          r.ID,
		LessonID:    r.LessonID,
		FileName:    r.FileName,
		ContentType: r.ContentType,
		URL:         r.URL,
	}
}

func (r lessonRow) lesson() curriculum.Lesson {
	return curriculum.Lesson{
		ID:          r.ID,
		TopicID:     r.TopicID,
		SubTopicID:  r.SubTopicID.Int64,
		Title:       r.Title,
		Notes:       r.Notes,
		SortOrder:   r.SortOrder,
		StandardIDs: make([]int64, 0),
		Attachments: make([]curriculum.Attachment, 0),
	}
}

func toLessonRow(l curriculum.Lesson) lessonRow {
	return lessonRow{
		ID:         l.ID,
		TopicID:    l.TopicID,
		SubTopicID: null.NewInt64(l.SubTopicID, l.SubTopicID != 0),
		Title:      l.Title,
		Notes:      l.Notes,
		SortOrder:  l.SortOrder,
	}
}

const (
	courseColumns     = "id, user_id, name, description, notes, created_at, updated_at"
	lessonColumns     = "l.id, l.topic_id, l.sub_topic_id, l.title, l.notes, l.sort_order"
	attachmentColumns = "id, lesson_id, file_name, content_type, url"
)

type curriculumRepository struct {
	db core.DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db core.DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

// loadLessonLinks fills the standard ids and attachments of lessons.
func (repo *curriculumRepository) loadLessonLinks(ctx context.Context, lessons []curriculum.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(lessons))
	byID := make(map[int64]*curriculum.Lesson, len(lessons))
	for i := range lessons {
		ids = append(ids, lessons[i].ID)
		byID[lessons[i].ID] = &lessons[i]
	}

	var links []lessonStandardRow
	err := repo.db.SelectContext(ctx, &links,
		"SELECT lesson_id, standard_id FROM lesson_standards WHERE lesson_id = ANY($1) ORDER BY lesson_id, standard_id",
		pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "querying lesson standards")
	}
	for _, link := range links {
		l := byID[link.LessonID]
		l.StandardIDs = append(l.StandardIDs, link.StandardID)
	}

	var atts []attachmentRow
	err = repo.db.SelectContext(ctx, &atts,
		"SELECT "+attachmentColumns+" FROM lesson_attachments WHERE lesson_id = ANY($1) ORDER BY id",
		pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "querying lesson attachments")
	}
	for _, att := range atts {
		l := byID[att.LessonID]
		l.Attachments = append(l.Attachments, att.attachment())
	}
	return nil
}

func setLessonStandards(ctx context.Context, tx core.DBExecutor, lessonID int64, standardIDs []int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM lesson_standards WHERE lesson_id = $1", lessonID); err != nil {
		return errors.Wrap(err, "unlinking standards")
	}
	for _, sid := range standardIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO lesson_standards (lesson_id, standard_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", lessonID, sid)
		if err != nil {
			return errors.Wrap(err, "linking standard")
		}
	}
	return nil
}

// deleteLessonsWhere removes the lessons matching cond with their join rows.
func deleteLessonsWhere(ctx context.Context, tx core.DBExecutor, cond string, args ...interface{}) error {
	sub := "SELECT id FROM lessons WHERE " + cond
	steps := []struct{ msg, q string }{
		{"deleting lesson standards", "DELETE FROM lesson_standards WHERE lesson_id IN (" + sub + ")"},
		{"deleting lesson attachments", "DELETE FROM lesson_attachments WHERE lesson_id IN (" + sub + ")"},
		{"deleting lessons", "DELETE FROM lessons WHERE " + cond},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.q, args...); err != nil {
			return errors.Wrap(err, step.msg)
		}
	}
	return nil
}

// Courses

func (repo *curriculumRepository) CreateCourse(ctx context.Context, course curriculum.Course) (curriculum.Course, error) {
	id, err := insertReturningID(ctx, repo.db, `
		INSERT INTO courses (user_id, name, description, notes, created_at, updated_at)
		VALUES (:user_id, :name, :description, :notes, :created_at, :updated_at) RETURNING id`,
		courseRow{
			UserID:      course.UserID,
			Name:        course.Name,
			Description: course.Description,
			Notes:       course.Notes,
			CreatedAt:   course.CreatedAt.UTC(),
			UpdatedAt:   course.UpdatedAt.UTC(),
		},
	)
	if err != nil {
		return curriculum.Course{}, errors.Wrap(err, "inserting course")
	}
	course.ID = id
	return course, nil
}

func (repo *curriculumRepository) GetCourse(ctx context.Context, userID string, id int64) (curriculum.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT "+courseColumns+" FROM courses WHERE user_id::text = $1 AND id = $2", userID, id)
	if err != nil {
		return curriculum.Course{}, trapNoRowsErr(err, curriculum.ErrCourseNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo *curriculumRepository) QueryCourses(ctx context.Context, userID string) ([]curriculum.Course, error) {
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT "+courseColumns+" FROM courses WHERE user_id::text = $1 ORDER BY id", userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]curriculum.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *curriculumRepository) UpdateCourse(ctx context.Context, course curriculum.Course) (curriculum.Course, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE courses SET name = $1, description = $2, notes = $3, updated_at = $4 WHERE id = $5 AND user_id::text = $6",
		course.Name, course.Description, course.Notes, course.UpdatedAt.UTC(), course.ID, course.UserID,
	)
	if err != nil {
		return curriculum.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return curriculum.Course{}, curriculum.ErrCourseNotFound
	}
	return course, nil
}

func (repo *curriculumRepository) DeleteCourse(ctx context.Context, userID string, id int64) error {
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		err := deleteLessonsWhere(ctx, tx, "topic_id IN (SELECT id FROM topics WHERE course_id = $1)", id)
		if err != nil {
			return err
		}
		steps := []struct{ msg, q string }{
			{"deleting sub-topics", "DELETE FROM sub_topics WHERE topic_id IN (SELECT id FROM topics WHERE course_id = $1)"},
			{"deleting topics", "DELETE FROM topics WHERE course_id = $1"},
		}
		for _, step := range steps {
			if _, err = tx.ExecContext(ctx, step.q, id); err != nil {
				return errors.Wrap(err, step.msg)
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE id = $1 AND user_id::text = $2", id, userID)
		if err != nil {
			return errors.Wrap(err, "deleting course")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return curriculum.ErrCourseNotFound
		}
		return nil
	})
}

func (repo *curriculumRepository) QueryOutline(ctx context.Context, courseID int64) (curriculum.Outline, error) {
	var (
		outline curriculum.Outline
		topics  []topicRow
		subs    []subTopicRow
	)

	err := repo.db.SelectContext(ctx, &topics,
		"SELECT id, course_id, title, sort_order FROM topics WHERE course_id = $1", courseID)
	if err != nil {
		return curriculum.Outline{}, errors.Wrap(err, "querying topics")
	}
	for _, r := range topics {
		outline.Topics = append(outline.Topics, r.topic())
	}
	err = repo.db.SelectContext(ctx, &subs, `
		SELECT st.id, st.topic_id, st.title, st.sort_order
		FROM sub_topics st JOIN topics t ON t.id = st.topic_id
		WHERE t.course_id = $1`,
		courseID,
	)
	if err != nil {
		return curriculum.Outline{}, errors.Wrap(err, "querying sub-topics")
	}
	for _, r := range subs {
		outline.SubTopics = append(outline.SubTopics, r.subTopic())
	}

	var rows []lessonRow
	err = repo.db.SelectContext(ctx, &rows,
		"SELECT "+lessonColumns+" FROM lessons l JOIN topics t ON t.id = l.topic_id WHERE t.course_id = $1", courseID)
	if err != nil {
		return curriculum.Outline{}, errors.Wrap(err, "querying lessons")
	}
	outline.Lessons = make([]curriculum.Lesson, 0, len(rows))
	for _, r := range rows {
		outline.Lessons = append(outline.Lessons, r.lesson())
	}
	if err = repo.loadLessonLinks(ctx, outline.Lessons); err != nil {
		return curriculum.Outline{}, err
	}
	return outline, nil
}

// Topics

func (repo *curriculumRepository) CreateTopic(ctx context.Context, topic curriculum.Topic) (curriculum.Topic, error) {
	err := repo.db.QueryRowxContext(ctx,
		"INSERT INTO topics (course_id, title, sort_order) VALUES ($1, $2, $3) RETURNING id",
		topic.CourseID, topic.Title, topic.SortOrder,
	).Scan(&topic.ID)
	if err != nil {
		return curriculum.Topic{}, errors.Wrap(err, "inserting topic")
	}
	return topic, nil
}

func (repo *curriculumRepository) GetTopic(ctx context.Context, courseID, id int64) (curriculum.Topic, error) {
	var row topicRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT id, course_id, title, sort_order FROM topics WHERE course_id = $1 AND id = $2", courseID, id)
	if err != nil {
		return curriculum.Topic{}, trapNoRowsErr(err, curriculum.ErrTopicNotFound, "finding topic")
	}
	return row.topic(), nil
}

func (repo *curriculumRepository) UpdateTopic(ctx context.Context, topic curriculum.Topic) (curriculum.Topic, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE topics SET title = $1, sort_order = $2 WHERE id = $3 AND course_id = $4",
		topic.Title, topic.SortOrder, topic.ID, topic.CourseID,
	)
	if err != nil {
		return curriculum.Topic{}, errors.Wrap(err, "updating topic")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return curriculum.Topic{}, curriculum.ErrTopicNotFound
	}
	return topic, nil
}

func (repo *curriculumRepository) DeleteTopic(ctx context.Context, courseID, id int64) error {
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if err := deleteLessonsWhere(ctx, tx, "topic_id = $1", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sub_topics WHERE topic_id = $1", id); err != nil {
			return errors.Wrap(err, "deleting sub-topics")
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM topics WHERE id = $1 AND course_id = $2", id, courseID)
		if err != nil {
			return errors.Wrap(err, "deleting topic")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return curriculum.ErrTopicNotFound
		}
		return nil
	})
}

// Sub-topics

func (repo *curriculumRepository) CreateSubTopic(ctx context.Context, sub curriculum.SubTopic) (curriculum.SubTopic, error) {
	err := repo.db.QueryRowxContext(ctx,
		"INSERT INTO sub_topics (topic_id, title, sort_order) VALUES ($1, $2, $3) RETURNING id",
		sub.TopicID, sub.Title, sub.SortOrder,
	).Scan(&sub.ID)
	if err != nil {
		return curriculum.SubTopic{}, errors.Wrap(err, "inserting sub-topic")
	}
	return sub, nil
}

func (repo *curriculumRepository) GetSubTopic(ctx context.Context, courseID, id int64) (curriculum.SubTopic, error) {
	var row subTopicRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT st.id, st.topic_id, st.title, st.sort_order
		FROM sub_topics st JOIN topics t ON t.id = st.topic_id
		WHERE t.course_id = $1 AND st.id = $2`,
		courseID, id,
	)
	if err != nil {
		return curriculum.SubTopic{}, trapNoRowsErr(err, curriculum.ErrSubTopicNotFound, "finding sub-topic")
	}
	return row.subTopic(), nil
}

func (repo *curriculumRepository) UpdateSubTopic(ctx context.Context, sub curriculum.SubTopic) (curriculum.SubTopic, error) {
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE sub_topics SET topic_id = $1, title = $2, sort_order = $3 WHERE id = $4",
			sub.TopicID, sub.Title, sub.SortOrder, sub.ID,
		)
		if err != nil {
			return errors.Wrap(err, "updating sub-topic")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return curriculum.ErrSubTopicNotFound
		}
		// lessons follow their sub-topic when it moves to another topic
		if _, err = tx.ExecContext(ctx, "UPDATE lessons SET topic_id = $1 WHERE sub_topic_id = $2", sub.TopicID, sub.ID); err != nil {
			return errors.Wrap(err, "moving sub-topic lessons")
		}
		return nil
	})
	if err != nil {
		return curriculum.SubTopic{}, err
	}
	return sub, nil
}

func (repo *curriculumRepository) DeleteSubTopic(ctx context.Context, courseID, id int64) error {
	if _, err := repo.GetSubTopic(ctx, courseID, id); err != nil {
		return err
	}
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if err := deleteLessonsWhere(ctx, tx, "sub_topic_id = $1", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sub_topics WHERE id = $1", id); err != nil {
			return errors.Wrap(err, "deleting sub-topic")
		}
		return nil
	})
}

// Lessons

func (repo *curriculumRepository) CreateLesson(ctx context.Context, lesson curriculum.Lesson) (curriculum.Lesson, error) {
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		id, err := insertReturningID(ctx, tx, `
			INSERT INTO lessons (topic_id, sub_topic_id, title, notes, sort_order)
			VALUES (:topic_id, :sub_topic_id, :title, :notes, :sort_order) RETURNING id`,
			toLessonRow(lesson),
		)
		if err != nil {
			return errors.Wrap(err, "inserting lesson")
		}
		lesson.ID = id
		return setLessonStandards(ctx, tx, id, lesson.StandardIDs)
	})
	if err != nil {
		return curriculum.Lesson{}, err
	}
	if lesson.StandardIDs == nil {
		lesson.StandardIDs = make([]int64, 0)
	}
	lesson.Attachments = make([]curriculum.Attachment, 0)
	return lesson, nil
}

func (repo *curriculumRepository) GetLesson(ctx context.Context, courseID, id int64) (curriculum.Lesson, error) {
	var row lessonRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT "+lessonColumns+" FROM lessons l JOIN topics t ON t.id = l.topic_id WHERE t.course_id = $1 AND l.id = $2",
		courseID, id,
	)
	if err != nil {
		return curriculum.Lesson{}, trapNoRowsErr(err, curriculum.ErrLessonNotFound, "finding lesson")
	}
	lessons := []curriculum.Lesson{row.lesson()}
	if err = repo.loadLessonLinks(ctx, lessons); err != nil {
		return curriculum.Lesson{}, err
	}
	return lessons[0], nil
}

func (repo *curriculumRepository) UpdateLesson(ctx context.Context, lesson curriculum.Lesson) (curriculum.Lesson, error) {
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE lessons SET topic_id = :topic_id, sub_topic_id = :sub_topic_id, title = :title, notes = :notes,
				sort_order = :sort_order
			WHERE id = :id`,
			toLessonRow(lesson),
		)
		if err != nil {
			return errors.Wrap(err, "updating lesson")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return curriculum.ErrLessonNotFound
		}
		return setLessonStandards(ctx, tx, lesson.ID, lesson.StandardIDs)
	})
	if err != nil {
		return curriculum.Lesson{}, err
	}
	if lesson.StandardIDs == nil {
		lesson.StandardIDs = make([]int64, 0)
	}
	return lesson, nil
}

func (repo *curriculumRepository) DeleteLesson(ctx context.Context, courseID, id int64) error {
	if _, err := repo.GetLesson(ctx, courseID, id); err != nil {
		return err
	}
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		return deleteLessonsWhere(ctx, tx, "id = $1", id)
	})
}

// Standards

func (repo *curriculumRepository) CreateStandard(ctx context.Context, std curriculum.Standard) (curriculum.Standard, error) {
	err := repo.db.QueryRowxContext(ctx,
		"INSERT INTO standards (user_id, code, description, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		std.UserID, std.Code, std.Description, std.CreatedAt.UTC(),
	).Scan(&std.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return curriculum.Standard{}, curriculum.ErrStandardExists
		}
		return curriculum.Standard{}, errors.Wrap(err, "inserting standard")
	}
	return std, nil
}

func (repo *curriculumRepository) QueryStandards(ctx context.Context, userID string) ([]curriculum.Standard, error) {
	var rows []standardRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT id, user_id, code, description, created_at FROM standards WHERE user_id::text = $1 ORDER BY code", userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying standards")
	}
	stds := make([]curriculum.Standard, 0, len(rows))
	for _, r := range rows {
		stds = append(stds, r.standard())
	}
	return stds, nil
}

func (repo *curriculumRepository) DeleteStandard(ctx context.Context, userID string, id int64) error {
	return core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		var found bool
		err := tx.GetContext(ctx, &found, "SELECT true FROM standards WHERE user_id::text = $1 AND id = $2", userID, id)
		if err != nil {
			return trapNoRowsErr(err, curriculum.ErrStandardNotFound, "finding standard")
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM lesson_standards WHERE standard_id = $1", id); err != nil {
			return errors.Wrap(err, "unlinking standard")
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM standards WHERE id = $1", id); err != nil {
			return errors.Wrap(err, "deleting standard")
		}
		return nil
	})
}

// Attachments

func (repo *curriculumRepository) AddAttachment(ctx context.Context, att curriculum.Attachment) (curriculum.Attachment, error) {
	err := repo.db.QueryRowxContext(ctx,
		"INSERT INTO lesson_attachments (lesson_id, file_name, content_type, url) VALUES ($1, $2, $3, $4) RETURNING id",
		att.LessonID, att.FileName, att.ContentType, att.URL,
	).Scan(&att.ID)
	if err != nil {
		return curriculum.Attachment{}, errors.Wrap(err, "inserting attachment")
	}
	return att, nil
}

func (repo *curriculumRepository) DeleteAttachment(ctx context.Context, lessonID, id int64) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM lesson_attachments WHERE lesson_id = $1 AND id = $2", lessonID, id)
	if err != nil {
		return errors.Wrap(err, "deleting attachment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return curriculum.ErrAttachmentNotFound
	}
	return nil
}
