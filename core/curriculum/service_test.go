package curriculum_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/curriculum"
	"github.com/trezcool/lessonplan/tests"
)

func TestService_CourseTree(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()

	course, err := s.Curriculum.CreateCourse(ctx, "u1", curriculum.NewCourse{Name: "  Algebra I ", Notes: "period 1"})
	require.NoError(t, err)
	assert.Equal(t, "Algebra I", course.Name)

	numbers, err := s.Curriculum.CreateTopic(ctx, "u1", course.ID, curriculum.NewTopic{Title: "Numbers", SortOrder: 1})
	require.NoError(t, err)
	eqs, err := s.Curriculum.CreateTopic(ctx, "u1", course.ID, curriculum.NewTopic{Title: "Equations", SortOrder: 2})
	require.NoError(t, err)
	primes, err := s.Curriculum.CreateSubTopic(ctx, "u1", course.ID, curriculum.NewSubTopic{TopicID: numbers.ID, Title: "Primes"})
	require.NoError(t, err)

	lesson := func(topicID, subTopicID int64, title string, order int) int64 {
		l, err := s.Curriculum.CreateLesson(ctx, "u1", course.ID, curriculum.NewLesson{
			TopicID: topicID, SubTopicID: subTopicID, Title: title, SortOrder: order,
		})
		require.NoError(t, err)
		return l.ID
	}
	linear := lesson(eqs.ID, 0, "Linear equations", 1)
	sieve := lesson(numbers.ID, primes.ID, "Sieve", 1)
	intro := lesson(numbers.ID, 0, "Intro", 2)
	counting := lesson(numbers.ID, 0, "Counting", 1)

	ids, err := s.Curriculum.OrderedLessons(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{counting, intro, sieve, linear}, ids)

	tree, err := s.Curriculum.GetCourseTree(ctx, "u1", course.ID)
	require.NoError(t, err)
	require.Len(t, tree.Topics, 2)
	assert.Equal(t, "Numbers", tree.Topics[0].Title)
	assert.Len(t, tree.Topics[0].Lessons, 2)
	require.Len(t, tree.Topics[0].SubTopics, 1)
	assert.Equal(t, sieve, tree.Topics[0].SubTopics[0].Lessons[0].ID)

	// moving the sub-topic moves its lessons along
	_, err = s.Curriculum.UpdateSubTopic(ctx, "u1", course.ID, primes.ID, curriculum.NewSubTopic{TopicID: eqs.ID, Title: "Primes"})
	require.NoError(t, err)
	ids, err = s.Curriculum.OrderedLessons(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{counting, intro, linear, sieve}, ids)

	moved, err := s.Curriculum.GetLesson(ctx, "u1", course.ID, sieve)
	require.NoError(t, err)
	assert.Equal(t, eqs.ID, moved.TopicID)
}

func TestService_Ownership(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()

	course, lessons := testutil.CreateCourseWithLessons(t, s.Curriculum, "u1", "Biology", 2)

	_, err := s.Curriculum.GetCourse(ctx, "u2", course.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = s.Curriculum.GetLesson(ctx, "u2", course.ID, lessons[0])
	assert.True(t, core.IsNotFound(err))
	_, err = s.Curriculum.OrderedLessons(ctx, "u2", course.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(s.Curriculum.DeleteCourse(ctx, "u2", course.ID)))

	// a lesson of another course is not reachable through this one
	other, _ := testutil.CreateCourseWithLessons(t, s.Curriculum, "u1", "Chemistry", 0)
	_, err = s.Curriculum.GetLesson(ctx, "u1", other.ID, lessons[0])
	assert.True(t, core.IsNotFound(err))

	courses, err := s.Curriculum.QueryCourses(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestService_CreateLesson_Invalid(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()

	course, _ := testutil.CreateCourseWithLessons(t, s.Curriculum, "u1", "History", 0)
	t1, err := s.Curriculum.CreateTopic(ctx, "u1", course.ID, curriculum.NewTopic{Title: "Antiquity"})
	require.NoError(t, err)
	t2, err := s.Curriculum.CreateTopic(ctx, "u1", course.ID, curriculum.NewTopic{Title: "Middle Ages"})
	require.NoError(t, err)
	sub, err := s.Curriculum.CreateSubTopic(ctx, "u1", course.ID, curriculum.NewSubTopic{TopicID: t2.ID, Title: "Feudalism"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		nl      curriculum.NewLesson
		wantErr error
	}{
		{name: "unknown topic", nl: curriculum.NewLesson{TopicID: 999, Title: "Lost"}, wantErr: curriculum.ErrTopicNotFound},
		{name: "unknown sub-topic", nl: curriculum.NewLesson{TopicID: t1.ID, SubTopicID: 999, Title: "Lost"}, wantErr: curriculum.ErrSubTopicNotFound},
		{name: "unknown standard", nl: curriculum.NewLesson{TopicID: t1.ID, Title: "Lost", StandardIDs: []int64{42}}, wantErr: curriculum.ErrStandardNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Curriculum.CreateLesson(ctx, "u1", course.ID, tt.nl)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
		})
	}

	_, err = s.Curriculum.CreateLesson(ctx, "u1", course.ID, curriculum.NewLesson{TopicID: t1.ID, SubTopicID: sub.ID, Title: "Mismatch"})
	require.Error(t, err)
	assert.Equal(t, curriculum.ErrSubTopicMismatch, errors.Cause(err).(*core.ValidationError).Err)
}

func TestService_Standards(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()

	std, err := s.Curriculum.CreateStandard(ctx, "u1", curriculum.NewStandard{Code: " CCSS.MATH.1 ", Description: "Counting"})
	require.NoError(t, err)
	assert.Equal(t, "CCSS.MATH.1", std.Code)

	_, err = s.Curriculum.CreateStandard(ctx, "u1", curriculum.NewStandard{Code: "CCSS.MATH.1"})
	require.Error(t, err)
	assert.Equal(t, curriculum.ErrStandardExists, errors.Cause(err).(*core.ValidationError).Err)

	// codes are unique per user
	_, err = s.Curriculum.CreateStandard(ctx, "u2", curriculum.NewStandard{Code: "CCSS.MATH.1"})
	assert.NoError(t, err)

	course, lessons := testutil.CreateCourseWithLessons(t, s.Curriculum, "u1", "Math", 1)
	l, err := s.Curriculum.GetLesson(ctx, "u1", course.ID, lessons[0])
	require.NoError(t, err)
	l, err = s.Curriculum.UpdateLesson(ctx, "u1", course.ID, l.ID, curriculum.NewLesson{
		TopicID: l.TopicID, Title: l.Title, SortOrder: l.SortOrder, StandardIDs: []int64{std.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{std.ID}, l.StandardIDs)

	require.NoError(t, s.Curriculum.DeleteStandard(ctx, "u1", std.ID))
	l, err = s.Curriculum.GetLesson(ctx, "u1", course.ID, l.ID)
	require.NoError(t, err)
	assert.Empty(t, l.StandardIDs)

	stds, err := s.Curriculum.QueryStandards(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stds)
}

func TestService_Attachments(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()

	course, lessons := testutil.CreateCourseWithLessons(t, s.Curriculum, "u1", "Art", 1)

	_, err := s.Curriculum.AddAttachment(ctx, "u1", course.ID, lessons[0], curriculum.NewAttachment{FileName: " ", URL: "nope"})
	assert.Error(t, err)

	att, err := s.Curriculum.AddAttachment(ctx, "u1", course.ID, lessons[0], curriculum.NewAttachment{
		FileName: "worksheet.pdf", ContentType: "application/pdf", URL: "https://files.school.test/worksheet.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, lessons[0], att.LessonID)

	l, err := s.Curriculum.GetLesson(ctx, "u1", course.ID, lessons[0])
	require.NoError(t, err)
	assert.Equal(t, []curriculum.Attachment{att}, l.Attachments)

	require.NoError(t, s.Curriculum.DeleteAttachment(ctx, "u1", course.ID, lessons[0], att.ID))
	err = s.Curriculum.DeleteAttachment(ctx, "u1", course.ID, lessons[0], att.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_DeleteCascades(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()

	course, lessons := testutil.CreateCourseWithLessons(t, s.Curriculum, "u1", "Physics", 3)
	tree, err := s.Curriculum.GetCourseTree(ctx, "u1", course.ID)
	require.NoError(t, err)
	topicID := tree.Topics[0].ID

	require.NoError(t, s.Curriculum.DeleteLesson(ctx, "u1", course.ID, lessons[0]))
	ids, err := s.Curriculum.OrderedLessons(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, lessons[1:], ids)

	require.NoError(t, s.Curriculum.DeleteTopic(ctx, "u1", course.ID, topicID))
	ids, err = s.Curriculum.OrderedLessons(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, err = s.Curriculum.GetLesson(ctx, "u1", course.ID, lessons[1])
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, s.Curriculum.DeleteCourse(ctx, "u1", course.ID))
	_, err = s.Curriculum.GetCourse(ctx, "u1", course.ID)
	assert.True(t, core.IsNotFound(err))
}
