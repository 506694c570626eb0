package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lessonplan/core/curriculum"
)

type curriculumApi struct {
	svc *curriculum.Service
}

func registerCurriculumAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *curriculum.Service) {
	api := curriculumApi{svc: svc}

	cg := g.Group("/courses", authed)
	cg.POST("", api.createCourse)
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.PUT("/:id", api.updateCourse)
	cg.DELETE("/:id", api.destroyCourse)
	cg.GET("/:id/lessons", api.orderedLessons)

	cg.POST("/:id/topics", api.createTopic)
	cg.PUT("/:id/topics/:topicID", api.updateTopic)
	cg.DELETE("/:id/topics/:topicID", api.destroyTopic)

	cg.POST("/:id/subtopics", api.createSubTopic)
	cg.PUT("/:id/subtopics/:subTopicID", api.updateSubTopic)
	cg.DELETE("/:id/subtopics/:subTopicID", api.destroySubTopic)

	cg.POST("/:id/lessons", api.createLesson)
	cg.GET("/:id/lessons/:lessonID", api.retrieveLesson)
	cg.PUT("/:id/lessons/:lessonID", api.updateLesson)
	cg.DELETE("/:id/lessons/:lessonID", api.destroyLesson)
	cg.POST("/:id/lessons/:lessonID/attachments", api.addAttachment)
	cg.DELETE("/:id/lessons/:lessonID/attachments/:attachmentID", api.destroyAttachment)

	sg := g.Group("/standards", authed)
	sg.POST("", api.createStandard)
	sg.GET("", api.queryStandards)
	sg.DELETE("/:id", api.destroyStandard)
}

// ownerAndID returns the context user and the `:id` path param.
func ownerAndID(ctx echo.Context) (string, int64, error) {
	userID, err := contextUserID(ctx)
	if err != nil {
		return "", 0, err
	}
	id, err := idParam(ctx, "id")
	if err != nil {
		return "", 0, err
	}
	return userID, id, nil
}

// Courses

func (api *curriculumApi) createCourse(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data curriculum.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	course, err := api.svc.CreateCourse(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *curriculumApi) queryCourses(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.QueryCourses(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []curriculum.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *curriculumApi) retrieveCourse(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	course, err := api.svc.GetCourseTree(ctx.Request().Context(), userID, courseID)
	if err != nil {
		return errors.Wrap(err, "retrieving course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *curriculumApi) updateCourse(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	var data curriculum.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	course, err := api.svc.UpdateCourse(ctx.Request().Context(), userID, courseID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *curriculumApi) destroyCourse(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCourse(ctx.Request().Context(), userID, courseID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) orderedLessons(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	ids, err := api.svc.OrderedLessons(ctx.Request().Context(), userID, courseID)
	if err != nil {
		return errors.Wrap(err, "ordering lessons")
	}
	if ids == nil {
		ids = []int64{}
	}
	return ctx.JSON(http.StatusOK, ids)
}

// Topics & sub-topics

func (api *curriculumApi) createTopic(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	var data curriculum.NewTopic
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}

	topic, err := api.svc.CreateTopic(ctx.Request().Context(), userID, courseID, data)
	if err != nil {
		return errors.Wrap(err, "creating topic")
	}
	return ctx.JSON(http.StatusCreated, topic)
}

func (api *curriculumApi) updateTopic(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "topicID")
	if err != nil {
		return err
	}
	var data curriculum.NewTopic
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}

	topic, err := api.svc.UpdateTopic(ctx.Request().Context(), userID, courseID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating topic")
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *curriculumApi) destroyTopic(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "topicID")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTopic(ctx.Request().Context(), userID, courseID, id); err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) createSubTopic(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	var data curriculum.NewSubTopic
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubTopic")
	}

	sub, err := api.svc.CreateSubTopic(ctx.Request().Context(), userID, courseID, data)
	if err != nil {
		return errors.Wrap(err, "creating sub-topic")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *curriculumApi) updateSubTopic(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "subTopicID")
	if err != nil {
		return err
	}
	var data curriculum.NewSubTopic
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubTopic")
	}

	sub, err := api.svc.UpdateSubTopic(ctx.Request().Context(), userID, courseID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating sub-topic")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *curriculumApi) destroySubTopic(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "subTopicID")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSubTopic(ctx.Request().Context(), userID, courseID, id); err != nil {
		return errors.Wrap(err, "deleting sub-topic")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lessons

func (api *curriculumApi) createLesson(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	var data curriculum.NewLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	lesson, err := api.svc.CreateLesson(ctx.Request().Context(), userID, courseID, data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lesson)
}

func (api *curriculumApi) retrieveLesson(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "lessonID")
	if err != nil {
		return err
	}
	lesson, err := api.svc.GetLesson(ctx.Request().Context(), userID, courseID, id)
	if err != nil {
		return errors.Wrap(err, "retrieving lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *curriculumApi) updateLesson(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "lessonID")
	if err != nil {
		return err
	}
	var data curriculum.NewLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	lesson, err := api.svc.UpdateLesson(ctx.Request().Context(), userID, courseID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *curriculumApi) destroyLesson(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "lessonID")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteLesson(ctx.Request().Context(), userID, courseID, id); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) addAttachment(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	lessonID, err := idParam(ctx, "lessonID")
	if err != nil {
		return err
	}
	var data curriculum.NewAttachment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttachment")
	}

	att, err := api.svc.AddAttachment(ctx.Request().Context(), userID, courseID, lessonID, data)
	if err != nil {
		return errors.Wrap(err, "adding attachment")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *curriculumApi) destroyAttachment(ctx echo.Context) error {
	userID, courseID, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	lessonID, err := idParam(ctx, "lessonID")
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "attachmentID")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteAttachment(ctx.Request().Context(), userID, courseID, lessonID, id); err != nil {
		return errors.Wrap(err, "deleting attachment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Standards

func (api *curriculumApi) createStandard(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data curriculum.NewStandard
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStandard")
	}

	std, err := api.svc.CreateStandard(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating standard")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *curriculumApi) queryStandards(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	stds, err := api.svc.QueryStandards(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying standards")
	}
	if stds == nil {
		stds = []curriculum.Standard{}
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *curriculumApi) destroyStandard(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStandard(ctx.Request().Context(), userID, id); err != nil {
		return errors.Wrap(err, "deleting standard")
	}
	return ctx.NoContent(http.StatusNoContent)
}
