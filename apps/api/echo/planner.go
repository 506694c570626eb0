package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lessonplan/core/planner"
)

type plannerApi struct {
	svc *planner.Service
}

func registerPlannerAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *planner.Service) {
	api := plannerApi{svc: svc}

	// plain routes: a "/schedules/:id" group would shadow the configuration detail routes
	g.POST("/schedules/:id/generate", api.generate, authed)
	g.POST("/schedules/:id/continue", api.continueCourse, authed)
	g.GET("/schedules/:id/events", api.events, authed)
	g.POST("/planner/preview", api.preview, authed)
}

func (api *plannerApi) generate(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.Generate(ctx.Request().Context(), userID, id)
	if err != nil {
		return errors.Wrap(err, "generating schedule")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *plannerApi) continueCourse(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	var data planner.ContinueRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContinueRequest")
	}

	summary, err := api.svc.ContinueCourse(ctx.Request().Context(), userID, id, data)
	if err != nil {
		return errors.Wrap(err, "continuing course")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *plannerApi) events(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindEventFilter(ctx)
	if err != nil {
		return errors.Wrap(err, "binding to EventFilter")
	}

	events, err := api.svc.Events(ctx.Request().Context(), userID, id, filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []planner.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *plannerApi) preview(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data planner.PreviewRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PreviewRequest")
	}

	events, err := api.svc.Preview(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "previewing course")
	}
	if events == nil {
		events = []planner.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}
