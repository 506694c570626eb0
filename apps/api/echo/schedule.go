package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lessonplan/core/schedule"
)

type scheduleApi struct {
	svc *schedule.Service
}

func registerScheduleAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *schedule.Service) {
	api := scheduleApi{svc: svc}

	sg := g.Group("/schedules", authed)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/active", api.retrieveActive)
	sg.POST("/check", api.check)

	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.POST("/:id/activate", api.activate)
	sg.POST("/:id/copy", api.copyTemplate)
	sg.GET("/:id/validation", api.validation)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data schedule.NewConfiguration
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewConfiguration")
	}

	conf, err := api.svc.Create(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating configuration")
	}
	return ctx.JSON(http.StatusCreated, conf)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindScheduleFilter(ctx)
	if err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	confs, err := api.svc.Query(ctx.Request().Context(), userID, filter)
	if err != nil {
		return errors.Wrap(err, "querying configurations")
	}
	if confs == nil {
		confs = []schedule.Configuration{}
	}
	return ctx.JSON(http.StatusOK, confs)
}

func (api *scheduleApi) retrieveActive(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	conf, err := api.svc.GetActive(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "retrieving active configuration")
	}
	return ctx.JSON(http.StatusOK, conf)
}

// check validates period assignments without saving them.
func (api *scheduleApi) check(ctx echo.Context) error {
	var data schedule.CheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckRequest")
	}
	res, err := api.svc.Check(data)
	if err != nil {
		return errors.Wrap(err, "checking assignments")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	conf, err := api.svc.Get(ctx.Request().Context(), userID, id)
	if err != nil {
		return errors.Wrap(err, "retrieving configuration")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	var data schedule.UpdateConfiguration
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateConfiguration")
	}

	conf, err := api.svc.Update(ctx.Request().Context(), userID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating configuration")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), userID, id); err != nil {
		return errors.Wrap(err, "deleting configuration")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) activate(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	conf, err := api.svc.Activate(ctx.Request().Context(), userID, id)
	if err != nil {
		return errors.Wrap(err, "activating configuration")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *scheduleApi) copyTemplate(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	var data CopyTemplateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CopyTemplateRequest")
	}

	conf, err := api.svc.CopyTemplate(ctx.Request().Context(), userID, id, data.Name)
	if err != nil {
		return errors.Wrap(err, "copying template")
	}
	return ctx.JSON(http.StatusCreated, conf)
}

// validation reports what keeps a stored configuration from being generated, if anything.
func (api *scheduleApi) validation(ctx echo.Context) error {
	userID, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}
	conf, err := api.svc.Get(ctx.Request().Context(), userID, id)
	if err != nil {
		return errors.Wrap(err, "retrieving configuration")
	}
	return ctx.JSON(http.StatusOK, conf.Check())
}

type CopyTemplateRequest struct {
	Name string `json:"name"`
}
