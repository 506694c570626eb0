package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/planner"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// idParam reads a numeric path parameter.
func idParam(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// timeQueryParam accepts a plain date (2006-01-02) or an RFC3339 timestamp. A missing param is the zero time.
func timeQueryParam(ctx echo.Context, name string) (time.Time, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := calendar.ParseDate(val); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, name+": expected a date (YYYY-MM-DD) or an RFC3339 timestamp")
	}
	return t.UTC(), nil
}

// boolQueryParam returns nil when the param is missing.
func boolQueryParam(ctx echo.Context, name string) (*bool, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+": expected a boolean")
	}
	return &b, nil
}

func bindUserFilter(ctx echo.Context) (user.QueryFilter, error) {
	var filter user.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, err
	}
	var err error
	if filter.IsActive, err = boolQueryParam(ctx, "is_active"); err != nil {
		return filter, err
	}
	if filter.CreatedFrom, err = timeQueryParam(ctx, "created_from"); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = timeQueryParam(ctx, "created_to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func bindScheduleFilter(ctx echo.Context) (schedule.QueryFilter, error) {
	var filter schedule.QueryFilter
	var err error
	if filter.IsActive, err = boolQueryParam(ctx, "is_active"); err != nil {
		return filter, err
	}
	filter.IsTemplate, err = boolQueryParam(ctx, "is_template")
	return filter, err
}

func bindEventFilter(ctx echo.Context) (planner.EventFilter, error) {
	var filter planner.EventFilter
	var err error
	if filter.From, err = timeQueryParam(ctx, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = timeQueryParam(ctx, "to"); err != nil {
		return filter, err
	}
	if val := ctx.QueryParam("course_id"); val != "" {
		if filter.CourseID, err = strconv.ParseInt(val, 10, 64); err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "course_id: expected a number")
		}
	}
	return filter, nil
}
