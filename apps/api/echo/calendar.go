package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core/calendar"
)

const mimeCalendar = "text/calendar; charset=utf-8"

type calendarApi struct {
	svc calendar.ServiceInterface
	now func() time.Time
}

func registerCalendarAPI(g *echo.Group, api calendarApi) {
	g.POST("/calendar", api.processSyllabi)
	g.GET("/calendar.ics", api.feed)
}

func (api calendarApi) processSyllabi(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	report, err := api.svc.ProcessSyllabi(ctx.Request().Context(), owner)
	if err != nil {
		return errors.Wrap(err, "processing syllabi")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api calendarApi) feed(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	ics, err := api.svc.Feed(ctx.Request().Context(), owner, api.now())
	if err != nil {
		return errors.Wrap(err, "exporting calendar")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="courses.ics"`)
	return ctx.Blob(http.StatusOK, mimeCalendar, []byte(ics))
}
