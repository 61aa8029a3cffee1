package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/schedule"
)

type courseApi struct {
	svc      course.ServiceInterface
	validate *validator.Validate
	now      func() time.Time
}

func registerCourseAPI(g *echo.Group, api courseApi) {
	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/overview", api.overview)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.GET("/:id/sessions", api.sessions)
}

func (api courseApi) create(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), owner, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api courseApi) query(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), owner, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api courseApi) retrieve(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api courseApi) update(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), owner, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api courseApi) destroy(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), owner, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type SessionsResponse struct {
	CourseID string             `json:"course_id"`
	Sessions []schedule.Session `json:"sessions"`
}

func (api courseApi) sessions(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, SessionsResponse{
		CourseID: c.ID,
		Sessions: api.svc.Sessions(c, api.now(), bindLimit(ctx)),
	})
}

func (api courseApi) overview(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	cards, err := api.svc.Overview(ctx.Request().Context(), owner, api.now())
	if err != nil {
		return errors.Wrap(err, "building courses overview")
	}
	return ctx.JSON(http.StatusOK, cards)
}
