package echoapi

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/material"
)

type materialApi struct {
	svc     material.ServiceInterface
	courses course.ServiceInterface
	maxSize int64
}

func registerMaterialAPI(g *echo.Group, api materialApi) {
	g.GET("/courses/:id/files", api.query)
	g.POST("/courses/:id/files", api.upload)
	g.GET("/files/:id", api.download)
	g.DELETE("/files/:id", api.destroy)
	g.POST("/lecture-info", api.lectureInfo)
}

func (api materialApi) upload(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	c, err := api.courses.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	up, err := bindUpload(ctx, api.maxSize)
	if err != nil {
		return err
	}
	up.CourseID = c.ID

	f, err := api.svc.Upload(ctx.Request().Context(), owner, up)
	if err != nil {
		return errors.Wrap(err, "uploading file")
	}
	return ctx.JSON(http.StatusCreated, FileResponse{File: f, URL: "/v1/files/" + f.ID})
}

func (api materialApi) query(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	c, err := api.courses.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	files, err := api.svc.Query(ctx.Request().Context(), owner, c.ID)
	if err != nil {
		return errors.Wrap(err, "querying files")
	}
	return ctx.JSON(http.StatusOK, files)
}

func (api materialApi) download(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	f, err := api.svc.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding file")
	}

	contentType := f.MimeType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalName})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=%q", f.FileName)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return ctx.Blob(http.StatusOK, contentType, f.Content)
}

func (api materialApi) destroy(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), owner, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting file")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api materialApi) lectureInfo(ctx echo.Context) error {
	up, err := bindUpload(ctx, api.maxSize)
	if err != nil {
		return err
	}
	info := api.svc.LectureInfo(ctx.Request().Context(), up.OriginalName, up.MimeType, up.Content)
	return ctx.JSON(http.StatusOK, info)
}

type FileResponse struct {
	material.File
	URL string `json:"url"`
}
