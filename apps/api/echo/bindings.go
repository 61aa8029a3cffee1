package echoapi

import (
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/material"
)

var (
	orderingParam = "ordering"
	limitParam    = "limit"
	fileField     = "file"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads "?ordering=name,-created_at": a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// bindLimit reads "?limit=": missing, malformed or negative values mean no limit.
func bindLimit(ctx echo.Context) int {
	limit, err := strconv.Atoi(ctx.QueryParam(limitParam))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// bindUpload reads the multipart "file" field. At most maxSize+1 bytes are read so that oversized files
// are reported by the material validation.
func bindUpload(ctx echo.Context, maxSize int64) (material.Upload, error) {
	fh, err := ctx.FormFile(fileField)
	if err != nil {
		return material.Upload{}, errFileMissing
	}
	f, err := fh.Open()
	if err != nil {
		return material.Upload{}, errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if maxSize > 0 {
		r = io.LimitReader(f, maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return material.Upload{}, errors.Wrap(err, "reading uploaded file")
	}

	return material.Upload{
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get(echo.HeaderContentType),
		Content:      content,
	}, nil
}
