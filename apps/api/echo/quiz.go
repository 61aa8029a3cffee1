package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core/quiz"
)

type quizApi struct {
	svc      quiz.ServiceInterface
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, api quizApi) {
	qg := g.Group("/quiz")
	qg.POST("", api.generate)
	qg.POST("/check-answer", api.checkAnswer)
}

func (api quizApi) generate(ctx echo.Context) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}

	var data quiz.Params
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to quiz.Params")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Generate(ctx.Request().Context(), owner, data)
	if err != nil {
		return errors.Wrap(err, "generating quiz")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api quizApi) checkAnswer(ctx echo.Context) error {
	var data quiz.CheckAnswer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to quiz.CheckAnswer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	eval, err := api.svc.Evaluate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "evaluating answer")
	}
	return ctx.JSON(http.StatusOK, eval)
}
