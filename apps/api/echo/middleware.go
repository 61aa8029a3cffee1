package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core/user"
)

// activeUserMiddleware rejects the tokens of deleted or deactivated users.
func activeUserMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}
