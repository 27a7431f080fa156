package controller

import (
	"errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
)

const actorKey = "actor"

// BasicAuth rejects requests without valid credentials and stores the
// authenticated actor on the context.
func BasicAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return echomiddleware.BasicAuthWithConfig(echomiddleware.BasicAuthConfig{
		Realm: "mailings",
		Validator: func(username, password string, ctx echo.Context) (bool, error) {
			actor, err := auth.Authenticate(ctx.Request().Context(), username, password)
			if errors.Is(err, service.ErrInvalidCredentials) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			ctx.Set(actorKey, actor)
			return true, nil
		},
	})
}

func actorFrom(ctx echo.Context) (entity.Actor, bool) {
	actor, ok := ctx.Get(actorKey).(entity.Actor)
	return actor, ok
}

// withActor adapts a handler that needs the authenticated actor.
func withActor(h func(echo.Context, entity.Actor) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, ok := actorFrom(ctx)
		if !ok {
			return echo.ErrUnauthorized
		}
		return h(ctx, actor)
	}
}
