package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-mailings/app/service"
)

func errorJSON(ctx echo.Context, status int, msg string) error {
	return ctx.JSON(status, map[string]string{"error": msg})
}

// serviceError maps service sentinels to HTTP responses.
func serviceError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return errorJSON(ctx, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		return errorJSON(ctx, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrDuplicateEmail):
		return errorJSON(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidReference):
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	default:
		logrus.WithError(err).WithField("path", ctx.Path()).Error("request failed")
		return errorJSON(ctx, http.StatusInternalServerError, "internal error")
	}
}

func pathID(ctx echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HTTPErrorHandler renders framework errors (unknown routes, failed basic
// auth) in the same JSON shape as handler errors.
func HTTPErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		logrus.WithError(err).WithField("path", ctx.Path()).Error("unhandled error")
	}

	if ctx.Request().Method == http.MethodHead {
		_ = ctx.NoContent(status)
		return
	}
	_ = errorJSON(ctx, status, msg)
}
