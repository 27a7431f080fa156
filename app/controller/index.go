package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-mailings/app/dto"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
)

type IndexController struct {
	stats *service.StatsService
}

func NewIndexController(stats *service.StatsService) *IndexController {
	return &IndexController{stats: stats}
}

// Index serves the public landing page figures.
func (c *IndexController) Index(ctx echo.Context) error {
	stats, err := c.stats.Index(ctx.Request().Context())
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewIndexResponse(stats))
}

func Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
