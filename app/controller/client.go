package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-mailings/app/dto"
	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
)

type ClientController struct {
	clients *service.ClientService
}

// NewClientController constructs the HTTP client controller.
func NewClientController(clients *service.ClientService) *ClientController {
	return &ClientController{clients: clients}
}

// Register mounts the client routes on g.
func (c *ClientController) Register(g *echo.Group) {
	g.GET("", withActor(c.List))
	g.POST("", withActor(c.Create))
	g.GET("/:id", withActor(c.Get))
	g.PUT("/:id", withActor(c.Update))
	g.DELETE("/:id", withActor(c.Delete))
}

func (c *ClientController) List(ctx echo.Context, actor entity.Actor) error {
	clients, err := c.clients.List(ctx.Request().Context(), actor)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.Map(clients, dto.NewClientResponse))
}

func (c *ClientController) Get(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	client, err := c.clients.Get(ctx.Request().Context(), actor, id)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewClientResponse(client))
}

func (c *ClientController) Create(ctx echo.Context, actor entity.Actor) error {
	req, err := dto.BindClientRequest(ctx)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	client, err := c.clients.Create(ctx.Request().Context(), actor, req.Entity(0))
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, dto.NewClientResponse(client))
}

func (c *ClientController) Update(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	req, err := dto.BindClientRequest(ctx)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	client, err := c.clients.Update(ctx.Request().Context(), actor, req.Entity(id))
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewClientResponse(client))
}

func (c *ClientController) Delete(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	if err := c.clients.Delete(ctx.Request().Context(), actor, id); err != nil {
		return serviceError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}
