package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-mailings/app/dto"
	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
)

type MailingController struct {
	mailings *service.MailingService
}

// NewMailingController constructs the HTTP mailing controller.
func NewMailingController(mailings *service.MailingService) *MailingController {
	return &MailingController{mailings: mailings}
}

// Register mounts the mailing routes on g.
func (c *MailingController) Register(g *echo.Group) {
	g.GET("", withActor(c.List))
	g.POST("", withActor(c.Create))
	g.GET("/:id", withActor(c.Get))
	g.PUT("/:id", withActor(c.Update))
	g.DELETE("/:id", withActor(c.Delete))
	g.PUT("/:id/activation", withActor(c.SetActivation))
	g.GET("/:id/logs", withActor(c.Logs))
}

func (c *MailingController) List(ctx echo.Context, actor entity.Actor) error {
	mailings, err := c.mailings.List(ctx.Request().Context(), actor)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.Map(mailings, dto.NewMailingResponse))
}

func (c *MailingController) Get(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	m, err := c.mailings.Get(ctx.Request().Context(), actor, id)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewMailingResponse(m))
}

func (c *MailingController) Create(ctx echo.Context, actor entity.Actor) error {
	req, err := dto.BindMailingRequest(ctx)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	m, err := c.mailings.Create(ctx.Request().Context(), actor, req.Entity(0))
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, dto.NewMailingResponse(m))
}

func (c *MailingController) Update(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	req, err := dto.BindMailingRequest(ctx)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	m, err := c.mailings.Update(ctx.Request().Context(), actor, req.Entity(id))
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewMailingResponse(m))
}

func (c *MailingController) Delete(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	if err := c.mailings.Delete(ctx.Request().Context(), actor, id); err != nil {
		return serviceError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// SetActivation toggles the activation flag. Managers may toggle any mailing.
func (c *MailingController) SetActivation(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	req, err := dto.BindActivationRequest(ctx)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	m, err := c.mailings.SetActivation(ctx.Request().Context(), actor, id, *req.IsActivated)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewMailingResponse(m))
}

func (c *MailingController) Logs(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	logs, err := c.mailings.ListLogs(ctx.Request().Context(), actor, id)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.Map(logs, dto.NewLogResponse))
}
