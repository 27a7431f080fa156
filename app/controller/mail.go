package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-mailings/app/dto"
	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
)

type MailController struct {
	mails *service.MailService
}

// NewMailController constructs the HTTP mail controller.
func NewMailController(mails *service.MailService) *MailController {
	return &MailController{mails: mails}
}

// Register mounts the mail routes on g.
func (c *MailController) Register(g *echo.Group) {
	g.GET("", withActor(c.List))
	g.POST("", withActor(c.Create))
	g.GET("/:id", withActor(c.Get))
	g.PUT("/:id", withActor(c.Update))
	g.DELETE("/:id", withActor(c.Delete))
}

func (c *MailController) List(ctx echo.Context, actor entity.Actor) error {
	mails, err := c.mails.List(ctx.Request().Context(), actor)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.Map(mails, dto.NewMailResponse))
}

func (c *MailController) Get(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	mail, err := c.mails.Get(ctx.Request().Context(), actor, id)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewMailResponse(mail))
}

func (c *MailController) Create(ctx echo.Context, actor entity.Actor) error {
	req, err := dto.BindMailRequest(ctx)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	mail, err := c.mails.Create(ctx.Request().Context(), actor, req.Entity(0))
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, dto.NewMailResponse(mail))
}

func (c *MailController) Update(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	req, err := dto.BindMailRequest(ctx)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	mail, err := c.mails.Update(ctx.Request().Context(), actor, req.Entity(id))
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.NewMailResponse(mail))
}

func (c *MailController) Delete(ctx echo.Context, actor entity.Actor) error {
	id, ok := pathID(ctx)
	if !ok {
		return errorJSON(ctx, http.StatusBadRequest, dto.ErrInvalidID.Error())
	}
	if err := c.mails.Delete(ctx.Request().Context(), actor, id); err != nil {
		return serviceError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}
