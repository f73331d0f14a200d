package controller

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type JoinRequestController struct {
	controller.BaseController
	service service.JoinRequestServiceInterface
}

func NewJoinRequestController(service service.JoinRequestServiceInterface) *JoinRequestController {
	return &JoinRequestController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// CreateRequest asks to join a gated party
func (c *JoinRequestController) CreateRequest(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	resp, appErr := c.service.Request(ctx.Request().Context(), partyID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Join request created")
}

// ListPending lists a party's pending requests for its host
func (c *JoinRequestController) ListPending(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	resp, appErr := c.service.ListPending(ctx.Request().Context(), partyID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Pending requests retrieved")
}

// PendingCount returns the pending-request count for its host
func (c *JoinRequestController) PendingCount(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	count, appErr := c.service.PendingCount(ctx.Request().Context(), partyID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, map[string]int{"count": count}, "Pending request count retrieved")
}

// Approve accepts a pending request and joins the requester
func (c *JoinRequestController) Approve(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	requestID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request ID")
	}

	resp, appErr := c.service.Approve(ctx.Request().Context(), requestID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Join request approved")
}

// Decline rejects a pending request
func (c *JoinRequestController) Decline(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	requestID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request ID")
	}

	resp, appErr := c.service.Decline(ctx.Request().Context(), requestID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Join request declined")
}
