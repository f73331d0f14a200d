package controller

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type MembershipController struct {
	controller.BaseController
	service service.MembershipServiceInterface
}

func NewMembershipController(service service.MembershipServiceInterface) *MembershipController {
	return &MembershipController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// JoinParty joins the current user to an open party
func (c *MembershipController) JoinParty(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	resp, appErr := c.service.Join(ctx.Request().Context(), partyID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Joined party")
}

// LeaveParty removes the current user from the party (idempotent)
func (c *MembershipController) LeaveParty(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	if appErr := c.service.Leave(ctx.Request().Context(), partyID, userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Left party")
}

// KickMember removes a member from the party (host only)
func (c *MembershipController) KickMember(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	var req dto.KickRequest
	if err := ctx.Bind(&req); err != nil || req.UserID == uuid.Nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid kick request")
	}

	if appErr := c.service.Kick(ctx.Request().Context(), partyID, req.UserID, userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Member kicked")
}

// GetRoster returns the party's joined members and occupancy
func (c *MembershipController) GetRoster(ctx echo.Context) error {
	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	resp, appErr := c.service.Roster(ctx.Request().Context(), partyID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Roster retrieved")
}

// CountMembers returns the number of joined members
func (c *MembershipController) CountMembers(ctx echo.Context) error {
	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	count, appErr := c.service.Count(ctx.Request().Context(), partyID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, map[string]int{"count": count}, "Member count retrieved")
}
