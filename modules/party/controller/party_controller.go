package controller

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type PartyController struct {
	controller.BaseController
	service service.PartyServiceInterface
}

func NewPartyController(service service.PartyServiceInterface) *PartyController {
	return &PartyController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// CreateParty creates a new party hosted by the current user
func (c *PartyController) CreateParty(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	var req dto.CreatePartyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	resp, appErr := c.service.Create(ctx.Request().Context(), userID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Party created")
}

// GetParty returns a party with its current occupancy
func (c *PartyController) GetParty(ctx echo.Context) error {
	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	resp, appErr := c.service.Get(ctx.Request().Context(), partyID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Party retrieved")
}

// GetPartyByShareCode resolves a party from its shareable code
func (c *PartyController) GetPartyByShareCode(ctx echo.Context) error {
	code := ctx.Param("code")
	if code == "" {
		return c.BadRequest(errors.ErrInvalidRequestData, "Missing share code")
	}

	resp, appErr := c.service.GetByShareCode(ctx.Request().Context(), code)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Party retrieved")
}

// CancelParty terminally cancels the party (host only)
func (c *PartyController) CancelParty(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	if appErr := c.service.Cancel(ctx.Request().Context(), partyID, userID); appErr != nil {
		logger.Error("PartyController:CancelParty:ServiceError", "party_id", partyID, "error", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Party canceled")
}

// RestoreParty brings an expired party back within its grace window (host only)
func (c *PartyController) RestoreParty(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	resp, appErr := c.service.Restore(ctx.Request().Context(), partyID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Party restored")
}

// ListExpiredParties lists recently expired parties still inside the grace window
func (c *PartyController) ListExpiredParties(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	resp, appErr := c.service.ListExpired(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Expired parties retrieved")
}
