package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/constants"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type LiveController struct {
	controller.BaseController
	service service.LiveServiceInterface
}

func NewLiveController(service service.LiveServiceInterface) *LiveController {
	return &LiveController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// Stream attaches the caller to the party's live channel as a
// server-sent event stream. Redelivered events are filtered on the
// (member, ts) key before they reach the wire.
func (c *LiveController) Stream(ctx echo.Context) error {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}

	sub, appErr := c.service.Subscribe(ctx.Request().Context(), partyID, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	defer sub.Close()

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	dedupe := entity.NewDeduper(constants.LiveDedupWindow)
	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case event, ok := <-sub.Events:
			if !ok {
				return nil
			}
			if dedupe.Seen(event.DedupKey()) {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

// PublishLocation broadcasts the caller's location to the party
func (c *LiveController) PublishLocation(ctx echo.Context) error {
	userID, partyID, httpErr := c.identify(ctx)
	if httpErr != nil {
		return httpErr
	}

	req := new(dto.PublishLocationRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	if appErr := c.service.PublishLocation(ctx.Request().Context(), partyID, userID, req.Lat, req.Lng, req.TS); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Location published")
}

// PublishChat broadcasts a chat message to the party
func (c *LiveController) PublishChat(ctx echo.Context) error {
	userID, partyID, httpErr := c.identify(ctx)
	if httpErr != nil {
		return httpErr
	}

	req := new(dto.PublishChatRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	if appErr := c.service.PublishChat(ctx.Request().Context(), partyID, userID, req.Text, req.TS); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Chat published")
}

// PublishStatus broadcasts a status change to the party
func (c *LiveController) PublishStatus(ctx echo.Context) error {
	userID, partyID, httpErr := c.identify(ctx)
	if httpErr != nil {
		return httpErr
	}

	req := new(dto.PublishStatusRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	if appErr := c.service.PublishStatus(ctx.Request().Context(), partyID, userID, entity.StatusKind(req.Kind), req.TS); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Status published")
}

func (c *LiveController) identify(ctx echo.Context) (uuid.UUID, uuid.UUID, *echo.HTTPError) {
	userID, appErr := controller.UserIDFromContext(ctx)
	if appErr != nil {
		return uuid.Nil, uuid.Nil, c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	partyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, c.BadRequest(errors.ErrInvalidRequestData, "Invalid party ID")
	}
	return userID, partyID, nil
}
