package handler

import (
	"context"
	"linkednotes/cmd/internal/infrastructure/aws/websocket"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
)

type WebSocketService interface {
	RegisterConnection(ctx context.Context, userID int64, connID string) apierror.ErrorResponse
	RemoveConnection(ctx context.Context, connectionID string)
	Heartbeat(ctx context.Context, connID string) apierror.ErrorResponse
}

type DefaultWSRoute struct {
	WSService WebSocketService
}

func NewWSDefault(wsService WebSocketService) *DefaultWSRoute {
	return &DefaultWSRoute{WSService: wsService}
}

func (h *DefaultWSRoute) HandleConnect(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	connID := c.Request().Header.Get(websocket.HeaderConnectionID)
	if apierr := h.WSService.RegisterConnection(c.Request().Context(), user.ID, connID); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (h *DefaultWSRoute) HandleDisconnect(c echo.Context) error {
	connID := c.Request().Header.Get(websocket.HeaderConnectionID)
	if connID != "" {
		h.WSService.RemoveConnection(c.Request().Context(), connID)
	}
	return c.NoContent(http.StatusOK)
}

func (h *DefaultWSRoute) HandlePing(c echo.Context) error {
	connID := c.Request().Header.Get(websocket.HeaderConnectionID)
	if apierr := h.WSService.Heartbeat(c.Request().Context(), connID); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
