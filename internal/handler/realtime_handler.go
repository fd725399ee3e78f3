package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-core/internal/realtime"
	"github.com/shinyyama/marketplace-core/internal/service"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	listings service.ListingService
}

func NewRealtimeHandler(hub *realtime.Hub, listings service.ListingService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, listings: listings}
}

// Subscribe upgrades to a websocket that receives refresh signals for one
// listing. Signals carry no auction data, so the stream needs no identity.
func (h *RealtimeHandler) Subscribe(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.listings.Get(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	if err := h.hub.Serve(c.Response(), c.Request(), id); err != nil {
		c.Logger().Warnf("websocket upgrade failed: %v", err)
	}
	return nil
}
