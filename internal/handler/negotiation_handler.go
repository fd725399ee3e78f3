package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/service"
)

type NegotiationHandler struct {
	coord *service.NegotiationCoordinator
}

func NewNegotiationHandler(coord *service.NegotiationCoordinator) *NegotiationHandler {
	return &NegotiationHandler{coord: coord}
}

type PlaceBidRequest struct {
	Amount int64 `json:"amount"`
}

type PlaceBidResponse struct {
	BidID           string `json:"bidId"`
	CurrentPrice    int64  `json:"currentPrice"`
	IsHighestBidder bool   `json:"isHighestBidder"`
	BidCount        int    `json:"bidCount"`
}

type BidResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Amount    int64  `json:"amount"`
	Sequence  int64  `json:"sequence"`
	CreatedAt string `json:"createdAt"`
}

type AuctionResponse struct {
	ListingID       string        `json:"listingId"`
	StartingPrice   int64         `json:"startingPrice"`
	CurrentPrice    int64         `json:"currentPrice"`
	HighestBidderID string        `json:"highestBidderId,omitempty"`
	MinimumNextBid  int64         `json:"minimumNextBid"`
	BidCount        int           `json:"bidCount"`
	BidHistory      []BidResponse `json:"bidHistory"`
	PollIntervalMs  int64         `json:"pollIntervalMs"`
}

type MakeOfferRequest struct {
	Amount  int64   `json:"amount"`
	Message *string `json:"message"`
}

type OfferResponse struct {
	ID        string  `json:"id"`
	ListingID string  `json:"listingId"`
	UserID    string  `json:"userId"`
	Amount    int64   `json:"amount"`
	Message   *string `json:"message,omitempty"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
}

type OfferStateResponse struct {
	HasPendingOffer bool           `json:"hasPendingOffer"`
	LatestOffer     *OfferResponse `json:"latestOffer,omitempty"`
}

type RespondRequest struct {
	Decision string `json:"decision"`
}

type RespondResponse struct {
	OfferID       string `json:"offerId"`
	Status        string `json:"status"`
	ListingStatus string `json:"listingStatus"`
}

func (h *NegotiationHandler) PlaceBid(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.coord.PlaceBid(c.Request().Context(), caller, c.Param("id"), req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, PlaceBidResponse{
		BidID:           res.Bid.ID,
		CurrentPrice:    res.CurrentPrice,
		IsHighestBidder: res.IsHighestBidder,
		BidCount:        res.BidCount,
	})
}

func (h *NegotiationHandler) Auction(c echo.Context) error {
	view, err := h.coord.AuctionState(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	resp := AuctionResponse{
		ListingID:       view.ListingID,
		StartingPrice:   view.StartingPrice,
		CurrentPrice:    view.CurrentPrice,
		HighestBidderID: view.HighestBidderID,
		MinimumNextBid:  view.MinimumNextBid,
		BidCount:        view.BidCount,
		BidHistory:      make([]BidResponse, 0, len(view.Bids)),
		PollIntervalMs:  view.PollInterval.Milliseconds(),
	}
	for _, b := range view.Bids {
		resp.BidHistory = append(resp.BidHistory, BidResponse{
			ID:        b.ID,
			UserID:    b.UserID,
			Amount:    b.Amount,
			Sequence:  b.Sequence,
			CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *NegotiationHandler) MyBidStatus(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}
	st, err := h.coord.UserBidStatus(c.Request().Context(), c.Param("id"), caller.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *NegotiationHandler) MakeOffer(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req MakeOfferRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	offer, err := h.coord.MakeOffer(c.Request().Context(), caller, c.Param("id"), req.Amount, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"offerId": offer.ID,
		"status":  string(offer.Status),
	})
}

func (h *NegotiationHandler) MyOfferState(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}
	st, err := h.coord.OfferState(c.Request().Context(), c.Param("id"), caller.UserID)
	if err != nil {
		return writeError(c, err)
	}
	resp := OfferStateResponse{HasPendingOffer: st.HasPendingOffer}
	if st.LatestOffer != nil {
		o := toOfferResponse(*st.LatestOffer)
		resp.LatestOffer = &o
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *NegotiationHandler) ListOffers(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}
	offers, err := h.coord.ListOffers(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		resp = append(resp, toOfferResponse(o))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"offers": resp})
}

func (h *NegotiationHandler) RespondToOffer(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req RespondRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	decision, err := ledger.ParseDecision(req.Decision)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.coord.RespondToOffer(c.Request().Context(), caller, c.Param("id"), decision)
	if err != nil {
		return writeError(c, err)
	}
	listingStatus := res.Listing.Status
	if res.Sold {
		listingStatus = model.ListingStatusSold
	}
	return c.JSON(http.StatusOK, RespondResponse{
		OfferID:       res.Offer.ID,
		Status:        string(res.Offer.Status),
		ListingStatus: string(listingStatus),
	})
}

func toOfferResponse(o model.Offer) OfferResponse {
	return OfferResponse{
		ID:        o.ID,
		ListingID: o.ListingID,
		UserID:    o.UserID,
		Amount:    o.Amount,
		Message:   o.Message,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
