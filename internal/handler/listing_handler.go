package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/service"
)

type ListingHandler struct {
	svc service.ListingService
}

func NewListingHandler(svc service.ListingService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

type ListingResponse struct {
	ID              string `json:"id"`
	SellerID        string `json:"sellerId"`
	Title           string `json:"title"`
	Price           int64  `json:"price"`
	Type            string `json:"type"`
	AllowBestOffer  bool   `json:"allowBestOffer"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effectiveStatus"`
	ExpiresAt       string `json:"expiresAt"`
	CreatedAt       string `json:"createdAt"`
}

type ListingListResponse struct {
	Listings []ListingResponse `json:"listings"`
	Total    int64             `json:"total"`
}

type CreateListingRequest struct {
	Title          string            `json:"title"`
	Price          int64             `json:"price"`
	Type           model.ListingType `json:"type"`
	AllowBestOffer bool              `json:"allowBestOffer"`
	DurationHours  int               `json:"durationHours"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	view, err := h.svc.Create(c.Request().Context(), caller, service.CreateListingInput{
		Title:          req.Title,
		Price:          req.Price,
		Type:           req.Type,
		AllowBestOffer: req.AllowBestOffer,
		Duration:       time.Duration(req.DurationHours) * time.Hour,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toListingResponse(*view))
}

func (h *ListingHandler) Get(c echo.Context) error {
	view, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(*view))
}

func (h *ListingHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	views, total, err := h.svc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	resp := ListingListResponse{
		Listings: make([]ListingResponse, 0, len(views)),
		Total:    total,
	}
	for _, v := range views {
		resp.Listings = append(resp.Listings, toListingResponse(v))
	}
	return c.JSON(http.StatusOK, resp)
}

func toListingResponse(v service.ListingView) ListingResponse {
	l := v.Listing
	return ListingResponse{
		ID:              l.ID,
		SellerID:        l.SellerID,
		Title:           l.Title,
		Price:           l.Price,
		Type:            string(l.Type),
		AllowBestOffer:  l.AllowBestOffer,
		Status:          string(l.Status),
		EffectiveStatus: string(v.EffectiveStatus),
		ExpiresAt:       l.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:       l.CreatedAt.UTC().Format(time.RFC3339),
	}
}
