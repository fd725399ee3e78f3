package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/middleware"
	"github.com/shinyyama/marketplace-core/internal/service"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{ledger.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{ledger.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{ledger.ErrAuctionClosed, http.StatusConflict, "auction_closed"},
	{ledger.ErrBiddingAlreadyStarted, http.StatusConflict, "bidding_already_started"},
	{ledger.ErrDuplicatePendingOffer, http.StatusConflict, "duplicate_pending_offer"},
	{ledger.ErrAlreadyResolved, http.StatusConflict, "already_resolved"},
	{ledger.ErrOffersNotAllowed, http.StatusConflict, "offers_not_allowed"},
	{ledger.ErrNotFound, http.StatusNotFound, "not_found"},
	{ledger.ErrInvalidDecision, http.StatusBadRequest, "invalid_decision"},
	{service.ErrInvalidListing, http.StatusBadRequest, "invalid_listing"},
	{ledger.ErrStorageFailure, http.StatusServiceUnavailable, "storage_failure"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
	{context.Canceled, http.StatusServiceUnavailable, "canceled"},
}

// writeError maps domain errors onto status codes and the error envelope.
func writeError(c echo.Context, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return c.JSON(e.status, NewErrorResponse(e.code, err.Error()))
		}
	}
	c.Logger().Errorf("unhandled error: %v", err)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "unexpected error"))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", msg))
}

func callerOf(c echo.Context) (verification.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok || caller.UserID == "" {
		return verification.Caller{}, false
	}
	return caller, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}
