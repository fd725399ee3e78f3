package ledger

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrAuctionClosed         = errors.New("auction_closed")
	ErrBiddingAlreadyStarted = errors.New("bidding_already_started")
	ErrDuplicatePendingOffer = errors.New("duplicate_pending_offer")
	ErrAlreadyResolved       = errors.New("already_resolved")
	ErrNotFound              = errors.New("not_found")
	ErrOffersNotAllowed      = errors.New("offers_not_allowed")
	ErrInvalidDecision       = errors.New("invalid_decision")
	ErrStorageFailure        = errors.New("storage_failure")
)

// ErrInsufficientBid is the bidding name for ErrInvalidAmount.
var ErrInsufficientBid = ErrInvalidAmount

var rejections = []error{
	ErrUnauthorized,
	ErrInvalidAmount,
	ErrAuctionClosed,
	ErrBiddingAlreadyStarted,
	ErrDuplicatePendingOffer,
	ErrAlreadyResolved,
	ErrNotFound,
	ErrOffersNotAllowed,
	ErrInvalidDecision,
}

// IsRejection reports whether err is a business-rule rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	if err == nil || errors.Is(err, ErrStorageFailure) {
		return false
	}
	for _, e := range rejections {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// classify passes known errors through and marks everything else as a storage
// failure.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrStorageFailure) {
		return err
	}
	for _, e := range rejections {
		if errors.Is(err, e) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
