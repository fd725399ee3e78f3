package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/reqctx"
	"github.com/shinyyama/marketplace-core/internal/verification"
	"go.uber.org/zap"
)

// Publisher fans a refresh signal out to a listing's subscribers.
type Publisher interface {
	Publish(listingID, kind string) int64
}

const (
	SignalBid   = "bid"
	SignalOffer = "offer"
)

// AuctionView is the polled auction read model.
type AuctionView struct {
	ledger.AuctionState
	PollInterval time.Duration
}

// NegotiationCoordinator is the entry point for bids and offers. Every
// accepted mutation produces one notification and one refresh signal;
// rejections produce neither.
type NegotiationCoordinator struct {
	bids         *ledger.BidLedger
	offers       *ledger.OfferLedger
	notifier     Notifier
	publisher    Publisher
	log          *zap.Logger
	pollInterval time.Duration
}

func NewNegotiationCoordinator(bids *ledger.BidLedger, offers *ledger.OfferLedger, notifier Notifier, publisher Publisher, log *zap.Logger, pollInterval time.Duration) *NegotiationCoordinator {
	if log == nil {
		log = zap.NewNop()
	}
	offers.OnAccept(markSold)
	return &NegotiationCoordinator{
		bids:         bids,
		offers:       offers,
		notifier:     notifier,
		publisher:    publisher,
		log:          log.Named("negotiation"),
		pollInterval: pollInterval,
	}
}

func markSold(ctx context.Context, tx ledger.Store, listing *model.Listing, _ *model.Offer) error {
	return tx.SetListingStatus(ctx, listing.ID, model.ListingStatusSold)
}

func (c *NegotiationCoordinator) PlaceBid(ctx context.Context, caller verification.Caller, listingID string, amount int64) (*ledger.BidResult, error) {
	res, err := c.bids.PlaceBid(ctx, caller, listingID, amount)
	if err != nil {
		c.logRejection(ctx, "place bid", caller, listingID, err)
		return nil, err
	}

	bidID := res.Bid.ID
	c.notifier.Notify(ctx, Event{
		Type:        model.NotificationNewBid,
		RecipientID: res.Listing.SellerID,
		ListingID:   listingID,
		BidID:       &bidID,
		Title:       "New bid",
		Body: fmt.Sprintf("%s now stands at %s after %d bids.",
			res.Listing.Title, formatMoney(res.CurrentPrice), res.BidCount),
		Payload: map[string]interface{}{
			"currentPrice": res.CurrentPrice,
			"bidCount":     res.BidCount,
		},
	})
	c.publisher.Publish(listingID, SignalBid)

	c.log.Info("bid placed", append(reqctx.Fields(ctx),
		zap.String("listing_id", listingID),
		zap.String("user_id", caller.UserID),
		zap.Int64("current_price", res.CurrentPrice),
		zap.Bool("is_highest", res.IsHighestBidder))...)
	return res, nil
}

func (c *NegotiationCoordinator) MakeOffer(ctx context.Context, caller verification.Caller, listingID string, amount int64, message *string) (*model.Offer, error) {
	offer, listing, err := c.offers.MakeOffer(ctx, caller, listingID, amount, message)
	if err != nil {
		c.logRejection(ctx, "make offer", caller, listingID, err)
		return nil, err
	}

	offerID := offer.ID
	c.notifier.Notify(ctx, Event{
		Type:        model.NotificationNewOffer,
		RecipientID: listing.SellerID,
		ListingID:   listingID,
		OfferID:     &offerID,
		Title:       "New offer",
		Body: fmt.Sprintf("You received an offer of %s (%s%% of asking) on %s.",
			formatMoney(offer.Amount), percentOf(offer.Amount, listing.Price), listing.Title),
		Payload: map[string]interface{}{
			"offerId": offer.ID,
			"amount":  offer.Amount,
		},
	})
	c.publisher.Publish(listingID, SignalOffer)

	c.log.Info("offer made", append(reqctx.Fields(ctx),
		zap.String("listing_id", listingID),
		zap.String("offer_id", offer.ID),
		zap.String("user_id", caller.UserID),
		zap.Int64("amount", offer.Amount))...)
	return offer, nil
}

func (c *NegotiationCoordinator) RespondToOffer(ctx context.Context, caller verification.Caller, offerID string, decision ledger.Decision) (*ledger.Resolution, error) {
	res, err := c.offers.RespondToOffer(ctx, caller, offerID, decision)
	if err != nil {
		c.logRejection(ctx, "respond to offer", caller, "", err)
		return nil, err
	}

	typ := model.NotificationOfferDeclined
	title := "Offer declined"
	body := fmt.Sprintf("Your offer of %s on %s was declined.", formatMoney(res.Offer.Amount), res.Listing.Title)
	if res.Sold {
		typ = model.NotificationOfferAccepted
		title = "Offer accepted"
		body = fmt.Sprintf("Your offer of %s on %s was accepted.", formatMoney(res.Offer.Amount), res.Listing.Title)
	}
	id := res.Offer.ID
	c.notifier.Notify(ctx, Event{
		Type:        typ,
		RecipientID: res.Offer.UserID,
		ListingID:   res.Listing.ID,
		OfferID:     &id,
		Title:       title,
		Body:        body,
		Payload: map[string]interface{}{
			"offerId":  res.Offer.ID,
			"amount":   res.Offer.Amount,
			"decision": string(decision),
		},
	})
	c.publisher.Publish(res.Listing.ID, SignalOffer)

	c.log.Info("offer resolved", append(reqctx.Fields(ctx),
		zap.String("listing_id", res.Listing.ID),
		zap.String("offer_id", res.Offer.ID),
		zap.String("decision", string(decision)),
		zap.Bool("sold", res.Sold))...)
	return res, nil
}

func (c *NegotiationCoordinator) AuctionState(ctx context.Context, listingID string) (*AuctionView, error) {
	st, err := c.bids.State(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return &AuctionView{AuctionState: *st, PollInterval: c.pollInterval}, nil
}

func (c *NegotiationCoordinator) CurrentPrice(ctx context.Context, listingID string) (int64, error) {
	return c.bids.CurrentPrice(ctx, listingID)
}

func (c *NegotiationCoordinator) UserBidStatus(ctx context.Context, listingID, userID string) (ledger.UserStatus, error) {
	return c.bids.UserBidStatus(ctx, listingID, userID)
}

func (c *NegotiationCoordinator) OfferState(ctx context.Context, listingID, userID string) (*ledger.OfferState, error) {
	return c.offers.OfferState(ctx, listingID, userID)
}

func (c *NegotiationCoordinator) ListOffers(ctx context.Context, caller verification.Caller, listingID string) ([]model.Offer, error) {
	return c.offers.ListOffers(ctx, caller, listingID)
}

func (c *NegotiationCoordinator) logRejection(ctx context.Context, op string, caller verification.Caller, listingID string, err error) {
	fields := append(reqctx.Fields(ctx),
		zap.String("op", op),
		zap.String("user_id", caller.UserID),
		zap.Error(err))
	if listingID != "" {
		fields = append(fields, zap.String("listing_id", listingID))
	}
	if errors.Is(err, ledger.ErrStorageFailure) {
		c.log.Error("mutation failed", fields...)
		return
	}
	c.log.Debug("mutation rejected", fields...)
}
