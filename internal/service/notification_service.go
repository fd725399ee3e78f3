package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/reqctx"
	"github.com/shinyyama/marketplace-core/internal/repository"
	"go.uber.org/zap"
)

// Event is a notification addressed to one user about one listing.
type Event struct {
	Type        string
	RecipientID string
	ListingID   string
	OfferID     *string
	BidID       *string
	Title       string
	Body        string
	Payload     map[string]interface{}
}

// Notifier is the sink for accepted mutations. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userID string) error
	MarkByListing(ctx context.Context, userID, listingID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
	log  *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log *zap.Logger) NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &notificationService{repo: repo, log: log.Named("notification")}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
func (s *notificationService) Notify(ctx context.Context, ev Event) {
	if ev.RecipientID == "" || ev.Type == "" {
		return
	}
	eventID := uuid.NewString()
	payload := map[string]interface{}{
		"eventId":   eventID,
		"type":      ev.Type,
		"listingId": ev.ListingID,
	}
	for k, v := range ev.Payload {
		payload[k] = v
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("marshal notification payload", zap.Error(err))
		raw = []byte("{}")
	}
	n := &model.Notification{
		EventID:   eventID,
		UserID:    ev.RecipientID,
		Type:      ev.Type,
		Title:     ev.Title,
		Body:      ev.Body,
		ListingID: ev.ListingID,
		OfferID:   ev.OfferID,
		BidID:     ev.BidID,
		Payload:   string(raw),
	}

	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, n); err != nil {
		fields := append(reqctx.Fields(ctx),
			zap.String("event_id", eventID),
			zap.String("type", ev.Type),
			zap.String("recipient", ev.RecipientID),
			zap.Error(err))
		s.log.Error("store notification", fields...)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) MarkByListing(ctx context.Context, userID, listingID string) error {
	if userID == "" || listingID == "" {
		return nil
	}
	return s.repo.MarkByListing(ctx, userID, listingID)
}

// withShortDeadline detaches from the request and bounds the sink write.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
}
