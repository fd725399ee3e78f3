package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/marketplace-core/internal/db"
	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/repository"
	"github.com/shinyyama/marketplace-core/internal/verification"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: clock,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) all() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

type published struct {
	listingID string
	kind      string
}

type recordingPublisher struct {
	mu      sync.Mutex
	signals []published
}

func (p *recordingPublisher) Publish(listingID, kind string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, published{listingID, kind})
	return int64(len(p.signals))
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.signals...)
}

type fixture struct {
	db        *gorm.DB
	store     *repository.Store
	notifier  *recordingNotifier
	publisher *recordingPublisher
	coord     *NegotiationCoordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := openTestDB(t)
	store := repository.NewStore(gdb)
	locks := ledger.NewLocks()
	opts := ledger.Options{Now: clock}
	f := &fixture{
		db:        gdb,
		store:     store,
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	f.coord = NewNegotiationCoordinator(
		ledger.NewBidLedger(store, locks, opts),
		ledger.NewOfferLedger(store, locks, opts),
		f.notifier, f.publisher, zaptest.NewLogger(t), 10*time.Second)
	return f
}

func (f *fixture) listing(t *testing.T, id string, price int64, allowOffers bool) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.Listing{
		ID:             id,
		SellerID:       "seller",
		Title:          "Vintage camera",
		Price:          price,
		Type:           model.ListingTypeAuction,
		AllowBestOffer: allowOffers,
		Status:         model.ListingStatusActive,
		ExpiresAt:      testNow.Add(72 * time.Hour),
	}).Error)
}

func verified(uid string) verification.Caller {
	return verification.Caller{UserID: uid, Tier: verification.TierVerified}
}
