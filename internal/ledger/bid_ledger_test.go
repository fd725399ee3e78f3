package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPlaceBidScenario(t *testing.T) {
	ctx := context.Background()
	bids, _ := newLedgers(newFakeStore(auctionListing("L1", 1000)))

	res, err := bids.PlaceBid(ctx, verified("A"), "L1", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.CurrentPrice)
	assert.True(t, res.IsHighestBidder)

	_, err = bids.PlaceBid(ctx, verified("B"), "L1", 1000)
	require.ErrorIs(t, err, ErrInvalidAmount)

	res, err = bids.PlaceBid(ctx, verified("B"), "L1", 1005)
	require.NoError(t, err)
	assert.Equal(t, int64(1005), res.CurrentPrice)
	assert.True(t, res.IsHighestBidder)
	assert.Equal(t, "B", res.HighestBidderID)

	price, err := bids.CurrentPrice(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(1005), price)
}

func TestPlaceBidPreconditionOrder(t *testing.T) {
	ended := auctionListing("ended", 100)
	ended.ExpiresAt = testNow.Add(-time.Minute)
	sold := auctionListing("sold", 100)
	sold.Status = model.ListingStatusSold

	tests := []struct {
		name    string
		caller  string
		listing string
		amount  int64
		want    error
	}{
		{name: "capability before status", caller: "u1", listing: "ended", amount: 100, want: ErrUnauthorized},
		{name: "capability before not found", caller: "u1", listing: "missing", amount: 100, want: ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bids, _ := newLedgers(newFakeStore(ended, sold, auctionListing("open", 100)))
			_, err := bids.PlaceBid(context.Background(), unverified(tt.caller), tt.listing, tt.amount)
			require.ErrorIs(t, err, tt.want)
		})
	}

	verifiedCases := []struct {
		name    string
		caller  string
		listing string
		amount  int64
		want    error
	}{
		{"not found", "u1", "missing", 100, ErrNotFound},
		{"time ended", "u1", "ended", 100, ErrAuctionClosed},
		{"stored sold", "u1", "sold", 100, ErrAuctionClosed},
		{"closed before self bid", "seller", "ended", 100, ErrAuctionClosed},
		{"self bid before amount", "seller", "open", 1, ErrUnauthorized},
		{"below start", "u1", "open", 95, ErrInvalidAmount},
		{"not a multiple of increment", "u1", "open", 103, ErrInvalidAmount},
		{"zero", "u1", "open", 0, ErrInvalidAmount},
		{"negative", "u1", "open", -5, ErrInvalidAmount},
	}
	for _, tt := range verifiedCases {
		t.Run(tt.name, func(t *testing.T) {
			bids, _ := newLedgers(newFakeStore(ended, sold, auctionListing("open", 100)))
			_, err := bids.PlaceBid(context.Background(), verified(tt.caller), tt.listing, tt.amount)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsRejection(err))
		})
	}
}

func TestPlaceBidEndingSoonStillOpen(t *testing.T) {
	l := auctionListing("L1", 100)
	l.ExpiresAt = testNow.Add(time.Hour)
	bids, _ := newLedgers(newFakeStore(l))

	_, err := bids.PlaceBid(context.Background(), verified("A"), "L1", 100)
	require.NoError(t, err)
}

func TestProxyBidding(t *testing.T) {
	ctx := context.Background()
	bids, _ := newLedgers(newFakeStore(auctionListing("L1", 1000)))

	steps := []struct {
		user       string
		amount     int64
		wantPrice  int64
		wantLeader string
	}{
		{"A", 2000, 1000, "A"},
		{"B", 1005, 1010, "A"},
		{"B", 1500, 1505, "A"},
		{"C", 2000, 2000, "A"}, // tie on maximum: earlier bidder keeps the lead
		{"D", 2005, 2005, "D"},
	}
	for i, s := range steps {
		res, err := bids.PlaceBid(ctx, verified(s.user), "L1", s.amount)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, s.wantPrice, res.CurrentPrice, "step %d price", i)
		assert.Equal(t, s.wantLeader, res.HighestBidderID, "step %d leader", i)
		assert.Equal(t, s.wantLeader == s.user, res.IsHighestBidder, "step %d isHighest", i)
	}

	state, err := bids.State(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(2005), state.HighestBid)
	assert.Equal(t, 5, state.BidCount)
	assert.Equal(t, int64(2010), state.MinimumNextBid)
	for i, b := range state.Bids {
		assert.Equal(t, int64(i+1), b.Sequence)
	}
}

func TestLeaderRaisesOwnMaximum(t *testing.T) {
	ctx := context.Background()
	bids, _ := newLedgers(newFakeStore(auctionListing("L1", 1000)))

	_, err := bids.PlaceBid(ctx, verified("A"), "L1", 1200)
	require.NoError(t, err)

	_, err = bids.PlaceBid(ctx, verified("A"), "L1", 1100)
	require.ErrorIs(t, err, ErrInvalidAmount, "lowering own maximum")

	res, err := bids.PlaceBid(ctx, verified("A"), "L1", 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.CurrentPrice, "a single bidder never drives the price")

	status, err := bids.UserBidStatus(ctx, "L1", "A")
	require.NoError(t, err)
	assert.Equal(t, UserStatus{HasBid: true, IsHighestBidder: true, UserHighestBid: 1000, UserMaximumBid: 1500}, status)
}

func TestUserBidStatus(t *testing.T) {
	ctx := context.Background()
	bids, _ := newLedgers(newFakeStore(auctionListing("L1", 100)))

	_, err := bids.PlaceBid(ctx, verified("A"), "L1", 300)
	require.NoError(t, err)
	_, err = bids.PlaceBid(ctx, verified("B"), "L1", 200)
	require.NoError(t, err)

	a, err := bids.UserBidStatus(ctx, "L1", "A")
	require.NoError(t, err)
	assert.Equal(t, UserStatus{HasBid: true, IsHighestBidder: true, UserHighestBid: 205, UserMaximumBid: 300}, a)

	b, err := bids.UserBidStatus(ctx, "L1", "B")
	require.NoError(t, err)
	assert.Equal(t, UserStatus{HasBid: true, UserHighestBid: 200, UserMaximumBid: 200}, b)

	c, err := bids.UserBidStatus(ctx, "L1", "C")
	require.NoError(t, err)
	assert.Equal(t, UserStatus{}, c)

	_, err = bids.UserBidStatus(ctx, "missing", "A")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBidBelowMinimumAlwaysRejected(t *testing.T) {
	ctx := context.Background()
	histories := [][]struct {
		user   string
		amount int64
	}{
		{},
		{{"A", 100}},
		{{"A", 500}, {"B", 200}},
		{{"A", 150}, {"B", 155}, {"C", 400}, {"A", 405}},
	}
	for i, h := range histories {
		t.Run(fmt.Sprintf("history_%d", i), func(t *testing.T) {
			bids, _ := newLedgers(newFakeStore(auctionListing("L1", 100)))
			for _, b := range h {
				_, err := bids.PlaceBid(ctx, verified(b.user), "L1", b.amount)
				require.NoError(t, err)
			}
			price, err := bids.CurrentPrice(ctx, "L1")
			require.NoError(t, err)
			count, err := bids.BidCount(ctx, "L1")
			require.NoError(t, err)

			floor := price + 5
			if count == 0 {
				floor = price
			}
			for amount := floor - 25; amount < floor; amount++ {
				_, err := bids.PlaceBid(ctx, verified("newcomer"), "L1", amount)
				require.ErrorIs(t, err, ErrInvalidAmount, "amount %d with price %d", amount, price)
			}
			after, err := bids.BidCount(ctx, "L1")
			require.NoError(t, err)
			assert.Equal(t, count, after, "rejections must not append")
		})
	}
}

func TestConcurrentBidsConverge(t *testing.T) {
	for round := 0; round < 5; round++ {
		store := newFakeStore(auctionListing("L1", 100), auctionListing("L2", 100))
		bids, _ := newLedgers(store)

		var g errgroup.Group
		const bidders = 30
		for i := 1; i <= bidders; i++ {
			i := i
			for _, listing := range []string{"L1", "L2"} {
				listing := listing
				g.Go(func() error {
					_, err := bids.PlaceBid(context.Background(), verified(fmt.Sprintf("u%02d", i)), listing, 100+int64(i)*5)
					if err != nil && !errors.Is(err, ErrInvalidAmount) {
						return err
					}
					return nil
				})
			}
		}
		require.NoError(t, g.Wait())

		for _, listing := range []string{"L1", "L2"} {
			state, err := bids.State(context.Background(), listing)
			require.NoError(t, err)
			assert.Equal(t, int64(100+bidders*5), state.HighestBid)
			assert.Equal(t, fmt.Sprintf("u%02d", bidders), state.HighestBidderID)
			assert.LessOrEqual(t, state.CurrentPrice, state.HighestBid)

			seen := make(map[int64]bool)
			for _, b := range state.Bids {
				assert.False(t, seen[b.Sequence], "duplicate sequence %d", b.Sequence)
				seen[b.Sequence] = true
			}
		}
		assert.Equal(t, 0, bids.locks.size(), "idle locks are released")
	}
}

func TestPlaceBidStorageFailure(t *testing.T) {
	store := newFakeStore(auctionListing("L1", 100))
	store.appendErr = errors.New("disk full")
	bids, _ := newLedgers(store)

	_, err := bids.PlaceBid(context.Background(), verified("A"), "L1", 100)
	require.ErrorIs(t, err, ErrStorageFailure)
	assert.False(t, IsRejection(err))
}

func TestFoldIsOrderIndependentForMaximum(t *testing.T) {
	history := []model.Bid{
		{UserID: "A", Amount: 300, Sequence: 3},
		{UserID: "B", Amount: 250, Sequence: 1},
		{UserID: "C", Amount: 120, Sequence: 2},
	}
	st := Fold(100, 5, history)
	assert.Equal(t, int64(300), st.HighestBid)
	assert.Equal(t, "A", st.HighestBidderID)
	assert.Equal(t, int64(255), st.CurrentPrice)
	assert.Equal(t, int64(120), st.UserMaximum("C"))

	empty := Fold(100, 5, nil)
	assert.Equal(t, int64(100), empty.CurrentPrice)
	assert.Equal(t, "", empty.HighestBidderID)
	assert.Equal(t, int64(100), empty.MinimumNextBid(5))
}

func TestOpeningBidAtOddStartingPrice(t *testing.T) {
	ctx := context.Background()

	bids, _ := newLedgers(newFakeStore(auctionListing("L1", 1003)))
	_, err := bids.PlaceBid(ctx, verified("A"), "L1", 1004)
	require.ErrorIs(t, err, ErrInvalidAmount)

	res, err := bids.PlaceBid(ctx, verified("A"), "L1", 1003)
	require.NoError(t, err)
	assert.Equal(t, int64(1003), res.CurrentPrice)

	_, err = bids.PlaceBid(ctx, verified("B"), "L1", 1008)
	require.ErrorIs(t, err, ErrInvalidAmount, "only the opening bid may skip the increment grid")

	res, err = bids.PlaceBid(ctx, verified("B"), "L1", 1010)
	require.NoError(t, err)
	assert.Equal(t, "B", res.HighestBidderID)
	assert.Equal(t, int64(1008), res.CurrentPrice)

	fresh, _ := newLedgers(newFakeStore(auctionListing("L2", 1003)))
	_, err = fresh.PlaceBid(ctx, verified("A"), "L2", 1005)
	require.NoError(t, err)
}

func TestBidAmountCap(t *testing.T) {
	ctx := context.Background()
	bids, _ := newLedgers(newFakeStore(auctionListing("L1", 100)))

	_, err := bids.PlaceBid(ctx, verified("A"), "L1", DefaultMaxAmount+5)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = bids.PlaceBid(ctx, verified("A"), "L1", math.MaxInt64/5*5)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = bids.PlaceBid(ctx, verified("A"), "L1", DefaultMaxAmount)
	require.NoError(t, err)
}

func TestHugeMaximaDoNotWrapMinimum(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.MaxAmount = math.MaxInt64
	bids := NewBidLedger(newFakeStore(auctionListing("L1", 1000)), NewLocks(), opts)

	top := int64(math.MaxInt64 / 5 * 5)
	_, err := bids.PlaceBid(ctx, verified("A"), "L1", top)
	require.NoError(t, err)
	_, err = bids.PlaceBid(ctx, verified("B"), "L1", top-5)
	require.NoError(t, err)

	state, err := bids.State(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, top, state.CurrentPrice)
	assert.Equal(t, int64(math.MaxInt64), state.MinimumNextBid)

	_, err = bids.PlaceBid(ctx, verified("C"), "L1", 1010)
	require.ErrorIs(t, err, ErrInvalidAmount)
	count, err := bids.BidCount(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFoldNearInt64Limit(t *testing.T) {
	st := Fold(100, 5, []model.Bid{
		{UserID: "A", Amount: math.MaxInt64, Sequence: 1},
		{UserID: "B", Amount: math.MaxInt64 - 1, Sequence: 2},
	})
	assert.Equal(t, int64(math.MaxInt64), st.CurrentPrice)
	assert.Equal(t, int64(math.MaxInt64), st.MinimumNextBid(5))
}
