package ledger

import (
	"math"
	"sort"

	"github.com/shinyyama/marketplace-core/internal/model"
)

// Standing is the auction state derived from a listing's bid history. It is
// never stored; every read folds the full history again.
type Standing struct {
	StartingPrice   int64
	CurrentPrice    int64
	HighestBid      int64
	HighestBidderID string
	BidCount        int

	maxima map[string]int64
}

type bidderMax struct {
	userID  string
	amount  int64
	reached int64 // admission sequence at which amount was first reached
}

// Fold computes the proxy-bidding standing. Each bidder is represented by the
// largest maximum they submitted. The leader is the bidder with the largest
// maximum, earliest admission winning ties. The visible price is the runner-up
// maximum plus one increment, capped at the leader's maximum, and never below
// the starting price. With a single bidder the price stays at the start.
func Fold(startingPrice, increment int64, bids []model.Bid) Standing {
	st := Standing{
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		BidCount:      len(bids),
		maxima:        make(map[string]int64),
	}
	if len(bids) == 0 {
		return st
	}

	ordered := make([]model.Bid, len(bids))
	copy(ordered, bids)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	byUser := make(map[string]*bidderMax)
	order := make([]string, 0, len(ordered))
	for i := range ordered {
		b := &ordered[i]
		cur, ok := byUser[b.UserID]
		if !ok {
			cur = &bidderMax{userID: b.UserID}
			byUser[b.UserID] = cur
			order = append(order, b.UserID)
		}
		if b.Amount > cur.amount {
			cur.amount = b.Amount
			cur.reached = b.Sequence
		}
	}

	ranked := make([]*bidderMax, 0, len(order))
	for _, uid := range order {
		ranked = append(ranked, byUser[uid])
		st.maxima[uid] = byUser[uid].amount
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].amount != ranked[j].amount {
			return ranked[i].amount > ranked[j].amount
		}
		return ranked[i].reached < ranked[j].reached
	})

	leader := ranked[0]
	st.HighestBid = leader.amount
	st.HighestBidderID = leader.userID
	if len(ranked) > 1 {
		price := leader.amount
		if ranked[1].amount < leader.amount-increment {
			price = ranked[1].amount + increment
		}
		if price > st.CurrentPrice {
			st.CurrentPrice = price
		}
	}
	return st
}

// UserMaximum returns the largest maximum userID submitted, or 0.
func (s Standing) UserMaximum(userID string) int64 {
	return s.maxima[userID]
}

// MinimumNextBid is the smallest amount a new bid must reach.
func (s Standing) MinimumNextBid(increment int64) int64 {
	if s.BidCount == 0 {
		return s.StartingPrice
	}
	if s.CurrentPrice > math.MaxInt64-increment {
		return math.MaxInt64
	}
	return s.CurrentPrice + increment
}

// UserStatus summarizes one bidder's position.
type UserStatus struct {
	HasBid          bool  `json:"hasBid"`
	IsHighestBidder bool  `json:"isHighestBidder"`
	UserHighestBid  int64 `json:"userHighestBid"`
	UserMaximumBid  int64 `json:"userMaximumBid"`
}

// UserStatus reports the bidder's standing. UserHighestBid is what the bidder
// is currently committed to: the visible price when leading, otherwise their
// full maximum, which has been exceeded.
func (s Standing) UserStatus(userID string) UserStatus {
	highest, ok := s.maxima[userID]
	if !ok {
		return UserStatus{}
	}
	us := UserStatus{
		HasBid:          true,
		IsHighestBidder: s.HighestBidderID == userID,
		UserHighestBid:  highest,
		UserMaximumBid:  highest,
	}
	if us.IsHighestBidder {
		us.UserHighestBid = s.CurrentPrice
	}
	return us
}
