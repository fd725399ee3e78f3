// Package listingstatus derives the status a listing should be treated as at a
// given instant. Every consumer (bidding preconditions, listing responses,
// filters) goes through Resolve so they agree by construction.
package listingstatus

import (
	"time"

	"github.com/shinyyama/marketplace-core/internal/model"
)

type Status string

const (
	Active     Status = "active"
	EndingSoon Status = "ending_soon"
	Ended      Status = "ended"
	Sold       Status = "sold"
	Expired    Status = "expired"
	Completed  Status = "completed"
)

const DefaultEndingSoonWindow = 24 * time.Hour

type Resolver struct {
	EndingSoonWindow time.Duration
}

func NewResolver(window time.Duration) Resolver {
	if window <= 0 {
		window = DefaultEndingSoonWindow
	}
	return Resolver{EndingSoonWindow: window}
}

// Resolve is a pure function of (stored status, expiresAt, now).
func (r Resolver) Resolve(l *model.Listing, now time.Time) Status {
	switch l.Status {
	case model.ListingStatusSold:
		return Sold
	case model.ListingStatusExpired:
		return Expired
	case model.ListingStatusCompleted:
		return Completed
	}
	if now.After(l.ExpiresAt) {
		return Ended
	}
	window := r.EndingSoonWindow
	if window <= 0 {
		window = DefaultEndingSoonWindow
	}
	if l.ExpiresAt.Sub(now) <= window {
		return EndingSoon
	}
	return Active
}

// Resolve uses the default 24h ending-soon window.
func Resolve(l *model.Listing, now time.Time) Status {
	return Resolver{}.Resolve(l, now)
}

// Open reports whether the listing still accepts bids and offers.
func (s Status) Open() bool {
	return s == Active || s == EndingSoon
}

// BadgePriority orders statuses for display when a listing satisfies several
// predicates at once. Higher wins.
func BadgePriority(s Status) int {
	switch s {
	case Sold:
		return 4
	case Ended:
		return 3
	case Expired, Completed:
		return 2
	case EndingSoon:
		return 1
	default:
		return 0
	}
}
