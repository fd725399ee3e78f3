// Package verification maps an account's trust tier to the set of actions it
// may perform. Lookups are pure and fail closed.
package verification

import "strings"

type Tier string

const (
	TierUnverified Tier = "unverified"
	TierVerified   Tier = "verified"
	TierTrader     Tier = "trader"
)

// ParseTier normalizes a stored or claimed tier. Anything unrecognized is
// treated as unverified.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierVerified:
		return TierVerified
	case TierTrader:
		return TierTrader
	default:
		return TierUnverified
	}
}

type Capability int

const (
	CapSendMessages Capability = iota
	CapPlaceBids
	CapMakeOffers
	CapCreateListings
	CapBuyAndSell
	CapAccessAdvancedFeatures
)

func (c Capability) String() string {
	switch c {
	case CapSendMessages:
		return "send_messages"
	case CapPlaceBids:
		return "place_bids"
	case CapMakeOffers:
		return "make_offers"
	case CapCreateListings:
		return "create_listings"
	case CapBuyAndSell:
		return "buy_and_sell"
	case CapAccessAdvancedFeatures:
		return "access_advanced_features"
	default:
		return "unknown"
	}
}

type Capabilities struct {
	CanSendMessages           bool `json:"canSendMessages"`
	CanPlaceBids              bool `json:"canPlaceBids"`
	CanMakeOffers             bool `json:"canMakeOffers"`
	CanCreateListings         bool `json:"canCreateListings"`
	CanBuyAndSell             bool `json:"canBuyAndSell"`
	CanAccessAdvancedFeatures bool `json:"canAccessAdvancedFeatures"`
}

var capabilityTable = map[Tier]Capabilities{
	TierUnverified: {},
	TierVerified: {
		CanSendMessages:   true,
		CanPlaceBids:      true,
		CanMakeOffers:     true,
		CanCreateListings: true,
		CanBuyAndSell:     true,
	},
	TierTrader: {
		CanSendMessages:           true,
		CanPlaceBids:              true,
		CanMakeOffers:             true,
		CanCreateListings:         true,
		CanBuyAndSell:             true,
		CanAccessAdvancedFeatures: true,
	},
}

// CapabilitiesFor returns the capability set of a tier. Unknown tiers get the
// unverified set.
func CapabilitiesFor(t Tier) Capabilities {
	return capabilityTable[ParseTier(string(t))]
}

// Has reports whether the set grants want.
func (c Capabilities) Has(want Capability) bool {
	switch want {
	case CapSendMessages:
		return c.CanSendMessages
	case CapPlaceBids:
		return c.CanPlaceBids
	case CapMakeOffers:
		return c.CanMakeOffers
	case CapCreateListings:
		return c.CanCreateListings
	case CapBuyAndSell:
		return c.CanBuyAndSell
	case CapAccessAdvancedFeatures:
		return c.CanAccessAdvancedFeatures
	default:
		return false
	}
}

func (t Tier) Allows(want Capability) bool {
	return CapabilitiesFor(t).Has(want)
}

// Caller is the identity a request acts as. The tier is resolved fresh for
// every request and passed explicitly into each core call.
type Caller struct {
	UserID string
	Tier   Tier
}

func (c Caller) Allows(want Capability) bool {
	return c.UserID != "" && c.Tier.Allows(want)
}
