package ledger

import (
	"time"

	"github.com/shinyyama/marketplace-core/internal/listingstatus"
)

const DefaultIncrement int64 = 5

// DefaultMaxAmount bounds bid and offer amounts so price arithmetic stays
// within int64.
const DefaultMaxAmount int64 = 1_000_000_000_000

type Options struct {
	Increment        int64
	MaxAmount        int64
	EndingSoonWindow time.Duration
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Increment <= 0 {
		o.Increment = DefaultIncrement
	}
	if o.MaxAmount <= 0 {
		o.MaxAmount = DefaultMaxAmount
	}
	if o.EndingSoonWindow <= 0 {
		o.EndingSoonWindow = listingstatus.DefaultEndingSoonWindow
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}
