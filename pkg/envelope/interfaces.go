package envelope

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSource supplies the pre-parsed ledger a computation run consumes.
// Implementations live outside the core (file loader, HTTP export client).
type LedgerSource interface {
	// Load retrieves the full ledger
	Load(ctx context.Context) (*Ledger, error)
}

// PriceSource answers currency conversion lookups for postings that carry
// no recorded price. A zero rate with ok=false means no price is known and
// the posting is skipped.
type PriceSource interface {
	// Rate returns the conversion rate from currency into the operating
	// currency at the given date
	Rate(currency string, at time.Time) (decimal.Decimal, bool)
}

// NoPrices is a PriceSource that knows no conversion rates.
type NoPrices struct{}

// Rate always reports no known rate
func (NoPrices) Rate(string, time.Time) (decimal.Decimal, bool) {
	return decimal.Decimal{}, false
}
