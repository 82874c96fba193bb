package types

import (
	"fmt"
	"time"
)

// Side is the direction of a trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// OrderType classifies how the order behind a fill was placed.
type OrderType string

const (
	OrderLimit    OrderType = "limit"
	OrderMarket   OrderType = "market"
	OrderIOC      OrderType = "ioc"
	OrderPostOnly OrderType = "post_only"
	OrderUnknown  OrderType = "unknown"
)

// AllOrderTypes is the fixed iteration order for per-order-type aggregates,
// so report output stays deterministic across runs.
var AllOrderTypes = []OrderType{OrderLimit, OrderMarket, OrderIOC, OrderPostOnly, OrderUnknown}

// NormalizedTrade is the canonical trade record every adapter must produce.
// PnLUSD and FeesUSD are always set. Pointer fields may be nil when the
// source does not know them (decoded on-chain fills carry no tickers or
// prices); nil means "exclude from the affected aggregate", never zero.
type NormalizedTrade struct {
	ID        string    `json:"id"`
	Ts        time.Time `json:"ts"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	OrderType OrderType `json:"order_type"`

	EntryPrice *float64 `json:"entry_price"`
	ExitPrice  *float64 `json:"exit_price"`
	Size       *float64 `json:"size"`

	PnLUSD  float64 `json:"pnl_usd"`
	FeesUSD float64 `json:"fees_usd"`

	// Optional fee breakdown; when absent the whole fee lands in the
	// "other" bucket of the fee composition.
	FeeMakerUSD   *float64 `json:"fee_maker_usd,omitempty"`
	FeeTakerUSD   *float64 `json:"fee_taker_usd,omitempty"`
	FeeFundingUSD *float64 `json:"fee_funding_usd,omitempty"`

	DurationSec *float64 `json:"duration_sec"`

	Tags  []string `json:"tags"`
	Notes string   `json:"notes"`
}

// ParseSide maps a source string onto a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLong, SideShort:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid side %q: must be 'long' or 'short'", s)
}

// ParseOrderType maps a source string onto an OrderType. Empty input maps
// to OrderUnknown so sources without order metadata stay importable.
func ParseOrderType(s string) (OrderType, error) {
	if s == "" {
		return OrderUnknown, nil
	}
	switch OrderType(s) {
	case OrderLimit, OrderMarket, OrderIOC, OrderPostOnly, OrderUnknown:
		return OrderType(s), nil
	}
	return "", fmt.Errorf("invalid order type %q", s)
}

// Validate checks a single trade for the fields every source must supply.
func (t *NormalizedTrade) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trade is missing an id")
	}
	if t.Ts.IsZero() {
		return fmt.Errorf("trade %s is missing a timestamp", t.ID)
	}
	if t.Symbol == "" {
		return fmt.Errorf("trade %s is missing a symbol", t.ID)
	}
	if t.Side != SideLong && t.Side != SideShort {
		return fmt.Errorf("trade %s has invalid side %q", t.ID, t.Side)
	}
	if _, err := ParseOrderType(string(t.OrderType)); err != nil {
		return fmt.Errorf("trade %s: %w", t.ID, err)
	}
	return nil
}

// ValidateBatch validates every trade and enforces id uniqueness within the
// batch. Adapters reject the whole batch on the first failure rather than
// silently dropping rows.
func ValidateBatch(trades []NormalizedTrade) error {
	seen := make(map[string]struct{}, len(trades))
	for i := range trades {
		if err := trades[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[trades[i].ID]; dup {
			return fmt.Errorf("duplicate trade id %q in batch", trades[i].ID)
		}
		seen[trades[i].ID] = struct{}{}
	}
	return nil
}

// Float64Ptr returns a pointer to v. Convenience for adapters and tests
// building trades with optional numeric fields.
func Float64Ptr(v float64) *float64 { return &v }
