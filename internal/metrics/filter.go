package metrics

import (
	"time"

	"deriverse-journal/internal/types"
)

// Filters narrows a trade batch before it reaches the engine. Zero values
// mean "not applied": empty Symbol matches everything, zero From/To leave
// that bound open.
type Filters struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f.Symbol == "" && f.From.IsZero() && f.To.IsZero()
}

// Filter returns the trades matching f. Symbol matches exactly; the date
// range is [startOfDay(From), endOfDay(To)] inclusive, so selecting
// "through Friday" keeps all of Friday's trades. With no filters set the
// input slice itself is returned.
func Filter(trades []types.NormalizedTrade, f Filters) []types.NormalizedTrade {
	if f.IsZero() {
		return trades
	}

	var fromBound, toBound time.Time
	if !f.From.IsZero() {
		fromBound = startOfDay(f.From)
	}
	if !f.To.IsZero() {
		toBound = endOfDay(f.To)
	}

	out := make([]types.NormalizedTrade, 0, len(trades))
	for _, t := range trades {
		if f.Symbol != "" && t.Symbol != f.Symbol {
			continue
		}
		if !fromBound.IsZero() && t.Ts.Before(fromBound) {
			continue
		}
		if !toBound.IsZero() && t.Ts.After(toBound) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
