// Package metrics derives the dashboard report from a batch of normalized
// trades. The engine is a total function: no input, including an empty
// batch, makes it fail, and it never mutates its input.
package metrics

import (
	"math"
	"sort"

	"deriverse-journal/internal/types"
)

// DefaultStartingEquity is an arbitrary baseline used to express PnL as a
// percentage and equity/drawdown in absolute terms. Callers that know the
// real account equity should pass their own.
const DefaultStartingEquity = 10_000.0

// Options tunes a metrics computation.
type Options struct {
	StartingEquity float64
}

// SortedByTime returns a copy of trades sorted ascending by timestamp.
// Every order-dependent aggregate reuses this one sort.
func SortedByTime(trades []types.NormalizedTrade) []types.NormalizedTrade {
	sorted := make([]types.NormalizedTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ts.Before(sorted[j].Ts)
	})
	return sorted
}

// DayKey buckets a timestamp into its calendar day, in the timestamp's own
// location. Lexicographic order of keys is chronological order.
func DayKey(t types.NormalizedTrade) string {
	return t.Ts.Format("2006-01-02")
}

func clamp(n, min, max float64) float64 {
	return math.Max(min, math.Min(max, n))
}

// notional returns price*size when both are known, bare size when only size
// is known, and 0 otherwise. This conflates currency and base-asset units
// when the price is missing; the behavior is a known approximation kept for
// continuity, not a true volume metric.
func notional(t types.NormalizedTrade) float64 {
	if t.EntryPrice != nil && t.Size != nil {
		return *t.EntryPrice * *t.Size
	}
	if t.Size != nil {
		return *t.Size
	}
	return 0
}

func durationHours(t types.NormalizedTrade) float64 {
	if t.DurationSec == nil {
		// Unknown holding time counts as 0 toward the averages. Known
		// approximation, not corrected.
		return 0
	}
	return *t.DurationSec / 3600
}

type groupAcc struct {
	pnl      float64
	trades   int
	wins     int
	volume   float64
	fees     float64
	durHours float64
}

// Compute derives the full metrics report from trades, which may arrive in
// any order.
func Compute(trades []types.NormalizedTrade, opts Options) *types.MetricsResult {
	startingEquity := opts.StartingEquity
	if startingEquity == 0 {
		startingEquity = DefaultStartingEquity
	}

	sorted := SortedByTime(trades)
	tradeCount := len(sorted)

	// Step 1: scalar KPIs.
	var totalPnL, totalFees, winSum, lossSum float64
	var winCount, lossCount, longCount, shortCount int
	var largestGain, largestLoss float64
	var totalVolume, totalDurHours float64
	var longPnL, shortPnL float64

	for _, t := range sorted {
		totalPnL += t.PnLUSD
		totalFees += t.FeesUSD
		totalVolume += notional(t)
		totalDurHours += durationHours(t)

		switch {
		case t.PnLUSD > 0:
			winCount++
			winSum += t.PnLUSD
			if t.PnLUSD > largestGain {
				largestGain = t.PnLUSD
			}
		case t.PnLUSD < 0:
			lossCount++
			lossSum += t.PnLUSD
			if t.PnLUSD < largestLoss {
				largestLoss = t.PnLUSD
			}
		}

		if t.Side == types.SideLong {
			longCount++
			longPnL += t.PnLUSD
		} else {
			shortCount++
			shortPnL += t.PnLUSD
		}
	}

	var winRate, avgWin, avgLoss, avgDuration float64
	if tradeCount > 0 {
		winRate = float64(winCount) / float64(tradeCount) * 100
		avgDuration = totalDurHours / float64(tradeCount)
	}
	if winCount > 0 {
		avgWin = winSum / float64(winCount)
	}
	if lossCount > 0 {
		avgLoss = lossSum / float64(lossCount)
	}

	longShortRaw := 0.0
	if shortCount > 0 {
		longShortRaw = float64(longCount) / float64(shortCount)
	} else if longCount > 0 {
		longShortRaw = math.Inf(1)
	}
	longShortDisplay := longShortRaw
	if math.IsInf(longShortRaw, 0) {
		longShortDisplay = float64(longCount)
	}

	riskReward := 0.0
	if avgLoss != 0 {
		riskReward = math.Abs(avgWin / avgLoss)
	}

	pnlPercent := 0.0
	if startingEquity > 0 {
		pnlPercent = totalPnL / startingEquity * 100
	}

	// Step 2: equity curve with running peak and drawdown.
	var cumPnL float64
	peakEquity := startingEquity
	maxDrawdownPct := 0.0
	equityCurve := make([]types.EquityPoint, 0, tradeCount)
	for _, t := range sorted {
		cumPnL += t.PnLUSD
		equity := startingEquity + cumPnL
		if equity > peakEquity {
			peakEquity = equity
		}
		drawdownPct := 0.0
		if peakEquity > 0 {
			drawdownPct = (peakEquity - equity) / peakEquity * 100
		}
		if drawdownPct > maxDrawdownPct {
			maxDrawdownPct = drawdownPct
		}
		equityCurve = append(equityCurve, types.EquityPoint{
			Ts:          t.Ts,
			CumPnL:      cumPnL,
			Equity:      equity,
			Drawdown:    drawdownPct,
			MaxDrawdown: maxDrawdownPct,
		})
	}

	// Steps 3+6: daily aggregation; the same buckets feed the cumulative
	// fee series.
	dayAcc := make(map[string]*groupAcc)
	var dayKeys []string
	for _, t := range sorted {
		key := DayKey(t)
		acc := dayAcc[key]
		if acc == nil {
			acc = &groupAcc{}
			dayAcc[key] = acc
			dayKeys = append(dayKeys, key)
		}
		acc.pnl += t.PnLUSD
		acc.trades++
		acc.fees += t.FeesUSD
	}
	sort.Strings(dayKeys)
	daily := make([]types.DailyPoint, 0, len(dayKeys))
	cumulativeFees := make([]types.CumulativeFeePoint, 0, len(dayKeys))
	var cumFees float64
	for _, key := range dayKeys {
		acc := dayAcc[key]
		daily = append(daily, types.DailyPoint{Day: key, PnL: acc.pnl, Trades: acc.trades})
		cumFees += acc.fees
		cumulativeFees = append(cumulativeFees, types.CumulativeFeePoint{Day: key, CumFees: cumFees})
	}

	// Step 4: per-symbol aggregation, sorted by pnl descending.
	symAcc := make(map[string]*groupAcc)
	var symKeys []string
	for _, t := range sorted {
		acc := symAcc[t.Symbol]
		if acc == nil {
			acc = &groupAcc{}
			symAcc[t.Symbol] = acc
			symKeys = append(symKeys, t.Symbol)
		}
		acc.pnl += t.PnLUSD
		acc.trades++
		if t.PnLUSD > 0 {
			acc.wins++
		}
		acc.volume += notional(t)
	}
	symbols := make([]types.SymbolPerf, 0, len(symKeys))
	for _, sym := range symKeys {
		acc := symAcc[sym]
		symbols = append(symbols, types.SymbolPerf{
			Symbol:  sym,
			Trades:  acc.trades,
			PnL:     acc.pnl,
			WinRate: rate(acc.wins, acc.trades),
			Volume:  acc.volume,
		})
	}
	sort.SliceStable(symbols, func(i, j int) bool {
		if symbols[i].PnL != symbols[j].PnL {
			return symbols[i].PnL > symbols[j].PnL
		}
		return symbols[i].Symbol < symbols[j].Symbol
	})

	// Step 5: fee composition. The "other" remainder is floored at zero so
	// inconsistent partial breakdowns cannot push it negative.
	var makerFees, takerFees, fundingFees float64
	for _, t := range sorted {
		if t.FeeMakerUSD != nil {
			makerFees += *t.FeeMakerUSD
		}
		if t.FeeTakerUSD != nil {
			takerFees += *t.FeeTakerUSD
		}
		if t.FeeFundingUSD != nil {
			fundingFees += *t.FeeFundingUSD
		}
	}
	otherFees := math.Max(0, totalFees-(makerFees+takerFees+fundingFees))

	// Step 7: order-type performance, in fixed enum order.
	typeAcc := make(map[types.OrderType]*groupAcc)
	for _, t := range sorted {
		acc := typeAcc[t.OrderType]
		if acc == nil {
			acc = &groupAcc{}
			typeAcc[t.OrderType] = acc
		}
		acc.trades++
		acc.pnl += t.PnLUSD
		if t.PnLUSD > 0 {
			acc.wins++
		}
		acc.fees += t.FeesUSD
		acc.durHours += durationHours(t)
	}
	orderTypePerf := make([]types.OrderTypePerf, 0, len(typeAcc))
	for _, ot := range types.AllOrderTypes {
		acc := typeAcc[ot]
		if acc == nil {
			continue
		}
		orderTypePerf = append(orderTypePerf, types.OrderTypePerf{
			OrderType:        ot,
			Trades:           acc.trades,
			PnL:              acc.pnl,
			WinRate:          rate(acc.wins, acc.trades),
			AvgDurationHours: acc.durHours / float64(acc.trades),
			AvgFees:          acc.fees / float64(acc.trades),
		})
	}

	// Steps 8+9: hour-of-day buckets and session buckets, both keyed by the
	// local calendar hour.
	hourWins := make([]int, 24)
	timeOfDay := make([]types.HourBucket, 24)
	for h := range timeOfDay {
		timeOfDay[h].Hour = h
	}
	sessionAcc := [4]groupAcc{}
	for _, t := range sorted {
		h := t.Ts.Hour()
		timeOfDay[h].PnL += t.PnLUSD
		timeOfDay[h].Trades++
		isWin := t.PnLUSD > 0
		if isWin {
			hourWins[h]++
		}

		s := sessionIndex(h)
		sessionAcc[s].pnl += t.PnLUSD
		sessionAcc[s].trades++
		if isWin {
			sessionAcc[s].wins++
		}
		sessionAcc[s].durHours += durationHours(t)
		sessionAcc[s].fees += t.FeesUSD
	}
	for h := range timeOfDay {
		timeOfDay[h].WinRate = rate(hourWins[h], timeOfDay[h].Trades)
	}

	return &types.MetricsResult{
		Kpis: types.Kpis{
			TotalPnL:              totalPnL,
			PnLPercent:            clamp(pnlPercent, -10_000, 10_000),
			WinRate:               winRate,
			TradeCount:            tradeCount,
			TotalVolume:           totalVolume,
			TotalFees:             totalFees,
			AvgTradeDurationHours: avgDuration,
			LongShortRatioRaw:     longShortRaw,
			LongShortRatio:        longShortDisplay,
			LargestGain:           largestGain,
			LargestLoss:           math.Abs(largestLoss),
			AvgWin:                avgWin,
			AvgLoss:               math.Abs(avgLoss),
			RiskReward:            riskReward,
		},
		EquityCurve:          equityCurve,
		Daily:                daily,
		Symbols:              symbols,
		FeeComposition:       types.FeeComposition{Maker: makerFees, Taker: takerFees, Funding: fundingFees, Other: otherFees, Total: totalFees},
		CumulativeFeesByDay:  cumulativeFees,
		OrderTypePerformance: orderTypePerf,
		TimeOfDay:            timeOfDay,
		SessionPerformance: types.SessionPerformance{
			Overnight: sessionStats(sessionAcc[0]),
			Morning:   sessionStats(sessionAcc[1]),
			Afternoon: sessionStats(sessionAcc[2]),
			Night:     sessionStats(sessionAcc[3]),
		},
		DirectionBias: types.DirectionBias{
			Long:  types.SideBias{Trades: longCount, PnL: longPnL},
			Short: types.SideBias{Trades: shortCount, PnL: shortPnL},
		},
		MaxDrawdownPct: maxDrawdownPct,
	}
}

// sessionIndex maps a local hour onto its session: 0 overnight [0,6),
// 1 morning [6,12), 2 afternoon [12,18), 3 night [18,24). The four ranges
// partition the day with no overlap and no gap.
func sessionIndex(hour int) int {
	switch {
	case hour < 6:
		return 0
	case hour < 12:
		return 1
	case hour < 18:
		return 2
	default:
		return 3
	}
}

func sessionStats(acc groupAcc) types.SessionStats {
	s := types.SessionStats{
		PnL:       acc.pnl,
		Trades:    acc.trades,
		WinRate:   rate(acc.wins, acc.trades),
		TotalFees: acc.fees,
	}
	if acc.trades > 0 {
		s.AvgDurationHours = acc.durHours / float64(acc.trades)
	}
	return s
}

func rate(wins, trades int) float64 {
	if trades == 0 {
		return 0
	}
	return float64(wins) / float64(trades) * 100
}
