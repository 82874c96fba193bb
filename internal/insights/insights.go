// Package insights derives behavioral analytics from a trade batch plus the
// already-computed metrics report. Like the metrics engine it is total and
// side-effect free.
package insights

import (
	"sort"

	"deriverse-journal/internal/metrics"
	"deriverse-journal/internal/types"
)

const (
	// OvertradingThreshold flags any day with at least this many trades.
	OvertradingThreshold = 25
	// FeeWarningPct triggers the fee-drag warning; the boundary is
	// inclusive, exactly 20% warns.
	FeeWarningPct = 20.0
)

// Compute derives the full insights report. The metrics result is taken as
// input so total fees are not recomputed.
func Compute(trades []types.NormalizedTrade, m *types.MetricsResult) *types.Insights {
	return &types.Insights{
		Streaks:       ComputeStreaks(trades),
		Overtrading:   ComputeOvertrading(trades, OvertradingThreshold),
		FeeDrag:       ComputeFeeDrag(trades, m.Kpis.TotalFees),
		BestWorstHour: ComputeBestWorstHour(m.TimeOfDay),
	}
}

// ComputeStreaks walks the trades in time order tracking win and loss run
// lengths. A win resets the loss counter and vice versa; an exact-zero
// (breakeven) trade resets both. The "current" streak is a separate
// backward walk from the most recent trade: a breakeven in the middle of
// the history does not erase an earlier max streak, but a trailing one
// terminates the current streak immediately.
func ComputeStreaks(trades []types.NormalizedTrade) types.Streaks {
	sorted := metrics.SortedByTime(trades)

	var run types.Streaks
	curWin, curLoss := 0, 0
	for _, t := range sorted {
		switch {
		case t.PnLUSD > 0:
			curWin++
			curLoss = 0
		case t.PnLUSD < 0:
			curLoss++
			curWin = 0
		default:
			curWin, curLoss = 0, 0
		}
		if curWin > run.MaxWin {
			run.MaxWin = curWin
		}
		if curLoss > run.MaxLoss {
			run.MaxLoss = curLoss
		}
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		pnl := sorted[i].PnLUSD
		if pnl > 0 {
			if run.CurrentLoss > 0 {
				return run
			}
			run.CurrentWin++
		} else if pnl < 0 {
			if run.CurrentWin > 0 {
				return run
			}
			run.CurrentLoss++
		} else {
			return run
		}
	}
	return run
}

// ComputeOvertrading flags calendar days whose trade count meets threshold,
// sorted by count descending (day ascending on ties for stable output).
func ComputeOvertrading(trades []types.NormalizedTrade, threshold int) types.Overtrading {
	counts := make(map[string]int)
	var days []string
	for _, t := range trades {
		key := metrics.DayKey(t)
		if _, seen := counts[key]; !seen {
			days = append(days, key)
		}
		counts[key]++
	}

	flagged := make([]types.OvertradingDay, 0)
	for _, day := range days {
		if counts[day] >= threshold {
			flagged = append(flagged, types.OvertradingDay{Day: day, Trades: counts[day]})
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].Trades != flagged[j].Trades {
			return flagged[i].Trades > flagged[j].Trades
		}
		return flagged[i].Day < flagged[j].Day
	})

	return types.Overtrading{FlaggedDays: flagged, Threshold: threshold}
}

// ComputeFeeDrag relates totalFees to gross profit, the sum of strictly
// positive pnl only. Net PnL would understate the drag on busy but
// break-even accounts.
func ComputeFeeDrag(trades []types.NormalizedTrade, totalFees float64) types.FeeDrag {
	var grossProfit float64
	for _, t := range trades {
		if t.PnLUSD > 0 {
			grossProfit += t.PnLUSD
		}
	}

	pct := 0.0
	if grossProfit > 0 {
		pct = totalFees / grossProfit * 100
	}

	return types.FeeDrag{
		GrossProfit:         grossProfit,
		TotalFees:           totalFees,
		FeeToGrossProfitPct: pct,
		Warning:             grossProfit > 0 && pct >= FeeWarningPct,
	}
}

// ComputeBestWorstHour picks the traded hour buckets with the highest and
// lowest pnl. Both are nil when no bucket has any trades.
func ComputeBestWorstHour(buckets []types.HourBucket) types.BestWorstHour {
	var best, worst *types.HourBucket
	for i := range buckets {
		b := buckets[i]
		if b.Trades == 0 {
			continue
		}
		if best == nil || b.PnL > best.PnL {
			best = &b
		}
		if worst == nil || b.PnL < worst.PnL {
			worst = &b
		}
	}
	return types.BestWorstHour{BestHour: best, WorstHour: worst}
}
