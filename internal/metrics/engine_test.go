package metrics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"deriverse-journal/internal/types"
)

func tr(id string, ts time.Time, pnl float64) types.NormalizedTrade {
	return types.NormalizedTrade{
		ID:        id,
		Ts:        ts,
		Symbol:    "SOL/USDC",
		Side:      types.SideLong,
		OrderType: types.OrderLimit,
		PnLUSD:    pnl,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeKpis(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	trades := []types.NormalizedTrade{
		tr("t1", base, 100),
		tr("t2", base.Add(1*time.Hour), 50),
		tr("t3", base.Add(2*time.Hour), -30),
		tr("t4", base.Add(3*time.Hour), -20),
		tr("t5", base.Add(4*time.Hour), 10),
	}

	m := Compute(trades, Options{})

	if m.Kpis.TradeCount != 5 {
		t.Errorf("Expected trade count 5, got %d", m.Kpis.TradeCount)
	}
	if !approx(m.Kpis.TotalPnL, 110) {
		t.Errorf("Expected total pnl 110, got %f", m.Kpis.TotalPnL)
	}
	if !approx(m.Kpis.WinRate, 60) {
		t.Errorf("Expected win rate 60, got %f", m.Kpis.WinRate)
	}
	if !approx(m.Kpis.AvgWin, 160.0/3) {
		t.Errorf("Expected avg win %f, got %f", 160.0/3, m.Kpis.AvgWin)
	}
	// Loss figures are magnitudes.
	if !approx(m.Kpis.AvgLoss, 25) {
		t.Errorf("Expected avg loss 25, got %f", m.Kpis.AvgLoss)
	}
	if !approx(m.Kpis.LargestGain, 100) {
		t.Errorf("Expected largest gain 100, got %f", m.Kpis.LargestGain)
	}
	if !approx(m.Kpis.LargestLoss, 30) {
		t.Errorf("Expected largest loss 30, got %f", m.Kpis.LargestLoss)
	}
	if !approx(m.Kpis.RiskReward, (160.0/3)/25) {
		t.Errorf("Expected risk reward %f, got %f", (160.0/3)/25, m.Kpis.RiskReward)
	}
	if !approx(m.Kpis.PnLPercent, 1.1) {
		t.Errorf("Expected pnl percent 1.1, got %f", m.Kpis.PnLPercent)
	}
}

func TestComputeEmptyInput(t *testing.T) {
	m := Compute(nil, Options{})

	if m.Kpis.TradeCount != 0 {
		t.Errorf("Expected trade count 0, got %d", m.Kpis.TradeCount)
	}
	if m.Kpis.WinRate != 0 {
		t.Errorf("Expected win rate 0, got %f", m.Kpis.WinRate)
	}
	if len(m.EquityCurve) != 0 {
		t.Errorf("Expected empty equity curve, got %d points", len(m.EquityCurve))
	}
	if len(m.Daily) != 0 {
		t.Errorf("Expected no daily points, got %d", len(m.Daily))
	}
	if len(m.TimeOfDay) != 24 {
		t.Fatalf("Expected 24 hour buckets, got %d", len(m.TimeOfDay))
	}
	for _, b := range m.TimeOfDay {
		if b.Trades != 0 || b.PnL != 0 || b.WinRate != 0 {
			t.Errorf("Expected zeroed bucket for hour %d, got %+v", b.Hour, b)
		}
	}
	if m.MaxDrawdownPct != 0 {
		t.Errorf("Expected zero max drawdown, got %f", m.MaxDrawdownPct)
	}
}

func TestEquityCurveDrawdown(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	trades := []types.NormalizedTrade{
		tr("t1", base, 100),
		tr("t2", base.Add(time.Hour), -50),
		tr("t3", base.Add(2*time.Hour), 200),
	}

	m := Compute(trades, Options{StartingEquity: 10_000})

	if len(m.EquityCurve) != 3 {
		t.Fatalf("Expected 3 equity points, got %d", len(m.EquityCurve))
	}
	if !approx(m.EquityCurve[0].Equity, 10_100) {
		t.Errorf("Expected first equity 10100, got %f", m.EquityCurve[0].Equity)
	}
	if !approx(m.EquityCurve[1].Equity, 10_050) {
		t.Errorf("Expected second equity 10050, got %f", m.EquityCurve[1].Equity)
	}
	if !approx(m.EquityCurve[2].Equity, 10_250) {
		t.Errorf("Expected third equity 10250, got %f", m.EquityCurve[2].Equity)
	}

	wantDD := 50.0 / 10_100 * 100
	if !approx(m.EquityCurve[1].Drawdown, wantDD) {
		t.Errorf("Expected drawdown %f, got %f", wantDD, m.EquityCurve[1].Drawdown)
	}
	// Recovery zeroes the point-in-time drawdown but not the running max.
	if !approx(m.EquityCurve[2].Drawdown, 0) {
		t.Errorf("Expected final drawdown 0, got %f", m.EquityCurve[2].Drawdown)
	}
	if !approx(m.EquityCurve[2].MaxDrawdown, wantDD) {
		t.Errorf("Expected running max drawdown %f, got %f", wantDD, m.EquityCurve[2].MaxDrawdown)
	}
	if !approx(m.MaxDrawdownPct, wantDD) {
		t.Errorf("Expected max drawdown pct %f, got %f", wantDD, m.MaxDrawdownPct)
	}
}

func TestDailyAndCumulativeFees(t *testing.T) {
	day1 := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 17, 9, 0, 0, 0, time.UTC)

	t1 := tr("t1", day1, 100)
	t1.FeesUSD = 2
	t2 := tr("t2", day1.Add(time.Hour), -40)
	t2.FeesUSD = 3
	t3 := tr("t3", day2, 60)
	t3.FeesUSD = 5

	m := Compute([]types.NormalizedTrade{t3, t1, t2}, Options{})

	if len(m.Daily) != 2 {
		t.Fatalf("Expected 2 daily points, got %d", len(m.Daily))
	}
	if m.Daily[0].Day != "2026-02-16" || m.Daily[0].Trades != 2 || !approx(m.Daily[0].PnL, 60) {
		t.Errorf("Unexpected first day: %+v", m.Daily[0])
	}
	if m.Daily[1].Day != "2026-02-17" || m.Daily[1].Trades != 1 || !approx(m.Daily[1].PnL, 60) {
		t.Errorf("Unexpected second day: %+v", m.Daily[1])
	}

	if len(m.CumulativeFeesByDay) != 2 {
		t.Fatalf("Expected 2 cumulative fee points, got %d", len(m.CumulativeFeesByDay))
	}
	if !approx(m.CumulativeFeesByDay[0].CumFees, 5) {
		t.Errorf("Expected cum fees 5 after day one, got %f", m.CumulativeFeesByDay[0].CumFees)
	}
	if !approx(m.CumulativeFeesByDay[1].CumFees, 10) {
		t.Errorf("Expected cum fees 10 after day two, got %f", m.CumulativeFeesByDay[1].CumFees)
	}
}

func TestFeeComposition(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	t1 := tr("t1", base, 10)
	t1.FeesUSD = 10
	t1.FeeMakerUSD = types.Float64Ptr(2)
	t1.FeeTakerUSD = types.Float64Ptr(3)
	t1.FeeFundingUSD = types.Float64Ptr(1)

	m := Compute([]types.NormalizedTrade{t1}, Options{})

	fc := m.FeeComposition
	if !approx(fc.Maker, 2) || !approx(fc.Taker, 3) || !approx(fc.Funding, 1) {
		t.Errorf("Unexpected fee breakdown: %+v", fc)
	}
	if !approx(fc.Other, 4) {
		t.Errorf("Expected other fees 4, got %f", fc.Other)
	}
	if !approx(fc.Total, 10) {
		t.Errorf("Expected total fees 10, got %f", fc.Total)
	}
}

func TestFeeCompositionNoBreakdown(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	t1 := tr("t1", base, 10)
	t1.FeesUSD = 7

	m := Compute([]types.NormalizedTrade{t1}, Options{})

	fc := m.FeeComposition
	if fc.Maker != 0 || fc.Taker != 0 || fc.Funding != 0 {
		t.Errorf("Expected empty breakdown, got %+v", fc)
	}
	if !approx(fc.Other, 7) {
		t.Errorf("Expected whole fee in other, got %f", fc.Other)
	}
}

func TestFeeCompositionOtherFloorsAtZero(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	// Breakdown exceeds the recorded total; "other" must not go negative.
	t1 := tr("t1", base, 10)
	t1.FeesUSD = 4
	t1.FeeMakerUSD = types.Float64Ptr(3)
	t1.FeeTakerUSD = types.Float64Ptr(3)

	m := Compute([]types.NormalizedTrade{t1}, Options{})

	if m.FeeComposition.Other != 0 {
		t.Errorf("Expected other fees floored at 0, got %f", m.FeeComposition.Other)
	}
}

func TestOrderTypePerformance(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	t1 := tr("t1", base, 50)
	t1.OrderType = types.OrderMarket
	t1.FeesUSD = 4
	t1.DurationSec = types.Float64Ptr(7200)

	t2 := tr("t2", base.Add(time.Hour), -20)
	t2.OrderType = types.OrderLimit
	t2.FeesUSD = 1

	t3 := tr("t3", base.Add(2*time.Hour), 30)
	t3.OrderType = types.OrderMarket
	t3.FeesUSD = 2
	t3.DurationSec = types.Float64Ptr(3600)

	m := Compute([]types.NormalizedTrade{t1, t2, t3}, Options{})

	if len(m.OrderTypePerformance) != 2 {
		t.Fatalf("Expected 2 order type rows, got %d", len(m.OrderTypePerformance))
	}
	// Fixed enum order: limit before market.
	if m.OrderTypePerformance[0].OrderType != types.OrderLimit {
		t.Errorf("Expected limit first, got %s", m.OrderTypePerformance[0].OrderType)
	}
	mkt := m.OrderTypePerformance[1]
	if mkt.OrderType != types.OrderMarket || mkt.Trades != 2 {
		t.Fatalf("Unexpected market row: %+v", mkt)
	}
	if !approx(mkt.PnL, 80) {
		t.Errorf("Expected market pnl 80, got %f", mkt.PnL)
	}
	if !approx(mkt.WinRate, 100) {
		t.Errorf("Expected market win rate 100, got %f", mkt.WinRate)
	}
	if !approx(mkt.AvgDurationHours, 1.5) {
		t.Errorf("Expected avg duration 1.5h, got %f", mkt.AvgDurationHours)
	}
	if !approx(mkt.AvgFees, 3) {
		t.Errorf("Expected avg fees 3, got %f", mkt.AvgFees)
	}
}

func TestTimeOfDayAndSessions(t *testing.T) {
	day := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	trades := []types.NormalizedTrade{
		tr("t1", day.Add(3*time.Hour), 10),   // overnight
		tr("t2", day.Add(7*time.Hour), -5),   // morning
		tr("t3", day.Add(13*time.Hour), 20),  // afternoon
		tr("t4", day.Add(20*time.Hour), -15), // night
	}

	m := Compute(trades, Options{})

	if len(m.TimeOfDay) != 24 {
		t.Fatalf("Expected 24 buckets, got %d", len(m.TimeOfDay))
	}
	if m.TimeOfDay[3].Trades != 1 || !approx(m.TimeOfDay[3].PnL, 10) {
		t.Errorf("Unexpected hour 3 bucket: %+v", m.TimeOfDay[3])
	}
	if !approx(m.TimeOfDay[3].WinRate, 100) {
		t.Errorf("Expected hour 3 win rate 100, got %f", m.TimeOfDay[3].WinRate)
	}
	if m.TimeOfDay[4].Trades != 0 {
		t.Errorf("Expected hour 4 untouched, got %+v", m.TimeOfDay[4])
	}

	sp := m.SessionPerformance
	if sp.Overnight.Trades != 1 || !approx(sp.Overnight.PnL, 10) {
		t.Errorf("Unexpected overnight session: %+v", sp.Overnight)
	}
	if sp.Morning.Trades != 1 || !approx(sp.Morning.PnL, -5) {
		t.Errorf("Unexpected morning session: %+v", sp.Morning)
	}
	if sp.Afternoon.Trades != 1 || !approx(sp.Afternoon.PnL, 20) {
		t.Errorf("Unexpected afternoon session: %+v", sp.Afternoon)
	}
	if sp.Night.Trades != 1 || !approx(sp.Night.PnL, -15) {
		t.Errorf("Unexpected night session: %+v", sp.Night)
	}
}

func TestNotionalVolume(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	withPrice := tr("t1", base, 0)
	withPrice.EntryPrice = types.Float64Ptr(100)
	withPrice.Size = types.Float64Ptr(2)

	sizeOnly := tr("t2", base.Add(time.Hour), 0)
	sizeOnly.Size = types.Float64Ptr(7)

	neither := tr("t3", base.Add(2*time.Hour), 0)

	m := Compute([]types.NormalizedTrade{withPrice, sizeOnly, neither}, Options{})

	if !approx(m.Kpis.TotalVolume, 207) {
		t.Errorf("Expected total volume 207, got %f", m.Kpis.TotalVolume)
	}
}

func TestLongShortRatio(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	longs := []types.NormalizedTrade{
		tr("t1", base, 10),
		tr("t2", base.Add(time.Hour), 20),
		tr("t3", base.Add(2*time.Hour), -5),
	}

	m := Compute(longs, Options{})
	if !math.IsInf(m.Kpis.LongShortRatioRaw, 1) {
		t.Errorf("Expected raw ratio +Inf with no shorts, got %f", m.Kpis.LongShortRatioRaw)
	}
	if !approx(m.Kpis.LongShortRatio, 3) {
		t.Errorf("Expected display ratio fall back to long count 3, got %f", m.Kpis.LongShortRatio)
	}

	short := tr("t4", base.Add(3*time.Hour), 1)
	short.Side = types.SideShort
	m = Compute(append(longs, short), Options{})
	if !approx(m.Kpis.LongShortRatioRaw, 3) || !approx(m.Kpis.LongShortRatio, 3) {
		t.Errorf("Expected ratio 3 with one short, got raw %f display %f", m.Kpis.LongShortRatioRaw, m.Kpis.LongShortRatio)
	}

	m = Compute(nil, Options{})
	if m.Kpis.LongShortRatioRaw != 0 || m.Kpis.LongShortRatio != 0 {
		t.Errorf("Expected zero ratio for empty batch, got raw %f display %f", m.Kpis.LongShortRatioRaw, m.Kpis.LongShortRatio)
	}
}

func TestDirectionBias(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	l := tr("t1", base, 40)
	s1 := tr("t2", base.Add(time.Hour), -10)
	s1.Side = types.SideShort
	s2 := tr("t3", base.Add(2*time.Hour), 25)
	s2.Side = types.SideShort

	m := Compute([]types.NormalizedTrade{l, s1, s2}, Options{})

	if m.DirectionBias.Long.Trades != 1 || !approx(m.DirectionBias.Long.PnL, 40) {
		t.Errorf("Unexpected long bias: %+v", m.DirectionBias.Long)
	}
	if m.DirectionBias.Short.Trades != 2 || !approx(m.DirectionBias.Short.PnL, 15) {
		t.Errorf("Unexpected short bias: %+v", m.DirectionBias.Short)
	}
}

func TestSymbolsSortedByPnL(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	a := tr("t1", base, 10)
	a.Symbol = "ETH/USDC"
	b := tr("t2", base.Add(time.Hour), 90)
	b.Symbol = "BTC/USDC"
	c := tr("t3", base.Add(2*time.Hour), -30)
	c.Symbol = "SOL/USDC"

	m := Compute([]types.NormalizedTrade{a, b, c}, Options{})

	if len(m.Symbols) != 3 {
		t.Fatalf("Expected 3 symbol rows, got %d", len(m.Symbols))
	}
	want := []string{"BTC/USDC", "ETH/USDC", "SOL/USDC"}
	for i, sym := range want {
		if m.Symbols[i].Symbol != sym {
			t.Errorf("Expected symbol %s at position %d, got %s", sym, i, m.Symbols[i].Symbol)
		}
	}
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	trades := []types.NormalizedTrade{
		tr("late", base.Add(5*time.Hour), -10),
		tr("early", base, 20),
	}

	Compute(trades, Options{})

	if trades[0].ID != "late" || trades[1].ID != "early" {
		t.Error("Expected input order preserved after Compute")
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	trades := []types.NormalizedTrade{}
	base := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	symbols := []string{"SOL/USDC", "BTC/USDC", "ETH/USDC"}
	for i := 0; i < 30; i++ {
		tt := tr("t"+string(rune('a'+i%26))+string(rune('0'+i/26)), base.Add(time.Duration(i)*time.Hour), float64(i%7)-3)
		tt.Symbol = symbols[i%3]
		tt.FeesUSD = float64(i%3) * 0.5
		trades = append(trades, tt)
	}

	first := Compute(trades, Options{})
	second := Compute(trades, Options{})

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for repeated computation over the same input")
	}
}
