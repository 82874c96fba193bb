package types

import "time"

// Kpis holds the scalar dashboard figures derived from one trade batch.
// LargestLoss and AvgLoss are reported as magnitudes.
type Kpis struct {
	TotalPnL              float64 `json:"total_pnl"`
	PnLPercent            float64 `json:"pnl_percent"`
	WinRate               float64 `json:"win_rate"`
	TradeCount            int     `json:"trade_count"`
	TotalVolume           float64 `json:"total_volume"`
	TotalFees             float64 `json:"total_fees"`
	AvgTradeDurationHours float64 `json:"avg_trade_duration_hours"`

	// LongShortRatioRaw keeps the unclamped ratio (it is +Inf when the
	// batch has longs but no shorts, which JSON cannot carry); the display
	// field falls back to the long count in that case so the "no shorts"
	// signal is not lost entirely.
	LongShortRatioRaw float64 `json:"-"`
	LongShortRatio    float64 `json:"long_short_ratio"`

	LargestGain float64 `json:"largest_gain"`
	LargestLoss float64 `json:"largest_loss"`
	AvgWin      float64 `json:"avg_win"`
	AvgLoss     float64 `json:"avg_loss"`
	RiskReward  float64 `json:"risk_reward"`
}

// EquityPoint is one step of the running equity series. Drawdown and
// MaxDrawdown are point-in-time snapshots of the running values, not the
// final totals broadcast backward.
type EquityPoint struct {
	Ts          time.Time `json:"ts"`
	CumPnL      float64   `json:"cum_pnl"`
	Equity      float64   `json:"equity"`
	Drawdown    float64   `json:"drawdown"`
	MaxDrawdown float64   `json:"max_drawdown"`
}

// DailyPoint aggregates one calendar day (key format 2006-01-02).
type DailyPoint struct {
	Day    string  `json:"day"`
	PnL    float64 `json:"pnl"`
	Trades int     `json:"trades"`
}

// SymbolPerf aggregates one instrument.
type SymbolPerf struct {
	Symbol  string  `json:"symbol"`
	Trades  int     `json:"trades"`
	PnL     float64 `json:"pnl"`
	WinRate float64 `json:"win_rate"`
	Volume  float64 `json:"volume"`
}

// FeeComposition splits total fees into maker/taker/funding and an "other"
// remainder for sources without a breakdown.
type FeeComposition struct {
	Maker   float64 `json:"maker"`
	Taker   float64 `json:"taker"`
	Funding float64 `json:"funding"`
	Other   float64 `json:"other"`
	Total   float64 `json:"total"`
}

// CumulativeFeePoint is the running fee total as of the end of one day.
type CumulativeFeePoint struct {
	Day     string  `json:"day"`
	CumFees float64 `json:"cum_fees"`
}

// OrderTypePerf aggregates one order type.
type OrderTypePerf struct {
	OrderType        OrderType `json:"order_type"`
	Trades           int       `json:"trades"`
	PnL              float64   `json:"pnl"`
	WinRate          float64   `json:"win_rate"`
	AvgDurationHours float64   `json:"avg_duration_hours"`
	AvgFees          float64   `json:"avg_fees"`
}

// HourBucket aggregates one local hour of day (0..23).
type HourBucket struct {
	Hour    int     `json:"hour"`
	PnL     float64 `json:"pnl"`
	Trades  int     `json:"trades"`
	WinRate float64 `json:"win_rate"`
}

// SessionStats aggregates one of the four fixed local-hour sessions.
type SessionStats struct {
	PnL              float64 `json:"pnl"`
	Trades           int     `json:"trades"`
	WinRate          float64 `json:"win_rate"`
	AvgDurationHours float64 `json:"avg_duration_hours"`
	TotalFees        float64 `json:"total_fees"`
}

// SessionPerformance partitions all 24 hours into four sessions:
// overnight [0,6), morning [6,12), afternoon [12,18), night [18,24).
type SessionPerformance struct {
	Overnight SessionStats `json:"overnight"`
	Morning   SessionStats `json:"morning"`
	Afternoon SessionStats `json:"afternoon"`
	Night     SessionStats `json:"night"`
}

// SideBias is the per-direction slice of DirectionBias.
type SideBias struct {
	Trades int     `json:"trades"`
	PnL    float64 `json:"pnl"`
}

// DirectionBias compares long vs short performance.
type DirectionBias struct {
	Long  SideBias `json:"long"`
	Short SideBias `json:"short"`
}

// MetricsResult is the full report produced by the metrics engine.
type MetricsResult struct {
	Kpis                 Kpis                 `json:"kpis"`
	EquityCurve          []EquityPoint        `json:"equity_curve"`
	Daily                []DailyPoint         `json:"daily"`
	Symbols              []SymbolPerf         `json:"symbols"`
	FeeComposition       FeeComposition       `json:"fee_composition"`
	CumulativeFeesByDay  []CumulativeFeePoint `json:"cumulative_fees_by_day"`
	OrderTypePerformance []OrderTypePerf      `json:"order_type_performance"`
	TimeOfDay            []HourBucket         `json:"time_of_day"`
	SessionPerformance   SessionPerformance   `json:"session_performance"`
	DirectionBias        DirectionBias        `json:"direction_bias"`
	MaxDrawdownPct       float64              `json:"max_drawdown_pct"`
}
