package types

// Streaks reports win/loss run lengths. Max values cover the whole history;
// current values trail backward from the most recent trade.
type Streaks struct {
	CurrentWin  int `json:"current_win"`
	CurrentLoss int `json:"current_loss"`
	MaxWin      int `json:"max_win"`
	MaxLoss     int `json:"max_loss"`
}

// OvertradingDay is a calendar day whose trade count met the threshold.
type OvertradingDay struct {
	Day    string `json:"day"`
	Trades int    `json:"trades"`
}

// Overtrading lists flagged days, sorted by trade count descending.
type Overtrading struct {
	FlaggedDays []OvertradingDay `json:"flagged_days"`
	Threshold   int              `json:"threshold"`
}

// FeeDrag relates total fees to gross winning profit (losses excluded).
type FeeDrag struct {
	GrossProfit         float64 `json:"gross_profit"`
	TotalFees           float64 `json:"total_fees"`
	FeeToGrossProfitPct float64 `json:"fee_to_gross_profit_pct"`
	Warning             bool    `json:"warning"`
}

// BestWorstHour points at the strongest and weakest traded hours. Both are
// nil when no hour bucket has any trades.
type BestWorstHour struct {
	BestHour  *HourBucket `json:"best_hour"`
	WorstHour *HourBucket `json:"worst_hour"`
}

// Insights is the behavioral report derived from trades plus metrics.
type Insights struct {
	Streaks       Streaks       `json:"streaks"`
	Overtrading   Overtrading   `json:"overtrading"`
	FeeDrag       FeeDrag       `json:"fee_drag"`
	BestWorstHour BestWorstHour `json:"best_worst_hour"`
}
