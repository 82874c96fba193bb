package adapters

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"deriverse-journal/internal/types"
)

// Demo dataset defaults, matching the sample journal the dashboard boots
// with.
const (
	DemoSeed  = 1337
	DemoCount = 150
)

var demoSymbols = []string{"SOL/USDC", "BTC/USDC", "ETH/USDC", "JUP/USDC", "RAY/USDC", "ORCA/USDC"}

var demoOrderTypes = []types.OrderType{
	types.OrderLimit,
	types.OrderMarket,
	types.OrderIOC,
	types.OrderPostOnly,
}

// demoBase anchors the generated history so the same seed always produces
// the same batch regardless of when it runs.
var demoBase = time.Date(2026, time.February, 16, 0, 0, 0, 0, time.Local)

// GenerateDemoTrades produces a deterministic batch of count trades spread
// over the 30 days before the anchor date. Same seed, same output.
func GenerateDemoTrades(count int, seed int64) []types.NormalizedTrade {
	if count <= 0 {
		count = DemoCount
	}
	rng := rand.New(rand.NewSource(seed))

	trades := make([]types.NormalizedTrade, 0, count)
	for i := 0; i < count; i++ {
		trades = append(trades, genDemoTrade(i, rng))
	}
	return trades
}

func genDemoTrade(index int, rng *rand.Rand) types.NormalizedTrade {
	ts := demoBase.AddDate(0, 0, -rng.Intn(30))
	ts = ts.Add(time.Duration(rng.Intn(24))*time.Hour + time.Duration(rng.Intn(60))*time.Minute)

	symbol := demoSymbols[rng.Intn(len(demoSymbols))]
	side := types.SideLong
	if rng.Float64() > 0.5 {
		side = types.SideShort
	}
	orderType := demoOrderTypes[rng.Intn(len(demoOrderTypes))]

	entryPrice := round4(rng.Float64()*100 + 50)
	pnlPercent := (rng.Float64() - 0.4) * 10
	exitPrice := round4(entryPrice * (1 + pnlPercent/100))
	size := float64(rng.Intn(1000) + 100)

	pnl := round2((exitPrice - entryPrice) * size)
	fees := round2(math.Abs(pnl) * (rng.Float64()*0.005 + 0.001))
	durationSec := round2((rng.Float64()*24 + 0.5) * 3600)

	// Fee breakdown: resting order types pay maker, aggressive ones taker;
	// a small funding leg shows up on longer holds.
	var maker, taker, funding float64
	if orderType == types.OrderLimit || orderType == types.OrderPostOnly {
		maker = fees
	} else {
		taker = fees
	}
	if durationSec > 8*3600 {
		funding = round2(fees * 0.1)
		fees = round2(fees + funding)
	}

	var tags []string
	switch {
	case rng.Float64() > 0.5:
		tags = []string{"scalp"}
	case rng.Float64() > 0.5:
		tags = []string{"swing"}
	default:
		tags = []string{}
	}
	notes := ""
	if rng.Float64() > 0.7 {
		notes = "Good risk/reward setup"
	}

	return types.NormalizedTrade{
		ID:            fmt.Sprintf("demo-%d", index),
		Ts:            ts,
		Symbol:        symbol,
		Side:          side,
		OrderType:     orderType,
		EntryPrice:    types.Float64Ptr(entryPrice),
		ExitPrice:     types.Float64Ptr(exitPrice),
		Size:          types.Float64Ptr(size),
		PnLUSD:        pnl,
		FeesUSD:       fees,
		FeeMakerUSD:   types.Float64Ptr(maker),
		FeeTakerUSD:   types.Float64Ptr(taker),
		FeeFundingUSD: types.Float64Ptr(funding),
		DurationSec:   types.Float64Ptr(durationSec),
		Tags:          tags,
		Notes:         notes,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
