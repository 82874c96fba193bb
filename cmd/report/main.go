package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"deriverse-journal/internal/adapters"
	"deriverse-journal/internal/metrics"
	"deriverse-journal/internal/report"
	"deriverse-journal/internal/types"
)

func main() {
	inPath := flag.String("in", "", "Input trades CSV (empty: generate demo data)")
	outCSV := flag.String("out", "out/daily.csv", "Output daily summary CSV path")
	outPNG := flag.String("png", "out/equity_curve.png", "Output equity curve PNG path")
	equity := flag.Float64("equity", metrics.DefaultStartingEquity, "Starting equity baseline")
	flag.Parse()

	trades, err := loadTrades(*inPath)
	if err != nil {
		log.Fatalf("load trades: %v", err)
	}
	if len(trades) == 0 {
		log.Fatal("no trades to report on")
	}

	m := metrics.Compute(trades, metrics.Options{StartingEquity: *equity})

	if err := report.WriteDailyCSV(m, *outCSV); err != nil {
		log.Fatalf("write daily csv: %v", err)
	}
	if err := report.WriteEquityPNG(m, *outPNG); err != nil {
		log.Fatalf("write equity png: %v", err)
	}

	fmt.Printf("%d trades, total pnl %.2f, max drawdown %.2f%%\n", m.Kpis.TradeCount, m.Kpis.TotalPnL, m.MaxDrawdownPct)
	fmt.Println("Daily CSV written:", *outCSV)
	fmt.Println("Equity PNG written:", *outPNG)
}

func loadTrades(path string) ([]types.NormalizedTrade, error) {
	if path == "" {
		return adapters.GenerateDemoTrades(adapters.DemoCount, adapters.DemoSeed), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return adapters.ParseTradesCSV(string(b))
}
