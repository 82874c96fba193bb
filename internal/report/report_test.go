package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"deriverse-journal/internal/adapters"
	"deriverse-journal/internal/metrics"
)

func TestWriteDailyCSV(t *testing.T) {
	trades := adapters.GenerateDemoTrades(40, 7)
	m := metrics.Compute(trades, metrics.Options{})

	outPath := filepath.Join(t.TempDir(), "eod", "daily.csv")
	if err := WriteDailyCSV(m, outPath); err != nil {
		t.Fatalf("Expected csv written, got %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Expected readable csv, got %v", err)
	}
	// Header + one row per day + TOTAL footer.
	if len(records) != len(m.Daily)+2 {
		t.Fatalf("Expected %d records, got %d", len(m.Daily)+2, len(records))
	}
	if records[0][0] != "day" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	last := records[len(records)-1]
	if last[0] != "TOTAL" {
		t.Errorf("Expected TOTAL footer, got %v", last)
	}
}

func TestWriteEquityPNG(t *testing.T) {
	trades := adapters.GenerateDemoTrades(40, 7)
	m := metrics.Compute(trades, metrics.Options{})

	outPath := filepath.Join(t.TempDir(), "equity.png")
	if err := WriteEquityPNG(m, outPath); err != nil {
		t.Fatalf("Expected png written, got %v", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("Expected png on disk, got %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty png")
	}
}

func TestWriteEquityPNGEmpty(t *testing.T) {
	m := metrics.Compute(nil, metrics.Options{})
	if err := WriteEquityPNG(m, filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("Expected error for empty equity curve")
	}
}
