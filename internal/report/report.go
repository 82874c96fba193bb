// Package report renders an offline summary of a trade batch: a daily CSV
// and an equity-curve PNG.
package report

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"deriverse-journal/internal/types"
)

// WriteDailyCSV writes one row per traded day plus a TOTAL footer.
func WriteDailyCSV(m *types.MetricsResult, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	headers := []string{"day", "trades", "pnl_usd", "cum_fees_usd"}
	if err := w.Write(headers); err != nil {
		return err
	}

	// Daily and CumulativeFeesByDay share keys and ordering.
	var totalPnL float64
	totalTrades := 0
	for i, d := range m.Daily {
		cumFees := 0.0
		if i < len(m.CumulativeFeesByDay) {
			cumFees = m.CumulativeFeesByDay[i].CumFees
		}
		rec := []string{d.Day, strconv.Itoa(d.Trades), fmt.Sprintf("%.2f", d.PnL), fmt.Sprintf("%.2f", cumFees)}
		if err := w.Write(rec); err != nil {
			return err
		}
		totalPnL += d.PnL
		totalTrades += d.Trades
	}
	return w.Write([]string{"TOTAL", strconv.Itoa(totalTrades), fmt.Sprintf("%.2f", totalPnL), fmt.Sprintf("%.2f", m.FeeComposition.Total)})
}

// WriteEquityPNG plots equity against trade sequence number. Sequence
// number, not time, keeps clustered trading days readable.
func WriteEquityPNG(m *types.MetricsResult, outPath string) error {
	if len(m.EquityCurve) == 0 {
		return fmt.Errorf("no equity points to plot")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	pts := make(plotter.XYs, len(m.EquityCurve))
	for i, p := range m.EquityCurve {
		pts[i].X = float64(i + 1)
		pts[i].Y = p.Equity
	}

	p := plot.New()
	p.Title.Text = "Equity Curve"
	p.X.Label.Text = "Trade #"
	p.Y.Label.Text = "Equity (USD)"
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 0, G: 128, B: 255, A: 255}
	line.Width = vg.Points(2)
	points.Shape = nil
	p.Add(line)

	// Starting-equity baseline so drawdowns read at a glance.
	base := pts[0].Y - m.EquityCurve[0].CumPnL
	baseline, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: base},
		{X: float64(len(pts) + 1), Y: base},
	})
	if err != nil {
		return err
	}
	baseline.Color = color.RGBA{R: 255, G: 0, B: 0, A: 100}
	baseline.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(baseline)

	return p.Save(8*vg.Inch, 4*vg.Inch, outPath)
}
