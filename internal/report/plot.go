package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotMonthlySpend renders the monthly totals as a line chart PNG.
// Returns false without error when there are fewer than two months of
// data; a single point makes no trend.
func PlotMonthlySpend(monthly []MonthTotal, outputPath string) (bool, error) {
	if len(monthly) < 2 {
		slog.Info("Not enough data to generate monthly spend plot", "months", len(monthly))
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return false, fmt.Errorf("create plot directory: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Monthly Spend"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Total Spend"

	pts := make(plotter.XYs, len(monthly))
	labels := make([]string, len(monthly))
	for i, m := range monthly {
		pts[i].X = float64(i)
		pts[i].Y = m.Total
		labels[i] = m.Month
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return false, fmt.Errorf("build line plot: %w", err)
	}
	p.Add(line, points)
	p.NominalX(labels...)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, outputPath); err != nil {
		return false, fmt.Errorf("save plot: %w", err)
	}

	slog.Info("Saved monthly spend plot", "path", outputPath)
	return true, nil
}
