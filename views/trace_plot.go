package views

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"forcedeck/models"
)

// RenderTrace writes a PNG of per-deck and total GRF against session time.
// The image format follows the file extension of path. Inputs longer than
// DefaultTracePoints are strided; recorders feed it from a TraceBuffer.
func RenderTrace(path, title string, metrics []models.Metrics) error {
	if len(metrics) == 0 {
		return fmt.Errorf("no metrics to plot")
	}

	stride := 1
	if len(metrics) > DefaultTracePoints {
		stride = (len(metrics) + DefaultTracePoints - 1) / DefaultTracePoints
	}

	t0 := metrics[0].TimestampNs
	n := (len(metrics) + stride - 1) / stride
	left := make(plotter.XYs, 0, n)
	right := make(plotter.XYs, 0, n)
	total := make(plotter.XYs, 0, n)
	for i := 0; i < len(metrics); i += stride {
		m := metrics[i]
		x := float64(m.TimestampNs-t0) / 1e9
		left = append(left, plotter.XY{X: x, Y: m.LeftTotal})
		right = append(right, plotter.XY{X: x, Y: m.RightTotal})
		total = append(total, plotter.XY{X: x, Y: m.TotalGRF})
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Force (N)"
	p.Add(plotter.NewGrid())

	series := []struct {
		name string
		pts  plotter.XYs
		c    color.Color
	}{
		{"Left", left, color.RGBA{R: 220, G: 60, B: 60, A: 255}},
		{"Right", right, color.RGBA{R: 40, G: 90, B: 220, A: 255}},
		{"Total GRF", total, color.Black},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("trace line %s: %w", s.name, err)
		}
		line.Color = s.c
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save trace %s: %w", path, err)
	}
	return nil
}
