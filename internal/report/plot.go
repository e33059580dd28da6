package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/posture.report/internal/session"
)

var (
	accuracyColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	hiddenColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// PlotTimeline writes a PNG of accuracy over time. Frames without a usable
// body are marked along the x axis.
func PlotTimeline(w io.Writer, s session.Summary) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - accuracy", s.Activity)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Accuracy"
	p.Y.Min, p.Y.Max = 0, 100
	p.X.Min, p.X.Max = 0, math.Max(1, s.DurationSeconds)
	p.Add(plotter.NewGrid())

	visible := make(plotter.XYs, 0, len(s.Timeline))
	hidden := make(plotter.XYs, 0)
	for _, pt := range s.Timeline {
		if pt.Visible {
			visible = append(visible, plotter.XY{X: pt.Offset, Y: pt.Accuracy})
		} else {
			hidden = append(hidden, plotter.XY{X: pt.Offset, Y: 0})
		}
	}

	if len(visible) > 0 {
		line, err := plotter.NewLine(visible)
		if err != nil {
			return fmt.Errorf("accuracy line: %w", err)
		}
		line.Color = accuracyColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("accuracy", line)
	}
	if len(hidden) > 0 {
		sc, err := plotter.NewScatter(hidden)
		if err != nil {
			return fmt.Errorf("hidden frames: %w", err)
		}
		sc.Color = hiddenColor
		sc.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add("not visible", sc)
	}

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
