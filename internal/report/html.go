package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/posture.report/internal/session"
)

// AssetsHost serves the echarts javascript. Override for offline use.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderHTML writes an HTML page with the accuracy timeline and the
// session's percentage metrics.
func RenderHTML(w io.Writer, s session.Summary) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s session", s.Activity)
	page.AssetsHost = AssetsHost
	page.AddCharts(timelineChart(s))
	if len(s.Metrics) > 0 {
		page.AddCharts(metricsChart(s))
	}
	return page.Render(w)
}

func subtitle(s session.Summary) string {
	sub := fmt.Sprintf("%s  duration=%.1fs  frames=%d usable=%d  reps=%d  best=%.1f avg=%.1f",
		s.StartedAt.Format("2006-01-02 15:04"), s.DurationSeconds, s.Frames, s.UsableFrames,
		s.Reps, s.BestAccuracy, s.AvgAccuracy)
	if s.Degenerate {
		sub += "  (no usable frames)"
	}
	return sub
}

func timelineChart(s session.Summary) *charts.Line {
	x := make([]string, 0, len(s.Timeline))
	acc := make([]opts.LineData, 0, len(s.Timeline))
	for _, p := range s.Timeline {
		x = append(x, fmt.Sprintf("%.1f", p.Offset))
		if p.Visible {
			acc = append(acc, opts.LineData{Value: p.Accuracy})
		} else {
			acc = append(acc, opts.LineData{Value: "-"})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: s.Activity, Subtitle: subtitle(s)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Accuracy", Min: 0, Max: 100}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x).AddSeries("accuracy", acc,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ConnectNulls: opts.Bool(false)}),
	)
	return line
}

func metricsChart(s session.Summary) *charts.Bar {
	names := make([]string, 0, len(s.Metrics))
	vals := make([]opts.BarData, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		names = append(names, m.Name)
		vals = append(vals, opts.BarData{Value: m.Percent})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Time in correct form", Subtitle: "% of usable frames"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	bar.SetXAxis(names).AddSeries("percent", vals,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}
