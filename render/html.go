package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"f1telemetry/models"
	"f1telemetry/track"
)

// WriteHTML renders the dashboard as a single page of interactive echarts. The distance
// axis of every panel can be zoomed independently; hovering shows all laps at that distance.
func WriteHTML(w io.Writer, d Dashboard) error {
	if len(d.Panels) == 0 && len(d.Track) == 0 {
		return errors.New("nothing to draw")
	}

	page := components.NewPage()
	page.PageTitle = d.Title
	if page.PageTitle == "" {
		page.PageTitle = "Lap telemetry"
	}

	for _, panel := range d.Panels {
		page.AddCharts(panelChart(panel, d))
	}
	if len(d.Track) > 0 {
		page.AddCharts(trackChart(d))
	}

	if err := page.Render(w); err != nil {
		return errors.Wrap(err, "render html")
	}
	return nil
}

func panelChart(panel Panel, d Dashboard) *charts.Line {
	line := charts.NewLine()
	yName := ""
	if panel.Title == models.DeltaChannel {
		yName = "Delta (ms)"
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: panel.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Distance (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName, Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
	)

	var marks []models.HighlightPoint
	if d.HasHighlight {
		marks = track.Highlight(panel.Series, d.Highlight)
	}

	colors := palette(len(panel.Series))
	for i, s := range panel.Series {
		xs, ys := finite(s.X, s.Y)
		data := make([]opts.LineData, len(xs))
		for j := range xs {
			data[j] = opts.LineData{Value: []interface{}{xs[j], ys[j]}}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[i])}),
		}
		for _, m := range marks {
			if m.Series != i {
				continue
			}
			seriesOpts = append(seriesOpts,
				charts.WithMarkPointNameCoordItemOpts(opts.MarkPointNameCoordItem{
					Name:       fmt.Sprintf("%.0f m", m.X),
					Coordinate: []interface{}{m.X, m.Y},
				}),
				charts.WithMarkPointStyleOpts(opts.MarkPointStyle{SymbolSize: 30}),
			)
		}
		line.AddSeries(s.Label, data, seriesOpts...)
	}
	return line
}

func trackChart(d Dashboard) *charts.Scatter {
	xs := make([]float64, len(d.Track))
	ys := make([]float64, len(d.Track))
	for i, tp := range d.Track {
		xs[i], ys[i] = tp.X, tp.Y
	}
	xs, ys = finite(xs, ys)

	data := make([]opts.ScatterData, len(xs))
	for i := range xs {
		data[i] = opts.ScatterData{Value: []interface{}{xs[i], ys[i]}}
	}

	pad := 1.0
	for _, v := range [][]float64{xs, ys} {
		if len(v) == 0 {
			continue
		}
		if m := floats.Max(v); m > pad {
			pad = m
		}
		if m := -floats.Min(v); m > pad {
			pad = m
		}
	}

	title := "Track map"
	if d.TrackLabel != "" {
		title = fmt.Sprintf("Track map (%s)", d.TrackLabel)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Show: opts.Bool(false)}),
	)
	scatter.AddSeries("track", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))

	if d.HasHighlight {
		if tp, ok := track.HighlightTrack(d.Track, d.Highlight); ok {
			scatter.AddSeries("highlight",
				[]opts.ScatterData{{Value: []interface{}{tp.X, tp.Y}}},
				charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(highlightColor)}),
			)
		}
	}
	return scatter
}
