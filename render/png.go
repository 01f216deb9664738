package render

import (
	"fmt"
	"image/color"
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"f1telemetry/models"
	"f1telemetry/track"
)

var highlightColor = color.RGBA{R: 220, A: 255}

// mapShare is the fraction of the image width given to the track map.
const mapShare = 0.3

// WritePNG draws the dashboard into a width x height PNG.
func WritePNG(w io.Writer, d Dashboard, width, height vg.Length) error {
	if len(d.Panels) == 0 && len(d.Track) == 0 {
		return errors.New("nothing to draw")
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)

	panelArea, mapArea := dc, dc
	switch {
	case len(d.Track) == 0:
	case len(d.Panels) == 0:
	default:
		split := dc.Min.X + (dc.Max.X-dc.Min.X)*(1-mapShare)
		panelArea.Max.X = split
		mapArea.Min.X = split
	}

	if len(d.Panels) > 0 {
		if err := drawPanels(panelArea, d); err != nil {
			return err
		}
	}
	if len(d.Track) > 0 {
		p, err := trackPlot(d)
		if err != nil {
			return err
		}
		p.Draw(mapArea)
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return errors.Wrap(err, "write png")
	}
	return nil
}

func drawPanels(dc draw.Canvas, d Dashboard) error {
	rows, cols := Layout(len(d.Panels))
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	for i, panel := range d.Panels {
		p, err := panelPlot(panel, d)
		if err != nil {
			return errors.Wrapf(err, "panel %s", panel.Title)
		}
		p.Draw(tiles.At(dc, i%cols, i/cols))
	}
	return nil
}

func panelPlot(panel Panel, d Dashboard) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = "Distance (m)"
	if panel.Title == models.DeltaChannel {
		p.Y.Label.Text = "Delta (ms)"
	}
	p.Add(plotter.NewGrid())

	colors := palette(len(panel.Series))
	for i, s := range panel.Series {
		xs, ys := finite(s.X, s.Y)
		if len(xs) == 0 {
			continue
		}
		line, err := plotter.NewLine(xyPoints(xs, ys))
		if err != nil {
			return nil, err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	if d.HasHighlight {
		var pts plotter.XYs
		for _, h := range track.Highlight(panel.Series, d.Highlight) {
			pts = append(pts, plotter.XY{X: h.X, Y: h.Y})
		}
		if err := addMarkers(p, pts); err != nil {
			return nil, err
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func trackPlot(d Dashboard) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Track map"
	if d.TrackLabel != "" {
		p.Title.Text = fmt.Sprintf("Track map (%s)", d.TrackLabel)
	}
	p.HideAxes()

	xs := make([]float64, len(d.Track))
	ys := make([]float64, len(d.Track))
	for i, tp := range d.Track {
		xs[i], ys[i] = tp.X, tp.Y
	}
	xs, ys = finite(xs, ys)
	if len(xs) == 0 {
		return p, nil
	}

	line, err := plotter.NewLine(xyPoints(xs, ys))
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(2)
	p.Add(line)

	// same span on both axes so the circuit keeps its shape
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	span := maxX - minX
	if h := maxY - minY; h > span {
		span = h
	}
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	p.X.Min, p.X.Max = midX-span/2, midX+span/2
	p.Y.Min, p.Y.Max = midY-span/2, midY+span/2

	if d.HasHighlight {
		if tp, ok := track.HighlightTrack(d.Track, d.Highlight); ok {
			if err := addMarkers(p, plotter.XYs{{X: tp.X, Y: tp.Y}}); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func addMarkers(p *plot.Plot, pts plotter.XYs) error {
	if len(pts) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = highlightColor
	sc.GlyphStyle.Radius = vg.Points(4)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	return nil
}

func xyPoints(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	return pts
}
