// Package render draws lap telemetry dashboards as a static PNG (gonum/plot) or an
// interactive HTML page (go-echarts).
package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"f1telemetry/models"
)

var log = logrus.WithField("component", "render")

// Panel is one chart: a title and the lines drawn in it.
type Panel struct {
	Title  string
	Series []models.Series
}

// Dashboard is everything a writer draws: channel panels, the track map of the
// reference lap and an optional highlighted distance.
type Dashboard struct {
	Title      string
	Panels     []Panel
	Track      []models.Trackpoint
	TrackLabel string

	HasHighlight bool
	Highlight    float64
}

// BuildPanels groups series by channel in the order channels were asked for. With combine
// set everything goes into one panel. Channels that produced no series are left out.
func BuildPanels(channels []string, byChannel map[string][]models.Series, combine bool) []Panel {
	if combine {
		var all []models.Series
		var names []string
		for _, ch := range channels {
			if len(byChannel[ch]) == 0 {
				continue
			}
			all = append(all, byChannel[ch]...)
			names = append(names, ch)
		}
		if len(all) == 0 {
			return nil
		}
		return []Panel{{Title: strings.Join(names, ", "), Series: all}}
	}

	var panels []Panel
	for _, ch := range channels {
		series := byChannel[ch]
		if len(series) == 0 {
			log.WithField("channel", ch).Warn("no data for channel, skipping panel")
			continue
		}
		panels = append(panels, Panel{Title: ch, Series: series})
	}
	return panels
}

// Layout returns the grid used for n panels: two columns once there is more than one.
func Layout(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = 1
	if n > 1 {
		cols = 2
	}
	rows = (n + cols - 1) / cols
	return rows, cols
}

// finite drops points where either coordinate is NaN or infinite.
func finite(xs, ys []float64) ([]float64, []float64) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	outX := make([]float64, 0, n)
	outY := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	return outX, outY
}

// palette creates n distinct colours spread around the hue wheel.
func palette(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
