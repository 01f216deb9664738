package models

import "fmt"

// DeltaChannel is the reserved channel name that asks for the lap delta curve
// instead of a recorded telemetry channel.
const DeltaChannel = "Delta"

// Sample is one telemetry record of a lap, keyed by distance along the lap.
type Sample struct {
	Distance float64
	TimeMs   int64
}

// ChannelSpec describes one telemetry field discovered in the first valid sample of a group.
// Width is 0 for scalar fields and the array length for vector fields.
type ChannelSpec struct {
	Group   string
	Field   string
	Name    string
	Width   int
	Numeric bool
}

// IsVector reports whether the field expands into one channel per index.
func (c ChannelSpec) IsVector() bool {
	return c.Width > 0
}

// ChannelNames returns the scalar channel names this field expands to.
func (c ChannelSpec) ChannelNames() []string {
	if !c.IsVector() {
		return []string{c.Name}
	}
	out := make([]string, c.Width)
	for i := range out {
		out[i] = fmt.Sprintf("%s[%d]", c.Name, i)
	}
	return out
}

// ChannelTable is the ordered schema of a lap recording.
type ChannelTable []ChannelSpec

// Names lists every scalar channel in schema order.
func (t ChannelTable) Names() []string {
	var out []string
	for _, c := range t {
		out = append(out, c.ChannelNames()...)
	}
	return out
}

// LapRecording is one lap file after loading. Channel values are aligned 1:1 with Samples.
// Err is set when the file could not be parsed; such recordings carry no samples.
type LapRecording struct {
	LapIndex  int
	LapTimeMs int64
	Path      string
	Samples   []Sample
	Schema    ChannelTable
	Channels  map[string][]float64
	Err       error
}

// Valid reports whether the recording was parsed successfully.
func (r LapRecording) Valid() bool {
	return r.Err == nil
}

// Distances returns the lap distance of every sample.
func (r LapRecording) Distances() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Distance
	}
	return out
}

// ValuesAt returns the channel mapping for sample i.
func (r LapRecording) ValuesAt(i int) map[string]float64 {
	if i < 0 || i >= len(r.Samples) {
		return nil
	}
	out := make(map[string]float64, len(r.Channels))
	for name, vals := range r.Channels {
		out[name] = vals[i]
	}
	return out
}

// MaxDistance is the distance of the last sample, or 0 for an empty lap.
func (r LapRecording) MaxDistance() float64 {
	if len(r.Samples) == 0 {
		return 0
	}
	return r.Samples[len(r.Samples)-1].Distance
}

// LapEntry is the session-level metadata of one lap file.
type LapEntry struct {
	LapIndex  int
	LapTimeMs int64
	Path      string
	Label     string
	Valid     bool
}

// SessionIndex lists every lap file known to a session, in lap order.
type SessionIndex []LapEntry

// Fastest returns the valid entry with the lowest lap time. Ties go to the first entry.
func (s SessionIndex) Fastest() (LapEntry, bool) {
	best := -1
	for i, e := range s {
		if !e.Valid {
			continue
		}
		if best == -1 || e.LapTimeMs < s[best].LapTimeMs {
			best = i
		}
	}
	if best == -1 {
		return LapEntry{}, false
	}
	return s[best], true
}

// ByLapIndex finds the entry for a lap index.
func (s SessionIndex) ByLapIndex(idx int) (LapEntry, bool) {
	for _, e := range s {
		if e.LapIndex == idx {
			return e, true
		}
	}
	return LapEntry{}, false
}

// ByPath finds the entry for a lap file. Files are the identity of a lap; two files may
// carry the same lap index.
func (s SessionIndex) ByPath(path string) (LapEntry, bool) {
	for _, e := range s {
		if e.Path == path {
			return e, true
		}
	}
	return LapEntry{}, false
}

// DistanceGrid is an evenly spaced, ascending set of lap distances.
type DistanceGrid []float64

// GridPoint is one resampled value: the grid cell a sample mapped to and the sample's lap time.
type GridPoint struct {
	Index    int
	Distance float64
	TimeMs   int64
}

// DeltaCurve is the time difference of a lap against the reference lap along the grid.
type DeltaCurve struct {
	LapIndex  int
	Path      string
	Label     string
	Distances []float64
	DeltaMs   []int64
}

// Len is the number of points on the curve.
func (c DeltaCurve) Len() int {
	return len(c.Distances)
}

// DeltaSet is the output of one delta computation.
type DeltaSet struct {
	Reference LapEntry
	Grid      DistanceGrid
	Curves    []DeltaCurve
}

// Series is a plottable x/y line.
type Series struct {
	Label   string
	Channel string
	X       []float64
	Y       []float64
}

type Trackpoint struct {
	S     float64
	X     float64
	Y     float64
	Theta float64
}

// HighlightPoint is the point of a series closest to a shared distance.
type HighlightPoint struct {
	Series int
	Index  int
	X      float64
	Y      float64
}
