package track

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetry/models"
)

var log = logrus.WithField("component", "track")

// ErrNoLapsAvailable is returned when a delta is requested with no valid lap to use as reference.
var ErrNoLapsAvailable = errors.New("no laps available")

// Pairing selects how a lap's resampled points are matched to the reference's.
type Pairing int

const (
	// PairByGrid matches points on the same grid cell and skips cells either lap never reached.
	PairByGrid Pairing = iota
	// PairByEmission matches the i-th emitted point of the lap with the i-th of the reference.
	// When the laps collapse samples at different rates the pairs drift apart.
	PairByEmission
)

func (p Pairing) String() string {
	switch p {
	case PairByGrid:
		return "grid"
	case PairByEmission:
		return "emission"
	default:
		return "unknown"
	}
}

// ParsePairing accepts "grid" or "emission".
func ParsePairing(s string) (Pairing, error) {
	switch s {
	case "", "grid":
		return PairByGrid, nil
	case "emission":
		return PairByEmission, nil
	}
	return PairByGrid, errors.Errorf("unknown pairing %q (want grid or emission)", s)
}

// Engine computes lap deltas against the fastest lap of a session.
type Engine struct {
	GridPoints int
	Pairing    Pairing
	// Loader reads the reference lap when it is not among the laps passed to ComputeDeltas.
	Loader func(path string) (models.LapRecording, error)
}

// ComputeDeltas picks the fastest valid lap of index as reference, aligns it on a distance
// grid and returns one curve per other valid lap, in the order given. Laps are matched to
// the reference by file path. A lap with no samples gets an empty curve.
func (e *Engine) ComputeDeltas(index models.SessionIndex, laps []models.LapRecording) (*models.DeltaSet, error) {
	refEntry, ok := index.Fastest()
	if !ok {
		return nil, ErrNoLapsAvailable
	}

	ref, err := e.reference(refEntry, laps)
	if err != nil {
		return nil, err
	}

	n := e.GridPoints
	if n <= 0 {
		n = DefaultGridPoints
	}

	set := &models.DeltaSet{Reference: refEntry}
	if len(ref.Samples) > 0 {
		set.Grid = BuildGrid(ref.MaxDistance(), n)
	}
	refPoints := Resample(ref.Samples, set.Grid)

	for _, lap := range laps {
		if !lap.Valid() || lap.Path == refEntry.Path {
			continue
		}
		curve := models.DeltaCurve{LapIndex: lap.LapIndex, Path: lap.Path}
		if entry, ok := index.ByPath(lap.Path); ok {
			curve.Label = entry.Label
		} else if entry, ok := index.ByLapIndex(lap.LapIndex); ok {
			curve.Label = entry.Label
		}
		curve.Distances, curve.DeltaMs = DeltaAgainst(refPoints, Resample(lap.Samples, set.Grid), len(set.Grid), e.Pairing)
		set.Curves = append(set.Curves, curve)
	}

	log.WithFields(logrus.Fields{
		"reference": refEntry.LapIndex,
		"grid":      len(set.Grid),
		"curves":    len(set.Curves),
		"pairing":   e.Pairing,
	}).Debug("deltas computed")

	return set, nil
}

func (e *Engine) reference(entry models.LapEntry, laps []models.LapRecording) (models.LapRecording, error) {
	for _, lap := range laps {
		if lap.Valid() && lap.Path == entry.Path {
			return lap, nil
		}
	}
	if e.Loader == nil {
		return models.LapRecording{}, errors.Errorf("reference lap %d not loaded", entry.LapIndex)
	}
	ref, err := e.Loader(entry.Path)
	if err != nil {
		return models.LapRecording{}, errors.Wrapf(err, "load reference lap %d", entry.LapIndex)
	}
	return ref, nil
}

// DeltaAgainst returns lap time minus reference time along the grid. gridLen is only used
// by PairByGrid. Comparing the reference with itself yields all zeros.
func DeltaAgainst(ref, lap []models.GridPoint, gridLen int, pairing Pairing) ([]float64, []int64) {
	var (
		dist  []float64
		delta []int64
	)

	switch pairing {
	case PairByEmission:
		for i, p := range lap {
			if i >= len(ref) {
				break
			}
			dist = append(dist, p.Distance)
			delta = append(delta, p.TimeMs-ref[i].TimeMs)
		}
	default:
		refTimes, has := gridTimes(ref, gridLen)
		for _, p := range lap {
			if p.Index < 0 || p.Index >= gridLen || !has[p.Index] {
				continue
			}
			dist = append(dist, p.Distance)
			delta = append(delta, p.TimeMs-refTimes[p.Index])
		}
	}
	return dist, delta
}
