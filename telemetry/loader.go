package telemetry

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetry/models"
)

var log = logrus.WithField("component", "telemetry")

var lapFileRe = regexp.MustCompile(`lap_(\d+)_data`)

// ParseLapIndex reads the lap number from a lap_<n>_data file name. Returns 0 when absent.
func ParseLapIndex(path string) int {
	m := lapFileRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return idx
}

// lapFile mirrors the top level of a recorded lap.
type lapFile struct {
	LapTime    *float64                   `json:"laptime"`
	DataPoints map[string]json.RawMessage `json:"dataPoints"`
}

type rawSample struct {
	distance float64
	timeMs   int64
	groups   map[string]json.RawMessage
}

func readLapFile(path string) (lapFile, error) {
	var lf lapFile
	data, err := os.ReadFile(path)
	if err != nil {
		return lf, errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, &lf); err != nil {
		return lf, malformed(path, errors.Wrap(err, "decode lap file"))
	}
	if lf.LapTime == nil {
		return lf, malformed(path, errors.New("missing laptime"))
	}
	if lf.DataPoints == nil {
		return lf, malformed(path, errors.New("missing dataPoints"))
	}
	return lf, nil
}

// LoadFile parses one lap file into a recording. Samples with a negative distance are
// dropped and the remainder is ordered by distance.
func LoadFile(path string) (models.LapRecording, error) {
	rec := models.LapRecording{
		LapIndex: ParseLapIndex(path),
		Path:     path,
		Channels: make(map[string][]float64),
	}

	lf, err := readLapFile(path)
	if err != nil {
		return rec, err
	}
	rec.LapTimeMs = int64(math.Round(*lf.LapTime))

	points, ok := lf.DataPoints[strconv.Itoa(rec.LapIndex)]
	if !ok && len(lf.DataPoints) == 1 {
		for _, only := range lf.DataPoints {
			points = only
		}
		ok = true
	}
	if !ok {
		log.WithField("path", path).Warnf("no samples recorded for lap %d", rec.LapIndex)
		return rec, nil
	}

	var rawPoints []json.RawMessage
	if err := json.Unmarshal(points, &rawPoints); err != nil {
		return rec, malformed(path, errors.Wrap(err, "decode dataPoints"))
	}

	samples := make([]rawSample, 0, len(rawPoints))
	for i, rp := range rawPoints {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rp, &fields); err != nil {
			return rec, malformed(path, errors.Wrapf(err, "sample %d", i))
		}
		distRaw, ok := fields["LapDistance"]
		if !ok {
			continue
		}
		var dist float64
		if err := json.Unmarshal(distRaw, &dist); err != nil {
			return rec, malformed(path, errors.Wrapf(err, "sample %d LapDistance", i))
		}
		if dist < 0 {
			continue
		}
		var t float64
		if tr, ok := fields["LapTime"]; ok {
			if err := json.Unmarshal(tr, &t); err != nil {
				return rec, malformed(path, errors.Wrapf(err, "sample %d LapTime", i))
			}
		}
		samples = append(samples, rawSample{distance: dist, timeMs: int64(math.Round(t)), groups: fields})
	}

	sort.SliceStable(samples, func(a, b int) bool {
		return samples[a].distance < samples[b].distance
	})

	if err := fillChannels(&rec, samples); err != nil {
		return rec, malformed(path, err)
	}
	return rec, nil
}

func fillChannels(rec *models.LapRecording, samples []rawSample) error {
	rec.Samples = make([]models.Sample, len(samples))
	for i, s := range samples {
		rec.Samples[i] = models.Sample{Distance: s.distance, TimeMs: s.timeMs}
	}

	taken := make(map[string]bool)
	for _, group := range Groups {
		decoded := make([]map[string]interface{}, len(samples))
		var table models.ChannelTable
		found := false
		for i, s := range samples {
			raw, ok := s.groups[group]
			if !ok || string(raw) == "null" {
				continue
			}
			keys, vals, err := decodeObject(raw)
			if err != nil {
				return errors.Wrapf(err, "%s of sample at %.1fm", group, s.distance)
			}
			decoded[i] = vals
			if !found {
				table = discoverSchema(group, keys, vals, taken)
				found = true
			}
		}

		for _, spec := range table {
			for _, vals := range decoded {
				extract(spec, vals, rec.Channels)
			}
		}
		rec.Schema = append(rec.Schema, table...)
	}
	return nil
}

// Load parses every path, in order. A file that fails to parse yields a placeholder recording
// with Err set, so one bad lap does not abort the session.
func Load(paths []string) []models.LapRecording {
	out := make([]models.LapRecording, 0, len(paths))
	for _, p := range paths {
		rec, err := LoadFile(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("lap recording skipped")
			rec.Err = err
			rec.Samples = nil
			rec.Channels = nil
		}
		out = append(out, rec)
	}
	return out
}
