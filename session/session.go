// Package session discovers the lap files of a recorded session and labels them for display.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetry/models"
	"f1telemetry/telemetry"
)

var log = logrus.WithField("component", "session")

// FormatLapTime renders milliseconds as m:ss:mmm.
func FormatLapTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%d:%02d:%03d", minutes, seconds, millis)
}

// Scan lists the *.json lap files in dir and indexes them.
func Scan(dir string) (models.SessionIndex, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", dir)
	}
	return Build(paths), nil
}

// Build indexes the given lap files ordered by lap number. Every file is fully parsed, samples
// included; files that fail stay in the index, marked invalid and labelled as such, so the
// listing matches what is on disk and a broken file can never become the reference.
func Build(paths []string) models.SessionIndex {
	sorted := append([]string(nil), paths...)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := telemetry.ParseLapIndex(sorted[i]), telemetry.ParseLapIndex(sorted[j])
		if li != lj {
			return li < lj
		}
		return sorted[i] < sorted[j]
	})

	idx := make(models.SessionIndex, 0, len(sorted))
	for _, p := range sorted {
		entry := models.LapEntry{LapIndex: telemetry.ParseLapIndex(p), Path: p}

		rec, err := telemetry.LoadFile(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("invalid lap file")
			entry.Label = fmt.Sprintf("Lap (%d): Invalid Format", len(idx)+1)
		} else {
			entry.LapTimeMs = rec.LapTimeMs
			entry.Valid = true
			entry.Label = fmt.Sprintf("Lap %d: %s", entry.LapIndex, FormatLapTime(rec.LapTimeMs))
		}

		if info, err := os.Stat(p); err == nil {
			log.WithField("size", humanize.Bytes(uint64(info.Size()))).Debugf("indexed %s", entry.Label)
		}
		idx = append(idx, entry)
	}
	return idx
}

// Select returns the entries for the requested lap numbers, in session order. An empty
// selection returns every valid entry.
func Select(idx models.SessionIndex, laps []int) models.SessionIndex {
	want := make(map[int]bool, len(laps))
	for _, l := range laps {
		want[l] = true
	}
	var out models.SessionIndex
	for _, e := range idx {
		if len(laps) == 0 {
			if e.Valid {
				out = append(out, e)
			}
			continue
		}
		if want[e.LapIndex] {
			out = append(out, e)
		}
	}
	return out
}

// Paths returns the file path of every entry.
func Paths(idx models.SessionIndex) []string {
	out := make([]string, len(idx))
	for i, e := range idx {
		out[i] = e.Path
	}
	return out
}

// Label returns the display label of the lap stored at path, falling back to its number.
func Label(idx models.SessionIndex, path string, lap int) string {
	if e, ok := idx.ByPath(path); ok {
		return e.Label
	}
	return fmt.Sprintf("Lap %d", lap)
}
