package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot/vg"

	"f1telemetry/config"
	"f1telemetry/models"
	"f1telemetry/render"
	"f1telemetry/session"
	"f1telemetry/store"
	"f1telemetry/telemetry"
	"f1telemetry/track"
)

type runOptions struct {
	Files        []string
	HasHighlight bool
	Highlight    float64
}

// result is everything one invocation computed, kept together for the summary table,
// the writers and the history database.
type result struct {
	index     models.SessionIndex
	laps      []models.LapRecording
	reference models.LapEntry
	hasRef    bool
	deltas    *models.DeltaSet
	metrics   []track.LapMetrics
	dashboard render.Dashboard
}

func run(ctx context.Context, cfg *config.Config, opts runOptions, out io.Writer) error {
	res, err := compute(cfg, opts)
	if err != nil {
		return err
	}

	printSummary(out, res)

	if cfg.PNGPath != "" {
		err := writeFile(cfg.PNGPath, func(w io.Writer) error {
			return render.WritePNG(w, res.dashboard, vg.Length(cfg.Width)*vg.Inch, vg.Length(cfg.Height)*vg.Inch)
		})
		if err != nil {
			return err
		}
	}
	if cfg.HTMLPath != "" {
		err := writeFile(cfg.HTMLPath, func(w io.Writer) error {
			return render.WriteHTML(w, res.dashboard)
		})
		if err != nil {
			return err
		}
	}

	if cfg.HistoryDB != "" && res.hasRef {
		if err := record(ctx, cfg, sessionDir(cfg, opts), res, out); err != nil {
			return err
		}
	}
	return nil
}

func compute(cfg *config.Config, opts runOptions) (*result, error) {
	var (
		index models.SessionIndex
		err   error
	)
	if len(opts.Files) > 0 {
		index = session.Build(opts.Files)
	} else {
		index, err = session.Scan(cfg.DataDir)
		if err != nil {
			return nil, err
		}
	}
	if len(index) == 0 {
		return nil, errors.Errorf("no lap files found in %s", cfg.DataDir)
	}

	selected := session.Select(index, cfg.Laps)
	if len(selected) == 0 {
		return nil, errors.Errorf("none of laps %v are in the session", cfg.Laps)
	}

	res := &result{index: index}
	for _, rec := range telemetry.Load(session.Paths(selected)) {
		if rec.Valid() {
			res.laps = append(res.laps, rec)
		}
	}
	res.reference, res.hasRef = index.Fastest()

	pairing, err := track.ParsePairing(cfg.Pairing)
	if err != nil {
		return nil, err
	}
	engine := &track.Engine{GridPoints: cfg.GridPoints, Pairing: pairing, Loader: telemetry.LoadFile}

	res.deltas, err = engine.ComputeDeltas(index, res.laps)
	if err != nil {
		if cfg.WantsDelta() {
			return nil, err
		}
		logrus.WithError(err).Warn("delta not computed")
	}

	byChannel := make(map[string][]models.Series)
	for _, ch := range cfg.Channels {
		if ch == models.DeltaChannel {
			byChannel[ch] = track.DeltaSeries(res.deltas, cfg.SmoothWindow)
			continue
		}
		for _, rec := range res.laps {
			s, ok := track.ChannelSeries(rec, ch, session.Label(index, rec.Path, rec.LapIndex))
			if !ok {
				logrus.WithFields(logrus.Fields{"channel": ch, "lap": rec.LapIndex}).Warn("channel not recorded")
				continue
			}
			byChannel[ch] = append(byChannel[ch], s)
		}
	}

	metricLaps := res.laps
	refRec, haveRefRec := referenceRecording(res)
	if haveRefRec && !containsLap(res.laps, refRec.Path) {
		metricLaps = append([]models.LapRecording{refRec}, res.laps...)
	}
	res.metrics = track.ComputeLapMetrics(metricLaps, cfg.Sectors)

	res.dashboard = render.Dashboard{
		Title:        filepath.Base(sessionDir(cfg, opts)),
		Panels:       render.BuildPanels(cfg.Channels, byChannel, cfg.Combine),
		HasHighlight: opts.HasHighlight,
		Highlight:    opts.Highlight,
	}
	if haveRefRec {
		res.dashboard.Track = track.CloseLoop(track.BuildTrackMap(refRec), track.LoopRadius)
		logrus.WithFields(logrus.Fields{
			"lap":    refRec.LapIndex,
			"points": len(res.dashboard.Track),
			"length": fmt.Sprintf("%.0fm", track.TrackLength(res.dashboard.Track)),
		}).Debug("track map built")
		res.dashboard.TrackLabel = res.reference.Label
	}
	return res, nil
}

// referenceRecording returns the fastest lap's samples, loading its file when it was not selected.
func referenceRecording(res *result) (models.LapRecording, bool) {
	if !res.hasRef {
		return models.LapRecording{}, false
	}
	for _, rec := range res.laps {
		if rec.Path == res.reference.Path {
			return rec, true
		}
	}
	rec, err := telemetry.LoadFile(res.reference.Path)
	if err != nil {
		logrus.WithError(err).WithField("path", res.reference.Path).Warn("reference lap unreadable")
		return models.LapRecording{}, false
	}
	return rec, true
}

func containsLap(laps []models.LapRecording, path string) bool {
	for _, l := range laps {
		if l.Path == path {
			return true
		}
	}
	return false
}

func sessionDir(cfg *config.Config, opts runOptions) string {
	dir := cfg.DataDir
	if len(opts.Files) > 0 {
		dir = filepath.Dir(opts.Files[0])
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}

	if info, err := os.Stat(path); err == nil {
		logrus.WithField("size", humanize.Bytes(uint64(info.Size()))).Infof("wrote %s", path)
	}
	return nil
}

func printSummary(out io.Writer, res *result) {
	bold := color.New(color.Bold)
	refColor := color.New(color.FgGreen, color.Bold)
	gain := color.New(color.FgGreen)
	loss := color.New(color.FgRed)

	if res.hasRef {
		bold.Fprintf(out, "Reference: %s\n", res.reference.Label)
	}

	summaries := summarize(res.deltas)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Lap\tTime\tFinal delta\tBest gain\tWorst loss\tSectors")
	for _, m := range res.metrics {
		label := fmt.Sprintf("%d", m.Lap)
		final, best, worst := "-", "-", "-"

		if res.isReference(m.Path) {
			label = refColor.Sprintf("%d*", m.Lap)
		} else if s, ok := summaries[m.Path]; ok && s.PointCount > 0 {
			final = signed(s.FinalMs, gain, loss)
			best = fmt.Sprintf("%s @ %.0fm", signed(s.MaxGainMs, gain, loss), s.GainAt)
			worst = fmt.Sprintf("%s @ %.0fm", signed(s.MaxLossMs, gain, loss), s.LossAt)
		}

		sectors := ""
		for i, st := range m.SectorTime {
			if i > 0 {
				sectors += " "
			}
			sectors += session.FormatLapTime(int64(st))
			if i < len(m.SectorDelta) && m.SectorDelta[i] > 0 {
				sectors += loss.Sprintf("(+%d)", int64(m.SectorDelta[i]))
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", label, session.FormatLapTime(m.LapTime), final, best, worst, sectors)
	}
	tw.Flush()
}

// summarize keys each curve's summary by lap file.
func summarize(deltas *models.DeltaSet) map[string]track.DeltaSummary {
	out := make(map[string]track.DeltaSummary)
	if deltas != nil {
		for _, c := range deltas.Curves {
			out[c.Path] = track.Summarize(c)
		}
	}
	return out
}

func (r *result) isReference(path string) bool {
	return r.hasRef && path == r.reference.Path
}

func signed(ms int64, gain, loss *color.Color) string {
	switch {
	case ms < 0:
		return gain.Sprintf("%+d ms", ms)
	case ms > 0:
		return loss.Sprintf("%+d ms", ms)
	}
	return "0 ms"
}

func record(ctx context.Context, cfg *config.Config, dir string, res *result, out io.Writer) error {
	history, err := store.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer history.Close()

	best, ok, err := history.BestLapTime(ctx, dir)
	if err != nil {
		return err
	}
	if ok && res.reference.LapTimeMs < best {
		color.New(color.FgGreen).Fprintf(out, "New best for %s: %s (was %s)\n",
			dir, session.FormatLapTime(res.reference.LapTimeMs), session.FormatLapTime(best))
	}

	id, err := history.RecordRun(ctx, buildRun(cfg, dir, res))
	if err != nil {
		return err
	}
	logrus.WithField("run", id).Debug("run recorded")
	return nil
}

func buildRun(cfg *config.Config, dir string, res *result) store.Run {
	run := store.Run{
		SessionDir:      dir,
		ReferenceLap:    res.reference.LapIndex,
		ReferencePath:   res.reference.Path,
		ReferenceTimeMs: res.reference.LapTimeMs,
		GridPoints:      cfg.GridPoints,
		Pairing:         cfg.Pairing,
	}
	if res.deltas != nil {
		run.GridPoints = len(res.deltas.Grid)
	}

	summaries := summarize(res.deltas)
	for _, m := range res.metrics {
		s := summaries[m.Path]
		run.Laps = append(run.Laps, store.LapResult{
			LapIndex:     m.Lap,
			Path:         m.Path,
			LapTimeMs:    m.LapTime,
			IsReference:  res.isReference(m.Path),
			FinalDeltaMs: s.FinalMs,
			MaxGainMs:    s.MaxGainMs,
			MaxLossMs:    s.MaxLossMs,
			SectorTimes:  m.SectorTime,
		})
	}
	return run
}

func listRuns(ctx context.Context, dbPath string, out io.Writer) error {
	if dbPath == "" {
		return errors.New("-list needs -db or history_db in the config")
	}
	history, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer history.Close()

	runs, err := history.Runs(ctx, 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "When\tSession\tReference\tLaps\tPairing\tRun")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\tLap %d: %s\t%d\t%s\t%s\n",
			humanize.Time(r.CreatedAt), r.SessionDir, r.ReferenceLap,
			session.FormatLapTime(r.ReferenceTimeMs), len(r.Laps), r.Pairing, r.ID)
	}
	return tw.Flush()
}
