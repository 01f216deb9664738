package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetry/config"
)

func main() {
	var (
		filePaths multiFlag
		channels  multiFlag
		laps      lapFlag
	)
	flag.Var(&filePaths, "file", "Path to a lap_<n>_data.json file (repeatable); overrides -dir")
	flag.Var(&laps, "lap", "Lap number to plot (repeatable); default is every valid lap")
	flag.Var(&channels, "channel", "Channel to plot, or Delta for the time delta (repeatable)")
	dir := flag.String("dir", "", "Session directory holding the lap JSON files")
	configPath := flag.String("config", "", "YAML config file; flags override its values")
	combine := flag.Bool("combine", false, "Draw every channel in one plot instead of one plot per channel")
	gridPoints := flag.Int("grid-points", 0, "Points on the distance grid used for deltas")
	pairing := flag.String("pairing", "", "Delta pairing: grid (by grid cell) or emission (positional)")
	sectors := flag.Int("sectors", -1, "Equal-distance sectors per lap in the summary table (0 disables)")
	smooth := flag.Int("smooth", -1, "Moving-average window applied to delta curves (0 disables)")
	highlight := flag.Float64("highlight", -1, "Mark every plot at this lap distance in metres")
	pngPath := flag.String("png", "", "Write a PNG dashboard to this path")
	htmlPath := flag.String("html", "", "Write an interactive HTML dashboard to this path")
	dbPath := flag.String("db", "", "SQLite database recording every run")
	list := flag.Bool("list", false, "List recent runs from -db and exit")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logrus.WithError(err).Fatalf("Could not read config at %s", *configPath)
		}
		cfg = loaded
	}

	// only flags given on the command line override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.DataDir = *dir
		case "lap":
			cfg.Laps = laps
		case "channel":
			cfg.Channels = channels
		case "combine":
			cfg.Combine = *combine
		case "grid-points":
			cfg.GridPoints = *gridPoints
		case "pairing":
			cfg.Pairing = *pairing
		case "sectors":
			cfg.Sectors = *sectors
		case "smooth":
			cfg.SmoothWindow = *smooth
		case "png":
			cfg.PNGPath = *pngPath
		case "html":
			cfg.HTMLPath = *htmlPath
		case "db":
			cfg.HistoryDB = *dbPath
		}
	})
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid options")
	}

	ctx := context.Background()

	if *list {
		if err := listRuns(ctx, cfg.HistoryDB, os.Stdout); err != nil {
			logrus.WithError(err).Fatal("Could not list runs")
		}
		return
	}

	opts := runOptions{
		Files:        filePaths,
		HasHighlight: *highlight >= 0,
		Highlight:    *highlight,
	}
	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		logrus.WithError(err).Fatal("Plotting failed")
	}
}

type multiFlag []string

func (m *multiFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type lapFlag []int

func (l *lapFlag) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Set accepts a single lap or a comma separated list.
func (l *lapFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return errors.Errorf("invalid lap number %q", part)
		}
		*l = append(*l, n)
	}
	return nil
}
