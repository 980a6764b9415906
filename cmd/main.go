package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lastiler/featureflag"
	"github.com/aukilabs/lastiler/grid"
	tilerhttp "github.com/aukilabs/lastiler/http"
	"github.com/aukilabs/lastiler/pointcloud"
	"github.com/aukilabs/lastiler/splitter"
	"github.com/aukilabs/lastiler/tiling"
	"github.com/aukilabs/lastiler/verify"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/encoding/json"
)

var (
	// The lastiler version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "lastiler_info",
		Help:        "Lastiler information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Input        string   `cli:""        env:"LASTILER_INPUT"          help:"Input data folder (with LAS/LAZ files), or a single file."`
	Output       string   `cli:""        env:"LASTILER_OUTPUT"         help:"Output data folder for the different quadtree cells. Must not exist or be empty."`
	Temp         string   `cli:""        env:"LASTILER_TEMP"           help:"Temporary folder where overlapping files are split."`
	Tiles        int      `cli:""        env:"LASTILER_TILES"          help:"Number of tiles. Must be the square of an even number (4, 16, 64, 256, 1024, ...)."`
	Workers      int      `cli:""        env:"LASTILER_WORKERS"        help:"Number of parallel workers."`
	PDAL         string   `cli:""        env:"LASTILER_PDAL"           help:"The pdal executable used to split files."`
	LogLevel     string   `cli:""        env:"LASTILER_LOG_LEVEL"      help:"Log level (debug|info|warning|error)."`
	LogIndent    bool     `cli:""        env:"LASTILER_LOG_INDENT"     help:"Indent logs."`
	AdminAddr    string   `cli:""        env:"LASTILER_ADMIN_ADDR"     help:"Admin listening address exposing metrics during the run. Disabled when empty."`
	MetricsFile  string   `cli:""        env:"LASTILER_METRICS_FILE"   help:"File where metrics are written in the Prometheus text format at the end of the run."`
	ReportFile   string   `cli:""        env:"LASTILER_REPORT_FILE"    help:"File where the JSON run report is written."`
	FeatureFlags []string `cli:",hidden" env:"LASTILER_FEATURE_FLAGS"  help:"Comma separated feature flags."`
	Version      bool     `cli:""        env:"-"                       help:"Show version."`
	Help         bool     `cli:""        env:"-"                       help:"Show help."`
}

func main() {
	conf := config{
		Workers:  1,
		PDAL:     "pdal",
		LogLevel: logs.InfoLevel.String(),
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Distributes the points of LAS/LAZ files into XY tiles matching the deepest level of a quadtree.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	if conf.AdminAddr != "" {
		adminCtx, stopAdmin := context.WithCancel(ctx)
		defer stopAdmin()

		go tilerhttp.ListenAndServe(adminCtx, &http.Server{
			Addr:    conf.AdminAddr,
			Handler: tilerhttp.NewAdminHandler(version),
		})
	}

	runID := uuid.NewString()
	logs.WithTag("version", version).
		WithTag("run_id", runID).
		WithTag("input", conf.Input).
		WithTag("output", conf.Output).
		WithTag("temp", conf.Temp).
		WithTag("tiles", conf.Tiles).
		WithTag("workers", conf.Workers).
		WithTag("log_level", conf.LogLevel).
		Info("starting lastiler")

	report, err := tiling.Run(ctx, tiling.Options{
		InputDir:     conf.Input,
		OutputDir:    conf.Output,
		TempDir:      conf.Temp,
		Tiles:        conf.Tiles,
		Workers:      conf.Workers,
		Inspector:    pointcloud.LASInspector{},
		Splitter:     splitter.PDAL{Bin: conf.PDAL},
		FeatureFlags: featureflag.New(conf.FeatureFlags),
		RunID:        runID,
	})
	if err != nil {
		logs.Fatal(errors.New("tiling failed").
			WithTag("run_id", runID).
			Wrap(err))
	}

	if conf.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(conf.MetricsFile, prometheus.DefaultGatherer); err != nil {
			logs.Warn(errors.New("writing metrics file failed").
				WithTag("path", conf.MetricsFile).
				Wrap(err))
		}
	}

	if conf.ReportFile != "" {
		if err := tiling.WriteReport(conf.ReportFile, report); err != nil {
			logs.Warn(err)
		}
	}

	var summary verify.Summary
	if report.Summary != nil {
		summary = *report.Summary
	}

	logs.WithTag("run_id", runID).
		WithTag("duration", report.Duration.String()).
		WithTag("failed_files", report.Stats.Failed).
		WithTag("verified", report.Summary != nil).
		WithTag("input_points", summary.InputPoints).
		WithTag("output_points", summary.OutputPoints).
		WithTag("input_files", summary.InputFiles).
		WithTag("output_files", summary.OutputFiles).
		Info("finished")
}

func validateConfig(conf config) error {
	if conf.Input == "" {
		return errors.New("input folder is required").WithType(grid.ErrTypeConfig)
	}

	if conf.Output == "" {
		return errors.New("output folder is required").WithType(grid.ErrTypeConfig)
	}

	if conf.Temp == "" {
		return errors.New("temporary folder is required").WithType(grid.ErrTypeConfig)
	}

	if conf.Workers <= 0 {
		return errors.New("number of workers must be positive").
			WithType(grid.ErrTypeConfig).
			WithTag("workers", conf.Workers)
	}

	if _, err := grid.AxisCount(conf.Tiles); err != nil {
		return err
	}

	return nil
}
