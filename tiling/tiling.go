// Package tiling spatially partitions a folder of point cloud files into a
// uniform grid of tiles that matches the deepest level of a quadtree.
package tiling

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lastiler/dispatch"
	"github.com/aukilabs/lastiler/featureflag"
	"github.com/aukilabs/lastiler/fsutil"
	"github.com/aukilabs/lastiler/geometry"
	"github.com/aukilabs/lastiler/grid"
	"github.com/aukilabs/lastiler/pointcloud"
	"github.com/aukilabs/lastiler/router"
	"github.com/aukilabs/lastiler/splitter"
	"github.com/aukilabs/lastiler/verify"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

type Options struct {
	// A folder of LAS/LAZ files, or a single file.
	InputDir string

	// The folder where tile directories are created. It must not exist or be
	// empty.
	OutputDir string

	// The folder where overlapping files are split.
	TempDir string

	// The number of tiles. Its square root must be an even integer.
	Tiles int

	// The number of workers. Defaults to 1.
	Workers int

	Inspector    pointcloud.Inspector
	Splitter     splitter.Splitter
	FeatureFlags featureflag.FeatureFlag

	// Identifies the run in logs and scratch directories. Generated when
	// empty.
	RunID string
}

// Report describes a completed run.
type Report struct {
	RunID        string          `json:"run_id"`
	Input        string          `json:"input"`
	Output       string          `json:"output"`
	Extent       geometry.Extent `json:"extent"`
	AxisCount    int             `json:"axis_count"`
	Workers      int             `json:"workers"`
	InvalidFiles []string        `json:"invalid_files,omitempty"`
	Stats        dispatch.Stats  `json:"stats"`
	Summary      *verify.Summary `json:"summary,omitempty"`
	Duration     time.Duration   `json:"duration"`
}

// Run partitions the input files into tiles.
//
// Configuration errors abort the run before any file is written. Errors that
// concern a single file are logged and reported in Report.Stats and never
// stop the run.
func Run(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Inspector == nil {
		opts.Inspector = pointcloud.LASInspector{}
	}
	if opts.Splitter == nil {
		opts.Splitter = splitter.PDAL{}
	}

	report := Report{
		RunID:  opts.RunID,
		Input:  opts.InputDir,
		Output: opts.OutputDir,
	}

	if err := Preflight(opts); err != nil {
		return report, err
	}

	if opts.Workers == 0 {
		opts.Workers = 1
	}
	report.Workers = opts.Workers

	input, err := opts.Inspector.InspectFolder(opts.InputDir)
	if err != nil {
		return report, err
	}

	for _, f := range input.Invalid {
		report.InvalidFiles = append(report.InvalidFiles, f.Path)
		logs.Warn(errors.New("skipping input file").
			WithTag("file", f.Path).
			Wrap(f.Err))
	}

	if len(input.Files) == 0 {
		return report, errors.New("no point cloud file to tile").
			WithType(grid.ErrTypeConfig).
			WithTag("input", opts.InputDir)
	}

	logs.WithTag("run_id", opts.RunID).
		WithTag("input", opts.InputDir).
		WithTag("files", len(input.Files)).
		WithTag("points", input.PointCount).
		WithTag("extent", input.Bounds.String()).
		Info("input inspected")

	g, err := grid.Build(input.Bounds, opts.Tiles)
	if err != nil {
		return report, err
	}
	report.Extent = g.Origin
	report.AxisCount = g.AxisCount

	for _, dir := range []string{opts.OutputDir, opts.TempDir} {
		if err := fsutil.MkdirAll(dir); err != nil {
			return report, err
		}
	}

	if err := g.CreateTileDirs(opts.OutputDir); err != nil {
		return report, err
	}

	scratch := filepath.Join(opts.TempDir, opts.RunID)
	r := &router.Router{
		Grid:         g,
		OutputDir:    opts.OutputDir,
		ScratchDir:   scratch,
		Inspector:    opts.Inspector,
		Splitter:     opts.Splitter,
		FeatureFlags: opts.FeatureFlags,
	}

	c := dispatch.Coordinator{
		Workers: opts.Workers,
		Handler: r,
	}
	results := c.Run(ctx, input.Files)
	report.Stats = dispatch.Tally(results)

	opts.FeatureFlags.IfSet(featureflag.FlagKeepScratch, func() {
		logs.WithTag("scratch", scratch).Info("keeping scratch directory")
	})

	if report.Stats.Failed == 0 && !opts.FeatureFlags.IsSet(featureflag.FlagKeepScratch) {
		if err := os.RemoveAll(scratch); err != nil {
			logs.Warn(errors.New("removing scratch directory failed").
				WithTag("scratch", scratch).
				Wrap(err))
		}
	}

	if !opts.FeatureFlags.IsSet(featureflag.FlagDisableVerification) {
		v := verify.Verifier{
			Inspector: opts.Inspector,
			Workers:   opts.Workers,
		}

		// Routed files are committed to the tiles, so they are counted even
		// when the run is cancelled.
		summary, err := v.Verify(context.WithoutCancel(ctx), g, opts.OutputDir, input)
		if err != nil {
			return report, err
		}
		report.Summary = &summary
	}

	report.Duration = time.Since(start)

	logs.WithTag("run_id", opts.RunID).
		WithTag("direct_copies", report.Stats.DirectCopies).
		WithTag("splits", report.Stats.Splits).
		WithTag("unassigned", report.Stats.Unassigned).
		WithTag("failed", report.Stats.Failed).
		WithTag("duration", report.Duration.String()).
		Info("tiling finished")

	return report, nil
}

// Preflight checks the options before anything is written.
func Preflight(opts Options) error {
	if _, err := grid.AxisCount(opts.Tiles); err != nil {
		return err
	}

	if opts.Workers < 0 {
		return errors.New("number of workers can't be negative").
			WithType(grid.ErrTypeConfig).
			WithTag("workers", opts.Workers)
	}

	if _, err := os.Stat(opts.InputDir); err != nil {
		return errors.New("input folder does not exist").
			WithType(grid.ErrTypeConfig).
			WithTag("input", opts.InputDir).
			Wrap(err)
	}

	if opts.OutputDir == "" || opts.TempDir == "" {
		return errors.New("output and temporary folders are required").
			WithType(grid.ErrTypeConfig)
	}

	info, err := os.Stat(opts.OutputDir)
	switch {
	case os.IsNotExist(err):
		return nil

	case err != nil:
		return errors.New("reading output folder failed").
			WithType(grid.ErrTypeConfig).
			WithTag("output", opts.OutputDir).
			Wrap(err)

	case !info.IsDir():
		return errors.New("there is a file with the same name as the output folder").
			WithType(grid.ErrTypeConfig).
			WithTag("output", opts.OutputDir)
	}

	empty, err := fsutil.IsEmptyDir(opts.OutputDir)
	if err != nil {
		return errors.New("reading output folder failed").
			WithType(grid.ErrTypeConfig).
			WithTag("output", opts.OutputDir).
			Wrap(err)
	}
	if !empty {
		return errors.New("output folder exists and is not empty").
			WithType(grid.ErrTypeConfig).
			WithTag("output", opts.OutputDir)
	}
	return nil
}

// WriteReport writes the report as indented JSON.
func WriteReport(path string, r Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.New("encoding report failed").Wrap(err)
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.New("writing report failed").
			WithType(fsutil.ErrTypeFS).
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
