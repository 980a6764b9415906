package tiling

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lastiler/featureflag"
	"github.com/aukilabs/lastiler/geometry"
	"github.com/aukilabs/lastiler/grid"
	"github.com/aukilabs/lastiler/pointcloud"
	"github.com/aukilabs/lastiler/splitter"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

type testInput struct {
	name   string
	points uint64
	bounds geometry.Extent
}

// Four files over a [0, 10] x [0, 10] extent. With 4 tiles, c.las straddles
// tile_0_1 and tile_1_1 while the others are fully inside a tile.
var testInputs = []testInput{
	{name: "a.las", points: 100, bounds: geometry.Extent{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4}},
	{name: "b.las", points: 50, bounds: geometry.Extent{MinX: 6, MinY: 6, MaxX: 10, MaxY: 10}},
	{name: "c.las", points: 75, bounds: geometry.Extent{MinX: 3, MinY: 6, MaxX: 7, MaxY: 9}},
	{name: "d.laz", points: 25, bounds: geometry.Extent{MinX: 6, MinY: 0, MaxX: 10, MaxY: 4}},
}

func newTestOptions(t *testing.T, inputs []testInput) (Options, *splitter.Simulated) {
	root := t.TempDir()
	inputDir := filepath.Join(root, "in")
	require.NoError(t, os.Mkdir(inputDir, 0o755))

	for _, in := range inputs {
		err := pointcloud.WriteTestFile(filepath.Join(inputDir, in.name), pointcloud.FileInfo{
			PointCount: in.points,
			Bounds:     in.bounds,
			ScaleX:     0.01,
			ScaleY:     0.01,
			ScaleZ:     0.01,
		}, 2)
		require.NoError(t, err)
	}

	s := &splitter.Simulated{}
	return Options{
		InputDir:  inputDir,
		OutputDir: filepath.Join(root, "out"),
		TempDir:   filepath.Join(root, "tmp"),
		Tiles:     4,
		Workers:   2,
		Splitter:  s,
		RunID:     "test-run",
	}, s
}

func TestRun(t *testing.T) {
	opts, s := newTestOptions(t, testInputs)

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, s.Calls())

	require.Equal(t, geometry.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, report.Extent)
	require.Equal(t, 2, report.AxisCount)
	require.Equal(t, 2, report.Workers)
	require.Equal(t, 3, report.Stats.DirectCopies)
	require.Equal(t, 1, report.Stats.Splits)
	require.Zero(t, report.Stats.Failed)
	require.Zero(t, report.Stats.Unassigned)

	require.NotNil(t, report.Summary)
	require.True(t, report.Summary.Match)
	require.Equal(t, uint64(250), report.Summary.InputPoints)
	require.Equal(t, uint64(250), report.Summary.OutputPoints)
	require.Equal(t, 4, report.Summary.InputFiles)
	require.GreaterOrEqual(t, report.Summary.OutputFiles, 4)

	var sum uint64
	for _, tile := range report.Summary.Tiles {
		sum += tile.Points
	}
	require.Equal(t, uint64(250), sum)

	require.FileExists(t, filepath.Join(opts.OutputDir, "tile_0_0", "a.las"))
	require.FileExists(t, filepath.Join(opts.OutputDir, "tile_1_1", "b.las"))
	require.FileExists(t, filepath.Join(opts.OutputDir, "tile_1_0", "d.laz"))
	require.NoDirExists(t, filepath.Join(opts.TempDir, "test-run"))
}

func TestRunSingleWorker(t *testing.T) {
	opts, _ := newTestOptions(t, testInputs)
	opts.Workers = 0

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, report.Workers)
	require.True(t, report.Summary.Match)
}

func TestRunSplitFailure(t *testing.T) {
	opts, s := newTestOptions(t, testInputs)
	s.Fail = []string{"c.las"}

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, report.Stats.Failed)
	require.False(t, report.Summary.Match)
	require.Equal(t, uint64(175), report.Summary.OutputPoints)
	require.DirExists(t, filepath.Join(opts.TempDir, "test-run"))
}

func TestRunCancelled(t *testing.T) {
	opts, _ := newTestOptions(t, testInputs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, 3, report.Stats.DirectCopies)
	require.Equal(t, 1, report.Stats.Failed)

	require.NotNil(t, report.Summary)
	require.False(t, report.Summary.Match)
	require.Equal(t, uint64(250), report.Summary.InputPoints)
	require.Equal(t, uint64(175), report.Summary.OutputPoints)
	require.Equal(t, 3, report.Summary.OutputFiles)
}

func TestRunInvalidInputFile(t *testing.T) {
	opts, _ := newTestOptions(t, testInputs)
	broken := filepath.Join(opts.InputDir, "broken.las")
	require.NoError(t, os.WriteFile(broken, []byte("junk"), 0o644))

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, []string{broken}, report.InvalidFiles)
	require.True(t, report.Summary.Match)
}

func TestRunWithoutVerification(t *testing.T) {
	opts, _ := newTestOptions(t, testInputs)
	opts.FeatureFlags = featureflag.New([]string{string(featureflag.FlagDisableVerification)})

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Nil(t, report.Summary)
}

func TestRunZeroAreaExtent(t *testing.T) {
	opts, _ := newTestOptions(t, []testInput{
		{name: "point.las", points: 1, bounds: geometry.Extent{MinX: 5, MinY: 5, MaxX: 5, MaxY: 5}},
	})

	_, err := Run(context.Background(), opts)
	require.True(t, errors.IsType(err, grid.ErrTypeConfig))
	require.NoDirExists(t, opts.OutputDir)
	require.NoDirExists(t, opts.TempDir)
}

func TestRunEmptyInput(t *testing.T) {
	opts, _ := newTestOptions(t, nil)

	_, err := Run(context.Background(), opts)
	require.True(t, errors.IsType(err, grid.ErrTypeConfig))
	require.NoDirExists(t, opts.OutputDir)
}

func TestPreflight(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		opts, _ := newTestOptions(t, testInputs)
		require.NoError(t, Preflight(opts))
	})

	t.Run("bad tile count fails before any write", func(t *testing.T) {
		opts, _ := newTestOptions(t, testInputs)
		opts.Tiles = 9

		_, err := Run(context.Background(), opts)
		require.True(t, errors.IsType(err, grid.ErrTypeConfig))
		require.NoDirExists(t, opts.OutputDir)
		require.NoDirExists(t, opts.TempDir)
	})

	t.Run("negative workers", func(t *testing.T) {
		opts, _ := newTestOptions(t, testInputs)
		opts.Workers = -1
		require.True(t, errors.IsType(Preflight(opts), grid.ErrTypeConfig))
	})

	t.Run("missing input", func(t *testing.T) {
		opts, _ := newTestOptions(t, testInputs)
		opts.InputDir = filepath.Join(opts.InputDir, "missing")
		require.True(t, errors.IsType(Preflight(opts), grid.ErrTypeConfig))
	})

	t.Run("output is a file", func(t *testing.T) {
		opts, _ := newTestOptions(t, testInputs)
		require.NoError(t, os.WriteFile(opts.OutputDir, nil, 0o644))
		require.True(t, errors.IsType(Preflight(opts), grid.ErrTypeConfig))
	})

	t.Run("output is not empty", func(t *testing.T) {
		opts, _ := newTestOptions(t, testInputs)
		require.NoError(t, os.MkdirAll(filepath.Join(opts.OutputDir, "tile_0_0"), 0o755))
		require.True(t, errors.IsType(Preflight(opts), grid.ErrTypeConfig))
	})

	t.Run("output is empty", func(t *testing.T) {
		opts, _ := newTestOptions(t, testInputs)
		require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
		require.NoError(t, Preflight(opts))
	})
}

func TestWriteReport(t *testing.T) {
	opts, _ := newTestOptions(t, testInputs)
	report, err := Run(context.Background(), opts)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteReport(path, report))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "test-run", decoded["run_id"])
	require.Contains(t, decoded, "summary")
}
