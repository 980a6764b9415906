package router

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lastiler/featureflag"
	"github.com/aukilabs/lastiler/fsutil"
	"github.com/aukilabs/lastiler/grid"
	"github.com/aukilabs/lastiler/pointcloud"
	"github.com/aukilabs/lastiler/splitter"
)

// Router places input files into the output tiles.
//
// A Router is shared by all the workers of a run and is never modified after
// creation.
type Router struct {
	Grid *grid.TileGrid

	// The root directory of the tile directories.
	OutputDir string

	// The directory where files are split before their fragments are moved
	// into tiles.
	ScratchDir string

	Inspector    pointcloud.Inspector
	Splitter     splitter.Splitter
	FeatureFlags featureflag.FeatureFlag
}

// Handle routes a file and performs the resulting action: contained files
// are copied into their tile, overlapping files are split and unassigned files
// are skipped. It returns the routing outcome and the number of files added
// to the output tiles.
func (r *Router) Handle(ctx context.Context, workerID int, file pointcloud.FileInfo) (Outcome, int, error) {
	outcome := Route(file, r.Grid.Tiles)

	switch outcome.Kind {
	case DirectCopy:
		logs.WithTag("worker_id", workerID).
			WithTag("file", file.Path).
			WithTag("tile", outcome.Tile.Name).
			Debug("copying file into tile")

		if err := r.copy(file, outcome.Tile); err != nil {
			return outcome, 0, err
		}
		instrumentFileCopied(outcome.Tile.Name)
		return outcome, 1, nil

	case NeedsSplit:
		logs.WithTag("worker_id", workerID).
			WithTag("file", file.Path).
			WithTag("overlapped_tiles", len(outcome.Overlaps)).
			Debug("splitting file")

		var moved int
		err := instrumentSplit(func() error {
			var err error
			moved, err = r.Split(ctx, workerID, file)
			return err
		})
		return outcome, moved, err

	default:
		logs.Warn(errors.New("file is outside of the tile grid").
			WithTag("file", file.Path).
			WithTag("bounds", file.Bounds.String()).
			WithTag("grid", r.Grid.Origin.String()))
		return outcome, 0, nil
	}
}

func (r *Router) copy(file pointcloud.FileInfo, t grid.Tile) error {
	_, err := fsutil.CopyToDir(file.Path, grid.TileDir(r.OutputDir, t))
	return err
}

// Split cuts a file along the whole tile grid with the splitter and moves
// every produced fragment into the tile that holds the centroid of the
// fragment bounding box. It returns the number of moved fragments.
//
// The fragments are written in a scratch directory private to the worker and
// the file. The directory is removed once every fragment is moved.
func (r *Router) Split(ctx context.Context, workerID int, file pointcloud.FileInfo) (int, error) {
	scratch := filepath.Join(r.ScratchDir, strconv.Itoa(workerID), sourceID(file.Path))
	if err := fsutil.MkdirAll(scratch); err != nil {
		return 0, err
	}

	err := r.Splitter.Split(ctx, splitter.Request{
		Input:     file.Path,
		OutputDir: scratch,
		NumX:      r.Grid.AxisCount,
		NumY:      r.Grid.AxisCount,
		Bounds:    r.Grid.Origin,
	})
	if err != nil {
		return 0, errors.New("splitting file failed").
			WithType(splitter.ErrTypeSplitTool).
			WithTag("file", file.Path).
			WithTag("worker_id", workerID).
			Wrap(err)
	}

	fragments, err := fsutil.ListFiles(scratch)
	if err != nil {
		return 0, err
	}

	var moved int
	var failed []error
	for _, f := range fragments {
		if err := r.moveFragment(file, f); err != nil {
			failed = append(failed, err)
			continue
		}
		moved++
	}

	if len(failed) != 0 {
		return moved, errors.New("moving fragments failed").
			WithType(errors.Type(failed[0])).
			WithTag("file", file.Path).
			WithTag("failed_fragments", len(failed)).
			WithTag("scratch", scratch).
			Wrap(failed[0])
	}

	r.FeatureFlags.IfNotSet(featureflag.FlagKeepScratch, func() {
		if err := os.RemoveAll(scratch); err != nil {
			logs.Warn(errors.New("removing scratch directory failed").
				WithTag("scratch", scratch).
				Wrap(err))
		}
	})

	logs.WithTag("worker_id", workerID).
		WithTag("file", file.Path).
		WithTag("fragments", moved).
		Debug("file split")
	return moved, nil
}

func (r *Router) moveFragment(file pointcloud.FileInfo, fragment string) error {
	info, err := r.Inspector.InspectFile(fragment)
	if err != nil {
		return err
	}

	t := r.Grid.TileOf(info.Bounds)

	name := filepath.Base(fragment)
	r.FeatureFlags.IfNotSet(featureflag.FlagDisableFragmentNamespace, func() {
		name = sourceID(file.Path) + "__" + name
	})

	dst := filepath.Join(grid.TileDir(r.OutputDir, t), name)
	if err := fsutil.MoveFile(fragment, dst); err != nil {
		return err
	}

	instrumentFragmentMoved(t.Name)
	return nil
}

// sourceID returns the identifier of an input file. Input files come from a
// single folder so their base names are unique.
func sourceID(path string) string {
	return filepath.Base(path)
}
