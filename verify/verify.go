package verify

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lastiler/fsutil"
	"github.com/aukilabs/lastiler/grid"
	"github.com/aukilabs/lastiler/pointcloud"
	"golang.org/x/sync/errgroup"
)

// TileStats is the content of a tile output directory.
type TileStats struct {
	Name   string `json:"name"`
	Files  int    `json:"files"`
	Points uint64 `json:"points"`

	// Files of the tile that could not be inspected.
	Invalid int `json:"invalid,omitempty"`
}

// Summary compares the input of a run with what ended in the tiles.
type Summary struct {
	InputFiles   int         `json:"input_files"`
	InputPoints  uint64      `json:"input_points"`
	OutputFiles  int         `json:"output_files"`
	OutputPoints uint64      `json:"output_points"`
	Match        bool        `json:"match"`
	Tiles        []TileStats `json:"tiles"`
}

// Verifier checks that tiling conserved the number of points.
type Verifier struct {
	Inspector pointcloud.Inspector

	// The maximum number of tiles inspected concurrently. Defaults to 1.
	Workers int
}

// Verify inspects every tile directory and compares the total number of
// output points with the given input. A mismatch is logged as a warning and
// reported in the summary. Errors are only returned when a tile directory
// can't be read.
func (v Verifier) Verify(ctx context.Context, g *grid.TileGrid, outputDir string, input pointcloud.FolderInfo) (Summary, error) {
	tiles := make([]TileStats, len(g.Tiles))

	eg, ctx := errgroup.WithContext(ctx)
	limit := v.Workers
	if limit <= 0 {
		limit = 1
	}
	eg.SetLimit(limit)

	for i, t := range g.Tiles {
		i, t := i, t
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			folder, err := v.Inspector.InspectFolder(grid.TileDir(outputDir, t))
			if err != nil {
				return errors.New("inspecting tile failed").
					WithType(fsutil.ErrTypeFS).
					WithTag("tile", t.Name).
					Wrap(err)
			}

			for _, f := range folder.Invalid {
				logs.Warn(errors.New("output file can't be inspected").
					WithTag("tile", t.Name).
					WithTag("file", f.Path).
					Wrap(f.Err))
			}

			tiles[i] = TileStats{
				Name:    t.Name,
				Files:   len(folder.Files) + len(folder.Invalid),
				Points:  folder.PointCount,
				Invalid: len(folder.Invalid),
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return Summary{}, err
	}

	s := Summary{
		InputFiles:  len(input.Files),
		InputPoints: input.PointCount,
		Tiles:       tiles,
	}
	for _, t := range tiles {
		s.OutputFiles += t.Files
		s.OutputPoints += t.Points
	}
	s.Match = s.InputPoints == s.OutputPoints

	instrumentSummary(s)

	if !s.Match {
		logs.Warn(errors.New("number of output points differs from input").
			WithTag("input_points", s.InputPoints).
			WithTag("output_points", s.OutputPoints))
	} else {
		logs.WithTag("points", s.OutputPoints).
			Info("number of input points equals number of output points")
	}

	logs.WithTag("input_files", s.InputFiles).
		WithTag("output_files", s.OutputFiles).
		Info("files reconciliation")

	return s, nil
}
