package splitter

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lastiler/geometry"
	"github.com/aukilabs/lastiler/pointcloud"
)

// Simulated is a Splitter for tests. It only reads the header of the input
// file and spreads its points across the grid cells it overlaps,
// proportionally to the overlapped area. Fragments are LAS files whose
// header bounds are the overlapped part of the cell.
type Simulated struct {
	// When set, Split fails for inputs whose base name is listed.
	Fail []string

	calls atomic.Int64
}

// Calls returns the number of Split invocations.
func (s *Simulated) Calls() int {
	return int(s.calls.Load())
}

func (s *Simulated) Split(ctx context.Context, req Request) error {
	s.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return errors.New("split canceled").
			WithType(ErrTypeSplitTool).
			Wrap(err)
	}

	for _, f := range s.Fail {
		if f == filepath.Base(req.Input) {
			return errors.New("simulated split failure").
				WithType(ErrTypeSplitTool).
				WithTag("input", req.Input)
		}
	}

	info, err := pointcloud.LASInspector{}.InspectFile(req.Input)
	if err != nil {
		return err
	}

	type piece struct {
		bounds geometry.Extent
		area   float64
		points uint64
	}

	var pieces []piece
	var totalArea float64
	sizeX := req.Bounds.Width() / float64(req.NumX)
	sizeY := req.Bounds.Height() / float64(req.NumY)

	for gx := 0; gx < req.NumX; gx++ {
		for gy := 0; gy < req.NumY; gy++ {
			cell := geometry.Extent{
				MinX: req.Bounds.MinX + float64(gx)*sizeX,
				MinY: req.Bounds.MinY + float64(gy)*sizeY,
				MaxX: req.Bounds.MinX + float64(gx+1)*sizeX,
				MaxY: req.Bounds.MinY + float64(gy+1)*sizeY,
			}

			overlap := geometry.Extent{
				MinX: math.Max(cell.MinX, info.Bounds.MinX),
				MinY: math.Max(cell.MinY, info.Bounds.MinY),
				MaxX: math.Min(cell.MaxX, info.Bounds.MaxX),
				MaxY: math.Min(cell.MaxY, info.Bounds.MaxY),
			}
			if !overlap.Valid() {
				continue
			}

			area := overlap.Width() * overlap.Height()
			pieces = append(pieces, piece{bounds: overlap, area: area})
			totalArea += area
		}
	}

	if len(pieces) == 0 {
		pieces = append(pieces, piece{bounds: info.Bounds, area: 1})
		totalArea = 1
	}

	var assigned uint64
	for i := range pieces {
		pieces[i].points = uint64(float64(info.PointCount) * pieces[i].area / totalArea)
		assigned += pieces[i].points
	}
	for i := 0; assigned < info.PointCount; i = (i + 1) % len(pieces) {
		pieces[i].points++
		assigned++
	}

	stem := strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input))
	for i, p := range pieces {
		if p.points == 0 {
			continue
		}

		fragment := info
		fragment.PointCount = p.points
		fragment.Bounds = p.bounds

		path := filepath.Join(req.OutputDir, fmt.Sprintf("%s_%d.las", stem, i))
		if err := pointcloud.WriteTestFile(path, fragment, 2); err != nil {
			return errors.New("writing fragment failed").
				WithType(ErrTypeSplitTool).
				WithTag("fragment", path).
				Wrap(err)
		}
	}

	return nil
}
