package grid

import (
	"fmt"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lastiler/geometry"
)

// ErrTypeConfig is the error type of invalid tiling configurations. Those
// errors are fatal and always reported before any file is touched.
const ErrTypeConfig = "config_error"

// Uniform tile grid aligned with the deepest level of a quadtree.
//
// The grid covers the global extent of the input files with AxisCount x
// AxisCount tiles. AxisCount is the square root of the requested tile count
// and has to be even, which keeps the tiles addressable by a quadtree whose
// leaves are the tiles.

// Tile is one cell of the grid.
type Tile struct {
	Name   string          `json:"name"`
	GX     int             `json:"gx"`
	GY     int             `json:"gy"`
	Bounds geometry.Extent `json:"bounds"`
}

type TileGrid struct {
	AxisCount int
	TileSizeX float64
	TileSizeY float64
	Origin    geometry.Extent

	// Tiles ordered by GX then GY. The order is the scan order used when
	// routing files.
	Tiles []Tile
}

// TileName returns the name of the tile at the given grid coordinates.
func TileName(gx, gy int) string {
	return fmt.Sprintf("tile_%d_%d", gx, gy)
}

// AxisCount returns the number of tiles per axis for the requested tile count.
func AxisCount(requestedTileCount int) (int, error) {
	if requestedTileCount <= 0 {
		return 0, errors.New("number of tiles must be positive").
			WithType(ErrTypeConfig).
			WithTag("tiles", requestedTileCount)
	}

	root := math.Sqrt(float64(requestedTileCount))
	axisCount := int(math.Round(root))
	if axisCount*axisCount != requestedTileCount || axisCount%2 != 0 {
		return 0, errors.New("number of tiles must be the square of an even number").
			WithType(ErrTypeConfig).
			WithTag("tiles", requestedTileCount)
	}
	return axisCount, nil
}

// Build computes the tile grid that covers the given extent.
func Build(extent geometry.Extent, requestedTileCount int) (*TileGrid, error) {
	axisCount, err := AxisCount(requestedTileCount)
	if err != nil {
		return nil, err
	}

	if !extent.Valid() {
		return nil, errors.New("extent has no area").
			WithType(ErrTypeConfig).
			WithTag("extent", extent.String())
	}

	g := &TileGrid{
		AxisCount: axisCount,
		TileSizeX: extent.Width() / float64(axisCount),
		TileSizeY: extent.Height() / float64(axisCount),
		Origin:    extent,
		Tiles:     make([]Tile, 0, axisCount*axisCount),
	}

	for gx := 0; gx < axisCount; gx++ {
		for gy := 0; gy < axisCount; gy++ {
			g.Tiles = append(g.Tiles, Tile{
				Name: TileName(gx, gy),
				GX:   gx,
				GY:   gy,
				Bounds: geometry.Extent{
					MinX: edge(extent.MinX, extent.MaxX, gx, axisCount),
					MinY: edge(extent.MinY, extent.MaxY, gy, axisCount),
					MaxX: edge(extent.MinX, extent.MaxX, gx+1, axisCount),
					MaxY: edge(extent.MinY, extent.MaxY, gy+1, axisCount),
				},
			})
		}
	}

	return g, nil
}

// edge returns the coordinate of the i-th grid line between min and max.
// Adjacent tiles share the exact same value and the outer lines are pinned to
// the extent.
func edge(min, max float64, i, axisCount int) float64 {
	switch i {
	case 0:
		return min
	case axisCount:
		return max
	default:
		return min + (max-min)*float64(i)/float64(axisCount)
	}
}

// Tile returns the tile at the given grid coordinates.
func (g *TileGrid) Tile(gx, gy int) (Tile, bool) {
	if gx < 0 || gx >= g.AxisCount || gy < 0 || gy >= g.AxisCount {
		return Tile{}, false
	}
	return g.Tiles[gx*g.AxisCount+gy], true
}

// CellOf returns the grid coordinates of the cell that holds the given point.
// Points outside of the grid, or on its max edges because of floating point
// rounding, are clamped to the closest cell.
func (g *TileGrid) CellOf(x, y float64) (int, int) {
	gx := cellIndex(x, g.Origin.MinX, g.Origin.MaxX, g.AxisCount)
	gy := cellIndex(y, g.Origin.MinY, g.Origin.MaxY, g.AxisCount)
	return gx, gy
}

func cellIndex(v, min, max float64, axisCount int) int {
	i := int(math.Floor((v - min) * float64(axisCount) / (max - min)))
	if i < 0 {
		return 0
	}
	if i > axisCount-1 {
		return axisCount - 1
	}
	return i
}

// TileOf returns the tile that holds the centroid of the given extent.
func (g *TileGrid) TileOf(e geometry.Extent) Tile {
	gx, gy := g.CellOf(e.Center())
	t, _ := g.Tile(gx, gy)
	return t
}
