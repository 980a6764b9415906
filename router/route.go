package router

import (
	"github.com/aukilabs/lastiler/geometry"
	"github.com/aukilabs/lastiler/grid"
	"github.com/aukilabs/lastiler/pointcloud"
)

// OutcomeKind is the routing decision taken for an input file.
type OutcomeKind int

const (
	// The file bounding box is outside of every tile.
	Unassigned OutcomeKind = iota

	// The file is fully inside a tile and is copied as is.
	DirectCopy

	// The file overlaps several tiles and has to be split.
	NeedsSplit
)

func (k OutcomeKind) String() string {
	switch k {
	case Unassigned:
		return "unassigned"
	case DirectCopy:
		return "direct_copy"
	case NeedsSplit:
		return "needs_split"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Kind OutcomeKind

	// The tile that contains the file. Only set for DirectCopy.
	Tile grid.Tile

	// The tiles partially covered by the file, in scan order. Only set for
	// NeedsSplit.
	Overlaps []grid.Tile
}

// Route decides where a file goes by relating its bounding box to the tiles,
// in the given order. The first tile that contains the file wins. Otherwise
// all the overlapped tiles are collected.
func Route(file pointcloud.FileInfo, tiles []grid.Tile) Outcome {
	var overlaps []grid.Tile

	for _, t := range tiles {
		switch geometry.Relate(t.Bounds, file.Bounds) {
		case geometry.Contained:
			return Outcome{Kind: DirectCopy, Tile: t}

		case geometry.Overlapping:
			overlaps = append(overlaps, t)
		}
	}

	if len(overlaps) != 0 {
		return Outcome{Kind: NeedsSplit, Overlaps: overlaps}
	}
	return Outcome{Kind: Unassigned}
}
