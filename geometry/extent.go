package geometry

import (
	"fmt"
	"math"
)

// Extent is an axis-aligned rectangle in the planar coordinates of the input
// point clouds.
type Extent struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// EmptyExtent returns an extent that any call to Union replaces.
func EmptyExtent() Extent {
	return Extent{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// Valid reports whether the extent has a strictly positive area.
func (e Extent) Valid() bool {
	return e.MinX < e.MaxX && e.MinY < e.MaxY
}

func (e Extent) Width() float64 {
	return e.MaxX - e.MinX
}

func (e Extent) Height() float64 {
	return e.MaxY - e.MinY
}

// Center returns the centroid of the rectangle.
func (e Extent) Center() (float64, float64) {
	return e.MinX + e.Width()/2, e.MinY + e.Height()/2
}

// Union returns the smallest extent that covers both e and o.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

func (e Extent) String() string {
	return fmt.Sprintf("[%.2f, %.2f, %.2f, %.2f]", e.MinX, e.MinY, e.MaxX, e.MaxY)
}
