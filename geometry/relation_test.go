package geometry

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelate(t *testing.T) {
	tile := Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}

	t.Run("contained", func(t *testing.T) {
		require.Equal(t, Contained, Relate(tile, Extent{2, 2, 4, 4}))
	})

	t.Run("contained with touching boundary", func(t *testing.T) {
		require.Equal(t, Contained, Relate(tile, Extent{0, 0, 10, 5}))
		require.Equal(t, Contained, Relate(tile, tile))
	})

	t.Run("overlapping", func(t *testing.T) {
		require.Equal(t, Overlapping, Relate(tile, Extent{8, 8, 12, 12}))
		require.Equal(t, Overlapping, Relate(tile, Extent{-1, -1, 11, 11}))
	})

	t.Run("disjoint", func(t *testing.T) {
		require.Equal(t, Disjoint, Relate(tile, Extent{20, 20, 30, 30}))
	})

	t.Run("edge touching is disjoint", func(t *testing.T) {
		require.Equal(t, Disjoint, Relate(tile, Extent{10, 0, 20, 10}))
		require.Equal(t, Disjoint, Relate(tile, Extent{10, 10, 20, 20}))
	})

	t.Run("degenerate box on edge is contained", func(t *testing.T) {
		require.Equal(t, Contained, Relate(tile, Extent{10, 2, 10, 4}))
	})

	t.Run("degenerate box crossing edge overlaps", func(t *testing.T) {
		require.Equal(t, Overlapping, Relate(tile, Extent{5, 8, 5, 12}))
	})
}

func TestRelateAntisymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randomExtent := func() Extent {
		x := float64(rng.Intn(10))
		y := float64(rng.Intn(10))
		return Extent{MinX: x, MinY: y, MaxX: x + float64(rng.Intn(5)+1), MaxY: y + float64(rng.Intn(5)+1)}
	}

	for i := 0; i < 5000; i++ {
		a := randomExtent()
		b := randomExtent()

		if Relate(a, b) == Contained && Relate(b, a) == Contained {
			require.Equal(t, a, b)
		}
	}
}

func TestRelationString(t *testing.T) {
	require.Equal(t, "disjoint", Disjoint.String())
	require.Equal(t, "contained", Contained.String())
	require.Equal(t, "overlapping", Overlapping.String())
	require.Equal(t, "unknown", Relation(42).String())
}
