package geometry

// Relation is the topological relationship between a tile and a file bounding
// box.
type Relation int

const (
	Disjoint Relation = iota
	Contained
	Overlapping
)

func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "disjoint"
	case Contained:
		return "contained"
	case Overlapping:
		return "overlapping"
	default:
		return "unknown"
	}
}

// Relate classifies b against a:
//   - Contained when b lies inside a, boundaries included.
//   - Disjoint when a and b share no area. Rectangles that only touch along an
//     edge or at a corner are disjoint.
//   - Overlapping otherwise.
//
// Containment is evaluated first so that a degenerate box lying on an edge of
// a is contained rather than disjoint.
func Relate(a, b Extent) Relation {
	if contains(a, b) {
		return Contained
	}

	if !interiorsIntersect(a, b) {
		return Disjoint
	}
	return Overlapping
}

func contains(a, b Extent) bool {
	return b.MinX >= a.MinX && b.MaxX <= a.MaxX &&
		b.MinY >= a.MinY && b.MaxY <= a.MaxY
}

func interiorsIntersect(a, b Extent) bool {
	return a.MaxX > b.MinX && a.MinX < b.MaxX &&
		a.MaxY > b.MinY && a.MinY < b.MaxY
}
