package directory

import "github.com/carlzeiss/czi/format"

// Bounds is a half-open integer interval [Start, End) observed across a set
// of directory entries for one dimension.
type Bounds struct {
	Start, End int32
}

// Contains reports whether v lies in [Start, End).
func (b Bounds) Contains(v int32) bool {
	return v >= b.Start && v < b.End
}

// Size returns End - Start.
func (b Bounds) Size() int32 { return b.End - b.Start }

// SceneStatistics is the bounding-box pair maintained per scene.
type SceneStatistics struct {
	BoundingBox       Rect
	Layer0BoundingBox Rect
}

// Statistics is the consolidated view of a subblock directory's geometry
//: global and per-scene bounding boxes, M-index range,
// dimension bounds, and total count.
type Statistics struct {
	BoundingBox       Rect
	Layer0BoundingBox Rect
	PerScene          map[int32]SceneStatistics
	MIndexMin         int32
	MIndexMax         int32
	HasValidMIndex    bool
	DimBounds         map[format.Dimension]Bounds
	Count             int
}

// newStatistics returns a zero-value Statistics with initialized maps.
func newStatistics() Statistics {
	return Statistics{
		PerScene:  make(map[int32]SceneStatistics),
		DimBounds: make(map[format.Dimension]Bounds),
	}
}

// PyramidStatistics is the pyramid-layer histogram maintained as a side
// effect of directory construction, keyed by the
// geometric layer classification, never the on-disk pyramid-type byte.
type PyramidStatistics struct {
	MinificationFactor int32
	Histogram          map[int32]int
	Unrepresentable    int
}

func newPyramidStatistics(minificationFactor int32) PyramidStatistics {
	return PyramidStatistics{
		MinificationFactor: minificationFactor,
		Histogram:          make(map[int32]int),
	}
}
