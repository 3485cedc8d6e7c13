package accessor

import "github.com/carlzeiss/czi/directory"

// subtract returns a minus b as a list of disjoint rectangles. If b does not intersect a, the result is just a.
func subtract(a, b directory.Rect) []directory.Rect {
	inter := a.Intersect(b)
	if inter.IsEmpty() {
		return []directory.Rect{a}
	}

	var out []directory.Rect

	if inter.Y > a.Y {
		out = append(out, directory.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: inter.Y - a.Y})
	}
	if a.Bottom() > inter.Bottom() {
		out = append(out, directory.Rect{X: a.X, Y: inter.Bottom(), Width: a.Width, Height: a.Bottom() - inter.Bottom()})
	}
	if inter.X > a.X {
		out = append(out, directory.Rect{X: a.X, Y: inter.Y, Width: inter.X - a.X, Height: inter.Height})
	}
	if a.Right() > inter.Right() {
		out = append(out, directory.Rect{X: inter.Right(), Y: inter.Y, Width: a.Right() - inter.Right(), Height: inter.Height})
	}

	return out
}

// covers reports whether r is fully covered by the union of coverage,
// queried by iteratively subtracting every coverage rectangle from r and
// checking whether anything remains.
func covers(coverage []directory.Rect, r directory.Rect) bool {
	remaining := []directory.Rect{r}

	for _, cov := range coverage {
		var next []directory.Rect
		for _, rem := range remaining {
			next = append(next, subtract(rem, cov)...)
		}
		remaining = next
		if len(remaining) == 0 {
			return true
		}
	}

	return len(remaining) == 0
}

// addCoverage returns coverage with newRect unioned in, re-splitting any
// rectangle newRect partially overlaps to preserve the disjoint invariant.
func addCoverage(coverage []directory.Rect, newRect directory.Rect) []directory.Rect {
	if newRect.IsEmpty() {
		return coverage
	}

	next := make([]directory.Rect, 0, len(coverage)+1)
	for _, cov := range coverage {
		next = append(next, subtract(cov, newRect)...)
	}

	return append(next, newRect)
}

// VisibleIndices implements the visibility optimization:
// given rects in bottom-to-top painting order and a query ROI, returns the
// indices (into rects) of subblocks not fully overdrawn by later elements,
// in their original bottom-to-top order.
func VisibleIndices(rects []directory.Rect, roi directory.Rect) []int {
	var coverage []directory.Rect
	var visibleDesc []int

	for i := len(rects) - 1; i >= 0; i-- {
		clipped := rects[i].Intersect(roi)
		if clipped.IsEmpty() {
			continue
		}
		if covers(coverage, clipped) {
			continue
		}
		visibleDesc = append(visibleDesc, i)
		coverage = addCoverage(coverage, clipped)
	}

	for l, r := 0, len(visibleDesc)-1; l < r; l, r = l+1, r-1 {
		visibleDesc[l], visibleDesc[r] = visibleDesc[r], visibleDesc[l]
	}

	return visibleDesc
}
