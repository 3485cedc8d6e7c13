package directory

import "math"

// PyramidLayer is the result of classifying one subblock's logical/stored
// rectangle pair against a minification factor.
type PyramidLayer struct {
	Layer         int32
	Representable bool
}

// ClassifyPyramidLayer implements the geometric pyramid-layer rule: layer 0
// when logical == stored; otherwise the ratio of logical to stored size
// (the larger of the two axes) must be an exact integer power of
// minificationFactor, within a small tolerance. A ratio that isn't a clean
// power is flagged as not representable. This is the canonical classifier;
// the on-disk pyramid-type byte is round-trip-only and never consulted here.
func ClassifyPyramidLayer(logicalW, logicalH, storedW, storedH, minificationFactor int32) PyramidLayer {
	if logicalW == storedW && logicalH == storedH {
		return PyramidLayer{Layer: 0, Representable: true}
	}

	if storedW <= 0 || storedH <= 0 || minificationFactor < 2 {
		return PyramidLayer{Representable: false}
	}

	ratioW := float64(logicalW) / float64(storedW)
	ratioH := float64(logicalH) / float64(storedH)
	ratio := math.Max(ratioW, ratioH)
	rounded := math.Round(ratio)
	if rounded < 1 {
		return PyramidLayer{Representable: false}
	}

	base := float64(minificationFactor)

	var layer int32
	for power := 1.0; power < rounded-0.5; power *= base {
		layer++
	}

	expected := math.Pow(base, float64(layer))
	const tolerance = 1e-6
	if math.Abs(expected-rounded) > tolerance*rounded {
		return PyramidLayer{Representable: false}
	}

	return PyramidLayer{Layer: layer, Representable: true}
}
