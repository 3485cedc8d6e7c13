package accessor

import (
	"github.com/carlzeiss/czi/cache"
	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/libconfig"
)

// pow computes base^exp for non-negative integer exp via repeated
// multiplication, avoiding the float rounding math.Pow would introduce for
// the pixel-size scale factor.
func pow(base, exp int32) int32 {
	result := int32(1)
	for i := int32(0); i < exp; i++ {
		result *= base
	}

	return result
}

// RenderPyramidLayer composes the subblocks classified as pyramid layer
// layerNo (by directory.ClassifyPyramidLayer, using minificationFactor) that
// match planeCoord and intersect roi, scaling placement by pixelSize =
// minificationFactor^layerNo. The destination bitmap is
// sized roi.Width/pixelSize x roi.Height/pixelSize.
func RenderPyramidLayer(cfg *libconfig.Config, src Source, planeCoord map[format.Dimension]int32, roi directory.Rect, minificationFactor, layerNo int32, opts Options) (cache.Bitmap, error) {
	entries, err := collectEntries(src, planeCoord, roi, false, opts.Scenes)
	if err != nil {
		return cache.Bitmap{}, err
	}

	pixelSize := pow(minificationFactor, layerNo)

	filtered := entries[:0:0]
	for _, ref := range entries {
		_, _, w, h := ref.entry.LogicalRect()
		sw, sh := ref.entry.StoredSize()
		layer := directory.ClassifyPyramidLayer(w, h, sw, sh, minificationFactor)
		if layer.Representable && layer.Layer == layerNo {
			filtered = append(filtered, ref)
		}
	}
	entries = filtered

	sortByM(entries)
	entries = applyVisibility(entries, roi, opts.UseVisibilityCheckOptimization)

	destW := int(roi.Width) / int(pixelSize)
	destH := int(roi.Height) / int(pixelSize)
	if destW <= 0 || destH <= 0 {
		return cache.Bitmap{}, errNoPixelType
	}

	if len(entries) == 0 {
		return cache.Bitmap{}, errNoPixelType
	}

	pixelType := entries[0].entry.PixelType
	dest := newDestBitmap(pixelType, destW, destH, opts.Background)

	for _, ref := range entries {
		bmp, err := fetchBitmap(cfg, opts.Cache, opts.OnlyUseCacheForCompressedData, src, ref)
		if err != nil {
			return cache.Bitmap{}, err
		}

		rect := rectOf(ref.entry)
		clipped := rect.Intersect(roi)
		if clipped.IsEmpty() {
			continue
		}

		srcX := (clipped.X - rect.X) / pixelSize
		srcY := (clipped.Y - rect.Y) / pixelSize
		dstX := (clipped.X - roi.X) / pixelSize
		dstY := (clipped.Y - roi.Y) / pixelSize
		w := clipped.Width / pixelSize
		h := clipped.Height / pixelSize

		paintRegion(&dest, int(dstX), int(dstY), bmp, int(srcX), int(srcY), int(w), int(h))
		if opts.DrawTileBorder {
			drawBorder(&dest, int(dstX), int(dstY), int(w), int(h))
		}
	}

	return dest, nil
}
