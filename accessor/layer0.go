package accessor

import (
	"github.com/carlzeiss/czi/cache"
	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/libconfig"
)

// RenderLayer0 composes every layer-0 subblock matching planeCoord (and, if
// opts.Scenes is non-nil, whose scene is in that set) that intersects roi
// into a single bitmap sized roi.Width x roi.Height.
func RenderLayer0(cfg *libconfig.Config, src Source, planeCoord map[format.Dimension]int32, roi directory.Rect, opts Options) (cache.Bitmap, error) {
	entries, err := collectEntries(src, planeCoord, roi, true, opts.Scenes)
	if err != nil {
		return cache.Bitmap{}, err
	}

	sortByM(entries)
	entries = applyVisibility(entries, roi, opts.UseVisibilityCheckOptimization)

	if len(entries) == 0 {
		return cache.Bitmap{}, errNoPixelType
	}

	pixelType := entries[0].entry.PixelType
	dest := newDestBitmap(pixelType, int(roi.Width), int(roi.Height), opts.Background)

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

		srcX := clipped.X - rect.X
		srcY := clipped.Y - rect.Y
		dstX := clipped.X - roi.X
		dstY := clipped.Y - roi.Y

		paintRegion(&dest, int(dstX), int(dstY), bmp, int(srcX), int(srcY), int(clipped.Width), int(clipped.Height))
		if opts.DrawTileBorder {
			drawBorder(&dest, int(dstX), int(dstY), int(clipped.Width), int(clipped.Height))
		}
	}

	return dest, nil
}
