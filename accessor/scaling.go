package accessor

import (
	"math"
	"sort"

	"github.com/carlzeiss/czi/cache"
	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/libconfig"
)

const zoomTolerance = 1e-6

// virtualScene is the bucket used for entries lacking an S dimension, so a
// single-scene file still splits into exactly one scene group.
const virtualScene int32 = 0

func entryZoom(e entryRef) float64 {
	_, _, w, _ := e.entry.LogicalRect()
	sw, _ := e.entry.StoredSize()
	if w == 0 {
		return 1
	}

	return float64(sw) / float64(w)
}

func sceneOf(e entryRef) int32 {
	if s, ok := e.entry.Find(format.DimS); ok {
		return s.Start
	}

	return virtualScene
}

// RenderScaled composes subblocks matching planeCoord that intersect roi at
// the pyramid layer closest to (but not below) zoom, per scene, resampling
// with nearest-neighbor into an output bitmap sized round(roi.Width*zoom) x
// round(roi.Height*zoom).
func RenderScaled(cfg *libconfig.Config, src Source, planeCoord map[format.Dimension]int32, roi directory.Rect, zoom float64, opts Options) (cache.Bitmap, error) {
	entries, err := collectEntries(src, planeCoord, roi, false, opts.Scenes)
	if err != nil {
		return cache.Bitmap{}, err
	}
	if len(entries) == 0 {
		return cache.Bitmap{}, errNoPixelType
	}

	destW := int(math.Round(float64(roi.Width) * zoom))
	destH := int(math.Round(float64(roi.Height) * zoom))
	if destW <= 0 || destH <= 0 {
		return cache.Bitmap{}, errNoPixelType
	}

	byScene := make(map[int32][]entryRef)
	for _, e := range entries {
		s := sceneOf(e)
		byScene[s] = append(byScene[s], e)
	}

	pixelType := entries[0].entry.PixelType
	dest := newDestBitmap(pixelType, destW, destH, opts.Background)

	scenes := make([]int32, 0, len(byScene))
	for s := range byScene {
		scenes = append(scenes, s)
	}
	sort.Slice(scenes, func(i, j int) bool { return scenes[i] < scenes[j] })

	for _, s := range scenes {
		selected := selectZoomLayer(byScene[s], zoom)
		sortByM(selected)
		selected = applyVisibility(selected, roi, opts.UseVisibilityCheckOptimization)

		for _, ref := range selected {
			if err := paintScaled(cfg, src, opts, &dest, ref, roi, zoom); err != nil {
				return cache.Bitmap{}, err
			}
		}
	}

	return dest, nil
}

// selectZoomLayer sorts candidates by ascending zoom and returns every entry
// at the first zoom level that is >= requested ("best layer from below"), or
// every entry at the highest available zoom if none meets the requested
// level.
func selectZoomLayer(candidates []entryRef, zoom float64) []entryRef {
	sorted := append([]entryRef(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return entryZoom(sorted[i]) < entryZoom(sorted[j]) })

	target := entryZoom(sorted[len(sorted)-1])
	for _, e := range sorted {
		z := entryZoom(e)
		if z >= zoom-zoomTolerance {
			target = z
			break
		}
	}

	var out []entryRef
	for _, e := range sorted {
		if math.Abs(entryZoom(e)-target) < zoomTolerance {
			out = append(out, e)
		}
	}

	return out
}

func paintScaled(cfg *libconfig.Config, src Source, opts Options, dest *cache.Bitmap, ref entryRef, roi directory.Rect, zoom float64) error {
	rect := rectOf(ref.entry)
	clipped := rect.Intersect(roi)
	if clipped.IsEmpty() {
		return nil
	}

	bmp, err := fetchBitmap(cfg, opts.Cache, opts.OnlyUseCacheForCompressedData, src, ref)
	if err != nil {
		return err
	}

	dstX0 := int(math.Round(float64(clipped.X-roi.X) * zoom))
	dstY0 := int(math.Round(float64(clipped.Y-roi.Y) * zoom))
	dstX1 := int(math.Round(float64(clipped.Right()-roi.X) * zoom))
	dstY1 := int(math.Round(float64(clipped.Bottom()-roi.Y) * zoom))
	w, h := dstX1-dstX0, dstY1-dstY0
	if w <= 0 || h <= 0 {
		return nil
	}

	scaleX := float64(bmp.Width) / float64(rect.Width)
	scaleY := float64(bmp.Height) / float64(rect.Height)
	srcOriginX := float64(clipped.X-rect.X) * scaleX
	srcOriginY := float64(clipped.Y-rect.Y) * scaleY
	srcSizeX := float64(clipped.Width) * scaleX
	srcSizeY := float64(clipped.Height) * scaleY

	for dy := 0; dy < h; dy++ {
		sy := srcOriginY + float64(dy)*srcSizeY/float64(h)
		syi := clampInt(int(math.Floor(sy)), 0, bmp.Height-1)

		for dx := 0; dx < w; dx++ {
			sx := srcOriginX + float64(dx)*srcSizeX/float64(w)
			sxi := clampInt(int(math.Floor(sx)), 0, bmp.Width-1)

			copyPixel(dest, dstX0+dx, dstY0+dy, bmp, sxi, syi)
		}
	}

	if opts.DrawTileBorder {
		drawBorder(dest, dstX0, dstY0, w, h)
	}

	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
