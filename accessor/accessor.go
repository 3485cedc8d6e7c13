// Package accessor implements the three tile-composition accessors and the
// shared visibility-optimization coverage-set algorithm: a layer-0 tile
// accessor, a pyramid-layer tile accessor, and an arbitrary-zoom scaling
// accessor, all painting onto a cache.Bitmap destination. Decoding reuses
// codec.Registry and the reader façade's enumeration; tile composition
// itself is built directly here.
package accessor

import (
	"math"
	"sort"

	"github.com/carlzeiss/czi/cache"
	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/libconfig"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/segment"
)

// Source is the subset of reader.Reader (or readerwriter.Engine) an
// accessor needs: plane/ROI-filtered enumeration and subblock retrieval.
type Source interface {
	EnumerateSubset(planeCoord map[format.Dimension]int32, roi directory.Rect, onlyLayer0 bool, fn func(index int, entry section.DirectoryEntry) bool) error
	ReadSubblock(index int) (segment.Subblock, error)
}

// Options configures every accessor. Background holds one
// value per channel; a single-channel accessor only consults Background[0],
// but all three must be non-NaN for the destination to be cleared before
// painting, matching the shared contract literally.
type Options struct {
	Scenes                         map[int32]bool
	Background                     [3]float64
	DrawTileBorder                 bool
	Cache                          cache.Cache
	OnlyUseCacheForCompressedData  bool
	UseVisibilityCheckOptimization bool
}

type entryRef struct {
	index int
	entry section.DirectoryEntry
}

func rectOf(e section.DirectoryEntry) directory.Rect {
	x, y, w, h := e.LogicalRect()
	return directory.Rect{X: x, Y: y, Width: w, Height: h}
}

func collectEntries(src Source, plane map[format.Dimension]int32, roi directory.Rect, onlyLayer0 bool, scenes map[int32]bool) ([]entryRef, error) {
	var out []entryRef
	err := src.EnumerateSubset(plane, roi, onlyLayer0, func(index int, entry section.DirectoryEntry) bool {
		if scenes != nil {
			scene := int32(0)
			if s, ok := entry.Find(format.DimS); ok {
				scene = s.Start
			}
			if !scenes[scene] {
				return true
			}
		}
		out = append(out, entryRef{index: index, entry: entry})
		return true
	})

	return out, err
}

// sortByM stable-sorts entries by ascending M, with invalid-M entries first.
func sortByM(entries []entryRef) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].entry, entries[j].entry
		av, bv := a.HasValidMIndex(), b.HasValidMIndex()
		if av != bv {
			return !av
		}

		return a.MIndex() < b.MIndex()
	})
}

func applyVisibility(entries []entryRef, roi directory.Rect, enabled bool) []entryRef {
	if !enabled || len(entries) == 0 {
		return entries
	}

	rects := make([]directory.Rect, len(entries))
	for i, e := range entries {
		rects[i] = rectOf(e.entry)
	}

	keep := VisibleIndices(rects, roi)
	out := make([]entryRef, len(keep))
	for i, idx := range keep {
		out[i] = entries[idx]
	}

	return out
}

func shouldClear(bg [3]float64) bool {
	for _, v := range bg {
		if math.IsNaN(v) {
			return false
		}
	}

	return true
}

func newDestBitmap(pixelType format.PixelType, width, height int, background [3]float64) cache.Bitmap {
	bpp := pixelType.BytesPerPixel()
	pixels := make([]byte, width*height*bpp)
	if shouldClear(background) {
		fillBackground(pixels, pixelType, bpp, background)
	}

	return cache.Bitmap{Pixels: pixels, PixelType: pixelType, Width: width, Height: height}
}

// fillBackground clears pixels to background. For a byte-per-channel,
// multi-channel pixel type (Bgr24, Bgra32) each channel gets its own
// background value instead of every byte sharing Background[0]; an alpha
// channel beyond the three given values defaults to opaque. Other pixel
// types (single-channel, or wider-than-one-byte channels) fall back to
// filling every byte with Background[0].
func fillBackground(pixels []byte, pixelType format.PixelType, bpp int, background [3]float64) {
	channels := pixelType.Channels()
	if channels <= 1 || channels != bpp {
		fill := byte(background[0])
		for i := range pixels {
			pixels[i] = fill
		}

		return
	}

	values := make([]byte, channels)
	for c := range values {
		if c < len(background) {
			values[c] = byte(background[c])
		} else {
			values[c] = 0xff
		}
	}

	for i := range pixels {
		pixels[i] = values[i%channels]
	}
}

func fetchBitmap(cfg *libconfig.Config, ch cache.Cache, onlyCompressed bool, src Source, ref entryRef) (cache.Bitmap, error) {
	if ch != nil {
		if bmp, ok := ch.Get(ref.index); ok {
			return bmp, nil
		}
	}

	sb, err := src.ReadSubblock(ref.index)
	if err != nil {
		return cache.Bitmap{}, err
	}

	subblockCodec, err := cfg.Codecs.Get(ref.entry.Compression())
	if err != nil {
		return cache.Bitmap{}, err
	}

	storedW, storedH := ref.entry.StoredSize()
	pixels, err := subblockCodec.Decode(sb.Data, ref.entry.PixelType, int(storedW), int(storedH))
	if err != nil {
		return cache.Bitmap{}, err
	}

	bmp := cache.Bitmap{Pixels: pixels, PixelType: ref.entry.PixelType, Width: int(storedW), Height: int(storedH)}

	if ch != nil && (!onlyCompressed || ref.entry.Compression() != format.CompressionUncompressed) {
		ch.Insert(ref.index, bmp, len(pixels))
	}

	return bmp, nil
}

// paintRegion copies a w x h block from src at (sx, sy) to dest at (dx, dy).
func paintRegion(dest *cache.Bitmap, dx, dy int, src cache.Bitmap, sx, sy, w, h int) {
	bpp := src.PixelType.BytesPerPixel()
	if bpp == 0 || w <= 0 || h <= 0 {
		return
	}

	for row := 0; row < h; row++ {
		srcOff := ((sy+row)*src.Width + sx) * bpp
		dstOff := ((dy+row)*dest.Width + dx) * bpp
		copy(dest.Pixels[dstOff:dstOff+w*bpp], src.Pixels[srcOff:srcOff+w*bpp])
	}
}

// drawBorder paints a 1-pixel black border around the w x h tile region
// placed at (x, y) in dest.
func drawBorder(dest *cache.Bitmap, x, y, w, h int) {
	bpp := dest.PixelType.BytesPerPixel()
	if bpp == 0 {
		return
	}

	set := func(px, py int) {
		if px < 0 || py < 0 || px >= dest.Width || py >= dest.Height {
			return
		}
		off := (py*dest.Width + px) * bpp
		for i := 0; i < bpp; i++ {
			dest.Pixels[off+i] = 0
		}
	}

	for px := x; px < x+w; px++ {
		set(px, y)
		set(px, y+h-1)
	}
	for py := y; py < y+h; py++ {
		set(x, py)
		set(x+w-1, py)
	}
}

func copyPixel(dest *cache.Bitmap, dx, dy int, src cache.Bitmap, sx, sy int) {
	bpp := src.PixelType.BytesPerPixel()
	if bpp == 0 {
		return
	}
	if dx < 0 || dy < 0 || dx >= dest.Width || dy >= dest.Height {
		return
	}
	if sx < 0 || sy < 0 || sx >= src.Width || sy >= src.Height {
		return
	}

	srcOff := (sy*src.Width + sx) * bpp
	dstOff := (dy*dest.Width + dx) * bpp
	copy(dest.Pixels[dstOff:dstOff+bpp], src.Pixels[srcOff:srcOff+bpp])
}

var errNoPixelType = errs.ErrAccessorNoPixelType
