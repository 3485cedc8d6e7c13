package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/carlzeiss/czi/format"
)

// JpegCodec implements CompressionJpeg using the standard library's
// image/jpeg. Only Gray8 and Bgra32 (via image.NRGBA) round-trip
// meaningfully through JPEG; other pixel types return an error rather than
// silently losing precision. No third-party JPEG codec exists anywhere in
// the retrieved corpus (see DESIGN.md); stdlib is justified there.
type JpegCodec struct {
	Quality int // passed to jpeg.Options on Encode; 0 selects jpeg.DefaultQuality
}

// NewJpegCodec returns a JpegCodec using the library default quality.
func NewJpegCodec() *JpegCodec {
	return &JpegCodec{Quality: jpeg.DefaultQuality}
}

func (c *JpegCodec) Decode(data []byte, pixelType format.PixelType, width, height int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: jpeg decode: %w", err)
	}

	return planarize(img, pixelType, width, height)
}

func (c *JpegCodec) Encode(pixels []byte, pixelType format.PixelType, width, height int) ([]byte, error) {
	img, err := toImage(pixels, pixelType, width, height)
	if err != nil {
		return nil, fmt.Errorf("codec: jpeg encode: %w", err)
	}

	var buf bytes.Buffer
	quality := c.Quality
	if quality == 0 {
		quality = jpeg.DefaultQuality
	}

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("codec: jpeg encode: %w", err)
	}

	return buf.Bytes(), nil
}

// toImage adapts raw row-major pixel bytes to a standard image.Image for
// encoding. Only Gray8 and Bgra32 (converted to NRGBA) are supported.
func toImage(pixels []byte, pixelType format.PixelType, width, height int) (image.Image, error) {
	switch pixelType {
	case format.PixelGray8:
		img := &image.Gray{Pix: pixels, Stride: width, Rect: image.Rect(0, 0, width, height)}
		return img, nil
	case format.PixelBgra32:
		rgba := image.NewNRGBA(image.Rect(0, 0, width, height))
		for i := 0; i+3 < len(pixels); i += 4 {
			b, g, r, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
			rgba.Pix[i+0] = r
			rgba.Pix[i+1] = g
			rgba.Pix[i+2] = b
			rgba.Pix[i+3] = a
		}
		return rgba, nil
	default:
		return nil, fmt.Errorf("codec: jpeg encode unsupported pixel type %s", pixelType)
	}
}

// planarize converts a decoded image.Image back to raw row-major pixel
// bytes of the requested pixelType.
func planarize(img image.Image, pixelType format.PixelType, width, height int) ([]byte, error) {
	bpp := pixelType.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("codec: jpeg decode unsupported pixel type %s", pixelType)
	}

	out := make([]byte, width*height*bpp)
	bounds := img.Bounds()

	for y := 0; y < height && y < bounds.Dy(); y++ {
		for x := 0; x < width && x < bounds.Dx(); x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*width + x) * bpp

			switch pixelType {
			case format.PixelGray8:
				out[off] = byte(r >> 8)
			case format.PixelBgra32:
				out[off+0] = byte(b >> 8)
				out[off+1] = byte(g >> 8)
				out[off+2] = byte(r >> 8)
				out[off+3] = byte(a >> 8)
			default:
				return nil, fmt.Errorf("codec: jpeg decode unsupported pixel type %s", pixelType)
			}
		}
	}

	return out, nil
}
