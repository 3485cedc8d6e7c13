//go:build cgo

package codec

import (
	"fmt"

	"github.com/carlzeiss/czi/format"
	"github.com/valyala/gozstd"
)

// Zstd1Codec implements CompressionZstd1 with the cgo-accelerated
// github.com/valyala/gozstd bindings. Per the compression-option string
// grammar (e.g. "zstd1:ExplicitLevel=2;PreProcess=HiLoByteUnpack"),
// Zstd1 additionally supports a HiLoByteUnpack pre-processing filter for
// 16-bit pixel types, splitting each sample's high and low bytes into two
// separate planes before compression (typically more compressible than
// interleaved 16-bit samples).
type Zstd1Codec struct {
	Level          int
	HiLoByteUnpack bool
}

// NewZstd1Codec returns a Zstd1Codec at the default compression level.
func NewZstd1Codec() *Zstd1Codec {
	return &Zstd1Codec{Level: 3}
}

func (c *Zstd1Codec) Decode(data []byte, pixelType format.PixelType, width, height int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd1 decode: %w", err)
	}

	if c.HiLoByteUnpack && pixelType.BytesPerPixel() == 2 {
		out = hiLoRepack(out)
	}

	return out, nil
}

func (c *Zstd1Codec) Encode(pixels []byte, pixelType format.PixelType, width, height int) ([]byte, error) {
	data := pixels
	if c.HiLoByteUnpack && pixelType.BytesPerPixel() == 2 {
		data = hiLoUnpack(pixels)
	}

	level := c.Level
	if level == 0 {
		level = 3
	}

	return gozstd.CompressLevel(nil, data, level), nil
}
