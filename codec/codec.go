// Package codec provides the pluggable pixel-codec contract for subblock
// compression (JPEG-XR, zstd-0, zstd-1, plus Jpeg and LZW for legacy
// subblocks), and a registry of built-in implementations.
//
// The interface merges a separate compressor/decompressor pair into one
// Decode/Encode contract, generalized so image codecs (Jpeg, JpegXR) can
// use the pixel dimensions while plain byte codecs (Zstd0, Zstd1, LZW,
// Uncompressed) ignore them.
package codec

import (
	"fmt"

	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
)

// SubblockCodec decodes a subblock's on-disk payload into raw, row-major
// pixel bytes of the declared pixel type, and encodes the reverse.
//
// Memory management: returned slices are newly allocated and owned by the
// caller; input slices are never modified.
type SubblockCodec interface {
	// Decode converts compressed on-disk bytes to raw pixel bytes. width
	// and height are the segment's stored (not logical) dimensions.
	Decode(data []byte, pixelType format.PixelType, width, height int) ([]byte, error)

	// Encode converts raw pixel bytes to this codec's on-disk
	// representation.
	Encode(pixels []byte, pixelType format.PixelType, width, height int) ([]byte, error)
}

// Registry maps a CompressionMode to its SubblockCodec. It is passed
// explicitly via libconfig.Config.
type Registry struct {
	codecs map[format.CompressionMode]SubblockCodec
}

// NewRegistry builds a registry pre-populated with every codec this module
// implements: Uncompressed, LZW (stdlib compress/lzw), Zstd0 (pure-Go,
// github.com/klauspost/compress/zstd), Zstd1 (cgo-accelerated,
// github.com/valyala/gozstd, falling back to an error if built without
// cgo) and Jpeg (stdlib image/jpeg). JpegXR is registered only if the
// caller calls Register for it — it has no implementation in this module.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[format.CompressionMode]SubblockCodec)}
	r.Register(format.CompressionUncompressed, NewUncompressedCodec())
	r.Register(format.CompressionLZW, NewLZWCodec())
	r.Register(format.CompressionZstd0, NewZstd0Codec())
	r.Register(format.CompressionZstd1, NewZstd1Codec())
	r.Register(format.CompressionJpeg, NewJpegCodec())

	return r
}

// Register installs (or replaces) the codec for mode.
func (r *Registry) Register(mode format.CompressionMode, c SubblockCodec) {
	r.codecs[mode] = c
}

// Get returns the codec registered for mode, or an error wrapping
// errs.ErrCodecNotRegistered and naming the mode if none is registered (e.g. JpegXR, or an CompressionInvalid raw value).
func (r *Registry) Get(mode format.CompressionMode) (SubblockCodec, error) {
	c, ok := r.codecs[mode]
	if !ok {
		return nil, fmt.Errorf("%w: compression mode %s", errs.ErrCodecNotRegistered, mode)
	}

	return c, nil
}
