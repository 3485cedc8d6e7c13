//go:build !cgo

package codec

import (
	"fmt"

	"github.com/carlzeiss/czi/format"
)

// Zstd1Codec without cgo falls back to an error: gozstd requires cgo.
// Builds that need Zstd1 support without cgo should register a different
// codec (e.g. re-registering Zstd0's implementation under CompressionZstd1)
// via Registry.Register.
type Zstd1Codec struct {
	Level          int
	HiLoByteUnpack bool
}

// NewZstd1Codec returns a stub Zstd1Codec that always errors; build with
// cgo enabled to get the real implementation.
func NewZstd1Codec() *Zstd1Codec { return &Zstd1Codec{} }

func (c *Zstd1Codec) Decode(_ []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	return nil, fmt.Errorf("codec: zstd1 requires building with cgo enabled (valyala/gozstd)")
}

func (c *Zstd1Codec) Encode(_ []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	return nil, fmt.Errorf("codec: zstd1 requires building with cgo enabled (valyala/gozstd)")
}
