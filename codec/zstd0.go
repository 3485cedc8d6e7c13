package codec

import (
	"fmt"
	"sync"

	"github.com/carlzeiss/czi/format"
	"github.com/klauspost/compress/zstd"
)

// Zstd0Codec implements CompressionZstd0 with the pure-Go
// github.com/klauspost/compress/zstd decoder/encoder. Zstd0 subblock
// payloads are plain zstd frames with no pixel pre-processing, unlike
// Zstd1 (see zstd1_cgo.go and zstd1_nocgo.go).
type Zstd0Codec struct{}

// NewZstd0Codec returns the pure-Go zstd codec.
func NewZstd0Codec() *Zstd0Codec { return &Zstd0Codec{} }

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("codec: failed to create zstd decoder: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("codec: failed to create zstd encoder: %v", err))
		}

		return encoder
	},
}

func (c *Zstd0Codec) Decode(data []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder := zstdDecoderPool.Get().(*zstd.Decoder) //nolint:forcetypeassert
	defer zstdDecoderPool.Put(decoder)

	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd0 decode: %w", err)
	}

	return out, nil
}

func (c *Zstd0Codec) Encode(pixels []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	encoder := zstdEncoderPool.Get().(*zstd.Encoder) //nolint:forcetypeassert
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(pixels, nil), nil
}
