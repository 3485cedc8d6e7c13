package codec

import "github.com/carlzeiss/czi/format"

// UncompressedCodec is a pass-through SubblockCodec for CompressionUncompressed
// subblocks: it returns the stored bytes unchanged.
type UncompressedCodec struct{}

// NewUncompressedCodec returns the pass-through codec.
func NewUncompressedCodec() UncompressedCodec { return UncompressedCodec{} }

func (UncompressedCodec) Decode(data []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	return data, nil
}

func (UncompressedCodec) Encode(pixels []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	return pixels, nil
}
