package codec

import (
	"bytes"
	"compress/lzw"
	"fmt"
	"io"

	"github.com/carlzeiss/czi/format"
)

// LZWCodec implements the legacy CompressionLZW mode using the standard
// library's compress/lzw. No LZW implementation exists anywhere in the
// retrieved example corpus (see DESIGN.md); this is the one deliberate
// stdlib-only codec, justified there.
type LZWCodec struct{}

// NewLZWCodec returns the LZW codec.
func NewLZWCodec() LZWCodec { return LZWCodec{} }

func (LZWCodec) Decode(data []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: lzw decode: %w", err)
	}

	return out, nil
}

func (LZWCodec) Encode(pixels []byte, _ format.PixelType, _, _ int) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)

	if _, err := w.Write(pixels); err != nil {
		return nil, fmt.Errorf("codec: lzw encode: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: lzw encode close: %w", err)
	}

	return buf.Bytes(), nil
}
