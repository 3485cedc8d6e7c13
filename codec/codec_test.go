package codec

import (
	"testing"

	"github.com/carlzeiss/czi/format"
	"github.com/stretchr/testify/require"
)

func TestUncompressedCodecRoundTrip(t *testing.T) {
	c := NewUncompressedCodec()
	data := []byte{1, 2, 3, 4}

	encoded, err := c.Encode(data, format.PixelGray8, 2, 2)
	require.NoError(t, err)
	decoded, err := c.Decode(encoded, format.PixelGray8, 2, 2)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestLZWCodecRoundTrip(t *testing.T) {
	c := NewLZWCodec()
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i % 17)
	}

	encoded, err := c.Encode(data, format.PixelGray8, 16, 16)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := c.Decode(encoded, format.PixelGray8, 16, 16)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestZstd0CodecRoundTrip(t *testing.T) {
	c := NewZstd0Codec()
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}

	encoded, err := c.Encode(data, format.PixelGray16, 32, 64)
	require.NoError(t, err)

	decoded, err := c.Decode(encoded, format.PixelGray16, 32, 64)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestHiLoUnpackRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	unpacked := hiLoUnpack(data)
	repacked := hiLoRepack(unpacked)
	require.Equal(t, data, repacked)
}

func TestRegistryGetUnknownMode(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(format.CompressionJpegXR)
	require.Error(t, err)
}

func TestRegistryGetKnownModes(t *testing.T) {
	r := NewRegistry()
	for _, mode := range []format.CompressionMode{
		format.CompressionUncompressed,
		format.CompressionLZW,
		format.CompressionZstd0,
		format.CompressionJpeg,
	} {
		c, err := r.Get(mode)
		require.NoError(t, err)
		require.NotNil(t, c)
	}
}

func TestJpegCodecRoundTripGray8(t *testing.T) {
	c := NewJpegCodec()
	width, height := 8, 8
	data := make([]byte, width*height)
	for i := range data {
		data[i] = byte(i * 3)
	}

	encoded, err := c.Encode(data, format.PixelGray8, width, height)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := c.Decode(encoded, format.PixelGray8, width, height)
	require.NoError(t, err)
	require.Len(t, decoded, width*height)
	// JPEG is lossy; only check gross shape survives, not exact bytes.
}
