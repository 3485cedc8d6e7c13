package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	result := CheckEndianness()

	var testValue uint16 = 0x0102
	testBytes := (*[2]byte)(unsafe.Pointer(&testValue))

	switch testBytes[0] {
	case 0x01:
		require.Equal(t, binary.BigEndian, result)
	case 0x02:
		require.Equal(t, binary.LittleEndian, result)
	default:
		require.Failf(t, "unexpected byte value", "got: %v", testBytes[0])
	}
}

func TestCheckEndiannessConsistency(t *testing.T) {
	first := CheckEndianness()
	for i := range 100 {
		result := CheckEndianness()
		if result != first {
			t.Errorf("CheckEndianness() returned inconsistent results: first=%v, iteration %d=%v", first, i, result)
		}
	}
}

func TestIsNativeLittleEndian(t *testing.T) {
	result := IsNativeLittleEndian()
	expected := CheckEndianness() == binary.LittleEndian
	require.Equal(t, expected, result)

	for range 10 {
		require.Equal(t, result, IsNativeLittleEndian())
	}
}

func TestLittleEndianEngine(t *testing.T) {
	engine := LittleEndian()

	require.Implements(t, (*EndianEngine)(nil), engine)
	require.Equal(t, binary.LittleEndian, engine)

	var testValue uint16 = 0x0102
	b := make([]byte, 2)
	engine.PutUint16(b, testValue)
	require.Equal(t, byte(0x02), b[0])
	require.Equal(t, byte(0x01), b[1])
	require.Equal(t, testValue, engine.Uint16(b))
}

func TestBigEndianEngine(t *testing.T) {
	engine := BigEndian()

	require.Implements(t, (*EndianEngine)(nil), engine)
	require.Equal(t, binary.BigEndian, engine)

	var testValue uint16 = 0x0102
	b := make([]byte, 2)
	engine.PutUint16(b, testValue)
	require.Equal(t, byte(0x01), b[0])
	require.Equal(t, byte(0x02), b[1])
	require.Equal(t, testValue, engine.Uint16(b))
}

func TestEndianEnginesRoundTrip(t *testing.T) {
	littleEngine := LittleEndian()
	bigEngine := BigEndian()

	var testUint32 uint32 = 0x01020304
	lb := make([]byte, 4)
	bb := make([]byte, 4)

	littleEngine.PutUint32(lb, testUint32)
	bigEngine.PutUint32(bb, testUint32)

	require.NotEqual(t, lb, bb)
	require.Equal(t, testUint32, littleEngine.Uint32(lb))
	require.Equal(t, testUint32, bigEngine.Uint32(bb))
}

func TestAlignSegmentSize(t *testing.T) {
	cases := []struct {
		used int64
		want int64
	}{
		{0, 0},
		{1, 32},
		{32, 32},
		{33, 64},
		{-5, 0},
	}

	for _, c := range cases {
		require.Equal(t, c.want, AlignSegmentSize(c.used), "used=%d", c.used)
	}
}
