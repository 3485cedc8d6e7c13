// Package endian provides byte-order utilities for binary encoding and
// decoding of CZI segment structures, plus the segment-size alignment rule
// shared by every segment writer.
//
// This package extends Go's standard encoding/binary package by combining
// ByteOrder and AppendByteOrder into a unified EndianEngine interface.
//
// # Basic usage
//
// CZI's wire format is always little-endian; callers should
// use LittleEndian() unless they are deliberately producing a
// non-conformant stream for testing:
//
//	engine := endian.LittleEndian()
//	b = engine.AppendUint32(b, value)
//
// # Thread safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface, satisfied by binary.LittleEndian and
// binary.BigEndian directly.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness reports the host's native byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// LittleEndian returns the little-endian engine. Every CZI on-disk integer
// field uses this byte order.
func LittleEndian() EndianEngine {
	return binary.LittleEndian
}

// BigEndian returns the big-endian engine, exposed only for tests that
// need to construct deliberately non-conformant fixtures.
func BigEndian() EndianEngine {
	return binary.BigEndian
}

// SegmentAlignment is the byte boundary every segment's AllocatedSize must
// be a multiple of.
const SegmentAlignment = 32

// AlignSegmentSize rounds used up to the next multiple of SegmentAlignment.
func AlignSegmentSize(used int64) int64 {
	if used < 0 {
		return 0
	}

	return (used + SegmentAlignment - 1) / SegmentAlignment * SegmentAlignment
}
