package codec

// hiLoUnpack splits interleaved 16-bit little-endian samples into a
// low-byte plane followed by a high-byte plane; the Zstd1 "HiLoByteUnpack"
// pre-processing filter named in the compression-options grammar applies
// this transform before compression.
func hiLoUnpack(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := range n {
		out[i] = data[2*i]
		out[n+i] = data[2*i+1]
	}

	return out
}

// hiLoRepack is the inverse of hiLoUnpack.
func hiLoRepack(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := range n {
		out[2*i] = data[i]
		out[2*i+1] = data[n+i]
	}

	return out
}
