package format

import (
	"fmt"

	"github.com/carlzeiss/czi/endian"
)

// GUID is a 16-byte identifier stored on disk in Microsoft layout:
// uint32, uint16, uint16, then 8 raw bytes. Only the first three fields are
// byte-order sensitive; the trailing 8 bytes are copied verbatim.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// GUIDSize is the on-disk size of a GUID in bytes.
const GUIDSize = 16

// ParseGUID decodes a GUID from a 16-byte slice using engine's byte order
// for the first three fields.
func ParseGUID(data []byte, engine endian.EndianEngine) (GUID, error) {
	if len(data) < GUIDSize {
		return GUID{}, fmt.Errorf("format: GUID requires %d bytes, got %d", GUIDSize, len(data))
	}

	var g GUID
	g.Data1 = engine.Uint32(data[0:4])
	g.Data2 = engine.Uint16(data[4:6])
	g.Data3 = engine.Uint16(data[6:8])
	copy(g.Data4[:], data[8:16])

	return g, nil
}

// Bytes serializes the GUID using engine's byte order.
func (g GUID) Bytes(engine endian.EndianEngine) []byte {
	var b [GUIDSize]byte
	engine.PutUint32(b[0:4], g.Data1)
	engine.PutUint16(b[4:6], g.Data2)
	engine.PutUint16(b[6:8], g.Data3)
	copy(b[8:16], g.Data4[:])

	return b[:]
}

// IsZero reports whether g is the zero-value GUID.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3], g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}
