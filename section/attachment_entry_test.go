package section

import (
	"testing"

	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/format"
	"github.com/stretchr/testify/require"
)

func TestAttachmentEntryRoundTrip(t *testing.T) {
	engine := endian.LittleEndian()
	guid := format.GUID{Data1: 1, Data2: 2, Data3: 3, Data4: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}
	e := NewAttachmentEntry(512, guid, "CZITIFF", "Thumbnail")

	b := e.Bytes(engine)
	require.Len(t, b, AttachmentEntrySize)

	parsed, err := ParseAttachmentEntry(b, engine)
	require.NoError(t, err)
	require.Equal(t, e, parsed)
	require.Equal(t, "CZITIFF", parsed.ContentFileTypeString())
	require.Equal(t, "Thumbnail", parsed.NameString())
}

func TestAttachmentEntryKeyUniqueness(t *testing.T) {
	guid := format.GUID{Data1: 7}
	a := NewAttachmentEntry(0, guid, "JPG", "Preview")
	b := NewAttachmentEntry(100, guid, "JPG", "Preview")
	c := NewAttachmentEntry(100, guid, "PNG", "Preview")

	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), c.Key())
}

func TestAttachmentEntryTruncation(t *testing.T) {
	longName := make([]byte, 200)
	for i := range longName {
		longName[i] = 'x'
	}

	e := NewAttachmentEntry(0, format.GUID{}, "TOOLONGTYPE", string(longName))
	require.Len(t, e.NameString(), 80)
	require.Len(t, e.ContentFileTypeString(), 8)
}
