package segment

import (
	"bytes"
	"testing"

	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/section"
	"github.com/stretchr/testify/require"
)

func TestAttachmentRoundTrip(t *testing.T) {
	engine := endian.LittleEndian()
	entry := section.NewAttachmentEntry(0, format.GUID{Data1: 7}, "JPG", "Label")
	att := Attachment{Entry: entry, Data: []byte{0xde, 0xad, 0xbe, 0xef}}

	buf := att.Bytes(engine)
	r := bytes.NewReader(buf)

	parsed, err := ParseAttachment(r, 0, engine)
	require.NoError(t, err)
	require.True(t, parsed.Header.Is(section.MagicAttachment))
	require.Equal(t, entry, parsed.Entry)
	require.Equal(t, att.Data, parsed.Data)
}

func TestMetadataRoundTrip(t *testing.T) {
	engine := endian.LittleEndian()
	md := Metadata{XML: []byte("<ImageDocument/>"), Attachment: []byte{1, 2, 3}}

	buf := md.Bytes(engine)
	r := bytes.NewReader(buf)

	parsed, err := ParseMetadata(r, 0, engine)
	require.NoError(t, err)
	require.True(t, parsed.Header.Is(section.MagicMetadata))
	require.Equal(t, md.XML, parsed.XML)
	require.Equal(t, md.Attachment, parsed.Attachment)
}
