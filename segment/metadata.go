package segment

import (
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/stream"
)

// Metadata is a fully parsed metadata segment: a fixed
// 256-byte header (xml_size, attachment_size, spare), then xml_size bytes
// of UTF-8 XML, then attachment_size bytes of an optional attachment.
type Metadata struct {
	Header     section.SegmentHeader
	XML        []byte
	Attachment []byte
}

// ParseMetadata reads and decodes the metadata segment at offset.
func ParseMetadata(r stream.Reader, offset int64, engine endian.EndianEngine) (Metadata, error) {
	headerBuf, releaseHeader, err := readScratch(r, section.SegmentHeaderSize, offset)
	if err != nil {
		return Metadata{}, err
	}

	header, err := section.ExpectMagic(headerBuf, section.MagicMetadata)
	releaseHeader()
	if err != nil {
		return Metadata{}, err
	}

	fixedOffset := offset + section.SegmentHeaderSize
	fixedBuf, releaseFixed, err := readScratch(r, section.MetadataSegmentFixedSize, fixedOffset)
	if err != nil {
		return Metadata{}, err
	}

	xmlSize := int32(engine.Uint32(fixedBuf[0:4]))        //nolint:gosec
	attachmentSize := int32(engine.Uint32(fixedBuf[4:8])) //nolint:gosec
	releaseFixed()

	if xmlSize < 0 || attachmentSize < 0 {
		return Metadata{}, errs.ErrCorruptedData
	}

	cursor := fixedOffset + int64(section.MetadataSegmentFixedSize)

	xml := make([]byte, xmlSize)
	if xmlSize > 0 {
		if err := stream.ReadExact(r, xml, cursor); err != nil {
			return Metadata{}, err
		}
	}
	cursor += int64(xmlSize)

	attachment := make([]byte, attachmentSize)
	if attachmentSize > 0 {
		if err := stream.ReadExact(r, attachment, cursor); err != nil {
			return Metadata{}, err
		}
	}

	return Metadata{Header: header, XML: xml, Attachment: attachment}, nil
}

// Bytes serializes the full metadata segment.
func (m Metadata) Bytes(engine endian.EndianEngine) []byte {
	return m.BytesSized(engine, 0)
}

// BytesSized serializes the segment like Bytes, but reports AllocatedSize as
// allocated instead of the aligned UsedSize, when allocated is large enough
// to hold the payload, so an in-place rewrite can keep its reserved slot
// instead of shrinking it. A zero or too-small allocated falls back to the
// aligned UsedSize.
func (m Metadata) BytesSized(engine endian.EndianEngine, allocated int64) []byte {
	used := int64(section.MetadataSegmentFixedSize) + int64(len(m.XML)) + int64(len(m.Attachment))
	header := section.NewSegmentHeader(section.MagicMetadata, used)
	if allocated > header.AllocatedSize {
		header.AllocatedSize = allocated
	}

	out := make([]byte, section.SegmentHeaderSize+int(header.AllocatedSize))
	copy(out, header.Bytes())

	fixed := out[section.SegmentHeaderSize : section.SegmentHeaderSize+section.MetadataSegmentFixedSize]
	engine.PutUint32(fixed[0:4], uint32(len(m.XML)))        //nolint:gosec
	engine.PutUint32(fixed[4:8], uint32(len(m.Attachment))) //nolint:gosec

	cursor := section.SegmentHeaderSize + section.MetadataSegmentFixedSize
	copy(out[cursor:cursor+len(m.XML)], m.XML)
	cursor += len(m.XML)
	copy(out[cursor:cursor+len(m.Attachment)], m.Attachment)

	return out
}

// UsedSize returns the segment's UsedSize without materializing the buffer.
func (m Metadata) UsedSize() int64 {
	return int64(section.MetadataSegmentFixedSize) + int64(len(m.XML)) + int64(len(m.Attachment))
}
