package segment

import (
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/stream"
)

// attachmentFixedSize is the portion of the 256-byte fixed region preceding
// the payload: data_size:i64, spare[8], the 128-byte A1 entry, spare[128].
const attachmentFixedSize = section.AttachmentSegmentFixedSize

// Attachment is a fully parsed attachment segment.
type Attachment struct {
	Header section.SegmentHeader
	Entry  section.AttachmentEntry
	Data   []byte
}

// ParseAttachment reads and decodes the attachment segment at offset.
func ParseAttachment(r stream.Reader, offset int64, engine endian.EndianEngine) (Attachment, error) {
	headerBuf, releaseHeader, err := readScratch(r, section.SegmentHeaderSize, offset)
	if err != nil {
		return Attachment{}, err
	}

	header, err := section.ExpectMagic(headerBuf, section.MagicAttachment)
	releaseHeader()
	if err != nil {
		return Attachment{}, err
	}

	fixedOffset := offset + section.SegmentHeaderSize
	fixedBuf, releaseFixed, err := readScratch(r, attachmentFixedSize, fixedOffset)
	if err != nil {
		return Attachment{}, err
	}

	dataSize := int64(engine.Uint64(fixedBuf[0:8])) //nolint:gosec
	if dataSize < 0 {
		releaseFixed()
		return Attachment{}, errs.ErrCorruptedData
	}

	entry, err := section.ParseAttachmentEntry(fixedBuf[8+8:8+8+section.AttachmentEntrySize], engine)
	releaseFixed()
	if err != nil {
		return Attachment{}, err
	}

	data := make([]byte, dataSize)
	if dataSize > 0 {
		if err := stream.ReadExact(r, data, fixedOffset+int64(attachmentFixedSize)); err != nil {
			return Attachment{}, err
		}
	}

	return Attachment{Header: header, Entry: entry, Data: data}, nil
}

// Bytes serializes the full attachment segment.
func (a Attachment) Bytes(engine endian.EndianEngine) []byte {
	return a.BytesSized(engine, 0)
}

// BytesSized serializes the segment like Bytes, but reports AllocatedSize as
// allocated instead of the aligned UsedSize, when allocated is large enough
// to hold the payload, so an in-place rewrite can keep its reserved slot
// instead of shrinking it. A zero or too-small allocated falls back to the
// aligned UsedSize.
func (a Attachment) BytesSized(engine endian.EndianEngine, allocated int64) []byte {
	used := int64(attachmentFixedSize) + int64(len(a.Data))
	header := section.NewSegmentHeader(section.MagicAttachment, used)
	if allocated > header.AllocatedSize {
		header.AllocatedSize = allocated
	}

	out := make([]byte, section.SegmentHeaderSize+int(header.AllocatedSize))
	copy(out, header.Bytes())

	fixed := out[section.SegmentHeaderSize : section.SegmentHeaderSize+attachmentFixedSize]
	engine.PutUint64(fixed[0:8], uint64(len(a.Data))) //nolint:gosec
	copy(fixed[16:16+section.AttachmentEntrySize], a.Entry.Bytes(engine))

	copy(out[section.SegmentHeaderSize+attachmentFixedSize:], a.Data)

	return out
}

// UsedSize returns the segment's UsedSize without materializing the buffer.
func (a Attachment) UsedSize() int64 {
	return int64(attachmentFixedSize) + int64(len(a.Data))
}
