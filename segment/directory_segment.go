package segment

import (
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/stream"
)

// directoryHeaderSize mirrors the attachment directory's entry_count:i32 +
// spare[252] layout.
const directoryHeaderSize = 256

// SubblockDirectorySegment is the on-disk ZISRAWDIRECTORY container: a
// count prefix followed by variable-length DV/DE entries.
type SubblockDirectorySegment struct {
	Header  section.SegmentHeader
	Entries []section.DirectoryEntry
}

// ParseSubblockDirectorySegment reads the full directory segment starting
// at offset; callers already know its length from the segment header's
// UsedSize, so the whole payload is read in one shot.
func ParseSubblockDirectorySegment(r stream.Reader, offset int64, engine endian.EndianEngine) (SubblockDirectorySegment, error) {
	headerBuf, releaseHeader, err := readScratch(r, section.SegmentHeaderSize, offset)
	if err != nil {
		return SubblockDirectorySegment{}, err
	}

	header, err := section.ExpectMagic(headerBuf, section.MagicSubblockDirectory)
	releaseHeader()
	if err != nil {
		return SubblockDirectorySegment{}, err
	}

	payload := make([]byte, header.UsedSize)
	if err := stream.ReadExact(r, payload, offset+section.SegmentHeaderSize); err != nil {
		return SubblockDirectorySegment{}, err
	}

	if len(payload) < directoryHeaderSize {
		return SubblockDirectorySegment{}, errs.ErrInvalidHeaderSize
	}

	count := int32(engine.Uint32(payload[0:4])) //nolint:gosec
	if count < 0 {
		return SubblockDirectorySegment{}, errs.ErrCorruptedData
	}

	entries := make([]section.DirectoryEntry, 0, count)
	cursor := directoryHeaderSize
	for range int(count) {
		if cursor >= len(payload) {
			return SubblockDirectorySegment{}, errs.ErrInvalidHeaderSize
		}
		entry, consumed, err := section.ParseDirectoryEntry(payload[cursor:], engine)
		if err != nil {
			return SubblockDirectorySegment{}, err
		}
		entries = append(entries, entry)
		cursor += consumed
	}

	return SubblockDirectorySegment{Header: header, Entries: entries}, nil
}

// Bytes serializes the subblock directory segment.
func (s SubblockDirectorySegment) Bytes(engine endian.EndianEngine) []byte {
	return s.BytesSized(engine, 0)
}

// BytesSized serializes the segment like Bytes, but reports AllocatedSize as
// allocated instead of the aligned UsedSize, when allocated is large enough
// to hold the payload, so a reserved directory slot can be reused in place
// instead of shrinking it. A zero or too-small allocated falls back to the
// aligned UsedSize.
func (s SubblockDirectorySegment) BytesSized(engine endian.EndianEngine, allocated int64) []byte {
	size := directoryHeaderSize
	encoded := make([][]byte, len(s.Entries))
	for i, e := range s.Entries {
		encoded[i] = e.Bytes(engine)
		size += len(encoded[i])
	}

	header := section.NewSegmentHeader(section.MagicSubblockDirectory, int64(size))
	if allocated > header.AllocatedSize {
		header.AllocatedSize = allocated
	}
	out := make([]byte, section.SegmentHeaderSize+int(header.AllocatedSize))
	copy(out, header.Bytes())

	body := out[section.SegmentHeaderSize:]
	engine.PutUint32(body[0:4], uint32(len(s.Entries))) //nolint:gosec

	cursor := directoryHeaderSize
	for _, b := range encoded {
		copy(body[cursor:cursor+len(b)], b)
		cursor += len(b)
	}

	return out
}

// UsedSize returns the segment's UsedSize as Bytes would compute it, without
// materializing the full buffer.
func (s SubblockDirectorySegment) UsedSize(engine endian.EndianEngine) int64 {
	size := int64(directoryHeaderSize)
	for _, e := range s.Entries {
		size += int64(len(e.Bytes(engine)))
	}

	return size
}

// AttachmentDirectorySegment is the on-disk ZISRAWATTDIR container.
type AttachmentDirectorySegment struct {
	Header  section.SegmentHeader
	Entries []section.AttachmentEntry
}

// ParseAttachmentDirectorySegment reads the full attachment directory
// segment at offset.
func ParseAttachmentDirectorySegment(r stream.Reader, offset int64, engine endian.EndianEngine) (AttachmentDirectorySegment, error) {
	headerBuf, releaseHeader, err := readScratch(r, section.SegmentHeaderSize, offset)
	if err != nil {
		return AttachmentDirectorySegment{}, err
	}

	header, err := section.ExpectMagic(headerBuf, section.MagicAttachmentDir)
	releaseHeader()
	if err != nil {
		return AttachmentDirectorySegment{}, err
	}

	payload := make([]byte, header.UsedSize)
	if err := stream.ReadExact(r, payload, offset+section.SegmentHeaderSize); err != nil {
		return AttachmentDirectorySegment{}, err
	}

	if len(payload) < section.AttachmentDirHeaderSize {
		return AttachmentDirectorySegment{}, errs.ErrInvalidHeaderSize
	}

	count := int32(engine.Uint32(payload[0:4])) //nolint:gosec
	if count < 0 {
		return AttachmentDirectorySegment{}, errs.ErrCorruptedData
	}

	entries := make([]section.AttachmentEntry, 0, count)
	cursor := section.AttachmentDirHeaderSize
	for range int(count) {
		need := cursor + section.AttachmentEntrySize
		if need > len(payload) {
			return AttachmentDirectorySegment{}, errs.ErrInvalidHeaderSize
		}
		entry, err := section.ParseAttachmentEntry(payload[cursor:need], engine)
		if err != nil {
			return AttachmentDirectorySegment{}, err
		}
		entries = append(entries, entry)
		cursor = need
	}

	return AttachmentDirectorySegment{Header: header, Entries: entries}, nil
}

// Bytes serializes the attachment directory segment.
func (s AttachmentDirectorySegment) Bytes(engine endian.EndianEngine) []byte {
	return s.BytesSized(engine, 0)
}

// BytesSized serializes the segment like Bytes, but reports AllocatedSize as
// allocated instead of the aligned UsedSize, when allocated is large enough
// to hold the payload, so a reserved directory slot can be reused in place
// instead of shrinking it. A zero or too-small allocated falls back to the
// aligned UsedSize.
func (s AttachmentDirectorySegment) BytesSized(engine endian.EndianEngine, allocated int64) []byte {
	size := section.AttachmentDirHeaderSize + len(s.Entries)*section.AttachmentEntrySize
	header := section.NewSegmentHeader(section.MagicAttachmentDir, int64(size))
	if allocated > header.AllocatedSize {
		header.AllocatedSize = allocated
	}
	out := make([]byte, section.SegmentHeaderSize+int(header.AllocatedSize))
	copy(out, header.Bytes())

	body := out[section.SegmentHeaderSize:]
	engine.PutUint32(body[0:4], uint32(len(s.Entries))) //nolint:gosec

	cursor := section.AttachmentDirHeaderSize
	for _, e := range s.Entries {
		b := e.Bytes(engine)
		copy(body[cursor:cursor+len(b)], b)
		cursor += len(b)
	}

	return out
}

// UsedSize returns the segment's UsedSize as Bytes would compute it, without
// materializing the full buffer.
func (s AttachmentDirectorySegment) UsedSize() int64 {
	return int64(section.AttachmentDirHeaderSize + len(s.Entries)*section.AttachmentEntrySize)
}
