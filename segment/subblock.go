// Package segment parses and emits the four payload-carrying segment kinds
// (subblock, attachment, metadata, and the subblock/attachment directory
// containers) on top of the section package's fixed-layout primitives. Each
// parses a fixed header, then slices out variable-length regions by the
// sizes that header declares.
package segment

import (
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/internal/pool"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/stream"
)

// minDVRegionSize is the minimum size of the DV-entry region within a
// subblock segment's fixed header: the fixed header plus DV entry together
// occupy max(256, 16+DV_size) bytes, i.e. the DV region alone occupies
// max(256-16, DV_size) = max(240, DV_size) bytes.
const minDVRegionSize = 256 - section.SubblockFixedHeaderSize

// Subblock is a fully parsed subblock segment: its directory
// entry copy plus the three payload regions it carries.
type Subblock struct {
	Header     section.SegmentHeader
	Entry      section.DirectoryEntry
	Metadata   []byte
	Data       []byte
	Attachment []byte
}

// dvRegionSize returns the padded size of the DV-entry region for an entry
// whose raw encoding is dvSize bytes.
func dvRegionSize(dvSize int) int {
	return max(minDVRegionSize, dvSize)
}

// ParseSubblock reads and decodes the subblock segment at offset. The returned Entry is re-derived from the segment's own embedded
// DV copy, not the caller's directory; callers that need strict-mode
// cross-checking should compare it against the directory entry themselves.
func ParseSubblock(r stream.Reader, offset int64, engine endian.EndianEngine) (Subblock, error) {
	headerBuf, releaseHeader, err := readScratch(r, section.SegmentHeaderSize, offset)
	if err != nil {
		return Subblock{}, err
	}

	header, err := section.ExpectMagic(headerBuf, section.MagicSubblock)
	releaseHeader()
	if err != nil {
		return Subblock{}, err
	}

	fixedOffset := offset + section.SegmentHeaderSize
	fixedBuf, releaseFixed, err := readScratch(r, section.SubblockFixedHeaderSize, fixedOffset)
	if err != nil {
		return Subblock{}, err
	}

	metadataSize := int32(engine.Uint32(fixedBuf[0:4]))   //nolint:gosec
	attachmentSize := int32(engine.Uint32(fixedBuf[4:8]))  //nolint:gosec
	dataSize := int64(engine.Uint64(fixedBuf[8:16]))       //nolint:gosec
	releaseFixed()

	if metadataSize < 0 || attachmentSize < 0 || dataSize < 0 {
		return Subblock{}, errs.ErrCorruptedData
	}

	// Probe the DV/DE entry's declared length first via a generously sized
	// read of the minimum region, then re-read if an unusually large DV
	// entry (many dimensions) extends past it.
	dvOffset := fixedOffset + section.SubblockFixedHeaderSize
	probe, releaseProbe, err := readScratch(r, minDVRegionSize, dvOffset)
	if err != nil {
		return Subblock{}, err
	}

	entry, consumed, err := section.ParseDirectoryEntry(probe, engine)
	releaseProbe()
	if err != nil {
		return Subblock{}, err
	}

	region := dvRegionSize(consumed)
	if region > len(probe) {
		full, releaseFull, err := readScratch(r, region, dvOffset)
		if err != nil {
			return Subblock{}, err
		}
		entry, _, err = section.ParseDirectoryEntry(full, engine)
		releaseFull()
		if err != nil {
			return Subblock{}, err
		}
	}

	cursor := dvOffset + int64(region)

	metadata := make([]byte, metadataSize)
	if metadataSize > 0 {
		if err := stream.ReadExact(r, metadata, cursor); err != nil {
			return Subblock{}, err
		}
	}
	cursor += int64(metadataSize)

	data := make([]byte, dataSize)
	if dataSize > 0 {
		if err := stream.ReadExact(r, data, cursor); err != nil {
			return Subblock{}, err
		}
	}
	cursor += dataSize

	attachment := make([]byte, attachmentSize)
	if attachmentSize > 0 {
		if err := stream.ReadExact(r, attachment, cursor); err != nil {
			return Subblock{}, err
		}
	}

	return Subblock{Header: header, Entry: entry, Metadata: metadata, Data: data, Attachment: attachment}, nil
}

// Bytes serializes the full subblock segment (header through zero padding
// to AllocatedSize), for callers that already hold the complete payload in
// memory. The streaming writer path
// builds this same layout incrementally; see writer.assembleSubblock.
func (s Subblock) Bytes(engine endian.EndianEngine) []byte {
	return s.BytesSized(engine, 0)
}

// BytesSized serializes the segment like Bytes, but reports AllocatedSize as
// allocated instead of the aligned UsedSize, when allocated is large enough
// to hold the payload. This lets an in-place rewrite keep the reserved slot
// it was given instead of shrinking it to fit the new content, so the slot
// remains reusable by a future replacement. A zero or too-small allocated
// falls back to the aligned UsedSize.
func (s Subblock) BytesSized(engine endian.EndianEngine, allocated int64) []byte {
	dvBytes := s.Entry.Bytes(engine)
	region := dvRegionSize(len(dvBytes))

	used := int64(section.SubblockFixedHeaderSize) + int64(region) + int64(len(s.Metadata)) + int64(len(s.Data)) + int64(len(s.Attachment))
	header := section.NewSegmentHeader(section.MagicSubblock, used)
	if allocated > header.AllocatedSize {
		header.AllocatedSize = allocated
	}

	out := make([]byte, section.SegmentHeaderSize+int(header.AllocatedSize))
	copy(out, header.Bytes())

	fixed := out[section.SegmentHeaderSize : section.SegmentHeaderSize+section.SubblockFixedHeaderSize]
	engine.PutUint32(fixed[0:4], uint32(len(s.Metadata)))   //nolint:gosec
	engine.PutUint32(fixed[4:8], uint32(len(s.Attachment))) //nolint:gosec
	engine.PutUint64(fixed[8:16], uint64(len(s.Data)))      //nolint:gosec

	cursor := section.SegmentHeaderSize + section.SubblockFixedHeaderSize
	copy(out[cursor:cursor+len(dvBytes)], dvBytes)
	cursor += region

	copy(out[cursor:cursor+len(s.Metadata)], s.Metadata)
	cursor += len(s.Metadata)

	copy(out[cursor:cursor+len(s.Data)], s.Data)
	cursor += len(s.Data)

	copy(out[cursor:cursor+len(s.Attachment)], s.Attachment)

	return out
}

// UsedSize returns the segment's UsedSize as Bytes would compute it,
// without materializing the full buffer (used by the writer/reader-writer
// to decide whether an existing segment slot is large enough for a
// replacement).
func (s Subblock) UsedSize(engine endian.EndianEngine) int64 {
	region := dvRegionSize(len(s.Entry.Bytes(engine)))
	return int64(section.SubblockFixedHeaderSize) + int64(region) + int64(len(s.Metadata)) + int64(len(s.Data)) + int64(len(s.Attachment))
}
