package section

// Fixed on-disk sizes.
const (
	SegmentHeaderSize = 32  // id[16] + allocated_size(i64) + used_size(i64)
	FileHeaderSize    = 512 // segment header + file header data, fixed total

	AttachmentSegmentFixedSize = 256 // data_size + spare + A1 entry + spare
	AttachmentEntrySize        = 128 // on-disk AttachmentEntryA1 size within the attachment directory
	AttachmentDirHeaderSize    = 256 // entry_count:i32 + spare[252]

	MetadataSegmentFixedSize = 256 // xml_size + attachment_size + spare[248]

	SubblockFixedHeaderSize = 16 // metadata_size:i32, attachment_size:i32, data_size:i64

	MaxDimensionEntries = 40 // upper bound on dimensions per directory entry
	DimensionEntrySize  = 20 // dim[4], start:i32, size:i32, start_coord:f32, stored_size:i32
	DVFixedHeaderSize   = 32 // schema[2], pixel_type:i32, file_position:i64, file_part:i32, compression:i32, spare[6], dimension_count:i32

	DEFixedHeaderSize    = 28 // schema[2], pixel_type:i32, file_position:i64, file_part:i32, compression:i32, pyramid_type:i8, spare[5]
	DEDimensionEntrySize = 16 // dim[4], start:i32, size:i32, start_coord:f32 (no stored_size: DE predates pyramid subblocks)
	DEDimensionSlots     = 6  // DE carries a fixed six dimension slots, zero-dimension slots unused
)

// Segment magic strings (16 bytes, ASCII, NUL-padded).
const (
	MagicFile             = "ZISRAWFILE"
	MagicSubblockDirectory = "ZISRAWDIRECTORY"
	MagicSubblock         = "ZISRAWSUBBLOCK"
	MagicMetadata         = "ZISRAWMETADATA"
	MagicAttachmentDir    = "ZISRAWATTDIR"
	MagicAttachment       = "ZISRAWATTACH"
	MagicDeleted          = "DELETED"
)

// fixedMagic pads s with NUL bytes to SegmentHeaderID size (16 bytes).
func fixedMagic(s string) [16]byte {
	var b [16]byte
	copy(b[:], s)

	return b
}

// knownMagics lists every magic value Parse recognizes; anything else is
// ErrInvalidMagic / ErrCorruptedData depending on the caller.
var knownMagics = map[[16]byte]string{
	fixedMagic(MagicFile):              MagicFile,
	fixedMagic(MagicSubblockDirectory): MagicSubblockDirectory,
	fixedMagic(MagicSubblock):          MagicSubblock,
	fixedMagic(MagicMetadata):          MagicMetadata,
	fixedMagic(MagicAttachmentDir):     MagicAttachmentDir,
	fixedMagic(MagicAttachment):        MagicAttachment,
	fixedMagic(MagicDeleted):           MagicDeleted,
}
