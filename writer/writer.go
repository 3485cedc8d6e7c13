// Package writer is the sequential, append-only CZI writer: every
// AddSubblock/AddAttachment/WriteMetadata call appends a new segment at the
// current end of stream, and Close emits both directories and rewrites the
// file header with their final positions. It never reads back what it has
// written: a fixed header reserved up front, a running write cursor, and a
// one-shot finalization step.
//
// Create can additionally pre-reserve placeholder DELETED segments, sized
// to Info's Reserve* fields, for the metadata segment and both directory
// segments. WriteMetadata and Close reuse a reservation in place when the
// final content fits it, and otherwise append as usual, leaving the
// placeholder DELETED and its space unused.
package writer

import (
	"crypto/rand"
	"iter"
	"sync"

	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/segment"
	"github.com/carlzeiss/czi/stream"
)

// PayloadSource yields successive payload chunks; a nil source is treated as
// an all-zero payload of the declared size.
type PayloadSource = iter.Seq[[]byte]

// DeclaredDimension is one entry of a writer's declared coordinate schema:
// every subblock coordinate added later must supply exactly these
// dimensions, each within its bounds.
type DeclaredDimension struct {
	Dimension format.Dimension
	Bounds    directory.Bounds
}

// Info configures Create.
type Info struct {
	// GUID is the file's identity; a zero GUID causes Create to generate a
	// random one.
	GUID format.GUID

	// DeclaredDimensions is the coordinate schema every added subblock's
	// Coordinate must conform to.
	DeclaredDimensions []DeclaredDimension

	// AllowDuplicateSubblocks permits more than one subblock at the same
	// (coordinate, M).
	AllowDuplicateSubblocks bool

	// Strict enables the subblock directory's stricter structural checks.
	Strict bool

	// MinificationFactor feeds the pyramid classifier; 0 defaults to 2.
	MinificationFactor int32

	// ReserveMetadataSize, when > 0, makes Create emit a placeholder DELETED
	// segment of this size (rounded up to the segment alignment) ahead of
	// the first appended subblock. WriteMetadata reuses the placeholder's
	// slot in place when its content fits; otherwise it appends normally
	// and the placeholder is left DELETED.
	ReserveMetadataSize int64

	// ReserveSubblockDirectorySize reserves a placeholder slot for the
	// subblock directory Close emits, with the same fits-or-append behavior
	// as ReserveMetadataSize.
	ReserveSubblockDirectorySize int64

	// ReserveAttachmentDirectorySize reserves a placeholder slot for the
	// attachment directory Close emits, with the same fits-or-append
	// behavior as ReserveMetadataSize.
	ReserveAttachmentDirectorySize int64
}

// AddSubblockInfo describes one subblock to append.
type AddSubblockInfo struct {
	Coordinate map[format.Dimension]int32
	MIndex     int32 // format.InvalidMIndex for "no mosaic index"

	LogicalX, LogicalY, LogicalWidth, LogicalHeight int32
	// StoredWidth/StoredHeight default to LogicalWidth/LogicalHeight (a
	// layer-0 subblock) when left zero.
	StoredWidth, StoredHeight int32

	PixelType   format.PixelType
	Compression format.CompressionMode

	DataSize int64
	Data     PayloadSource

	MetadataSize int64
	Metadata     PayloadSource

	AttachmentSize int64
	Attachment     PayloadSource
}

// AddAttachmentInfo describes one attachment to append.
type AddAttachmentInfo struct {
	ContentGUID     format.GUID
	ContentFileType string
	Name            string

	DataSize int64
	Data     PayloadSource
}

// Writer is the sequential CZI writer.
type Writer struct {
	mu     sync.Mutex
	stream stream.Writer
	engine endian.EndianEngine
	closed bool

	nextPos int64
	guid    format.GUID

	declared        map[format.Dimension]directory.Bounds
	allowDuplicates bool

	subblocks   *directory.SubblockDirectory
	attachments *directory.AttachmentDirectory

	metadataPosition int64

	reservedMetadataPos       int64
	reservedMetadataSize      int64
	reservedSubblockDirPos    int64
	reservedSubblockDirSize   int64
	reservedAttachmentDirPos  int64
	reservedAttachmentDirSize int64
}

// Create reserves the 512-byte file header on w and returns a Writer ready
// to accept subblocks, attachments and metadata. The header is rewritten
// with final directory positions on Close.
func Create(w stream.Writer, info Info) (*Writer, error) {
	guid := info.GUID
	if guid.IsZero() {
		var err error
		guid, err = randomGUID()
		if err != nil {
			return nil, err
		}
	}

	minFactor := info.MinificationFactor
	if minFactor < 2 {
		minFactor = 2
	}

	declared := make(map[format.Dimension]directory.Bounds, len(info.DeclaredDimensions))
	for _, d := range info.DeclaredDimensions {
		declared[d.Dimension] = d.Bounds
	}

	wr := &Writer{
		stream:          w,
		engine:          endian.LittleEndian(),
		nextPos:         section.FileHeaderSize,
		guid:            guid,
		declared:        declared,
		allowDuplicates: info.AllowDuplicateSubblocks,
		subblocks:       directory.NewSubblockDirectory(info.Strict, minFactor),
		attachments:     directory.NewAttachmentDirectory(),
	}

	fh := section.NewFileHeader(guid)
	if err := stream.WriteExact(w, fh.Bytes(), 0); err != nil {
		return nil, err
	}

	var err error
	if wr.reservedSubblockDirPos, wr.reservedSubblockDirSize, err = wr.reserve(info.ReserveSubblockDirectorySize); err != nil {
		return nil, err
	}
	if wr.reservedAttachmentDirPos, wr.reservedAttachmentDirSize, err = wr.reserve(info.ReserveAttachmentDirectorySize); err != nil {
		return nil, err
	}
	if wr.reservedMetadataPos, wr.reservedMetadataSize, err = wr.reserve(info.ReserveMetadataSize); err != nil {
		return nil, err
	}

	return wr, nil
}

// reserve appends a placeholder DELETED segment of size bytes (rounded up to
// the segment alignment) at the writer's current cursor, advancing it past
// the placeholder. It returns the placeholder's position and allocated size,
// both zero when size is not positive.
func (w *Writer) reserve(size int64) (position, allocated int64, err error) {
	if size <= 0 {
		return 0, 0, nil
	}

	header := section.NewSegmentHeader(section.MagicDeleted, 0)
	header.AllocatedSize = endian.AlignSegmentSize(size)

	buf := make([]byte, section.SegmentHeaderSize+int(header.AllocatedSize))
	copy(buf, header.Bytes())

	position = w.nextPos
	if err := stream.WriteExact(w.stream, buf, position); err != nil {
		return 0, 0, err
	}
	w.nextPos += int64(len(buf))

	return position, header.AllocatedSize, nil
}

func randomGUID() (format.GUID, error) {
	var raw [format.GUIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return format.GUID{}, err
	}

	return format.ParseGUID(raw[:], endian.LittleEndian())
}

func collectPayload(size int64, src PayloadSource) []byte {
	out := make([]byte, size)
	if src == nil || size == 0 {
		return out
	}

	var pos int64
	for chunk := range src {
		if pos >= size {
			break
		}
		n := copy(out[pos:], chunk)
		pos += int64(n)
	}

	return out
}

// validateCoordinate checks coord against the writer's declared dimension
// schema.
func (w *Writer) validateCoordinate(coord map[format.Dimension]int32) error {
	for dim, b := range w.declared {
		v, present := coord[dim]
		if !present {
			return errs.ErrSubBlockCoordinateInsufficient
		}
		if !b.Contains(v) {
			return errs.ErrSubBlockCoordinateOutOfBounds
		}
	}

	for dim := range coord {
		if _, declared := w.declared[dim]; !declared {
			return errs.ErrAddCoordinateUnexpectedDimension
		}
	}

	return nil
}

// AddSubblock appends a new subblock segment and its directory entry,
// returning the entry's index.
func (w *Writer) AddSubblock(info AddSubblockInfo) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return -1, errs.ErrNotOperational
	}

	if info.LogicalWidth <= 0 || info.LogicalHeight <= 0 {
		return -1, errs.ErrIllegalData
	}

	if info.Compression == format.CompressionInvalid {
		return -1, errs.ErrIllegalData
	}

	if err := w.validateCoordinate(info.Coordinate); err != nil {
		return -1, err
	}

	storedW, storedH := info.StoredWidth, info.StoredHeight
	if storedW == 0 {
		storedW = info.LogicalWidth
	}
	if storedH == 0 {
		storedH = info.LogicalHeight
	}

	dims := []section.DimensionEntry{
		{Dimension: format.DimX, Start: info.LogicalX, Size: info.LogicalWidth, StoredSize: storedW},
		{Dimension: format.DimY, Start: info.LogicalY, Size: info.LogicalHeight, StoredSize: storedH},
	}
	if format.IsValidMIndex(info.MIndex) {
		dims = append(dims, section.DimensionEntry{Dimension: format.DimM, Start: info.MIndex, Size: 1, StoredSize: 1})
	}
	for dim, v := range info.Coordinate {
		dims = append(dims, section.DimensionEntry{Dimension: dim, Start: v, Size: 1, StoredSize: 1})
	}

	entry := section.DirectoryEntry{
		PixelType:      info.PixelType,
		FilePosition:   w.nextPos,
		RawCompression: int32(info.Compression),
		Dimensions:     dims,
	}

	if !w.allowDuplicates {
		if _, exists := w.subblocks.Find(info.Coordinate, info.MIndex); exists {
			return -1, errs.ErrAddCoordinateAlreadyExisting
		}
	}

	sb := segment.Subblock{
		Entry:      entry,
		Metadata:   collectPayload(info.MetadataSize, info.Metadata),
		Data:       collectPayload(info.DataSize, info.Data),
		Attachment: collectPayload(info.AttachmentSize, info.Attachment),
	}

	raw := sb.Bytes(w.engine)
	if err := stream.WriteExact(w.stream, raw, w.nextPos); err != nil {
		return -1, err
	}
	w.nextPos += int64(len(raw))

	var (
		idx int
		err error
	)
	if w.allowDuplicates {
		idx, err = w.subblocks.AddAllowingDuplicates(entry)
	} else {
		idx, err = w.subblocks.Add(entry)
	}

	return idx, err
}

// AddAttachment appends a new attachment segment and its directory entry.
func (w *Writer) AddAttachment(info AddAttachmentInfo) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return -1, errs.ErrNotOperational
	}

	entry := section.NewAttachmentEntry(w.nextPos, info.ContentGUID, info.ContentFileType, info.Name)
	if _, exists := w.attachments.Find(entry.Key()); exists {
		return -1, errs.ErrAddAttachmentAlreadyExisting
	}

	att := segment.Attachment{Entry: entry, Data: collectPayload(info.DataSize, info.Data)}
	raw := att.Bytes(w.engine)
	if err := stream.WriteExact(w.stream, raw, w.nextPos); err != nil {
		return -1, err
	}
	w.nextPos += int64(len(raw))

	return w.attachments.Add(entry)
}

// WriteMetadata appends a metadata segment, or writes it into the slot
// reserved by Info.ReserveMetadataSize when the content fits. A writer that
// calls this more than once simply appends again (after the first call
// either way, the reservation is spent) and repoints the file header at the
// latest segment on Close; Create's append-only model never reclaims
// earlier appended bytes (the in-place readerwriter.Engine handles
// reuse-or-append for an existing file).
func (w *Writer) WriteMetadata(xml, attachment []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errs.ErrNotOperational
	}

	md := segment.Metadata{XML: xml, Attachment: attachment}

	if reserved := w.reservedMetadataSize; reserved > 0 {
		w.reservedMetadataSize = 0
		if endian.AlignSegmentSize(md.UsedSize()) <= reserved {
			raw := md.BytesSized(w.engine, reserved)
			if err := stream.WriteExact(w.stream, raw, w.reservedMetadataPos); err != nil {
				return err
			}
			w.metadataPosition = w.reservedMetadataPos

			return nil
		}
	}

	raw := md.Bytes(w.engine)
	position := w.nextPos
	if err := stream.WriteExact(w.stream, raw, position); err != nil {
		return err
	}
	w.nextPos += int64(len(raw))
	w.metadataPosition = position

	return nil
}

// Close emits the subblock directory and attachment directory segments,
// reusing a reserved slot in place when the segment's content fits it, and
// otherwise appending. It then rewrites the file header with their final
// positions and marks the writer closed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errs.ErrNotOperational
	}

	dirSeg := segment.SubblockDirectorySegment{Entries: w.subblocks.Entries()}
	subblockDirPos, err := w.emitDirectory(dirSeg.UsedSize(w.engine), w.reservedSubblockDirPos, w.reservedSubblockDirSize,
		func(allocated int64) []byte { return dirSeg.BytesSized(w.engine, allocated) })
	if err != nil {
		return err
	}

	var attachmentDirPos int64
	if w.attachments.Len() > 0 {
		attDirSeg := segment.AttachmentDirectorySegment{Entries: w.attachments.Entries()}
		attachmentDirPos, err = w.emitDirectory(attDirSeg.UsedSize(), w.reservedAttachmentDirPos, w.reservedAttachmentDirSize,
			func(allocated int64) []byte { return attDirSeg.BytesSized(w.engine, allocated) })
		if err != nil {
			return err
		}
	}

	fh := section.NewFileHeader(w.guid)
	fh.SubblockDirectoryPosition = subblockDirPos
	fh.MetadataPosition = w.metadataPosition
	fh.AttachmentDirectoryPosition = attachmentDirPos

	if err := stream.WriteExact(w.stream, fh.Bytes(), 0); err != nil {
		return err
	}

	w.closed = true
	if closer, ok := w.stream.(stream.Closer); ok {
		return closer.Close()
	}

	return nil
}

// emitDirectory writes a directory segment into its reserved slot when used
// fits reservedSize, and otherwise appends it at the write cursor. encode
// builds the segment's bytes for a given AllocatedSize. It returns the
// position the segment was written at.
func (w *Writer) emitDirectory(used, reservedPos, reservedSize int64, encode func(allocated int64) []byte) (int64, error) {
	if reservedSize > 0 && endian.AlignSegmentSize(used) <= reservedSize {
		raw := encode(reservedSize)
		if err := stream.WriteExact(w.stream, raw, reservedPos); err != nil {
			return 0, err
		}

		return reservedPos, nil
	}

	position := w.nextPos
	raw := encode(0)
	if err := stream.WriteExact(w.stream, raw, position); err != nil {
		return 0, err
	}
	w.nextPos += int64(len(raw))

	return position, nil
}
