// Package readerwriter is the in-place read/modify/write engine: it opens
// an existing CZI file for both reading and mutation, replacing or removing
// subblocks/attachments/metadata in place when the existing segment's
// reserved slot is large enough, and otherwise marking the old segment
// DELETED and appending the replacement at the end of the stream. This
// engine is built directly on this module's own segment/directory/stream
// primitives: Engine.Create parses exactly the way reader.Open does, and
// its mutation paths reuse the same segment Bytes/UsedSize helpers writer
// uses to append.
package readerwriter

import (
	"sync"

	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/libconfig"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/segment"
	"github.com/carlzeiss/czi/stream"
	"github.com/carlzeiss/czi/writer"
)

// Engine is the in-place read/modify/write engine over an existing CZI
// stream.
type Engine struct {
	mu     sync.Mutex
	stream stream.ReadWriter
	engine endian.EndianEngine
	closed bool
	dirty  bool

	fileHeader       section.FileHeader
	subblocks        *directory.SubblockDirectory
	attachments      *directory.AttachmentDirectory
	config           *libconfig.Config
	nextPos          int64
	subblockDirPos   int64
	attachmentDirPos int64
	metadataPosition int64
}

// ReplaceSubblockInfo describes a replacement payload for an existing
// subblock; its coordinate and M-index are unchanged.
type ReplaceSubblockInfo struct {
	StoredWidth, StoredHeight int32 // 0 keeps the existing stored size
	PixelType                 format.PixelType
	Compression               format.CompressionMode

	DataSize int64
	Data     writer.PayloadSource

	MetadataSize int64
	Metadata     writer.PayloadSource

	AttachmentSize int64
	Attachment     writer.PayloadSource
}

// Create parses the file header and both directories from rw, and scans
// every known segment to establish the stream's current end of file so
// later appends land past everything already written.
func Create(rw stream.ReadWriter, cfg *libconfig.Config) (*Engine, error) {
	if cfg == nil {
		var err error
		cfg, err = libconfig.New()
		if err != nil {
			return nil, err
		}
	}

	engine := endian.LittleEndian()

	headerBuf := make([]byte, section.FileHeaderSize)
	if err := stream.ReadExact(rw, headerBuf, 0); err != nil {
		return nil, err
	}

	fileHeader, err := section.ParseFileHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		stream:           rw,
		engine:           engine,
		fileHeader:       fileHeader,
		subblocks:        directory.NewSubblockDirectory(cfg.Strict, cfg.MinificationFactor),
		attachments:      directory.NewAttachmentDirectory(),
		config:           cfg,
		nextPos:          int64(section.FileHeaderSize),
		metadataPosition: fileHeader.MetadataPosition,
	}

	if fileHeader.HasSubblockDirectory() {
		e.subblockDirPos = fileHeader.SubblockDirectoryPosition
		dirSeg, err := segment.ParseSubblockDirectorySegment(rw, fileHeader.SubblockDirectoryPosition, engine)
		if err != nil {
			return nil, err
		}
		for _, entry := range dirSeg.Entries {
			if _, addErr := e.subblocks.Add(entry); addErr != nil && cfg.Strict {
				return nil, addErr
			}
		}
		if end, err := e.segmentEnd(fileHeader.SubblockDirectoryPosition); err == nil {
			e.nextPos = max(e.nextPos, end)
		}
	}

	if fileHeader.HasAttachmentDirectory() {
		e.attachmentDirPos = fileHeader.AttachmentDirectoryPosition
		attDirSeg, err := segment.ParseAttachmentDirectorySegment(rw, fileHeader.AttachmentDirectoryPosition, engine)
		if err != nil {
			return nil, err
		}
		for _, entry := range attDirSeg.Entries {
			if _, addErr := e.attachments.Add(entry); addErr != nil {
				return nil, addErr
			}
		}
		if end, err := e.segmentEnd(fileHeader.AttachmentDirectoryPosition); err == nil {
			e.nextPos = max(e.nextPos, end)
		}
	}

	if fileHeader.HasMetadata() {
		if end, err := e.segmentEnd(fileHeader.MetadataPosition); err == nil {
			e.nextPos = max(e.nextPos, end)
		}
	}

	for _, entry := range e.subblocks.Entries() {
		if end, err := e.segmentEnd(entry.FilePosition); err == nil {
			e.nextPos = max(e.nextPos, end)
		}
	}
	for _, entry := range e.attachments.Entries() {
		if end, err := e.segmentEnd(entry.FilePosition); err == nil {
			e.nextPos = max(e.nextPos, end)
		}
	}

	e.subblocks.Consolidate()

	return e, nil
}

// EnumerateSubblocks calls fn(index, entry) for every subblock directory
// entry in storage order, stopping early if fn returns false.
func (e *Engine) EnumerateSubblocks(fn func(index int, entry section.DirectoryEntry) bool) {
	for i, entry := range e.subblocks.Entries() {
		if !fn(i, entry) {
			return
		}
	}
}

// EnumerateAttachments calls fn(index, entry) for every attachment entry.
func (e *Engine) EnumerateAttachments(fn func(index int, entry section.AttachmentEntry) bool) {
	for i, entry := range e.attachments.Entries() {
		if !fn(i, entry) {
			return
		}
	}
}

// ReadSubblock parses and returns the subblock segment at index.
func (e *Engine) ReadSubblock(index int) (segment.Subblock, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return segment.Subblock{}, errs.ErrNotOperational
	}
	if index < 0 || index >= e.subblocks.Len() {
		return segment.Subblock{}, errs.ErrInvalidSubBlockID
	}

	entry := e.subblocks.At(index)

	return segment.ParseSubblock(e.stream, entry.FilePosition, e.engine)
}

// Statistics returns the subblock directory's consolidated statistics.
func (e *Engine) Statistics() directory.Statistics {
	return e.subblocks.Statistics()
}

func (e *Engine) segmentEnd(pos int64) (int64, error) {
	buf := make([]byte, section.SegmentHeaderSize)
	if err := stream.ReadExact(e.stream, buf, pos); err != nil {
		return 0, err
	}

	h, err := section.ParseSegmentHeader(buf)
	if err != nil {
		return 0, err
	}

	return pos + section.SegmentHeaderSize + h.AllocatedSize, nil
}

func (e *Engine) markDeleted(pos int64) error {
	buf := make([]byte, section.SegmentHeaderSize)
	if err := stream.ReadExact(e.stream, buf, pos); err != nil {
		return err
	}

	h, err := section.ParseSegmentHeader(buf)
	if err != nil {
		return err
	}

	return stream.WriteExact(e.stream, h.MarkDeleted().Bytes(), pos)
}

// ReplaceSubblock rewrites the subblock at index, reusing its existing
// segment slot if the new content fits, else marking it DELETED and
// appending the replacement.
func (e *Engine) ReplaceSubblock(index int, info ReplaceSubblockInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errs.ErrNotOperational
	}

	if index < 0 || index >= e.subblocks.Len() {
		return errs.ErrInvalidSubBlockID
	}

	existing := e.subblocks.At(index)
	allocated, err := e.allocatedSize(existing.FilePosition)
	if err != nil {
		return err
	}

	storedW, storedH := info.StoredWidth, info.StoredHeight
	newEntry := existing
	newEntry.PixelType = info.PixelType
	newEntry.RawCompression = int32(info.Compression)
	newEntry.Dimensions = append([]section.DimensionEntry(nil), existing.Dimensions...)
	for i, d := range newEntry.Dimensions {
		switch d.Dimension {
		case format.DimX:
			if storedW != 0 {
				newEntry.Dimensions[i].StoredSize = storedW
			}
		case format.DimY:
			if storedH != 0 {
				newEntry.Dimensions[i].StoredSize = storedH
			}
		}
	}

	sb := segment.Subblock{
		Entry:      newEntry,
		Metadata:   collectPayload(info.MetadataSize, info.Metadata),
		Data:       collectPayload(info.DataSize, info.Data),
		Attachment: collectPayload(info.AttachmentSize, info.Attachment),
	}

	needed := endian.AlignSegmentSize(sb.UsedSize(e.engine))

	if needed <= allocated {
		newEntry.FilePosition = existing.FilePosition
		sb.Entry = newEntry
		raw := sb.BytesSized(e.engine, allocated)
		if err := stream.WriteExact(e.stream, raw, existing.FilePosition); err != nil {
			return err
		}
	} else {
		if err := e.markDeleted(existing.FilePosition); err != nil {
			return err
		}
		newEntry.FilePosition = e.nextPos
		sb.Entry = newEntry
		raw := sb.Bytes(e.engine)
		if err := stream.WriteExact(e.stream, raw, e.nextPos); err != nil {
			return err
		}
		e.nextPos += int64(len(raw))
	}

	if err := e.subblocks.Replace(index, newEntry); err != nil {
		return err
	}
	e.dirty = true

	return nil
}

// RemoveSubblock marks the subblock's segment DELETED and removes its
// directory entry. Indices at or after
// index shift down by one.
func (e *Engine) RemoveSubblock(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errs.ErrNotOperational
	}

	if index < 0 || index >= e.subblocks.Len() {
		return errs.ErrInvalidSubBlockID
	}

	entry := e.subblocks.At(index)
	if err := e.markDeleted(entry.FilePosition); err != nil {
		return err
	}
	if err := e.subblocks.Remove(index); err != nil {
		return err
	}
	e.dirty = true

	return nil
}

// ReplaceAttachment rewrites the attachment at index in place if its new
// payload fits the existing slot, else appends it.
func (e *Engine) ReplaceAttachment(index int, dataSize int64, data writer.PayloadSource) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errs.ErrNotOperational
	}

	if index < 0 || index >= e.attachments.Len() {
		return errs.ErrInvalidAttachmentID
	}

	existing := e.attachments.At(index)
	allocated, err := e.allocatedSize(existing.FilePosition)
	if err != nil {
		return err
	}

	att := segment.Attachment{Entry: existing, Data: collectPayload(dataSize, data)}
	needed := endian.AlignSegmentSize(att.UsedSize())

	if needed <= allocated {
		raw := att.BytesSized(e.engine, allocated)
		if err := stream.WriteExact(e.stream, raw, existing.FilePosition); err != nil {
			return err
		}
	} else {
		if err := e.markDeleted(existing.FilePosition); err != nil {
			return err
		}
		existing.FilePosition = e.nextPos
		att.Entry = existing
		raw := att.Bytes(e.engine)
		if err := stream.WriteExact(e.stream, raw, e.nextPos); err != nil {
			return err
		}
		e.nextPos += int64(len(raw))
	}

	if err := e.attachments.Replace(index, existing); err != nil {
		return err
	}
	e.dirty = true

	return nil
}

// RemoveAttachment marks the attachment's segment DELETED and removes its
// directory entry.
func (e *Engine) RemoveAttachment(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errs.ErrNotOperational
	}

	if index < 0 || index >= e.attachments.Len() {
		return errs.ErrInvalidAttachmentID
	}

	entry := e.attachments.At(index)
	if err := e.markDeleted(entry.FilePosition); err != nil {
		return err
	}
	if err := e.attachments.Remove(index); err != nil {
		return err
	}
	e.dirty = true

	return nil
}

// ReplaceMetadata rewrites the metadata segment in place if it fits, else
// appends a new one and repoints the file header.
func (e *Engine) ReplaceMetadata(xml, attachment []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errs.ErrNotOperational
	}

	md := segment.Metadata{XML: xml, Attachment: attachment}
	needed := endian.AlignSegmentSize(md.UsedSize())

	if e.fileHeader.HasMetadata() {
		allocated, err := e.allocatedSize(e.metadataPosition)
		if err == nil && needed <= allocated {
			raw := md.BytesSized(e.engine, allocated)
			if err := stream.WriteExact(e.stream, raw, e.metadataPosition); err != nil {
				return err
			}
			e.dirty = true
			return nil
		}
		if err == nil {
			if err := e.markDeleted(e.metadataPosition); err != nil {
				return err
			}
		}
	}

	raw := md.Bytes(e.engine)
	position := e.nextPos
	if err := stream.WriteExact(e.stream, raw, position); err != nil {
		return err
	}
	e.nextPos += int64(len(raw))
	e.metadataPosition = position
	e.dirty = true

	return nil
}

func (e *Engine) allocatedSize(pos int64) (int64, error) {
	buf := make([]byte, section.SegmentHeaderSize)
	if err := stream.ReadExact(e.stream, buf, pos); err != nil {
		return 0, err
	}

	h, err := section.ParseSegmentHeader(buf)
	if err != nil {
		return 0, err
	}

	return h.AllocatedSize, nil
}

func collectPayload(size int64, src writer.PayloadSource) []byte {
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

// Close rewrites the subblock and attachment directories and file header
// if anything was mutated, then releases the stream. A no-op Engine (nothing replaced or removed) skips the rewrite.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errs.ErrNotOperational
	}

	if e.dirty {
		if e.subblockDirPos != 0 {
			if err := e.markDeleted(e.subblockDirPos); err != nil {
				return err
			}
		}
		e.subblockDirPos = e.nextPos
		dirSeg := segment.SubblockDirectorySegment{Entries: e.subblocks.Entries()}
		dirBytes := dirSeg.Bytes(e.engine)
		if err := stream.WriteExact(e.stream, dirBytes, e.nextPos); err != nil {
			return err
		}
		e.nextPos += int64(len(dirBytes))

		if e.attachmentDirPos != 0 {
			if err := e.markDeleted(e.attachmentDirPos); err != nil {
				return err
			}
		}
		if e.attachments.Len() > 0 {
			e.attachmentDirPos = e.nextPos
			attDirSeg := segment.AttachmentDirectorySegment{Entries: e.attachments.Entries()}
			attDirBytes := attDirSeg.Bytes(e.engine)
			if err := stream.WriteExact(e.stream, attDirBytes, e.nextPos); err != nil {
				return err
			}
			e.nextPos += int64(len(attDirBytes))
		} else {
			e.attachmentDirPos = 0
		}

		e.fileHeader.SubblockDirectoryPosition = e.subblockDirPos
		e.fileHeader.AttachmentDirectoryPosition = e.attachmentDirPos
		e.fileHeader.MetadataPosition = e.metadataPosition

		if err := stream.WriteExact(e.stream, e.fileHeader.Bytes(), 0); err != nil {
			return err
		}
	}

	e.closed = true
	if closer, ok := e.stream.(stream.Closer); ok {
		return closer.Close()
	}

	return nil
}
