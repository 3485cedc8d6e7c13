// Package reader is the read-only façade over an existing CZI file: it
// opens a stream, parses the file header and both directories, and exposes
// enumerate/read operations. It follows a parse-fixed-structures-up-front,
// then-expose-typed-accessors shape, generalized to a segmented,
// directory-indexed container.
package reader

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
)

// Reader is the read-only façade over an open CZI stream.
type Reader struct {
	mu     sync.Mutex
	stream stream.Reader

	engine      endian.EndianEngine
	fileHeader  section.FileHeader
	subblocks   *directory.SubblockDirectory
	attachments *directory.AttachmentDirectory
	config      *libconfig.Config

	metadataMu     sync.Mutex
	metadataLoaded bool
	metadata       segment.Metadata
}

// Open parses the file header and both directories from r.
// If cfg is nil, libconfig defaults are used.
func Open(r stream.Reader, cfg *libconfig.Config) (*Reader, error) {
	if cfg == nil {
		var err error
		cfg, err = libconfig.New()
		if err != nil {
			return nil, err
		}
	}

	engine := endian.LittleEndian()

	headerBuf := make([]byte, section.FileHeaderSize)
	if err := stream.ReadExact(r, headerBuf, 0); err != nil {
		return nil, err
	}

	fileHeader, err := section.ParseFileHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	rd := &Reader{
		stream:      r,
		engine:      engine,
		fileHeader:  fileHeader,
		subblocks:   directory.NewSubblockDirectory(cfg.Strict, cfg.MinificationFactor),
		attachments: directory.NewAttachmentDirectory(),
		config:      cfg,
	}

	if fileHeader.HasSubblockDirectory() {
		dirSeg, err := segment.ParseSubblockDirectorySegment(r, fileHeader.SubblockDirectoryPosition, engine)
		if err != nil {
			if !cfg.Strict {
				// lax mode tolerates a corrupt/absent directory; reader
				// simply exposes zero subblocks.
			} else {
				return nil, err
			}
		} else {
			for _, e := range dirSeg.Entries {
				if _, addErr := rd.subblocks.Add(e); addErr != nil && cfg.Strict {
					return nil, addErr
				}
			}
		}
	}

	if fileHeader.HasAttachmentDirectory() {
		attDirSeg, err := segment.ParseAttachmentDirectorySegment(r, fileHeader.AttachmentDirectoryPosition, engine)
		if err != nil {
			return nil, err
		}
		for _, e := range attDirSeg.Entries {
			if _, addErr := rd.attachments.Add(e); addErr != nil {
				return nil, addErr
			}
		}
	}

	rd.subblocks.Consolidate()

	return rd, nil
}

func (r *Reader) activeStream() (stream.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return nil, errs.ErrNotOperational
	}

	return r.stream, nil
}

// Close atomically drops the reader's stream handle; subsequent calls fail
// with errs.ErrNotOperational. In-flight reads that already captured the
// stream reference via activeStream complete normally. The stream itself is
// not closed; it stays owned by the caller that passed it to Open.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return errs.ErrNotOperational
	}

	r.stream = nil

	return nil
}

// EnumerateSubblocks calls fn(index, entry) for every subblock directory
// entry in storage order, stopping early if fn returns false.
func (r *Reader) EnumerateSubblocks(fn func(index int, entry section.DirectoryEntry) bool) error {
	if _, err := r.activeStream(); err != nil {
		return err
	}

	for i, e := range r.subblocks.Entries() {
		if !fn(i, e) {
			return nil
		}
	}

	return nil
}

// TryGetSubblockInfo returns directory-level info for index without reading
// the subblock segment.
func (r *Reader) TryGetSubblockInfo(index int) (section.DirectoryEntry, bool) {
	if index < 0 || index >= r.subblocks.Len() {
		return section.DirectoryEntry{}, false
	}

	return r.subblocks.At(index), true
}

// ReadSubblock parses and returns the subblock segment at the directory's
// recorded file position for index.
func (r *Reader) ReadSubblock(index int) (segment.Subblock, error) {
	s, err := r.activeStream()
	if err != nil {
		return segment.Subblock{}, err
	}

	entry, ok := r.TryGetSubblockInfo(index)
	if !ok {
		return segment.Subblock{}, errs.ErrInvalidSubBlockID
	}

	return segment.ParseSubblock(s, entry.FilePosition, r.engine)
}

// GetStatistics returns the subblock directory's consolidated statistics.
func (r *Reader) GetStatistics() directory.Statistics {
	return r.subblocks.Statistics()
}

// GetPyramidStatistics returns the consolidated pyramid-layer histogram.
func (r *Reader) GetPyramidStatistics() directory.PyramidStatistics {
	return r.subblocks.PyramidStatistics()
}

// EnumerateAttachments calls fn(index, entry) for every attachment entry.
func (r *Reader) EnumerateAttachments(fn func(index int, entry section.AttachmentEntry) bool) error {
	if _, err := r.activeStream(); err != nil {
		return err
	}

	for i, e := range r.attachments.Entries() {
		if !fn(i, e) {
			return nil
		}
	}

	return nil
}

// ReadAttachment parses and returns the attachment segment at index.
func (r *Reader) ReadAttachment(index int) (segment.Attachment, error) {
	s, err := r.activeStream()
	if err != nil {
		return segment.Attachment{}, err
	}

	if index < 0 || index >= r.attachments.Len() {
		return segment.Attachment{}, errs.ErrInvalidAttachmentID
	}

	entry := r.attachments.At(index)

	return segment.ParseAttachment(s, entry.FilePosition, r.engine)
}

// ReadMetadata lazily parses and caches the metadata segment.
func (r *Reader) ReadMetadata() (segment.Metadata, error) {
	s, err := r.activeStream()
	if err != nil {
		return segment.Metadata{}, err
	}

	if !r.fileHeader.HasMetadata() {
		return segment.Metadata{}, errs.ErrSegmentNotPresent
	}

	r.metadataMu.Lock()
	defer r.metadataMu.Unlock()

	if r.metadataLoaded {
		return r.metadata, nil
	}

	md, err := segment.ParseMetadata(s, r.fileHeader.MetadataPosition, r.engine)
	if err != nil {
		return segment.Metadata{}, err
	}

	r.metadata = md
	r.metadataLoaded = true

	return md, nil
}

// ValidatePlaneCoordinate checks coord against the directory's declared
// dimension bounds. S may never appear in a plane
// coordinate; every declared dimension whose bounds span more than one
// value must be present and in range; any coordinate dimension absent from
// the declared bounds is a surplus dimension.
func (r *Reader) ValidatePlaneCoordinate(coord map[format.Dimension]int32) error {
	if _, ok := coord[format.DimS]; ok {
		return &errs.InvalidPlaneCoordinate{Dimension: byte(format.DimS), Reason: errs.ErrInvalidDimensionS}
	}

	bounds := r.subblocks.Statistics().DimBounds

	for dim, b := range bounds {
		if !dim.IsPlaneCoordinate() {
			continue
		}
		if _, present := coord[dim]; !present {
			if b.Size() == 1 {
				continue
			}

			return &errs.InvalidPlaneCoordinate{Dimension: byte(dim), Reason: errs.ErrMissingDimension}
		}
	}

	for dim, v := range coord {
		if dim == format.DimS {
			continue
		}
		b, declared := bounds[dim]
		if !declared {
			return &errs.InvalidPlaneCoordinate{Dimension: byte(dim), Reason: errs.ErrSurplusDimension}
		}
		if !b.Contains(v) {
			return &errs.InvalidPlaneCoordinate{Dimension: byte(dim), Reason: errs.ErrCoordinateOutOfRange}
		}
	}

	return nil
}

// EnumerateSubset filters subblock directory entries by plane-coordinate
// match, ROI intersection, and optionally only-layer-0.
func (r *Reader) EnumerateSubset(
	planeCoord map[format.Dimension]int32,
	roi directory.Rect,
	onlyLayer0 bool,
	fn func(index int, entry section.DirectoryEntry) bool,
) error {
	if _, err := r.activeStream(); err != nil {
		return err
	}

	if err := r.ValidatePlaneCoordinate(planeCoord); err != nil {
		return err
	}

	for i, e := range r.subblocks.Entries() {
		if onlyLayer0 && !e.IsLayer0() {
			continue
		}

		if !matchesPlane(e, planeCoord) {
			continue
		}

		x, y, w, h := e.LogicalRect()
		rect := directory.Rect{X: x, Y: y, Width: w, Height: h}
		if rect.Intersect(roi).IsEmpty() {
			continue
		}

		if !fn(i, e) {
			return nil
		}
	}

	return nil
}

func matchesPlane(e section.DirectoryEntry, planeCoord map[format.Dimension]int32) bool {
	coord := e.Coordinate()
	for dim, v := range planeCoord {
		ev, ok := coord[dim]
		if !ok || ev != v {
			return false
		}
	}

	return true
}
