package section

import (
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
)

// FileHeader is the fixed 512-byte segment (header + data) at offset 0 of
// every CZI file.
type FileHeader struct {
	Major                      int32
	Minor                      int32
	PrimaryFileGUID            format.GUID
	FileGUID                   format.GUID
	FilePart                   int32
	SubblockDirectoryPosition  int64
	MetadataPosition           int64
	UpdatePending              int32
	AttachmentDirectoryPosition int64
}

// NewFileHeader builds a fresh v1.0 header with both GUID fields set to
// guid (single-file case) and every position field set to "not present".
func NewFileHeader(guid format.GUID) FileHeader {
	return FileHeader{
		Major:           1,
		Minor:           0,
		PrimaryFileGUID: guid,
		FileGUID:        guid,
	}
}

// HasSubblockDirectory reports whether SubblockDirectoryPosition is present.
func (h FileHeader) HasSubblockDirectory() bool { return h.SubblockDirectoryPosition != 0 }

// HasMetadata reports whether MetadataPosition is present.
func (h FileHeader) HasMetadata() bool { return h.MetadataPosition != 0 }

// HasAttachmentDirectory reports whether AttachmentDirectoryPosition is present.
func (h FileHeader) HasAttachmentDirectory() bool { return h.AttachmentDirectoryPosition != 0 }

// ParseFileHeader decodes the 512-byte file header segment (including its
// 32-byte SegmentHeader) starting at data[0].
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, errs.ErrInvalidHeaderSize
	}

	if _, err := ExpectMagic(data[:SegmentHeaderSize], MagicFile); err != nil {
		return FileHeader{}, err
	}

	engine := endian.LittleEndian()
	body := data[SegmentHeaderSize:FileHeaderSize]

	var h FileHeader
	h.Major = int32(engine.Uint32(body[0:4]))  //nolint:gosec
	h.Minor = int32(engine.Uint32(body[4:8]))  //nolint:gosec
	// body[8:16] reserved1/reserved2

	var err error
	h.PrimaryFileGUID, err = format.ParseGUID(body[16:32], engine)
	if err != nil {
		return FileHeader{}, err
	}

	h.FileGUID, err = format.ParseGUID(body[32:48], engine)
	if err != nil {
		return FileHeader{}, err
	}

	h.FilePart = int32(engine.Uint32(body[48:52])) //nolint:gosec
	h.SubblockDirectoryPosition = int64(engine.Uint64(body[52:60])) //nolint:gosec
	h.MetadataPosition = int64(engine.Uint64(body[60:68]))          //nolint:gosec
	h.UpdatePending = int32(engine.Uint32(body[68:72]))             //nolint:gosec
	h.AttachmentDirectoryPosition = int64(engine.Uint64(body[72:80])) //nolint:gosec

	return h, nil
}

// Bytes serializes the full 512-byte file header segment, including its
// SegmentHeader and the trailing spare region (zero-filled).
func (h FileHeader) Bytes() []byte {
	b := make([]byte, FileHeaderSize)
	engine := endian.LittleEndian()

	sh := NewSegmentHeader(MagicFile, int64(FileHeaderSize-SegmentHeaderSize))
	copy(b[0:SegmentHeaderSize], sh.Bytes())

	body := b[SegmentHeaderSize:FileHeaderSize]
	engine.PutUint32(body[0:4], uint32(h.Major)) //nolint:gosec
	engine.PutUint32(body[4:8], uint32(h.Minor)) //nolint:gosec
	copy(body[16:32], h.PrimaryFileGUID.Bytes(engine))
	copy(body[32:48], h.FileGUID.Bytes(engine))
	engine.PutUint32(body[48:52], uint32(h.FilePart))                        //nolint:gosec
	engine.PutUint64(body[52:60], uint64(h.SubblockDirectoryPosition))       //nolint:gosec
	engine.PutUint64(body[60:68], uint64(h.MetadataPosition))                //nolint:gosec
	engine.PutUint32(body[68:72], uint32(h.UpdatePending))                   //nolint:gosec
	engine.PutUint64(body[72:80], uint64(h.AttachmentDirectoryPosition))     //nolint:gosec
	// body[80:512] (spare[432]) left zero.

	return b
}
