// Package stream defines the positional I/O contract CZI readers and
// writers depend on, plus reference back-ends: a local file
// back-end and a ranged-read S3 back-end.
//
// Streams are not assumed to be safe for concurrent mutation; the reader
// façade and writer packages serialize access under a mutex where required.
package stream

import (
	"errors"
	"io"

	"github.com/carlzeiss/czi/errs"
)

// Reader is read-only positional access to a byte stream, satisfied
// directly by *os.File and any other io.ReaderAt. A return of n < len(p)
// is only valid when paired with io.EOF (end-of-stream); any other short
// read is a caller bug.
type Reader = io.ReaderAt

// Writer is positional write access, satisfied directly by *os.File and
// any other io.WriterAt. A short write (n < len(p)) is always fatal.
type Writer = io.WriterAt

// ReadWriter is both Reader and Writer, required by the in-place
// read/modify/write engine.
type ReadWriter interface {
	Reader
	Writer
}

// Closer optionally releases resources held by a stream. Not every
// back-end needs one (e.g. an in-memory buffer).
type Closer interface {
	Close() error
}

// ReadExact reads exactly len(p) bytes at offset from r, wrapping a short
// read at end-of-stream as *errs.NotEnoughData and any other stream error
// as *errs.IOException.
func ReadExact(r Reader, p []byte, offset int64) error {
	n, err := r.ReadAt(p, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return &errs.IOException{Offset: offset, Size: len(p), Cause: err}
	}

	if n < len(p) {
		return &errs.NotEnoughData{Offset: offset, Requested: len(p), Got: n}
	}

	return nil
}

// WriteExact writes exactly len(p) bytes at offset via w, wrapping a short
// write as *errs.NotEnoughDataWritten.
func WriteExact(w Writer, p []byte, offset int64) error {
	n, err := w.WriteAt(p, offset)
	if err != nil {
		return &errs.IOException{Offset: offset, Size: len(p), Cause: err}
	}

	if n < len(p) {
		return &errs.NotEnoughDataWritten{Offset: offset, Requested: len(p), Wrote: n}
	}

	return nil
}
