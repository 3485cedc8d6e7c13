package stream

import "os"

// OpenFile opens path for positional reading (and, if writable is true,
// writing) and returns it directly as a Reader/ReadWriter — *os.File
// already implements io.ReaderAt and io.WriterAt natively, so no adapter
// type is needed.
func OpenFile(path string, writable bool) (*os.File, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	return os.OpenFile(path, flag, 0)
}

// CreateFile creates (truncating if present) a new file opened for
// positional read/write, for use with writer.Create / readerwriter.Create.
func CreateFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}
