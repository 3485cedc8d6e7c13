package segment

import (
	"github.com/carlzeiss/czi/internal/pool"
	"github.com/carlzeiss/czi/stream"
)

// readScratch reads n bytes at offset into a pooled buffer, returning the
// populated slice and a release func the caller must invoke once done with
// it. Backed by internal/pool.ByteBufferPool, reused here for the small
// fixed-size header/entry reads every segment parse does, replacing a
// fresh make([]byte, n) per call.
func readScratch(r stream.Reader, n int, offset int64) ([]byte, func(), error) {
	bb := pool.GetScratchBuffer()
	bb.ExtendOrGrow(n)
	buf := bb.Bytes()[:n]

	if err := stream.ReadExact(r, buf, offset); err != nil {
		pool.PutScratchBuffer(bb)
		return nil, func() {}, err
	}

	return buf, func() { pool.PutScratchBuffer(bb) }, nil
}
