package services

import (
	"fmt"
	"io"
)

// forkCursor adds io.Reader and io.Seeker to a random access fork view. Each view owns its
// cursor; nothing is shared between views of the same fork.
type forkCursor struct {
	at     io.ReaderAt
	size   int64
	offset int64
}

// Read implements io.Reader
func (fc *forkCursor) Read(p []byte) (n int, err error) {
	if fc.offset >= fc.size {
		return 0, io.EOF
	}

	if int64(len(p)) > fc.size-fc.offset {
		p = p[:fc.size-fc.offset]
	}

	n, err = fc.at.ReadAt(p, fc.offset)
	fc.offset += int64(n)

	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Seek implements io.Seeker
func (fc *forkCursor) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64

	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = fc.offset + offset
	case io.SeekEnd:
		newOffset = fc.size + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}

	if newOffset < 0 {
		return 0, fmt.Errorf("negative offset: %d", newOffset)
	}

	fc.offset = newOffset
	return newOffset, nil
}

// Size returns the logical size of the fork
func (fc *forkCursor) Size() int64 {
	return fc.size
}
