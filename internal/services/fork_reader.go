package services

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// ForkReader maps the logical bytes of a fork onto the medium through its resolved extents.
// It implements interfaces.ForkStream.
type ForkReader struct {
	forkCursor

	src       interfaces.RandomAccessSource
	base      int64
	blockSize int64
	extents   []types.ExtentDescriptorT
}

// NewForkReader creates a reader over a fork of logicalSize bytes. base is the byte offset
// of allocation block 0 within src.
func NewForkReader(src interfaces.RandomAccessSource, base int64, blockSize uint32, extents []types.ExtentDescriptorT, logicalSize uint64) *ForkReader {
	fr := &ForkReader{
		src:       src,
		base:      base,
		blockSize: int64(blockSize),
		extents:   extents,
	}
	fr.forkCursor = forkCursor{at: fr, size: int64(logicalSize)}
	return fr
}

// Extents returns the resolved extents of the fork
func (fr *ForkReader) Extents() []types.ExtentDescriptorT {
	return fr.extents
}

// ReadAt implements io.ReaderAt. Reads stop at the fork's logical size with io.EOF and at
// the end of the resolved extents with io.ErrUnexpectedEOF.
func (fr *ForkReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %d", off)
	}
	if off >= fr.size {
		return 0, io.EOF
	}

	want := p
	if int64(len(want)) > fr.size-off {
		want = want[:fr.size-off]
	}

	n := 0
	for n < len(want) {
		phys, avail, ok := fr.locate(off + int64(n))
		if !ok {
			return n, io.ErrUnexpectedEOF
		}
		chunk := want[n:]
		if int64(len(chunk)) > avail {
			chunk = chunk[:avail]
		}
		if err := readFull(fr.src, chunk, phys); err != nil {
			return n, fmt.Errorf("failed to read fork at logical offset %d: %w", off+int64(n), err)
		}
		n += len(chunk)
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// locate returns the physical address of a logical offset and the number of bytes that
// follow it contiguously within the same extent.
func (fr *ForkReader) locate(off int64) (phys int64, avail int64, ok bool) {
	var start int64
	for _, e := range fr.extents {
		length := int64(e.BlockCount) * fr.blockSize
		if off < start+length {
			intra := off - start
			return fr.base + int64(e.StartBlock)*fr.blockSize + intra, length - intra, true
		}
		start += length
	}
	return 0, 0, false
}
