package services

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/compression"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// blockTable tracks the decompressed start offsets of the blocks decoded so far. While
// every decoded block has had the same size only that size is kept; the first block of a
// different size switches it for good to explicit end offsets. It only ever grows.
type blockTable struct {
	processed int
	fixed     bool
	blockSize int64
	ends      []int64
}

// start returns the decompressed offset of block i, for i <= processed
func (t *blockTable) start(i int) int64 {
	if t.fixed {
		return int64(i) * t.blockSize
	}
	if i == 0 {
		return 0
	}
	return t.ends[i-1]
}

// record adds the decompressed size of block processed
func (t *blockTable) record(size int64) {
	if t.processed == 0 {
		t.fixed, t.blockSize, t.processed = true, size, 1
		return
	}
	if t.fixed && size != t.blockSize {
		t.fixed = false
		t.ends = make([]int64, t.processed, t.processed+1)
		for i := range t.ends {
			t.ends[i] = int64(i+1) * t.blockSize
		}
	}
	if !t.fixed {
		t.ends = append(t.ends, t.start(t.processed)+size)
	}
	t.processed++
}

// seek returns the first block that must be decoded to reach off and its start offset.
// Blocks known to end at or before off are skipped.
func (t *blockTable) seek(off int64) (int, int64) {
	if t.processed == 0 {
		return 0, 0
	}
	if t.fixed {
		i := off / t.blockSize
		if i > int64(t.processed) {
			i = int64(t.processed)
		}
		return int(i), i * t.blockSize
	}
	i := sort.Search(t.processed, func(k int) bool { return t.ends[k] > off })
	return i, t.start(i)
}

// CompressedForkReader presents the decompressed contents of a decmpfs compressed file.
// Inline files are decompressed when opened; resource fork files are decompressed a block
// at a time as they are read. It implements interfaces.ForkStream.
type CompressedForkReader struct {
	forkCursor

	header types.DecmpfsHeaderT
	inline []byte

	resource io.ReaderAt
	payload  int64
	length   int64
	entries  []types.CompressedBlockEntryT
	table    blockTable

	cachedBlock int
	cachedData  []byte

	cs     *CompressionService
	logger logrus.FieldLogger
	trace  func(block int)
}

// NewCompressedForkReader opens the decompressed view of a file from the value of its
// decmpfs attribute and, for resource fork compression, its resource fork.
func NewCompressedForkReader(attr []byte, resource interfaces.ForkStream, cs *CompressionService, logger logrus.FieldLogger) (*CompressedForkReader, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	hdr, err := compression.DecodeDecmpfsHeader(attr, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to decode decmpfs header: %w", err)
	}
	if err := cs.CheckSupported(hdr.CompressionType); err != nil {
		return nil, err
	}

	cfr := &CompressedForkReader{
		header:      hdr,
		cachedBlock: -1,
		cs:          cs,
		logger:      logger,
	}
	cfr.forkCursor = forkCursor{at: cfr, size: int64(hdr.RawFileSize)}

	switch hdr.CompressionType {
	case types.CompressionZlibInline:
		if cfr.inline, err = cs.DecompressInline(attr[compression.InlineFlagOffset:], hdr.RawFileSize); err != nil {
			return nil, err
		}
	case types.CompressionZlibResource:
		if resource == nil {
			return nil, fmt.Errorf("resource fork compressed file has no resource fork: %w", types.ErrCorruptStructure)
		}
		if err := cfr.openResource(resource); err != nil {
			return nil, err
		}
	}

	logger.Debugf("[DECMPFS] open: type=%s size=%d blocks=%d", hdr.CompressionType, hdr.RawFileSize, len(cfr.entries))
	return cfr, nil
}

// Header returns the decmpfs header of the file
func (cfr *CompressedForkReader) Header() types.DecmpfsHeaderT {
	return cfr.header
}

// openResource locates the cmpf resource and reads its block table
func (cfr *CompressedForkReader) openResource(resource interfaces.ForkStream) error {
	head := make([]byte, compression.ResourceHeaderLength)
	if err := readFull(resource, head, 0); err != nil {
		return fmt.Errorf("failed to read resource fork header: %w", err)
	}
	rh, err := compression.DecodeResourceHeader(head, 0)
	if err != nil {
		return err
	}
	if int64(rh.MapOffset)+int64(rh.MapLength) > resource.Size() {
		return fmt.Errorf("resource map [%d, +%d) beyond resource fork of %d bytes: %w",
			rh.MapOffset, rh.MapLength, resource.Size(), types.ErrCorruptStructure)
	}

	mapData := make([]byte, rh.MapLength)
	if err := readFull(resource, mapData, int64(rh.MapOffset)); err != nil {
		return fmt.Errorf("failed to read resource map: %w", err)
	}
	off, err := compression.LocateCompressedResource(rh, mapData)
	if err != nil {
		return err
	}

	lengthBuf := make([]byte, compression.ResourceDataLengthSize)
	if err := readFull(resource, lengthBuf, off); err != nil {
		return fmt.Errorf("failed to read compressed resource length: %w", err)
	}
	cfr.payload = off + compression.ResourceDataLengthSize
	cfr.length = int64(binary.BigEndian.Uint32(lengthBuf))
	if cfr.payload+cfr.length > resource.Size() {
		return fmt.Errorf("compressed resource of %d bytes beyond resource fork of %d bytes: %w",
			cfr.length, resource.Size(), types.ErrCorruptStructure)
	}

	countBuf := make([]byte, compression.BlockCountLength)
	if err := readFull(resource, countBuf, cfr.payload); err != nil {
		return fmt.Errorf("failed to read compressed block count: %w", err)
	}
	count, err := compression.DecodeBlockCount(countBuf)
	if err != nil {
		return err
	}
	tableLen := compression.BlockTableLength(count)
	if tableLen > cfr.length {
		return fmt.Errorf("block table of %d blocks beyond compressed resource of %d bytes: %w", count, cfr.length, types.ErrCorruptStructure)
	}

	table := make([]byte, tableLen)
	if err := readFull(resource, table, cfr.payload); err != nil {
		return fmt.Errorf("failed to read compressed block table: %w", err)
	}
	if cfr.entries, err = compression.DecodeBlockTable(table); err != nil {
		return err
	}
	for i, e := range cfr.entries {
		if err := compression.ValidateBlockEntry(i, e, cfr.length); err != nil {
			return err
		}
	}

	cfr.resource = resource
	return nil
}

// ReadAt implements io.ReaderAt. Reads end at the declared uncompressed size with io.EOF.
func (cfr *CompressedForkReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %d", off)
	}
	if off >= cfr.size {
		return 0, io.EOF
	}

	want := p
	if int64(len(want)) > cfr.size-off {
		want = want[:cfr.size-off]
	}

	var n int
	if cfr.resource == nil {
		n = copy(want, cfr.inline[off:])
	} else {
		var err error
		if n, err = cfr.readBlocks(want, off); err != nil {
			return n, err
		}
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// readBlocks fills p from the blocks covering [off, off+len(p))
func (cfr *CompressedForkReader) readBlocks(p []byte, off int64) (int, error) {
	n := 0
	i, start := cfr.table.seek(off)
	for n < len(p) {
		if i >= len(cfr.entries) {
			return n, fmt.Errorf("compressed blocks end at %d bytes, declared size is %d: %w", start, cfr.size, types.ErrCorruptStructure)
		}

		data, err := cfr.block(i)
		if err != nil {
			return n, err
		}
		if i == cfr.table.processed {
			if len(data) == 0 {
				return n, fmt.Errorf("compressed block %d decompresses to nothing: %w", i, types.ErrCorruptStructure)
			}
			cfr.table.record(int64(len(data)))
		}

		end := start + int64(len(data))
		if pos := off + int64(n); pos < end {
			n += copy(p[n:], data[pos-start:])
		}
		start = end
		i++
	}
	return n, nil
}

// block returns the decompressed contents of block i, keeping the last block decoded
func (cfr *CompressedForkReader) block(i int) ([]byte, error) {
	if i == cfr.cachedBlock {
		return cfr.cachedData, nil
	}

	e := cfr.entries[i]
	raw := make([]byte, e.Length)
	if err := readFull(cfr.resource, raw, cfr.payload+int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("failed to read compressed block %d: %w", i, err)
	}
	data, err := cfr.cs.DecompressBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("compressed block %d: %w", i, err)
	}

	if cfr.trace != nil {
		cfr.trace(i)
	}
	cfr.logger.Debugf("[DECMPFS] block %d: %d -> %d bytes", i, e.Length, len(data))

	cfr.cachedBlock, cfr.cachedData = i, data
	return data, nil
}
