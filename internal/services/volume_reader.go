package services

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// VolumeReader reads an HFS+ volume that starts at a byte offset of a medium.
// It holds no decoded state: the volume header is read again on every call.
type VolumeReader struct {
	src    interfaces.RandomAccessSource
	offset int64
	logger logrus.FieldLogger
}

// NewVolumeReader creates a reader for the volume at offset within src
func NewVolumeReader(src interfaces.RandomAccessSource, offset int64, logger logrus.FieldLogger) *VolumeReader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VolumeReader{src: src, offset: offset, logger: logger}
}

// Source returns the underlying medium
func (vr *VolumeReader) Source() interfaces.RandomAccessSource {
	return vr.src
}

// Offset returns the byte offset of the volume within the medium
func (vr *VolumeReader) Offset() int64 {
	return vr.offset
}

// Logger returns the logger shared by the services of this volume
func (vr *VolumeReader) Logger() logrus.FieldLogger {
	return vr.logger
}

// ReadHeader reads, decodes and validates the volume header
func (vr *VolumeReader) ReadHeader() (*types.VolumeHeaderT, error) {
	buf := make([]byte, volumes.VolumeHeaderLength)
	if err := readFull(vr.src, buf, vr.offset+types.VolumeHeaderOffset); err != nil {
		return nil, fmt.Errorf("failed to read volume header: %w", err)
	}

	vh, err := volumes.DecodeVolumeHeader(buf, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to decode volume header: %w", err)
	}
	if err := volumes.ValidateVolumeHeader(&vh); err != nil {
		return nil, err
	}

	vr.logger.Debugf("[VOLUME] header: signature=0x%04x blockSize=%d totalBlocks=%d", vh.Signature, vh.BlockSize, vh.TotalBlocks)
	return &vh, nil
}

// OpenSpecialFork opens a stream over one of the five special files named in the volume
// header. The extents of the extents overflow file itself never live in the overflow file;
// for every other special file overflow may be nil only if the file fits in its inline extents.
func (vr *VolumeReader) OpenSpecialFork(vh *types.VolumeHeaderT, id types.CNID, overflow interfaces.ExtentsOverflowReader) (*ForkReader, error) {
	fork, ok := vh.SpecialFork(id)
	if !ok {
		return nil, fmt.Errorf("CNID %s is not a special file: %w", id, types.ErrNotFound)
	}
	extents, err := NewExtentResolver(overflow, vr.logger).GetAllExtents(id, fork, types.ForkTypeData, vh.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve extents of special file %s: %w", id, err)
	}
	return NewForkReader(vr.src, vr.offset, vh.BlockSize, extents, fork.LogicalSize), nil
}

// readFull reads len(buf) bytes at off. A read that ends early at io.EOF is a short read.
func readFull(r interfaces.RandomAccessSource, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return fmt.Errorf("read %d of %d bytes at offset %d: %w", n, len(buf), off, types.ErrShortRead)
	}
	return err
}
