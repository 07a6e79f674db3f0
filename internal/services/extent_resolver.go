package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// ExtentResolver expands a fork's inline extents into its complete extent list,
// consulting an overflow reader only when the inline extents do not cover the fork.
type ExtentResolver struct {
	overflow interfaces.ExtentsOverflowReader
	logger   logrus.FieldLogger
}

// NewExtentResolver creates an extent resolver. overflow may be nil when only forks that
// fit in their inline extents are resolved.
func NewExtentResolver(overflow interfaces.ExtentsOverflowReader, logger logrus.FieldLogger) *ExtentResolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ExtentResolver{overflow: overflow, logger: logger}
}

// GetAllExtents returns every extent of a fork in logical order, trimmed at the first
// zero/zero descriptor of each record.
func (er *ExtentResolver) GetAllExtents(ownerID types.CNID, fork types.ForkDataT, forkType types.ForkType, blockSize uint32) ([]types.ExtentDescriptorT, error) {
	extents := fork.Extents.Trimmed()
	covered := sumBlocks(extents)
	if covered*uint64(blockSize) >= fork.LogicalSize {
		return extents, nil
	}

	if ownerID == types.CNIDExtentsFile {
		return nil, fmt.Errorf("extents overflow file covers %d of %d bytes in its inline extents: %w",
			covered*uint64(blockSize), fork.LogicalSize, types.ErrCorruptStructure)
	}
	if er.overflow == nil {
		return nil, fmt.Errorf("%s fork of CNID %s needs overflow extents but no extents file is available: %w",
			forkType, ownerID, types.ErrCorruptStructure)
	}

	for covered*uint64(blockSize) < fork.LogicalSize {
		if covered > 0xFFFFFFFF {
			return nil, fmt.Errorf("%s fork of CNID %s extends beyond 2^32 blocks: %w", forkType, ownerID, types.ErrCorruptStructure)
		}
		er.logger.Debugf("[EXTENTS] overflow lookup: fileID=%d fork=%s startBlock=%d", ownerID, forkType, covered)

		rec, found, err := er.overflow.FindExtents(ownerID, forkType, uint32(covered))
		if err != nil {
			return nil, fmt.Errorf("failed to look up overflow extents of CNID %s at block %d: %w", ownerID, covered, err)
		}
		if !found {
			return nil, fmt.Errorf("missing overflow extents of %s fork of CNID %s at block %d: %w", forkType, ownerID, covered, types.ErrCorruptStructure)
		}

		more := rec.Trimmed()
		if len(more) == 0 || sumBlocks(more) == 0 {
			return nil, fmt.Errorf("empty overflow extent record of CNID %s at block %d: %w", ownerID, covered, types.ErrCorruptStructure)
		}
		extents = append(extents, more...)
		covered += sumBlocks(more)
	}
	return extents, nil
}

func sumBlocks(extents []types.ExtentDescriptorT) uint64 {
	var total uint64
	for _, e := range extents {
		total += uint64(e.BlockCount)
	}
	return total
}
