package types

// Forks and Extents
// File contents are stored in forks. Each fork is described by a ForkDataT that holds the
// first eight extents; further extents live in the extents overflow file.

// ExtentDescriptorSize is the on-disk size of an extent descriptor.
const ExtentDescriptorSize = 8

// ExtentDensity is the number of extent descriptors in an extent record.
const ExtentDensity = 8

// ExtentRecordSize is the on-disk size of an extent record.
const ExtentRecordSize = ExtentDescriptorSize * ExtentDensity

// ForkDataSize is the on-disk size of a fork data structure.
const ForkDataSize = 80

// ExtentDescriptorT describes a contiguous run of allocation blocks.
// Reference: TN1150 "Extents"
type ExtentDescriptorT struct {
	// The first allocation block in the extent.
	StartBlock uint32

	// The length, in allocation blocks, of the extent.
	BlockCount uint32
}

// IsEmpty reports whether the descriptor is the zero/zero terminator.
func (e ExtentDescriptorT) IsEmpty() bool {
	return e.StartBlock == 0 && e.BlockCount == 0
}

// ExtentRecordT is an array of eight extent descriptors.
type ExtentRecordT [ExtentDensity]ExtentDescriptorT

// Trimmed returns the descriptors up to, but not including, the first zero/zero pair.
func (r ExtentRecordT) Trimmed() []ExtentDescriptorT {
	out := make([]ExtentDescriptorT, 0, ExtentDensity)
	for _, e := range r {
		if e.IsEmpty() {
			break
		}
		out = append(out, e)
	}
	return out
}

// TotalBlocks returns the sum of the block counts of all descriptors.
func (r ExtentRecordT) TotalBlocks() uint64 {
	var total uint64
	for _, e := range r {
		total += uint64(e.BlockCount)
	}
	return total
}

// ForkDataT describes the size and location of a fork.
// Reference: TN1150 "Fork Data Structure"
type ForkDataT struct {
	// The size in bytes of the valid data in the fork. Authoritative over the extents.
	LogicalSize uint64

	// The fork's clump size, in bytes.
	ClumpSize uint32

	// The total number of allocation blocks used by all the extents in this fork.
	TotalBlocks uint32

	// The first eight extents of the fork.
	Extents ExtentRecordT
}
