// Package types implements the on-disk data structures of the HFS+ and HFSX volume formats.
// This package is based on Apple Technical Note TN1150 "HFS Plus Volume Format".
package types

import "fmt"

// General-Purpose Types
// Basic types that are used in a variety of contexts, and aren't associated with
// any particular B-tree.

// CNID is a catalog node identifier.
// Every file and folder on the volume has a unique CNID; the values below 16 are reserved.
// Reference: TN1150 "Catalog File"
type CNID uint32

const (
	// CNIDRootParent is the parent ID of the root folder.
	CNIDRootParent CNID = 1

	// CNIDRootFolder is the folder ID of the root folder.
	CNIDRootFolder CNID = 2

	// CNIDExtentsFile is the file ID of the extents overflow file.
	CNIDExtentsFile CNID = 3

	// CNIDCatalogFile is the file ID of the catalog file.
	CNIDCatalogFile CNID = 4

	// CNIDBadBlockFile is the file ID of the bad block file.
	CNIDBadBlockFile CNID = 5

	// CNIDAllocationFile is the file ID of the allocation file.
	CNIDAllocationFile CNID = 6

	// CNIDStartupFile is the file ID of the startup file.
	CNIDStartupFile CNID = 7

	// CNIDAttributesFile is the file ID of the attributes file.
	CNIDAttributesFile CNID = 8

	// CNIDRepairCatalogFile is used temporarily by fsck_hfs when rebuilding the catalog file.
	CNIDRepairCatalogFile CNID = 14

	// CNIDBogusExtentFile is used temporarily during ExchangeFiles operations.
	CNIDBogusExtentFile CNID = 15

	// CNIDFirstUserCatalogNode is the first CNID available for use by user files and folders.
	CNIDFirstUserCatalogNode CNID = 16
)

// IsReserved reports whether the identifier is in the reserved range.
func (c CNID) IsReserved() bool {
	return c < CNIDFirstUserCatalogNode
}

// String returns the identifier with the name of the reserved node, if any.
func (c CNID) String() string {
	switch c {
	case CNIDRootParent:
		return "1 (root parent)"
	case CNIDRootFolder:
		return "2 (root folder)"
	case CNIDExtentsFile:
		return "3 (extents overflow file)"
	case CNIDCatalogFile:
		return "4 (catalog file)"
	case CNIDBadBlockFile:
		return "5 (bad block file)"
	case CNIDAllocationFile:
		return "6 (allocation file)"
	case CNIDStartupFile:
		return "7 (startup file)"
	case CNIDAttributesFile:
		return "8 (attributes file)"
	default:
		return fmt.Sprintf("%d", uint32(c))
	}
}

// ForkType identifies a fork in extent overflow keys.
// Reference: TN1150 "Extents Overflow File"
type ForkType uint8

const (
	// ForkTypeData identifies the data fork.
	ForkTypeData ForkType = 0x00

	// ForkTypeResource identifies the resource fork.
	ForkTypeResource ForkType = 0xFF
)

// String returns the fork type name
func (f ForkType) String() string {
	switch f {
	case ForkTypeData:
		return "data"
	case ForkTypeResource:
		return "resource"
	default:
		return fmt.Sprintf("fork(0x%02x)", uint8(f))
	}
}

// HFSPlusDateToUnix converts an HFS+ date (seconds since midnight, January 1, 1904, GMT)
// to Unix seconds.
func HFSPlusDateToUnix(d uint32) int64 {
	return int64(d) - MacEpochOffset
}

// MacEpochOffset is the number of seconds between 1904-01-01 and 1970-01-01.
const MacEpochOffset int64 = 2082844800
