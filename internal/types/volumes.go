package types

// Volume Header
// Each HFS+ volume contains a volume header 1024 bytes from the start of the volume.
// A copy (the alternate volume header) is stored 1024 bytes before the end of the volume.

// VolumeHeaderOffset is the byte offset of the volume header from the start of the volume.
const VolumeHeaderOffset = 1024

// VolumeHeaderSize is the size of the volume header structure in bytes.
const VolumeHeaderSize = 512

// Volume signatures.
const (
	// SignatureHFSPlus is the signature of an HFS+ volume ("H+").
	SignatureHFSPlus uint16 = 0x482B

	// SignatureHFSX is the signature of an HFSX volume ("HX").
	SignatureHFSX uint16 = 0x4858

	// SignatureHFS is the signature of a plain HFS (Mac OS Standard) volume ("BD").
	SignatureHFS uint16 = 0x4244
)

// Volume format versions.
const (
	// VersionHFSPlus is the version of an HFS+ volume.
	VersionHFSPlus uint16 = 4

	// VersionHFSX is the version of an HFSX volume.
	VersionHFSX uint16 = 5
)

// Volume attribute bits.
// Reference: TN1150 "Volume Attributes"
const (
	VolumeHardwareLockBit      = 7
	VolumeUnmountedBit         = 8
	VolumeSparedBlocksBit      = 9
	VolumeNoCacheRequiredBit   = 10
	VolumeBootVolumeInconsBit  = 11
	VolumeCatalogNodeIDsReused = 12
	VolumeJournaledBit         = 13
	VolumeSoftwareLockBit      = 15
)

// Offsets of the special-file fork data within the volume header.
const (
	AllocationFileOffset = 112
	ExtentsFileOffset    = 192
	CatalogFileOffset    = 272
	AttributesFileOffset = 352
	StartupFileOffset    = 432
)

// VolumeHeaderT is the HFS+ volume header.
// Reference: TN1150 "Volume Header"
type VolumeHeaderT struct {
	// The volume signature, either "H+" or "HX".
	Signature uint16

	// The version of the volume format; 4 for HFS+ and 5 for HFSX.
	Version uint16

	// Volume attributes. See Volume attribute bits.
	Attributes uint32

	// A value which uniquely identifies the implementation that last mounted this volume for writing.
	LastMountedVersion uint32

	// The allocation block number of the allocation block which contains the journal info block.
	JournalInfoBlock uint32

	// The date and time when the volume was created (local time).
	CreateDate uint32

	// The date and time when the volume was last modified.
	ModifyDate uint32

	// The date and time when the volume was last backed up.
	BackupDate uint32

	// The date and time when the volume was last checked for consistency.
	CheckedDate uint32

	// The total number of files on the volume, not including the special files.
	FileCount uint32

	// The total number of folders on the volume, not including the root folder.
	FolderCount uint32

	// The allocation block size, in bytes.
	BlockSize uint32

	// The total number of allocation blocks on the disk.
	TotalBlocks uint32

	// The total number of unused allocation blocks on the disk.
	FreeBlocks uint32

	// The start of the next allocation search.
	NextAllocation uint32

	// The default clump size for resource forks, in bytes.
	RsrcClumpSize uint32

	// The default clump size for data forks, in bytes.
	DataClumpSize uint32

	// The next unused catalog ID.
	NextCatalogID CNID

	// The number of times this volume has been mounted for writing.
	WriteCount uint32

	// A bit field indicating the text encodings used in file and folder names.
	EncodingsBitmap uint64

	// Information used by the Mac OS Finder and the system software boot process.
	FinderInfo [8]uint32

	// Information about the location and size of the allocation file.
	AllocationFile ForkDataT

	// Information about the location and size of the extents overflow file.
	ExtentsFile ForkDataT

	// Information about the location and size of the catalog file.
	CatalogFile ForkDataT

	// Information about the location and size of the attributes file.
	AttributesFile ForkDataT

	// Information about the location and size of the startup file.
	StartupFile ForkDataT
}

// IsHFSX reports whether the header describes an HFSX volume.
func (vh *VolumeHeaderT) IsHFSX() bool {
	return vh.Signature == SignatureHFSX
}

// IsJournaled reports whether the volume has a journal.
func (vh *VolumeHeaderT) IsJournaled() bool {
	return vh.Attributes&(1<<VolumeJournaledBit) != 0
}

// IsUnmounted reports whether the volume was cleanly unmounted.
func (vh *VolumeHeaderT) IsUnmounted() bool {
	return vh.Attributes&(1<<VolumeUnmountedBit) != 0
}

// IsSoftwareLocked reports whether the volume is write-protected by software.
func (vh *VolumeHeaderT) IsSoftwareLocked() bool {
	return vh.Attributes&(1<<VolumeSoftwareLockBit) != 0
}

// SpecialFork returns the fork data of a special file by its CNID.
func (vh *VolumeHeaderT) SpecialFork(id CNID) (ForkDataT, bool) {
	switch id {
	case CNIDAllocationFile:
		return vh.AllocationFile, true
	case CNIDExtentsFile:
		return vh.ExtentsFile, true
	case CNIDCatalogFile:
		return vh.CatalogFile, true
	case CNIDAttributesFile:
		return vh.AttributesFile, true
	case CNIDStartupFile:
		return vh.StartupFile, true
	default:
		return ForkDataT{}, false
	}
}

// HFS wrapper (Master Directory Block) fields needed to locate an embedded HFS+ volume.
// Reference: TN1150 "HFS Wrapper"
const (
	// MDBBlockSizeOffset is the offset of drAlBlkSiz within the MDB.
	MDBBlockSizeOffset = 0x14

	// MDBFirstBlockOffset is the offset of drAlBlSt (in 512-byte sectors) within the MDB.
	MDBFirstBlockOffset = 0x1C

	// MDBEmbedSigOffset is the offset of drEmbedSigWord within the MDB.
	MDBEmbedSigOffset = 0x7C

	// MDBEmbedExtentOffset is the offset of drEmbedExtent within the MDB.
	MDBEmbedExtentOffset = 0x7E
)
