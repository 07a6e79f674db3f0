package types

// Catalog Constants
// Reference: TN1150 "Catalog File"

// CatalogRecordType is the 16-bit discriminant at the start of every catalog leaf record's data.
type CatalogRecordType int16

const (
	// CatalogRecordFolder marks a folder record.
	CatalogRecordFolder CatalogRecordType = 0x0001

	// CatalogRecordFile marks a file record.
	CatalogRecordFile CatalogRecordType = 0x0002

	// CatalogRecordFolderThread marks a folder thread record.
	CatalogRecordFolderThread CatalogRecordType = 0x0003

	// CatalogRecordFileThread marks a file thread record.
	CatalogRecordFileThread CatalogRecordType = 0x0004
)

// String returns the record type name
func (t CatalogRecordType) String() string {
	switch t {
	case CatalogRecordFolder:
		return "folder"
	case CatalogRecordFile:
		return "file"
	case CatalogRecordFolderThread:
		return "folder thread"
	case CatalogRecordFileThread:
		return "file thread"
	default:
		return "unknown"
	}
}

// IsThread reports whether the record type is a thread record.
func (t CatalogRecordType) IsThread() bool {
	return t == CatalogRecordFolderThread || t == CatalogRecordFileThread
}

// Catalog record flags stored in CatalogFileT.Flags and CatalogFolderT.Flags.
const (
	// CatalogFileLockedMask indicates the file is locked.
	CatalogFileLockedMask uint16 = 0x0001

	// CatalogThreadExistsMask indicates a thread record exists for the file.
	CatalogThreadExistsMask uint16 = 0x0002

	// CatalogHasAttributesMask indicates the record has extended attributes.
	CatalogHasAttributesMask uint16 = 0x0004

	// CatalogHasSecurityMask indicates the record has an ACL.
	CatalogHasSecurityMask uint16 = 0x0008

	// CatalogHasFolderCountMask indicates the folder count field is valid.
	CatalogHasFolderCountMask uint16 = 0x0010

	// CatalogHasLinkChainMask indicates the record is part of a hard link chain.
	CatalogHasLinkChainMask uint16 = 0x0020
)

// BSD owner flags stored in BSDInfoT.OwnerFlags.
const (
	// UFNoDump indicates the file should not be dumped.
	UFNoDump uint8 = 0x01

	// UFImmutable indicates the file may not be changed.
	UFImmutable uint8 = 0x02

	// UFAppend indicates writes to the file may only append.
	UFAppend uint8 = 0x04

	// UFOpaque indicates the directory is opaque when viewed through a union stack.
	UFOpaque uint8 = 0x08

	// UFCompressed indicates the file's data fork is stored in a decmpfs attribute.
	UFCompressed uint8 = 0x20

	// UFHidden indicates the file is hidden.
	UFHidden uint8 = 0x80
)

// BSD file mode type bits stored in BSDInfoT.FileMode.
const (
	ModeTypeMask   uint16 = 0170000
	ModeFIFO       uint16 = 0010000
	ModeCharDevice uint16 = 0020000
	ModeDirectory  uint16 = 0040000
	ModeBlockDev   uint16 = 0060000
	ModeRegular    uint16 = 0100000
	ModeSymlink    uint16 = 0120000
	ModeSocket     uint16 = 0140000
)

// Catalog record sizes.
const (
	// CatalogFolderSize is the size of a folder record.
	CatalogFolderSize = 88

	// CatalogFileSize is the size of a file record.
	CatalogFileSize = 248

	// CatalogThreadMinSize is the size of a thread record with an empty name.
	CatalogThreadMinSize = 10

	// CatalogKeyMinLength is the smallest valid keyLength of a catalog key.
	CatalogKeyMinLength = 6

	// MaxNameLength is the maximum number of UTF-16 code units in a name.
	MaxNameLength = 255
)
