package types

// Compressed Files
// A compressed file has the UF_COMPRESSED BSD flag set and an empty data fork. Its contents
// are described by a decmpfs header stored in the "com.apple.decmpfs" extended attribute and,
// for larger files, a "cmpf" resource in the resource fork.

// DecmpfsAttributeName is the extended attribute that holds the decmpfs header.
const DecmpfsAttributeName = "com.apple.decmpfs"

// DecmpfsMagic is the magic value of a decmpfs header ("fpmc" read little-endian).
const DecmpfsMagic uint32 = 0x636d7066

// DecmpfsHeaderSize is the on-disk size of the decmpfs header.
const DecmpfsHeaderSize = 16

// DecmpfsHeaderT is the decmpfs header. All fields are little-endian on disk.
type DecmpfsHeaderT struct {
	// The signature identifying this as a decmpfs header. Always DecmpfsMagic.
	Magic uint32

	// The compression type. See Compression Types.
	CompressionType CompressionType

	// The size of the uncompressed file, in bytes.
	RawFileSize uint64
}

// CompressionType is the decmpfs compression type.
type CompressionType uint32

// Compression Types
const (
	// CompressionZlibInline stores zlib or literal data after the header.
	CompressionZlibInline CompressionType = 3

	// CompressionZlibResource stores zlib blocks in the resource fork.
	CompressionZlibResource CompressionType = 4

	// CompressionLZVNInline stores LZVN data after the header.
	CompressionLZVNInline CompressionType = 7

	// CompressionLZVNResource stores LZVN blocks in the resource fork.
	CompressionLZVNResource CompressionType = 8

	// CompressionRawInline stores uncompressed data after the header.
	CompressionRawInline CompressionType = 9

	// CompressionRawResource stores uncompressed chunks in the resource fork.
	CompressionRawResource CompressionType = 10

	// CompressionLZFSEInline stores LZFSE data after the header.
	CompressionLZFSEInline CompressionType = 11

	// CompressionLZFSEResource stores LZFSE blocks in the resource fork.
	CompressionLZFSEResource CompressionType = 12
)

// String returns the compression type name
func (c CompressionType) String() string {
	switch c {
	case CompressionZlibInline:
		return "zlib (inline)"
	case CompressionZlibResource:
		return "zlib (resource fork)"
	case CompressionLZVNInline:
		return "lzvn (inline)"
	case CompressionLZVNResource:
		return "lzvn (resource fork)"
	case CompressionRawInline:
		return "uncompressed (inline)"
	case CompressionRawResource:
		return "uncompressed (resource fork)"
	case CompressionLZFSEInline:
		return "lzfse (inline)"
	case CompressionLZFSEResource:
		return "lzfse (resource fork)"
	default:
		return "unknown"
	}
}

// IsKnown reports whether the type is one of the documented decmpfs types.
func (c CompressionType) IsKnown() bool {
	return c >= CompressionZlibInline && c <= CompressionLZFSEResource && c != 5 && c != 6
}

// Compressed block flags. A block whose first byte has this low nibble is stored verbatim.
const (
	CompressedBlockLiteralMask uint8 = 0x0F
	CompressedBlockLiteral     uint8 = 0x0F
)

// CompressedBlockEntryT locates one block in the resource-resident block table.
// Both fields are little-endian and relative to the start of the block table.
type CompressedBlockEntryT struct {
	Offset uint32
	Length uint32
}

// Resource Forks
// Reference: Inside Macintosh "Resource Manager"

// ResourceHeaderSize is the on-disk size of the resource fork header.
const ResourceHeaderSize = 16

// ResourceHeaderT is the header at the start of a resource fork.
type ResourceHeaderT struct {
	// Offset from the start of the fork to the resource data.
	DataOffset uint32

	// Offset from the start of the fork to the resource map.
	MapOffset uint32

	// Length of the resource data.
	DataLength uint32

	// Length of the resource map.
	MapLength uint32
}

// ResourceMapHeaderSize is the size of the resource map up to and including the name list offset.
const ResourceMapHeaderSize = 28

// ResourceMapT is the fixed part of the resource map.
type ResourceMapT struct {
	// Copy of the resource header; ignored.
	HeaderCopy ResourceHeaderT

	// Handle to the next resource map; ignored.
	NextMap uint32

	// File reference number; ignored.
	FileRef uint16

	// Resource fork attributes.
	Attributes uint16

	// Offset from the start of the map to the type list.
	TypeListOffset uint16

	// Offset from the start of the map to the name list.
	NameListOffset uint16
}

// ResourceTypeEntrySize is the on-disk size of a type list entry.
const ResourceTypeEntrySize = 8

// ResourceTypeEntryT is one entry of the resource type list.
type ResourceTypeEntryT struct {
	// The four character resource type.
	Type [4]byte

	// Number of resources of this type, minus one.
	CountMinusOne uint16

	// Offset from the start of the type list to this type's reference list.
	RefListOffset uint16
}

// Count returns the number of resources of this type.
func (e ResourceTypeEntryT) Count() int {
	return int(e.CountMinusOne) + 1
}

// ResourceRefEntrySize is the on-disk size of a reference list entry.
const ResourceRefEntrySize = 12

// ResourceRefEntryT is one entry of a resource reference list.
type ResourceRefEntryT struct {
	// Resource ID.
	ID int16

	// Offset from the start of the name list to the resource name, or -1.
	NameOffset int16

	// Resource attributes.
	Attributes uint8

	// Offset from the start of resource data to this resource's data (24 bits).
	DataOffset uint32

	// Handle to the resource; ignored.
	Handle uint32
}

// CompressedResourceType is the resource type that holds decmpfs block data.
var CompressedResourceType = [4]byte{'c', 'm', 'p', 'f'}
