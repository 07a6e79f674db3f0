package types

// Extents Overflow File
// Extents beyond the eight stored in a fork data structure are kept in the extents overflow
// B-tree. Each leaf record is an extent record keyed by file ID, fork type and the first
// allocation block (relative to the fork) that the record describes.

// ExtentKeyLength is the value of keyLength for an extent key.
const ExtentKeyLength = 10

// ExtentKeySize is the on-disk size of an extent key including its keyLength field.
const ExtentKeySize = 12

// ExtentKeyT is the key of an extents overflow B-tree record.
// Reference: TN1150 "Extents Overflow File Key"
type ExtentKeyT struct {
	// The length of the key, excluding this field. Always ExtentKeyLength.
	KeyLength uint16

	// The type of fork for which this extent record applies.
	ForkType ForkType

	// Padding.
	Pad uint8

	// The CNID of the file whose fork this record describes.
	FileID CNID

	// The offset, in allocation blocks, into the fork of the first extent in the record.
	StartBlock uint32
}

// Length returns the encoded size of the key including the keyLength field.
func (k ExtentKeyT) Length() int {
	return 2 + int(k.KeyLength)
}

// NewExtentKey builds a search key for an overflow extent record.
func NewExtentKey(fileID CNID, forkType ForkType, startBlock uint32) ExtentKeyT {
	return ExtentKeyT{
		KeyLength:  ExtentKeyLength,
		ForkType:   forkType,
		FileID:     fileID,
		StartBlock: startBlock,
	}
}
