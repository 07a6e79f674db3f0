package types

// Attributes File
// Extended attributes are kept in the attributes B-tree, keyed by file ID, start block and
// attribute name.

// AttrKeyMinLength is the smallest valid keyLength of an attribute key.
const AttrKeyMinLength = 12

// AttrKeyT is the key of an attributes B-tree record.
// Reference: TN1150 "Attributes File Key"
type AttrKeyT struct {
	KeyLength uint16
	Pad       uint16

	// The CNID of the file or folder the attribute belongs to.
	FileID CNID

	// For extents records, the offset in allocation blocks of the first extent.
	StartBlock uint32

	// The name of the attribute.
	Name UniStr
}

// AttrRecordType is the type of an attributes B-tree leaf record.
type AttrRecordType uint32

const (
	// AttrRecordInlineData holds the attribute value inline.
	AttrRecordInlineData AttrRecordType = 0x10

	// AttrRecordForkData holds a fork data structure for a large attribute value.
	AttrRecordForkData AttrRecordType = 0x20

	// AttrRecordExtents holds additional extents for a fork data attribute.
	AttrRecordExtents AttrRecordType = 0x30
)

// String returns the attribute record type name
func (t AttrRecordType) String() string {
	switch t {
	case AttrRecordInlineData:
		return "inline"
	case AttrRecordForkData:
		return "fork"
	case AttrRecordExtents:
		return "extents"
	default:
		return "unknown"
	}
}

// AttrInlineHeaderSize is the size of an inline data record before its data.
const AttrInlineHeaderSize = 16

// AttrForkDataSize is the size of a fork data attribute record.
const AttrForkDataSize = 8 + ForkDataSize

// AttrExtentsSize is the size of an extents attribute record.
const AttrExtentsSize = 8 + ExtentRecordSize

// AttrRecord is a decoded attributes leaf record. Exactly one of Data, Fork or Extents is
// meaningful, selected by Kind.
type AttrRecord struct {
	Key     AttrKeyT
	Kind    AttrRecordType
	Data    []byte
	Fork    ForkDataT
	Extents ExtentRecordT
}

// Name returns the attribute name
func (r *AttrRecord) Name() string {
	return r.Key.Name.String()
}

// Length returns the encoded size of the key including the keyLength field.
func (k AttrKeyT) Length() int {
	return 2 + int(k.KeyLength)
}

// NewAttrKey builds a search key for an attribute record.
func NewAttrKey(fileID CNID, name UniStr, startBlock uint32) AttrKeyT {
	return AttrKeyT{
		KeyLength:  uint16(AttrKeyMinLength + 2*len(name)),
		FileID:     fileID,
		StartBlock: startBlock,
		Name:       name,
	}
}
