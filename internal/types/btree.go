package types

// B-Trees
// The catalog, extents overflow and attributes files are all B-trees. A B-tree file is
// divided into fixed-size nodes; node 0 is always the header node.

// NodeDescriptorSize is the on-disk size of a node descriptor.
const NodeDescriptorSize = 14

// HeaderRecordSize is the on-disk size of the B-tree header record.
const HeaderRecordSize = 106

// Node size bounds.
const (
	MinNodeSize = 512
	MaxNodeSize = 32768
)

// NodeKind is the kind of a B-tree node, stored as a signed byte.
type NodeKind int8

const (
	// NodeKindLeaf is a leaf node.
	NodeKindLeaf NodeKind = -1

	// NodeKindIndex is an index node.
	NodeKindIndex NodeKind = 0

	// NodeKindHeader is the header node.
	NodeKindHeader NodeKind = 1

	// NodeKindMap is a map node.
	NodeKindMap NodeKind = 2
)

// String returns the name of the node kind
func (k NodeKind) String() string {
	switch k {
	case NodeKindLeaf:
		return "leaf"
	case NodeKindIndex:
		return "index"
	case NodeKindHeader:
		return "header"
	case NodeKindMap:
		return "map"
	default:
		return "unknown"
	}
}

// BTNodeDescriptorT is the descriptor at the start of every B-tree node.
// Reference: TN1150 "Node Descriptor"
type BTNodeDescriptorT struct {
	// The node number of the next node of this type, or 0 if this is the last node.
	FLink uint32

	// The node number of the previous node of this type, or 0 if this is the first node.
	BLink uint32

	// The type of this node.
	Kind NodeKind

	// The level, or depth, of this node in the B-tree hierarchy. Leaf nodes are level 1.
	Height uint8

	// The number of records contained in this node.
	NumRecords uint16

	// Reserved.
	Reserved uint16
}

// B-tree attribute bits stored in BTHeaderRecT.Attributes.
const (
	// BTBadCloseMask indicates the tree was not closed properly.
	BTBadCloseMask uint32 = 0x00000001

	// BTBigKeysMask indicates the keyLength field of keys is a uint16.
	BTBigKeysMask uint32 = 0x00000002

	// BTVariableIndexKeysMask indicates index node keys occupy their actual length.
	BTVariableIndexKeysMask uint32 = 0x00000004
)

// Key compare types stored in BTHeaderRecT.KeyCompareType (HFSX catalog only).
const (
	// KeyCompareCaseFolding compares names case-insensitively.
	KeyCompareCaseFolding uint8 = 0xCF

	// KeyCompareBinary compares names as raw UTF-16 code units.
	KeyCompareBinary uint8 = 0xBC
)

// BTHeaderRecT is the first record of the header node.
// Reference: TN1150 "Header Record"
type BTHeaderRecT struct {
	// The current depth of the B-tree.
	TreeDepth uint16

	// The node number of the root node, or 0 if the tree is empty.
	RootNode uint32

	// The total number of records contained in all of the leaf nodes.
	LeafRecords uint32

	// The node number of the first leaf node.
	FirstLeafNode uint32

	// The node number of the last leaf node.
	LastLeafNode uint32

	// The size, in bytes, of a node. Constant for a tree.
	NodeSize uint16

	// The maximum length of a key in an index or leaf node.
	MaxKeyLength uint16

	// The total number of nodes in the B-tree.
	TotalNodes uint32

	// The number of unused nodes in the B-tree.
	FreeNodes uint32

	// Reserved.
	Reserved1 uint16

	// Ignored for HFS+ B-trees.
	ClumpSize uint32

	// Ignored for HFS+ B-trees; 0 for catalog, extents and attributes trees.
	BTreeType uint8

	// For HFSX catalog trees, the ordering of keys. See Key compare types.
	KeyCompareType uint8

	// A set of bits used to describe various attributes of the B-tree.
	Attributes uint32

	// Reserved.
	Reserved3 [16]uint32
}

// BigKeys reports whether keyLength fields are 16 bits wide.
func (h *BTHeaderRecT) BigKeys() bool {
	return h.Attributes&BTBigKeysMask != 0
}

// VariableIndexKeys reports whether index keys are variable length.
func (h *BTHeaderRecT) VariableIndexKeys() bool {
	return h.Attributes&BTVariableIndexKeysMask != 0
}

// BadClose reports whether the tree was not closed properly.
func (h *BTHeaderRecT) BadClose() bool {
	return h.Attributes&BTBadCloseMask != 0
}
