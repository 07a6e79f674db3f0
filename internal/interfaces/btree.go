// File: internal/interfaces/btree.go
package interfaces

import (
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Key is a decoded B-tree record key. Each tree has its own key type.
type Key interface {
	// Length returns the encoded size of the key in bytes, including its length field
	Length() int
}

// TreeFlavor supplies what differs between the catalog, extents overflow and attributes
// trees: the key layout and the key ordering. Node layout is shared by all trees.
type TreeFlavor interface {
	// Name returns a short name for the tree
	Name() string

	// DecodeKey decodes the key at the start of a record
	DecodeKey(rec []byte) (Key, error)

	// CompareKeys orders two keys of this tree: negative if a < b, zero if equal, positive if a > b
	CompareKeys(a, b Key) int
}

// FlavorFactory builds the flavor of a tree from the volume header and the tree's header
// record. It runs once per read session.
type FlavorFactory func(vh *types.VolumeHeaderT, hdr *types.BTHeaderRecT) (TreeFlavor, error)

// BTreeNodeReader provides access to a decoded B-tree node
type BTreeNodeReader interface {
	// Descriptor returns the node descriptor
	Descriptor() types.BTNodeDescriptorT

	// Kind returns the node kind
	Kind() types.NodeKind

	// NumRecords returns the number of records in the node
	NumRecords() int

	// Record returns the raw bytes of record i
	Record(i int) ([]byte, error)

	// FreeSpaceOffset returns the offset of the node's free space
	FreeSpaceOffset() int

	// Size returns the node size in bytes
	Size() int
}

// LeafRecord is a leaf record with its key decoded and its data left raw for the
// tree-specific record decoder.
type LeafRecord struct {
	Key  Key
	Data []byte
}

// IndexRecord is an index record: a key and the node number of the child it routes to.
type IndexRecord struct {
	Key   Key
	Child uint32
}
