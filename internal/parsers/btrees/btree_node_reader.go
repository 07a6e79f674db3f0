package btrees

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// btreeNodeReader implements the BTreeNodeReader interface
type btreeNodeReader struct {
	descriptor types.BTNodeDescriptorT
	data       []byte
	offsets    []int
}

// NewBTreeNodeReader decodes one node. data must hold exactly one node of the tree's node size.
// The record offset table at the end of the node is validated: N+1 offsets, non-decreasing,
// starting after the descriptor and ending before the table itself.
func NewBTreeNodeReader(data []byte) (interfaces.BTreeNodeReader, error) {
	desc, err := DecodeNodeDescriptor(data, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node descriptor: %w", err)
	}

	n := int(desc.NumRecords)
	tableLen := 2 * (n + 1)
	if NodeDescriptorLength+tableLen > len(data) {
		return nil, fmt.Errorf("node with %d records does not fit in %d bytes: %w", n, len(data), types.ErrCorruptStructure)
	}
	tableStart := len(data) - tableLen

	offsets := make([]int, n+1)
	prev := NodeDescriptorLength
	for i := 0; i <= n; i++ {
		pos := len(data) - 2*(i+1)
		off := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		if off < prev || off > tableStart {
			return nil, fmt.Errorf("record %d offset %d out of range [%d, %d]: %w", i, off, prev, tableStart, types.ErrCorruptStructure)
		}
		offsets[i] = off
		prev = off
	}

	return &btreeNodeReader{
		descriptor: desc,
		data:       data,
		offsets:    offsets,
	}, nil
}

// Descriptor returns the node descriptor
func (n *btreeNodeReader) Descriptor() types.BTNodeDescriptorT {
	return n.descriptor
}

// Kind returns the node kind
func (n *btreeNodeReader) Kind() types.NodeKind {
	return n.descriptor.Kind
}

// NumRecords returns the number of records in the node
func (n *btreeNodeReader) NumRecords() int {
	return len(n.offsets) - 1
}

// Record returns the raw bytes of record i
func (n *btreeNodeReader) Record(i int) ([]byte, error) {
	if i < 0 || i >= n.NumRecords() {
		return nil, fmt.Errorf("record index %d out of range (node has %d records)", i, n.NumRecords())
	}
	return n.data[n.offsets[i]:n.offsets[i+1]], nil
}

// FreeSpaceOffset returns the offset of the node's free space
func (n *btreeNodeReader) FreeSpaceOffset() int {
	return n.offsets[len(n.offsets)-1]
}

// Size returns the node size in bytes
func (n *btreeNodeReader) Size() int {
	return len(n.data)
}
