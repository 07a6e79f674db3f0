package btrees

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// EncodeNode lays out a node of nodeSize bytes: the descriptor, the records packed after it
// and the record offset table at the end. NumRecords is taken from len(records).
func EncodeNode(desc types.BTNodeDescriptorT, records [][]byte, nodeSize int) ([]byte, error) {
	desc.NumRecords = uint16(len(records))
	tableLen := 2 * (len(records) + 1)

	used := NodeDescriptorLength + tableLen
	for _, r := range records {
		used += len(r)
	}
	if used > nodeSize {
		return nil, fmt.Errorf("%d bytes of records do not fit in a %d byte node: %w", used, nodeSize, types.ErrShortRead)
	}

	data := make([]byte, nodeSize)
	if err := EncodeNodeDescriptor(data, 0, desc); err != nil {
		return nil, err
	}

	off := NodeDescriptorLength
	for i, r := range records {
		copy(data[off:], r)
		binary.BigEndian.PutUint16(data[nodeSize-2*(i+1):], uint16(off))
		off += len(r)
	}
	binary.BigEndian.PutUint16(data[nodeSize-2*(len(records)+1):], uint16(off))
	return data, nil
}
