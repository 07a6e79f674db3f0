package btrees

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Encoded lengths of the fixed B-tree structures
const (
	NodeDescriptorLength = types.NodeDescriptorSize
	HeaderRecordLength   = types.HeaderRecordSize
)

// DecodeNodeDescriptor decodes a node descriptor at off
func DecodeNodeDescriptor(buf []byte, off int) (types.BTNodeDescriptorT, error) {
	if err := helpers.CheckLength(buf, off, NodeDescriptorLength, "node descriptor"); err != nil {
		return types.BTNodeDescriptorT{}, err
	}
	b := buf[off : off+NodeDescriptorLength]
	return types.BTNodeDescriptorT{
		FLink:      binary.BigEndian.Uint32(b[0:4]),
		BLink:      binary.BigEndian.Uint32(b[4:8]),
		Kind:       types.NodeKind(int8(b[8])),
		Height:     b[9],
		NumRecords: binary.BigEndian.Uint16(b[10:12]),
		Reserved:   binary.BigEndian.Uint16(b[12:14]),
	}, nil
}

// EncodeNodeDescriptor encodes a node descriptor at off
func EncodeNodeDescriptor(buf []byte, off int, d types.BTNodeDescriptorT) error {
	if err := helpers.CheckLength(buf, off, NodeDescriptorLength, "node descriptor"); err != nil {
		return err
	}
	b := buf[off : off+NodeDescriptorLength]
	binary.BigEndian.PutUint32(b[0:4], d.FLink)
	binary.BigEndian.PutUint32(b[4:8], d.BLink)
	b[8] = byte(int8(d.Kind))
	b[9] = d.Height
	binary.BigEndian.PutUint16(b[10:12], d.NumRecords)
	binary.BigEndian.PutUint16(b[12:14], d.Reserved)
	return nil
}

// DecodeHeaderRecord decodes a B-tree header record at off
func DecodeHeaderRecord(buf []byte, off int) (types.BTHeaderRecT, error) {
	if err := helpers.CheckLength(buf, off, HeaderRecordLength, "B-tree header record"); err != nil {
		return types.BTHeaderRecT{}, err
	}
	b := buf[off : off+HeaderRecordLength]
	be := binary.BigEndian

	h := types.BTHeaderRecT{
		TreeDepth:      be.Uint16(b[0:2]),
		RootNode:       be.Uint32(b[2:6]),
		LeafRecords:    be.Uint32(b[6:10]),
		FirstLeafNode:  be.Uint32(b[10:14]),
		LastLeafNode:   be.Uint32(b[14:18]),
		NodeSize:       be.Uint16(b[18:20]),
		MaxKeyLength:   be.Uint16(b[20:22]),
		TotalNodes:     be.Uint32(b[22:26]),
		FreeNodes:      be.Uint32(b[26:30]),
		Reserved1:      be.Uint16(b[30:32]),
		ClumpSize:      be.Uint32(b[32:36]),
		BTreeType:      b[36],
		KeyCompareType: b[37],
		Attributes:     be.Uint32(b[38:42]),
	}
	for i := range h.Reserved3 {
		h.Reserved3[i] = be.Uint32(b[42+4*i : 46+4*i])
	}
	return h, nil
}

// EncodeHeaderRecord encodes a B-tree header record at off
func EncodeHeaderRecord(buf []byte, off int, h types.BTHeaderRecT) error {
	if err := helpers.CheckLength(buf, off, HeaderRecordLength, "B-tree header record"); err != nil {
		return err
	}
	b := buf[off : off+HeaderRecordLength]
	be := binary.BigEndian

	be.PutUint16(b[0:2], h.TreeDepth)
	be.PutUint32(b[2:6], h.RootNode)
	be.PutUint32(b[6:10], h.LeafRecords)
	be.PutUint32(b[10:14], h.FirstLeafNode)
	be.PutUint32(b[14:18], h.LastLeafNode)
	be.PutUint16(b[18:20], h.NodeSize)
	be.PutUint16(b[20:22], h.MaxKeyLength)
	be.PutUint32(b[22:26], h.TotalNodes)
	be.PutUint32(b[26:30], h.FreeNodes)
	be.PutUint16(b[30:32], h.Reserved1)
	be.PutUint32(b[32:36], h.ClumpSize)
	b[36] = h.BTreeType
	b[37] = h.KeyCompareType
	be.PutUint32(b[38:42], h.Attributes)
	for i, v := range h.Reserved3 {
		be.PutUint32(b[42+4*i:46+4*i], v)
	}
	return nil
}
