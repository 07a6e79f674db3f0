package attributes

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	datastreams "github.com/deploymenttheory/go-hfsplus/internal/parsers/data_streams"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// DecodeAttrRecord decodes the data of an attributes leaf record into the tagged record
func DecodeAttrRecord(key types.AttrKeyT, data []byte) (*types.AttrRecord, error) {
	if err := helpers.CheckLength(data, 0, 4, "attribute record type"); err != nil {
		return nil, err
	}
	be := binary.BigEndian
	rec := &types.AttrRecord{Key: key, Kind: types.AttrRecordType(be.Uint32(data[0:4]))}

	switch rec.Kind {
	case types.AttrRecordInlineData:
		if err := helpers.CheckLength(data, 0, types.AttrInlineHeaderSize, "inline attribute record"); err != nil {
			return nil, err
		}
		size := int(be.Uint32(data[12:16]))
		if err := helpers.CheckLength(data, types.AttrInlineHeaderSize, size, "inline attribute data"); err != nil {
			return nil, err
		}
		rec.Data = data[types.AttrInlineHeaderSize : types.AttrInlineHeaderSize+size]
	case types.AttrRecordForkData:
		fork, err := datastreams.DecodeForkData(data, 8)
		if err != nil {
			return nil, err
		}
		rec.Fork = fork
	case types.AttrRecordExtents:
		ext, err := datastreams.DecodeExtentRecord(data, 8)
		if err != nil {
			return nil, err
		}
		rec.Extents = ext
	default:
		return nil, fmt.Errorf("unknown attribute record type 0x%x: %w", uint32(rec.Kind), types.ErrCorruptStructure)
	}
	return rec, nil
}

// EncodeInlineAttr encodes an inline data attribute record
func EncodeInlineAttr(value []byte) []byte {
	b := make([]byte, types.AttrInlineHeaderSize+len(value))
	binary.BigEndian.PutUint32(b[0:4], uint32(types.AttrRecordInlineData))
	binary.BigEndian.PutUint32(b[12:16], uint32(len(value)))
	copy(b[types.AttrInlineHeaderSize:], value)
	return b
}

// EncodeForkAttr encodes a fork data attribute record
func EncodeForkAttr(fork types.ForkDataT) []byte {
	b := make([]byte, types.AttrForkDataSize)
	binary.BigEndian.PutUint32(b[0:4], uint32(types.AttrRecordForkData))
	_ = datastreams.EncodeForkData(b, 8, fork)
	return b
}

// EncodeExtentsAttr encodes an extents attribute record
func EncodeExtentsAttr(ext types.ExtentRecordT) []byte {
	b := make([]byte, types.AttrExtentsSize)
	binary.BigEndian.PutUint32(b[0:4], uint32(types.AttrRecordExtents))
	_ = datastreams.EncodeExtentRecord(b, 8, ext)
	return b
}
