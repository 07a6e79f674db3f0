package datastreams

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Encoded lengths of the fork structures
const (
	ExtentDescriptorLength = types.ExtentDescriptorSize
	ExtentRecordLength     = types.ExtentRecordSize
	ForkDataLength         = types.ForkDataSize
)

// DecodeExtentDescriptor decodes an extent descriptor at off
func DecodeExtentDescriptor(buf []byte, off int) (types.ExtentDescriptorT, error) {
	if err := helpers.CheckLength(buf, off, ExtentDescriptorLength, "extent descriptor"); err != nil {
		return types.ExtentDescriptorT{}, err
	}
	return types.ExtentDescriptorT{
		StartBlock: binary.BigEndian.Uint32(buf[off : off+4]),
		BlockCount: binary.BigEndian.Uint32(buf[off+4 : off+8]),
	}, nil
}

// EncodeExtentDescriptor encodes an extent descriptor at off
func EncodeExtentDescriptor(buf []byte, off int, e types.ExtentDescriptorT) error {
	if err := helpers.CheckLength(buf, off, ExtentDescriptorLength, "extent descriptor"); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[off:off+4], e.StartBlock)
	binary.BigEndian.PutUint32(buf[off+4:off+8], e.BlockCount)
	return nil
}

// DecodeExtentRecord decodes eight extent descriptors at off
func DecodeExtentRecord(buf []byte, off int) (types.ExtentRecordT, error) {
	var rec types.ExtentRecordT
	if err := helpers.CheckLength(buf, off, ExtentRecordLength, "extent record"); err != nil {
		return rec, err
	}
	for i := range rec {
		// Length was checked for the whole record.
		rec[i], _ = DecodeExtentDescriptor(buf, off+i*ExtentDescriptorLength)
	}
	return rec, nil
}

// EncodeExtentRecord encodes eight extent descriptors at off
func EncodeExtentRecord(buf []byte, off int, rec types.ExtentRecordT) error {
	if err := helpers.CheckLength(buf, off, ExtentRecordLength, "extent record"); err != nil {
		return err
	}
	for i, e := range rec {
		_ = EncodeExtentDescriptor(buf, off+i*ExtentDescriptorLength, e)
	}
	return nil
}

// DecodeForkData decodes a fork data structure at off
func DecodeForkData(buf []byte, off int) (types.ForkDataT, error) {
	if err := helpers.CheckLength(buf, off, ForkDataLength, "fork data"); err != nil {
		return types.ForkDataT{}, err
	}
	extents, _ := DecodeExtentRecord(buf, off+16)
	return types.ForkDataT{
		LogicalSize: binary.BigEndian.Uint64(buf[off : off+8]),
		ClumpSize:   binary.BigEndian.Uint32(buf[off+8 : off+12]),
		TotalBlocks: binary.BigEndian.Uint32(buf[off+12 : off+16]),
		Extents:     extents,
	}, nil
}

// EncodeForkData encodes a fork data structure at off
func EncodeForkData(buf []byte, off int, fd types.ForkDataT) error {
	if err := helpers.CheckLength(buf, off, ForkDataLength, "fork data"); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(buf[off:off+8], fd.LogicalSize)
	binary.BigEndian.PutUint32(buf[off+8:off+12], fd.ClumpSize)
	binary.BigEndian.PutUint32(buf[off+12:off+16], fd.TotalBlocks)
	return EncodeExtentRecord(buf, off+16, fd.Extents)
}

// DecodeCNID decodes a catalog node identifier at off
func DecodeCNID(buf []byte, off int) (types.CNID, error) {
	if err := helpers.CheckLength(buf, off, 4, "catalog node ID"); err != nil {
		return 0, err
	}
	return types.CNID(binary.BigEndian.Uint32(buf[off : off+4])), nil
}

// EncodeCNID encodes a catalog node identifier at off
func EncodeCNID(buf []byte, off int, id types.CNID) error {
	if err := helpers.CheckLength(buf, off, 4, "catalog node ID"); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[off:off+4], uint32(id))
	return nil
}
