// Package extents decodes the keys and records of the extents overflow B-tree.
package extents

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	datastreams "github.com/deploymenttheory/go-hfsplus/internal/parsers/data_streams"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// ExtentKeyLength is the encoded length of an extent key
const ExtentKeyLength = types.ExtentKeySize

// DecodeExtentKey decodes an extent key at off
func DecodeExtentKey(buf []byte, off int) (types.ExtentKeyT, error) {
	if err := helpers.CheckLength(buf, off, ExtentKeyLength, "extent key"); err != nil {
		return types.ExtentKeyT{}, err
	}
	b := buf[off : off+ExtentKeyLength]
	k := types.ExtentKeyT{
		KeyLength:  binary.BigEndian.Uint16(b[0:2]),
		ForkType:   types.ForkType(b[2]),
		Pad:        b[3],
		FileID:     types.CNID(binary.BigEndian.Uint32(b[4:8])),
		StartBlock: binary.BigEndian.Uint32(b[8:12]),
	}
	if k.KeyLength != types.ExtentKeyLength {
		return types.ExtentKeyT{}, fmt.Errorf("extent key length %d, expected %d: %w", k.KeyLength, types.ExtentKeyLength, types.ErrCorruptStructure)
	}
	return k, nil
}

// EncodeExtentKey encodes an extent key at off
func EncodeExtentKey(buf []byte, off int, k types.ExtentKeyT) error {
	if err := helpers.CheckLength(buf, off, ExtentKeyLength, "extent key"); err != nil {
		return err
	}
	b := buf[off : off+ExtentKeyLength]
	binary.BigEndian.PutUint16(b[0:2], k.KeyLength)
	b[2] = byte(k.ForkType)
	b[3] = k.Pad
	binary.BigEndian.PutUint32(b[4:8], uint32(k.FileID))
	binary.BigEndian.PutUint32(b[8:12], k.StartBlock)
	return nil
}

// DecodeExtentLeafData decodes the extent record stored in an extents overflow leaf record
func DecodeExtentLeafData(data []byte) (types.ExtentRecordT, error) {
	return datastreams.DecodeExtentRecord(data, 0)
}

// Flavor is the extents overflow B-tree flavor. Keys are ordered by file ID, then fork type,
// then start block.
type Flavor struct{}

// NewFlavor returns the extents overflow flavor
func NewFlavor() *Flavor {
	return &Flavor{}
}

// NewFlavorForVolume is the FlavorFactory of the extents overflow tree
func NewFlavorForVolume(_ *types.VolumeHeaderT, hdr *types.BTHeaderRecT) (interfaces.TreeFlavor, error) {
	if !hdr.BigKeys() {
		return nil, fmt.Errorf("extents tree without big keys: %w", types.ErrUnsupportedVariant)
	}
	return NewFlavor(), nil
}

// Name returns the tree name
func (f *Flavor) Name() string {
	return "extents"
}

// DecodeKey decodes an extent key at the start of a record
func (f *Flavor) DecodeKey(rec []byte) (interfaces.Key, error) {
	return DecodeExtentKey(rec, 0)
}

// CompareKeys orders two extent keys
func (f *Flavor) CompareKeys(a, b interfaces.Key) int {
	ka, kb := a.(types.ExtentKeyT), b.(types.ExtentKeyT)
	switch {
	case ka.FileID != kb.FileID:
		return cmpUint(uint64(ka.FileID), uint64(kb.FileID))
	case ka.ForkType != kb.ForkType:
		return cmpUint(uint64(ka.ForkType), uint64(kb.ForkType))
	default:
		return cmpUint(uint64(ka.StartBlock), uint64(kb.StartBlock))
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
