// Package attributes decodes the keys and records of the attributes B-tree.
package attributes

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/catalog"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// DecodeAttrKey decodes an attribute key at off
func DecodeAttrKey(buf []byte, off int) (types.AttrKeyT, error) {
	if err := helpers.CheckLength(buf, off, 2+types.AttrKeyMinLength, "attribute key"); err != nil {
		return types.AttrKeyT{}, err
	}
	be := binary.BigEndian
	b := buf[off:]
	k := types.AttrKeyT{
		KeyLength:  be.Uint16(b[0:2]),
		Pad:        be.Uint16(b[2:4]),
		FileID:     types.CNID(be.Uint32(b[4:8])),
		StartBlock: be.Uint32(b[8:12]),
	}
	nameLen := int(be.Uint16(b[12:14]))
	if nameLen > 127 || types.AttrKeyMinLength+2*nameLen > int(k.KeyLength) {
		return types.AttrKeyT{}, fmt.Errorf("attribute key name length %d does not fit key length %d: %w", nameLen, k.KeyLength, types.ErrCorruptStructure)
	}
	name, err := helpers.DecodeUTF16BE(buf, off+14, nameLen)
	if err != nil {
		return types.AttrKeyT{}, err
	}
	k.Name = name
	return k, nil
}

// EncodeAttrKey encodes an attribute key at off
func EncodeAttrKey(buf []byte, off int, k types.AttrKeyT) error {
	if err := helpers.CheckLength(buf, off, k.Length(), "attribute key"); err != nil {
		return err
	}
	be := binary.BigEndian
	be.PutUint16(buf[off:off+2], k.KeyLength)
	be.PutUint16(buf[off+2:off+4], k.Pad)
	be.PutUint32(buf[off+4:off+8], uint32(k.FileID))
	be.PutUint32(buf[off+8:off+12], k.StartBlock)
	be.PutUint16(buf[off+12:off+14], uint16(len(k.Name)))
	return helpers.EncodeUTF16BE(buf, off+14, k.Name)
}

// Flavor is the attributes B-tree flavor. Keys are ordered by file ID, then by attribute
// name as raw code units, then by start block.
type Flavor struct{}

// NewFlavor returns the attributes flavor
func NewFlavor() *Flavor {
	return &Flavor{}
}

// NewFlavorForVolume is the FlavorFactory of the attributes tree
func NewFlavorForVolume(_ *types.VolumeHeaderT, hdr *types.BTHeaderRecT) (interfaces.TreeFlavor, error) {
	if !hdr.BigKeys() {
		return nil, fmt.Errorf("attributes tree without big keys: %w", types.ErrUnsupportedVariant)
	}
	return NewFlavor(), nil
}

// Name returns the tree name
func (f *Flavor) Name() string {
	return "attributes"
}

// DecodeKey decodes an attribute key at the start of a record
func (f *Flavor) DecodeKey(rec []byte) (interfaces.Key, error) {
	return DecodeAttrKey(rec, 0)
}

// CompareKeys orders two attribute keys
func (f *Flavor) CompareKeys(a, b interfaces.Key) int {
	ka, kb := a.(types.AttrKeyT), b.(types.AttrKeyT)
	if ka.FileID != kb.FileID {
		if ka.FileID < kb.FileID {
			return -1
		}
		return 1
	}
	if c := catalog.CompareNames(ka.Name, kb.Name, catalog.CollationBinary); c != 0 {
		return c
	}
	switch {
	case ka.StartBlock < kb.StartBlock:
		return -1
	case ka.StartBlock > kb.StartBlock:
		return 1
	}
	return 0
}
