package catalog

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// DecodeCatalogKey decodes a catalog key at off
func DecodeCatalogKey(buf []byte, off int) (types.CatalogKeyT, error) {
	if err := helpers.CheckLength(buf, off, 2+types.CatalogKeyMinLength, "catalog key"); err != nil {
		return types.CatalogKeyT{}, err
	}
	keyLength := binary.BigEndian.Uint16(buf[off : off+2])
	if keyLength < types.CatalogKeyMinLength {
		return types.CatalogKeyT{}, fmt.Errorf("catalog key length %d below minimum: %w", keyLength, types.ErrCorruptStructure)
	}
	parentID := types.CNID(binary.BigEndian.Uint32(buf[off+2 : off+6]))
	nameLen := int(binary.BigEndian.Uint16(buf[off+6 : off+8]))
	if nameLen > types.MaxNameLength || types.CatalogKeyMinLength+2*nameLen > int(keyLength) {
		return types.CatalogKeyT{}, fmt.Errorf("catalog key name length %d does not fit key length %d: %w", nameLen, keyLength, types.ErrCorruptStructure)
	}
	name, err := helpers.DecodeUTF16BE(buf, off+8, nameLen)
	if err != nil {
		return types.CatalogKeyT{}, err
	}
	return types.CatalogKeyT{
		KeyLength: keyLength,
		ParentID:  parentID,
		NodeName:  name,
	}, nil
}

// EncodeCatalogKey encodes a catalog key at off. The key's KeyLength is written as stored.
func EncodeCatalogKey(buf []byte, off int, k types.CatalogKeyT) error {
	if err := helpers.CheckLength(buf, off, k.Length(), "catalog key"); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf[off:off+2], k.KeyLength)
	binary.BigEndian.PutUint32(buf[off+2:off+6], uint32(k.ParentID))
	binary.BigEndian.PutUint16(buf[off+6:off+8], uint16(len(k.NodeName)))
	return helpers.EncodeUTF16BE(buf, off+8, k.NodeName)
}
