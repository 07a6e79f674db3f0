// Package compression decodes the structures of decmpfs compressed files: the decmpfs
// attribute header, the resource fork that holds a "cmpf" resource and the block table
// stored inside that resource.
package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// DecmpfsHeaderLength is the encoded length of a decmpfs header
const DecmpfsHeaderLength = types.DecmpfsHeaderSize

// InlineFlagOffset is the offset of the sub-flag byte of an inline compressed payload
const InlineFlagOffset = DecmpfsHeaderLength

// DecodeDecmpfsHeader decodes a little-endian decmpfs header at off and checks its magic
func DecodeDecmpfsHeader(buf []byte, off int) (types.DecmpfsHeaderT, error) {
	if err := helpers.CheckLength(buf, off, DecmpfsHeaderLength, "decmpfs header"); err != nil {
		return types.DecmpfsHeaderT{}, err
	}
	b := buf[off : off+DecmpfsHeaderLength]
	h := types.DecmpfsHeaderT{
		Magic:           binary.LittleEndian.Uint32(b[0:4]),
		CompressionType: types.CompressionType(binary.LittleEndian.Uint32(b[4:8])),
		RawFileSize:     binary.LittleEndian.Uint64(b[8:16]),
	}
	if h.Magic != types.DecmpfsMagic {
		return types.DecmpfsHeaderT{}, fmt.Errorf("decmpfs magic 0x%08x, expected 0x%08x: %w", h.Magic, types.DecmpfsMagic, types.ErrCorruptStructure)
	}
	return h, nil
}

// EncodeDecmpfsHeader encodes a decmpfs header at off
func EncodeDecmpfsHeader(buf []byte, off int, h types.DecmpfsHeaderT) error {
	if err := helpers.CheckLength(buf, off, DecmpfsHeaderLength, "decmpfs header"); err != nil {
		return err
	}
	b := buf[off : off+DecmpfsHeaderLength]
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.CompressionType))
	binary.LittleEndian.PutUint64(b[8:16], h.RawFileSize)
	return nil
}

// IsLiteral reports whether a block or inline payload flag marks uncompressed data
func IsLiteral(flag byte) bool {
	return flag&types.CompressedBlockLiteralMask == types.CompressedBlockLiteral
}
