package compression

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// BlockEntryLength is the encoded length of one block table entry
const BlockEntryLength = 8

// BlockCountLength is the encoded length of the block count that opens the table
const BlockCountLength = 4

// DecodeBlockCount decodes the little-endian block count at the start of a cmpf resource
func DecodeBlockCount(buf []byte) (uint32, error) {
	if err := helpers.CheckLength(buf, 0, BlockCountLength, "compressed block count"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[0:4]), nil
}

// BlockTableLength returns the encoded length of a table with count entries,
// including the count itself.
func BlockTableLength(count uint32) int64 {
	return BlockCountLength + int64(count)*BlockEntryLength
}

// DecodeBlockTable decodes the block count and the (offset, length) entries that follow it.
// Offsets are relative to the start of buf, which is the start of the cmpf resource payload.
func DecodeBlockTable(buf []byte) ([]types.CompressedBlockEntryT, error) {
	count, err := DecodeBlockCount(buf)
	if err != nil {
		return nil, err
	}
	if BlockTableLength(count) > math.MaxInt32 {
		return nil, fmt.Errorf("compressed block count %d: %w", count, types.ErrCorruptStructure)
	}
	if err := helpers.CheckLength(buf, BlockCountLength, int(count)*BlockEntryLength, "compressed block table"); err != nil {
		return nil, err
	}

	entries := make([]types.CompressedBlockEntryT, count)
	for i := range entries {
		b := buf[BlockCountLength+i*BlockEntryLength:]
		entries[i] = types.CompressedBlockEntryT{
			Offset: binary.LittleEndian.Uint32(b[0:4]),
			Length: binary.LittleEndian.Uint32(b[4:8]),
		}
	}
	return entries, nil
}

// EncodeBlockTable encodes a block table into a new buffer
func EncodeBlockTable(entries []types.CompressedBlockEntryT) []byte {
	buf := make([]byte, BlockTableLength(uint32(len(entries))))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(entries)))
	for i, e := range entries {
		b := buf[BlockCountLength+i*BlockEntryLength:]
		binary.LittleEndian.PutUint32(b[0:4], e.Offset)
		binary.LittleEndian.PutUint32(b[4:8], e.Length)
	}
	return buf
}

// ValidateBlockEntry checks that a block lies inside a payload of size bytes and is long
// enough to hold its flag byte.
func ValidateBlockEntry(index int, e types.CompressedBlockEntryT, size int64) error {
	if e.Length == 0 {
		return fmt.Errorf("compressed block %d is empty: %w", index, types.ErrCorruptStructure)
	}
	if int64(e.Offset)+int64(e.Length) > size {
		return fmt.Errorf("compressed block %d [%d, +%d) beyond resource of %d bytes: %w",
			index, e.Offset, e.Length, size, types.ErrCorruptStructure)
	}
	return nil
}
