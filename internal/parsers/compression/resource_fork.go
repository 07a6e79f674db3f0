package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Encoded lengths of the resource fork structures
const (
	ResourceHeaderLength    = types.ResourceHeaderSize
	ResourceMapHeaderLength = types.ResourceMapHeaderSize
	ResourceTypeEntryLength = types.ResourceTypeEntrySize
	ResourceRefEntryLength  = types.ResourceRefEntrySize

	// ResourceDataLengthSize is the size of the big-endian length that precedes each resource.
	ResourceDataLengthSize = 4

	// resourceDataStart is where BuildCompressedResourceFork places resource data.
	resourceDataStart = 0x100
)

// DecodeResourceHeader decodes a resource fork header at off
func DecodeResourceHeader(buf []byte, off int) (types.ResourceHeaderT, error) {
	if err := helpers.CheckLength(buf, off, ResourceHeaderLength, "resource fork header"); err != nil {
		return types.ResourceHeaderT{}, err
	}
	b := buf[off : off+ResourceHeaderLength]
	return types.ResourceHeaderT{
		DataOffset: binary.BigEndian.Uint32(b[0:4]),
		MapOffset:  binary.BigEndian.Uint32(b[4:8]),
		DataLength: binary.BigEndian.Uint32(b[8:12]),
		MapLength:  binary.BigEndian.Uint32(b[12:16]),
	}, nil
}

// EncodeResourceHeader encodes a resource fork header at off
func EncodeResourceHeader(buf []byte, off int, h types.ResourceHeaderT) error {
	if err := helpers.CheckLength(buf, off, ResourceHeaderLength, "resource fork header"); err != nil {
		return err
	}
	b := buf[off : off+ResourceHeaderLength]
	binary.BigEndian.PutUint32(b[0:4], h.DataOffset)
	binary.BigEndian.PutUint32(b[4:8], h.MapOffset)
	binary.BigEndian.PutUint32(b[8:12], h.DataLength)
	binary.BigEndian.PutUint32(b[12:16], h.MapLength)
	return nil
}

// DecodeResourceMap decodes the fixed part of a resource map at off
func DecodeResourceMap(buf []byte, off int) (types.ResourceMapT, error) {
	if err := helpers.CheckLength(buf, off, ResourceMapHeaderLength, "resource map"); err != nil {
		return types.ResourceMapT{}, err
	}
	copyHdr, _ := DecodeResourceHeader(buf, off)
	b := buf[off : off+ResourceMapHeaderLength]
	return types.ResourceMapT{
		HeaderCopy:     copyHdr,
		NextMap:        binary.BigEndian.Uint32(b[16:20]),
		FileRef:        binary.BigEndian.Uint16(b[20:22]),
		Attributes:     binary.BigEndian.Uint16(b[22:24]),
		TypeListOffset: binary.BigEndian.Uint16(b[24:26]),
		NameListOffset: binary.BigEndian.Uint16(b[26:28]),
	}, nil
}

// DecodeResourceTypeEntry decodes a type list entry at off
func DecodeResourceTypeEntry(buf []byte, off int) (types.ResourceTypeEntryT, error) {
	if err := helpers.CheckLength(buf, off, ResourceTypeEntryLength, "resource type entry"); err != nil {
		return types.ResourceTypeEntryT{}, err
	}
	b := buf[off : off+ResourceTypeEntryLength]
	var e types.ResourceTypeEntryT
	copy(e.Type[:], b[0:4])
	e.CountMinusOne = binary.BigEndian.Uint16(b[4:6])
	e.RefListOffset = binary.BigEndian.Uint16(b[6:8])
	return e, nil
}

// DecodeResourceRefEntry decodes a reference list entry at off
func DecodeResourceRefEntry(buf []byte, off int) (types.ResourceRefEntryT, error) {
	if err := helpers.CheckLength(buf, off, ResourceRefEntryLength, "resource reference entry"); err != nil {
		return types.ResourceRefEntryT{}, err
	}
	b := buf[off : off+ResourceRefEntryLength]
	return types.ResourceRefEntryT{
		ID:         int16(binary.BigEndian.Uint16(b[0:2])),
		NameOffset: int16(binary.BigEndian.Uint16(b[2:4])),
		Attributes: b[4],
		DataOffset: uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7]),
		Handle:     binary.BigEndian.Uint32(b[8:12]),
	}, nil
}

// LocateCompressedResource finds the single "cmpf" resource described by a resource map and
// returns the offset, from the start of the resource fork, of its big-endian length prefix.
// mapData holds the resource map, starting at hdr.MapOffset.
func LocateCompressedResource(hdr types.ResourceHeaderT, mapData []byte) (int64, error) {
	m, err := DecodeResourceMap(mapData, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to decode resource map: %w", err)
	}

	typeList := int(m.TypeListOffset)
	if err := helpers.CheckLength(mapData, typeList, 2, "resource type list"); err != nil {
		return 0, err
	}
	numTypes := int(binary.BigEndian.Uint16(mapData[typeList:typeList+2]) + 1)

	var found *types.ResourceTypeEntryT
	for i := 0; i < numTypes; i++ {
		e, err := DecodeResourceTypeEntry(mapData, typeList+2+i*ResourceTypeEntryLength)
		if err != nil {
			return 0, fmt.Errorf("failed to decode resource type %d: %w", i, err)
		}
		if e.Type != types.CompressedResourceType {
			continue
		}
		if found != nil {
			return 0, fmt.Errorf("more than one %q resource type: %w", types.CompressedResourceType[:], types.ErrCorruptStructure)
		}
		found = &e
	}
	if found == nil {
		return 0, fmt.Errorf("no %q resource in resource fork: %w", types.CompressedResourceType[:], types.ErrCorruptStructure)
	}
	if found.Count() != 1 {
		return 0, fmt.Errorf("%d instances of %q resource, expected 1: %w", found.Count(), types.CompressedResourceType[:], types.ErrCorruptStructure)
	}

	ref, err := DecodeResourceRefEntry(mapData, typeList+int(found.RefListOffset))
	if err != nil {
		return 0, fmt.Errorf("failed to decode %q reference: %w", types.CompressedResourceType[:], err)
	}
	return int64(hdr.DataOffset) + int64(ref.DataOffset), nil
}

// BuildCompressedResourceFork lays out a resource fork holding payload as its only "cmpf"
// resource, the way the system writes compressed files.
func BuildCompressedResourceFork(payload []byte) []byte {
	dataLength := ResourceDataLengthSize + len(payload)
	mapOffset := resourceDataStart + dataLength
	refList := 2 + ResourceTypeEntryLength
	nameList := ResourceMapHeaderLength + refList + ResourceRefEntryLength
	mapLength := nameList

	hdr := types.ResourceHeaderT{
		DataOffset: resourceDataStart,
		MapOffset:  uint32(mapOffset),
		DataLength: uint32(dataLength),
		MapLength:  uint32(mapLength),
	}

	fork := make([]byte, mapOffset+mapLength)
	_ = EncodeResourceHeader(fork, 0, hdr)

	binary.BigEndian.PutUint32(fork[resourceDataStart:], uint32(len(payload)))
	copy(fork[resourceDataStart+ResourceDataLengthSize:], payload)

	m := fork[mapOffset:]
	_ = EncodeResourceHeader(m, 0, hdr)
	binary.BigEndian.PutUint16(m[24:26], ResourceMapHeaderLength)
	binary.BigEndian.PutUint16(m[26:28], uint16(nameList))

	tl := m[ResourceMapHeaderLength:]
	binary.BigEndian.PutUint16(tl[0:2], 0)
	copy(tl[2:6], types.CompressedResourceType[:])
	binary.BigEndian.PutUint16(tl[6:8], 0)
	binary.BigEndian.PutUint16(tl[8:10], uint16(refList))

	ref := tl[refList:]
	binary.BigEndian.PutUint16(ref[0:2], 1)
	binary.BigEndian.PutUint16(ref[2:4], 0xFFFF)
	return fork
}
