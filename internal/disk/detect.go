package disk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Detection methods reported by ImageSource.OffsetInfo
const (
	MethodRaw        = "raw"
	MethodGPT        = "gpt"
	MethodWrapper    = "hfs_wrapper"
	MethodConfigured = "configured"
	MethodFallback   = "fallback"
)

// GPT header field offsets
const (
	gptEntriesLBAOffset = 72
	gptNumEntriesOffset = 80
	gptEntrySizeOffset  = 84
	gptEntryStartLBA    = 32
	gptHeaderLength     = 92
)

var hfsPlusPartitionType = uuid.MustParse(types.HFSPlusGPTPartitionUUID)

// guidFromDisk converts a GUID stored in the mixed-endian GPT layout to a UUID
func guidFromDisk(b []byte) uuid.UUID {
	var u uuid.UUID
	copy(u[:], b[:16])
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	return u
}

// hasVolumeSignature reports whether an HFS+ or HFSX volume header starts at off
func hasVolumeSignature(src io.ReaderAt, off int64) bool {
	sig := make([]byte, 2)
	if n, _ := src.ReadAt(sig, off+types.VolumeHeaderOffset); n != 2 {
		return false
	}
	s := binary.BigEndian.Uint16(sig)
	return s == types.SignatureHFSPlus || s == types.SignatureHFSX
}

// detectGPT returns the offset of the first HFS+ partition of a GUID partition table
func detectGPT(src io.ReaderAt) (int64, error) {
	hdr := make([]byte, gptHeaderLength)
	if n, _ := src.ReadAt(hdr, types.GPTHeaderOffset); n != len(hdr) {
		return 0, fmt.Errorf("image too small for a GPT header")
	}
	if !bytes.Equal(hdr[0:8], []byte(types.GPTSignature)) {
		return 0, fmt.Errorf("no valid GPT signature found")
	}

	entriesLBA := int64(binary.LittleEndian.Uint64(hdr[gptEntriesLBAOffset:]))
	numEntries := int(binary.LittleEndian.Uint32(hdr[gptNumEntriesOffset:]))
	entrySize := int(binary.LittleEndian.Uint32(hdr[gptEntrySizeOffset:]))
	if entrySize < types.GPTEntrySize || numEntries > 4*types.GPTMaxEntries {
		return 0, fmt.Errorf("GPT header has %d entries of %d bytes", numEntries, entrySize)
	}

	entry := make([]byte, types.GPTEntrySize)
	for i := 0; i < numEntries; i++ {
		off := entriesLBA*types.GPTSectorSize + int64(i*entrySize)
		if n, _ := src.ReadAt(entry, off); n != len(entry) {
			break
		}
		if guidFromDisk(entry[0:16]) != hfsPlusPartitionType {
			continue
		}
		start := int64(binary.LittleEndian.Uint64(entry[gptEntryStartLBA:]))
		return start * types.GPTSectorSize, nil
	}
	return 0, fmt.Errorf("no HFS+ partition found in GPT table")
}

// detectWrapper returns the offset of an HFS+ volume embedded in an HFS wrapper volume
func detectWrapper(src io.ReaderAt, base int64) (int64, error) {
	mdb := make([]byte, types.MDBEmbedExtentOffset+4)
	if n, _ := src.ReadAt(mdb, base+types.VolumeHeaderOffset); n != len(mdb) {
		return 0, fmt.Errorf("image too small for a master directory block")
	}
	be := binary.BigEndian
	if be.Uint16(mdb[0:2]) != types.SignatureHFS {
		return 0, fmt.Errorf("no HFS signature found")
	}
	embed := be.Uint16(mdb[types.MDBEmbedSigOffset:])
	if embed != types.SignatureHFSPlus && embed != types.SignatureHFSX {
		return 0, fmt.Errorf("HFS volume has no embedded HFS+ volume: %w", types.ErrUnsupportedVariant)
	}

	blockSize := int64(be.Uint32(mdb[types.MDBBlockSizeOffset:]))
	firstBlock := int64(be.Uint16(mdb[types.MDBFirstBlockOffset:]))
	startBlock := int64(be.Uint16(mdb[types.MDBEmbedExtentOffset:]))
	return base + firstBlock*types.GPTSectorSize + startBlock*blockSize, nil
}

// DetectVolumeOffset finds the byte offset of an HFS+ or HFSX volume within an image:
// a bare volume, the first HFS+ partition of a GPT disk, or a volume embedded in an HFS
// wrapper, in either of the first two places.
func DetectVolumeOffset(src io.ReaderAt) (int64, string, error) {
	candidates := []struct {
		method string
		find   func() (int64, error)
	}{
		{MethodRaw, func() (int64, error) { return 0, nil }},
		{MethodGPT, func() (int64, error) { return detectGPT(src) }},
		{MethodWrapper, func() (int64, error) { return detectWrapper(src, 0) }},
		{MethodWrapper, func() (int64, error) {
			off, err := detectGPT(src)
			if err != nil {
				return 0, err
			}
			return detectWrapper(src, off)
		}},
	}

	for _, c := range candidates {
		off, err := c.find()
		if err == nil && hasVolumeSignature(src, off) {
			return off, c.method, nil
		}
	}
	return 0, "", fmt.Errorf("HFS+ volume not found in image: %w", types.ErrNotFound)
}
