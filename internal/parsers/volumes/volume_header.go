package volumes

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	datastreams "github.com/deploymenttheory/go-hfsplus/internal/parsers/data_streams"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// VolumeHeaderLength is the encoded length of the volume header
const VolumeHeaderLength = types.VolumeHeaderSize

// DecodeVolumeHeader decodes an HFS+ volume header at off. It does not validate the signature.
func DecodeVolumeHeader(buf []byte, off int) (types.VolumeHeaderT, error) {
	if err := helpers.CheckLength(buf, off, VolumeHeaderLength, "volume header"); err != nil {
		return types.VolumeHeaderT{}, err
	}
	b := buf[off : off+VolumeHeaderLength]
	be := binary.BigEndian

	vh := types.VolumeHeaderT{
		Signature:          be.Uint16(b[0:2]),
		Version:            be.Uint16(b[2:4]),
		Attributes:         be.Uint32(b[4:8]),
		LastMountedVersion: be.Uint32(b[8:12]),
		JournalInfoBlock:   be.Uint32(b[12:16]),
		CreateDate:         be.Uint32(b[16:20]),
		ModifyDate:         be.Uint32(b[20:24]),
		BackupDate:         be.Uint32(b[24:28]),
		CheckedDate:        be.Uint32(b[28:32]),
		FileCount:          be.Uint32(b[32:36]),
		FolderCount:        be.Uint32(b[36:40]),
		BlockSize:          be.Uint32(b[40:44]),
		TotalBlocks:        be.Uint32(b[44:48]),
		FreeBlocks:         be.Uint32(b[48:52]),
		NextAllocation:     be.Uint32(b[52:56]),
		RsrcClumpSize:      be.Uint32(b[56:60]),
		DataClumpSize:      be.Uint32(b[60:64]),
		NextCatalogID:      types.CNID(be.Uint32(b[64:68])),
		WriteCount:         be.Uint32(b[68:72]),
		EncodingsBitmap:    be.Uint64(b[72:80]),
	}
	for i := range vh.FinderInfo {
		vh.FinderInfo[i] = be.Uint32(b[80+4*i : 84+4*i])
	}

	// The buffer length was checked above so the fork decodes cannot fail.
	vh.AllocationFile, _ = datastreams.DecodeForkData(b, types.AllocationFileOffset)
	vh.ExtentsFile, _ = datastreams.DecodeForkData(b, types.ExtentsFileOffset)
	vh.CatalogFile, _ = datastreams.DecodeForkData(b, types.CatalogFileOffset)
	vh.AttributesFile, _ = datastreams.DecodeForkData(b, types.AttributesFileOffset)
	vh.StartupFile, _ = datastreams.DecodeForkData(b, types.StartupFileOffset)

	return vh, nil
}

// EncodeVolumeHeader encodes an HFS+ volume header at off
func EncodeVolumeHeader(buf []byte, off int, vh types.VolumeHeaderT) error {
	if err := helpers.CheckLength(buf, off, VolumeHeaderLength, "volume header"); err != nil {
		return err
	}
	b := buf[off : off+VolumeHeaderLength]
	be := binary.BigEndian

	be.PutUint16(b[0:2], vh.Signature)
	be.PutUint16(b[2:4], vh.Version)
	be.PutUint32(b[4:8], vh.Attributes)
	be.PutUint32(b[8:12], vh.LastMountedVersion)
	be.PutUint32(b[12:16], vh.JournalInfoBlock)
	be.PutUint32(b[16:20], vh.CreateDate)
	be.PutUint32(b[20:24], vh.ModifyDate)
	be.PutUint32(b[24:28], vh.BackupDate)
	be.PutUint32(b[28:32], vh.CheckedDate)
	be.PutUint32(b[32:36], vh.FileCount)
	be.PutUint32(b[36:40], vh.FolderCount)
	be.PutUint32(b[40:44], vh.BlockSize)
	be.PutUint32(b[44:48], vh.TotalBlocks)
	be.PutUint32(b[48:52], vh.FreeBlocks)
	be.PutUint32(b[52:56], vh.NextAllocation)
	be.PutUint32(b[56:60], vh.RsrcClumpSize)
	be.PutUint32(b[60:64], vh.DataClumpSize)
	be.PutUint32(b[64:68], uint32(vh.NextCatalogID))
	be.PutUint32(b[68:72], vh.WriteCount)
	be.PutUint64(b[72:80], vh.EncodingsBitmap)
	for i, v := range vh.FinderInfo {
		be.PutUint32(b[80+4*i:84+4*i], v)
	}

	forks := []struct {
		off  int
		fork types.ForkDataT
	}{
		{types.AllocationFileOffset, vh.AllocationFile},
		{types.ExtentsFileOffset, vh.ExtentsFile},
		{types.CatalogFileOffset, vh.CatalogFile},
		{types.AttributesFileOffset, vh.AttributesFile},
		{types.StartupFileOffset, vh.StartupFile},
	}
	for _, f := range forks {
		if err := datastreams.EncodeForkData(b, f.off, f.fork); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVolumeHeader checks the signature, version and block size of a decoded header.
// A plain HFS signature is reported as types.ErrUnsupportedVariant.
func ValidateVolumeHeader(vh *types.VolumeHeaderT) error {
	switch vh.Signature {
	case types.SignatureHFSPlus:
		if vh.Version != types.VersionHFSPlus {
			return fmt.Errorf("HFS+ volume has version %d, expected %d: %w", vh.Version, types.VersionHFSPlus, types.ErrCorruptStructure)
		}
	case types.SignatureHFSX:
		if vh.Version != types.VersionHFSX {
			return fmt.Errorf("HFSX volume has version %d, expected %d: %w", vh.Version, types.VersionHFSX, types.ErrCorruptStructure)
		}
	case types.SignatureHFS:
		return fmt.Errorf("plain HFS volumes are not supported: %w", types.ErrUnsupportedVariant)
	default:
		return fmt.Errorf("invalid volume signature 0x%04x: %w", vh.Signature, types.ErrCorruptStructure)
	}

	if vh.BlockSize < 512 || vh.BlockSize&(vh.BlockSize-1) != 0 {
		return fmt.Errorf("invalid allocation block size %d: %w", vh.BlockSize, types.ErrCorruptStructure)
	}
	return nil
}
