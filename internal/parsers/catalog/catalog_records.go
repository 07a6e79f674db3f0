package catalog

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	datastreams "github.com/deploymenttheory/go-hfsplus/internal/parsers/data_streams"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Encoded lengths of the catalog records
const (
	FolderRecordLength = types.CatalogFolderSize
	FileRecordLength   = types.CatalogFileSize
)

// DecodeRecordType returns the record type discriminant at the start of leaf record data
func DecodeRecordType(data []byte) (types.CatalogRecordType, error) {
	if err := helpers.CheckLength(data, 0, 2, "catalog record type"); err != nil {
		return 0, err
	}
	return types.CatalogRecordType(int16(binary.BigEndian.Uint16(data[0:2]))), nil
}

// DecodeCatalogRecord decodes the data of a catalog leaf record into the tagged record
func DecodeCatalogRecord(key types.CatalogKeyT, data []byte) (*types.CatalogRecord, error) {
	kind, err := DecodeRecordType(data)
	if err != nil {
		return nil, err
	}

	rec := &types.CatalogRecord{Key: key, Kind: kind}
	switch kind {
	case types.CatalogRecordFolder:
		folder, err := DecodeFolderRecord(data, 0)
		if err != nil {
			return nil, err
		}
		rec.Folder = &folder
	case types.CatalogRecordFile:
		file, err := DecodeFileRecord(data, 0)
		if err != nil {
			return nil, err
		}
		rec.File = &file
	case types.CatalogRecordFolderThread, types.CatalogRecordFileThread:
		thread, err := DecodeThreadRecord(data, 0)
		if err != nil {
			return nil, err
		}
		rec.Thread = &thread
	default:
		return nil, fmt.Errorf("unknown catalog record type %d: %w", kind, types.ErrCorruptStructure)
	}
	return rec, nil
}

func decodeBSDInfo(b []byte) types.BSDInfoT {
	return types.BSDInfoT{
		OwnerID:    binary.BigEndian.Uint32(b[0:4]),
		GroupID:    binary.BigEndian.Uint32(b[4:8]),
		AdminFlags: b[8],
		OwnerFlags: b[9],
		FileMode:   binary.BigEndian.Uint16(b[10:12]),
		Special:    binary.BigEndian.Uint32(b[12:16]),
	}
}

func encodeBSDInfo(b []byte, p types.BSDInfoT) {
	binary.BigEndian.PutUint32(b[0:4], p.OwnerID)
	binary.BigEndian.PutUint32(b[4:8], p.GroupID)
	b[8] = p.AdminFlags
	b[9] = p.OwnerFlags
	binary.BigEndian.PutUint16(b[10:12], p.FileMode)
	binary.BigEndian.PutUint32(b[12:16], p.Special)
}

// DecodeFolderRecord decodes an 88 byte folder record at off
func DecodeFolderRecord(buf []byte, off int) (types.CatalogFolderT, error) {
	if err := helpers.CheckLength(buf, off, FolderRecordLength, "catalog folder record"); err != nil {
		return types.CatalogFolderT{}, err
	}
	b := buf[off : off+FolderRecordLength]
	be := binary.BigEndian

	f := types.CatalogFolderT{
		RecordType:       types.CatalogRecordType(int16(be.Uint16(b[0:2]))),
		Flags:            be.Uint16(b[2:4]),
		Valence:          be.Uint32(b[4:8]),
		FolderID:         types.CNID(be.Uint32(b[8:12])),
		CreateDate:       be.Uint32(b[12:16]),
		ContentModDate:   be.Uint32(b[16:20]),
		AttributeModDate: be.Uint32(b[20:24]),
		AccessDate:       be.Uint32(b[24:28]),
		BackupDate:       be.Uint32(b[28:32]),
		Permissions:      decodeBSDInfo(b[32:48]),
		TextEncoding:     be.Uint32(b[80:84]),
		FolderCount:      be.Uint32(b[84:88]),
	}
	copy(f.UserInfo[:], b[48:64])
	copy(f.FinderInfo[:], b[64:80])
	return f, nil
}

// EncodeFolderRecord encodes an 88 byte folder record at off
func EncodeFolderRecord(buf []byte, off int, f types.CatalogFolderT) error {
	if err := helpers.CheckLength(buf, off, FolderRecordLength, "catalog folder record"); err != nil {
		return err
	}
	b := buf[off : off+FolderRecordLength]
	be := binary.BigEndian

	be.PutUint16(b[0:2], uint16(f.RecordType))
	be.PutUint16(b[2:4], f.Flags)
	be.PutUint32(b[4:8], f.Valence)
	be.PutUint32(b[8:12], uint32(f.FolderID))
	be.PutUint32(b[12:16], f.CreateDate)
	be.PutUint32(b[16:20], f.ContentModDate)
	be.PutUint32(b[20:24], f.AttributeModDate)
	be.PutUint32(b[24:28], f.AccessDate)
	be.PutUint32(b[28:32], f.BackupDate)
	encodeBSDInfo(b[32:48], f.Permissions)
	copy(b[48:64], f.UserInfo[:])
	copy(b[64:80], f.FinderInfo[:])
	be.PutUint32(b[80:84], f.TextEncoding)
	be.PutUint32(b[84:88], f.FolderCount)
	return nil
}

// DecodeFileRecord decodes a 248 byte file record at off
func DecodeFileRecord(buf []byte, off int) (types.CatalogFileT, error) {
	if err := helpers.CheckLength(buf, off, FileRecordLength, "catalog file record"); err != nil {
		return types.CatalogFileT{}, err
	}
	b := buf[off : off+FileRecordLength]
	be := binary.BigEndian

	f := types.CatalogFileT{
		RecordType:       types.CatalogRecordType(int16(be.Uint16(b[0:2]))),
		Flags:            be.Uint16(b[2:4]),
		Reserved1:        be.Uint32(b[4:8]),
		FileID:           types.CNID(be.Uint32(b[8:12])),
		CreateDate:       be.Uint32(b[12:16]),
		ContentModDate:   be.Uint32(b[16:20]),
		AttributeModDate: be.Uint32(b[20:24]),
		AccessDate:       be.Uint32(b[24:28]),
		BackupDate:       be.Uint32(b[28:32]),
		Permissions:      decodeBSDInfo(b[32:48]),
		UserInfo: types.FileInfoT{
			FileType:    be.Uint32(b[48:52]),
			FileCreator: be.Uint32(b[52:56]),
			FinderFlags: be.Uint16(b[56:58]),
			LocationV:   int16(be.Uint16(b[58:60])),
			LocationH:   int16(be.Uint16(b[60:62])),
			Reserved:    be.Uint16(b[62:64]),
		},
		TextEncoding: be.Uint32(b[80:84]),
		Reserved2:    be.Uint32(b[84:88]),
	}
	copy(f.FinderInfo[:], b[64:80])
	f.DataFork, _ = datastreams.DecodeForkData(b, 88)
	f.ResourceFork, _ = datastreams.DecodeForkData(b, 168)
	return f, nil
}

// EncodeFileRecord encodes a 248 byte file record at off
func EncodeFileRecord(buf []byte, off int, f types.CatalogFileT) error {
	if err := helpers.CheckLength(buf, off, FileRecordLength, "catalog file record"); err != nil {
		return err
	}
	b := buf[off : off+FileRecordLength]
	be := binary.BigEndian

	be.PutUint16(b[0:2], uint16(f.RecordType))
	be.PutUint16(b[2:4], f.Flags)
	be.PutUint32(b[4:8], f.Reserved1)
	be.PutUint32(b[8:12], uint32(f.FileID))
	be.PutUint32(b[12:16], f.CreateDate)
	be.PutUint32(b[16:20], f.ContentModDate)
	be.PutUint32(b[20:24], f.AttributeModDate)
	be.PutUint32(b[24:28], f.AccessDate)
	be.PutUint32(b[28:32], f.BackupDate)
	encodeBSDInfo(b[32:48], f.Permissions)
	be.PutUint32(b[48:52], f.UserInfo.FileType)
	be.PutUint32(b[52:56], f.UserInfo.FileCreator)
	be.PutUint16(b[56:58], f.UserInfo.FinderFlags)
	be.PutUint16(b[58:60], uint16(f.UserInfo.LocationV))
	be.PutUint16(b[60:62], uint16(f.UserInfo.LocationH))
	be.PutUint16(b[62:64], f.UserInfo.Reserved)
	copy(b[64:80], f.FinderInfo[:])
	be.PutUint32(b[80:84], f.TextEncoding)
	be.PutUint32(b[84:88], f.Reserved2)
	if err := datastreams.EncodeForkData(b, 88, f.DataFork); err != nil {
		return err
	}
	return datastreams.EncodeForkData(b, 168, f.ResourceFork)
}

// ThreadRecordLength returns the encoded length of a thread record
func ThreadRecordLength(t types.CatalogThreadT) int {
	return types.CatalogThreadMinSize + 2*len(t.NodeName)
}

// DecodeThreadRecord decodes a folder or file thread record at off
func DecodeThreadRecord(buf []byte, off int) (types.CatalogThreadT, error) {
	if err := helpers.CheckLength(buf, off, types.CatalogThreadMinSize, "catalog thread record"); err != nil {
		return types.CatalogThreadT{}, err
	}
	be := binary.BigEndian
	nameLen := int(be.Uint16(buf[off+8 : off+10]))
	if nameLen > types.MaxNameLength {
		return types.CatalogThreadT{}, fmt.Errorf("thread record name length %d: %w", nameLen, types.ErrCorruptStructure)
	}
	name, err := helpers.DecodeUTF16BE(buf, off+10, nameLen)
	if err != nil {
		return types.CatalogThreadT{}, err
	}
	return types.CatalogThreadT{
		RecordType: types.CatalogRecordType(int16(be.Uint16(buf[off : off+2]))),
		Reserved:   int16(be.Uint16(buf[off+2 : off+4])),
		ParentID:   types.CNID(be.Uint32(buf[off+4 : off+8])),
		NodeName:   name,
	}, nil
}

// EncodeThreadRecord encodes a folder or file thread record at off
func EncodeThreadRecord(buf []byte, off int, t types.CatalogThreadT) error {
	if err := helpers.CheckLength(buf, off, ThreadRecordLength(t), "catalog thread record"); err != nil {
		return err
	}
	be := binary.BigEndian
	be.PutUint16(buf[off:off+2], uint16(t.RecordType))
	be.PutUint16(buf[off+2:off+4], uint16(t.Reserved))
	be.PutUint32(buf[off+4:off+8], uint32(t.ParentID))
	be.PutUint16(buf[off+8:off+10], uint16(len(t.NodeName)))
	return helpers.EncodeUTF16BE(buf, off+10, t.NodeName)
}
