package types

import "unicode/utf16"

// Catalog File
// The catalog file is a B-tree keyed by (parent ID, node name). Its leaf records are
// folder records, file records and the two kinds of thread records.

// UniStr is an HFS+ Unicode name: up to 255 UTF-16 code units, stored in canonical
// decomposed form on disk.
type UniStr []uint16

// NewUniStr converts a Go string into an HFS+ name.
func NewUniStr(s string) UniStr {
	return UniStr(utf16.Encode([]rune(s)))
}

// String returns the name as a Go string
func (u UniStr) String() string {
	return string(utf16.Decode(u))
}

// CatalogKeyT is the key of a catalog B-tree record.
// Reference: TN1150 "Catalog File Key"
type CatalogKeyT struct {
	// The length, in bytes, of the rest of the key.
	KeyLength uint16

	// The CNID of the parent folder, or for thread records, the CNID of the record itself.
	ParentID CNID

	// The name of the file or folder; empty for thread records.
	NodeName UniStr
}

// BSDInfoT holds BSD ownership and permission information.
// Reference: TN1150 "HFS Plus Permissions"
type BSDInfoT struct {
	OwnerID    uint32
	GroupID    uint32
	AdminFlags uint8
	OwnerFlags uint8
	FileMode   uint16

	// The link count for indirect node files, or the raw device for device files.
	Special uint32
}

// IsCompressed reports whether the UF_COMPRESSED owner flag is set.
func (b BSDInfoT) IsCompressed() bool {
	return b.OwnerFlags&UFCompressed != 0
}

// FileInfoT holds Finder information for a file.
type FileInfoT struct {
	FileType    uint32
	FileCreator uint32
	FinderFlags uint16
	LocationV   int16
	LocationH   int16
	Reserved    uint16
}

// CatalogFolderT is a catalog folder record.
// Reference: TN1150 "Catalog Folder Records"
type CatalogFolderT struct {
	RecordType       CatalogRecordType
	Flags            uint16
	Valence          uint32
	FolderID         CNID
	CreateDate       uint32
	ContentModDate   uint32
	AttributeModDate uint32
	AccessDate       uint32
	BackupDate       uint32
	Permissions      BSDInfoT
	UserInfo         [16]byte
	FinderInfo       [16]byte
	TextEncoding     uint32
	FolderCount      uint32
}

// CatalogFileT is a catalog file record.
// Reference: TN1150 "Catalog File Records"
type CatalogFileT struct {
	RecordType       CatalogRecordType
	Flags            uint16
	Reserved1        uint32
	FileID           CNID
	CreateDate       uint32
	ContentModDate   uint32
	AttributeModDate uint32
	AccessDate       uint32
	BackupDate       uint32
	Permissions      BSDInfoT
	UserInfo         FileInfoT
	FinderInfo       [16]byte
	TextEncoding     uint32
	Reserved2        uint32
	DataFork         ForkDataT
	ResourceFork     ForkDataT
}

// IsCompressed reports whether the file's data fork is stored in a decmpfs attribute.
func (f *CatalogFileT) IsCompressed() bool {
	return f.Permissions.IsCompressed()
}

// HasAttributes reports whether the file has extended attributes.
func (f *CatalogFileT) HasAttributes() bool {
	return f.Flags&CatalogHasAttributesMask != 0
}

// CatalogThreadT is a folder or file thread record.
// Reference: TN1150 "Catalog Thread Records"
type CatalogThreadT struct {
	RecordType CatalogRecordType
	Reserved   int16

	// The CNID of the parent of the file or folder referenced by this thread record.
	ParentID CNID

	// The name of the file or folder referenced by this thread record.
	NodeName UniStr
}

// CatalogRecord is a decoded catalog leaf record: a key plus exactly one payload,
// selected by Kind which maps directly to the on-disk discriminant.
type CatalogRecord struct {
	Key    CatalogKeyT
	Kind   CatalogRecordType
	Folder *CatalogFolderT
	File   *CatalogFileT
	Thread *CatalogThreadT
}

// ID returns the CNID of the file or folder the record describes.
// For thread records it returns the key's parent ID, which is the record's own ID.
func (r *CatalogRecord) ID() CNID {
	switch r.Kind {
	case CatalogRecordFolder:
		return r.Folder.FolderID
	case CatalogRecordFile:
		return r.File.FileID
	default:
		return r.Key.ParentID
	}
}

// Name returns the node name from the key
func (r *CatalogRecord) Name() string {
	return r.Key.NodeName.String()
}

// IsFolder reports whether the record is a folder record
func (r *CatalogRecord) IsFolder() bool {
	return r.Kind == CatalogRecordFolder
}

// IsFile reports whether the record is a file record
func (r *CatalogRecord) IsFile() bool {
	return r.Kind == CatalogRecordFile
}

// Length returns the encoded size of the key including the keyLength field.
func (k CatalogKeyT) Length() int {
	return 2 + int(k.KeyLength)
}

// NewCatalogKey builds a search key for (parentID, name) with its keyLength filled in.
func NewCatalogKey(parentID CNID, name UniStr) CatalogKeyT {
	return CatalogKeyT{
		KeyLength: uint16(CatalogKeyMinLength + 2*len(name)),
		ParentID:  parentID,
		NodeName:  name,
	}
}
