// Package hfsplus reads HFS+ and HFSX volumes: the catalog of files and folders, their data
// and resource forks, extended attributes and decmpfs compressed files.
//
// A Volume holds no decoded state between calls. Every operation reads the volume header
// and the tree headers again, so a Volume observes changes made to the medium between
// calls and is cheap to keep open.
package hfsplus

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/services"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Volume is a mounted, read-only HFS+ or HFSX volume
type Volume struct {
	reader      *services.VolumeReader
	overflow    *services.ExtentsOverflowService
	catalog     *services.CatalogService
	attributes  *services.AttributesService
	compression *services.CompressionService

	logger    logrus.FieldLogger
	rawForks  bool
	chunkSize int
}

// Mount opens the volume that starts offset bytes into src. The volume header is read
// and validated: a plain HFS volume is ErrUnsupportedVariant and any other signature,
// version or block size problem is ErrCorruptStructure.
func Mount(src io.ReaderAt, offset int64, opts ...Option) (*Volume, error) {
	v := &Volume{
		logger:    logrus.StandardLogger(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.reader = services.NewVolumeReader(src, offset, v.logger)
	v.overflow = services.NewExtentsOverflowService(v.reader)
	v.catalog = services.NewCatalogService(v.reader, v.overflow)
	v.attributes = services.NewAttributesService(v.reader, v.overflow)
	v.compression = services.NewCompressionService(v.logger)

	vh, err := v.reader.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("failed to mount volume at offset %d: %w", offset, err)
	}
	if sized, ok := src.(interfaces.SizedSource); ok {
		end := offset + int64(vh.TotalBlocks)*int64(vh.BlockSize)
		if end > sized.Size() {
			v.logger.Warnf("[VOLUME] volume ends at byte %d but the medium holds %d bytes; reads past the end will fail", end, sized.Size())
		}
	}
	v.logger.Debugf("[VOLUME] mounted: hfsx=%t blockSize=%d files=%d folders=%d", vh.IsHFSX(), vh.BlockSize, vh.FileCount, vh.FolderCount)
	return v, nil
}

// Logger returns the logger of the volume
func (v *Volume) Logger() logrus.FieldLogger {
	return v.logger
}

// Header reads and returns the current volume header
func (v *Volume) Header() (*VolumeHeader, error) {
	return v.reader.ReadHeader()
}

// GetRoot returns the root folder record. Its name is the volume name.
func (v *Volume) GetRoot() (*Record, error) {
	return v.catalog.GetRoot()
}

// GetRecord returns the record named name in the folder parentID, or nil if there is none
func (v *Volume) GetRecord(parentID CNID, name string) (*Record, error) {
	return v.catalog.GetRecord(parentID, name)
}

// GetRecordByID returns the file or folder record with the given CNID
func (v *Volume) GetRecordByID(id CNID) (*Record, error) {
	return v.catalog.GetRecordByID(id)
}

// ListChildren returns the files and folders inside a folder in catalog order
func (v *Volume) ListChildren(folderID CNID) ([]*Record, error) {
	return v.catalog.ListChildren(folderID)
}

// GetPathTo returns the records from the root folder down to and including record
func (v *Volume) GetPathTo(record *Record) ([]*Record, error) {
	return v.catalog.GetPathTo(record)
}

// LookupPath resolves a slash separated path from the root folder
func (v *Volume) LookupPath(path string) (*Record, error) {
	return v.catalog.LookupPath(path)
}

// ListAttributes returns the extended attributes of a file or folder in name order
func (v *Volume) ListAttributes(id CNID) ([]*Attribute, error) {
	return v.attributes.ListAttributes(id)
}

// GetAttribute returns the named attribute record, or nil if there is none
func (v *Volume) GetAttribute(id CNID, name string) (*Attribute, error) {
	return v.attributes.GetAttribute(id, name)
}

// OpenAttribute returns a stream over the value of a named attribute
func (v *Volume) OpenAttribute(id CNID, name string) (Stream, error) {
	return v.attributes.OpenAttribute(id, name)
}

// ReadAttribute returns the value of a named attribute
func (v *Volume) ReadAttribute(id CNID, name string) ([]byte, error) {
	s, err := v.attributes.OpenAttribute(id, name)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(s)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute %q of CNID %s: %w", name, id, err)
	}
	return data, nil
}

// OpenDataFork returns a stream over the contents of a file. For a decmpfs compressed
// file this is the decompressed view, unless the volume was mounted WithRawForks.
func (v *Volume) OpenDataFork(record *Record) (Stream, error) {
	file, err := fileOf(record)
	if err != nil {
		return nil, err
	}
	if !v.rawForks {
		attr, err := v.decmpfsAttribute(record)
		if err != nil {
			return nil, err
		}
		if attr != nil {
			return v.openCompressed(record, attr)
		}
	}
	return v.openFork(file.FileID, file.DataFork, types.ForkTypeData)
}

// OpenResourceFork returns a stream over the stored resource fork of a file
func (v *Volume) OpenResourceFork(record *Record) (Stream, error) {
	file, err := fileOf(record)
	if err != nil {
		return nil, err
	}
	return v.openFork(file.FileID, file.ResourceFork, types.ForkTypeResource)
}

// OpenFork opens the data or resource fork of a file. The data fork follows the rules
// of OpenDataFork.
func (v *Volume) OpenFork(record *Record, fork Fork) (Stream, error) {
	if fork == ResourceFork {
		return v.OpenResourceFork(record)
	}
	return v.OpenDataFork(record)
}

// IsCompressed reports whether a file's contents are stored in a decmpfs attribute
func (v *Volume) IsCompressed(record *Record) (bool, error) {
	if _, err := fileOf(record); err != nil {
		return false, err
	}
	attr, err := v.decmpfsAttribute(record)
	return attr != nil, err
}

// decmpfsAttribute returns the value of the decmpfs attribute of a compressed file, or
// nil for a file that is not compressed. A file flagged compressed without the
// attribute is corrupt.
func (v *Volume) decmpfsAttribute(record *Record) ([]byte, error) {
	file := record.File
	if !file.IsCompressed() && !file.HasAttributes() {
		return nil, nil
	}
	rec, err := v.attributes.GetAttribute(file.FileID, types.DecmpfsAttributeName)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if file.IsCompressed() {
			return nil, fmt.Errorf("CNID %s is flagged compressed but has no %s attribute: %w",
				file.FileID, types.DecmpfsAttributeName, types.ErrCorruptStructure)
		}
		return nil, nil
	}
	if rec.Kind == types.AttrRecordInlineData {
		return rec.Data, nil
	}
	return v.ReadAttribute(file.FileID, types.DecmpfsAttributeName)
}

func (v *Volume) openCompressed(record *Record, attr []byte) (Stream, error) {
	file := record.File
	var resource Stream
	if file.ResourceFork.LogicalSize > 0 {
		var err error
		if resource, err = v.openFork(file.FileID, file.ResourceFork, types.ForkTypeResource); err != nil {
			return nil, err
		}
	}
	cfr, err := services.NewCompressedForkReader(attr, resource, v.compression, v.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed contents of %q: %w", record.Name(), err)
	}
	return cfr, nil
}

func (v *Volume) openFork(id CNID, fork types.ForkDataT, forkType types.ForkType) (Stream, error) {
	vh, err := v.reader.ReadHeader()
	if err != nil {
		return nil, err
	}
	extents, err := services.NewExtentResolver(v.overflow, v.logger).GetAllExtents(id, fork, forkType, vh.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s fork of CNID %s: %w", forkType, id, err)
	}
	return services.NewForkReader(v.reader.Source(), v.reader.Offset(), vh.BlockSize, extents, fork.LogicalSize), nil
}

func fileOf(record *Record) (*types.CatalogFileT, error) {
	if record == nil || !record.IsFile() {
		return nil, fmt.Errorf("record is not a file record: %w", types.ErrNotFound)
	}
	return record.File, nil
}
