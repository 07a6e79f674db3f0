package services

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/attributes"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// AttributesService provides lookups over the attributes file. It implements
// interfaces.AttributesReader.
type AttributesService struct {
	volume *VolumeReader
	tree   *BTreeService
	logger logrus.FieldLogger
}

var _ interfaces.AttributesReader = (*AttributesService)(nil)

// NewAttributesService creates the attributes lookup for a volume
func NewAttributesService(volume *VolumeReader, overflow interfaces.ExtentsOverflowReader) *AttributesService {
	return &AttributesService{
		volume: volume,
		tree:   NewBTreeService(volume, types.CNIDAttributesFile, attributes.NewFlavorForVolume, overflow),
		logger: volume.Logger(),
	}
}

// Tree returns the B-tree service of the attributes file
func (as *AttributesService) Tree() *BTreeService {
	return as.tree
}

// openSession returns nil without error when the volume has no attributes file
func (as *AttributesService) openSession() (*BTreeSession, error) {
	vh, err := as.volume.ReadHeader()
	if err != nil {
		return nil, err
	}
	if vh.AttributesFile.LogicalSize == 0 {
		return nil, nil
	}
	return as.tree.OpenSession()
}

// ListAttributes returns the inline and fork data attribute records of a file or folder
// in name order. Extents continuation records are not listed.
func (as *AttributesService) ListAttributes(fileID types.CNID) ([]*types.AttrRecord, error) {
	s, err := as.openSession()
	if err != nil || s == nil {
		return nil, err
	}

	leaves, err := s.CollectRange(
		types.NewAttrKey(fileID, nil, 0),
		types.NewAttrKey(fileID+1, nil, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes of CNID %s: %w", fileID, err)
	}

	var out []*types.AttrRecord
	for _, leaf := range leaves {
		rec, err := decodeAttrLeaf(leaf)
		if err != nil {
			return nil, err
		}
		if rec.Kind == types.AttrRecordExtents {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetAttribute returns the named attribute record, or nil if there is none
func (as *AttributesService) GetAttribute(fileID types.CNID, name string) (*types.AttrRecord, error) {
	s, err := as.openSession()
	if err != nil || s == nil {
		return nil, err
	}
	return getAttribute(s, fileID, types.NewUniStr(name), 0)
}

func getAttribute(s *BTreeSession, fileID types.CNID, name types.UniStr, startBlock uint32) (*types.AttrRecord, error) {
	leaf, err := s.Find(types.NewAttrKey(fileID, name, startBlock))
	if err != nil {
		return nil, fmt.Errorf("failed to look up attribute %q of CNID %s: %w", name.String(), fileID, err)
	}
	if leaf == nil {
		return nil, nil
	}
	return decodeAttrLeaf(*leaf)
}

// OpenAttribute returns a stream over the value of a named attribute. Inline values are
// served from memory; fork data values are read through their extents, continued by
// extents records in the attributes file.
func (as *AttributesService) OpenAttribute(fileID types.CNID, name string) (interfaces.ForkStream, error) {
	s, err := as.openSession()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("attribute %q of CNID %s: %w", name, fileID, types.ErrNotFound)
	}

	uname := types.NewUniStr(name)
	rec, err := getAttribute(s, fileID, uname, 0)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("attribute %q of CNID %s: %w", name, fileID, types.ErrNotFound)
	}

	switch rec.Kind {
	case types.AttrRecordInlineData:
		return bytes.NewReader(rec.Data), nil
	case types.AttrRecordForkData:
		overflow := &attrExtentsOverflow{session: s, name: uname}
		extents, err := NewExtentResolver(overflow, as.logger).GetAllExtents(fileID, rec.Fork, types.ForkTypeData, s.Volume.BlockSize)
		if err != nil {
			return nil, fmt.Errorf("attribute %q of CNID %s: %w", name, fileID, err)
		}
		return NewForkReader(as.volume.Source(), as.volume.Offset(), s.Volume.BlockSize, extents, rec.Fork.LogicalSize), nil
	default:
		return nil, fmt.Errorf("attribute %q of CNID %s starts with a %s record: %w", name, fileID, rec.Kind, types.ErrCorruptStructure)
	}
}

// attrExtentsOverflow serves the overflow extents of a fork data attribute from the
// extents records of the attributes file.
type attrExtentsOverflow struct {
	session *BTreeSession
	name    types.UniStr
}

// FindExtents returns the extents record of the attribute at startBlock
func (ao *attrExtentsOverflow) FindExtents(fileID types.CNID, _ types.ForkType, startBlock uint32) (types.ExtentRecordT, bool, error) {
	rec, err := getAttribute(ao.session, fileID, ao.name, startBlock)
	if err != nil || rec == nil {
		return types.ExtentRecordT{}, false, err
	}
	if rec.Kind != types.AttrRecordExtents {
		return types.ExtentRecordT{}, false, fmt.Errorf("attribute %q of CNID %s at block %d is a %s record: %w",
			ao.name.String(), fileID, startBlock, rec.Kind, types.ErrCorruptStructure)
	}
	return rec.Extents, true, nil
}

func decodeAttrLeaf(leaf interfaces.LeafRecord) (*types.AttrRecord, error) {
	key, ok := leaf.Key.(types.AttrKeyT)
	if !ok {
		return nil, fmt.Errorf("unexpected key type %T in attributes file: %w", leaf.Key, types.ErrCorruptStructure)
	}
	rec, err := attributes.DecodeAttrRecord(key, leaf.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attribute %q of CNID %s: %w", key.Name.String(), key.FileID, err)
	}
	return rec, nil
}
