package services

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/catalog"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// CatalogService provides lookups over the catalog file. It implements
// interfaces.CatalogReader. Every operation runs in its own B-tree session.
type CatalogService struct {
	tree   *BTreeService
	logger logrus.FieldLogger
}

var _ interfaces.CatalogReader = (*CatalogService)(nil)

// NewCatalogService creates the catalog lookup for a volume. overflow resolves the
// catalog file's overflow extents.
func NewCatalogService(volume *VolumeReader, overflow interfaces.ExtentsOverflowReader) *CatalogService {
	return &CatalogService{
		tree:   NewBTreeService(volume, types.CNIDCatalogFile, catalog.NewFlavorForVolume, overflow),
		logger: volume.Logger(),
	}
}

// Tree returns the B-tree service of the catalog file
func (cs *CatalogService) Tree() *BTreeService {
	return cs.tree
}

// GetRoot returns the root folder record: the first record whose parent is the root
// parent. Its name is the volume name, so the lookup selects every key with that parent.
// A first record that is not a folder means the catalog is corrupt.
func (cs *CatalogService) GetRoot() (*types.CatalogRecord, error) {
	s, err := cs.tree.OpenSession()
	if err != nil {
		return nil, err
	}
	return cs.getRoot(s)
}

func (cs *CatalogService) getRoot(s *BTreeSession) (*types.CatalogRecord, error) {
	leaves, err := s.CollectRange(
		types.NewCatalogKey(types.CNIDRootParent, nil),
		types.NewCatalogKey(types.CNIDRootParent+1, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up root folder: %w", err)
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("catalog has no root folder record: %w", types.ErrCorruptStructure)
	}
	rec, err := decodeCatalogLeaf(leaves[0])
	if err != nil {
		return nil, err
	}
	if !rec.IsFolder() {
		return nil, fmt.Errorf("first record under the root parent has type %d, not a folder: %w", rec.Kind, types.ErrCorruptStructure)
	}
	return rec, nil
}

// GetRecord returns the record keyed by (parentID, name), or nil if there is none
func (cs *CatalogService) GetRecord(parentID types.CNID, name string) (*types.CatalogRecord, error) {
	s, err := cs.tree.OpenSession()
	if err != nil {
		return nil, err
	}
	return cs.getRecord(s, parentID, types.NewUniStr(name))
}

func (cs *CatalogService) getRecord(s *BTreeSession, parentID types.CNID, name types.UniStr) (*types.CatalogRecord, error) {
	leaf, err := s.Find(types.NewCatalogKey(parentID, name))
	if err != nil {
		return nil, fmt.Errorf("failed to look up (%d, %q): %w", parentID, name.String(), err)
	}
	if leaf == nil {
		return nil, nil
	}
	return decodeCatalogLeaf(*leaf)
}

// ListChildren returns the file and folder records inside a folder, in name order.
// Thread records sharing the folder's ID as parent are not children and are skipped.
func (cs *CatalogService) ListChildren(folderID types.CNID) ([]*types.CatalogRecord, error) {
	s, err := cs.tree.OpenSession()
	if err != nil {
		return nil, err
	}

	leaves, err := s.CollectRange(
		types.NewCatalogKey(folderID, nil),
		types.NewCatalogKey(folderID+1, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %d: %w", folderID, err)
	}

	children := make([]*types.CatalogRecord, 0, len(leaves))
	for _, leaf := range leaves {
		rec, err := decodeCatalogLeaf(leaf)
		if err != nil {
			return nil, err
		}
		if rec.Kind.IsThread() {
			continue
		}
		children = append(children, rec)
	}
	cs.logger.Debugf("[CATALOG] ListChildren %d: %d entries", folderID, len(children))
	return children, nil
}

// GetPathTo returns the records from the root folder down to and including record,
// following folder thread records upward. A missing or wrong-kind thread is corruption.
func (cs *CatalogService) GetPathTo(record *types.CatalogRecord) ([]*types.CatalogRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("nil record: %w", types.ErrNotFound)
	}
	s, err := cs.tree.OpenSession()
	if err != nil {
		return nil, err
	}

	path := []*types.CatalogRecord{record}
	seen := map[types.CNID]bool{}
	for parentID := record.Key.ParentID; parentID != types.CNIDRootParent; {
		if seen[parentID] {
			return nil, fmt.Errorf("folder %d is its own ancestor: %w", parentID, types.ErrCorruptStructure)
		}
		seen[parentID] = true

		thread, err := cs.getThread(s, parentID)
		if err != nil {
			return nil, err
		}
		if thread == nil || thread.Kind != types.CatalogRecordFolderThread {
			return nil, fmt.Errorf("folder %d has no folder thread record: %w", parentID, types.ErrCorruptStructure)
		}

		parent, err := cs.getRecord(s, thread.Thread.ParentID, thread.Thread.NodeName)
		if err != nil {
			return nil, err
		}
		if parent == nil || !parent.IsFolder() {
			return nil, fmt.Errorf("thread of folder %d names missing folder (%d, %q): %w",
				parentID, thread.Thread.ParentID, thread.Thread.NodeName.String(), types.ErrCorruptStructure)
		}

		path = append([]*types.CatalogRecord{parent}, path...)
		parentID = thread.Thread.ParentID
	}
	return path, nil
}

// GetThread returns the thread record of a file or folder, or nil if there is none
func (cs *CatalogService) GetThread(id types.CNID) (*types.CatalogRecord, error) {
	s, err := cs.tree.OpenSession()
	if err != nil {
		return nil, err
	}
	return cs.getThread(s, id)
}

func (cs *CatalogService) getThread(s *BTreeSession, id types.CNID) (*types.CatalogRecord, error) {
	rec, err := cs.getRecord(s, id, nil)
	if err != nil || rec == nil {
		return nil, err
	}
	if !rec.Kind.IsThread() {
		return nil, fmt.Errorf("record (%d, \"\") is a %s record: %w", id, rec.Kind, types.ErrCorruptStructure)
	}
	return rec, nil
}

// GetRecordByID returns the file or folder record with the given CNID through its thread
func (cs *CatalogService) GetRecordByID(id types.CNID) (*types.CatalogRecord, error) {
	s, err := cs.tree.OpenSession()
	if err != nil {
		return nil, err
	}
	thread, err := cs.getThread(s, id)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, fmt.Errorf("CNID %s: %w", id, types.ErrNotFound)
	}
	rec, err := cs.getRecord(s, thread.Thread.ParentID, thread.Thread.NodeName)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("thread of CNID %s names a missing record: %w", id, types.ErrCorruptStructure)
	}
	return rec, nil
}

// LookupPath resolves a slash separated path from the root folder. Components are tried
// in decomposed form first, the form names are stored in, and then as given.
func (cs *CatalogService) LookupPath(path string) (*types.CatalogRecord, error) {
	s, err := cs.tree.OpenSession()
	if err != nil {
		return nil, err
	}
	cur, err := cs.getRoot(s)
	if err != nil {
		return nil, err
	}

	for _, comp := range strings.Split(path, "/") {
		if comp == "" || comp == "." {
			continue
		}
		if !cur.IsFolder() {
			return nil, fmt.Errorf("%q: %q is not a folder: %w", path, cur.Name(), types.ErrNotFound)
		}

		next, err := cs.getRecord(s, cur.ID(), types.NewUniStr(norm.NFD.String(comp)))
		if err == nil && next == nil && !norm.NFD.IsNormalString(comp) {
			next, err = cs.getRecord(s, cur.ID(), types.NewUniStr(comp))
		}
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%q: no entry %q: %w", path, comp, types.ErrNotFound)
		}
		cur = next
	}
	cs.logger.Debugf("[CATALOG] LookupPath %q -> CNID %d", path, cur.ID())
	return cur, nil
}

func decodeCatalogLeaf(leaf interfaces.LeafRecord) (*types.CatalogRecord, error) {
	key, ok := leaf.Key.(types.CatalogKeyT)
	if !ok {
		return nil, fmt.Errorf("unexpected key type %T in catalog: %w", leaf.Key, types.ErrCorruptStructure)
	}
	rec, err := catalog.DecodeCatalogRecord(key, leaf.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog record (%d, %q): %w", key.ParentID, key.NodeName.String(), err)
	}
	return rec, nil
}
