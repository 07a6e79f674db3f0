package services

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/btrees"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/extents"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// maxTreeDepth bounds index descent so that a cycle of child pointers cannot loop forever.
const maxTreeDepth = 32

// BTreeService provides keyed lookup over one of the volume's B-tree special files.
// The key layout and ordering come from the tree's flavor; node layout is shared.
type BTreeService struct {
	volume    *VolumeReader
	fileID    types.CNID
	factory   interfaces.FlavorFactory
	overflow  interfaces.ExtentsOverflowReader
	validator *btrees.BTreeValidator
	logger    logrus.FieldLogger
}

// NewBTreeService creates a B-tree service for the special file fileID. overflow resolves
// the tree file's own overflow extents and is nil for the extents overflow file.
func NewBTreeService(volume *VolumeReader, fileID types.CNID, factory interfaces.FlavorFactory, overflow interfaces.ExtentsOverflowReader) *BTreeService {
	return &BTreeService{
		volume:    volume,
		fileID:    fileID,
		factory:   factory,
		overflow:  overflow,
		validator: btrees.NewBTreeValidator(),
		logger:    volume.Logger(),
	}
}

// BTreeSession is one read pass over a B-tree: the volume header, the tree header record
// and the tree file stream as they were when the session was opened.
type BTreeSession struct {
	Volume *types.VolumeHeaderT
	Header types.BTHeaderRecT
	Flavor interfaces.TreeFlavor

	fork      *ForkReader
	validator *btrees.BTreeValidator
	logger    logrus.FieldLogger
}

// OpenSession re-reads the volume header, opens the tree file and decodes its header node
func (bt *BTreeService) OpenSession() (*BTreeSession, error) {
	vh, err := bt.volume.ReadHeader()
	if err != nil {
		return nil, err
	}

	fork, err := bt.volume.OpenSpecialFork(vh, bt.fileID, bt.overflow)
	if err != nil {
		return nil, err
	}

	// The header record sits right after the descriptor of node 0 and names the node size.
	head := make([]byte, btrees.NodeDescriptorLength+btrees.HeaderRecordLength)
	if err := readFull(fork, head, 0); err != nil {
		return nil, fmt.Errorf("failed to read header node of B-tree file %s: %w", bt.fileID, err)
	}
	hdr, err := btrees.DecodeHeaderRecord(head, btrees.NodeDescriptorLength)
	if err != nil {
		return nil, err
	}
	if err := bt.validator.ValidateHeaderRecord(&hdr); err != nil {
		return nil, fmt.Errorf("B-tree file %s: %w", bt.fileID, err)
	}

	s := &BTreeSession{
		Volume:    vh,
		Header:    hdr,
		fork:      fork,
		validator: bt.validator,
		logger:    bt.logger,
	}

	node, err := s.ReadNode(0)
	if err != nil {
		return nil, err
	}
	if s.Header, err = btrees.ReadHeaderNode(node); err != nil {
		return nil, fmt.Errorf("B-tree file %s: %w", bt.fileID, err)
	}

	if s.Flavor, err = bt.factory(vh, &s.Header); err != nil {
		return nil, err
	}
	s.logger = bt.logger.WithField("tree", s.Flavor.Name())
	s.logger.Debugf("[BTREE] session: root=%d depth=%d nodeSize=%d leafRecords=%d",
		s.Header.RootNode, s.Header.TreeDepth, s.Header.NodeSize, s.Header.LeafRecords)
	return s, nil
}

// Find opens a session and looks up the leaf record whose key equals key
func (bt *BTreeService) Find(key interfaces.Key) (*interfaces.LeafRecord, error) {
	s, err := bt.OpenSession()
	if err != nil {
		return nil, err
	}
	return s.Find(key)
}

// CollectRange opens a session and returns the leaf records with keys in [min, max)
func (bt *BTreeService) CollectRange(min, max interfaces.Key) ([]interfaces.LeafRecord, error) {
	s, err := bt.OpenSession()
	if err != nil {
		return nil, err
	}
	return s.CollectRange(min, max)
}

// Walk opens a session and visits every leaf record in key order
func (bt *BTreeService) Walk(fn func(interfaces.LeafRecord) error) error {
	s, err := bt.OpenSession()
	if err != nil {
		return err
	}
	return s.Walk(fn)
}

// ReadNode reads and checks node n. A node whose record table or size does not fit the
// tree is reported as types.ErrCorruptStructure.
func (s *BTreeSession) ReadNode(n uint32) (interfaces.BTreeNodeReader, error) {
	if s.Header.TotalNodes != 0 && n >= s.Header.TotalNodes {
		return nil, fmt.Errorf("node %d beyond total nodes %d: %w", n, s.Header.TotalNodes, types.ErrCorruptStructure)
	}

	size := int64(s.Header.NodeSize)
	buf := make([]byte, size)
	if err := readFull(s.fork, buf, int64(n)*size); err != nil {
		return nil, fmt.Errorf("failed to read node %d: %w", n, err)
	}

	node, err := btrees.NewBTreeNodeReader(buf)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", n, err)
	}

	result := s.validator.ValidateNode(node, &s.Header)
	if !result.Valid {
		return nil, fmt.Errorf("node %d: %s: %w", n, strings.Join(result.Errors, "; "), types.ErrCorruptStructure)
	}
	for _, w := range result.Warnings {
		s.logger.Debugf("[BTREE] node %d: %s", n, w)
	}
	return node, nil
}

// Find descends from the root, following at each index node the record with the greatest
// key less than or equal to key, and scans the leaf for an exact match. A miss returns nil.
func (s *BTreeSession) Find(key interfaces.Key) (*interfaces.LeafRecord, error) {
	if s.Header.RootNode == 0 {
		return nil, nil
	}

	n := s.Header.RootNode
	for depth := 0; depth <= maxTreeDepth; depth++ {
		node, err := s.ReadNode(n)
		if err != nil {
			return nil, err
		}
		s.logger.Debugf("[BTREE] find: visit node %d (%s)", n, node.Kind())

		switch node.Kind() {
		case types.NodeKindIndex:
			records, err := btrees.ReadIndexRecords(node, s.Flavor, &s.Header)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", n, err)
			}
			i := btrees.FindPredecessor(records, key, s.Flavor)
			if i < 0 {
				return nil, fmt.Errorf("index node %d has no key at or below the search key: %w", n, types.ErrCorruptStructure)
			}
			n = records[i].Child
		case types.NodeKindLeaf:
			records, err := btrees.ReadLeafRecords(node, s.Flavor)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", n, err)
			}
			i := btrees.FindExact(records, key, s.Flavor)
			if i < 0 {
				return nil, nil
			}
			return &records[i], nil
		default:
			return nil, fmt.Errorf("reached %s node %d during descent: %w", node.Kind(), n, types.ErrCorruptStructure)
		}
	}
	return nil, fmt.Errorf("descent deeper than %d levels: %w", maxTreeDepth, types.ErrCorruptStructure)
}

// CollectRange returns the leaf records with keys in [min, max) in key order. At each index
// node it descends into every child whose key is in range and into the single child with
// the greatest key below min, whose subtree may still hold keys in range.
func (s *BTreeSession) CollectRange(min, max interfaces.Key) ([]interfaces.LeafRecord, error) {
	if s.Header.RootNode == 0 {
		return nil, nil
	}
	var out []interfaces.LeafRecord
	if err := s.collect(s.Header.RootNode, min, max, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BTreeSession) collect(n uint32, min, max interfaces.Key, depth int, out *[]interfaces.LeafRecord) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("descent deeper than %d levels: %w", maxTreeDepth, types.ErrCorruptStructure)
	}
	node, err := s.ReadNode(n)
	if err != nil {
		return err
	}

	switch node.Kind() {
	case types.NodeKindIndex:
		records, err := btrees.ReadIndexRecords(node, s.Flavor, &s.Header)
		if err != nil {
			return fmt.Errorf("node %d: %w", n, err)
		}
		for _, r := range btrees.SelectRange(records, min, max, s.Flavor) {
			if err := s.collect(r.Child, min, max, depth+1, out); err != nil {
				return err
			}
		}
	case types.NodeKindLeaf:
		records, err := btrees.ReadLeafRecords(node, s.Flavor)
		if err != nil {
			return fmt.Errorf("node %d: %w", n, err)
		}
		*out = append(*out, btrees.FilterRange(records, min, max, s.Flavor)...)
	default:
		return fmt.Errorf("reached %s node %d during descent: %w", node.Kind(), n, types.ErrCorruptStructure)
	}
	return nil
}

// Walk visits every leaf record in key order by following the leaf chain from the first
// leaf node. It stops at the first error returned by fn.
func (s *BTreeSession) Walk(fn func(interfaces.LeafRecord) error) error {
	visited := uint32(0)
	for n := s.Header.FirstLeafNode; n != 0; visited++ {
		if s.Header.TotalNodes != 0 && visited >= s.Header.TotalNodes {
			return fmt.Errorf("leaf chain longer than %d nodes: %w", s.Header.TotalNodes, types.ErrCorruptStructure)
		}
		node, err := s.ReadNode(n)
		if err != nil {
			return err
		}
		records, err := btrees.ReadLeafRecords(node, s.Flavor)
		if err != nil {
			return fmt.Errorf("node %d: %w", n, err)
		}
		for _, r := range records {
			if err := fn(r); err != nil {
				return err
			}
		}
		n = node.Descriptor().FLink
	}
	return nil
}

// ExtentsOverflowService looks up extent records in the extents overflow file. It
// implements interfaces.ExtentsOverflowReader.
type ExtentsOverflowService struct {
	tree *BTreeService
}

// NewExtentsOverflowService creates the extents overflow lookup for a volume
func NewExtentsOverflowService(volume *VolumeReader) *ExtentsOverflowService {
	return &ExtentsOverflowService{
		tree: NewBTreeService(volume, types.CNIDExtentsFile, extents.NewFlavorForVolume, nil),
	}
}

// Tree returns the B-tree service of the extents overflow file
func (es *ExtentsOverflowService) Tree() *BTreeService {
	return es.tree
}

// FindExtents returns the extent record keyed exactly by (fileID, forkType, startBlock)
func (es *ExtentsOverflowService) FindExtents(fileID types.CNID, forkType types.ForkType, startBlock uint32) (types.ExtentRecordT, bool, error) {
	leaf, err := es.tree.Find(types.NewExtentKey(fileID, forkType, startBlock))
	if err != nil || leaf == nil {
		return types.ExtentRecordT{}, false, err
	}
	rec, err := extents.DecodeExtentLeafData(leaf.Data)
	if err != nil {
		return types.ExtentRecordT{}, false, fmt.Errorf("failed to decode overflow extents of CNID %s: %w", fileID, err)
	}
	return rec, true, nil
}
