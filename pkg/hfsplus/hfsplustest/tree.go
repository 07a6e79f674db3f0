package hfsplustest

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/btrees"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Sizes of the header node records other than the header record
const (
	userDataRecordLength = 128
	headerNodeOffsets    = 4 * 2
)

type treeRecord struct {
	key      interfaces.Key
	keyBytes []byte
	data     []byte
}

type treeDef struct {
	flavor       interfaces.TreeFlavor
	maxKeyLength uint16
	attributes   uint32
	keyCompare   uint8
}

// child is the first key of a node one level down and its node number
type child struct {
	keyBytes []byte
	node     uint32
}

// treeWriter accumulates encoded nodes; node 0 is reserved for the header node.
type treeWriter struct {
	nodeSize int
	descs    []types.BTNodeDescriptorT
	records  [][][]byte
}

func (w *treeWriter) add(kind types.NodeKind, height uint8, records [][]byte) uint32 {
	w.descs = append(w.descs, types.BTNodeDescriptorT{Kind: kind, Height: height})
	w.records = append(w.records, records)
	return uint32(len(w.descs))
}

// link chains the nodes first..last of one level
func (w *treeWriter) link(nodes []uint32) {
	for i, n := range nodes {
		if i > 0 {
			w.descs[n-1].BLink = nodes[i-1]
		}
		if i+1 < len(nodes) {
			w.descs[n-1].FLink = nodes[i+1]
		}
	}
}

// pack groups records into nodes, bounded by the node size and by limit records per node
func (w *treeWriter) pack(recs [][]byte, limit int) [][][]byte {
	var groups [][][]byte
	var cur [][]byte
	used := btrees.NodeDescriptorLength + 2
	for _, r := range recs {
		full := used+len(r)+2 > w.nodeSize || (limit > 0 && len(cur) == limit)
		if full && len(cur) > 0 {
			groups = append(groups, cur)
			cur, used = nil, btrees.NodeDescriptorLength+2
		}
		cur = append(cur, r)
		used += len(r) + 2
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// buildTree sorts the records with the tree's ordering and encodes a complete B-tree file
func (l *layout) buildTree(recs []treeRecord, def treeDef) ([]byte, error) {
	sort.SliceStable(recs, func(i, j int) bool {
		return def.flavor.CompareKeys(recs[i].key, recs[j].key) < 0
	})

	w := &treeWriter{nodeSize: int(l.b.NodeSize)}
	hdr := types.BTHeaderRecT{
		NodeSize:       l.b.NodeSize,
		MaxKeyLength:   def.maxKeyLength,
		ClumpSize:      uint32(l.b.NodeSize),
		KeyCompareType: def.keyCompare,
		Attributes:     def.attributes,
		LeafRecords:    uint32(len(recs)),
	}

	leafData := make([][]byte, len(recs))
	firstKeys := make([][]byte, len(recs))
	for i, r := range recs {
		leafData[i] = append(append([]byte{}, r.keyBytes...), r.data...)
		firstKeys[i] = r.keyBytes
	}

	var level []child
	var nodes []uint32
	at := 0
	for _, group := range w.pack(leafData, l.b.LeafRecords) {
		n := w.add(types.NodeKindLeaf, 1, group)
		nodes = append(nodes, n)
		level = append(level, child{keyBytes: firstKeys[at], node: n})
		at += len(group)
	}
	w.link(nodes)
	if len(nodes) > 0 {
		hdr.FirstLeafNode, hdr.LastLeafNode = nodes[0], nodes[len(nodes)-1]
		hdr.TreeDepth = 1
	}

	for height := uint8(2); len(level) > 1; height++ {
		index := make([][]byte, len(level))
		for i, c := range level {
			rec := make([]byte, len(c.keyBytes)+4)
			copy(rec, c.keyBytes)
			binary.BigEndian.PutUint32(rec[len(c.keyBytes):], c.node)
			index[i] = rec
		}

		var next []child
		nodes = nodes[:0]
		at := 0
		for _, group := range w.pack(index, l.b.IndexRecords) {
			n := w.add(types.NodeKindIndex, height, group)
			nodes = append(nodes, n)
			next = append(next, child{keyBytes: level[at].keyBytes, node: n})
			at += len(group)
		}
		w.link(nodes)
		level = next
		hdr.TreeDepth = uint16(height)
	}
	if len(level) == 1 {
		hdr.RootNode = level[0].node
	}
	hdr.TotalNodes = uint32(len(w.descs)) + 1

	header, err := w.headerNode(hdr)
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, header...)
	for i, d := range w.descs {
		node, err := btrees.EncodeNode(d, w.records[i], w.nodeSize)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i+1, err)
		}
		out = append(out, node...)
	}
	return out, nil
}

// headerNode encodes node 0: the header record, the user data record and the map record
func (w *treeWriter) headerNode(hdr types.BTHeaderRecT) ([]byte, error) {
	rec := make([]byte, btrees.HeaderRecordLength)
	if err := btrees.EncodeHeaderRecord(rec, 0, hdr); err != nil {
		return nil, err
	}

	mapLen := w.nodeSize - btrees.NodeDescriptorLength - btrees.HeaderRecordLength - userDataRecordLength - headerNodeOffsets
	if int(hdr.TotalNodes) > mapLen*8 {
		return nil, fmt.Errorf("%d nodes do not fit in the header node map", hdr.TotalNodes)
	}
	bitmap := make([]byte, mapLen)
	for i := uint32(0); i < hdr.TotalNodes; i++ {
		bitmap[i/8] |= 0x80 >> (i % 8)
	}

	desc := types.BTNodeDescriptorT{Kind: types.NodeKindHeader}
	return btrees.EncodeNode(desc, [][]byte{rec, make([]byte, userDataRecordLength), bitmap}, w.nodeSize)
}
