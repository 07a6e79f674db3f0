package btrees

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/helpers"
	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// ReadHeaderNode decodes the header record from the header node
func ReadHeaderNode(node interfaces.BTreeNodeReader) (types.BTHeaderRecT, error) {
	if node.Kind() != types.NodeKindHeader {
		return types.BTHeaderRecT{}, fmt.Errorf("expected header node, found %s node: %w", node.Kind(), types.ErrCorruptStructure)
	}
	rec, err := node.Record(0)
	if err != nil {
		return types.BTHeaderRecT{}, fmt.Errorf("header node has no header record: %w", types.ErrCorruptStructure)
	}
	return DecodeHeaderRecord(rec, 0)
}

// ReadIndexRecords decodes every record of an index node. When the tree does not use
// variable length index keys, each key occupies maxKeyLength+2 bytes.
func ReadIndexRecords(node interfaces.BTreeNodeReader, flavor interfaces.TreeFlavor, hdr *types.BTHeaderRecT) ([]interfaces.IndexRecord, error) {
	if node.Kind() != types.NodeKindIndex {
		return nil, fmt.Errorf("expected index node, found %s node: %w", node.Kind(), types.ErrCorruptStructure)
	}

	records := make([]interfaces.IndexRecord, 0, node.NumRecords())
	for i := 0; i < node.NumRecords(); i++ {
		rec, err := node.Record(i)
		if err != nil {
			return nil, err
		}
		key, err := flavor.DecodeKey(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s index key %d: %w", flavor.Name(), i, err)
		}

		keyArea := key.Length()
		if !hdr.VariableIndexKeys() {
			keyArea = int(hdr.MaxKeyLength) + 2
		}
		keyArea = align2(keyArea)
		if err := helpers.CheckLength(rec, keyArea, 4, "index record child pointer"); err != nil {
			return nil, fmt.Errorf("index record %d: %v: %w", i, err, types.ErrCorruptStructure)
		}

		records = append(records, interfaces.IndexRecord{
			Key:   key,
			Child: binary.BigEndian.Uint32(rec[keyArea : keyArea+4]),
		})
	}
	return records, nil
}

// ReadLeafRecords decodes the keys of every record of a leaf node, leaving the record data raw
func ReadLeafRecords(node interfaces.BTreeNodeReader, flavor interfaces.TreeFlavor) ([]interfaces.LeafRecord, error) {
	if node.Kind() != types.NodeKindLeaf {
		return nil, fmt.Errorf("expected leaf node, found %s node: %w", node.Kind(), types.ErrCorruptStructure)
	}

	records := make([]interfaces.LeafRecord, 0, node.NumRecords())
	for i := 0; i < node.NumRecords(); i++ {
		rec, err := node.Record(i)
		if err != nil {
			return nil, err
		}
		key, err := flavor.DecodeKey(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s leaf key %d: %w", flavor.Name(), i, err)
		}
		dataStart := align2(key.Length())
		if dataStart > len(rec) {
			return nil, fmt.Errorf("leaf record %d key overruns record: %w", i, types.ErrCorruptStructure)
		}
		records = append(records, interfaces.LeafRecord{Key: key, Data: rec[dataStart:]})
	}
	return records, nil
}

func align2(n int) int {
	return (n + 1) &^ 1
}
