package btrees

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// testKey is a fixed-size key holding a single uint32, encoded as keyLength(4) + value
type testKey struct {
	value uint32
}

func (k testKey) Length() int { return 6 }

// testFlavor orders testKeys numerically
type testFlavor struct{}

func (testFlavor) Name() string { return "test" }

func (testFlavor) DecodeKey(rec []byte) (interfaces.Key, error) {
	if len(rec) < 6 {
		return nil, fmt.Errorf("test key: %w", types.ErrShortRead)
	}
	return testKey{value: binary.BigEndian.Uint32(rec[2:6])}, nil
}

func (testFlavor) CompareKeys(a, b interfaces.Key) int {
	x, y := a.(testKey).value, b.(testKey).value
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// createTestKey encodes a test key
func createTestKey(v uint32) []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint16(b[0:2], 4)
	binary.BigEndian.PutUint32(b[2:6], v)
	return b
}

// createTestIndexRecord encodes a test key followed by a child pointer
func createTestIndexRecord(v, child uint32) []byte {
	b := createTestKey(v)
	return binary.BigEndian.AppendUint32(b, child)
}

// createTestIndexRecords builds decoded index records whose child is key*10
func createTestIndexRecords(keys ...uint32) []interfaces.IndexRecord {
	records := make([]interfaces.IndexRecord, len(keys))
	for i, k := range keys {
		records[i] = interfaces.IndexRecord{Key: testKey{value: k}, Child: k * 10}
	}
	return records
}

// testHeader returns a header record for a variable-index-key tree with 512 byte nodes
func testHeader() *types.BTHeaderRecT {
	return &types.BTHeaderRecT{
		TreeDepth:    2,
		NodeSize:     512,
		MaxKeyLength: 4,
		TotalNodes:   8,
		Attributes:   types.BTBigKeysMask | types.BTVariableIndexKeysMask,
	}
}
