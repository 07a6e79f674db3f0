package services

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/btrees"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus/hfsplustest"
)

// createTestDeepCatalog returns a builder whose catalog has several index levels
func createTestDeepCatalog(files int) *hfsplustest.Builder {
	b := hfsplustest.New()
	b.LeafRecords = 2
	b.IndexRecords = 2
	for i := 0; i < files; i++ {
		b.AddFile(b.Root(), fmt.Sprintf("file%02d", i), []byte{byte(i)})
	}
	return b
}

// catalogNodeOffset returns the image offset of node n of a contiguous catalog file
func catalogNodeOffset(t *testing.T, img []byte, n uint32) int {
	t.Helper()
	vh, err := volumes.DecodeVolumeHeader(img, types.VolumeHeaderOffset)
	require.NoError(t, err)
	return int(vh.CatalogFile.Extents[0].StartBlock)*int(vh.BlockSize) + int(n)*hfsplustest.DefaultNodeSize
}

func TestBTreeSessionHeader(t *testing.T) {
	v := createTestVolume(t, createTestDeepCatalog(10))
	_, cat, _ := createTestServices(v)

	s, err := cat.Tree().OpenSession()
	require.NoError(t, err)
	assert.Equal(t, "catalog", s.Flavor.Name())
	assert.Equal(t, uint16(hfsplustest.DefaultNodeSize), s.Header.NodeSize)
	assert.Equal(t, uint32(22), s.Header.LeafRecords)
	assert.GreaterOrEqual(t, s.Header.TreeDepth, uint16(3))
}

func TestBTreeFindAcrossLevels(t *testing.T) {
	v := createTestVolume(t, createTestDeepCatalog(10))
	_, cat, _ := createTestServices(v)

	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("file%02d", i)
		leaf, err := cat.Tree().Find(types.NewCatalogKey(types.CNIDRootFolder, types.NewUniStr(name)))
		require.NoError(t, err, name)
		require.NotNil(t, leaf, name)
		assert.Equal(t, name, leaf.Key.(types.CatalogKeyT).NodeName.String())
	}

	leaf, err := cat.Tree().Find(types.NewCatalogKey(types.CNIDRootFolder, types.NewUniStr("file99")))
	require.NoError(t, err)
	assert.Nil(t, leaf)
}

func TestBTreeFindBelowTreeMinimum(t *testing.T) {
	v := createTestVolume(t, createTestDeepCatalog(10))
	_, cat, _ := createTestServices(v)

	_, err := cat.Tree().Find(types.NewCatalogKey(0, nil))
	assert.ErrorIs(t, err, types.ErrCorruptStructure)
}

func TestBTreeWalkVisitsEveryRecordInOrder(t *testing.T) {
	v := createTestVolume(t, createTestDeepCatalog(10))
	_, cat, _ := createTestServices(v)

	s, err := cat.Tree().OpenSession()
	require.NoError(t, err)

	var keys []interfaces.Key
	require.NoError(t, s.Walk(func(r interfaces.LeafRecord) error {
		keys = append(keys, r.Key)
		return nil
	}))
	require.Len(t, keys, int(s.Header.LeafRecords))
	for i := 1; i < len(keys); i++ {
		assert.Negative(t, s.Flavor.CompareKeys(keys[i-1], keys[i]), "keys %d and %d out of order", i-1, i)
	}

	stop := fmt.Errorf("stop")
	visited := 0
	err = s.Walk(func(interfaces.LeafRecord) error {
		visited++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
}

func TestBTreeCollectRangeMatchesWalk(t *testing.T) {
	v := createTestVolume(t, createTestDeepCatalog(10))
	_, cat, _ := createTestServices(v)

	leaves, err := cat.Tree().CollectRange(
		types.NewCatalogKey(types.CNIDRootFolder, types.NewUniStr("file03")),
		types.NewCatalogKey(types.CNIDRootFolder, types.NewUniStr("file07")),
	)
	require.NoError(t, err)
	require.Len(t, leaves, 4)
	for i, leaf := range leaves {
		assert.Equal(t, fmt.Sprintf("file%02d", i+3), leaf.Key.(types.CatalogKeyT).NodeName.String())
	}
}

func TestBTreeCorruptNodes(t *testing.T) {
	tests := []struct {
		name  string
		patch func(t *testing.T, img []byte)
	}{
		{
			name: "unknown root node kind",
			patch: func(t *testing.T, img []byte) {
				s := openTestCatalogSession(t, img)
				img[catalogNodeOffset(t, img, s.Header.RootNode)+8] = 7
			},
		},
		{
			name: "header node reached during descent",
			patch: func(t *testing.T, img []byte) {
				s := openTestCatalogSession(t, img)
				img[catalogNodeOffset(t, img, s.Header.RootNode)+8] = byte(types.NodeKindHeader)
			},
		},
		{
			name: "invalid node size",
			patch: func(t *testing.T, img []byte) {
				binary.BigEndian.PutUint16(img[catalogNodeOffset(t, img, 0)+btrees.NodeDescriptorLength+18:], 1000)
			},
		},
		{
			name: "root beyond total nodes",
			patch: func(t *testing.T, img []byte) {
				binary.BigEndian.PutUint32(img[catalogNodeOffset(t, img, 0)+btrees.NodeDescriptorLength+2:], 5000)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createTestImage(t, createTestDeepCatalog(10))
			tt.patch(t, img)

			v := NewVolumeReader(bytes.NewReader(img), 0, createTestLogger())
			_, cat, _ := createTestServices(v)
			_, err := cat.Tree().Find(types.NewCatalogKey(types.CNIDRootFolder, types.NewUniStr("file01")))
			assert.ErrorIs(t, err, types.ErrCorruptStructure)
		})
	}
}

func openTestCatalogSession(t *testing.T, img []byte) *BTreeSession {
	t.Helper()
	v := NewVolumeReader(bytes.NewReader(img), 0, createTestLogger())
	_, cat, _ := createTestServices(v)
	s, err := cat.Tree().OpenSession()
	require.NoError(t, err)
	return s
}

func TestBTreeEmptyTree(t *testing.T) {
	v := createTestVolume(t, hfsplustest.New())
	overflow, _, _ := createTestServices(v)

	rec, found, err := overflow.FindExtents(16, types.ForkTypeData, 0)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, types.ExtentRecordT{}, rec)
}

func TestSessionsSeeVolumeChanges(t *testing.T) {
	img := createTestImage(t, createTestDeepCatalog(4))
	v := NewVolumeReader(bytes.NewReader(img), 0, createTestLogger())
	_, cat, _ := createTestServices(v)

	_, err := cat.GetRoot()
	require.NoError(t, err)

	copy(img[types.VolumeHeaderOffset:], "ZZ")
	_, err = cat.GetRoot()
	assert.ErrorIs(t, err, types.ErrCorruptStructure)
}

func TestServicesLogAtDebugLevel(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	img := createTestImage(t, createTestDeepCatalog(10))
	v := NewVolumeReader(bytes.NewReader(img), 0, logger)
	_, cat, _ := createTestServices(v)

	leaf, err := cat.Tree().Find(types.NewCatalogKey(types.CNIDRootFolder, types.NewUniStr("file03")))
	require.NoError(t, err)
	require.NotNil(t, leaf)

	attr, resource := hfsplustest.CompressResource(createTestPattern(3000), 1000)
	stream, err := NewCompressedForkReader(attr, bytes.NewReader(resource), NewCompressionService(logger), logger)
	require.NoError(t, err)
	_, err = stream.ReadAt(make([]byte, 10), 2500)
	require.NoError(t, err)

	var messages []string
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.DebugLevel, e.Level, e.Message)
		messages = append(messages, e.Message)
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, "[VOLUME] header:")
	assert.Contains(t, joined, "[BTREE] find: visit node")
	assert.Contains(t, joined, "[DECMPFS] block 2:")
}
