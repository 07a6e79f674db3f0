package hfsplustest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/internal/parsers/btrees"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

func buildHeader(t *testing.T, b *Builder) ([]byte, types.VolumeHeaderT) {
	t.Helper()
	img, err := b.Build()
	require.NoError(t, err)
	vh, err := volumes.DecodeVolumeHeader(img, types.VolumeHeaderOffset)
	require.NoError(t, err)
	return img, vh
}

func readTreeHeader(t *testing.T, img []byte, vh types.VolumeHeaderT, fork types.ForkDataT) types.BTHeaderRecT {
	t.Helper()
	start := int(fork.Extents[0].StartBlock) * int(vh.BlockSize)
	node, err := btrees.NewBTreeNodeReader(img[start : start+DefaultNodeSize])
	require.NoError(t, err)
	hdr, err := btrees.ReadHeaderNode(node)
	require.NoError(t, err)
	return hdr
}

func TestBuildEmptyVolume(t *testing.T) {
	img, vh := buildHeader(t, New())

	assert.Equal(t, types.SignatureHFSPlus, vh.Signature)
	assert.Equal(t, types.VersionHFSPlus, vh.Version)
	assert.True(t, vh.IsUnmounted())
	assert.Equal(t, uint32(0), vh.FileCount)
	assert.Equal(t, uint32(0), vh.FolderCount)
	assert.Equal(t, types.CNIDFirstUserCatalogNode, vh.NextCatalogID)
	assert.Equal(t, len(img), int(vh.TotalBlocks)*int(vh.BlockSize))
	assert.Zero(t, vh.AttributesFile.LogicalSize)

	alt, err := volumes.DecodeVolumeHeader(img, len(img)-1024)
	require.NoError(t, err)
	assert.Equal(t, vh, alt)

	cat := readTreeHeader(t, img, vh, vh.CatalogFile)
	assert.Equal(t, uint16(1), cat.TreeDepth)
	assert.Equal(t, uint32(2), cat.LeafRecords)
	assert.Equal(t, cat.FirstLeafNode, cat.RootNode)

	ext := readTreeHeader(t, img, vh, vh.ExtentsFile)
	assert.Equal(t, uint16(0), ext.TreeDepth)
	assert.Equal(t, uint32(0), ext.RootNode)
	assert.Equal(t, uint32(1), ext.TotalNodes)
}

func TestBuildHFSX(t *testing.T) {
	tests := []struct {
		name          string
		caseSensitive bool
		keyCompare    uint8
	}{
		{"case folding", false, types.KeyCompareCaseFolding},
		{"binary", true, types.KeyCompareBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.HFSX = true
			b.CaseSensitive = tt.caseSensitive
			img, vh := buildHeader(t, b)

			assert.Equal(t, types.SignatureHFSX, vh.Signature)
			assert.Equal(t, types.VersionHFSX, vh.Version)
			assert.Equal(t, tt.keyCompare, readTreeHeader(t, img, vh, vh.CatalogFile).KeyCompareType)
		})
	}
}

func TestBuildMultiLevelCatalog(t *testing.T) {
	b := New()
	b.LeafRecords = 4
	b.IndexRecords = 2
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		b.AddFile(b.Root(), name, []byte(name))
	}
	img, vh := buildHeader(t, b)

	hdr := readTreeHeader(t, img, vh, vh.CatalogFile)
	assert.Equal(t, uint32(14), hdr.LeafRecords)
	assert.Equal(t, uint16(3), hdr.TreeDepth)
	assert.Equal(t, uint32(6), vh.FileCount)
	assert.NotEqual(t, hdr.FirstLeafNode, hdr.LastLeafNode)
}

func TestBuildFragmentedFork(t *testing.T) {
	b := New()
	b.MaxExtentBlocks = 1
	data := bytes.Repeat([]byte{0xA5}, 10*DefaultBlockSize)
	b.AddFile(b.Root(), "big", data)
	img, vh := buildHeader(t, b)

	ext := readTreeHeader(t, img, vh, vh.ExtentsFile)
	assert.Equal(t, uint32(1), ext.LeafRecords)
}

func TestBuildInvalidParent(t *testing.T) {
	b := New()
	b.AddFile(99, "orphan", nil)
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuildInvalidBlockSize(t *testing.T) {
	b := New()
	b.BlockSize = 1000
	_, err := b.Build()
	assert.Error(t, err)
}

func TestCompressBlocksLayout(t *testing.T) {
	attr, resource := CompressBlocks([]Block{{Data: []byte("hello"), Literal: true}, {Data: []byte("world")}})

	require.Len(t, attr, types.DecmpfsHeaderSize)
	assert.Equal(t, []byte("fpmc"), attr[0:4])
	assert.Equal(t, byte(types.CompressionZlibResource), attr[4])
	assert.Equal(t, byte(10), attr[8])
	assert.Greater(t, len(resource), 0x100)
}

func TestCompressInline(t *testing.T) {
	literal := CompressInline([]byte("abc"), true)
	assert.Equal(t, []byte{0xFF, 'a', 'b', 'c'}, literal[types.DecmpfsHeaderSize:])

	zlib := CompressInline([]byte("abc"), false)
	assert.Equal(t, byte(0x78), zlib[types.DecmpfsHeaderSize])
}
