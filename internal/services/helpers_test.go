package services

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus/hfsplustest"
)

// createTestLogger returns a logger that discards its output
func createTestLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.TraceLevel)
	return logger
}

// createTestImage builds the image described by b
func createTestImage(t *testing.T, b *hfsplustest.Builder) []byte {
	t.Helper()
	img, err := b.Build()
	require.NoError(t, err)
	return img
}

// createTestVolume builds the image described by b and opens it at offset 0
func createTestVolume(t *testing.T, b *hfsplustest.Builder) *VolumeReader {
	t.Helper()
	return NewVolumeReader(bytes.NewReader(createTestImage(t, b)), 0, createTestLogger())
}

// createTestServices wires the lookup services of a volume the way a mount does
func createTestServices(v *VolumeReader) (*ExtentsOverflowService, *CatalogService, *AttributesService) {
	overflow := NewExtentsOverflowService(v)
	return overflow, NewCatalogService(v, overflow), NewAttributesService(v, overflow)
}

// createTestTree returns a builder for a small tree:
//
//	/A/f1.txt
//	/A/f2.txt
//	/B
//	/readme
func createTestTree() (*hfsplustest.Builder, map[string]types.CNID) {
	b := hfsplustest.New()
	ids := map[string]types.CNID{}
	ids["A"] = b.AddFolder(b.Root(), "A")
	ids["B"] = b.AddFolder(b.Root(), "B")
	ids["f2.txt"] = b.AddFile(ids["A"], "f2.txt", []byte("second file"))
	ids["f1.txt"] = b.AddFile(ids["A"], "f1.txt", []byte("first file"))
	ids["readme"] = b.AddFile(b.Root(), "readme", []byte("hello"))
	return b, ids
}

// countingOverflow records every overflow lookup made against it
type countingOverflow struct {
	records map[types.ExtentKeyT]types.ExtentRecordT
	calls   int
	err     error
}

func (co *countingOverflow) FindExtents(fileID types.CNID, forkType types.ForkType, startBlock uint32) (types.ExtentRecordT, bool, error) {
	co.calls++
	if co.err != nil {
		return types.ExtentRecordT{}, false, co.err
	}
	rec, ok := co.records[types.NewExtentKey(fileID, forkType, startBlock)]
	return rec, ok, nil
}

var _ interfaces.ExtentsOverflowReader = (*countingOverflow)(nil)

func readAll(t *testing.T, s interfaces.ForkStream) []byte {
	t.Helper()
	data, err := io.ReadAll(s)
	require.NoError(t, err)
	return data
}
