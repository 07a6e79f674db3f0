package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

func createTestFork(logicalSize uint64, extents ...types.ExtentDescriptorT) types.ForkDataT {
	fork := types.ForkDataT{LogicalSize: logicalSize}
	copy(fork.Extents[:], extents)
	return fork
}

func TestGetAllExtentsInlineCoverage(t *testing.T) {
	overflow := &countingOverflow{}
	er := NewExtentResolver(overflow, createTestLogger())

	fork := createTestFork(1500, types.ExtentDescriptorT{StartBlock: 10, BlockCount: 2}, types.ExtentDescriptorT{StartBlock: 20, BlockCount: 1})
	extents, err := er.GetAllExtents(16, fork, types.ForkTypeData, 512)
	require.NoError(t, err)
	assert.Len(t, extents, 2)
	assert.Equal(t, 0, overflow.calls)
}

func TestGetAllExtentsTrimsAtTerminator(t *testing.T) {
	fork := createTestFork(512,
		types.ExtentDescriptorT{StartBlock: 10, BlockCount: 1},
		types.ExtentDescriptorT{},
		types.ExtentDescriptorT{StartBlock: 30, BlockCount: 1},
	)
	extents, err := NewExtentResolver(nil, nil).GetAllExtents(16, fork, types.ForkTypeData, 512)
	require.NoError(t, err)
	assert.Equal(t, []types.ExtentDescriptorT{{StartBlock: 10, BlockCount: 1}}, extents)
}

func TestGetAllExtentsFollowsOverflow(t *testing.T) {
	var inline []types.ExtentDescriptorT
	for i := 0; i < types.ExtentDensity; i++ {
		inline = append(inline, types.ExtentDescriptorT{StartBlock: uint32(100 + 2*i), BlockCount: 1})
	}
	fork := createTestFork(11*512, inline...)

	overflow := &countingOverflow{records: map[types.ExtentKeyT]types.ExtentRecordT{
		types.NewExtentKey(16, types.ForkTypeResource, 8): {{StartBlock: 200, BlockCount: 2}},
		types.NewExtentKey(16, types.ForkTypeResource, 10): {{StartBlock: 300, BlockCount: 1}},
	}}
	extents, err := NewExtentResolver(overflow, createTestLogger()).GetAllExtents(16, fork, types.ForkTypeResource, 512)
	require.NoError(t, err)
	assert.Len(t, extents, 10)
	assert.Equal(t, types.ExtentDescriptorT{StartBlock: 300, BlockCount: 1}, extents[9])
	assert.Equal(t, 2, overflow.calls)
}

func TestGetAllExtentsErrors(t *testing.T) {
	short := createTestFork(2048, types.ExtentDescriptorT{StartBlock: 10, BlockCount: 1})
	lookupFailure := errors.New("lookup failed")

	tests := []struct {
		name     string
		ownerID  types.CNID
		overflow *countingOverflow
		want     error
	}{
		{"missing record", 16, &countingOverflow{}, types.ErrCorruptStructure},
		{"empty record", 16, &countingOverflow{records: map[types.ExtentKeyT]types.ExtentRecordT{
			types.NewExtentKey(16, types.ForkTypeData, 1): {},
		}}, types.ErrCorruptStructure},
		{"lookup error", 16, &countingOverflow{err: lookupFailure}, lookupFailure},
		{"extents file never overflows", types.CNIDExtentsFile, &countingOverflow{}, types.ErrCorruptStructure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtentResolver(tt.overflow, createTestLogger()).GetAllExtents(tt.ownerID, short, types.ForkTypeData, 512)
			assert.ErrorIs(t, err, tt.want)
			if tt.ownerID == types.CNIDExtentsFile {
				assert.Equal(t, 0, tt.overflow.calls)
			}
		})
	}

	t.Run("no overflow reader", func(t *testing.T) {
		_, err := NewExtentResolver(nil, nil).GetAllExtents(16, short, types.ForkTypeData, 512)
		assert.ErrorIs(t, err, types.ErrCorruptStructure)
	})
}
