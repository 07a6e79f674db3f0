package extents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

func TestExtentKeyRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  types.ExtentKeyT
	}{
		{name: "data fork", key: types.NewExtentKey(20, types.ForkTypeData, 8)},
		{name: "resource fork", key: types.NewExtentKey(21, types.ForkTypeResource, 0)},
		{name: "catalog file", key: types.NewExtentKey(types.CNIDCatalogFile, types.ForkTypeData, 0xFFFFFFFF)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, ExtentKeyLength)
			require.NoError(t, EncodeExtentKey(buf, 0, tt.key))
			got, err := DecodeExtentKey(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.key, got)
			assert.Equal(t, ExtentKeyLength, got.Length())
		})
	}
}

func TestDecodeExtentKeyErrors(t *testing.T) {
	_, err := DecodeExtentKey(make([]byte, ExtentKeyLength-1), 0)
	assert.ErrorIs(t, err, types.ErrShortRead)

	buf := make([]byte, ExtentKeyLength)
	require.NoError(t, EncodeExtentKey(buf, 0, types.ExtentKeyT{KeyLength: 6}))
	_, err = DecodeExtentKey(buf, 0)
	assert.ErrorIs(t, err, types.ErrCorruptStructure)
}

func TestFlavorCompareKeys(t *testing.T) {
	f := NewFlavor()
	k := types.NewExtentKey

	tests := []struct {
		name string
		a, b types.ExtentKeyT
		want int
	}{
		{name: "file ID dominates", a: k(20, types.ForkTypeResource, 50), b: k(21, types.ForkTypeData, 0), want: -1},
		{name: "data fork before resource fork", a: k(20, types.ForkTypeData, 50), b: k(20, types.ForkTypeResource, 0), want: -1},
		{name: "start block last", a: k(20, types.ForkTypeData, 16), b: k(20, types.ForkTypeData, 8), want: 1},
		{name: "equal", a: k(20, types.ForkTypeData, 8), b: k(20, types.ForkTypeData, 8), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.CompareKeys(tt.a, tt.b))
			assert.Equal(t, -tt.want, f.CompareKeys(tt.b, tt.a))
		})
	}
}

func TestNewFlavorForVolume(t *testing.T) {
	_, err := NewFlavorForVolume(nil, &types.BTHeaderRecT{})
	assert.ErrorIs(t, err, types.ErrUnsupportedVariant)

	flavor, err := NewFlavorForVolume(nil, &types.BTHeaderRecT{Attributes: types.BTBigKeysMask})
	require.NoError(t, err)
	assert.Equal(t, "extents", flavor.Name())
}
