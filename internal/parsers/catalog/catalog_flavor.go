package catalog

import (
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Flavor is the catalog B-tree flavor: (parent ID, node name) keys ordered first by parent
// ID and then by name under the volume's collation.
type Flavor struct {
	collation Collation
}

// NewFlavor returns a catalog flavor with the given collation
func NewFlavor(c Collation) *Flavor {
	return &Flavor{collation: c}
}

// NewFlavorForVolume picks the collation for a catalog tree. HFS+ volumes always fold case;
// HFSX volumes declare their ordering in the header record's key compare type.
func NewFlavorForVolume(vh *types.VolumeHeaderT, hdr *types.BTHeaderRecT) (interfaces.TreeFlavor, error) {
	if !hdr.BigKeys() {
		return nil, fmt.Errorf("catalog tree without big keys: %w", types.ErrUnsupportedVariant)
	}
	if !vh.IsHFSX() {
		return NewFlavor(CollationCaseFolding), nil
	}
	switch hdr.KeyCompareType {
	case types.KeyCompareCaseFolding:
		return NewFlavor(CollationCaseFolding), nil
	case types.KeyCompareBinary:
		return NewFlavor(CollationBinary), nil
	default:
		return nil, fmt.Errorf("catalog key compare type 0x%02x: %w", hdr.KeyCompareType, types.ErrUnsupportedVariant)
	}
}

// Collation returns the name ordering of the flavor
func (f *Flavor) Collation() Collation {
	return f.collation
}

// Name returns the tree name
func (f *Flavor) Name() string {
	return "catalog"
}

// DecodeKey decodes a catalog key at the start of a record
func (f *Flavor) DecodeKey(rec []byte) (interfaces.Key, error) {
	return DecodeCatalogKey(rec, 0)
}

// CompareKeys orders two catalog keys
func (f *Flavor) CompareKeys(a, b interfaces.Key) int {
	ka, kb := a.(types.CatalogKeyT), b.(types.CatalogKeyT)
	switch {
	case ka.ParentID < kb.ParentID:
		return -1
	case ka.ParentID > kb.ParentID:
		return 1
	}
	return CompareNames(ka.NodeName, kb.NodeName, f.collation)
}
