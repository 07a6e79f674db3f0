package btrees

import (
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// BTreeValidator provides validation for B-tree header records and nodes
type BTreeValidator struct{}

// NewBTreeValidator creates a new B-tree validator
func NewBTreeValidator() *BTreeValidator {
	return &BTreeValidator{}
}

// ValidationResult contains the result of validation
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateHeaderRecord checks the invariants a reader depends on. A failure is wrapped
// in types.ErrCorruptStructure.
func (btv *BTreeValidator) ValidateHeaderRecord(hdr *types.BTHeaderRecT) error {
	ns := uint32(hdr.NodeSize)
	if ns < types.MinNodeSize || ns > types.MaxNodeSize || ns&(ns-1) != 0 {
		return fmt.Errorf("invalid node size %d: %w", hdr.NodeSize, types.ErrCorruptStructure)
	}
	if hdr.TotalNodes != 0 && hdr.RootNode >= hdr.TotalNodes {
		return fmt.Errorf("root node %d beyond total nodes %d: %w", hdr.RootNode, hdr.TotalNodes, types.ErrCorruptStructure)
	}
	return nil
}

// ValidateNode performs structural checks on a node that was reached at the given height.
// Problems that do not prevent reading are reported as warnings.
func (btv *BTreeValidator) ValidateNode(node interfaces.BTreeNodeReader, hdr *types.BTHeaderRecT) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	btv.checkLinks(node, hdr, result)
	btv.checkKind(node, result)
	btv.checkHeight(node, hdr, result)

	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

// checkLinks validates that the sibling links point inside the tree
func (btv *BTreeValidator) checkLinks(node interfaces.BTreeNodeReader, hdr *types.BTHeaderRecT, result *ValidationResult) {
	if hdr.TotalNodes == 0 {
		return
	}
	d := node.Descriptor()
	if d.FLink >= hdr.TotalNodes {
		result.Errors = append(result.Errors, fmt.Sprintf("forward link %d beyond total nodes %d", d.FLink, hdr.TotalNodes))
	}
	if d.BLink >= hdr.TotalNodes {
		result.Errors = append(result.Errors, fmt.Sprintf("backward link %d beyond total nodes %d", d.BLink, hdr.TotalNodes))
	}
}

// checkKind validates that the node kind is one of the four defined kinds
func (btv *BTreeValidator) checkKind(node interfaces.BTreeNodeReader, result *ValidationResult) {
	switch node.Kind() {
	case types.NodeKindLeaf, types.NodeKindIndex:
		if node.NumRecords() == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s node has no records", node.Kind()))
		}
	case types.NodeKindHeader, types.NodeKindMap:
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("unknown node kind %d", node.Kind()))
	}
}

// checkHeight validates the height against the tree depth
func (btv *BTreeValidator) checkHeight(node interfaces.BTreeNodeReader, hdr *types.BTHeaderRecT, result *ValidationResult) {
	d := node.Descriptor()
	switch node.Kind() {
	case types.NodeKindLeaf:
		if d.Height != 1 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("leaf node has height %d", d.Height))
		}
	case types.NodeKindIndex:
		if d.Height < 2 || uint16(d.Height) > hdr.TreeDepth {
			result.Warnings = append(result.Warnings, fmt.Sprintf("index node height %d outside [2, %d]", d.Height, hdr.TreeDepth))
		}
	}
}
