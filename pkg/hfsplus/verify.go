package hfsplus

import (
	"context"
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/services"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// TreeReport is the result of walking one B-tree
type TreeReport struct {
	Name    string
	Present bool
	Header  TreeHeader
	Records uint32
	Err     error
}

// VerifyReport is the result of Verify
type VerifyReport struct {
	Trees []TreeReport
}

// OK reports whether every tree passed
func (r *VerifyReport) OK() bool {
	for _, t := range r.Trees {
		if t.Err != nil {
			return false
		}
	}
	return true
}

// Verify walks the leaf chain of the extents overflow, catalog and attributes trees and
// checks that keys ascend and that the record count matches the tree header. Problems
// are reported per tree; the returned error is only set for an unreadable volume header
// or a cancelled ctx.
func (v *Volume) Verify(ctx context.Context) (*VerifyReport, error) {
	vh, err := v.reader.ReadHeader()
	if err != nil {
		return nil, err
	}

	trees := []struct {
		name    string
		fork    types.ForkDataT
		service *services.BTreeService
	}{
		{"extents", vh.ExtentsFile, v.overflow.Tree()},
		{"catalog", vh.CatalogFile, v.catalog.Tree()},
		{"attributes", vh.AttributesFile, v.attributes.Tree()},
	}

	report := &VerifyReport{}
	for _, t := range trees {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		tr := TreeReport{Name: t.name, Present: t.fork.LogicalSize > 0}
		if tr.Present {
			v.verifyTree(ctx, t.service, &tr)
		}
		if tr.Err != nil {
			v.logger.Warnf("[VOLUME] verify %s tree: %v", t.name, tr.Err)
		}
		report.Trees = append(report.Trees, tr)
	}
	return report, ctx.Err()
}

func (v *Volume) verifyTree(ctx context.Context, bt *services.BTreeService, tr *TreeReport) {
	s, err := bt.OpenSession()
	if err != nil {
		tr.Err = err
		return
	}
	tr.Header = s.Header

	var prev interfaces.Key
	tr.Err = s.Walk(func(rec interfaces.LeafRecord) error {
		if tr.Records%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if prev != nil && s.Flavor.CompareKeys(prev, rec.Key) >= 0 {
			return fmt.Errorf("record %d is out of key order: %w", tr.Records, types.ErrCorruptStructure)
		}
		prev = rec.Key
		tr.Records++
		return nil
	})
	if tr.Err == nil && tr.Records != s.Header.LeafRecords {
		tr.Err = fmt.Errorf("leaf chain holds %d records, header says %d: %w", tr.Records, s.Header.LeafRecords, types.ErrCorruptStructure)
	}
}
