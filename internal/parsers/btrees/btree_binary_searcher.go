package btrees

import (
	"sort"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
)

// FindPredecessor returns the position of the index record with the greatest key less than
// or equal to key, or -1 if every record is greater. Index records are sorted by key.
func FindPredecessor(records []interfaces.IndexRecord, key interfaces.Key, flavor interfaces.TreeFlavor) int {
	return sort.Search(len(records), func(i int) bool {
		return flavor.CompareKeys(records[i].Key, key) > 0
	}) - 1
}

// FindExact returns the position of the leaf record whose key equals key, or -1.
func FindExact(records []interfaces.LeafRecord, key interfaces.Key, flavor interfaces.TreeFlavor) int {
	for i, r := range records {
		if flavor.CompareKeys(r.Key, key) == 0 {
			return i
		}
	}
	return -1
}

// SelectRange returns the index records whose subtrees may hold keys in [min, max): every
// record with a key in the range, preceded by the greatest record with a key below min.
func SelectRange(records []interfaces.IndexRecord, min, max interfaces.Key, flavor interfaces.TreeFlavor) []interfaces.IndexRecord {
	var selected []interfaces.IndexRecord
	pred := -1
	for i, r := range records {
		if flavor.CompareKeys(r.Key, min) < 0 {
			pred = i
			continue
		}
		if flavor.CompareKeys(r.Key, max) >= 0 {
			break
		}
		selected = append(selected, r)
	}
	if pred >= 0 {
		selected = append([]interfaces.IndexRecord{records[pred]}, selected...)
	}
	return selected
}

// FilterRange returns the leaf records with keys in [min, max), in node order
func FilterRange(records []interfaces.LeafRecord, min, max interfaces.Key, flavor interfaces.TreeFlavor) []interfaces.LeafRecord {
	var selected []interfaces.LeafRecord
	for _, r := range records {
		if flavor.CompareKeys(r.Key, min) >= 0 && flavor.CompareKeys(r.Key, max) < 0 {
			selected = append(selected, r)
		}
	}
	return selected
}
