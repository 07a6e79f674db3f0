package interfaces

import (
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// CatalogReader provides lookups over the catalog file
type CatalogReader interface {
	// GetRoot returns the root folder record
	GetRoot() (*types.CatalogRecord, error)

	// GetRecord returns the record keyed by (parentID, name), or nil if there is none
	GetRecord(parentID types.CNID, name string) (*types.CatalogRecord, error)

	// ListChildren returns the file and folder records inside a folder, in name order
	ListChildren(folderID types.CNID) ([]*types.CatalogRecord, error)

	// GetPathTo returns the records from the root folder down to and including record
	GetPathTo(record *types.CatalogRecord) ([]*types.CatalogRecord, error)
}

// AttributesReader provides lookups over the attributes file
type AttributesReader interface {
	// ListAttributes returns the attribute records of a file or folder
	ListAttributes(fileID types.CNID) ([]*types.AttrRecord, error)

	// GetAttribute returns the named attribute record, or nil if there is none
	GetAttribute(fileID types.CNID, name string) (*types.AttrRecord, error)
}
