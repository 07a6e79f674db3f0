package hfsplus

import (
	"time"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// CNID is a catalog node identifier
type CNID = types.CNID

// Reserved catalog node identifiers
const (
	RootParentID = types.CNIDRootParent
	RootFolderID = types.CNIDRootFolder
)

// Record is a decoded catalog record: a folder, a file or a thread
type Record = types.CatalogRecord

// Attribute is a decoded extended attribute record
type Attribute = types.AttrRecord

// VolumeHeader is the decoded volume header
type VolumeHeader = types.VolumeHeaderT

// TreeHeader is the decoded header record of a B-tree
type TreeHeader = types.BTHeaderRecT

// Stream is a random access, seekable view of a fork or attribute value
type Stream = interfaces.ForkStream

// Fork selects the data or resource fork of a file
type Fork = types.ForkType

// Forks of a file
const (
	DataFork     = types.ForkTypeData
	ResourceFork = types.ForkTypeResource
)

// Date converts an HFS+ date to a time.Time in UTC. Zero stays the zero time.
func Date(d uint32) time.Time {
	if d == 0 {
		return time.Time{}
	}
	return time.Unix(types.HFSPlusDateToUnix(d), 0).UTC()
}
