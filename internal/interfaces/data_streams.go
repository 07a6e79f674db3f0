package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// ExtentsOverflowReader looks up extent records in the extents overflow file
type ExtentsOverflowReader interface {
	// FindExtents returns the extent record keyed exactly by (fileID, forkType, startBlock).
	// found is false when no such record exists.
	FindExtents(fileID types.CNID, forkType types.ForkType, startBlock uint32) (rec types.ExtentRecordT, found bool, err error)
}

// ForkStream is a random access, seekable view of one fork's logical bytes
type ForkStream interface {
	io.ReaderAt
	io.ReadSeeker

	// Size returns the logical size of the fork in bytes
	Size() int64
}
