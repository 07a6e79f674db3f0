// Package hfsplustest builds small HFS+ and HFSX volume images in memory, laid out the way
// a formatter would lay them out, for use in tests of code that reads volumes.
package hfsplustest

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Defaults used by New
const (
	DefaultBlockSize  = 512
	DefaultNodeSize   = 4096
	DefaultVolumeName = ""

	// timestamp is the date written into every record: 2014-07-31 14:15:28 GMT.
	timestamp uint32 = 0xD0000000
)

// Builder collects folders, files and attributes and lays them out as a volume image.
// Set the exported fields before calling Build.
type Builder struct {
	// BlockSize is the allocation block size
	BlockSize uint32

	// NodeSize is the node size of every B-tree
	NodeSize uint16

	// HFSX builds an HFSX volume instead of HFS+
	HFSX bool

	// CaseSensitive selects binary name ordering for an HFSX catalog
	CaseSensitive bool

	// VolumeName is the name of the root folder
	VolumeName string

	// LeafRecords and IndexRecords cap the records per node; 0 packs nodes full
	LeafRecords  int
	IndexRecords int

	// MaxExtentBlocks splits file and attribute forks into extents of at most this many
	// blocks, separated by unused blocks; 0 keeps every fork contiguous
	MaxExtentBlocks uint32

	// FragmentCatalog stores the catalog file in single block extents so that it spills
	// into the extents overflow file
	FragmentCatalog bool

	nextID  types.CNID
	folders []*folderEntry
	files   []*fileEntry
	attrs   []*attrEntry
	byID    map[types.CNID]*folderEntry
}

// FileOptions describes the forks and flags of a file added with AddFileWithOptions
type FileOptions struct {
	Data       []byte
	Resource   []byte
	OwnerFlags uint8
	Mode       uint16
}

type folderEntry struct {
	parent      types.CNID
	name        string
	id          types.CNID
	valence     uint32
	folderCount uint32
}

type fileEntry struct {
	parent types.CNID
	name   string
	id     types.CNID
	opts   FileOptions
	hasXA  bool
}

type attrEntry struct {
	id    types.CNID
	name  string
	value []byte
}

// New returns a builder for an empty HFS+ volume
func New() *Builder {
	root := &folderEntry{parent: types.CNIDRootParent, id: types.CNIDRootFolder}
	return &Builder{
		BlockSize:  DefaultBlockSize,
		NodeSize:   DefaultNodeSize,
		VolumeName: DefaultVolumeName,
		nextID:     types.CNIDFirstUserCatalogNode,
		byID:       map[types.CNID]*folderEntry{types.CNIDRootFolder: root},
	}
}

// Root returns the CNID of the root folder
func (b *Builder) Root() types.CNID {
	return types.CNIDRootFolder
}

// AddFolder adds a folder and returns its CNID. Names are stored decomposed.
func (b *Builder) AddFolder(parent types.CNID, name string) types.CNID {
	id := b.allocID()
	f := &folderEntry{parent: parent, name: norm.NFD.String(name), id: id}
	b.folders = append(b.folders, f)
	b.byID[id] = f
	return id
}

// AddFile adds a file with a data fork and returns its CNID
func (b *Builder) AddFile(parent types.CNID, name string, data []byte) types.CNID {
	return b.AddFileWithOptions(parent, name, FileOptions{Data: data})
}

// AddFileWithOptions adds a file and returns its CNID
func (b *Builder) AddFileWithOptions(parent types.CNID, name string, opts FileOptions) types.CNID {
	id := b.allocID()
	if opts.Mode == 0 {
		opts.Mode = 0644
	}
	b.files = append(b.files, &fileEntry{parent: parent, name: norm.NFD.String(name), id: id, opts: opts})
	return id
}

// AddCompressedFile adds a file whose contents live in a decmpfs attribute and, when
// resource is not nil, its resource fork. See CompressInline and CompressResource.
func (b *Builder) AddCompressedFile(parent types.CNID, name string, attr, resource []byte) types.CNID {
	id := b.AddFileWithOptions(parent, name, FileOptions{Resource: resource, OwnerFlags: types.UFCompressed})
	b.SetAttribute(id, types.DecmpfsAttributeName, attr)
	return id
}

// SetAttribute adds an extended attribute to a file or folder. Values too large for a
// node are stored in a fork.
func (b *Builder) SetAttribute(id types.CNID, name string, value []byte) {
	b.attrs = append(b.attrs, &attrEntry{id: id, name: name, value: value})
	for _, f := range b.files {
		if f.id == id {
			f.hasXA = true
		}
	}
}

func (b *Builder) allocID() types.CNID {
	id := b.nextID
	b.nextID++
	return id
}

// Build lays out the volume and returns its image
func (b *Builder) Build() ([]byte, error) {
	if b.BlockSize < 512 || b.BlockSize&(b.BlockSize-1) != 0 {
		return nil, fmt.Errorf("invalid block size %d", b.BlockSize)
	}
	l := newLayout(b)
	return l.build()
}
