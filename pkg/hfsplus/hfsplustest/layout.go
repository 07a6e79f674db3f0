package hfsplustest

import (
	"fmt"

	"github.com/deploymenttheory/go-hfsplus/internal/parsers/attributes"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/catalog"
	datastreams "github.com/deploymenttheory/go-hfsplus/internal/parsers/data_streams"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/extents"
	"github.com/deploymenttheory/go-hfsplus/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// Maximum key lengths written into the tree header records
const (
	catalogMaxKeyLength    = 516
	extentsMaxKeyLength    = types.ExtentKeyLength
	attributesMaxKeyLength = 266
)

// layout is one pass of Build: an image growing block by block and the tree records
// collected while forks are placed.
type layout struct {
	b     *Builder
	image []byte
	next  uint32

	extentRecs []treeRecord
	attrRecs   []treeRecord
}

func newLayout(b *Builder) *layout {
	return &layout{b: b}
}

// alloc reserves n blocks and returns the first
func (l *layout) alloc(n uint32) uint32 {
	start := l.next
	l.next += n
	if need := int(l.next) * int(l.b.BlockSize); need > len(l.image) {
		l.image = append(l.image, make([]byte, need-len(l.image))...)
	}
	return start
}

func (l *layout) blocksFor(n int) uint32 {
	bs := int(l.b.BlockSize)
	return uint32((n + bs - 1) / bs)
}

// writeFork places data in extents of at most maxExtent blocks and returns the fork data
// together with every extent.
func (l *layout) writeFork(data []byte, maxExtent uint32) (types.ForkDataT, []types.ExtentDescriptorT) {
	bs := int(l.b.BlockSize)
	blocks := l.blocksFor(len(data))

	var exts []types.ExtentDescriptorT
	off := 0
	for remaining := blocks; remaining > 0; {
		n := remaining
		if maxExtent > 0 && n > maxExtent {
			n = maxExtent
		}
		start := l.alloc(n)
		end := off + int(n)*bs
		if end > len(data) {
			end = len(data)
		}
		copy(l.image[int(start)*bs:], data[off:end])
		exts = append(exts, types.ExtentDescriptorT{StartBlock: start, BlockCount: n})

		off += int(n) * bs
		remaining -= n
		if maxExtent > 0 && remaining > 0 {
			l.alloc(1)
		}
	}

	fork := types.ForkDataT{
		LogicalSize: uint64(len(data)),
		ClumpSize:   l.b.BlockSize,
		TotalBlocks: blocks,
	}
	copy(fork.Extents[:], exts)
	return fork, exts
}

// overflow groups the extents beyond the first eight into records of eight, each keyed by
// the number of blocks that precede it.
func overflow(exts []types.ExtentDescriptorT) (starts []uint32, recs []types.ExtentRecordT) {
	var covered uint32
	for i, e := range exts {
		if i >= types.ExtentDensity && (i-types.ExtentDensity)%types.ExtentDensity == 0 {
			starts = append(starts, covered)
			recs = append(recs, types.ExtentRecordT{})
		}
		if i >= types.ExtentDensity {
			recs[len(recs)-1][(i-types.ExtentDensity)%types.ExtentDensity] = e
		}
		covered += e.BlockCount
	}
	return starts, recs
}

// placeFork writes a file or special-file fork and records its overflow extents
func (l *layout) placeFork(owner types.CNID, forkType types.ForkType, data []byte, maxExtent uint32) (types.ForkDataT, error) {
	fork, exts := l.writeFork(data, maxExtent)
	starts, recs := overflow(exts)
	for i := range recs {
		key := types.NewExtentKey(owner, forkType, starts[i])
		keyBytes := make([]byte, extents.ExtentKeyLength)
		if err := extents.EncodeExtentKey(keyBytes, 0, key); err != nil {
			return fork, err
		}
		data := make([]byte, types.ExtentRecordSize)
		if err := datastreams.EncodeExtentRecord(data, 0, recs[i]); err != nil {
			return fork, err
		}
		l.extentRecs = append(l.extentRecs, treeRecord{key: key, keyBytes: keyBytes, data: data})
	}
	return fork, nil
}

// placeAttribute stores an attribute inline or, when it cannot share a node, in a fork
// continued by extents records.
func (l *layout) placeAttribute(a *attrEntry) error {
	name := types.NewUniStr(a.name)
	key := types.NewAttrKey(a.id, name, 0)
	inline := attributes.EncodeInlineAttr(a.value)

	if key.Length()+len(inline)+2 <= int(l.b.NodeSize)/2 {
		return l.addAttrRecord(key, inline)
	}

	fork, exts := l.writeFork(a.value, l.b.MaxExtentBlocks)
	if err := l.addAttrRecord(key, attributes.EncodeForkAttr(fork)); err != nil {
		return err
	}
	starts, recs := overflow(exts)
	for i := range recs {
		if err := l.addAttrRecord(types.NewAttrKey(a.id, name, starts[i]), attributes.EncodeExtentsAttr(recs[i])); err != nil {
			return err
		}
	}
	return nil
}

func (l *layout) addAttrRecord(key types.AttrKeyT, data []byte) error {
	keyBytes := make([]byte, key.Length())
	if err := attributes.EncodeAttrKey(keyBytes, 0, key); err != nil {
		return err
	}
	l.attrRecs = append(l.attrRecs, treeRecord{key: key, keyBytes: keyBytes, data: data})
	return nil
}

func (l *layout) build() ([]byte, error) {
	b := l.b
	l.alloc(l.blocksFor(types.VolumeHeaderOffset + types.VolumeHeaderSize))

	for _, f := range b.byID {
		f.valence, f.folderCount = 0, 0
	}
	for _, f := range b.files {
		if f.parent == types.CNIDRootParent {
			// a file beside the root folder, which a reader must reject
			continue
		}
		parent, ok := b.byID[f.parent]
		if !ok {
			return nil, fmt.Errorf("file %q: parent %d is not a folder", f.name, f.parent)
		}
		parent.valence++
	}
	for _, f := range b.folders {
		parent, ok := b.byID[f.parent]
		if !ok {
			return nil, fmt.Errorf("folder %q: parent %d is not a folder", f.name, f.parent)
		}
		parent.valence++
		parent.folderCount++
	}

	catRecs, err := l.catalogRecords()
	if err != nil {
		return nil, err
	}
	for _, a := range b.attrs {
		if err := l.placeAttribute(a); err != nil {
			return nil, err
		}
	}

	collation := catalog.CollationCaseFolding
	keyCompare := uint8(0)
	if b.HFSX {
		keyCompare = types.KeyCompareCaseFolding
		if b.CaseSensitive {
			collation, keyCompare = catalog.CollationBinary, types.KeyCompareBinary
		}
	}
	variable := types.BTBigKeysMask | types.BTVariableIndexKeysMask

	vh := types.VolumeHeaderT{
		Signature:          types.SignatureHFSPlus,
		Version:            types.VersionHFSPlus,
		Attributes:         1 << types.VolumeUnmountedBit,
		LastMountedVersion: 0x31302E30,
		CreateDate:         timestamp,
		ModifyDate:         timestamp,
		CheckedDate:        timestamp,
		FileCount:          uint32(len(b.files)),
		FolderCount:        uint32(len(b.folders)),
		BlockSize:          b.BlockSize,
		RsrcClumpSize:      b.BlockSize,
		DataClumpSize:      b.BlockSize,
		NextCatalogID:      b.nextID,
		EncodingsBitmap:    1,
	}
	if b.HFSX {
		vh.Signature, vh.Version = types.SignatureHFSX, types.VersionHFSX
	}

	catTree, err := l.buildTree(catRecs, treeDef{
		flavor:       catalog.NewFlavor(collation),
		maxKeyLength: catalogMaxKeyLength,
		attributes:   variable,
		keyCompare:   keyCompare,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	catExtent := uint32(0)
	if b.FragmentCatalog {
		catExtent = 1
	}
	if vh.CatalogFile, err = l.placeFork(types.CNIDCatalogFile, types.ForkTypeData, catTree, catExtent); err != nil {
		return nil, err
	}

	if len(l.attrRecs) > 0 {
		attrTree, err := l.buildTree(l.attrRecs, treeDef{
			flavor:       attributes.NewFlavor(),
			maxKeyLength: attributesMaxKeyLength,
			attributes:   variable,
		})
		if err != nil {
			return nil, fmt.Errorf("attributes: %w", err)
		}
		vh.AttributesFile, _ = l.writeFork(attrTree, 0)
	}

	extTree, err := l.buildTree(l.extentRecs, treeDef{
		flavor:       extents.NewFlavor(),
		maxKeyLength: extentsMaxKeyLength,
		attributes:   types.BTBigKeysMask,
	})
	if err != nil {
		return nil, fmt.Errorf("extents: %w", err)
	}
	vh.ExtentsFile, _ = l.writeFork(extTree, 0)

	// Every block is in use: the bitmap, then the blocks that hold the alternate header.
	tail := l.blocksFor(1024)
	bitmapBlocks := uint32(1)
	for uint64(bitmapBlocks)*uint64(b.BlockSize)*8 < uint64(l.next+bitmapBlocks+tail) {
		bitmapBlocks++
	}
	total := l.next + bitmapBlocks + tail
	bitmap := make([]byte, int(bitmapBlocks)*int(b.BlockSize))
	for i := uint32(0); i < total; i++ {
		bitmap[i/8] |= 0x80 >> (i % 8)
	}
	vh.AllocationFile, _ = l.writeFork(bitmap, 0)
	l.alloc(tail)
	vh.TotalBlocks = total

	if err := volumes.EncodeVolumeHeader(l.image, types.VolumeHeaderOffset, vh); err != nil {
		return nil, err
	}
	if err := volumes.EncodeVolumeHeader(l.image, len(l.image)-1024, vh); err != nil {
		return nil, err
	}
	return l.image, nil
}

// catalogRecords places file forks and returns every catalog leaf record
func (l *layout) catalogRecords() ([]treeRecord, error) {
	b := l.b
	var recs []treeRecord

	add := func(parent types.CNID, name string, data []byte) error {
		key := types.NewCatalogKey(parent, types.NewUniStr(name))
		keyBytes := make([]byte, key.Length())
		if err := catalog.EncodeCatalogKey(keyBytes, 0, key); err != nil {
			return err
		}
		recs = append(recs, treeRecord{key: key, keyBytes: keyBytes, data: data})
		return nil
	}
	thread := func(id, parent types.CNID, name string, kind types.CatalogRecordType) error {
		t := types.CatalogThreadT{RecordType: kind, ParentID: parent, NodeName: types.NewUniStr(name)}
		data := make([]byte, catalog.ThreadRecordLength(t))
		if err := catalog.EncodeThreadRecord(data, 0, t); err != nil {
			return err
		}
		return add(id, "", data)
	}

	folders := append([]*folderEntry{b.byID[types.CNIDRootFolder]}, b.folders...)
	for _, f := range folders {
		name := f.name
		if f.id == types.CNIDRootFolder {
			name = b.VolumeName
		}
		rec := types.CatalogFolderT{
			RecordType:       types.CatalogRecordFolder,
			Flags:            types.CatalogHasFolderCountMask,
			Valence:          f.valence,
			FolderID:         f.id,
			CreateDate:       timestamp,
			ContentModDate:   timestamp,
			AttributeModDate: timestamp,
			AccessDate:       timestamp,
			Permissions:      types.BSDInfoT{FileMode: types.ModeDirectory | 0755},
			FolderCount:      f.folderCount,
		}
		data := make([]byte, catalog.FolderRecordLength)
		if err := catalog.EncodeFolderRecord(data, 0, rec); err != nil {
			return nil, err
		}
		if err := add(f.parent, name, data); err != nil {
			return nil, err
		}
		if err := thread(f.id, f.parent, name, types.CatalogRecordFolderThread); err != nil {
			return nil, err
		}
	}

	for _, f := range b.files {
		rec := types.CatalogFileT{
			RecordType:       types.CatalogRecordFile,
			Flags:            types.CatalogThreadExistsMask,
			FileID:           f.id,
			CreateDate:       timestamp,
			ContentModDate:   timestamp,
			AttributeModDate: timestamp,
			AccessDate:       timestamp,
			Permissions: types.BSDInfoT{
				OwnerFlags: f.opts.OwnerFlags,
				FileMode:   types.ModeRegular | f.opts.Mode,
				Special:    1,
			},
		}
		if f.hasXA {
			rec.Flags |= types.CatalogHasAttributesMask
		}

		var err error
		if rec.DataFork, err = l.placeFork(f.id, types.ForkTypeData, f.opts.Data, b.MaxExtentBlocks); err != nil {
			return nil, err
		}
		if rec.ResourceFork, err = l.placeFork(f.id, types.ForkTypeResource, f.opts.Resource, b.MaxExtentBlocks); err != nil {
			return nil, err
		}

		data := make([]byte, catalog.FileRecordLength)
		if err := catalog.EncodeFileRecord(data, 0, rec); err != nil {
			return nil, err
		}
		if err := add(f.parent, f.name, data); err != nil {
			return nil, err
		}
		if err := thread(f.id, f.parent, f.name, types.CatalogRecordFileThread); err != nil {
			return nil, err
		}
	}
	return recs, nil
}
