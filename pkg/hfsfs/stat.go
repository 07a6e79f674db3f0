package hfsfs

import (
	"os"
	"time"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

// fileInfo adapts a catalog record to os.FileInfo
type fileInfo struct {
	name string
	size int64
	rec  *hfsplus.Record
}

// fileInfo builds the FileInfo of rec. Compressed files report their decompressed size.
func (fs *Fs) fileInfo(rec *hfsplus.Record, name string) (os.FileInfo, error) {
	fi := fileInfo{name: name, rec: rec}
	if rec.IsFile() {
		fi.size = int64(rec.File.DataFork.LogicalSize)
		compressed, err := fs.vol.IsCompressed(rec)
		if err != nil {
			return nil, err
		}
		if compressed {
			s, err := fs.vol.OpenDataFork(rec)
			if err != nil {
				return nil, err
			}
			fi.size = s.Size()
		}
	}
	return fi, nil
}

func (fi fileInfo) Name() string {
	return fi.name
}

func (fi fileInfo) Size() int64 {
	return fi.size
}

// Mode maps the BSD file mode of the record. Records without a type in their mode, as
// written by old formatters, fall back to 0755 folders and 0644 files.
func (fi fileInfo) Mode() os.FileMode {
	var bsd types.BSDInfoT
	if fi.rec.IsFolder() {
		bsd = fi.rec.Folder.Permissions
	} else {
		bsd = fi.rec.File.Permissions
	}

	perm := os.FileMode(bsd.FileMode & 0777)
	switch bsd.FileMode & types.ModeTypeMask {
	case types.ModeDirectory:
		return os.ModeDir | perm
	case types.ModeSymlink:
		return os.ModeSymlink | perm
	case types.ModeFIFO:
		return os.ModeNamedPipe | perm
	case types.ModeSocket:
		return os.ModeSocket | perm
	case types.ModeCharDevice:
		return os.ModeDevice | os.ModeCharDevice | perm
	case types.ModeBlockDev:
		return os.ModeDevice | perm
	case types.ModeRegular:
		return perm
	}
	if fi.rec.IsFolder() {
		return os.ModeDir | 0755
	}
	return 0644
}

func (fi fileInfo) ModTime() time.Time {
	if fi.rec.IsFolder() {
		return hfsplus.Date(fi.rec.Folder.ContentModDate)
	}
	return hfsplus.Date(fi.rec.File.ContentModDate)
}

func (fi fileInfo) IsDir() bool {
	return fi.rec.IsFolder()
}

// Sys returns the *hfsplus.Record
func (fi fileInfo) Sys() interface{} {
	return fi.rec
}
