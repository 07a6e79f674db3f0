package hfsfs

import (
	"io/fs"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

// dirEntry adapts a FileInfo to fs.DirEntry
type dirEntry struct {
	fs.FileInfo
}

func (d dirEntry) Type() fs.FileMode {
	return d.FileInfo.Mode().Type()
}

func (d dirEntry) Info() (fs.FileInfo, error) {
	return d.FileInfo, nil
}

// ioFile adds fs.ReadDirFile to File
type ioFile struct {
	*File
}

func (f ioFile) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := f.File.Readdir(n)
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = dirEntry{info}
	}
	return entries, err
}

// IOFS wraps Fs to be compatible with io/fs
type IOFS struct {
	*Fs
}

var (
	_ fs.FS          = IOFS{}
	_ fs.StatFS      = IOFS{}
	_ fs.ReadDirFile = ioFile{}
)

// NewIOFS returns vol as an io/fs filesystem
func NewIOFS(vol *hfsplus.Volume) IOFS {
	return IOFS{New(vol)}
}

// Open opens a file or folder. Names follow io/fs rules: slash separated, unrooted, with
// "." for the root folder.
func (i IOFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, err := i.Fs.open("open", name)
	if err != nil {
		return nil, err
	}
	return ioFile{f}, nil
}

// Stat returns the FileInfo of a file or folder
func (i IOFS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	return i.Fs.Stat(name)
}
