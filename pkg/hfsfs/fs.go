// Package hfsfs exposes a mounted HFS+ volume as a read-only afero.Fs and io/fs.FS.
// Every method that would modify the volume fails with syscall.EPERM.
package hfsfs

import (
	"errors"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

// writeFlags are the open flags that require write access
const writeFlags = os.O_WRONLY | os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_APPEND

// Fs is a read-only afero.Fs over an HFS+ volume
type Fs struct {
	vol    *hfsplus.Volume
	logger logrus.FieldLogger
}

var _ afero.Fs = (*Fs)(nil)

// New returns a read-only filesystem over vol
func New(vol *hfsplus.Volume) *Fs {
	return &Fs{vol: vol, logger: vol.Logger()}
}

// Volume returns the mounted volume
func (fs *Fs) Volume() *hfsplus.Volume {
	return fs.vol
}

// Name returns the name of the filesystem
func (fs *Fs) Name() string {
	return "hfsplus"
}

// Open opens a file or folder for reading
func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.open("open", name)
}

// OpenFile opens a file for reading. Any flag requesting write access fails with EPERM.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&writeFlags != 0 {
		return nil, readOnly("open", name)
	}
	return fs.open("open", name)
}

// Stat returns the FileInfo of a file or folder
func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	rec, err := fs.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return fs.fileInfo(rec, baseName(name))
}

func (fs *Fs) open(op, name string) (*File, error) {
	rec, err := fs.lookup(op, name)
	if err != nil {
		return nil, err
	}
	info, err := fs.fileInfo(rec, baseName(name))
	if err != nil {
		return nil, &os.PathError{Op: op, Path: name, Err: err}
	}

	f := &File{fs: fs, path: name, rec: rec, info: info}
	if rec.IsFile() {
		if f.stream, err = fs.vol.OpenDataFork(rec); err != nil {
			return nil, &os.PathError{Op: op, Path: name, Err: err}
		}
	}
	fs.logger.Debugf("[HFSFS] %s %q -> CNID %d", op, name, rec.ID())
	return f, nil
}

func (fs *Fs) lookup(op, name string) (*hfsplus.Record, error) {
	rec, err := fs.vol.LookupPath(name)
	if errors.Is(err, hfsplus.ErrNotFound) {
		return nil, &os.PathError{Op: op, Path: name, Err: os.ErrNotExist}
	}
	if err != nil {
		return nil, &os.PathError{Op: op, Path: name, Err: err}
	}
	return rec, nil
}

func baseName(name string) string {
	base := path.Base(path.Clean("/" + name))
	if base == "/" && name != "/" {
		return "."
	}
	return base
}

func readOnly(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: syscall.EPERM}
}

// Create fails with EPERM
func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, readOnly("create", name)
}

// Mkdir fails with EPERM
func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return readOnly("mkdir", name)
}

// MkdirAll fails with EPERM
func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return readOnly("mkdir", path)
}

// Remove fails with EPERM
func (fs *Fs) Remove(name string) error {
	return readOnly("remove", name)
}

// RemoveAll fails with EPERM
func (fs *Fs) RemoveAll(path string) error {
	return readOnly("remove", path)
}

// Rename fails with EPERM
func (fs *Fs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EPERM}
}

// Chmod fails with EPERM
func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return readOnly("chmod", name)
}

// Chown fails with EPERM
func (fs *Fs) Chown(name string, uid, gid int) error {
	return readOnly("chown", name)
}

// Chtimes fails with EPERM
func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return readOnly("chtimes", name)
}
