package hfsfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

// ErrReadDir wraps failures to list a folder
var ErrReadDir = errors.New("could not read the directory")

// File is an open file or folder. Files read their data fork, decompressed when the
// file is compressed. Folders list their children with Readdir.
type File struct {
	fs   *Fs
	path string
	rec  *hfsplus.Record
	info os.FileInfo

	stream hfsplus.Stream

	children []os.FileInfo
	dirPos   int
	closed   bool
}

func (f *File) check(op string) error {
	if f.closed {
		return &os.PathError{Op: op, Path: f.path, Err: os.ErrClosed}
	}
	return nil
}

// Close releases the file. Further calls fail with os.ErrClosed.
func (f *File) Close() error {
	if err := f.check("close"); err != nil {
		return err
	}
	f.closed = true
	f.stream = nil
	f.children = nil
	return nil
}

// Read reads from the current offset of a file
func (f *File) Read(p []byte) (int, error) {
	if err := f.check("read"); err != nil {
		return 0, err
	}
	if f.stream == nil {
		return 0, &os.PathError{Op: "read", Path: f.path, Err: syscall.EISDIR}
	}
	return f.stream.Read(p)
}

// ReadAt reads from off without moving the offset
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if err := f.check("read"); err != nil {
		return 0, err
	}
	if f.stream == nil {
		return 0, &os.PathError{Op: "read", Path: f.path, Err: syscall.EISDIR}
	}
	return f.stream.ReadAt(p, off)
}

// Seek moves the offset of a file. Seeking a folder rewinds its listing.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.check("seek"); err != nil {
		return 0, err
	}
	if f.stream == nil {
		if offset != 0 || whence != io.SeekStart {
			return 0, &os.PathError{Op: "seek", Path: f.path, Err: syscall.EINVAL}
		}
		f.dirPos = 0
		return 0, nil
	}
	return f.stream.Seek(offset, whence)
}

// Name returns the name the file was opened with
func (f *File) Name() string {
	return f.path
}

// Stat returns the FileInfo of the file
func (f *File) Stat() (os.FileInfo, error) {
	if err := f.check("stat"); err != nil {
		return nil, err
	}
	return f.info, nil
}

// Readdir reads the contents of a folder in catalog order. With count > 0 it returns at
// most count entries and io.EOF once the listing is exhausted; otherwise it returns all
// remaining entries. Fails with syscall.ENOTDIR on a file.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if err := f.check("readdir"); err != nil {
		return nil, err
	}
	if !f.rec.IsFolder() {
		return nil, &os.PathError{Op: "readdir", Path: f.path, Err: syscall.ENOTDIR}
	}

	if f.children == nil {
		records, err := f.fs.vol.ListChildren(f.rec.ID())
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrReadDir, f.path, err)
		}
		f.children = make([]os.FileInfo, 0, len(records))
		for _, r := range records {
			info, err := f.fs.fileInfo(r, r.Name())
			if err != nil {
				return nil, fmt.Errorf("%w %q: %w", ErrReadDir, f.path, err)
			}
			f.children = append(f.children, info)
		}
	}

	remaining := f.children[f.dirPos:]
	if count <= 0 {
		f.dirPos = len(f.children)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if count > len(remaining) {
		count = len(remaining)
	}
	f.dirPos += count
	return remaining[:count], nil
}

// Readdirnames returns the names of the entries Readdir would return
func (f *File) Readdirnames(count int) ([]string, error) {
	infos, err := f.Readdir(count)
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, err
}

// Write fails with EPERM
func (f *File) Write(p []byte) (int, error) {
	return 0, readOnly("write", f.path)
}

// WriteAt fails with EPERM
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	return 0, readOnly("write", f.path)
}

// WriteString fails with EPERM
func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// Truncate fails with EPERM
func (f *File) Truncate(size int64) error {
	return readOnly("truncate", f.path)
}

// Sync does nothing; the volume is never written
func (f *File) Sync() error {
	return nil
}
