package hfsfs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"syscall"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces/mocks"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus/hfsplustest"
)

var compressedContents = bytes.Repeat([]byte("compressed contents "), 50)

// createTestImage builds a volume holding:
//
//	/docs/a.txt
//	/docs/b.txt
//	/docs/packed        inline compressed
//	/docs/sub/
//	/top
func createTestImage(t *testing.T) []byte {
	t.Helper()
	b := hfsplustest.New()
	docs := b.AddFolder(b.Root(), "docs")
	b.AddFile(docs, "a.txt", []byte("alpha"))
	b.AddFile(docs, "b.txt", []byte("bravo bravo"))
	b.AddCompressedFile(docs, "packed", hfsplustest.CompressInline(compressedContents, false), nil)
	b.AddFolder(docs, "sub")
	b.AddFile(b.Root(), "top", []byte("top level"))

	img, err := b.Build()
	require.NoError(t, err)
	return img
}

func createTestFs(t *testing.T) *Fs {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	vol, err := hfsplus.Mount(bytes.NewReader(createTestImage(t)), 0, hfsplus.WithLogger(logger))
	require.NoError(t, err)
	return New(vol)
}

func TestFsStat(t *testing.T) {
	hfs := createTestFs(t)

	tests := []struct {
		name     string
		path     string
		wantName string
		wantSize int64
		wantMode os.FileMode
	}{
		{"file", "/docs/a.txt", "a.txt", 5, 0644},
		{"compressed file", "/docs/packed", "packed", int64(len(compressedContents)), 0644},
		{"folder", "/docs", "docs", 0, os.ModeDir | 0755},
		{"root", "/", "/", 0, os.ModeDir | 0755},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := hfs.Stat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, info.Name())
			assert.Equal(t, tt.wantSize, info.Size())
			assert.Equal(t, tt.wantMode, info.Mode())
			assert.Equal(t, tt.wantMode.IsDir(), info.IsDir())
			assert.Equal(t, "2014-07-31", info.ModTime().Format("2006-01-02"))

			rec, ok := info.Sys().(*hfsplus.Record)
			require.True(t, ok)
			assert.Equal(t, info.IsDir(), rec.IsFolder())
		})
	}

	_, err := hfs.Stat("/docs/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
	var pathErr *os.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "stat", pathErr.Op)
}

func TestFileRead(t *testing.T) {
	hfs := createTestFs(t)

	f, err := hfs.Open("/docs/b.txt")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 5)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(buf[:n]))

	pos, err := f.Seek(1, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(rest))

	n, err = f.ReadAt(buf[:3], 2)
	require.NoError(t, err)
	assert.Equal(t, "avo", string(buf[:n]))

	assert.Equal(t, "/docs/b.txt", f.Name())
}

func TestFileReadCompressed(t *testing.T) {
	hfs := createTestFs(t)

	data, err := afero.ReadFile(hfs, "/docs/packed")
	require.NoError(t, err)
	assert.Equal(t, compressedContents, data)
}

func TestFileReaddir(t *testing.T) {
	hfs := createTestFs(t)

	dir, err := hfs.Open("/docs")
	require.NoError(t, err)

	first, err := dir.Readdir(3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "a.txt", first[0].Name())
	assert.Equal(t, "b.txt", first[1].Name())
	assert.Equal(t, "packed", first[2].Name())
	assert.Equal(t, int64(len(compressedContents)), first[2].Size())

	second, err := dir.Readdir(3)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "sub", second[0].Name())
	assert.True(t, second[0].IsDir())

	_, err = dir.Readdir(3)
	assert.Equal(t, io.EOF, err)

	_, err = dir.Seek(0, io.SeekStart)
	require.NoError(t, err)
	names, err := dir.Readdirnames(-1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "packed", "sub"}, names)

	names, err = dir.Readdirnames(-1)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileKindErrors(t *testing.T) {
	hfs := createTestFs(t)

	dir, err := hfs.Open("/docs")
	require.NoError(t, err)
	_, err = dir.Read(make([]byte, 1))
	assert.ErrorIs(t, err, syscall.EISDIR)
	_, err = dir.Seek(5, io.SeekStart)
	assert.ErrorIs(t, err, syscall.EINVAL)

	file, err := hfs.Open("/top")
	require.NoError(t, err)
	_, err = file.Readdir(-1)
	assert.ErrorIs(t, err, syscall.ENOTDIR)

	require.NoError(t, file.Close())
	_, err = file.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.ErrorIs(t, file.Close(), os.ErrClosed)
}

func TestFsIsReadOnly(t *testing.T) {
	hfs := createTestFs(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"create", func() error { _, err := hfs.Create("/new"); return err }},
		{"mkdir", func() error { return hfs.Mkdir("/new", 0755) }},
		{"mkdir all", func() error { return hfs.MkdirAll("/new/dir", 0755) }},
		{"remove", func() error { return hfs.Remove("/top") }},
		{"remove all", func() error { return hfs.RemoveAll("/docs") }},
		{"rename", func() error { return hfs.Rename("/top", "/bottom") }},
		{"chmod", func() error { return hfs.Chmod("/top", 0600) }},
		{"chown", func() error { return hfs.Chown("/top", 1, 1) }},
		{"chtimes", func() error { return hfs.Chtimes("/top", hfsplus.Date(0), hfsplus.Date(0)) }},
		{"open for writing", func() error { _, err := hfs.OpenFile("/top", os.O_RDWR, 0); return err }},
		{"write", func() error {
			f, err := hfs.Open("/top")
			if err != nil {
				return err
			}
			_, err = f.WriteString("x")
			return err
		}},
		{"truncate", func() error {
			f, err := hfs.Open("/top")
			if err != nil {
				return err
			}
			return f.Truncate(0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), syscall.EPERM)
		})
	}

	f, err := hfs.OpenFile("/top", os.O_RDONLY, 0)
	require.NoError(t, err)
	assert.NoError(t, f.Sync())
	assert.Equal(t, "hfsplus", hfs.Name())
}

func TestAferoWalk(t *testing.T) {
	hfs := createTestFs(t)

	var paths []string
	err := afero.Walk(hfs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/docs", "/docs/a.txt", "/docs/b.txt", "/docs/packed", "/docs/sub", "/top"}, paths)
}

func TestIOFS(t *testing.T) {
	hfs := createTestFs(t)
	fsys := NewIOFS(hfs.Volume())

	data, err := fs.ReadFile(fsys, "docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	entries, err := fs.ReadDir(fsys, "docs")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "packed", "sub"}, names)
	assert.True(t, entries[3].IsDir())
	assert.Equal(t, fs.ModeDir, entries[3].Type())

	info, err := fs.Stat(fsys, ".")
	require.NoError(t, err)
	assert.Equal(t, ".", info.Name())
	assert.True(t, info.IsDir())

	var walked []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		walked = append(walked, path)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sort.StringsAreSorted(walked[1:]))
	assert.Len(t, walked, 7)

	_, err = fsys.Open("/docs")
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = fsys.Open("docs/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFsPropagatesSourceErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	img := bytes.NewReader(createTestImage(t))
	failure := errors.New("device gone")
	fail := false

	src := mocks.NewMockRandomAccessSource(ctrl)
	src.EXPECT().ReadAt(gomock.Any(), gomock.Any()).DoAndReturn(func(p []byte, off int64) (int, error) {
		if fail {
			return 0, failure
		}
		return img.ReadAt(p, off)
	}).AnyTimes()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	vol, err := hfsplus.Mount(src, 0, hfsplus.WithLogger(logger))
	require.NoError(t, err)
	hfs := New(vol)

	_, err = hfs.Stat("/docs/a.txt")
	require.NoError(t, err)

	fail = true
	_, err = hfs.Stat("/docs/a.txt")
	assert.ErrorIs(t, err, failure)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
