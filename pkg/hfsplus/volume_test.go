package hfsplus

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces/mocks"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus/hfsplustest"
)

func createTestLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func createTestPattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + i/251)
	}
	return data
}

func createTestImage(t *testing.T, b *hfsplustest.Builder) []byte {
	t.Helper()
	img, err := b.Build()
	require.NoError(t, err)
	return img
}

func mountTestImage(t *testing.T, img []byte, opts ...Option) *Volume {
	t.Helper()
	opts = append([]Option{WithLogger(createTestLogger())}, opts...)
	v, err := Mount(bytes.NewReader(img), 0, opts...)
	require.NoError(t, err)
	return v
}

// createTestVolume returns a volume holding:
//
//	/docs/plain.txt          plain data fork
//	/docs/inline.txt         inline compressed
//	/docs/blocks.bin         resource fork compressed
//	/docs/rsrc               data and resource forks
//	/docs/xattr-only         decmpfs attribute without the compressed flag
func createTestVolume() (*hfsplustest.Builder, map[string][]byte) {
	b := hfsplustest.New()
	docs := b.AddFolder(b.Root(), "docs")

	contents := map[string][]byte{
		"plain.txt":  []byte("plain contents"),
		"inline.txt": bytes.Repeat([]byte("inline "), 40),
		"blocks.bin": createTestPattern(3*4096 + 100),
		"xattr-only": []byte("compressed without the flag"),
	}

	b.AddFile(docs, "plain.txt", contents["plain.txt"])
	b.AddCompressedFile(docs, "inline.txt", hfsplustest.CompressInline(contents["inline.txt"], false), nil)
	attr, resource := hfsplustest.CompressResource(contents["blocks.bin"], 4096)
	b.AddCompressedFile(docs, "blocks.bin", attr, resource)
	b.AddFileWithOptions(docs, "rsrc", hfsplustest.FileOptions{Data: []byte("data"), Resource: []byte("resource")})
	id := b.AddFile(docs, "xattr-only", nil)
	b.SetAttribute(id, types.DecmpfsAttributeName, hfsplustest.CompressInline(contents["xattr-only"], true))
	return b, contents
}

func TestMount(t *testing.T) {
	b, _ := createTestVolume()
	img := createTestImage(t, b)

	withHeader := func(sig uint16) []byte {
		out := append([]byte(nil), img...)
		binary.BigEndian.PutUint16(out[types.VolumeHeaderOffset:], sig)
		return out
	}

	tests := []struct {
		name    string
		img     []byte
		wantErr error
	}{
		{"valid", img, nil},
		{"plain HFS", withHeader(types.SignatureHFS), ErrUnsupportedVariant},
		{"bad signature", withHeader(0x5A5A), ErrCorruptStructure},
		{"truncated", img[:types.VolumeHeaderOffset+100], ErrShortRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Mount(bytes.NewReader(tt.img), 0, WithLogger(createTestLogger()))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, v)
		})
	}
}

func TestMountAtOffset(t *testing.T) {
	b, contents := createTestVolume()
	img := append(make([]byte, 4096), createTestImage(t, b)...)

	v, err := Mount(bytes.NewReader(img), 4096, WithLogger(createTestLogger()))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = v.ExtractPath(context.Background(), "/docs/plain.txt", &buf)
	require.NoError(t, err)
	assert.Equal(t, contents["plain.txt"], buf.Bytes())
}

func TestHeaderIsReadFresh(t *testing.T) {
	b, _ := createTestVolume()
	img := createTestImage(t, b)
	v := mountTestImage(t, img)

	vh, err := v.Header()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), vh.FileCount)
	assert.Equal(t, uint32(1), vh.FolderCount)

	binary.BigEndian.PutUint32(img[types.VolumeHeaderOffset+32:], 77)
	vh, err = v.Header()
	require.NoError(t, err)
	assert.Equal(t, uint32(77), vh.FileCount)
}

func TestOpenDataFork(t *testing.T) {
	b, contents := createTestVolume()
	v := mountTestImage(t, createTestImage(t, b))

	for name, want := range contents {
		t.Run(name, func(t *testing.T) {
			rec, err := v.LookupPath("/docs/" + name)
			require.NoError(t, err)

			s, err := v.OpenDataFork(rec)
			require.NoError(t, err)
			assert.Equal(t, int64(len(want)), s.Size())

			got, err := io.ReadAll(s)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestOpenDataForkRaw(t *testing.T) {
	b, _ := createTestVolume()
	v := mountTestImage(t, createTestImage(t, b), WithRawForks())

	rec, err := v.LookupPath("docs/inline.txt")
	require.NoError(t, err)
	s, err := v.OpenDataFork(rec)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Size())

	compressed, err := v.IsCompressed(rec)
	require.NoError(t, err)
	assert.True(t, compressed)
}

func TestIsCompressed(t *testing.T) {
	b, _ := createTestVolume()
	v := mountTestImage(t, createTestImage(t, b))

	tests := []struct {
		path string
		want bool
	}{
		{"docs/plain.txt", false},
		{"docs/inline.txt", true},
		{"docs/blocks.bin", true},
		{"docs/xattr-only", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, err := v.LookupPath(tt.path)
			require.NoError(t, err)
			got, err := v.IsCompressed(rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	root, err := v.GetRoot()
	require.NoError(t, err)
	_, err = v.IsCompressed(root)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompressedFlagWithoutAttribute(t *testing.T) {
	b := hfsplustest.New()
	b.AddFileWithOptions(b.Root(), "broken", hfsplustest.FileOptions{OwnerFlags: types.UFCompressed})
	v := mountTestImage(t, createTestImage(t, b))

	rec, err := v.LookupPath("broken")
	require.NoError(t, err)
	_, err = v.OpenDataFork(rec)
	assert.ErrorIs(t, err, ErrCorruptStructure)

	raw := mountTestImage(t, createTestImage(t, b), WithRawForks())
	s, err := raw.OpenDataFork(rec)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Size())
}

func TestOpenResourceFork(t *testing.T) {
	b, _ := createTestVolume()
	v := mountTestImage(t, createTestImage(t, b))

	rec, err := v.LookupPath("docs/rsrc")
	require.NoError(t, err)

	s, err := v.OpenResourceFork(rec)
	require.NoError(t, err)
	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("resource"), got)

	s, err = v.OpenFork(rec, DataFork)
	require.NoError(t, err)
	got, err = io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestAttributes(t *testing.T) {
	b := hfsplustest.New()
	id := b.AddFile(b.Root(), "tagged", nil)
	b.SetAttribute(id, "com.example.note", []byte("hello"))
	large := createTestPattern(5000)
	b.SetAttribute(id, "com.example.blob", large)
	v := mountTestImage(t, createTestImage(t, b))

	list, err := v.ListAttributes(id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "com.example.blob", list[0].Name())
	assert.Equal(t, "com.example.note", list[1].Name())

	got, err := v.ReadAttribute(id, "com.example.blob")
	require.NoError(t, err)
	assert.Equal(t, large, got)

	rec, err := v.GetAttribute(id, "com.example.note")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []byte("hello"), rec.Data)

	_, err = v.ReadAttribute(id, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogPassThrough(t *testing.T) {
	b, _ := createTestVolume()
	b.VolumeName = "Test"
	v := mountTestImage(t, createTestImage(t, b))

	root, err := v.GetRoot()
	require.NoError(t, err)
	assert.Equal(t, "Test", root.Name())
	assert.Equal(t, RootFolderID, root.ID())

	docs, err := v.GetRecord(RootFolderID, "docs")
	require.NoError(t, err)
	require.NotNil(t, docs)

	children, err := v.ListChildren(docs.ID())
	require.NoError(t, err)
	var names []string
	for _, c := range children {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"blocks.bin", "inline.txt", "plain.txt", "rsrc", "xattr-only"}, names)

	byID, err := v.GetRecordByID(children[2].ID())
	require.NoError(t, err)
	assert.Equal(t, "plain.txt", byID.Name())

	path, err := v.GetPathTo(byID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, "Test", path[0].Name())
	assert.Equal(t, "docs", path[1].Name())
}

// cancelWriter cancels its context after the first write
type cancelWriter struct {
	bytes.Buffer
	cancel context.CancelFunc
	writes int
}

func (cw *cancelWriter) Write(p []byte) (int, error) {
	cw.writes++
	cw.cancel()
	return cw.Buffer.Write(p)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestExtract(t *testing.T) {
	b, contents := createTestVolume()
	img := createTestImage(t, b)

	t.Run("whole file in chunks", func(t *testing.T) {
		v := mountTestImage(t, img, WithChunkSize(1000))
		rec, err := v.LookupPath("docs/blocks.bin")
		require.NoError(t, err)

		var buf bytes.Buffer
		n, err := v.Extract(context.Background(), rec, DataFork, &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(len(contents["blocks.bin"])), n)
		assert.Equal(t, contents["blocks.bin"], buf.Bytes())
	})

	t.Run("cancelled before start", func(t *testing.T) {
		v := mountTestImage(t, img)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var buf bytes.Buffer
		n, err := v.ExtractPath(ctx, "docs/plain.txt", &buf)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int64(0), n)
	})

	t.Run("cancelled between chunks", func(t *testing.T) {
		v := mountTestImage(t, img, WithChunkSize(512))
		ctx, cancel := context.WithCancel(context.Background())
		w := &cancelWriter{cancel: cancel}

		n, err := v.ExtractPath(ctx, "docs/blocks.bin", w)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, w.writes)
		assert.Equal(t, int64(w.Len()), n)
		assert.Less(t, n, int64(len(contents["blocks.bin"])))
	})

	t.Run("writer error", func(t *testing.T) {
		v := mountTestImage(t, img)
		_, err := v.ExtractPath(context.Background(), "docs/plain.txt", failingWriter{})
		assert.EqualError(t, err, "failed to write after 0 bytes: disk full")
	})

	t.Run("missing path", func(t *testing.T) {
		v := mountTestImage(t, img)
		_, err := v.ExtractPath(context.Background(), "docs/nothing", io.Discard)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestVerify(t *testing.T) {
	b, _ := createTestVolume()
	img := createTestImage(t, b)
	v := mountTestImage(t, img)

	report, err := v.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	require.Len(t, report.Trees, 3)

	catalog := report.Trees[1]
	assert.Equal(t, "catalog", catalog.Name)
	assert.True(t, catalog.Present)
	// root, docs and five files, each with a thread
	assert.Equal(t, uint32(14), catalog.Records)
	assert.Equal(t, catalog.Header.LeafRecords, catalog.Records)
	assert.True(t, report.Trees[2].Present)

	vh, err := v.Header()
	require.NoError(t, err)
	hdr := int(vh.CatalogFile.Extents[0].StartBlock)*int(vh.BlockSize) + types.NodeDescriptorSize
	binary.BigEndian.PutUint32(img[hdr+6:], 99)

	report, err = v.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.ErrorIs(t, report.Trees[1].Err, ErrCorruptStructure)
}

func TestVerifyWithoutAttributes(t *testing.T) {
	b := hfsplustest.New()
	b.AddFile(b.Root(), "a", []byte("a"))
	v := mountTestImage(t, createTestImage(t, b))

	report, err := v.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.False(t, report.Trees[2].Present)
	assert.Equal(t, uint32(0), report.Trees[0].Records)
}

func TestDate(t *testing.T) {
	assert.True(t, Date(0).IsZero())
	assert.Equal(t, int64(0), Date(uint32(types.MacEpochOffset)).Unix())
	assert.Equal(t, "2014-07-31", Date(0xD0000000).Format("2006-01-02"))
}

func TestMountWarnsWhenMediumIsShort(t *testing.T) {
	b, _ := createTestVolume()
	img := createTestImage(t, b)

	tests := []struct {
		name     string
		size     int64
		warnings int
	}{
		{"whole volume", int64(len(img)), 0},
		{"missing tail", int64(len(img)) - 512, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			r := bytes.NewReader(img)
			src := mocks.NewMockSizedSource(ctrl)
			src.EXPECT().ReadAt(gomock.Any(), gomock.Any()).DoAndReturn(r.ReadAt).AnyTimes()
			src.EXPECT().Size().Return(tt.size).AnyTimes()

			logger, hook := logtest.NewNullLogger()
			v, err := Mount(src, 0, WithLogger(logger))
			require.NoError(t, err)

			var warnings []string
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.WarnLevel {
					warnings = append(warnings, e.Message)
				}
			}
			assert.Len(t, warnings, tt.warnings)

			root, err := v.GetRoot()
			require.NoError(t, err)
			assert.True(t, root.IsFolder())
		})
	}
}
