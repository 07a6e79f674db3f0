package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus/hfsplustest"
)

var packedContents = bytes.Repeat([]byte("packed "), 100)

// createTestImageFile writes a volume image holding:
//
//	/docs/a.txt
//	/docs/packed        compressed, with a com.example.tag attribute
//	/docs/sub/c.txt
//	/forked             data and resource forks
func createTestImageFile(t *testing.T, prefix int) string {
	t.Helper()
	b := hfsplustest.New()
	b.VolumeName = "Test Volume"
	docs := b.AddFolder(b.Root(), "docs")
	b.AddFile(docs, "a.txt", []byte("alpha"))
	packed := b.AddCompressedFile(docs, "packed", hfsplustest.CompressInline(packedContents, false), nil)
	b.SetAttribute(packed, "com.example.tag", []byte("blue"))
	sub := b.AddFolder(docs, "sub")
	b.AddFile(sub, "c.txt", []byte("charlie"))
	b.AddFileWithOptions(b.Root(), "forked", hfsplustest.FileOptions{Data: []byte("data"), Resource: []byte("resource")})

	img, err := b.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "volume.img")
	require.NoError(t, os.WriteFile(path, append(make([]byte, prefix), img...), 0644))
	return path
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// runCommand runs the root command with args and returns what it wrote to stdout.
// Flags are reset first so that tests do not see each other's values.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		resetFlags(c.Flags())
	}
	config = newConfig()
	outputFs = afero.NewMemMapFs()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"info", "list", "extract", "cat", "xattr"} {
		assert.Contains(t, names, want)
	}
}

func TestInfoCommand(t *testing.T) {
	image := createTestImageFile(t, 0)

	out, err := runCommand(t, "info", image)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Volume")
	assert.Contains(t, out, "HFS+ (version 4)")
	assert.Contains(t, out, "catalog")

	out, err = runCommand(t, "info", image, "-o", "json")
	require.NoError(t, err)
	var info infoOutput
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "Test Volume", info.Name)
	assert.Equal(t, uint32(4), info.Files)
	assert.Equal(t, uint32(2), info.Folders)
	assert.True(t, info.Verified)
	assert.Equal(t, "raw", info.OffsetMethod)
	require.Len(t, info.Trees, 3)
	assert.Equal(t, info.Trees[1].LeafRecords, info.Trees[1].Walked)
}

func TestInfoCommandWithOffset(t *testing.T) {
	image := createTestImageFile(t, 8192)

	out, err := runCommand(t, "info", image, "--offset", "8192", "-o", "json", "--skip-verify")
	require.NoError(t, err)
	var info infoOutput
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, int64(8192), info.Offset)
	assert.Equal(t, "configured", info.OffsetMethod)
	assert.Empty(t, info.Trees)
}

func TestListCommand(t *testing.T) {
	image := createTestImageFile(t, 0)

	out, err := runCommand(t, "list", image, "-o", "json")
	require.NoError(t, err)
	var entries []entryOutput
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "/docs", entries[0].Path)
	assert.Equal(t, "folder", entries[0].Type)
	assert.Equal(t, "/forked", entries[1].Path)

	out, err = runCommand(t, "list", image, "/docs", "--recursive", "-o", "json")
	require.NoError(t, err)
	entries = nil
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"/docs/a.txt", "/docs/packed", "/docs/sub", "/docs/sub/c.txt"}, paths)
	assert.Equal(t, int64(len(packedContents)), entries[1].Size)

	out, err = runCommand(t, "list", image, "docs/sub")
	require.NoError(t, err)
	assert.Contains(t, out, "docs/sub/c.txt")
}

func TestCatCommand(t *testing.T) {
	image := createTestImageFile(t, 0)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain", []string{"docs/a.txt"}, "alpha"},
		{"compressed", []string{"docs/packed"}, string(packedContents)},
		{"resource fork", []string{"forked", "--resource"}, "resource"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, append([]string{"cat", image}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := runCommand(t, "cat", image, "docs/missing")
	assert.ErrorIs(t, err, hfsplus.ErrNotFound)
}

func TestExtractCommand(t *testing.T) {
	image := createTestImageFile(t, 0)

	out, err := runCommand(t, "extract", image, "/docs", "--dest", "/out")
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 3 files")

	want := map[string]string{
		"/out/docs/a.txt":     "alpha",
		"/out/docs/packed":    string(packedContents),
		"/out/docs/sub/c.txt": "charlie",
	}
	for path, contents := range want {
		data, err := afero.ReadFile(outputFs, path)
		require.NoError(t, err, path)
		assert.Equal(t, contents, string(data), path)
	}

	_, err = runCommand(t, "extract", image, "docs/packed", "--raw", "--dest", "/raw")
	require.NoError(t, err)
	data, err := afero.ReadFile(outputFs, "/raw/packed")
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = runCommand(t, "extract", image, "forked", "--resource", "--dest", "/rsrc")
	require.NoError(t, err)
	data, err = afero.ReadFile(outputFs, "/rsrc/forked")
	require.NoError(t, err)
	assert.Equal(t, "resource", string(data))
}

func TestXattrCommand(t *testing.T) {
	image := createTestImageFile(t, 0)

	out, err := runCommand(t, "xattr", image, "docs/packed", "-o", "json")
	require.NoError(t, err)
	var attrs []attrOutput
	require.NoError(t, json.Unmarshal([]byte(out), &attrs))
	require.Len(t, attrs, 2)
	assert.Equal(t, "com.apple.decmpfs", attrs[0].Name)
	assert.Equal(t, "inline", attrs[0].Storage)
	assert.Equal(t, "com.example.tag", attrs[1].Name)
	assert.Equal(t, uint64(4), attrs[1].Size)

	out, err = runCommand(t, "xattr", image, "docs/packed", "--name", "com.example.tag")
	require.NoError(t, err)
	assert.Equal(t, "blue", out)

	out, err = runCommand(t, "xattr", image, "docs/packed", "--name", "com.example.tag", "--hex")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "00000000  62 6c 75 65"))
}

func TestInvalidOutputFormat(t *testing.T) {
	image := createTestImageFile(t, 0)
	_, err := runCommand(t, "list", image, "-o", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

// writeTestImage writes the image described by b to a temporary file
func writeTestImage(t *testing.T, b *hfsplustest.Builder) string {
	t.Helper()
	img, err := b.Build()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "volume.img")
	require.NoError(t, os.WriteFile(path, img, 0644))
	return path
}

func TestExtractCommandKeepsEntriesInsideDest(t *testing.T) {
	b := hfsplustest.New()
	docs := b.AddFolder(b.Root(), "docs")
	b.AddFile(docs, "../../escaped.txt", []byte("slashes"))
	b.AddFile(docs, "a/b", []byte("nested"))
	image := writeTestImage(t, b)

	_, err := runCommand(t, "extract", image, "/docs", "--dest", "/out/dest")
	require.NoError(t, err)

	data, err := afero.ReadFile(outputFs, "/out/dest/docs/..:..:escaped.txt")
	require.NoError(t, err)
	assert.Equal(t, "slashes", string(data))
	data, err = afero.ReadFile(outputFs, "/out/dest/docs/a:b")
	require.NoError(t, err)
	assert.Equal(t, "nested", string(data))

	var outside []string
	require.NoError(t, afero.Walk(outputFs, "/", func(p string, fi os.FileInfo, err error) error {
		if err == nil && !fi.IsDir() && !strings.HasPrefix(p, "/out/dest/") {
			outside = append(outside, p)
		}
		return err
	}))
	assert.Empty(t, outside)
}

func TestExtractCommandRejectsDotNames(t *testing.T) {
	for _, name := range []string{"..", "."} {
		t.Run(name, func(t *testing.T) {
			b := hfsplustest.New()
			docs := b.AddFolder(b.Root(), "docs")
			b.AddFile(docs, name, []byte("dot"))
			image := writeTestImage(t, b)

			_, err := runCommand(t, "extract", image, "/docs", "--dest", "/out/dest")
			assert.ErrorIs(t, err, hfsplus.ErrCorruptStructure)

			var files []string
			require.NoError(t, afero.Walk(outputFs, "/", func(p string, fi os.FileInfo, err error) error {
				if err == nil && !fi.IsDir() {
					files = append(files, p)
				}
				return err
			}))
			assert.Empty(t, files)
		})
	}
}

func TestInfoCommandWithConfigFile(t *testing.T) {
	image := createTestImageFile(t, 4096)
	configPath := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("auto_detect: false\ndefault_offset: 4096\n"), 0644))

	out, err := runCommand(t, "info", image, "--config", configPath, "-o", "json", "--skip-verify")
	require.NoError(t, err)
	var info infoOutput
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "Test Volume", info.Name)
	assert.Equal(t, int64(4096), info.Offset)
	assert.Equal(t, "configured", info.OffsetMethod)
	assert.Equal(t, configPath, config.ConfigFileUsed())
}
