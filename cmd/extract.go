package cmd

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

var (
	extractDest     string
	extractResource bool
	extractRaw      bool

	// outputFs receives extracted files
	outputFs = afero.NewOsFs()
)

var extractCmd = &cobra.Command{
	Use:   "extract [image-path] [path]",
	Short: "Extract a file or folder",
	Long: `Extract a file, or a folder and everything below it, into a local directory.
Compressed files are decompressed unless --raw is given.

Examples:
  # Extract one file into the current directory
  hfsplus extract disk.img /Users/shared/notes.txt

  # Extract a folder
  hfsplus extract disk.img /Library/Fonts --dest ./fonts

  # Extract the resource fork of a file
  hfsplus extract disk.img /Icon --resource --dest ./forks`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractDest, "dest", "d", ".", "destination directory")
	extractCmd.Flags().BoolVar(&extractResource, "resource", false, "extract resource forks instead of data forks")
	extractCmd.Flags().BoolVar(&extractRaw, "raw", false, "extract compressed files as stored, without decompressing")
}

func runExtract(cmd *cobra.Command, imagePath, source string) error {
	var opts []hfsplus.Option
	if extractRaw {
		opts = append(opts, hfsplus.WithRawForks())
	}
	vol, img, err := openVolume(imagePath, opts...)
	if err != nil {
		return err
	}
	defer img.Close()

	rec, err := vol.LookupPath(source)
	if err != nil {
		return err
	}

	fork := hfsplus.DataFork
	if extractResource {
		fork = hfsplus.ResourceFork
	}

	name := path.Base(path.Clean("/" + source))
	if rec.ID() == hfsplus.RootFolderID {
		name = rec.Name()
		if name == "" {
			name = "volume"
		}
	}

	x := &extractor{ctx: cmd.Context(), vol: vol, fork: fork, root: extractDest}
	dest, err := x.join(extractDest, name)
	if err != nil {
		return err
	}
	if err := x.extract(rec, dest); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d files (%d bytes) to %s\n", x.files, x.bytes, extractDest)
	}
	return nil
}

// extractor copies records from a volume to outputFs. Every path it writes stays
// below root.
type extractor struct {
	ctx   context.Context
	vol   *hfsplus.Volume
	fork  hfsplus.Fork
	root  string
	files int
	bytes int64
}

// localName maps a catalog name to a single local path element. HFS+ names may hold
// '/', which macOS shows as ':'. Names that cannot be a path element are rejected.
func localName(name string) (string, error) {
	local := strings.ReplaceAll(name, "/", ":")
	if filepath.Separator != '/' {
		local = strings.ReplaceAll(local, string(filepath.Separator), ":")
	}
	switch local {
	case "", ".", "..":
		return "", fmt.Errorf("refusing to extract entry named %q: %w", name, hfsplus.ErrCorruptStructure)
	}
	return local, nil
}

// join appends a catalog name to dir and checks the result is still below the root
func (x *extractor) join(dir, name string) (string, error) {
	local, err := localName(name)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, local)
	rel, err := filepath.Rel(x.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q resolves outside %s: %w", name, x.root, hfsplus.ErrCorruptStructure)
	}
	return p, nil
}

func (x *extractor) extract(rec *hfsplus.Record, dest string) error {
	if rec.IsFolder() {
		if err := outputFs.MkdirAll(dest, 0755); err != nil {
			return err
		}
		children, err := x.vol.ListChildren(rec.ID())
		if err != nil {
			return err
		}
		for _, child := range children {
			p, err := x.join(dest, child.Name())
			if err != nil {
				return err
			}
			if err := x.extract(child, p); err != nil {
				return err
			}
		}
		return nil
	}

	if err := outputFs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	f, err := outputFs.Create(dest)
	if err != nil {
		return err
	}
	n, err := x.vol.Extract(x.ctx, rec, x.fork, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", dest, err)
	}

	logger.Debugf("[EXTRACT] %s: %d bytes", dest, n)
	x.files++
	x.bytes += n
	return nil
}
