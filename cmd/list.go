package cmd

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsfs"
)

var listRecursive bool

var listCmd = &cobra.Command{
	Use:   "list [image-path] [folder]",
	Short: "List a folder",
	Long: `List the files and folders inside a folder of the volume, the root folder by
default. Sizes of compressed files are their decompressed sizes.

Examples:
  # List the root folder
  hfsplus list disk.img

  # List a folder and everything below it
  hfsplus list disk.img /Users/shared --recursive`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := "/"
		if len(args) == 2 {
			folder = args[1]
		}
		return runList(cmd, args[0], folder)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "recursive listing")
}

func runList(cmd *cobra.Command, imagePath, folder string) error {
	vol, img, err := openVolume(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	entries, err := collectEntries(hfsfs.New(vol), folder, listRecursive)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "MODE\tSIZE\tMODIFIED\tCNID\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", e.Mode, e.Size, e.ModTime, e.CNID, e.Path)
	}
	return tw.Flush()
}

// collectEntries lists folder, or with recursive set everything below it, in walk order
func collectEntries(fs afero.Fs, folder string, recursive bool) ([]entryOutput, error) {
	info, err := fs.Stat(folder)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []entryOutput{newEntryOutput(folder, info)}, nil
	}

	entries := []entryOutput{}
	if !recursive {
		infos, err := afero.ReadDir(fs, folder)
		if err != nil {
			return nil, err
		}
		for _, fi := range infos {
			entries = append(entries, newEntryOutput(path.Join(folder, fi.Name()), fi))
		}
		return entries, nil
	}

	err = afero.Walk(fs, folder, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p != folder {
			entries = append(entries, newEntryOutput(p, fi))
		}
		return nil
	})
	return entries, err
}
