package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

var catResource bool

var catCmd = &cobra.Command{
	Use:   "cat [image-path] [path]",
	Short: "Write a file's contents to stdout",
	Long: `Write the contents of a file to stdout. Compressed files are decompressed.

Examples:
  hfsplus cat disk.img /etc/hosts
  hfsplus cat disk.img /Icon --resource > icon.rsrc`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCat(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().BoolVar(&catResource, "resource", false, "write the resource fork instead of the data fork")
}

func runCat(cmd *cobra.Command, imagePath, source string) error {
	vol, img, err := openVolume(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	rec, err := vol.LookupPath(source)
	if err != nil {
		return err
	}
	fork := hfsplus.DataFork
	if catResource {
		fork = hfsplus.ResourceFork
	}
	_, err = vol.Extract(cmd.Context(), rec, fork, cmd.OutOrStdout())
	return err
}
