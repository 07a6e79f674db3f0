package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

var (
	xattrName string
	xattrHex  bool
)

var xattrCmd = &cobra.Command{
	Use:   "xattr [image-path] [path]",
	Short: "List or print extended attributes",
	Long: `List the extended attributes of a file or folder, or print the value of one.

Examples:
  # List attributes
  hfsplus xattr disk.img /Applications/Calculator.app

  # Print one attribute as a hex dump
  hfsplus xattr disk.img /file --name com.apple.FinderInfo --hex`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runXattr(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(xattrCmd)
	xattrCmd.Flags().StringVarP(&xattrName, "name", "n", "", "print the value of this attribute")
	xattrCmd.Flags().BoolVar(&xattrHex, "hex", false, "print the value as a hex dump")
}

// attrOutput describes one extended attribute
type attrOutput struct {
	Name    string `json:"name"`
	Storage string `json:"storage"`
	Size    uint64 `json:"size"`
}

func runXattr(cmd *cobra.Command, imagePath, source string) error {
	vol, img, err := openVolume(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	rec, err := vol.LookupPath(source)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if xattrName != "" {
		value, err := vol.ReadAttribute(rec.ID(), xattrName)
		if err != nil {
			return err
		}
		if xattrHex {
			_, err = fmt.Fprint(w, hex.Dump(value))
		} else {
			_, err = w.Write(value)
		}
		return err
	}

	attrs, err := vol.ListAttributes(rec.ID())
	if err != nil {
		return err
	}
	out := make([]attrOutput, 0, len(attrs))
	for _, a := range attrs {
		ao := attrOutput{Name: a.Name(), Storage: a.Kind.String(), Size: uint64(len(a.Data))}
		if a.Kind == types.AttrRecordForkData {
			ao.Size = a.Fork.LogicalSize
		}
		out = append(out, ao)
	}

	if outputFormat == "json" {
		return printJSON(w, out)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tSTORAGE\tSIZE")
	for _, a := range out {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", a.Name, a.Storage, a.Size)
	}
	return tw.Flush()
}
