package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hfsplus/internal/disk"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

var infoSkipVerify bool

var infoCmd = &cobra.Command{
	Use:   "info [image-path]",
	Short: "Show the volume header and verify the B-trees",
	Long: `Show the volume header, the headers of the catalog, extents overflow and
attributes B-trees, and the result of walking every tree.

Examples:
  # Inspect a raw volume or disk image
  hfsplus info disk.img

  # Inspect a volume at a known offset, as JSON
  hfsplus info disk.img --offset 20480 -o json`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoSkipVerify, "skip-verify", false, "do not walk the B-trees")
}

// treeOutput summarizes one B-tree
type treeOutput struct {
	Name        string `json:"name"`
	Present     bool   `json:"present"`
	Depth       uint16 `json:"depth"`
	RootNode    uint32 `json:"root_node"`
	NodeSize    uint16 `json:"node_size"`
	TotalNodes  uint32 `json:"total_nodes"`
	LeafRecords uint32 `json:"leaf_records"`
	Walked      uint32 `json:"walked_records"`
	Error       string `json:"error,omitempty"`
}

// infoOutput is the result of the info command
type infoOutput struct {
	Name          string       `json:"name"`
	Format        string       `json:"format"`
	Version       uint16       `json:"version"`
	BlockSize     uint32       `json:"block_size"`
	TotalBlocks   uint32       `json:"total_blocks"`
	FreeBlocks    uint32       `json:"free_blocks"`
	Files         uint32       `json:"files"`
	Folders       uint32       `json:"folders"`
	NextCatalogID uint32       `json:"next_catalog_id"`
	Journaled     bool         `json:"journaled"`
	Unmounted     bool         `json:"cleanly_unmounted"`
	Created       string       `json:"created"`
	Modified      string       `json:"modified"`
	Trees         []treeOutput `json:"trees,omitempty"`
	Verified      bool         `json:"verified"`
	Offset        int64        `json:"offset"`
	OffsetMethod  string       `json:"offset_method"`
	ChunksRead    int64        `json:"chunks_read"`
	CacheHitRate  float64      `json:"cache_hit_rate"`
}

func runInfo(cmd *cobra.Command, imagePath string) error {
	vol, img, err := openVolume(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	out, err := collectInfo(cmd, vol, img)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		printInfo(cmd.OutOrStdout(), out)
	}
	if !infoSkipVerify && !out.Verified {
		return fmt.Errorf("volume failed verification: %w", hfsplus.ErrCorruptStructure)
	}
	return nil
}

func collectInfo(cmd *cobra.Command, vol *hfsplus.Volume, img *disk.ImageSource) (*infoOutput, error) {
	vh, err := vol.Header()
	if err != nil {
		return nil, err
	}
	root, err := vol.GetRoot()
	if err != nil {
		return nil, err
	}

	out := &infoOutput{
		Name:          root.Name(),
		Format:        "HFS+",
		Version:       vh.Version,
		BlockSize:     vh.BlockSize,
		TotalBlocks:   vh.TotalBlocks,
		FreeBlocks:    vh.FreeBlocks,
		Files:         vh.FileCount,
		Folders:       vh.FolderCount,
		NextCatalogID: uint32(vh.NextCatalogID),
		Journaled:     vh.IsJournaled(),
		Unmounted:     vh.IsUnmounted(),
		Created:       hfsplus.Date(vh.CreateDate).Format("2006-01-02 15:04:05"),
		Modified:      hfsplus.Date(vh.ModifyDate).Format("2006-01-02 15:04:05"),
		Verified:      true,
	}
	if vh.IsHFSX() {
		out.Format = "HFSX"
	}

	if !infoSkipVerify {
		report, err := vol.Verify(cmd.Context())
		if err != nil {
			return nil, err
		}
		out.Verified = report.OK()
		for _, t := range report.Trees {
			to := treeOutput{
				Name:        t.Name,
				Present:     t.Present,
				Depth:       t.Header.TreeDepth,
				RootNode:    t.Header.RootNode,
				NodeSize:    t.Header.NodeSize,
				TotalNodes:  t.Header.TotalNodes,
				LeafRecords: t.Header.LeafRecords,
				Walked:      t.Records,
			}
			if t.Err != nil {
				to.Error = t.Err.Error()
			}
			out.Trees = append(out.Trees, to)
		}
	}

	stats := img.Stats()
	out.Offset = img.Offset()
	out.OffsetMethod = stats.OffsetMethod
	out.ChunksRead = stats.ChunksRead
	out.CacheHitRate = img.CacheHitRate()
	return out, nil
}

func printInfo(w io.Writer, out *infoOutput) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Volume:\t%s\n", out.Name)
	fmt.Fprintf(tw, "Format:\t%s (version %d)\n", out.Format, out.Version)
	fmt.Fprintf(tw, "Block size:\t%d\n", out.BlockSize)
	fmt.Fprintf(tw, "Blocks:\t%d total, %d free\n", out.TotalBlocks, out.FreeBlocks)
	fmt.Fprintf(tw, "Files:\t%d\n", out.Files)
	fmt.Fprintf(tw, "Folders:\t%d\n", out.Folders)
	fmt.Fprintf(tw, "Next CNID:\t%d\n", out.NextCatalogID)
	fmt.Fprintf(tw, "Journaled:\t%t\n", out.Journaled)
	fmt.Fprintf(tw, "Cleanly unmounted:\t%t\n", out.Unmounted)
	fmt.Fprintf(tw, "Created:\t%s\n", out.Created)
	fmt.Fprintf(tw, "Modified:\t%s\n", out.Modified)
	fmt.Fprintf(tw, "Offset:\t%d (%s)\n", out.Offset, out.OffsetMethod)
	tw.Flush()

	if len(out.Trees) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "TREE\tDEPTH\tROOT\tNODE SIZE\tNODES\tRECORDS\tSTATUS")
	for _, t := range out.Trees {
		if !t.Present {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\tabsent\n", t.Name)
			continue
		}
		status := "ok"
		if t.Error != "" {
			status = t.Error
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n", t.Name, t.Depth, t.RootNode, t.NodeSize, t.TotalNodes, t.Walked, status)
	}
	tw.Flush()
}
