package cmd

import (
	"encoding/json"
	"io"
	"os"
	"text/tabwriter"

	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// entryOutput describes one file or folder in list output
type entryOutput struct {
	Path    string `json:"path"`
	CNID    uint32 `json:"cnid"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Mode    string `json:"mode"`
	ModTime string `json:"mod_time"`
}

func newEntryOutput(path string, info os.FileInfo) entryOutput {
	out := entryOutput{
		Path:    path,
		Type:    "file",
		Size:    info.Size(),
		Mode:    info.Mode().String(),
		ModTime: info.ModTime().Format("2006-01-02 15:04:05"),
	}
	if info.IsDir() {
		out.Type = "folder"
	}
	if rec, ok := info.Sys().(*hfsplus.Record); ok {
		out.CNID = uint32(rec.ID())
	}
	return out
}
