package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-hfsplus/internal/disk"
	"github.com/deploymenttheory/go-hfsplus/pkg/hfsplus"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string

	// Image flags, bound to the image configuration
	configFile   string
	volumeOffset int64
	chunkSize    int

	config *viper.Viper
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "hfsplus",
	Short: "Read-only HFS+ and HFSX volume explorer and extractor",
	Long: `hfsplus is a cross-platform, read-only command-line tool for exploring and
extracting HFS+ and HFSX volumes.

Works directly with raw volumes, GPT disk images and HFS wrapped volumes without
mounting or relying on macOS. Compressed files are decompressed transparently.

Commands:
  info        Show the volume header and verify the B-trees
  list        List a folder, optionally recursively
  extract     Extract a file or folder to a local directory
  cat         Write a file's contents to stdout
  xattr       List or print extended attributes`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// An interrupt cancels a running extraction between chunks.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: hfsplus-config.yaml in ., ./config, $HOME/.hfsplus, /etc/hfsplus)")
	rootCmd.PersistentFlags().Int64Var(&volumeOffset, "offset", 0, "byte offset of the volume in the image (disables detection)")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", disk.DefaultImageConfig().ChunkSize, "image cache and extraction chunk size in bytes")

	config = newConfig()
}

// newConfig returns a viper instance with the image flags bound to their config keys
func newConfig() *viper.Viper {
	v := viper.New()
	cobra.CheckErr(v.BindPFlag("default_offset", rootCmd.PersistentFlags().Lookup("offset")))
	cobra.CheckErr(v.BindPFlag("chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size")))
	return v
}

// setup configures logging and validates the global flags before any command runs
func setup(cmd *cobra.Command, args []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	switch {
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}

	switch outputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("unsupported output format %q (table, json)", outputFormat)
	}

	if configFile != "" {
		config.SetConfigFile(configFile)
	}
	if cmd.Flags().Changed("offset") {
		config.Set("auto_detect", false)
	}
	return nil
}

// openVolume opens an image and mounts the HFS+ volume inside it. The caller closes the
// returned image.
func openVolume(path string, opts ...hfsplus.Option) (*hfsplus.Volume, *disk.ImageSource, error) {
	cfg, err := disk.LoadImageConfig(config)
	if err != nil {
		return nil, nil, err
	}

	img, err := disk.OpenImage(path, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]hfsplus.Option{hfsplus.WithLogger(logger), hfsplus.WithChunkSize(cfg.ChunkSize)}, opts...)
	vol, err := hfsplus.Mount(img, img.Offset(), opts...)
	if err != nil {
		img.Close()
		return nil, nil, err
	}
	return vol, img, nil
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}
