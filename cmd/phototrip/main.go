package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/g4b1nagy/PhotoTrip/pkg/createdat"
	"github.com/g4b1nagy/PhotoTrip/pkg/exiftool"
	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

const version = "0.1.0"

const (
	metadataExiftool = "exiftool"
	metadataExif     = "exif"
)

type options struct {
	verbose         bool
	logLevel        string
	referenceOffset time.Duration
	metadata        string
	exiftool        string
	persistent      bool
	timeout         time.Duration
	workers         int
	json            bool

	logger *zap.Logger
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "phototrip",
		Short:   "A CLI tool to import photos and videos",
		Long:    "PhotoTrip imports photos and videos, deriving when they were taken and with what from their metadata and file names.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zapcore.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			if opts.verbose && level > zapcore.InfoLevel {
				level = zapcore.InfoLevel
			}
			if opts.metadata != metadataExiftool && opts.metadata != metadataExif {
				return fmt.Errorf("invalid --metadata %q: want %q or %q", opts.metadata, metadataExiftool, metadataExif)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), level)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("PhotoTrip CLI")
			cmd.Printf("Version: %s\n", version)
			if opts.verbose {
				cmd.Println("Verbose mode: enabled")
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "minimum log level (debug, info, warn, error)")
	flags.DurationVar(&opts.referenceOffset, "reference-offset", 0, "UTC offset assumed for timestamps without one, e.g. 2h")
	flags.StringVar(&opts.metadata, "metadata", metadataExiftool, "metadata source: exiftool or exif (built-in, JPEG/TIFF only)")
	flags.StringVar(&opts.exiftool, "exiftool", "", "path to the exiftool binary (default: exiftool from PATH)")
	flags.BoolVar(&opts.persistent, "exiftool-persistent", false, "keep exiftool running between files instead of starting it per file")
	flags.DurationVar(&opts.timeout, "timeout", exiftool.DefaultTimeout, "per-file metadata extraction timeout")
	flags.IntVar(&opts.workers, "workers", runtime.NumCPU(), "number of files processed concurrently")
	flags.BoolVar(&opts.json, "json", false, "print JSON output")

	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newParseCmd(opts))
	rootCmd.AddCommand(newExtractCmd(opts))

	return rootCmd
}

func (o *options) timestampOptions() timestamp.Options {
	return timestamp.Options{ReferenceOffset: o.referenceOffset}
}

// metadataSource returns the configured source for files below root, and a
// function releasing it. A nil source selects the built-in EXIF decoder.
func (o *options) metadataSource(root string) (createdat.MetadataSource, func() error, error) {
	if o.metadata == metadataExif {
		return nil, func() error { return nil }, nil
	}
	s, err := exiftool.New(o.logger.Named("exiftool"), exiftool.Options{
		Binary:     o.exiftool,
		Root:       root,
		Timeout:    o.timeout,
		Persistent: o.persistent,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// attributor returns an Attributor for files below root, the directory
// their paths are searched for timestamps from.
func (o *options) attributor(source createdat.MetadataSource, root string) *createdat.Attributor {
	return createdat.New(createdat.Options{
		Logger:    o.logger,
		Timestamp: o.timestampOptions(),
		Metadata:  source,
		Root:      root,
	})
}
