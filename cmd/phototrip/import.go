package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/g4b1nagy/PhotoTrip/pkg/createdat"
	"github.com/g4b1nagy/PhotoTrip/pkg/photo"
	"github.com/g4b1nagy/PhotoTrip/pkg/scan"
	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

var errNoFiles = errors.New("no files found")

// target is a path given on the command line, split into the directory
// served as a file system and the root inside it. abs is dir made absolute.
type target struct {
	dir  string
	abs  string
	root string
	fsys fs.FS
}

func resolveTarget(p string) (target, error) {
	info, err := os.Stat(p)
	if err != nil {
		return target{}, fmt.Errorf("path does not exist: %s: %w", p, err)
	}

	var t target
	switch {
	case info.IsDir():
		t = target{dir: p, root: "."}
	case info.Mode().IsRegular():
		t = target{dir: filepath.Dir(p), root: filepath.Base(p)}
	default:
		return target{}, fmt.Errorf("path is neither a directory nor a file: %s", p)
	}

	if t.abs, err = filepath.Abs(t.dir); err != nil {
		return target{}, err
	}
	t.fsys = os.DirFS(t.dir)
	return t, nil
}

func (t target) path(rel string) string {
	return filepath.Join(t.dir, filepath.FromSlash(rel))
}

func newImportCmd(opts *options) *cobra.Command {
	var (
		mediaOnly    bool
		withMetadata bool
	)

	importCmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import photos from a directory or a single file",
		Long: "Import every file below a directory, or a single file, and print one JSON record per file " +
			"with its type, dimensions, capture time, location, camera and lens.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := resolveTarget(args[0])
			if err != nil {
				return err
			}

			scanOpts := scan.DefaultOptions()
			scanOpts.AllFiles = !mediaOnly
			files, err := scan.ScanRecords(t.fsys, t.root, scanOpts)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("%w at: %s", errNoFiles, args[0])
			}

			source, closeSource, err := opts.metadataSource(t.dir)
			if err != nil {
				return err
			}
			defer closeSource()

			records, failed := importFiles(opts, t, files, source)
			if !withMetadata {
				for i := range records {
					if records[i] != nil {
						records[i].Metadata = nil
					}
				}
			}

			if err := writeJSONLines(cmd.OutOrStdout(), records); err != nil {
				return err
			}

			if opts.verbose {
				cmd.PrintErrf("imported %d of %d files\n", len(files)-failed, len(files))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be imported", failed, len(files))
			}
			return nil
		},
	}

	importCmd.Flags().BoolVar(&mediaOnly, "media-only", false, "only import files with a photo or video extension")
	importCmd.Flags().BoolVar(&withMetadata, "with-metadata", false, "include the full metadata tree in each record")

	return importCmd
}

// importFiles resolves every file independently, at most opts.workers at a
// time. Records keep the order of files; failed files leave a nil record.
func importFiles(opts *options, t target, files []scan.Record, source createdat.MetadataSource) ([]*photo.Record, int) {
	attributor := opts.attributor(source, t.abs)
	builder := photo.NewBuilder(opts.logger.Named("stat"), opts.timestampOptions())

	records := make([]*photo.Record, len(files))
	failures := make([]bool, len(files))

	var g errgroup.Group
	if opts.workers > 0 {
		g.SetLimit(opts.workers)
	}
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			p := t.path(file.Path)
			log := opts.logger.With(zap.String("path", p))
			log.Info("processing")

			detailed, err := attributor.DetermineDetailed(t.fsys, file.Path)
			if err != nil {
				log.Error("import failed", zap.Error(err))
				failures[i] = true
				return nil
			}
			r := builder.Build(p, file, detailed)
			records[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return records, failed
}

func writeJSONLines(w io.Writer, records []*photo.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if r == nil {
			continue
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show what would be imported for one file",
		Long:  "Show the attributes resolved for one file and every created-at candidate that was considered.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := resolveTarget(args[0])
			if err != nil {
				return err
			}
			if t.root == "." {
				return fmt.Errorf("not a file: %s", args[0])
			}

			files, err := scan.ScanRecords(t.fsys, t.root, scan.DefaultOptions())
			if err != nil {
				return err
			}
			file := files[0]

			source, closeSource, err := opts.metadataSource(t.dir)
			if err != nil {
				return err
			}
			defer closeSource()

			detailed, err := opts.attributor(source, t.abs).DetermineDetailed(t.fsys, file.Path)
			if err != nil {
				return err
			}
			r := photo.NewBuilder(opts.logger.Named("stat"), opts.timestampOptions()).Build(t.path(file.Path), file, detailed)

			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			printInspect(cmd, r, detailed)
			return nil
		},
	}
}

func printInspect(cmd *cobra.Command, r photo.Record, detailed createdat.DetailedResult) {
	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		cmd.Printf("%-14s %s\n", label+":", value)
	}
	instant := func(i *photo.Instant) string {
		if i == nil {
			return ""
		}
		return timestamp.Format(time.Time(*i))
	}
	candidate := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return timestamp.Format(t)
	}

	row("File", r.FilePath)
	row("Size", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(r.FileSize)), r.FileSize))
	row("Type", strings.TrimSpace(r.FileType+" "+r.MIMEType))
	if r.ImageWidth != nil {
		row("Dimensions", fmt.Sprintf("%dx%d", *r.ImageWidth, *r.ImageHeight))
	} else {
		row("Dimensions", "")
	}
	if r.Megapixels != nil {
		row("Megapixels", humanize.FtoaWithDigits(*r.Megapixels, 1))
	} else {
		row("Megapixels", "")
	}
	row("Taken on", instant(r.TakenOn))
	if r.GPSLatitude != nil {
		pos := fmt.Sprintf("%.6f, %.6f", *r.GPSLatitude, *r.GPSLongitude)
		if r.GPSAltitude != nil {
			pos += fmt.Sprintf(" (%s m)", humanize.FtoaWithDigits(*r.GPSAltitude, 1))
		}
		row("GPS", pos)
	} else {
		row("GPS", "")
	}
	if r.Camera != nil {
		row("Camera", strings.Join(nonEmpty(r.Camera.Make, r.Camera.Model, r.Camera.SerialNumber), " / "))
	} else {
		row("Camera", "")
	}
	if r.Lens != nil {
		row("Lens", strings.Join(nonEmpty(r.Lens.Make, r.Lens.Name, r.Lens.SerialNumber, string(r.Lens.Position)), " / "))
	} else {
		row("Lens", "")
	}
	row("Modified", instant(r.FileMtime))
	row("Created", fmt.Sprintf("%s (%s)", instant(r.Created.At), r.Created.Source))
	row("  metadata", candidate(detailed.Metadata))
	row("  filename", candidate(detailed.Filename))
	row("  mtime", candidate(detailed.Filestat))
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
