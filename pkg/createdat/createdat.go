package createdat

import (
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/g4b1nagy/PhotoTrip/pkg/exifmeta"
	"github.com/g4b1nagy/PhotoTrip/pkg/pathtime"
	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

// Source describes where a CreatedAt timestamp was derived from.
//
// The priority order is:
//  1. metadata
//  2. filename
//  3. mtime
//  4. unknown
type Source string

const (
	SourceMetadata Source = "metadata"
	SourceFilename Source = "filename"
	SourceMtime    Source = "mtime"
	SourceUnknown  Source = "unknown"
)

// Result contains a best-effort creation timestamp and its source.
type Result struct {
	CreatedAt time.Time `json:"created_at"`
	Source    Source    `json:"source"`
}

// DetailedResult contains all considered timestamps from different sources.
// A zero time means the source had nothing to offer.
type DetailedResult struct {
	// Best is the chosen timestamp using priority: metadata > filename > mtime
	Best Result

	// Metadata is the taken-on time resolved from embedded metadata.
	Metadata time.Time

	// Filename is the timestamp extracted from the path.
	Filename time.Time

	// Filestat is the mtime from filesystem metadata.
	Filestat time.Time

	// Attributes holds everything resolved from the metadata tree.
	Attributes exifmeta.Bundle

	// Tree is the metadata tree the attributes were resolved from.
	Tree exifmeta.Tree
}

// MetadataSource produces the metadata tree of a media file.
//
// Implementations may read the stream or use the name to locate the file
// themselves. A file without metadata yields an empty tree and no error.
// Errors are treated as best-effort failures by Determine.
type MetadataSource interface {
	Metadata(name string, r io.Reader) (exifmeta.Tree, error)
}

// Options configures an Attributor.
type Options struct {
	// Logger receives data-quality events. If nil, nothing is logged.
	Logger *zap.Logger

	// Timestamp holds the reference zone used for timestamps that carry no
	// offset of their own.
	Timestamp timestamp.Options

	// Metadata produces metadata trees.
	//
	// If nil, a built-in EXIF decoder is used.
	Metadata MetadataSource

	// Root is where fsys lives on disk. Names are joined to it before the
	// path is searched for timestamps, so directories above fsys count too.
	Root string
}

// Attributor determines created-at timestamps. It is safe for concurrent use
// if its MetadataSource is.
type Attributor struct {
	metadata  MetadataSource
	resolver  *exifmeta.Resolver
	extractor *pathtime.Extractor
	converter *timestamp.Converter
	root      string
	log       *zap.Logger
}

// New returns an Attributor configured by opts.
func New(opts Options) *Attributor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = exifSource{}
	}
	parser := timestamp.NewParser(logger.Named("timestamp"), opts.Timestamp)
	return &Attributor{
		metadata:  metadata,
		resolver:  exifmeta.NewResolver(logger.Named("exifmeta"), parser),
		extractor: pathtime.NewExtractor(logger.Named("pathtime"), pathtime.Options{Timestamp: opts.Timestamp}),
		converter: timestamp.NewConverter(logger.Named("timestamp"), opts.Timestamp),
		root:      filepath.ToSlash(opts.Root),
		log:       logger,
	}
}

// Determine returns the best-effort created-at timestamp for a path.
func Determine(fsys fs.FS, name string, opts Options) (Result, error) {
	return New(opts).Determine(fsys, name)
}

// DetermineDetailed returns all considered timestamps for a path.
func DetermineDetailed(fsys fs.FS, name string, opts Options) (DetailedResult, error) {
	return New(opts).DetermineDetailed(fsys, name)
}

// Determine returns the best-effort created-at timestamp for a path.
func (a *Attributor) Determine(fsys fs.FS, name string) (Result, error) {
	detailed, err := a.DetermineDetailed(fsys, name)
	if err != nil {
		return Result{}, err
	}
	return detailed.Best, nil
}

// DetermineDetailed returns all considered timestamps for a path.
func (a *Attributor) DetermineDetailed(fsys fs.FS, name string) (DetailedResult, error) {
	name = path.Clean(name)

	info, err := fs.Stat(fsys, name)
	if err != nil {
		return DetailedResult{}, err
	}
	if info.IsDir() {
		return DetailedResult{}, fs.ErrInvalid
	}

	var result DetailedResult

	// Try metadata
	f, err := fsys.Open(name)
	if err != nil {
		return DetailedResult{}, err
	}
	tree, metaErr := a.metadata.Metadata(name, f)
	_ = f.Close()
	if metaErr != nil {
		a.log.Warn("metadata unavailable", zap.String("path", name), zap.Error(metaErr))
		tree = exifmeta.Tree{}
	}
	result.Tree = tree
	result.Attributes = a.resolver.Resolve(tree)
	if result.Attributes.TakenOn != nil {
		result.Metadata = *result.Attributes.TakenOn
	}

	// Try filename
	if createdAt, ok := a.extractor.Extract(a.fullPath(name)); ok {
		result.Filename = createdAt
	}

	// Get mtime
	if mtime := info.ModTime(); !mtime.IsZero() {
		if createdAt, ok := a.converter.FromEpoch(EpochSeconds(mtime)); ok {
			result.Filestat = createdAt
		}
	}

	// Determine best according to priority
	if !result.Metadata.IsZero() {
		result.Best = Result{CreatedAt: result.Metadata, Source: SourceMetadata}
	} else if !result.Filename.IsZero() {
		result.Best = Result{CreatedAt: result.Filename, Source: SourceFilename}
	} else if !result.Filestat.IsZero() {
		result.Best = Result{CreatedAt: result.Filestat, Source: SourceMtime}
	} else {
		result.Best = Result{CreatedAt: time.Time{}, Source: SourceUnknown}
	}

	return result, nil
}

// fullPath joins name to the root. The result always starts with a slash so
// that a year directory at the top still forms a path segment.
func (a *Attributor) fullPath(name string) string {
	p := path.Join(a.root, name)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// EpochSeconds returns t as fractional seconds since the Unix epoch, the
// form stat timestamps are handed to the epoch converter in.
func EpochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
