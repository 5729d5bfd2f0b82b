// Package exiftool runs the exiftool binary to obtain metadata trees.
package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goexiftool "github.com/barasher/go-exiftool"
	"go.uber.org/zap"

	"github.com/g4b1nagy/PhotoTrip/pkg/exifmeta"
)

// DefaultTimeout bounds a single extraction.
const DefaultTimeout = 5 * time.Second

// waitDelay bounds how long a killed exiftool may keep its output open.
const waitDelay = time.Second

var (
	// ErrExtraction is returned when exiftool reports a failure for a file.
	ErrExtraction = errors.New("exiftool extraction failed")

	// ErrClosed is returned by extractions started after Close.
	ErrClosed = errors.New("exiftool source closed")
)

// args match the invocation the importer has always used: groups as
// nested objects, and both printed and numeric values per tag.
var args = []string{"-groupHeadings", "-json", "-long", "-sort"}

// Options configures a Source.
type Options struct {
	// Binary is the exiftool executable. Empty means "exiftool" from PATH.
	Binary string

	// Root is joined with relative names passed to Metadata.
	Root string

	// Timeout bounds each extraction. Zero means DefaultTimeout.
	Timeout time.Duration

	// Persistent keeps exiftool processes running between files instead of
	// starting one process per file. A persistent process cannot be
	// interrupted: when it misses the timeout it is abandoned, replaced on
	// the next call and closed once its pending request returns.
	Persistent bool
}

// Source extracts metadata with exiftool. By default every file gets its
// own exiftool process, which is killed when it exceeds the timeout.
type Source struct {
	binary     string
	root       string
	timeout    time.Duration
	persistent bool
	log        *zap.Logger

	mu     sync.Mutex
	idle   []*pair
	closed bool
}

// New checks that exiftool can be started. Close must be called to stop any
// processes kept for reuse.
func New(logger *zap.Logger, opts Options) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	binary := opts.Binary
	if binary == "" {
		binary = "exiftool"
	}

	s := &Source{
		binary:     binary,
		root:       opts.Root,
		timeout:    timeout,
		persistent: opts.Persistent,
		log:        logger,
	}

	if !s.persistent {
		if _, err := exec.LookPath(binary); err != nil {
			return nil, fmt.Errorf("start exiftool: %w", err)
		}
		return s, nil
	}

	p, err := s.start()
	if err != nil {
		return nil, err
	}
	s.idle = append(s.idle, p)
	return s, nil
}

// Close stops the idle exiftool processes. Extractions still running are
// not waited for; their processes are stopped when they return.
func (s *Source) Close() error {
	s.mu.Lock()
	idle := s.idle
	s.idle, s.closed = nil, true
	s.mu.Unlock()

	var errs []error
	for _, p := range idle {
		errs = append(errs, p.close())
	}
	return errors.Join(errs...)
}

// Metadata returns the tree for name, resolved against the configured root.
// The reader is not used; exiftool reads the file itself.
func (s *Source) Metadata(name string, _ io.Reader) (exifmeta.Tree, error) {
	path := name
	if s.root != "" && !filepath.IsAbs(name) {
		path = filepath.Join(s.root, filepath.FromSlash(name))
	}
	return s.Extract(context.Background(), path)
}

// Extract returns the metadata tree for the file at path. It fails if the
// extraction takes longer than the configured timeout or ctx is done first.
func (s *Source) Extract(ctx context.Context, path string) (exifmeta.Tree, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		tree exifmeta.Tree
		err  error
	)
	if s.persistent {
		tree, err = s.extractPersistent(ctx, path)
	} else {
		tree, err = s.run(ctx, path)
	}
	if err != nil {
		if ctx.Err() != nil {
			s.log.Error("exiftool did not answer in time",
				zap.String("path", path),
				zap.Duration("timeout", s.timeout))
		}
		return nil, err
	}

	if err := s.diagnostics(path, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// run starts one exiftool process for path. Anything exiftool prints on
// stderr is a failure.
func (s *Source) run(ctx context.Context, path string) (exifmeta.Tree, error) {
	cmd := exec.CommandContext(ctx, s.binary, append(args[:len(args):len(args)], path)...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return nil, fmt.Errorf("extract %s: %w: %s", path, ErrExtraction, msg)
	}

	trees, err := exifmeta.Decode(&stdout)
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("extract %s: %w", path, runErr)
		}
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	if len(trees) != 1 {
		return nil, fmt.Errorf("extract %s: %w: %d results", path, ErrExtraction, len(trees))
	}

	// A failing exit status comes with an ExifTool:Error record, reported
	// by diagnostics.
	if _, ok := trees[0].Lookup("ExifTool", "Error"); !ok && runErr != nil {
		return nil, fmt.Errorf("extract %s: %w", path, runErr)
	}
	return trees[0], nil
}

// diagnostics fails on an exiftool error record and logs warnings.
func (s *Source) diagnostics(path string, tree exifmeta.Tree) error {
	if rec, ok := tree.Lookup("ExifTool", "Error"); ok {
		msg, _ := rec.Text()
		return fmt.Errorf("extract %s: %w: %s", path, ErrExtraction, msg)
	}
	if rec, ok := tree.Lookup("ExifTool", "Warning"); ok {
		msg, _ := rec.Text()
		s.log.Warn("exiftool warning", zap.String("path", path), zap.String("warning", msg))
	}
	return nil
}

type result struct {
	tree exifmeta.Tree
	err  error
}

func (s *Source) extractPersistent(ctx context.Context, path string) (exifmeta.Tree, error) {
	p, err := s.acquire()
	if err != nil {
		return nil, err
	}

	done := make(chan result, 1)
	go func() {
		tree, err := p.extract(path)
		done <- result{tree, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && !errors.Is(r.err, goexiftool.ErrNotExist) && !errors.Is(r.err, goexiftool.ErrNotFile) {
			// The processes may have died; start fresh ones next time.
			s.discard(p)
		} else {
			s.release(p)
		}
		return r.tree, r.err
	case <-ctx.Done():
		go func() {
			<-done
			s.discard(p)
		}()
		return nil, fmt.Errorf("extract %s: %w", path, ctx.Err())
	}
}

// acquire hands out an idle pair, or starts a new one. A pair serves one
// request at a time.
func (s *Source) acquire() (*pair, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if n := len(s.idle); n > 0 {
		p := s.idle[n-1]
		s.idle = s.idle[:n-1]
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()
	return s.start()
}

func (s *Source) release(p *pair) {
	s.mu.Lock()
	if !s.closed {
		s.idle = append(s.idle, p)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.discard(p)
}

func (s *Source) discard(p *pair) {
	if err := p.close(); err != nil {
		s.log.Warn("could not stop exiftool", zap.Error(err))
	}
}

// pair is two long-running exiftool processes: one printing converted
// values and one printing raw numbers. Together they produce the val and
// num fields of each record.
type pair struct {
	val *goexiftool.Exiftool
	num *goexiftool.Exiftool
}

func (s *Source) start() (*pair, error) {
	binary, err := exec.LookPath(s.binary)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	common := []func(*goexiftool.Exiftool) error{
		goexiftool.PrintGroupNames("0"),
		goexiftool.SetExiftoolBinaryPath(binary),
	}

	val, err := goexiftool.NewExiftool(common...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	num, err := goexiftool.NewExiftool(append(common, goexiftool.NoPrintConversion())...)
	if err != nil {
		_ = val.Close()
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &pair{val: val, num: num}, nil
}

func (p *pair) close() error {
	return errors.Join(p.val.Close(), p.num.Close())
}

func (p *pair) extract(path string) (exifmeta.Tree, error) {
	val, err := single(p.val.ExtractMetadata(path))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	num, err := single(p.num.ExtractMetadata(path))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return treeFromFields(val, num), nil
}

func single(files []goexiftool.FileMetadata) (map[string]interface{}, error) {
	if len(files) != 1 {
		return nil, fmt.Errorf("%w: %d results", ErrExtraction, len(files))
	}
	if files[0].Err != nil {
		return nil, files[0].Err
	}
	return files[0].Fields, nil
}

// treeFromFields merges group-prefixed fields ("EXIF:Make") from the
// converted and the numeric run into one tree. Keys without a group, such as
// SourceFile, are dropped.
func treeFromFields(val, num map[string]interface{}) exifmeta.Tree {
	tree := exifmeta.Tree{}
	for key, v := range val {
		group, tag, ok := strings.Cut(key, ":")
		if !ok {
			continue
		}
		rec := exifmeta.Record{Val: v}
		if n, ok := num[key]; ok {
			rec.Num = n
		}
		tree.Set(group, tag, rec)
	}
	for key, n := range num {
		if _, ok := val[key]; ok {
			continue
		}
		group, tag, ok := strings.Cut(key, ":")
		if !ok {
			continue
		}
		tree.Set(group, tag, exifmeta.Record{Num: n})
	}
	return tree
}
