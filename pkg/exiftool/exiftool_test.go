package exiftool

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/g4b1nagy/PhotoTrip/pkg/exifmeta"
)

func TestTreeFromFields(t *testing.T) {
	val := map[string]interface{}{
		"SourceFile":            "/photos/a.jpg",
		"EXIF:Make":             "Canon",
		"Composite:ImageSize":   "6000x4000",
		"Composite:GPSAltitude": "12.3 m Below Sea Level",
	}
	num := map[string]interface{}{
		"SourceFile":            "/photos/a.jpg",
		"EXIF:Make":             "Canon",
		"Composite:ImageSize":   "6000 4000",
		"Composite:GPSAltitude": -12.3,
		"EXIF:GPSAltitudeRef":   float64(1),
	}

	tree := treeFromFields(val, num)

	if _, ok := tree["SourceFile"]; ok {
		t.Fatal("SourceFile must not become a group")
	}
	size, ok := tree.Lookup("Composite", "ImageSize")
	if !ok {
		t.Fatal("expected Composite:ImageSize")
	}
	if size.Val != "6000x4000" || size.Num != "6000 4000" {
		t.Fatalf("unexpected record: %+v", size)
	}
	alt, _ := tree.Lookup("Composite", "GPSAltitude")
	if f, ok := alt.Number(); !ok || f != -12.3 {
		t.Fatalf("unexpected altitude\n got: %v\nwant: %v", f, -12.3)
	}
	ref, ok := tree.Lookup("EXIF", "GPSAltitudeRef")
	if !ok || ref.Val != nil || ref.Num != float64(1) {
		t.Fatalf("unexpected numeric-only record: %+v", ref)
	}

	b := exifmeta.NewResolver(nil, nil).Resolve(tree)
	if b.Dimensions == nil || b.Dimensions.Width != 6000 || b.Dimensions.Height != 4000 {
		t.Fatalf("unexpected dimensions: %+v", b.Dimensions)
	}
	if b.Camera.Make != "Canon" {
		t.Fatalf("unexpected make\n got: %q\nwant: %q", b.Camera.Make, "Canon")
	}
}

func TestExtract(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	s, err := New(zaptest.NewLogger(t), Options{Root: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	tree, err := s.Metadata("note.txt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := exifmeta.NewResolver(nil, nil).MIMEType(tree); got != "text/plain" {
		t.Fatalf("unexpected mime type\n got: %q\nwant: %q", got, "text/plain")
	}

	if _, err := s.Extract(context.Background(), filepath.Join(dir, "missing.jpg")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

// fakeExiftool writes an executable shell script standing in for exiftool.
func fakeExiftool(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "exiftool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func writePhoto(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestExtractPerFile(t *testing.T) {
	testCases := []struct {
		name     string
		script   string
		wantErr  error
		wantMIME string
	}{
		{
			name:     "grouped output",
			script:   `printf '[{"SourceFile":"a.jpg","File":{"MIMEType":{"desc":"MIME Type","val":"image/jpeg"}}}]'`,
			wantMIME: "image/jpeg",
		},
		{
			name:    "error record with failing status",
			script:  `printf '[{"SourceFile":"a.jpg","ExifTool":{"Error":{"val":"File format error"}}}]'; exit 1`,
			wantErr: ErrExtraction,
		},
		{
			name:    "diagnostics on stderr",
			script:  `printf '[{"SourceFile":"a.jpg"}]'; echo 'Warning: bad IFD' >&2`,
			wantErr: ErrExtraction,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(zaptest.NewLogger(t), Options{Binary: fakeExiftool(t, tc.script)})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer s.Close()

			tree, err := s.Extract(context.Background(), writePhoto(t))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("unexpected error\n got: %v\nwant: %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got, _ := exifmeta.NewResolver(nil, nil).MIMEType(tree); got != tc.wantMIME {
				t.Fatalf("unexpected mime type\n got: %q\nwant: %q", got, tc.wantMIME)
			}
		})
	}
}

func TestExtractLogsWarnings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bin := fakeExiftool(t, `printf '[{"SourceFile":"a.jpg","ExifTool":{"Warning":{"val":"Truncated file"}}}]'`)

	s, err := New(zap.New(core), Options{Binary: bin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, err := s.Extract(context.Background(), writePhoto(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := logs.FilterMessage("exiftool warning").All()
	if len(entries) != 1 || entries[0].ContextMap()["warning"] != "Truncated file" {
		t.Fatalf("unexpected log entries: %+v", logs.All())
	}
}

func TestExtractTimeoutKillsExiftool(t *testing.T) {
	bin := fakeExiftool(t, "exec sleep 30")
	photo := writePhoto(t)

	s, err := New(zaptest.NewLogger(t), Options{Binary: bin, Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		start := time.Now()
		_, err := s.Extract(context.Background(), photo)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("unexpected error\n got: %v\nwant: %v", err, context.DeadlineExceeded)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Fatalf("extraction %d took %v, the process was not killed", i, elapsed)
		}
	}

	closeWithin(t, s, 2*time.Second)
}

func TestExtractPersistentTimeout(t *testing.T) {
	// Never answers a request.
	bin := fakeExiftool(t, "cat >/dev/null")
	photo := writePhoto(t)

	s, err := New(zaptest.NewLogger(t), Options{Binary: bin, Timeout: 100 * time.Millisecond, Persistent: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		start := time.Now()
		_, err := s.Extract(context.Background(), photo)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("unexpected error\n got: %v\nwant: %v", err, context.DeadlineExceeded)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Fatalf("extraction %d took %v, it waited for the hung process", i, elapsed)
		}
	}

	closeWithin(t, s, 2*time.Second)

	if _, err := s.Extract(context.Background(), photo); !errors.Is(err, ErrClosed) {
		t.Fatalf("unexpected error after close\n got: %v\nwant: %v", err, ErrClosed)
	}
}

func closeWithin(t *testing.T, s *Source, d time.Duration) {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- s.Close() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}
	case <-time.After(d):
		t.Fatalf("Close still blocked after %v", d)
	}
}
