package scan

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Options struct {
	MaxDepth int

	PhotoExtensions []string
	VideoExtensions []string

	// AllFiles disables the extension filter.
	AllFiles bool
}

func DefaultOptions() Options {
	return Options{
		MaxDepth: -1,
		PhotoExtensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif", ".tif", ".tiff", ".bmp",
			".dng", ".cr2", ".cr3", ".nef", ".arw", ".orf", ".rw2", ".raf",
		},
		VideoExtensions: []string{
			".mp4", ".mov", ".m4v", ".mkv", ".avi", ".webm", ".mts", ".3gp",
		},
	}
}

// Stat holds raw stat timestamps in seconds since the Unix epoch. They are
// kept as numbers so that out-of-range values survive until conversion.
type Stat struct {
	Atime float64 `json:"atime"`
	Mtime float64 `json:"mtime"`
	Ctime float64 `json:"ctime"`
}

type Record struct {
	Path          string    `json:"path"`
	Name          string    `json:"name"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	ModTime       time.Time `json:"mod_time"`
	Stat          Stat      `json:"stat"`
}

func Scan(fsys fs.FS, root string, opts Options) ([]string, error) {
	records, err := ScanRecords(fsys, root, opts)
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(records))
	for _, r := range records {
		matches = append(matches, r.Path)
	}
	return matches, nil
}

// ScanRecords walks root and returns the media files below it, sorted by
// path. Paths are relative to root. If root is a file, it is returned as
// the only record, with Path set to root and no extension filtering.
func ScanRecords(fsys fs.FS, root string, opts Options) ([]Record, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}

	info, err := fs.Stat(fsys, root)
	if err != nil {
		return nil, err
	}
	if info.Mode().IsRegular() {
		return []Record{newRecord(root, info)}, nil
	}

	photoExts := normalizeExts(opts.PhotoExtensions)
	videoExts := normalizeExts(opts.VideoExtensions)

	var matches []Record

	err = fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if opts.MaxDepth >= 0 {
				rel, relErr := filepath.Rel(root, path)
				if relErr != nil {
					return relErr
				}
				if rel == "." {
					return nil
				}
				if depth(rel) > opts.MaxDepth {
					return fs.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if opts.MaxDepth >= 0 && depth(rel) > opts.MaxDepth {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(rel))
		if !opts.AllFiles && !(photoExts[ext] || videoExts[ext]) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		matches = append(matches, newRecord(filepath.ToSlash(rel), info))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})
	return matches, nil
}

func newRecord(p string, info fs.FileInfo) Record {
	return Record{
		Path:          p,
		Name:          path.Base(p),
		FileSizeBytes: info.Size(),
		ModTime:       info.ModTime(),
		Stat:          statOf(info),
	}
}

// modTimeStat stands in for platform stat data, which in-memory file
// systems do not have.
func modTimeStat(info fs.FileInfo) Stat {
	m := epoch(info.ModTime())
	return Stat{Atime: m, Mtime: m, Ctime: m}
}

func epoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}

func depth(rel string) int {
	rel = filepath.Clean(rel)
	if rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/")
}
