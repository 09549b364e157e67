package scan

import (
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the broad media class of a file.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

type Options struct {
	MaxDepth int

	PhotoExtensions []string
	VideoExtensions []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth: -1,
		PhotoExtensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".tif", ".tiff", ".bmp",
		},
		VideoExtensions: []string{
			".mp4", ".mov", ".m4v", ".mkv", ".webm", ".wmv", ".asf", ".3gp",
		},
	}
}

// KindOf classifies a path by its extension.
func (o Options) KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case normalizeExts(o.VideoExtensions)[ext]:
		return KindVideo
	case normalizeExts(o.PhotoExtensions)[ext]:
		return KindPhoto
	default:
		return KindOther
	}
}

// KindOf classifies a path using DefaultOptions.
func KindOf(path string) Kind {
	return DefaultOptions().KindOf(path)
}

// Sniff classifies content by its leading bytes and returns the detected MIME type.
func Sniff(r io.Reader) (Kind, string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return KindOther, "", err
	}
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "video/"):
			return KindVideo, mt.String(), nil
		case strings.HasPrefix(m.String(), "image/"):
			return KindPhoto, mt.String(), nil
		}
	}
	return KindOther, mt.String(), nil
}

type Record struct {
	Path          string    `json:"path"`
	Kind          Kind      `json:"kind"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	ModTime       time.Time `json:"mod_time"`
}

// ScanRecords lists photos and videos under root. Paths are relative to root and
// slash-separated.
func ScanRecords(fsys fs.FS, root string, opts Options) ([]Record, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}

	photoExts := normalizeExts(opts.PhotoExtensions)
	videoExts := normalizeExts(opts.VideoExtensions)

	var matches []Record

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
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

		var kind Kind
		switch ext := strings.ToLower(filepath.Ext(rel)); {
		case videoExts[ext]:
			kind = KindVideo
		case photoExts[ext]:
			kind = KindPhoto
		default:
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		matches = append(matches, Record{
			Path:          filepath.ToSlash(rel),
			Kind:          kind,
			FileSizeBytes: info.Size(),
			ModTime:       info.ModTime(),
		})
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
