package createdat

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/quidome/parse-video-metadata/pkg/analyze"
	"github.com/quidome/parse-video-metadata/pkg/mediameta"
	"github.com/quidome/parse-video-metadata/pkg/scan"
)

// Source describes where a CreatedAt timestamp was derived from.
type Source string

const (
	SourceAnalysis Source = "analysis"
	SourceExif     Source = "exif"
	SourceUnknown  Source = "unknown"
)

// Result contains a creation timestamp and its source.
type Result struct {
	CreatedAt time.Time
	Source    Source

	// Format is the container format reported by the analyzer, if any.
	Format mediameta.Format
}

// Found reports whether a timestamp was determined.
func (r Result) Found() bool {
	return r.Source != SourceUnknown && !r.CreatedAt.IsZero()
}

// MetadataExtractor extracts an embedded creation timestamp from a media stream.
//
// Implementations return (r, true, nil) when a timestamp is found and
// (Result{}, false, nil) when none exists. Errors are reserved for I/O and
// analyzer failures.
type MetadataExtractor interface {
	CreatedAt(ctx context.Context, path string, r io.ReadSeeker) (Result, bool, error)
}

// Analysis returns an extractor that runs a and resolves its output.
func Analysis(a analyze.Analyzer) MetadataExtractor {
	return analysisExtractor{analyzer: a}
}

type analysisExtractor struct {
	analyzer analyze.Analyzer
}

func (e analysisExtractor) CreatedAt(ctx context.Context, path string, r io.ReadSeeker) (Result, bool, error) {
	m, err := e.analyzer.Analyze(ctx, path, r)
	if err != nil {
		return Result{}, false, err
	}
	t, ok := ResolveTime(m)
	if !ok {
		return Result{Source: SourceUnknown, Format: m.FileFormat}, false, nil
	}
	return Result{CreatedAt: t, Source: SourceAnalysis, Format: m.FileFormat}, true, nil
}

// Options configures Determine.
type Options struct {
	// Scan classifies paths into photos and videos. Zero value means scan.DefaultOptions.
	Scan *scan.Options

	// Video extracts timestamps from videos. If nil, the ISO-BMFF analyzer is used.
	Video MetadataExtractor

	// Photo extracts timestamps from photos. If nil, EXIF is used.
	Photo MetadataExtractor
}

// Determine returns the embedded creation timestamp for a path.
//
// A file without a discoverable timestamp yields SourceUnknown and no error. Errors are
// returned for missing files and directories only; extractor failures count as absence.
func Determine(ctx context.Context, fsys fs.FS, path string, opts Options) (Result, error) {
	path = filepath.ToSlash(filepath.Clean(path))

	info, err := fs.Stat(fsys, path)
	if err != nil {
		return Result{}, err
	}
	if info.IsDir() {
		return Result{}, fs.ErrInvalid
	}

	scanOpts := scan.DefaultOptions()
	if opts.Scan != nil {
		scanOpts = *opts.Scan
	}

	var extractor MetadataExtractor
	switch scanOpts.KindOf(path) {
	case scan.KindVideo:
		extractor = opts.Video
		if extractor == nil {
			extractor = Analysis(analyze.ISOBMFF{})
		}
	case scan.KindPhoto:
		extractor = opts.Photo
		if extractor == nil {
			extractor = Exif()
		}
	default:
		return Result{Source: SourceUnknown}, nil
	}

	rs, closeFn, err := OpenSeeker(fsys, path)
	if err != nil {
		return Result{}, err
	}
	defer closeFn()

	res, ok, metaErr := extractor.CreatedAt(ctx, path, rs)
	if metaErr != nil || !ok {
		return Result{Source: SourceUnknown, Format: res.Format}, nil
	}
	return res, nil
}

// OpenSeeker opens path for random access. Files that cannot seek are read into memory.
func OpenSeeker(fsys fs.FS, path string) (io.ReadSeeker, func(), error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = f.Close() }

	if rs, ok := f.(io.ReadSeeker); ok {
		return rs, closeFn, nil
	}

	data, err := io.ReadAll(f)
	closeFn()
	if err != nil {
		return nil, nil, err
	}
	return bytes.NewReader(data), func() {}, nil
}
