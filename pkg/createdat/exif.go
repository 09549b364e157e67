package createdat

import (
	"context"
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Exif returns an extractor that reads photo EXIF timestamps.
func Exif() MetadataExtractor {
	return exifExtractor{}
}

type exifExtractor struct{}

func (e exifExtractor) CreatedAt(ctx context.Context, path string, r io.ReadSeeker) (Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, false, err
	}

	x, err := exif.Decode(r)
	if err != nil {
		// No EXIF segment, or one too damaged to use.
		return Result{}, false, nil
	}

	// Prefer DateTimeOriginal, then DateTimeDigitized, then DateTime.
	for _, tag := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		if tm, ok := exifTimeFromTag(x, tag); ok {
			return Result{CreatedAt: tm, Source: SourceExif}, true, nil
		}
	}
	if tm, err := x.DateTime(); err == nil {
		return Result{CreatedAt: tm, Source: SourceExif}, true, nil
	}

	return Result{}, false, nil
}

func exifTimeFromTag(x *exif.Exif, tag exif.FieldName) (time.Time, bool) {
	f, err := x.Get(tag)
	if err != nil {
		return time.Time{}, false
	}

	s, err := f.StringVal()
	if err != nil {
		return time.Time{}, false
	}

	// EXIF DateTime format: "2006:01:02 15:04:05", without a zone.
	tm, err := time.ParseInLocation("2006:01:02 15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	return tm, true
}
