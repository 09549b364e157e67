// Package analyze produces mediameta.Metadata for a media file.
//
// Analyzers stand in for an external media-analysis engine: they report what the file
// contains and leave timestamp policy to createdat.Resolve.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/quidome/parse-video-metadata/pkg/mediameta"
)

// ErrUnsupported is returned when an analyzer does not recognize the file.
var ErrUnsupported = errors.New("unsupported media")

// Analyzer describes a media file.
type Analyzer interface {
	Analyze(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error)
}

// Func adapts a function to the Analyzer interface.
type Func func(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error)

func (f Func) Analyze(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error) {
	return f(ctx, name, r)
}

// Chain tries each analyzer in order. The first result with a file format wins.
// ErrUnsupported moves on to the next analyzer, any other error is returned.
type Chain []Analyzer

func (c Chain) Analyze(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error) {
	for _, a := range c {
		if err := ctx.Err(); err != nil {
			return mediameta.Metadata{}, err
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return mediameta.Metadata{}, fmt.Errorf("rewind %s: %w", name, err)
		}

		m, err := a.Analyze(ctx, name, r)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				continue
			}
			return mediameta.Metadata{}, err
		}
		if m.FileFormat != "" {
			return m, nil
		}
	}
	return mediameta.Metadata{}, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// Dump decodes the stream itself as analyzer JSON output.
type Dump struct{}

func (Dump) Analyze(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return mediameta.Metadata{}, err
	}
	m, err := mediameta.Decode(r)
	if err != nil {
		return mediameta.Metadata{}, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}
