package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/quidome/parse-video-metadata/pkg/mediameta"
)

// DefaultSidecarSuffix is appended to a media path to find its stored analysis.
const DefaultSidecarSuffix = ".json"

// Sidecar loads a previously stored analysis dump that sits next to the media file,
// e.g. "clip.mkv.json" for "clip.mkv". The media stream itself is not read.
type Sidecar struct {
	FS     fs.FS
	Suffix string
}

func (s Sidecar) Analyze(ctx context.Context, name string, _ io.ReadSeeker) (mediameta.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return mediameta.Metadata{}, err
	}

	suffix := s.Suffix
	if suffix == "" {
		suffix = DefaultSidecarSuffix
	}

	f, err := s.FS.Open(name + suffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mediameta.Metadata{}, fmt.Errorf("%s: no sidecar: %w", name, ErrUnsupported)
		}
		return mediameta.Metadata{}, fmt.Errorf("open sidecar: %w", err)
	}
	defer f.Close()

	m, err := mediameta.Decode(f)
	if err != nil {
		return mediameta.Metadata{}, fmt.Errorf("%s%s: %w", name, suffix, err)
	}
	return m, nil
}
