package attachment

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quidome/parse-video-metadata/pkg/scan"
)

// Pipeline turns uploaded files into stored attachment records.
type Pipeline struct {
	files  fs.FS
	store  Repository
	events *Dispatcher
	scan   scan.Options
	log    zerolog.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

func NewPipeline(files fs.FS, store Repository, events *Dispatcher, scanOpts scan.Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		files:  files,
		store:  store,
		events: events,
		scan:   scanOpts,
		log:    log.With().Str("component", "attachment-pipeline").Logger(),
		now:    time.Now,
		newID:  uuid.New,
	}
}

// UploadOption adjusts the base record before hooks run.
type UploadOption func(*Record)

// WithCreatedTimestamp seeds the record with a known creation time, which hooks keep.
func WithCreatedTimestamp(sec int64) UploadOption {
	return func(r *Record) {
		r.CreatedTimestamp = sec
	}
}

// Upload builds the base record for path, fires EventMetadataGenerated and stores
// the result.
func (p *Pipeline) Upload(ctx context.Context, path string, opts ...UploadOption) (Record, error) {
	path = filepath.ToSlash(filepath.Clean(path))

	info, err := fs.Stat(p.files, path)
	if err != nil {
		return Record{}, err
	}
	if info.IsDir() {
		return Record{}, fmt.Errorf("%s: %w", path, fs.ErrInvalid)
	}

	kind, mime, err := p.detect(path)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:         p.newID(),
		Path:       path,
		Size:       info.Size(),
		MimeType:   mime,
		Kind:       kind,
		UploadedAt: p.now().UTC(),
	}
	for _, opt := range opts {
		opt(&rec)
	}

	rec, err = p.events.Dispatch(ctx, EventMetadataGenerated, rec)
	if err != nil {
		return Record{}, err
	}

	if err := p.store.Put(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("store %s: %w", rec.ID, err)
	}

	p.log.Debug().Str("id", rec.ID.String()).Str("path", rec.Path).Str("kind", string(rec.Kind)).Msg("attachment stored")
	return rec, nil
}

// detect prefers the content type and falls back to the extension.
func (p *Pipeline) detect(path string) (scan.Kind, string, error) {
	f, err := p.files.Open(path)
	if err != nil {
		return scan.KindOther, "", err
	}
	defer f.Close()

	kind, mime, err := scan.Sniff(f)
	if err != nil {
		return scan.KindOther, "", fmt.Errorf("sniff %s: %w", path, err)
	}
	if kind == scan.KindOther {
		kind = p.scan.KindOf(path)
	}
	return kind, mime, nil
}
