package attachment

import (
	"context"
	"errors"
	"io/fs"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quidome/parse-video-metadata/pkg/analyze"
	"github.com/quidome/parse-video-metadata/pkg/createdat"
	"github.com/quidome/parse-video-metadata/pkg/scan"
)

// VideoTimestampHook fills CreatedTimestamp for videos from analyzer output.
//
// Non-videos pass through untouched. A timestamp already present on the record wins
// over the resolved one. Analyzer failures are logged and leave the record as it was.
func VideoTimestampHook(files fs.FS, a analyze.Analyzer, log zerolog.Logger, metrics *Metrics) Hook {
	extractor := createdat.Analysis(a)
	log = log.With().Str("component", "video-timestamp").Logger()

	return func(ctx context.Context, rec Record, id uuid.UUID) (Record, error) {
		if rec.Kind != scan.KindVideo {
			return rec, nil
		}

		res, found, err := extract(ctx, files, rec.Path, extractor)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return rec, ctxErr
			}
			if errors.Is(err, analyze.ErrUnsupported) {
				log.Debug().Str("id", id.String()).Str("path", rec.Path).Msg("no analyzer recognized the file")
				metrics.observe(string(rec.FileFormat), OutcomeAbsent)
				return rec, nil
			}
			log.Warn().Err(err).Str("id", id.String()).Str("path", rec.Path).Msg("analyze video")
			metrics.observe(string(rec.FileFormat), OutcomeError)
			return rec, nil
		}

		if rec.FileFormat == "" {
			rec.FileFormat = res.Format
		}
		format := string(rec.FileFormat)

		switch {
		case !found:
			log.Debug().Str("id", id.String()).Str("format", format).Msg("no creation timestamp in metadata")
			metrics.observe(format, OutcomeAbsent)
		case rec.HasCreatedTimestamp():
			log.Debug().Str("id", id.String()).Int64("existing", rec.CreatedTimestamp).
				Int64("resolved", res.CreatedAt.Unix()).Msg("keeping existing creation timestamp")
			metrics.observe(format, OutcomeKept)
		default:
			rec.CreatedTimestamp = res.CreatedAt.Unix()
			log.Info().Str("id", id.String()).Str("format", format).
				Time("created_at", res.CreatedAt).Msg("creation timestamp resolved")
			metrics.observe(format, OutcomeResolved)
		}
		return rec, nil
	}
}

// ImageTimestampHook fills CreatedTimestamp for photos from EXIF, under the same
// precedence rule as VideoTimestampHook.
func ImageTimestampHook(files fs.FS, log zerolog.Logger) Hook {
	extractor := createdat.Exif()
	log = log.With().Str("component", "image-timestamp").Logger()

	return func(ctx context.Context, rec Record, id uuid.UUID) (Record, error) {
		if rec.Kind != scan.KindPhoto || rec.HasCreatedTimestamp() {
			return rec, nil
		}

		res, found, err := extract(ctx, files, rec.Path, extractor)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return rec, ctxErr
			}
			log.Warn().Err(err).Str("id", id.String()).Str("path", rec.Path).Msg("read exif")
			return rec, nil
		}
		if found {
			rec.CreatedTimestamp = res.CreatedAt.Unix()
		}
		return rec, nil
	}
}

func extract(ctx context.Context, files fs.FS, path string, e createdat.MetadataExtractor) (createdat.Result, bool, error) {
	rs, closeFn, err := createdat.OpenSeeker(files, path)
	if err != nil {
		return createdat.Result{}, false, err
	}
	defer closeFn()
	return e.CreatedAt(ctx, path, rs)
}
