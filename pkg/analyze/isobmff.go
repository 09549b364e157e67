package analyze

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	mp4 "github.com/abema/go-mp4"

	"github.com/quidome/parse-video-metadata/pkg/mediameta"
)

// MacEpochOffset is the number of seconds between 1904-01-01 and 1970-01-01 (UTC).
const MacEpochOffset = 2082844800

// quickTimeBrand is the ftyp major brand written by QuickTime (.mov).
const quickTimeBrand = "qt  "

// ISOBMFF reads the ftyp and moov/mvhd boxes of MP4 and QuickTime files.
//
// The result uses the quicktime section with the mvhd atom as the first moov subatom,
// carrying both the raw 1904-based creation_time and creation_time_unix.
type ISOBMFF struct{}

func (ISOBMFF) Analyze(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return mediameta.Metadata{}, err
	}

	brand, hasFtyp, err := majorBrand(r)
	if err != nil {
		return mediameta.Metadata{}, fmt.Errorf("%s: read ftyp: %v: %w", name, err, ErrUnsupported)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return mediameta.Metadata{}, fmt.Errorf("rewind %s: %w", name, err)
	}
	moov, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return mediameta.Metadata{}, fmt.Errorf("%s: read moov: %v: %w", name, err, ErrUnsupported)
	}
	if !hasFtyp && len(moov) == 0 {
		return mediameta.Metadata{}, fmt.Errorf("%s: no ftyp or moov box: %w", name, ErrUnsupported)
	}

	m := mediameta.Metadata{
		FileFormat: mediameta.FormatMP4,
		MimeType:   "video/mp4",
		QuickTime:  &mediameta.QuickTime{Moov: &mediameta.Atom{Name: "moov"}},
	}
	// Files without ftyp predate ISO-BMFF and come from QuickTime.
	if brand == quickTimeBrand || !hasFtyp {
		m.FileFormat = mediameta.FormatQuickTime
		m.MimeType = "video/quicktime"
	}

	for _, box := range moov {
		mvhd, ok := box.Payload.(*mp4.Mvhd)
		if !ok {
			continue
		}
		m.QuickTime.Moov.Subatoms = append(m.QuickTime.Moov.Subatoms, mvhdAtom(mvhd, box.Info.Size))
		break
	}

	return m, nil
}

func majorBrand(r io.ReadSeeker) (string, bool, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", false, err
	}
	boxes, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeFtyp()})
	if err != nil {
		return "", false, err
	}
	for _, box := range boxes {
		if ftyp, ok := box.Payload.(*mp4.Ftyp); ok {
			return string(ftyp.MajorBrand[:]), true, nil
		}
	}
	return "", false, nil
}

func mvhdAtom(mvhd *mp4.Mvhd, size uint64) mediameta.Atom {
	var created uint64
	if mvhd.Version > 0 {
		created = mvhd.CreationTimeV1
	} else {
		created = uint64(mvhd.CreationTimeV0)
	}

	atom := mediameta.Atom{
		Name:         "mvhd",
		Size:         mediameta.String(strconv.FormatUint(size, 10)),
		CreationTime: mediameta.String(strconv.FormatUint(created, 10)),
	}
	// Encoders that do not know the time write zero. Version 1 values past
	// MaxInt64 have no UNIX equivalent.
	if created != 0 && created <= math.MaxInt64 {
		atom.CreationTimeUnix = mediameta.Int(int64(created) - MacEpochOffset)
	}
	return atom
}
