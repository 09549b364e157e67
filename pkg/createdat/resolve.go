package createdat

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/quidome/parse-video-metadata/pkg/mediameta"
)

// Resolve extracts the creation timestamp, in UNIX seconds, from analysis output.
//
// The second return value is false when no timestamp can be determined: the format is
// empty or not one of asf, matroska, quicktime or mp4, the field is missing at any
// level, or its value does not convert. Resolve never fails and never modifies m.
//
//	asf             asf.file_properties_object.creation_date_unix   integer
//	matroska        matroska.comments.creation_time[0]              date/time text
//	quicktime, mp4  quicktime.moov.subatoms[0].creation_time_unix   integer
func Resolve(m mediameta.Metadata) (int64, bool) {
	if m.FileFormat == "" {
		return 0, false
	}

	switch m.FileFormat {
	case mediameta.FormatASF:
		if v, ok := m.ASFCreationDateUnix(); ok {
			return v.Int64()
		}

	case mediameta.FormatMatroska:
		if v, ok := m.MatroskaCreationTime(); ok {
			return parseDateTime(v)
		}

	case mediameta.FormatQuickTime, mediameta.FormatMP4:
		if v, ok := m.QuickTimeCreationTimeUnix(); ok {
			return v.Int64()
		}
	}

	return 0, false
}

// ResolveTime is Resolve as a UTC time.Time.
func ResolveTime(m mediameta.Metadata) (time.Time, bool) {
	sec, ok := Resolve(m)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

// parseDateTime reads free-form date text. Text without a zone is taken as UTC.
// Text without a year parses to year 0 and is rejected.
func parseDateTime(v mediameta.Scalar) (int64, bool) {
	s, ok := v.Text()
	if !ok || s == "" {
		return 0, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || t.Year() <= 0 {
		return 0, false
	}
	return t.Unix(), true
}
