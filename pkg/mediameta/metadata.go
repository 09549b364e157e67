package mediameta

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format is the container family tag an analyzer reports in "fileformat".
type Format string

const (
	FormatASF       Format = "asf"
	FormatMatroska  Format = "matroska"
	FormatQuickTime Format = "quicktime"
	FormatMP4       Format = "mp4"
)

// Metadata is the analysis result for a single file.
//
// FileFormat selects which of the variant sections is meaningful. QuickTime carries both
// the "quicktime" and "mp4" formats. Variants that are missing, or whose shape did not
// match when decoding, are nil.
type Metadata struct {
	FileFormat Format     `json:"fileformat,omitempty"`
	MimeType   string     `json:"mime_type,omitempty"`
	ASF        *ASF       `json:"asf,omitempty"`
	Matroska   *Matroska  `json:"matroska,omitempty"`
	QuickTime  *QuickTime `json:"quicktime,omitempty"`
}

type ASF struct {
	FileProperties *ASFFileProperties `json:"file_properties_object,omitempty"`
}

type ASFFileProperties struct {
	CreationDate     Scalar `json:"creation_date"`
	CreationDateUnix Scalar `json:"creation_date_unix"`
}

type Matroska struct {
	Comments *MatroskaComments `json:"comments,omitempty"`
}

type MatroskaComments struct {
	Title        List[Scalar] `json:"title,omitempty"`
	CreationTime List[Scalar] `json:"creation_time,omitempty"`
}

type QuickTime struct {
	Moov *Atom `json:"moov,omitempty"`
}

// Atom is a QuickTime/ISO-BMFF box as described by the analyzer.
type Atom struct {
	Name     string     `json:"name,omitempty"`
	Size     Scalar     `json:"size"`
	Subatoms List[Atom] `json:"subatoms,omitempty"`

	// CreationTime is seconds since 1904-01-01 UTC.
	CreationTime Scalar `json:"creation_time"`
	// CreationTimeUnix is seconds since the UNIX epoch.
	CreationTimeUnix Scalar `json:"creation_time_unix"`
}

// UnmarshalJSON decodes an atom field by field. A field of an unexpected shape is left
// empty instead of failing the atom, and a value that is not an object is an empty atom.
func (a *Atom) UnmarshalJSON(data []byte) error {
	*a = Atom{}

	var raw struct {
		Name             Scalar     `json:"name"`
		Size             Scalar     `json:"size"`
		Subatoms         List[Atom] `json:"subatoms"`
		CreationTime     Scalar     `json:"creation_time"`
		CreationTimeUnix Scalar     `json:"creation_time_unix"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	a.Name, _ = raw.Name.Text()
	a.Size = raw.Size
	a.Subatoms = raw.Subatoms
	a.CreationTime = raw.CreationTime
	a.CreationTimeUnix = raw.CreationTimeUnix
	return nil
}

// ASFCreationDateUnix looks up asf.file_properties_object.creation_date_unix.
func (m Metadata) ASFCreationDateUnix() (Scalar, bool) {
	if m.ASF == nil || m.ASF.FileProperties == nil {
		return Scalar{}, false
	}
	v := m.ASF.FileProperties.CreationDateUnix
	return v, v.IsSet()
}

// MatroskaCreationTime looks up matroska.comments.creation_time[0].
func (m Metadata) MatroskaCreationTime() (Scalar, bool) {
	if m.Matroska == nil || m.Matroska.Comments == nil {
		return Scalar{}, false
	}
	v, ok := m.Matroska.Comments.CreationTime.First()
	if !ok {
		return Scalar{}, false
	}
	return v, v.IsSet()
}

// QuickTimeCreationTimeUnix looks up quicktime.moov.subatoms[0].creation_time_unix.
func (m Metadata) QuickTimeCreationTimeUnix() (Scalar, bool) {
	if m.QuickTime == nil || m.QuickTime.Moov == nil {
		return Scalar{}, false
	}
	first, ok := m.QuickTime.Moov.Subatoms.First()
	if !ok {
		return Scalar{}, false
	}
	v := first.CreationTimeUnix
	return v, v.IsSet()
}

type envelope struct {
	FileFormat json.RawMessage `json:"fileformat"`
	MimeType   json.RawMessage `json:"mime_type"`
	ASF        json.RawMessage `json:"asf"`
	Matroska   json.RawMessage `json:"matroska"`
	QuickTime  json.RawMessage `json:"quicktime"`
}

// Decode reads analyzer JSON output. Only a top level that is not a JSON object is an
// error; sections with an unexpected shape are dropped.
func Decode(r io.Reader) (Metadata, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return Metadata{}, fmt.Errorf("decode analysis: %w", err)
	}

	var m Metadata
	var s Scalar
	if decodeSection(env.FileFormat, &s) {
		m.FileFormat = Format(s.text)
	}
	s = Scalar{}
	if decodeSection(env.MimeType, &s) {
		m.MimeType = s.text
	}

	var asf ASF
	if decodeSection(env.ASF, &asf) {
		m.ASF = &asf
	}
	var mkv Matroska
	if decodeSection(env.Matroska, &mkv) {
		m.Matroska = &mkv
	}
	var qt QuickTime
	if decodeSection(env.QuickTime, &qt) {
		m.QuickTime = &qt
	}
	return m, nil
}

func decodeSection(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
