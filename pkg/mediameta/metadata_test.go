package mediameta

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Sections(t *testing.T) {
	in := `{
		"fileformat": "quicktime",
		"mime_type": "video/quicktime",
		"quicktime": {
			"moov": {
				"name": "moov",
				"subatoms": [
					{"name": "mvhd", "creation_time": 3660681600, "creation_time_unix": 1577836800},
					{"name": "trak"}
				]
			}
		}
	}`

	m, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, FormatQuickTime, m.FileFormat)
	assert.Equal(t, "video/quicktime", m.MimeType)
	assert.Nil(t, m.ASF)
	assert.Nil(t, m.Matroska)
	require.NotNil(t, m.QuickTime)

	v, ok := m.QuickTimeCreationTimeUnix()
	require.True(t, ok)
	n, ok := v.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(1577836800), n)
}

func TestDecode_NotAnObject(t *testing.T) {
	_, err := Decode(strings.NewReader(`["asf"]`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"fileformat":`))
	assert.Error(t, err)
}

func TestDecode_MismatchedSectionIsDropped(t *testing.T) {
	in := `{"fileformat": "asf", "asf": [], "matroska": "nope", "quicktime": {"moov": 12}}`

	m, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, FormatASF, m.FileFormat)
	assert.Nil(t, m.ASF)
	assert.Nil(t, m.Matroska)
	require.NotNil(t, m.QuickTime)

	_, ok := m.ASFCreationDateUnix()
	assert.False(t, ok)
	_, ok = m.QuickTimeCreationTimeUnix()
	assert.False(t, ok)
}

func TestDecode_MalformedSiblingsKeepPath(t *testing.T) {
	in := `{
		"fileformat": "mp4",
		"quicktime": {
			"moov": {
				"name": 7,
				"size": [1],
				"subatoms": [
					{"name": {"x": 1}, "creation_time_unix": 1577836800},
					5,
					{"subatoms": [1, "two"]}
				]
			}
		}
	}`

	m, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.NotNil(t, m.QuickTime)
	require.NotNil(t, m.QuickTime.Moov)
	assert.Equal(t, "7", m.QuickTime.Moov.Name)
	assert.Len(t, m.QuickTime.Moov.Subatoms, 3)
	assert.Equal(t, Atom{}, m.QuickTime.Moov.Subatoms[1])

	v, ok := m.QuickTimeCreationTimeUnix()
	require.True(t, ok)
	n, _ := v.Int64()
	assert.Equal(t, int64(1577836800), n)
}

func TestList_IndexedObject(t *testing.T) {
	testCases := []struct {
		name      string
		in        string
		wantFirst string
		wantOK    bool
	}{
		{name: "array", in: `["a", "b"]`, wantFirst: "a", wantOK: true},
		{name: "keyed object", in: `{"1": "b", "0": "a"}`, wantFirst: "a", wantOK: true},
		{name: "keyed object without index 0", in: `{"1": "b"}`, wantOK: false},
		{name: "empty array", in: `[]`, wantOK: false},
		{name: "non-index keys ignored", in: `{"x": "y", "0": "a"}`, wantFirst: "a", wantOK: true},
		{name: "malformed later element", in: `["a", {"b": 1}]`, wantFirst: "a", wantOK: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var l List[Scalar]
			require.NoError(t, json.Unmarshal([]byte(tc.in), &l))

			first, ok := l.First()
			require.Equal(t, tc.wantOK, ok)
			if !ok {
				return
			}
			text, _ := first.Text()
			assert.Equal(t, tc.wantFirst, text)
		})
	}
}

func TestScalar_Int64(t *testing.T) {
	testCases := []struct {
		name   string
		in     string
		want   int64
		wantOK bool
	}{
		{name: "numeric string", in: `"1609459200"`, want: 1609459200, wantOK: true},
		{name: "number", in: `1577836800`, want: 1577836800, wantOK: true},
		{name: "fractional number truncates", in: `1577836800.75`, want: 1577836800, wantOK: true},
		{name: "exponent", in: `1.6e9`, want: 1600000000, wantOK: true},
		{name: "padded string", in: `" 42 "`, want: 42, wantOK: true},
		{name: "negative", in: `-5`, want: -5, wantOK: true},
		{name: "text", in: `"yesterday"`, wantOK: false},
		{name: "null", in: `null`, wantOK: false},
		{name: "bool", in: `true`, wantOK: false},
		{name: "object", in: `{"a": 1}`, wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var s Scalar
			require.NoError(t, json.Unmarshal([]byte(tc.in), &s))

			got, ok := s.Int64()
			require.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAccessors_NilSafe(t *testing.T) {
	var m Metadata

	_, ok := m.ASFCreationDateUnix()
	assert.False(t, ok)
	_, ok = m.MatroskaCreationTime()
	assert.False(t, ok)
	_, ok = m.QuickTimeCreationTimeUnix()
	assert.False(t, ok)

	m.QuickTime = &QuickTime{Moov: &Atom{Name: "moov"}}
	_, ok = m.QuickTimeCreationTimeUnix()
	assert.False(t, ok)

	m.Matroska = &Matroska{Comments: &MatroskaComments{}}
	_, ok = m.MatroskaCreationTime()
	assert.False(t, ok)
}
