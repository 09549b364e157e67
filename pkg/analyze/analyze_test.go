package analyze

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quidome/parse-video-metadata/pkg/mediameta"
)

// movie builds a minimal ftyp + moov/mvhd (version 0) file.
func movie(t *testing.T, brand string, macCreated uint32) []byte {
	t.Helper()

	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatal(err)
		}
	}

	if brand != "" {
		write(uint32(20))
		buf.WriteString("ftyp")
		buf.WriteString(brand)
		write(uint32(0x200))
		buf.WriteString(brand)
	}

	write(uint32(8 + 108))
	buf.WriteString("moov")
	write(uint32(108))
	buf.WriteString("mvhd")
	write(uint32(0))      // version 0, flags
	write(macCreated)     // creation_time
	write(macCreated)     // modification_time
	write(uint32(1000))   // timescale
	write(uint32(5000))   // duration
	write(int32(0x10000)) // rate
	write(int16(0x100))   // volume
	write(int16(0))       // reserved
	write([2]uint32{})    // reserved
	write([9]int32{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000})
	write([6]int32{})   // pre_defined
	write(uint32(2))    // next_track_ID

	return buf.Bytes()
}

// movieV1 builds a minimal ftyp + moov/mvhd file using the 64-bit (version 1) header.
func movieV1(t *testing.T, macCreated uint64) []byte {
	t.Helper()

	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatal(err)
		}
	}

	write(uint32(20))
	buf.WriteString("ftyp")
	buf.WriteString("isom")
	write(uint32(0x200))
	buf.WriteString("isom")

	write(uint32(8 + 120))
	buf.WriteString("moov")
	write(uint32(120))
	buf.WriteString("mvhd")
	write(uint32(0x01000000)) // version 1, flags
	write(macCreated)         // creation_time
	write(macCreated)         // modification_time
	write(uint32(1000))       // timescale
	write(uint64(5000))       // duration
	write(int32(0x10000))     // rate
	write(int16(0x100))       // volume
	write(int16(0))           // reserved
	write([2]uint32{})        // reserved
	write([9]int32{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000})
	write([6]int32{}) // pre_defined
	write(uint32(2))  // next_track_ID

	return buf.Bytes()
}

func TestISOBMFF_Version1(t *testing.T) {
	t.Run("64-bit creation time", func(t *testing.T) {
		data := movieV1(t, 1577836800+MacEpochOffset)

		m, err := ISOBMFF{}.Analyze(context.Background(), "clip.mp4", bytes.NewReader(data))
		require.NoError(t, err)

		v, ok := m.QuickTimeCreationTimeUnix()
		require.True(t, ok)
		sec, ok := v.Int64()
		require.True(t, ok)
		assert.Equal(t, int64(1577836800), sec)
	})

	t.Run("beyond int64 has no unix value", func(t *testing.T) {
		data := movieV1(t, math.MaxUint64)

		m, err := ISOBMFF{}.Analyze(context.Background(), "clip.mp4", bytes.NewReader(data))
		require.NoError(t, err)

		_, ok := m.QuickTimeCreationTimeUnix()
		assert.False(t, ok)

		first, ok := m.QuickTime.Moov.Subatoms.First()
		require.True(t, ok)
		raw, _ := first.CreationTime.Text()
		assert.Equal(t, "18446744073709551615", raw)
	})
}

func TestISOBMFF_MP4(t *testing.T) {
	data := movie(t, "isom", 1577836800+MacEpochOffset)

	m, err := ISOBMFF{}.Analyze(context.Background(), "clip.mp4", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, mediameta.FormatMP4, m.FileFormat)

	v, ok := m.QuickTimeCreationTimeUnix()
	require.True(t, ok)
	sec, ok := v.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(1577836800), sec)

	first, _ := m.QuickTime.Moov.Subatoms.First()
	assert.Equal(t, "mvhd", first.Name)
	raw, _ := first.CreationTime.Int64()
	assert.Equal(t, int64(1577836800+MacEpochOffset), raw)
}

func TestISOBMFF_QuickTimeBrand(t *testing.T) {
	data := movie(t, "qt  ", 1577836800+MacEpochOffset)

	m, err := ISOBMFF{}.Analyze(context.Background(), "clip.mov", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, mediameta.FormatQuickTime, m.FileFormat)
	assert.Equal(t, "video/quicktime", m.MimeType)
}

func TestISOBMFF_ZeroCreationTimeHasNoUnixValue(t *testing.T) {
	data := movie(t, "isom", 0)

	m, err := ISOBMFF{}.Analyze(context.Background(), "clip.mp4", bytes.NewReader(data))
	require.NoError(t, err)

	_, ok := m.QuickTimeCreationTimeUnix()
	assert.False(t, ok)
}

func TestISOBMFF_NotAMovie(t *testing.T) {
	_, err := ISOBMFF{}.Analyze(context.Background(), "notes.txt", bytes.NewReader(nil))
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
}

func TestSidecar(t *testing.T) {
	fsys := fstest.MapFS{
		"videos/a.mkv.json":   &fstest.MapFile{Data: []byte(`{"fileformat":"matroska","matroska":{"comments":{"creation_time":["2021-01-01T00:00:00Z"]}}}`)},
		"videos/bad.mkv.json": &fstest.MapFile{Data: []byte(`not json`)},
	}
	s := Sidecar{FS: fsys}

	m, err := s.Analyze(context.Background(), "videos/a.mkv", nil)
	require.NoError(t, err)
	assert.Equal(t, mediameta.FormatMatroska, m.FileFormat)

	_, err = s.Analyze(context.Background(), "videos/missing.mkv", nil)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Analyze(context.Background(), "videos/bad.mkv", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupported)
}

func TestChain(t *testing.T) {
	unsupported := Func(func(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error) {
		return mediameta.Metadata{}, ErrUnsupported
	})
	empty := Func(func(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error) {
		return mediameta.Metadata{}, nil
	})
	boom := errors.New("boom")
	failing := Func(func(ctx context.Context, name string, r io.ReadSeeker) (mediameta.Metadata, error) {
		return mediameta.Metadata{}, boom
	})

	t.Run("falls through to dump", func(t *testing.T) {
		c := Chain{unsupported, empty, Dump{}}
		m, err := c.Analyze(context.Background(), "a.json", strings.NewReader(`{"fileformat":"asf"}`))
		require.NoError(t, err)
		assert.Equal(t, mediameta.FormatASF, m.FileFormat)
	})

	t.Run("hard error stops", func(t *testing.T) {
		c := Chain{failing, Dump{}}
		_, err := c.Analyze(context.Background(), "a.json", strings.NewReader(`{"fileformat":"asf"}`))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nothing recognized", func(t *testing.T) {
		c := Chain{unsupported, empty}
		_, err := c.Analyze(context.Background(), "a.bin", strings.NewReader(""))
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Chain{Dump{}}.Analyze(ctx, "a.json", strings.NewReader(`{}`))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
