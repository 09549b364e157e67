package mediameta

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Scalar is a leaf value from analysis output. Analyzers emit the same field as a string
// in one file and as a number in the next, so both are accepted and kept as text.
type Scalar struct {
	text  string
	valid bool
}

// String returns a Scalar holding s.
func String(s string) Scalar {
	return Scalar{text: s, valid: true}
}

// Int returns a Scalar holding n.
func Int(n int64) Scalar {
	return Scalar{text: strconv.FormatInt(n, 10), valid: true}
}

// IsSet reports whether the value was present.
func (s Scalar) IsSet() bool {
	return s.valid
}

// Text returns the textual form of the value.
func (s Scalar) Text() (string, bool) {
	return s.text, s.valid
}

// Int64 converts the value to an integer. Fractional parts are truncated.
func (s Scalar) Int64() (int64, bool) {
	if !s.valid {
		return 0, false
	}
	t := strings.TrimSpace(s.text)
	if n, err := strconv.ParseInt(t, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	*s = Scalar{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		*s = String(str)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*s = Scalar{text: string(data), valid: true}
	}
	// null, booleans, objects and arrays are not scalar timestamps.
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.text)
}

// List is an ordered list that may be encoded as a JSON array or as an object keyed
// by decimal indexes ("0", "1", ...). Object keys that are not indexes are ignored.
// Elements that fail to decode keep their position as zero values.
type List[T any] []T

// First returns the element at index 0.
func (l List[T]) First() (T, bool) {
	var zero T
	if len(l) == 0 {
		return zero, false
	}
	return l[0], true
}

func (l *List[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return err
		}
		items := make([]T, len(raws))
		for i, raw := range raws {
			items[i] = decodeItem[T](raw)
		}
		*l = items
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(data, &keyed); err != nil {
			return err
		}
		type entry struct {
			index int
			raw   json.RawMessage
		}
		entries := make([]entry, 0, len(keyed))
		for k, raw := range keyed {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 {
				continue
			}
			entries = append(entries, entry{index: i, raw: raw})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].index < entries[j].index
		})
		// Index 0 must be present for First to mean "element 0".
		if len(entries) == 0 || entries[0].index != 0 {
			return nil
		}
		items := make([]T, 0, len(entries))
		for _, e := range entries {
			items = append(items, decodeItem[T](e.raw))
		}
		*l = items
	}
	return nil
}

// decodeItem decodes one list element. An element of the wrong shape is the zero value,
// so it cannot hide its siblings.
func decodeItem[T any](raw json.RawMessage) T {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		var zero T
		return zero
	}
	return item
}
