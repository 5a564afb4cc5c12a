package tmdb

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The opt types decode loosely typed upstream fields. Their UnmarshalJSON
// never fails: numbers sent as strings are parsed and anything else of the
// wrong shape is recorded as absent.

type optInt struct {
	v  int
	ok bool
}

func (o *optInt) UnmarshalJSON(data []byte) error {
	*o = optInt{}
	f, ok := looseNumber(data)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	*o = optInt{v: int(f), ok: true}
	return nil
}

// ptr returns nil when the value is absent.
func (o optInt) ptr() *int {
	if !o.ok {
		return nil
	}
	v := o.v
	return &v
}

// positive returns nil when the value is absent or not above zero.
func (o optInt) positive() *int {
	if !o.ok || o.v <= 0 {
		return nil
	}
	return o.ptr()
}

type optFloat struct {
	v  float64
	ok bool
}

func (o *optFloat) UnmarshalJSON(data []byte) error {
	*o = optFloat{}
	if f, ok := looseNumber(data); ok {
		*o = optFloat{v: f, ok: true}
	}
	return nil
}

func (o optFloat) ptr() *float64 {
	if !o.ok {
		return nil
	}
	v := o.v
	return &v
}

type optString struct {
	v  string
	ok bool
}

func (o *optString) UnmarshalJSON(data []byte) error {
	*o = optString{}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = optString{v: s, ok: true}
	}
	return nil
}

// String returns the value or "" when absent.
func (o optString) String() string {
	return o.v
}

// optList decodes an array element by element. A non-array becomes an
// empty list and elements that do not fit T are skipped.
type optList[T any] []T

func (l *optList[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// decodeObject fills v from a JSON object and leaves it zero for anything
// else. v must be built from opt types so decoding an object cannot fail.
func decodeObject(data []byte, v any) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return
	}
	_ = json.Unmarshal(data, v)
}

// looseNumber reads a JSON number or a numeric string.
func looseNumber(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return 0, false
		}
		text = n.String()
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
