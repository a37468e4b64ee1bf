package sqltemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is the dynamic value used for parameters, loop items and literals.
// Numbers keep their JSON text so they render exactly as supplied.
// A Value is never mutated after construction.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
}

// Null returns the null Value. The zero Value is also null.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value from its JSON text.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Int returns a numeric Value for an integer.
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Float returns a numeric Value for a float. Non-finite floats have no JSON
// form and become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Number(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an array Value holding items in order.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object returns an object Value. The map must not be modified afterwards.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

// ValueOf converts decoded JSON (as produced by encoding/json into any) and
// common Go scalars into a Value. Unsupported types become null.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case json.Number:
		return Number(t)
	case string:
		return String(t)
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = ValueOf(item)
		}
		return Array(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return Array(items...)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = ValueOf(item)
		}
		return Object(fields)
	}
	return Null()
}

// ParseParams decodes the JSON text of a parameter document. Numbers keep
// their original text. Trailing data after the document is an error.
func ParseParams(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null(), fmt.Errorf("%w: %v", apperrors.ErrInvalidParams, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Null(), fmt.Errorf("%w: trailing data after params document", apperrors.ErrInvalidParams)
	}
	return ValueOf(raw), nil
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsObject() bool { return v.kind == KindObject }

// Str returns the string content and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Items returns the elements of an array Value, or nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Get looks up a key on an object Value. Any other kind has no keys.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	field, ok := v.obj[key]
	return field, ok
}

// Float64 converts numbers, and strings that parse as numbers, to float64.
func (v Value) Float64() (float64, bool) {
	var text string
	switch v.kind {
	case KindNumber:
		text = string(v.num)
	case KindString:
		text = v.str
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Equal compares two Values structurally. Numbers compare by numeric value.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		a, aok := v.Float64()
		b, bok := other.Float64()
		if aok && bok {
			return a == b
		}
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindArray:
		return slices.EqualFunc(v.arr, other.arr, Value.Equal)
	case KindObject:
		return maps.EqualFunc(v.obj, other.obj, Value.Equal)
	}
	return false
}

// Truthy applies the test-expression truthiness rules.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if i, err := v.num.Int64(); err == nil && i != 0 {
			return true
		}
		f, err := v.num.Float64()
		return err == nil && f != 0
	case KindString:
		return strings.TrimSpace(v.str) != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return len(v.obj) > 0
	}
	return false
}

// JSON returns the compact JSON text of v with object keys sorted.
func (v Value) JSON() string {
	var buf bytes.Buffer
	v.writeJSON(&buf)
	return buf.String()
}

func (v Value) writeJSON(buf *bytes.Buffer) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(string(v.num))
	case KindString:
		writeJSONString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.writeJSON(buf)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range slices.Sorted(maps.Keys(v.obj)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, key)
			buf.WriteByte(':')
			v.obj[key].writeJSON(buf)
		}
		buf.WriteByte('}')
	}
}

// writeJSONString quotes s without HTML escaping so SQL text stays readable.
func writeJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.JSON()), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving number text.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseParams(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String renders v for diagnostics.
func (v Value) String() string { return v.JSON() }
