package engine

// value.go maps engine cells onto the tagged wire value shared with the
// front-end and back again for spreadsheet writing.
//
// The wire form is deliberately narrow: null, bool, i64, f64 or text.
// Whatever the engine produces beyond those degrades to text, and
// non-finite floats degrade to null because JSON cannot carry them.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueType tags a wire value.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeText
	// TypeArray appears only in filter condition values (IN lists);
	// row decoding never produces it.
	TypeArray
)

// Value is the tagged cell representation crossing the session boundary.
type Value struct {
	Type  ValueType
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Arr   []Value
}

// Null returns the null wire value.
func Null() Value { return Value{Type: TypeNull} }

// NewBool wraps a boolean.
func NewBool(b bool) Value { return Value{Type: TypeBool, Bool: b} }

// NewInt wraps a 64-bit integer.
func NewInt(i int64) Value { return Value{Type: TypeInt, Int: i} }

// NewFloat wraps a float. NaN and infinities degrade to null.
func NewFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{Type: TypeFloat, Float: f}
}

// NewText wraps a string, replacing invalid UTF-8 sequences.
func NewText(s string) Value {
	return Value{Type: TypeText, Str: strings.ToValidUTF8(s, "�")}
}

// NewArray wraps a list of values for IN conditions.
func NewArray(vs []Value) Value { return Value{Type: TypeArray, Arr: vs} }

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.Type == TypeNull }

// FromCell converts a cell scanned from the engine into its wire form.
func FromCell(cell any) Value {
	switch x := cell.(type) {
	case nil:
		return Null()
	case bool:
		return NewBool(x)
	case int:
		return NewInt(int64(x))
	case int8:
		return NewInt(int64(x))
	case int16:
		return NewInt(int64(x))
	case int32:
		return NewInt(int64(x))
	case int64:
		return NewInt(x)
	case uint8:
		return NewInt(int64(x))
	case uint16:
		return NewInt(int64(x))
	case uint32:
		return NewInt(int64(x))
	case uint64:
		if x > math.MaxInt64 {
			return NewText(strconv.FormatUint(x, 10))
		}
		return NewInt(int64(x))
	case float32:
		return NewFloat(float64(x))
	case float64:
		return NewFloat(x)
	case string:
		return NewText(x)
	case []byte:
		return NewText(string(x))
	case time.Time:
		return NewText(x.Format("2006-01-02 15:04:05"))
	default:
		return NewText(fmt.Sprintf("%v", x))
	}
}

// Bind returns the value in the form database/sql expects as a statement
// argument. Arrays must be expanded by the caller before binding.
func (v Value) Bind() any {
	switch v.Type {
	case TypeBool:
		return v.Bool
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeText:
		return v.Str
	default:
		return nil
	}
}

// String renders the value for plain-text display. Null renders empty.
func (v Value) String() string {
	switch v.Type {
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeText:
		return v.Str
	case TypeArray:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return ""
	}
}

// MarshalJSON renders the tagged value as its plain JSON counterpart.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case TypeBool:
		return strconv.AppendBool(nil, v.Bool), nil
	case TypeInt:
		return strconv.AppendInt(nil, v.Int, 10), nil
	case TypeFloat:
		return json.Marshal(v.Float)
	case TypeText:
		return json.Marshal(v.Str)
	case TypeArray:
		return json.Marshal(v.Arr)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes plain JSON into the tagged form. Numbers without
// a fractional part become ints so that equality filters on integer
// columns keep their type.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromJSON(raw)
	return nil
}

func fromJSON(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return NewBool(x)
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return NewInt(i)
		}
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return NewFloat(f)
		}
		return NewText(string(x))
	case string:
		return NewText(x)
	case []any:
		arr := make([]Value, len(x))
		for i, e := range x {
			arr[i] = fromJSON(e)
		}
		return NewArray(arr)
	default:
		// Objects have no cell representation.
		return Null()
	}
}
