package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the dynamic type of a Value
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBoolean
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindNumber:
		return "NUMBER"
	case KindText:
		return "TEXT"
	case KindBoolean:
		return "BOOLEAN"
	case KindDate:
		return "DATE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// dateLayouts are tried in order when text has to be read as a date
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// Value is a tagged scalar stored in a row cell. The zero Value is NULL.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	Time time.Time
}

// Null returns the NULL value
func Null() Value { return Value{} }

// Number returns a numeric value
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Text returns a text value
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Boolean returns a boolean value
func Boolean(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// Date returns a date value truncated to the calendar day in UTC
func Date(t time.Time) Value {
	t = t.UTC()
	return Value{Kind: KindDate, Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// IsNull reports whether v is NULL
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsNumber coerces v to a number
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindText:
		return parseNumber(v.Str)
	default:
		return 0, false
	}
}

// AsDate coerces v to a date
func (v Value) AsDate() (time.Time, bool) {
	switch v.Kind {
	case KindDate:
		return v.Time, true
	case KindText:
		return ParseDate(v.Str)
	default:
		return time.Time{}, false
	}
}

// Truthy coerces v to a boolean
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case KindText:
		return v.Str != ""
	case KindBoolean:
		return v.Bool
	case KindDate:
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindText:
		return v.Str
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		return v.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// Interface returns v as a plain Go value (nil, float64, string, bool or time.Time)
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		return v.Str
	case KindBoolean:
		return v.Bool
	case KindDate:
		return v.Time
	default:
		return nil
	}
}

// FormatNumber prints integral numbers without a fractional part
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ParseDate reads text in one of the accepted date layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// LooseEqual compares two values with numeric/text coercion. NULL only equals NULL.
func LooseEqual(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind == KindDate || b.Kind == KindDate {
		ta, okA := a.AsDate()
		tb, okB := b.AsDate()
		return okA && okB && ta.Equal(tb)
	}
	if a.Kind == KindText && b.Kind == KindText {
		return a.Str == b.Str
	}
	na, okA := a.AsNumber()
	nb, okB := b.AsNumber()
	return okA && okB && na == nb
}

// Compare orders two non-null values. ok is false when the values are not comparable.
func Compare(a, b Value) (int, bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	if a.Kind == KindDate || b.Kind == KindDate {
		ta, okA := a.AsDate()
		tb, okB := b.AsDate()
		if !okA || !okB {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if a.Kind == KindText && b.Kind == KindText {
		return strings.Compare(a.Str, b.Str), true
	}
	na, okA := a.AsNumber()
	nb, okB := b.AsNumber()
	if !okA || !okB {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// SortCompare is a total order used for sorting: NULLs first, then Compare, then text.
func SortCompare(a, b Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	if c, ok := Compare(a, b); ok {
		return c
	}
	return strings.Compare(a.String(), b.String())
}

type dateJSON struct {
	Date string `json:"$date"`
}

// MarshalJSON encodes v as a plain JSON scalar. Dates are wrapped so they decode as dates.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Num)
	case KindText:
		return json.Marshal(v.Str)
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindDate:
		return json.Marshal(dateJSON{Date: v.String()})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes the form written by MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	case bool:
		*v = Boolean(x)
	case map[string]interface{}:
		s, ok := x["$date"].(string)
		if !ok {
			return fmt.Errorf("unsupported value object: %s", string(data))
		}
		t, ok := ParseDate(s)
		if !ok {
			return fmt.Errorf("invalid date value: %q", s)
		}
		*v = Date(t)
	default:
		return fmt.Errorf("unsupported value: %s", string(data))
	}
	return nil
}

// FromInterface converts a database/sql driver value into a Value
func FromInterface(val interface{}) Value {
	switch x := val.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case []byte:
		return Text(string(x))
	case string:
		return Text(x)
	case bool:
		return Boolean(x)
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case time.Time:
		if x.Hour() != 0 || x.Minute() != 0 || x.Second() != 0 || x.Nanosecond() != 0 {
			return Text(x.Format("2006-01-02 15:04:05"))
		}
		return Date(x)
	default:
		return Text(fmt.Sprintf("%v", x))
	}
}
