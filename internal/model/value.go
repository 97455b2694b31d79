package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type valueKind uint8

const (
	valueNull valueKind = iota
	valueString
	valueNumber
)

// Value is a JSON scalar that may be a string, a number or null. Drawing
// records carry measured values in either form ("12.500", 12.5, "⌀25 H7").
type Value struct {
	kind valueKind
	str  string
	num  float64
}

// Null returns the null Value.
func Null() Value { return Value{} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: valueString, str: s} }

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value { return Value{kind: valueNumber, num: f} }

// IsNull reports whether v holds JSON null (or was never set).
func (v Value) IsNull() bool { return v.kind == valueNull }

// IsNumber reports whether v was decoded from a JSON number.
func (v Value) IsNumber() bool { return v.kind == valueNumber }

// Absent reports whether v carries nothing to search for: null or a blank
// string. Numeric zero is present.
func (v Value) Absent() bool {
	switch v.kind {
	case valueNull:
		return true
	case valueString:
		return strings.TrimSpace(v.str) == ""
	}
	return false
}

// String renders v the way it is displayed and compared: strings verbatim,
// numbers in shortest form (12.50 -> "12.5"), null as "".
func (v Value) String() string {
	switch v.kind {
	case valueString:
		return v.str
	case valueNumber:
		return FormatNumber(v.num)
	}
	return ""
}

// Float interprets v numerically. Strings are read by their leading numeric
// prefix, so "50.0 ±0.1" is 50 while "±0.1" is not a number.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case valueNumber:
		return v.num, !math.IsNaN(v.num)
	case valueString:
		return ParseLeadingFloat(v.str)
	}
	return 0, false
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null" || s == "":
		*v = Null()
	case s[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*v = StringValue(str)
	case s == "true" || s == "false":
		*v = StringValue(s)
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*v = NumberValue(f)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueString:
		return json.Marshal(v.str)
	case valueNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(FormatNumber(v.num)), nil
	}
	return []byte("null"), nil
}

// FormatNumber prints f in its shortest round-tripping decimal form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var leadingFloat = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// ParseLeadingFloat reads the longest numeric prefix of s after leading
// whitespace. It reports false when s does not start with a number.
func ParseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0, false
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
