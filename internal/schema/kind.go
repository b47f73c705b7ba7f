package schema

import (
	"fmt"
	"strconv"
	"time"
)

// Kind selects the pair of field generators used for an attribute.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindBool
	KindDatetime
	KindChoice
	KindList
	KindObject
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindInt:      "int",
	KindBool:     "bool",
	KindDatetime: "datetime",
	KindChoice:   "choice",
	KindList:     "list",
	KindObject:   "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Nested reports whether the kind holds sub-structures instead of a value.
func (k Kind) Nested() bool {
	return k == KindList || k == KindObject
}

// Value is the tagged value of one scalar or choice attribute. The same
// representation is shared by input fields and stored columns so that a
// submitted form converts to storage by attribute name alone.
type Value struct {
	kind Kind
	str  string
	num  int64
	flag bool
	at   time.Time
	set  bool
}

func StringValue(s string) Value { return Value{kind: KindString, str: s, set: s != ""} }
func IntValue(n int64) Value     { return Value{kind: KindInt, num: n, set: true} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, flag: b, set: b} }
func ChoiceValue(s string) Value { return Value{kind: KindChoice, str: s, set: s != ""} }

func TimeValue(t time.Time) Value {
	return Value{kind: KindDatetime, at: t, set: !t.IsZero()}
}

// Kind returns the kind the value was created for. The zero Value has kind 0.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is empty: an empty string or choice,
// an unchecked bool, a zero time, or an absent value.
func (v Value) IsZero() bool { return !v.set }

// Str returns the text of a string or choice value.
func (v Value) Str() string { return v.str }

func (v Value) Int() int64      { return v.num }
func (v Value) Bool() bool      { return v.flag }
func (v Value) Time() time.Time { return v.at }

// String formats the value for display and export.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindChoice:
		return v.str
	case KindInt:
		if !v.set {
			return ""
		}
		return strconv.FormatInt(v.num, 10)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindDatetime:
		if v.at.IsZero() {
			return ""
		}
		return v.at.Format(time.RFC3339)
	default:
		return ""
	}
}

// Any returns the value as a plain Go value for JSON encoding.
func (v Value) Any() any {
	switch v.kind {
	case KindString, KindChoice:
		return v.str
	case KindInt:
		if !v.set {
			return nil
		}
		return v.num
	case KindBool:
		return v.flag
	case KindDatetime:
		if v.at.IsZero() {
			return nil
		}
		return v.at
	default:
		return nil
	}
}

func (v Value) GoString() string {
	return fmt.Sprintf("schema.Value{%s %q}", v.kind, v.String())
}
