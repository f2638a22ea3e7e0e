package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the shape of a typed ledger value.
type Kind uint8

const (
	KindUInt Kind = iota + 1
	KindBool
	KindUTF8
	KindPrincipal
	KindOptional
	KindResponse
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindUInt:
		return "uint"
	case KindBool:
		return "bool"
	case KindUTF8:
		return "utf8"
	case KindPrincipal:
		return "principal"
	case KindOptional:
		return "optional"
	case KindResponse:
		return "response"
	case KindTuple:
		return "tuple"
	default:
		return "unknown"
	}
}

// Value is a typed value passed to and returned from contract functions.
// String renders the canonical form, so two values are equal exactly when
// their strings are.
type Value interface {
	Kind() Kind
	String() string
}

// UInt is an unsigned integer.
type UInt uint64

func (UInt) Kind() Kind       { return KindUInt }
func (u UInt) String() string { return "u" + strconv.FormatUint(uint64(u), 10) }

// Bool is a boolean.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// UTF8 is a unicode string.
type UTF8 string

func (UTF8) Kind() Kind       { return KindUTF8 }
func (s UTF8) String() string { return "u" + strconv.Quote(string(s)) }

// Principal is an account or contract address.
type Principal string

func (Principal) Kind() Kind       { return KindPrincipal }
func (p Principal) String() string { return "'" + string(p) }

// Optional wraps a value that may be absent. A nil Inner is none.
type Optional struct {
	Inner Value
}

// None returns the empty optional.
func None() Optional { return Optional{} }

// Some wraps v.
func Some(v Value) Optional { return Optional{Inner: v} }

func (Optional) Kind() Kind { return KindOptional }

// IsNone reports whether the optional is empty.
func (o Optional) IsNone() bool { return o.Inner == nil }

func (o Optional) String() string {
	if o.Inner == nil {
		return "none"
	}
	return "(some " + o.Inner.String() + ")"
}

// Response is the result of a public function: ok or err with a payload.
type Response struct {
	OK    bool
	Inner Value
}

// Ok builds a successful response.
func Ok(v Value) Response { return Response{OK: true, Inner: v} }

// Err builds a failed response.
func Err(v Value) Response { return Response{OK: false, Inner: v} }

func (Response) Kind() Kind { return KindResponse }

func (r Response) String() string {
	tag := "err"
	if r.OK {
		tag = "ok"
	}
	return "(" + tag + " " + r.Inner.String() + ")"
}

// Tuple is a record of named values.
type Tuple struct {
	Fields map[string]Value
}

// NewTuple builds a tuple from fields.
func NewTuple(fields map[string]Value) Tuple {
	copied := make(map[string]Value, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Tuple{Fields: copied}
}

func (Tuple) Kind() Kind { return KindTuple }

// Get returns the named field.
func (t Tuple) Get(name string) (Value, bool) {
	v, ok := t.Fields[name]
	return v, ok
}

// Keys returns field names in sorted order.
func (t Tuple) Keys() []string {
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t Tuple) String() string {
	var b strings.Builder
	b.WriteString("(tuple")
	for _, k := range t.Keys() {
		fmt.Fprintf(&b, " (%s %s)", k, t.Fields[k].String())
	}
	b.WriteString(")")
	return b.String()
}

// Equal compares two values structurally.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.String() == b.String()
}
