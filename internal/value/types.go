package value

import (
	"fmt"
	"unicode/utf8"
)

// Type describes the accepted shape of a function argument.
type Type struct {
	Kind Kind
	// MaxLen bounds utf8 strings, counted in characters. Zero means unbounded.
	MaxLen int
}

var (
	TypeUInt      = Type{Kind: KindUInt}
	TypeBool      = Type{Kind: KindBool}
	TypePrincipal = Type{Kind: KindPrincipal}
)

// TypeUTF8 is a utf8 string of at most max characters.
func TypeUTF8(max int) Type {
	return Type{Kind: KindUTF8, MaxLen: max}
}

func (t Type) String() string {
	if t.Kind == KindUTF8 && t.MaxLen > 0 {
		return fmt.Sprintf("(string-utf8 %d)", t.MaxLen)
	}
	return t.Kind.String()
}

// Admit checks that v conforms to t.
func (t Type) Admit(v Value) error {
	if v == nil {
		return fmt.Errorf("expected %s, got nothing", t)
	}
	if v.Kind() != t.Kind {
		return fmt.Errorf("expected %s, got %s", t, v.Kind())
	}
	if t.Kind == KindUTF8 {
		s, _ := v.(UTF8)
		if !utf8.ValidString(string(s)) {
			return fmt.Errorf("expected %s, got invalid utf-8", t)
		}
		if n := utf8.RuneCountInString(string(s)); t.MaxLen > 0 && n > t.MaxLen {
			return fmt.Errorf("expected %s, got %d characters", t, n)
		}
	}
	return nil
}
