package value

import (
	"fmt"
	"unicode/utf8"

	"github.com/ticketledger/ticket-ledger/internal/codec"
)

// Wire is the binary form of a Value. It is what transaction and block
// hashes are computed over.
type Wire struct {
	Kind   Kind            `cbor:"1,keyasint"`
	UInt   uint64          `cbor:"2,keyasint,omitempty"`
	Bool   bool            `cbor:"3,keyasint,omitempty"`
	Text   string          `cbor:"4,keyasint,omitempty"`
	Inner  *Wire           `cbor:"5,keyasint,omitempty"`
	Fields map[string]Wire `cbor:"6,keyasint,omitempty"`
}

// ToWire converts v to its binary form.
func ToWire(v Value) Wire {
	switch t := v.(type) {
	case UInt:
		return Wire{Kind: KindUInt, UInt: uint64(t)}
	case Bool:
		return Wire{Kind: KindBool, Bool: bool(t)}
	case UTF8:
		return Wire{Kind: KindUTF8, Text: string(t)}
	case Principal:
		return Wire{Kind: KindPrincipal, Text: string(t)}
	case Optional:
		w := Wire{Kind: KindOptional}
		if !t.IsNone() {
			inner := ToWire(t.Inner)
			w.Inner = &inner
		}
		return w
	case Response:
		inner := ToWire(t.Inner)
		return Wire{Kind: KindResponse, Bool: t.OK, Inner: &inner}
	case Tuple:
		fields := make(map[string]Wire, len(t.Fields))
		for k, fv := range t.Fields {
			fields[k] = ToWire(fv)
		}
		return Wire{Kind: KindTuple, Fields: fields}
	default:
		return Wire{}
	}
}

// FromWire converts the binary form back to a Value.
func FromWire(w Wire) (Value, error) {
	switch w.Kind {
	case KindUInt:
		return UInt(w.UInt), nil
	case KindBool:
		return Bool(w.Bool), nil
	case KindUTF8:
		if !utf8.ValidString(w.Text) {
			return nil, fmt.Errorf("wire: invalid utf-8 text")
		}
		return UTF8(w.Text), nil
	case KindPrincipal:
		return Principal(w.Text), nil
	case KindOptional:
		if w.Inner == nil {
			return None(), nil
		}
		inner, err := FromWire(*w.Inner)
		if err != nil {
			return nil, err
		}
		return Some(inner), nil
	case KindResponse:
		if w.Inner == nil {
			return nil, fmt.Errorf("wire: response without payload")
		}
		inner, err := FromWire(*w.Inner)
		if err != nil {
			return nil, err
		}
		return Response{OK: w.Bool, Inner: inner}, nil
	case KindTuple:
		fields := make(map[string]Value, len(w.Fields))
		for k, fw := range w.Fields {
			fv, err := FromWire(fw)
			if err != nil {
				return nil, err
			}
			fields[k] = fv
		}
		return Tuple{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("wire: unknown kind %d", w.Kind)
	}
}

// MarshalBinary encodes v as deterministic CBOR.
func MarshalBinary(v Value) ([]byte, error) {
	return codec.Marshal(ToWire(v))
}

// UnmarshalBinary decodes CBOR produced by MarshalBinary.
func UnmarshalBinary(data []byte) (Value, error) {
	var w Wire
	if err := codec.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	return FromWire(w)
}
