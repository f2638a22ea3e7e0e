package value

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type jsonEnvelope struct {
	Type  string              `json:"type"`
	Value jsoniter.RawMessage `json:"value"`
}

// Encode renders v as typed JSON, e.g. {"type":"uint","value":"1"}.
func Encode(v Value) ([]byte, error) {
	jv, err := toJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jv)
}

// Decode parses typed JSON produced by Encode.
func Decode(data []byte) (Value, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return fromJSON(env)
}

// JSON adapts a Value for use inside request and response bodies.
type JSON struct {
	Value Value
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j.Value == nil {
		return []byte("null"), nil
	}
	return Encode(j.Value)
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	j.Value = v
	return nil
}

func toJSON(v Value) (jsonValue, error) {
	switch t := v.(type) {
	case UInt:
		return jsonValue{Type: "uint", Value: strconv.FormatUint(uint64(t), 10)}, nil
	case Bool:
		return jsonValue{Type: "bool", Value: bool(t)}, nil
	case UTF8:
		return jsonValue{Type: "utf8", Value: string(t)}, nil
	case Principal:
		return jsonValue{Type: "principal", Value: string(t)}, nil
	case Optional:
		if t.IsNone() {
			return jsonValue{Type: "optional", Value: nil}, nil
		}
		inner, err := toJSON(t.Inner)
		if err != nil {
			return jsonValue{}, err
		}
		return jsonValue{Type: "optional", Value: inner}, nil
	case Response:
		inner, err := toJSON(t.Inner)
		if err != nil {
			return jsonValue{}, err
		}
		tag := "err"
		if t.OK {
			tag = "ok"
		}
		return jsonValue{Type: tag, Value: inner}, nil
	case Tuple:
		fields := make(map[string]jsonValue, len(t.Fields))
		for k, fv := range t.Fields {
			inner, err := toJSON(fv)
			if err != nil {
				return jsonValue{}, err
			}
			fields[k] = inner
		}
		return jsonValue{Type: "tuple", Value: fields}, nil
	case nil:
		return jsonValue{}, errors.New("encode value: nil")
	default:
		return jsonValue{}, fmt.Errorf("encode value: unsupported %T", v)
	}
}

func fromJSON(env jsonEnvelope) (Value, error) {
	switch env.Type {
	case "uint":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			// bare numbers are accepted for convenience
			var n uint64
			if err := json.Unmarshal(env.Value, &n); err != nil {
				return nil, fmt.Errorf("decode uint: %w", err)
			}
			return UInt(n), nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode uint: %w", err)
		}
		return UInt(n), nil
	case "bool":
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, fmt.Errorf("decode bool: %w", err)
		}
		return Bool(b), nil
	case "utf8":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode utf8: %w", err)
		}
		if !utf8.ValidString(s) {
			return nil, errors.New("decode utf8: invalid utf-8")
		}
		return UTF8(s), nil
	case "principal":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode principal: %w", err)
		}
		if s == "" {
			return nil, errors.New("decode principal: empty")
		}
		return Principal(s), nil
	case "optional":
		if len(env.Value) == 0 || string(env.Value) == "null" {
			return None(), nil
		}
		inner, err := Decode(env.Value)
		if err != nil {
			return nil, err
		}
		return Some(inner), nil
	case "ok", "err":
		inner, err := Decode(env.Value)
		if err != nil {
			return nil, err
		}
		return Response{OK: env.Type == "ok", Inner: inner}, nil
	case "tuple":
		var raw map[string]jsoniter.RawMessage
		if err := json.Unmarshal(env.Value, &raw); err != nil {
			return nil, fmt.Errorf("decode tuple: %w", err)
		}
		fields := make(map[string]Value, len(raw))
		for k, data := range raw {
			v, err := Decode(data)
			if err != nil {
				return nil, fmt.Errorf("decode tuple field %s: %w", k, err)
			}
			fields[k] = v
		}
		return Tuple{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("decode value: unknown type %q", env.Type)
	}
}
