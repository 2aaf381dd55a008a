package types

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Tag identifies the variant held by a Value.
type Tag string

const (
	TagNull   Tag = "Null"
	TagBool   Tag = "Bool"
	TagNumber Tag = "Number"
	TagString Tag = "String"
	TagBytes  Tag = "Bytes"
	TagJSON   Tag = "Json"
	TagArray  Tag = "Array"
	TagObject Tag = "Object"
)

// Value is the closed tagged variant carried between nodes. Exactly one
// of the typed fields is meaningful, selected by Tag; equality is
// structural (see Equal).
type Value struct {
	tag     Tag
	boolean bool
	number  float64
	str     string
	bytes   []byte
	json    any
	array   []Value
	object  map[string]Value
}

// Null is the singleton null Value.
var Null = Value{tag: TagNull}

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{tag: TagBool, boolean: b} }

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{tag: TagNumber, number: n} }

// String constructs a string Value.
func String(s string) Value { return Value{tag: TagString, str: s} }

// Bytes constructs a raw-byte Value.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{tag: TagBytes, bytes: cp}
}

// JSON constructs a Value wrapping an arbitrary decoded JSON payload
// (map[string]any, []any, string, float64, bool, nil — whatever
// encoding/json produced). It is distinct from Object/Array so a node
// that genuinely wants "opaque JSON passthrough" does not have to
// reconstruct a typed Array/Object tree.
func JSON(v any) Value { return Value{tag: TagJSON, json: v} }

// Array constructs an array Value.
func Array(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{tag: TagArray, array: cp}
}

// Object constructs an object Value.
func Object(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{tag: TagObject, object: cp}
}

// Tag reports the variant held by v.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether v holds the null variant.
func (v Value) IsNull() bool { return v.tag == TagNull }

// AsBool narrows v to bool, reporting ok=false on a tag mismatch.
func (v Value) AsBool() (b bool, ok bool) {
	if v.tag != TagBool {
		return false, false
	}
	return v.boolean, true
}

// AsNumber narrows v to float64, reporting ok=false on a tag mismatch.
func (v Value) AsNumber() (n float64, ok bool) {
	if v.tag != TagNumber {
		return 0, false
	}
	return v.number, true
}

// AsString narrows v to string, reporting ok=false on a tag mismatch.
func (v Value) AsString() (s string, ok bool) {
	if v.tag != TagString {
		return "", false
	}
	return v.str, true
}

// AsBytes narrows v to []byte, reporting ok=false on a tag mismatch.
func (v Value) AsBytes() (b []byte, ok bool) {
	if v.tag != TagBytes {
		return nil, false
	}
	return v.bytes, true
}

// AsJSON narrows v to its raw decoded payload, reporting ok=false on a
// tag mismatch.
func (v Value) AsJSON() (j any, ok bool) {
	if v.tag != TagJSON {
		return nil, false
	}
	return v.json, true
}

// AsArray narrows v to []Value, reporting ok=false on a tag mismatch.
func (v Value) AsArray() (a []Value, ok bool) {
	if v.tag != TagArray {
		return nil, false
	}
	return v.array, true
}

// AsObject narrows v to map[string]Value, reporting ok=false on a tag
// mismatch.
func (v Value) AsObject() (o map[string]Value, ok bool) {
	if v.tag != TagObject {
		return nil, false
	}
	return v.object, true
}

// Equal reports whether v and other are structurally identical.
func (v Value) Equal(other Value) bool {
	if v.tag != other.tag {
		return false
	}
	switch v.tag {
	case TagNull:
		return true
	case TagBool:
		return v.boolean == other.boolean
	case TagNumber:
		return v.number == other.number
	case TagString:
		return v.str == other.str
	case TagBytes:
		if len(v.bytes) != len(other.bytes) {
			return false
		}
		for i := range v.bytes {
			if v.bytes[i] != other.bytes[i] {
				return false
			}
		}
		return true
	case TagJSON:
		a, _ := json.Marshal(v.json)
		b, _ := json.Marshal(other.json)
		return string(a) == string(b)
	case TagArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	case TagObject:
		if len(v.object) != len(other.object) {
			return false
		}
		for k, a := range v.object {
			b, ok := other.object[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// wireValue is the tag-wrapped JSON form: {"type": Tag, "value": payload}.
type wireValue struct {
	Type  Tag             `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements the tag-wrapped wire format from spec.md §6:
// {"type": <Tag>, "value": <payload>}, with Bytes base64-encoded.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.tag {
	case TagNull:
		return json.Marshal(wireValue{Type: TagNull})
	case TagBool:
		payload = v.boolean
	case TagNumber:
		payload = v.number
	case TagString:
		payload = v.str
	case TagBytes:
		payload = base64.StdEncoding.EncodeToString(v.bytes)
	case TagJSON:
		payload = v.json
	case TagArray:
		payload = v.array
	case TagObject:
		payload = v.object
	default:
		return nil, fmt.Errorf("types: value has unknown tag %q", v.tag)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("types: marshal value payload: %w", err)
	}
	return json.Marshal(wireValue{Type: v.tag, Value: raw})
}

// UnmarshalJSON decodes the tag-wrapped wire format, rejecting unknown
// tags per spec.md §6 ("Decoders must reject unknown tags").
func (v *Value) UnmarshalJSON(data []byte) error {
	var wire wireValue
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("types: decode tagged value: %w", err)
	}
	switch wire.Type {
	case TagNull:
		*v = Null
	case TagBool:
		var b bool
		if err := json.Unmarshal(wire.Value, &b); err != nil {
			return fmt.Errorf("types: decode Bool value: %w", err)
		}
		*v = Bool(b)
	case TagNumber:
		var n float64
		if err := json.Unmarshal(wire.Value, &n); err != nil {
			return fmt.Errorf("types: decode Number value: %w", err)
		}
		*v = Number(n)
	case TagString:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("types: decode String value: %w", err)
		}
		*v = String(s)
	case TagBytes:
		var encoded string
		if err := json.Unmarshal(wire.Value, &encoded); err != nil {
			return fmt.Errorf("types: decode Bytes value: %w", err)
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("types: decode base64 Bytes value: %w", err)
		}
		*v = Bytes(raw)
	case TagJSON:
		var j any
		if err := json.Unmarshal(wire.Value, &j); err != nil {
			return fmt.Errorf("types: decode Json value: %w", err)
		}
		*v = JSON(j)
	case TagArray:
		var items []Value
		if err := json.Unmarshal(wire.Value, &items); err != nil {
			return fmt.Errorf("types: decode Array value: %w", err)
		}
		*v = Array(items)
	case TagObject:
		var fields map[string]Value
		if err := json.Unmarshal(wire.Value, &fields); err != nil {
			return fmt.Errorf("types: decode Object value: %w", err)
		}
		*v = Object(fields)
	default:
		return fmt.Errorf("types: unknown value tag %q", wire.Type)
	}
	return nil
}
