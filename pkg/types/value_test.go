package types

import (
	"encoding/json"
	"testing"
)

func TestValue_JSONRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"null", Null},
		{"bool true", Bool(true)},
		{"bool false", Bool(false)},
		{"number", Number(42.5)},
		{"string", String("hello")},
		{"bytes", Bytes([]byte{0x00, 0x01, 0xff})},
		{"json payload", JSON(map[string]any{"a": float64(1), "b": "two"})},
		{"array", Array([]Value{Number(1), String("x"), Bool(true)})},
		{"object", Object(map[string]Value{"k1": Number(1), "k2": String("v")})},
		{"nested object", Object(map[string]Value{
			"inner": Object(map[string]Value{"x": Bool(true)}),
			"items": Array([]Value{Number(1), Number(2)}),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var got Value
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !got.Equal(tt.v) {
				t.Errorf("roundtrip mismatch: got %+v, want %+v (wire: %s)", got, tt.v, data)
			}
		})
	}
}

func TestValue_MarshalJSON_UsesTagWrapper(t *testing.T) {
	data, err := json.Marshal(String("hi"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var wire struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if wire.Type != string(TagString) {
		t.Errorf("expected type %q, got %q", TagString, wire.Type)
	}
	if wire.Value != "hi" {
		t.Errorf("expected value %q, got %q", "hi", wire.Value)
	}
}

func TestValue_UnmarshalJSON_RejectsUnknownTag(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"type":"NotATag","value":1}`), &v)
	if err == nil {
		t.Fatal("expected an error decoding an unknown tag")
	}
}

func TestValue_Equal_DetectsDifferentTags(t *testing.T) {
	if Number(0).Equal(Bool(false)) {
		t.Error("values of different tags must never compare equal")
	}
}

func TestValue_Bytes_CopiesOnConstruction(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Bytes(src)
	src[0] = 99

	got, ok := v.AsBytes()
	if !ok {
		t.Fatal("AsBytes() ok = false")
	}
	if got[0] != 1 {
		t.Error("Bytes() should copy its input, not alias it")
	}
}
