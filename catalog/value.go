package catalog

import "github.com/flowcore/engine/pkg/types"

// toNative converts a types.Value into the plain Go value expr-lang's
// environment expects (bool, float64, string, []byte, []any,
// map[string]any, or nil), mirroring the teacher's buildEnvironment
// conversion but keyed off this engine's tagged Value instead of a
// bare interface{}.
func toNative(v types.Value) any {
	switch v.Tag() {
	case types.TagNull:
		return nil
	case types.TagBool:
		b, _ := v.AsBool()
		return b
	case types.TagNumber:
		n, _ := v.AsNumber()
		return n
	case types.TagString:
		s, _ := v.AsString()
		return s
	case types.TagBytes:
		b, _ := v.AsBytes()
		return b
	case types.TagJSON:
		j, _ := v.AsJSON()
		return j
	case types.TagArray:
		arr, _ := v.AsArray()
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = toNative(item)
		}
		return out
	case types.TagObject:
		obj, _ := v.AsObject()
		out := make(map[string]any, len(obj))
		for k, item := range obj {
			out[k] = toNative(item)
		}
		return out
	default:
		return nil
	}
}

// fromNative converts an expr-lang result back into a types.Value,
// widening Go's numeric kinds to Number the way the wire format expects.
func fromNative(v any) types.Value {
	switch x := v.(type) {
	case nil:
		return types.Null
	case bool:
		return types.Bool(x)
	case string:
		return types.String(x)
	case []byte:
		return types.Bytes(x)
	case float64:
		return types.Number(x)
	case float32:
		return types.Number(float64(x))
	case int:
		return types.Number(float64(x))
	case int64:
		return types.Number(float64(x))
	case []any:
		items := make([]types.Value, len(x))
		for i, item := range x {
			items[i] = fromNative(item)
		}
		return types.Array(items)
	case map[string]any:
		fields := make(map[string]types.Value, len(x))
		for k, item := range x {
			fields[k] = fromNative(item)
		}
		return types.Object(fields)
	default:
		return types.JSON(x)
	}
}
