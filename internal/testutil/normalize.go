package testutil

import (
	"encoding/json"
	"reflect"
	"testing"
)

// volatileFields change between otherwise identical runs
var volatileFields = map[string]bool{
	"generated_at": true,
	"generatedAt":  true,
	"created_at":   true,
	"updated_at":   true,
	"lastScanned":  true,
	"duration":     true,
	"run_id":       true,
	"timestamp":    true,
}

// Normalize round-trips v through JSON and drops volatile fields, so two
// results can be compared structurally.
func Normalize(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}
	return strip(out)
}

func strip(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			if volatileFields[k] {
				delete(val, k)
				continue
			}
			val[k] = strip(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = strip(item)
		}
		return val
	default:
		return v
	}
}

// EqualIgnoringVolatile reports whether a and b are equal once volatile
// fields are removed.
func EqualIgnoringVolatile(t *testing.T, a, b any) bool {
	t.Helper()
	return reflect.DeepEqual(Normalize(t, a), Normalize(t, b))
}

// StructToMap converts a struct to a map[string]any via JSON
func StructToMap(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal struct: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Failed to unmarshal to map: %v", err)
	}
	return out
}
