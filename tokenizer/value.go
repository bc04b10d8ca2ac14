package tokenizer

import (
	"encoding/json"
	"fmt"
)

// ValueToString format a scalar attribute value into string
func ValueToString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case json.Number:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%v", val), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", val), nil
	case float64, float32:
		return fmt.Sprintf("%v", val), nil
	case bool:
		return fmt.Sprintf("%t", val), nil
	default:
		return "", fmt.Errorf("unsupported value type: %T", v)
	}
}
