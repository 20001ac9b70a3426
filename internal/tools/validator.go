package tools

import (
	"encoding/json"
	"fmt"
)

// decodeArgs parses raw tool-call arguments into a generic map.
// Empty arguments decode to an empty map.
func decodeArgs(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

// validateAgainstSchema checks required fields, types, and enums.
func validateAgainstSchema(schema Schema, args map[string]interface{}) error {
	for _, field := range schema.Parameters {
		val, exists := args[field.Name]
		if field.Required && !exists {
			return fmt.Errorf("%s is required", field.Name)
		}
		if !exists {
			continue
		}
		switch field.Type {
		case "string":
			if _, ok := val.(string); !ok {
				return fmt.Errorf("%s must be string", field.Name)
			}
		case "boolean":
			if _, ok := val.(bool); !ok {
				return fmt.Errorf("%s must be boolean", field.Name)
			}
		case "integer":
			switch val.(type) {
			case float64, int, int64:
			default:
				return fmt.Errorf("%s must be integer", field.Name)
			}
		}
		if len(field.Enum) > 0 {
			s, _ := val.(string)
			valid := false
			for _, allowed := range field.Enum {
				if s == allowed {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("%s must be one of %v", field.Name, field.Enum)
			}
		}
	}
	return nil
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]interface{}, name string) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
