package ifood

import (
	"encoding/json"
	"strings"
)

func asMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return nil
}

func asSlice(value any) []any {
	if values, ok := value.([]any); ok {
		return values
	}
	return nil
}

// payloadString returns the first non-empty string found under any of the
// given keys, matched case-insensitively. Upstream payloads rename fields
// across versions, so extraction is a fallback chain rather than one key.
func payloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		for actualKey, rawValue := range payload {
			if !strings.EqualFold(strings.TrimSpace(actualKey), strings.TrimSpace(key)) {
				continue
			}
			if value, ok := rawValue.(string); ok {
				if token := strings.TrimSpace(value); token != "" {
					return token
				}
			}
		}
	}
	return ""
}

// payloadScalar is payloadString that also stringifies numeric values, for
// fields upstream serves as number or string interchangeably (zip codes).
func payloadScalar(payload map[string]any, keys ...string) string {
	if value := payloadString(payload, keys...); value != "" {
		return value
	}
	for _, key := range keys {
		for actualKey, rawValue := range payload {
			if !strings.EqualFold(strings.TrimSpace(actualKey), strings.TrimSpace(key)) {
				continue
			}
			switch value := rawValue.(type) {
			case float64:
				if raw, err := json.Marshal(value); err == nil {
					return string(raw)
				}
			case json.Number:
				return value.String()
			}
		}
	}
	return ""
}

func payloadInt(payload map[string]any, keys ...string) int {
	for _, key := range keys {
		for actualKey, rawValue := range payload {
			if !strings.EqualFold(strings.TrimSpace(actualKey), strings.TrimSpace(key)) {
				continue
			}
			switch value := rawValue.(type) {
			case float64:
				return int(value)
			case int:
				return value
			case int64:
				return int(value)
			case json.Number:
				if parsed, err := value.Int64(); err == nil {
					return int(parsed)
				}
			}
		}
	}
	return 0
}

func payloadFloat(payload map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		for actualKey, rawValue := range payload {
			if !strings.EqualFold(strings.TrimSpace(actualKey), strings.TrimSpace(key)) {
				continue
			}
			switch value := rawValue.(type) {
			case float64:
				return value, true
			case int:
				return float64(value), true
			case int64:
				return float64(value), true
			case json.Number:
				if parsed, err := value.Float64(); err == nil {
					return parsed, true
				}
			}
		}
	}
	return 0, false
}

func payloadBool(payload map[string]any, keys ...string) bool {
	for _, key := range keys {
		for actualKey, rawValue := range payload {
			if !strings.EqualFold(strings.TrimSpace(actualKey), strings.TrimSpace(key)) {
				continue
			}
			if value, ok := rawValue.(bool); ok {
				return value
			}
		}
	}
	return false
}
