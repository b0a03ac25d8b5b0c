package opentelemetry

import "strings"

// ObfuscatedValue replaces sensitive values.
const ObfuscatedValue = "********"

var sensitiveFields = map[string]struct{}{
	"pin":              {},
	"token":            {},
	"refreshtoken":     {},
	"nationalid":       {},
	"securityanswer":   {},
	"contact":          {},
	"digitalreference": {},
}

// IsSensitiveField reports whether a JSON field name holds data that must
// never leave the process in clear.
func IsSensitiveField(name string) bool {
	_, ok := sensitiveFields[strings.ToLower(name)]

	return ok
}

func obfuscate(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))

		for k, val := range typed {
			if IsSensitiveField(k) {
				out[k] = ObfuscatedValue

				continue
			}

			out[k] = obfuscate(val)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = obfuscate(val)
		}

		return out
	default:
		return v
	}
}
