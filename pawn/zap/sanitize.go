package zap

import (
	"strings"

	"github.com/LerianStudio/lib-pawn/pawn/opentelemetry"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
)

// Ticket numbers and staff ids are typed at the counter; a stray newline
// must not forge a second log line in the console encoder.
var controlCharReplacer = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func sanitizeString(s string) string {
	return controlCharReplacer.Replace(s)
}

// sanitizeValue returns the value to log for key. National IDs are masked,
// other fields the tracer obfuscates are dropped, strings are escaped.
func sanitizeValue(key string, value any) any {
	k := strings.ReplaceAll(strings.ToLower(key), "_", "")

	if strings.HasSuffix(k, "nationalid") {
		switch v := value.(type) {
		case ticket.NationalID:
			return v.Masked()
		case string:
			return ticket.NationalID(v).Masked()
		default:
			return opentelemetry.ObfuscatedValue
		}
	}

	if opentelemetry.IsSensitiveField(k) {
		return opentelemetry.ObfuscatedValue
	}

	if s, ok := value.(string); ok {
		return sanitizeString(s)
	}

	return value
}
