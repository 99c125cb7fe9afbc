package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of secret-bearing log fields.
const RedactedValue = "[REDACTED]"

// Keys whose values never reach the log sink. Matching ignores case, dashes
// and underscores.
var sensitiveKeys = map[string]struct{}{
	"signature":     {},
	"sig":           {},
	"passphrase":    {},
	"password":      {},
	"privatekey":    {},
	"secret":        {},
	"authorization": {},
	"token":         {},
	"headers":       {},
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer("-", "", "_", "").Replace(key)
}

// IsSensitive reports whether values logged under key are masked.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[normalizeKey(key)]
	return ok
}

// redactAttr masks non-empty values of sensitive keys. Groups are walked so
// nested attributes get the same treatment.
func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		inner := attr.Value.Group()
		masked := make([]any, 0, len(inner))
		for _, a := range inner {
			masked = append(masked, redactAttr(a))
		}
		return slog.Group(attr.Key, masked...)
	}
	if !IsSensitive(attr.Key) {
		return attr
	}
	if strings.TrimSpace(attr.Value.String()) == "" {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}
