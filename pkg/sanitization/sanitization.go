package sanitization

import (
	"fmt"
	"strings"
	"unicode"
)

const redactedValue = "[REDACTED]"

const (
	emptyMaskedValue = "(empty)"
	maskedValue      = "***masked***"
)

// AllowedFields are field names that should bypass sanitization.
var AllowedFields = map[string]bool{
	"hosted_zone_id":     true,
	"alias_zone_id":      true,
	"distribution_id":    true,
	"domain_name":        true,
	"record_name":        true,
	"certificate_status": true,
}

// SanitizationType defines how to sanitize a field.
type SanitizationType int

const (
	FullyRedact SanitizationType = iota
	PartialMask
	ARNMask
)

// SensitiveFields defines fields that require explicit sanitization behavior.
//
// Keys are lowercased field names.
var SensitiveFields = map[string]SanitizationType{
	"aws_secret_access_key": FullyRedact,
	"aws_session_token":     FullyRedact,
	"secret_access_key":     FullyRedact,
	"session_token":         FullyRedact,
	"password":              FullyRedact,
	"secret":                FullyRedact,
	"private_key":           FullyRedact,
	"authorization":         FullyRedact,

	"account":           PartialMask,
	"account_id":        PartialMask,
	"aws_access_key_id": PartialMask,
	"access_key_id":     PartialMask,

	"arn":             ARNMask,
	"certificate_arn": ARNMask,
	"topic_arn":       ARNMask,
	"role_arn":        ARNMask,
}

// SanitizeLogString removes control characters that could enable log forging.
func SanitizeLogString(value string) string {
	if value == "" {
		return value
	}
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

// SanitizeFieldValue sanitizes a field value based on its key name.
func SanitizeFieldValue(key string, value any) any {
	keyLower := strings.ToLower(strings.TrimSpace(key))
	if keyLower == "" {
		return sanitizeValue(value)
	}
	if AllowedFields[keyLower] {
		return sanitizeValue(value)
	}

	if typ, ok := SensitiveFields[keyLower]; ok {
		switch typ {
		case FullyRedact:
			return redactedValue
		case PartialMask:
			return maskRestrictedValue(value)
		case ARNMask:
			return maskARNValue(value)
		default:
			return redactedValue
		}
	}

	if strings.HasSuffix(keyLower, "_arn") {
		return maskARNValue(value)
	}

	blockedSubstrings := []string{
		"secret",
		"token",
		"password",
		"private_key",
		"authorization",
	}
	for _, substr := range blockedSubstrings {
		if strings.Contains(keyLower, substr) {
			return redactedValue
		}
	}

	return sanitizeValue(value)
}

// MaskARN hides the account segment of an ARN while keeping partition,
// service, region and resource readable.
//
// Values that do not look like an ARN are masked with MaskFirstLast4.
func MaskARN(value string) string {
	value = SanitizeLogString(strings.TrimSpace(value))
	if value == "" {
		return emptyMaskedValue
	}
	parts := strings.SplitN(value, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return MaskFirstLast4(value)
	}
	if account := parts[4]; account != "" {
		parts[4] = maskRestrictedString(account)
	}
	return strings.Join(parts, ":")
}

// MaskFirstLast keeps the first prefixLen and last suffixLen characters and masks the middle.
func MaskFirstLast(value string, prefixLen, suffixLen int) string {
	if value == "" {
		return emptyMaskedValue
	}
	if prefixLen < 0 || suffixLen < 0 {
		return maskedValue
	}
	if len(value) <= prefixLen+suffixLen {
		return maskedValue
	}
	return value[:prefixLen] + "***" + value[len(value)-suffixLen:]
}

// MaskFirstLast4 keeps the first and last 4 characters and masks the middle.
func MaskFirstLast4(value string) string {
	return MaskFirstLast(value, 4, 4)
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return SanitizeLogString(typed)
	case []byte:
		return SanitizeLogString(string(typed))
	case bool, int, int64, float64:
		return typed
	case []string:
		out := make([]string, len(typed))
		for i := range typed {
			out[i] = SanitizeLogString(typed[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = SanitizeFieldValue(k, v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = sanitizeValue(typed[i])
		}
		return out
	default:
		return SanitizeLogString(fmt.Sprintf("%v", typed))
	}
}

func maskARNValue(value any) string {
	switch v := value.(type) {
	case string:
		return MaskARN(v)
	case []byte:
		return MaskARN(string(v))
	case fmt.Stringer:
		return MaskARN(v.String())
	default:
		return redactedValue
	}
}

func maskRestrictedValue(value any) string {
	switch v := value.(type) {
	case string:
		return maskRestrictedString(v)
	case []byte:
		return maskRestrictedString(string(v))
	default:
		return redactedValue
	}
}

func maskRestrictedString(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return redactedValue
	}

	// Account ids: mask all but the last 4 digits.
	cleaned := stripNonDigits(value)
	if len(cleaned) >= 4 && len(cleaned) == len(value) {
		if len(cleaned) == 4 {
			return strings.Repeat("*", 4)
		}
		return strings.Repeat("*", len(cleaned)-4) + cleaned[len(cleaned)-4:]
	}

	// Access key ids and other identifiers: show last 4.
	if len(value) >= 4 {
		return "..." + value[len(value)-4:]
	}
	return redactedValue
}

func stripNonDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
