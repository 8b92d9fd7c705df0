package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash  = regexp.MustCompile(`-+`)
	nonIDChars = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}

// NormalizeStage maps stage aliases to canonical values.
func NormalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	switch stage {
	case "prod", "production", "live":
		return "live"
	case "dev", "development":
		return "dev"
	case "stg", "stage", "staging":
		return "stage"
	case "test", "testing":
		return "test"
	case "local":
		return "local"
	default:
		return sanitizePart(stage)
	}
}

// StackName returns a deterministic CloudFormation stack name:
// - <app>
// - <app>-<stage> (when stage is provided)
func StackName(appName, stage string) string {
	parts := []string{sanitizePart(appName)}
	if stage = NormalizeStage(stage); stage != "" {
		parts = append(parts, stage)
	}
	return strings.Trim(strings.Join(parts, "-"), "-")
}

// FQDN joins a record label and a domain with a literal dot.
//
// The result is lowercased and carries no trailing dot. An empty label yields
// the apex domain.
func FQDN(label, domain string) string {
	label = strings.Trim(strings.ToLower(strings.TrimSpace(label)), ".")
	domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
	if label == "" {
		return domain
	}
	if domain == "" {
		return label
	}
	return label + "." + domain
}

// ZoneName returns the fully qualified form Route 53 reports for a zone
// ("example.com.").
func ZoneName(domain string) string {
	domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return ""
	}
	return domain + "."
}

// ConstructID converts a free-form name into a PascalCase construct id.
//
// "cloudfront-website" becomes "CloudfrontWebsite".
func ConstructID(name string) string {
	words := nonIDChars.Split(strings.TrimSpace(name), -1)
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}
