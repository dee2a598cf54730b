package logging

import (
	"regexp"
)

const (
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential API keys in query strings or error text
	// Matches: api_key=xxx, apikey=xxx, key=xxx (long values only)
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Pattern to match bearer tokens in header dumps
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// Pattern to match URL-embedded credentials (user:pass@host format)
	urlCredsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeError sanitizes error messages that might contain model endpoint
// secrets. Use this before logging any error from a provider client.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString removes API keys, bearer tokens and URL credentials from s.
func SanitizeString(s string) string {
	if s == "" {
		return ""
	}

	sanitized := apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = urlCredsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// MaskKey keeps the first and last two characters of an API key so log lines
// stay correlatable without exposing the secret.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return RedactedText
	}
	return key[:2] + "..." + key[len(key)-2:]
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
