// Package redact strips sensitive material from strings before they reach
// logs or error responses. Automation failures routinely embed job-board
// credentials, session cookies, connection strings, and resume file paths;
// none of that belongs in an API response or a log line.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

var (
	// Connection strings with embedded credentials
	connRegex = regexp.MustCompile(`(?i)(postgres|redis|mysql|amqp|http|https)://[^@\s]+@`)

	// Passwords and generic secrets
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)

	// API keys and bearer tokens
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|bearer|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// Session cookies captured from automation failures
	cookieRegex = regexp.MustCompile(`(?i)(cookie|session[_-]?id|li_at)(['"\s:=]+)[^'";\s]{8,}`)

	// JWT tokens (three-part base64url)
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Local file paths (resume artifacts, snapshot files)
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	// Email addresses
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)

	placeholders = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		{connRegex, RedactedCredentialPlaceholder},
		{passwordRegex, RedactedCredentialPlaceholder},
		{apiKeyRegex, RedactedKeyPlaceholder},
		{cookieRegex, RedactedCredentialPlaceholder},
		{jwtTokenRegex, "[REDACTED_JWT]"},
		{unixPathRegex, RedactedPathPlaceholder},
		{emailRegex, "[REDACTED_EMAIL]"},
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range placeholders {
		result = p.pattern.ReplaceAllString(result, p.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
