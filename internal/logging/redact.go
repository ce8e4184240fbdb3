package logging

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

var secretAssignmentPattern = regexp.MustCompile(`(?i)\b([A-Z0-9_]*(?:` + strings.Join([]string{
	"PASSWORD", "PASSWD", "SECRET", "TOKEN", "API_KEY", "APIKEY", "ACCESS_KEY", "PRIVATE_KEY",
}, "|") + `)[A-Z0-9_]*)(\s*[:=]\s*)(["']?)([^"'\s]+)(["']?)`)

// RedactSecrets masks the values of secret-looking KEY=value assignments,
// e.g. "DB_PASSWORD=hunter2" becomes "DB_PASSWORD=[redacted]". It is applied
// to command lines before they are logged.
func RedactSecrets(message string) string {
	if message == "" {
		return message
	}
	return secretAssignmentPattern.ReplaceAllString(message, "$1$2$3"+redactedPlaceholder+"$5")
}
