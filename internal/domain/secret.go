package domain

// RedactSecret shortens a sensitive value to a recognizable prefix so log
// lines can correlate requests without ever carrying a full secret.
func RedactSecret(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:8] + "..."
}
