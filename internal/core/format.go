package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatSize renders a byte count using binary units (e.g. "1.5 GB").
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatMB renders a megabyte count, switching to GB past 1024 MB.
func FormatMB(mb int64) string {
	return FormatSize(mb * 1024 * 1024)
}

// Truncate shortens s to at most max bytes without splitting a UTF-8
// sequence, appending "..." when anything was cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// ParsePercent converts "21%" or "21" into 21.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	return v, nil
}
