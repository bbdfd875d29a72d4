package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// FormatSize renders a byte count the way the backups service reports sizes (B, KB, MB, GB).
func FormatSize(bytes int64) string {
	switch {
	case bytes < KB:
		return fmt.Sprintf("%dB", bytes)
	case bytes < MB:
		return fmt.Sprintf("%dKB", bytes/KB)
	case bytes < GB:
		return fmt.Sprintf("%.1fMB", float64(bytes)/MB)
	default:
		return fmt.Sprintf("%.2fGB", float64(bytes)/GB)
	}
}

// FormatAmount renders a progress amount token.
//
// Bare byte counts are converted with [FormatSize]; tokens that already carry a unit ("12.3MB") pass through.
func FormatAmount(token string) string {
	token = strings.TrimSpace(token)
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return FormatSize(n)
	}
	return token
}

// DisplayInfo formats a left-aligned "label value" row.
func DisplayInfo(label, info string) string {
	return fmt.Sprintf("%-12s %s", label, info)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006/01/02 15:04.05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a server timestamp in any of the formats the service has emitted.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimeAgo renders a server timestamp relative to now ("3 hours ago"), or returns it unchanged when unparseable.
func TimeAgo(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return humanize.Time(t)
}
