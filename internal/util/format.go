package util

import (
	"fmt"
	"time"
)

// FormatPlaytime renders seconds as D:HH:MM:SS. The day field is not padded.
func FormatPlaytime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	secs := seconds % 60
	minutes := (seconds / 60) % 60
	hours := (seconds / 3600) % 24
	days := seconds / 86400
	return fmt.Sprintf("%d:%02d:%02d:%02d", days, hours, minutes, secs)
}

// FormatDuration renders a short human duration for log messages.
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
