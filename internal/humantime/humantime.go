package humantime

import (
	"fmt"
	"time"
)

// Since returns how long ago t was, roughly, e.g. "5 minutes".
func Since(t time.Time) string {
	return Rough(time.Since(t))
}

// Rough renders d in the largest sensible unit.
func Rough(d time.Duration) string {
	switch {
	case d < time.Minute*2:
		return fmt.Sprintf("%0.f seconds", d.Seconds())
	case d < time.Hour*2:
		return fmt.Sprintf("%0.f minutes", d.Minutes())
	case d < time.Hour*48:
		return fmt.Sprintf("%0.f hours", d.Hours())
	}
	return fmt.Sprintf("%0.f days", d.Hours()/24)
}

// HoursMinutes renders d as "N hours and M minutes", truncated to the
// minute. Negative durations are rendered by magnitude.
func HoursMinutes(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Truncate(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
}
