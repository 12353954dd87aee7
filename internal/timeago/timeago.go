// Package timeago renders how long ago something happened as a short label.
package timeago

import (
	"fmt"
	"time"
)

const (
	minute = 60_000
	hour   = 3_600_000
	day    = 86_400_000
)

// Label returns the age of createdAt relative to now: "Just now" under a
// minute, then whole minutes, hours and days, always rounded down.
// A createdAt in the future counts as "Just now".
func Label(now, createdAt time.Time) string {
	delta := now.Sub(createdAt).Milliseconds()
	switch {
	case delta < minute:
		return "Just now"
	case delta < hour:
		return fmt.Sprintf("%d min", delta/minute)
	case delta < day:
		return fmt.Sprintf("%d hr", delta/hour)
	default:
		return fmt.Sprintf("%d days", delta/day)
	}
}
