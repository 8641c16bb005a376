package webindex

import (
	"fmt"
	"time"
)

const timeFormat = "2006-01-02 15:04:05Z"

const day = 24 * time.Hour

// ageInfo turns the age of an artifact into a human description and
// the newness-indicator class to colour it with, the higher the
// hotter.
func ageInfo(diff time.Duration) (string, string) {
	switch {
	case diff > 60*day:
		return fmt.Sprintf("%d+ months ago", int(diff/(30*day))), "hot1"
	case diff > 2*day:
		return fmt.Sprintf("%d+ days ago", int(diff/day)), "hot2"
	case diff > 2*time.Hour:
		return fmt.Sprintf("%d+ hours ago", int(diff/time.Hour)), "hot3"
	case diff > 2*time.Minute:
		return fmt.Sprintf("%d+ minutes ago", int(diff/time.Minute)), "hot4"
	default:
		return fmt.Sprintf("%d seconds ago", int(diff/time.Second)), "hot5"
	}
}
