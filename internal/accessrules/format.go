package accessrules

import (
	"fmt"
	"strings"
	"time"
)

const userDateLayout = "Monday, 2 January 2006, 3:04 PM"

// FormatTime renders a Unix timestamp the way rule messages show dates (UTC).
func FormatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(userDateLayout)
}

// FormatDuration renders seconds as "1 day 2 hours 5 mins".
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0 secs"
	}
	units := []struct {
		size           int64
		single, plural string
	}{
		{86400, "day", "days"},
		{3600, "hour", "hours"},
		{60, "min", "mins"},
		{1, "sec", "secs"},
	}
	var parts []string
	for _, u := range units {
		if n := secs / u.size; n > 0 {
			name := u.plural
			if n == 1 {
				name = u.single
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, name))
			secs -= n * u.size
		}
	}
	return strings.Join(parts, " ")
}
