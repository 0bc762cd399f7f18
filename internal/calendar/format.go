package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidDate splits a YYYY-MM-DD string and checks year>0, month 1-12, day 1-31.
func ValidDate(date string) (y, m, d int, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var err error
	if y, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if m, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if d, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	if y <= 0 || m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

// ParseClock reads an HH:mm wall-clock time.
func ParseClock(clock string) (h, min int, ok bool) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return 0, 0, false
	}
	return h, min, true
}

// FormatDate renders "2026-01-30" as "Fri, Jan 30, 2026". Invalid input is returned as is.
func FormatDate(date string) string {
	y, m, d, ok := ValidDate(date)
	if !ok {
		return date
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Format("Mon, Jan 2, 2006")
}

// FormatTime renders "14:00" as "2:00 PM" and an empty time as "All day".
func FormatTime(clock string) string {
	if clock == "" {
		return "All day"
	}
	h, min, ok := ParseClock(clock)
	if !ok {
		return clock
	}
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	hour := h
	switch {
	case h == 0:
		hour = 12
	case h > 12:
		hour = h - 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, min, period)
}
