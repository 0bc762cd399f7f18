package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
)

var (
	reCanonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDashDate      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	reCanonicalTime = regexp.MustCompile(`^\d{2}:\d{2}$`)
	reMeridiemTime  = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(am|pm)$`)
	reShortTime     = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// dateLayouts are tried in order when a date is not already dash-separated.
// Every layout carries a year; year-less input is left for the user to fix.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/1/2",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Mon, Jan 2, 2006",
	"Mon Jan 2 2006",
	"Monday, January 2, 2006",
	"Mon, 2 Jan 2006",
}

// Date returns YYYY-MM-DD when the input can be read as a calendar date and the
// input unchanged otherwise. It is idempotent.
func Date(val string) string {
	s := strings.TrimSpace(val)
	if reCanonicalDate.MatchString(s) {
		return s
	}
	if m := reDashDate.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
		}
	}
	return val
}

// Time returns 24-hour HH:mm for "H:mm", "HH:mm" and am/pm forms; anything else
// passes through unchanged. It is idempotent.
func Time(val string) string {
	if reCanonicalTime.MatchString(val) {
		return val
	}
	s := strings.TrimSpace(val)
	if m := reMeridiemTime.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		period := strings.ToLower(m[3])
		if period == "pm" && hours != 12 {
			hours += 12
		}
		if period == "am" && hours == 12 {
			hours = 0
		}
		return fmt.Sprintf("%02d:%s", hours, m[2])
	}
	if m := reShortTime.FindStringSubmatch(s); m != nil {
		return pad2(m[1]) + ":" + m[2]
	}
	return val
}

// Type buckets free text into the closed event type set. Never fails.
func Type(val string) constants.EventType {
	t, _ := constants.Canonicalize(val)
	return t
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
