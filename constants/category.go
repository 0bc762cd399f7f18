package constants

import (
	"strings"
)

// EventType is the closed category set for extracted deadlines.
type EventType string

const (
	Exam       EventType = "Exam"
	Assignment EventType = "Assignment"
	Reading    EventType = "Reading"
	Other      EventType = "Other"
)

var allEventTypes = []EventType{
	Exam,
	Assignment,
	Reading,
	Other,
}

// keyword buckets are checked in order; the first bucket with a substring hit wins.
var typeKeywords = []struct {
	typ   EventType
	words []string
}{
	{Exam, []string{"exam", "quiz", "test", "midterm", "final"}},
	{Assignment, []string{"assign", "homework", "hw", "project", "paper", "essay", "lab", "report"}},
	{Reading, []string{"read"}},
}

func AllEventTypes() []EventType {
	out := make([]EventType, len(allEventTypes))
	copy(out, allEventTypes)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allEventTypes))
	for i, t := range allEventTypes {
		result[i] = string(t)
	}
	return result
}

// Canonicalize maps free text onto an EventType by case-insensitive keyword match.
// It never fails: unmatched input is Other and the bool reports false.
func Canonicalize(input string) (EventType, bool) {
	normalized := strings.ToLower(input)
	for _, bucket := range typeKeywords {
		for _, w := range bucket.words {
			if strings.Contains(normalized, w) {
				return bucket.typ, true
			}
		}
	}
	return Other, false
}
