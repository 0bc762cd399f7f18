package entity

import (
	"github.com/joseph-ayodele/syllabus-calendar/constants"
)

// DeadlineEvent is one extracted, normalized deadline.
type DeadlineEvent struct {
	ID     string              `json:"id"`
	Title  string              `json:"title"`
	Date   string              `json:"date"`           // YYYY-MM-DD
	Time   *string             `json:"time"`           // HH:mm, nil = all-day
	Type   constants.EventType `json:"type"`           // Exam | Assignment | Reading | Other
	Weight string              `json:"weight"`
	Notes  string              `json:"notes"`
	Course string              `json:"course"`
}

// AllDay reports whether the event has no wall-clock time.
func (e DeadlineEvent) AllDay() bool {
	return e.Time == nil || *e.Time == ""
}

// Clock returns the HH:mm time, or "" for all-day events.
func (e DeadlineEvent) Clock() string {
	if e.Time == nil {
		return ""
	}
	return *e.Time
}

// StrPtr is a small helper for optional fields.
func StrPtr(s string) *string {
	return &s
}

// ParseResult is the payload handed back to the UI after a successful extraction.
type ParseResult struct {
	CourseName string          `json:"courseName"`
	Events     []DeadlineEvent `json:"events"`
}
