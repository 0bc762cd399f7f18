// Package review holds the edit operations a user applies to extracted events
// before exporting them.
package review

import (
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// Update replaces the event with the same ID. The input slice is not modified.
func Update(events []entity.DeadlineEvent, updated entity.DeadlineEvent) ([]entity.DeadlineEvent, bool) {
	out := make([]entity.DeadlineEvent, len(events))
	copy(out, events)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
			return out, true
		}
	}
	return out, false
}

// Delete drops the event with the given ID.
func Delete(events []entity.DeadlineEvent, id string) ([]entity.DeadlineEvent, bool) {
	out := make([]entity.DeadlineEvent, 0, len(events))
	found := false
	for _, ev := range events {
		if ev.ID == id {
			found = true
			continue
		}
		out = append(out, ev)
	}
	return out, found
}

// Issue lists what is wrong with one event in a submitted list.
type Issue struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Problems []string `json:"problems"`
}

// Validate checks an edited event before it is accepted back into the list.
func Validate(ev entity.DeadlineEvent) error {
	return rules(ev).Err()
}

// Check validates every event and reports the ones that fail, in input order.
func Check(events []entity.DeadlineEvent) []Issue {
	var issues []Issue
	for _, ev := range events {
		v := rules(ev)
		if !v.HasErrors() {
			continue
		}
		issue := Issue{ID: ev.ID, Title: ev.Title}
		for _, fe := range v.Errors() {
			issue.Problems = append(issue.Problems, fe.Field+" "+fe.Message)
		}
		issues = append(issues, issue)
	}
	return issues
}

func rules(ev entity.DeadlineEvent) *common.Validator {
	v := common.NewValidator()
	v.Field("title", ev.Title, common.Required, common.MaxLength(200))
	v.Field("date", ev.Date,
		common.Required,
		common.Pattern(dateRe, "formatted as YYYY-MM-DD"),
		common.Check(func(any) bool { return validCalendarDate(ev.Date) }, "must be a real calendar date"),
	)
	if clock := ev.Clock(); clock != "" {
		v.Field("time", clock, common.Pattern(clockRe, "formatted as HH:mm"))
	}
	v.Field("type", string(ev.Type), common.OneOf(constants.AsStringSlice()...))
	return v
}

func validCalendarDate(date string) bool {
	if !dateRe.MatchString(date) {
		// reported by the pattern rule
		return true
	}
	if _, _, _, ok := calendar.ValidDate(date); !ok {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// SortChronological orders by date then time; all-day events lead their date.
func SortChronological(events []entity.DeadlineEvent) []entity.DeadlineEvent {
	out := make([]entity.DeadlineEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Clock() < out[j].Clock()
	})
	return out
}

// Merge concatenates batches in order. Duplicate or empty IDs get a fresh one so
// the working set stays addressable by ID.
func Merge(batches ...[]entity.DeadlineEvent) []entity.DeadlineEvent {
	var out []entity.DeadlineEvent
	seen := map[string]struct{}{}
	for _, batch := range batches {
		for _, ev := range batch {
			if _, dup := seen[ev.ID]; dup || ev.ID == "" {
				ev.ID = uuid.NewString()
			}
			seen[ev.ID] = struct{}{}
			out = append(out, ev)
		}
	}
	return out
}
