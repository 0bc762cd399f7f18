package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

// ErrInvalidTransition is returned when an event does not apply to the item's status.
var ErrInvalidTransition = errors.New("invalid item transition")

// Item is one queued document or text blob and its processing outcome.
type Item struct {
	ID             string
	Source         constants.ItemSource
	Name           string
	Document       *entity.Document
	Text           string
	Status         constants.ItemStatus
	CourseName     string // as extracted
	CourseOverride string // as edited by the user
	Events         []entity.DeadlineEvent
	Error          string
	AddedAt        time.Time
	UpdatedAt      time.Time
}

// Course is the override when set, otherwise the extracted name.
func (it Item) Course() string {
	if it.CourseOverride != "" {
		return it.CourseOverride
	}
	return it.CourseName
}

type EventKind int

const (
	EventDispatch EventKind = iota
	EventSucceed
	EventFail
	EventRetry
)

func (k EventKind) String() string {
	switch k {
	case EventDispatch:
		return "dispatch"
	case EventSucceed:
		return "succeed"
	case EventFail:
		return "fail"
	case EventRetry:
		return "retry"
	}
	return "unknown"
}

// Event drives Transition. Build one with Dispatch, Succeed, Fail or Retry.
type Event struct {
	Kind       EventKind
	CourseName string
	Events     []entity.DeadlineEvent
	Message    string
	At         time.Time
}

func Dispatch(at time.Time) Event { return Event{Kind: EventDispatch, At: at} }

func Succeed(courseName string, events []entity.DeadlineEvent, at time.Time) Event {
	return Event{Kind: EventSucceed, CourseName: courseName, Events: events, At: at}
}

func Fail(message string, at time.Time) Event {
	return Event{Kind: EventFail, Message: message, At: at}
}

func Retry(at time.Time) Event { return Event{Kind: EventRetry, At: at} }

// Transition applies ev to it and returns the new item. The input is never modified.
//
//	pending    --dispatch--> processing
//	processing --succeed---> done
//	processing --fail------> error
//	error      --retry-----> pending
func Transition(it Item, ev Event) (Item, error) {
	next := it
	switch {
	case ev.Kind == EventDispatch && it.Status == constants.ItemPending:
		next.Status = constants.ItemProcessing
		next.Error = ""
	case ev.Kind == EventSucceed && it.Status == constants.ItemProcessing:
		next.Status = constants.ItemDone
		next.CourseName = ev.CourseName
		next.Events = ev.Events
		next.Error = ""
	case ev.Kind == EventFail && it.Status == constants.ItemProcessing:
		next.Status = constants.ItemError
		next.Error = ev.Message
		next.Events = nil
	case ev.Kind == EventRetry && it.Status == constants.ItemError:
		next.Status = constants.ItemPending
		next.Error = ""
	default:
		return it, fmt.Errorf("%w: %s on %s item %s", ErrInvalidTransition, ev.Kind, it.Status, it.ID)
	}
	if !ev.At.IsZero() {
		next.UpdatedAt = ev.At
	}
	return next, nil
}
