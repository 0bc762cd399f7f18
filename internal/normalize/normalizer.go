package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

// Result is the normalized outcome of one model response.
type Result struct {
	CourseName string
	Events     []entity.DeadlineEvent
	Dropped    int  // raw events discarded during salvage
	Salvaged   bool // whole-response validation failed and per-event salvage ran
}

// ParseResult converts r to the payload returned to the UI.
func (r Result) ParseResult() entity.ParseResult {
	events := r.Events
	if events == nil {
		events = []entity.DeadlineEvent{}
	}
	return entity.ParseResult{CourseName: r.CourseName, Events: events}
}

// Normalizer validates raw model output and turns it into DeadlineEvents.
type Normalizer struct {
	response *jsonschema.Schema
	event    *jsonschema.Schema
	newID    func() string
	logger   *slog.Logger
}

type Option func(*Normalizer)

// WithIDFunc overrides event ID generation.
func WithIDFunc(fn func() string) Option {
	return func(n *Normalizer) {
		if fn != nil {
			n.newID = fn
		}
	}
}

func NewNormalizer(logger *slog.Logger, opts ...Option) (*Normalizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	response, err := CompileSchema("response.json", BuildResponseJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("response schema: %w", err)
	}
	event, err := CompileSchema("event.json", BuildEventJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("event schema: %w", err)
	}
	n := &Normalizer{
		response: response,
		event:    event,
		newID:    uuid.NewString,
		logger:   logger,
	}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

// Parse runs the two-phase validation over raw model output:
// the whole response first, then each event on its own when that fails.
func (n *Normalizer) Parse(ctx context.Context, raw string) (Result, error) {
	trace := common.TraceID(ctx)
	if strings.TrimSpace(raw) == "" {
		return Result{}, common.KindError(common.KindEmptyResponse, errors.New("empty model content"))
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		n.logger.Error("normalize.malformed", "trace_id", trace, "error", err, "raw_len", len(raw))
		return Result{}, common.KindError(common.KindMalformedResponse, fmt.Errorf("decode model json: %w", err))
	}

	obj, _ := doc.(map[string]any)
	rawEvents, _ := obj["events"].([]any)
	if len(rawEvents) == 0 {
		n.logger.Error("normalize.no_events", "trace_id", trace)
		return Result{}, common.KindError(common.KindUnexpectedFormat, errors.New("events missing or empty"))
	}
	course := courseName(obj)

	res := Result{CourseName: course}
	err := n.response.Validate(doc)
	if err == nil {
		res.Events = make([]entity.DeadlineEvent, 0, len(rawEvents))
		for _, re := range rawEvents {
			res.Events = append(res.Events, n.Event(re.(map[string]any), course))
		}
		n.logger.Info("normalize.ok", "trace_id", trace, "course", course, "events", len(res.Events))
		return res, nil
	}
	n.logger.Warn("normalize.schema_validation_failed", "trace_id", trace, "error", err)

	kept, dropped := n.salvage(rawEvents)
	if len(kept) == 0 {
		n.logger.Error("normalize.salvage_failed", "trace_id", trace, "dropped", dropped)
		return Result{}, common.KindError(common.KindUnexpectedFormat,
			fmt.Errorf("all %d events failed validation", dropped))
	}
	res.Salvaged = true
	res.Dropped = dropped
	res.Events = make([]entity.DeadlineEvent, 0, len(kept))
	for _, m := range kept {
		res.Events = append(res.Events, n.Event(m, course))
	}
	n.logger.Warn("normalize.salvage",
		"trace_id", trace, "course", course, "kept", len(kept), "dropped", dropped)
	return res, nil
}

// salvage folds over raw events, keeping those that validate on their own.
func (n *Normalizer) salvage(rawEvents []any) (kept []map[string]any, dropped int) {
	for _, re := range rawEvents {
		m, ok := re.(map[string]any)
		if !ok || n.event.Validate(re) != nil {
			dropped++
			continue
		}
		kept = append(kept, m)
	}
	return kept, dropped
}

// Event normalizes one schema-valid raw event and assigns it a fresh ID.
// The event's own course wins over the batch course when non-empty.
func (n *Normalizer) Event(raw map[string]any, batchCourse string) entity.DeadlineEvent {
	ev := entity.DeadlineEvent{
		ID:     n.newID(),
		Title:  stringField(raw, "title"),
		Date:   Date(stringField(raw, "date")),
		Type:   Type(stringField(raw, "type")),
		Weight: stringField(raw, "weight"),
		Notes:  stringField(raw, "notes"),
		Course: stringField(raw, "course"),
	}
	if t, ok := raw["time"].(string); ok {
		if nt := Time(t); nt != "" {
			ev.Time = &nt
		}
	}
	if ev.Course == "" {
		ev.Course = batchCourse
	}
	return ev
}

func courseName(obj map[string]any) string {
	if s, ok := obj["courseName"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return constants.UnknownCourse
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
