package calendar

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

const (
	defaultProductID = "-//syllabus-calendar//deadlines//EN"
	floatingLayout   = "20060102T150405"
	descSeparator    = " — "
)

// Report describes what made it into the artifact.
type Report struct {
	Encoded int
	Dropped []string // IDs of events that failed the date re-check
}

// Encoder turns reviewed events into an iCalendar payload.
type Encoder struct {
	loc       *time.Location
	productID string
	now       func() time.Time
	uid       func(entity.DeadlineEvent) string
	logger    *slog.Logger
}

type Option func(*Encoder)

// WithLocation pins timed events to a zone; without it they are floating wall-clock times.
func WithLocation(loc *time.Location) Option {
	return func(e *Encoder) { e.loc = loc }
}

func WithProductID(id string) Option {
	return func(e *Encoder) {
		if id != "" {
			e.productID = id
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

func WithUIDFunc(fn func(entity.DeadlineEvent) string) Option {
	return func(e *Encoder) {
		if fn != nil {
			e.uid = fn
		}
	}
}

func NewEncoder(logger *slog.Logger, opts ...Option) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Encoder{
		productID: defaultProductID,
		now:       time.Now,
		uid:       defaultUID,
		logger:    logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func defaultUID(ev entity.DeadlineEvent) string {
	if ev.ID != "" {
		return ev.ID + "@syllabus-calendar"
	}
	return uuid.NewString() + "@syllabus-calendar"
}

// Encode builds the calendar. Events with an invalid date are dropped, not fatal.
// Zero events yield an empty VCALENDAR.
func (e *Encoder) Encode(events []entity.DeadlineEvent) ([]byte, Report, error) {
	start := time.Now()
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.productID)

	stamp := e.now().UTC()
	var rep Report
	for _, ev := range events {
		y, m, d, ok := ValidDate(ev.Date)
		if !ok {
			rep.Dropped = append(rep.Dropped, ev.ID)
			e.logger.Warn("calendar.encode.drop_invalid_date", "event_id", ev.ID, "date", ev.Date)
			continue
		}
		vev := cal.AddEvent(e.uid(ev))
		vev.SetDtStampTime(stamp)

		h, min, timed := ParseClock(ev.Clock())
		if timed {
			e.setTimed(vev, y, m, d, h, min)
			vev.SetSummary(timedTitle(ev))
			if desc := joinNonEmpty(ev.Course, ev.Notes); desc != "" {
				vev.SetDescription(desc)
			}
		} else {
			day := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
			vev.SetAllDayStartAt(day)
			vev.SetAllDayEndAt(day.AddDate(0, 0, 1))
			vev.SetSummary(ev.Title)
			if ev.Notes != "" {
				vev.SetDescription(ev.Notes)
			}
		}
		rep.Encoded++
	}

	out := cal.Serialize()
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "END:VCALENDAR") {
		return nil, rep, common.KindError(common.KindEncodingFailed, fmt.Errorf("serializer produced no calendar"))
	}

	e.logger.Info("calendar.encode.ok",
		"encoded", rep.Encoded,
		"dropped", len(rep.Dropped),
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(out), rep, nil
}

func (e *Encoder) setTimed(vev *ical.VEvent, y, m, d, h, min int) {
	if e.loc == nil {
		begin := time.Date(y, time.Month(m), d, h, min, 0, 0, time.UTC)
		vev.SetProperty(ical.ComponentPropertyDtStart, begin.Format(floatingLayout))
		vev.SetProperty(ical.ComponentPropertyDtEnd, begin.Add(time.Hour).Format(floatingLayout))
		return
	}
	begin := time.Date(y, time.Month(m), d, h, min, 0, 0, e.loc)
	vev.SetStartAt(begin)
	vev.SetEndAt(begin.Add(time.Hour))
}

func timedTitle(ev entity.DeadlineEvent) string {
	if ev.Course != "" {
		return ev.Course + ": " + ev.Title
	}
	return ev.Title
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, descSeparator)
}
