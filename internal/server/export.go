package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/review"
)

const (
	maxEventsBody = 1 << 20
	xlsxFileName  = "deadlines.xlsx"
)

type eventsRequest struct {
	Events []entity.DeadlineEvent `json:"events"`
}

func (s *Server) decodeEvents(w http.ResponseWriter, r *http.Request) ([]entity.DeadlineEvent, bool) {
	var req eventsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventsBody))
	if err := dec.Decode(&req); err != nil {
		s.logger.Warn("export.request.bad_body", "req_id", common.RequestIDFromContext(r.Context()), "err", err)
		writeError(w, common.NewAppError(common.KindBadInput, "Invalid request body.", err))
		return nil, false
	}
	return req.Events, true
}

// Calendar handles POST /api/calendar and returns deadlines.ics.
func (s *Server) Calendar(w http.ResponseWriter, r *http.Request) {
	events, ok := s.decodeEvents(w, r)
	if !ok {
		return
	}
	reqID := common.RequestIDFromContext(r.Context())
	issues := review.Check(events)
	for _, is := range issues {
		s.logger.Info("export.calendar.invalid_event", "req_id", reqID, "event_id", is.ID, "problems", is.Problems)
	}
	data, rep, err := s.encoder.Encode(events)
	if err != nil {
		s.logger.Error("export.calendar.failed", "req_id", reqID, "err", err)
		writeError(w, err)
		return
	}
	w.Header().Set("X-Events-Encoded", strconv.Itoa(rep.Encoded))
	w.Header().Set("X-Events-Dropped", strconv.Itoa(len(rep.Dropped)))
	w.Header().Set("X-Events-Invalid", strconv.Itoa(len(issues)))
	writeAttachment(w, constants.MIMECalendar+"; charset=utf-8", constants.CalendarFileName, data)
}

// Summary handles POST /api/summary; ?format=html returns an HTML fragment.
func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	events, ok := s.decodeEvents(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "html" {
		html, err := calendar.SummaryHTML(events)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(calendar.Summary(events)))
}

// ExportXLSX handles POST /api/export.xlsx.
func (s *Server) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	events, ok := s.decodeEvents(w, r)
	if !ok {
		return
	}
	data, err := s.exporter.EventsXLSX(r.Context(), events)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "req_id", common.RequestIDFromContext(r.Context()), "err", err)
		writeError(w, common.KindError(common.KindInternal, err))
		return
	}
	writeAttachment(w, constants.MIMEXLSX, xlsxFileName, data)
}
