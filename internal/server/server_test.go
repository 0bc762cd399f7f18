package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
	"github.com/joseph-ayodele/syllabus-calendar/internal/ratelimit"
)

type fakeProcessor struct {
	res  normalize.Result
	err  error
	subs []pipeline.Submission
}

func (f *fakeProcessor) Process(_ context.Context, sub pipeline.Submission) (normalize.Result, error) {
	f.subs = append(f.subs, sub)
	return f.res, f.err
}

func okResult() normalize.Result {
	return normalize.Result{
		CourseName: "CS 350",
		Events: []entity.DeadlineEvent{
			{ID: "e1", Title: "Midterm", Date: "2026-01-30", Time: entity.StrPtr("14:00"), Type: constants.Exam, Course: "CS 350"},
		},
	}
}

func newTestServer(proc Processor, limiter *ratelimit.Limiter) *Server {
	enc := calendar.NewEncoder(nil, calendar.WithClock(func() time.Time {
		return time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	}))
	return New(proc, enc, nil, limiter, Config{}, nil)
}

type part struct {
	field, filename, contentType string
	body                         []byte
}

func multipartRequest(t *testing.T, fields map[string]string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestParse_Text(t *testing.T) {
	proc := &fakeProcessor{res: okResult()}
	h := newTestServer(proc, nil).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, map[string]string{"type": "text", "text": "Midterm Jan 30"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var got entity.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "CS 350", got.CourseName)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "14:00", got.Events[0].Clock())

	require.Len(t, proc.subs, 1)
	assert.Equal(t, constants.SourceText, proc.subs[0].Source)
	assert.Equal(t, "Midterm Jan 30", proc.subs[0].Text)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestParse_File(t *testing.T) {
	proc := &fakeProcessor{res: okResult()}
	h := newTestServer(proc, nil).Routes()

	rec := httptest.NewRecorder()
	req := multipartRequest(t, map[string]string{"type": "file"},
		part{field: "file", filename: "syllabus.pdf", contentType: "application/octet-stream", body: []byte("%PDF-1.4")})
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, proc.subs, 1)
	doc := proc.subs[0].Document
	require.NotNil(t, doc)
	assert.Equal(t, "syllabus.pdf", doc.Name)
	assert.Equal(t, constants.MIMEPDF, doc.MIME, "octet-stream falls back to the extension")
	assert.Equal(t, []byte("%PDF-1.4"), doc.Data)
}

func TestParse_MissingFileReachesAdmission(t *testing.T) {
	proc := &fakeProcessor{err: common.NewAppError(common.KindBadInput, "No file provided.", nil)}
	h := newTestServer(proc, nil).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, map[string]string{"type": "file"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided.", decodeError(t, rec))
	require.Len(t, proc.subs, 1)
	assert.Nil(t, proc.subs[0].Document)
}

func TestParse_ErrorMapping(t *testing.T) {
	tests := []struct {
		kind   common.Kind
		status int
		msg    string
	}{
		{common.KindUnsupportedType, 400, "Unsupported file type. Accepted: PDF, DOCX, XLSX, JPEG, PNG, HEIC."},
		{common.KindExtractionEmpty, 422, "Could not extract text from this file. It may be image-based or empty."},
		{common.KindGatewayUnavailable, 502, "AI service is currently unavailable. Please try again later."},
		{common.KindMalformedResponse, 502, "AI returned invalid data. Please try again."},
		{common.KindUnexpectedFormat, 502, "AI returned unexpected data format. Please try again."},
		{common.KindInternal, 500, "An unexpected error occurred. Please try again."},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			proc := &fakeProcessor{err: common.NewAppError(tt.kind, "", nil)}
			rec := httptest.NewRecorder()
			newTestServer(proc, nil).Routes().ServeHTTP(rec, multipartRequest(t, map[string]string{"type": "text", "text": "x"}))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec))
		})
	}
}

func TestParse_BodyTooLarge(t *testing.T) {
	proc := &fakeProcessor{res: okResult()}
	srv := New(proc, nil, nil, nil, Config{MaxDocBytes: 1 << 20, MaxImageBytes: 2 << 20}, nil)

	big := bytes.Repeat([]byte("a"), 2<<20+multipartOverhead+1)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, multipartRequest(t, map[string]string{"type": "file"},
		part{field: "file", filename: "syllabus.pdf", contentType: "application/pdf", body: big}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File too large. Maximum size is 1MB for documents and 2MB for images.", decodeError(t, rec))
	assert.Empty(t, proc.subs)
}

func TestParse_RateLimited(t *testing.T) {
	proc := &fakeProcessor{res: okResult()}
	limiter := ratelimit.New(nil, ratelimit.WithMax(2))
	h := newTestServer(proc, limiter).Routes()

	send := func(xff string) *httptest.ResponseRecorder {
		req := multipartRequest(t, map[string]string{"type": "text", "text": "x"})
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("9.9.9.9, 10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("9.9.9.9").Code)
	rec := send("9.9.9.9, 10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests. Please wait a moment.", decodeError(t, rec))
	assert.Equal(t, http.StatusOK, send("8.8.8.8").Code)
	assert.Len(t, proc.subs, 3, "rejected requests never reach the pipeline")
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "unknown", clientAddr(req))
	req.Header.Set("X-Forwarded-For", " 1.2.3.4 , 5.6.7.8")
	assert.Equal(t, "1.2.3.4", clientAddr(req))
	req.Header.Set("X-Forwarded-For", " , 5.6.7.8")
	assert.Equal(t, "unknown", clientAddr(req))
}

func eventsBody(t *testing.T, events []entity.DeadlineEvent) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(eventsRequest{Events: events})
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestCalendar(t *testing.T) {
	h := newTestServer(&fakeProcessor{}, nil).Routes()
	events := append(okResult().Events, entity.DeadlineEvent{ID: "bad", Title: "x", Date: "2026-13-01", Type: constants.Other})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calendar", eventsBody(t, events)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="deadlines.ics"`)
	assert.Equal(t, "1", rec.Header().Get("X-Events-Encoded"))
	assert.Equal(t, "1", rec.Header().Get("X-Events-Dropped"))
	assert.Equal(t, "1", rec.Header().Get("X-Events-Invalid"))
	assert.Contains(t, rec.Body.String(), "SUMMARY:CS 350: Midterm")
}

func TestCalendar_ReportsInvalidEdits(t *testing.T) {
	h := newTestServer(&fakeProcessor{}, nil).Routes()
	events := []entity.DeadlineEvent{
		{ID: "a", Title: "", Date: "2026-02-01", Type: constants.Exam},
		{ID: "b", Title: "Lab", Date: "2026-02-02", Time: entity.StrPtr("25:00"), Type: constants.Assignment},
		{ID: "c", Title: "Essay", Date: "2026-02-03", Type: "Quiz"},
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calendar", eventsBody(t, events)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Events-Invalid"))
	assert.Equal(t, "0", rec.Header().Get("X-Events-Dropped"))
}

func TestCalendar_BadBody(t *testing.T) {
	h := newTestServer(&fakeProcessor{}, nil).Routes()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calendar", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body.", decodeError(t, rec))
}

func TestSummary(t *testing.T) {
	h := newTestServer(&fakeProcessor{}, nil).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/summary", eventsBody(t, okResult().Events)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CS 350\n  - Midterm — Fri, Jan 30, 2026 at 2:00 PM", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/summary?format=html", eventsBody(t, okResult().Events)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h2>CS 350</h2>")
}

func TestExportXLSX(t *testing.T) {
	h := newTestServer(&fakeProcessor{}, nil).Routes()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/export.xlsx", eventsBody(t, okResult().Events)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constants.MIMEXLSX, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip container")
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeProcessor{}, nil).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
