package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
	"github.com/joseph-ayodele/syllabus-calendar/internal/queue"
)

type stubProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (s *stubProcessor) Process(_ context.Context, sub pipeline.Submission) (normalize.Result, error) {
	name := "text"
	if sub.Document != nil {
		name = sub.Document.Name
	}
	s.mu.Lock()
	s.seen = append(s.seen, name)
	s.mu.Unlock()
	if s.fail[name] {
		return normalize.Result{}, common.NewAppError(common.KindExtractionEmpty, "", nil)
	}
	return normalize.Result{
		CourseName: "CS 350",
		Events: []entity.DeadlineEvent{
			{ID: "id-" + name, Title: "Due " + name, Date: "2026-02-01", Time: entity.StrPtr("09:00"), Type: constants.Assignment, Course: "CS 350"},
		},
	}, nil
}

type harness struct {
	fs   afero.Fs
	out  *bytes.Buffer
	err  *bytes.Buffer
	proc *stubProcessor
	deps Deps
}

func newHarness() *harness {
	h := &harness{
		fs:   afero.NewMemMapFs(),
		out:  &bytes.Buffer{},
		err:  &bytes.Buffer{},
		proc: &stubProcessor{fail: map[string]bool{}},
	}
	h.deps = Deps{
		Fs:  h.fs,
		Out: h.out,
		Err: h.err,
		NewProcessor: func() (queue.Processor, error) {
			return h.proc, nil
		},
	}
	return h
}

func (h *harness) run(args ...string) error {
	return NewApp(h.deps).Run(append([]string{"deadlines"}, args...))
}

const eventsJSON = `[
  {"id":"e1","title":"Midterm","date":"2026-01-30","time":"14:00","type":"Exam","course":"CS 350"},
  {"id":"e2","title":"Essay","date":"2026-02-03","time":null,"type":"Assignment","course":"HIST 101"}
]`

func TestICSCommand(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/events.json", []byte(eventsJSON), 0o644))

	require.NoError(t, h.run("ics", "--in", "/events.json", "--out", "/out/deadlines.ics"))

	data, err := afero.ReadFile(h.fs, "/out/deadlines.ics")
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(string(data), "BEGIN:VEVENT"))
	assert.Contains(t, h.out.String(), "wrote 2 events")
}

func TestICSCommand_WrappedEventsAndBadFile(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/wrapped.json", []byte(`{"events":`+eventsJSON+`}`), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, "/bad.json", []byte(`nope`), 0o644))

	require.NoError(t, h.run("ics", "--in", "/wrapped.json", "--out", "/a.ics"))
	exists, err := afero.Exists(h.fs, "/a.ics")
	require.NoError(t, err)
	assert.True(t, exists)

	err = h.run("ics", "--in", "/bad.json", "--out", "/b.ics")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindBadInput))

	assert.Error(t, h.run("ics", "--in", "/missing.json"))
}

func TestSummaryCommand(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/events.json", []byte(eventsJSON), 0o644))

	require.NoError(t, h.run("summary", "--in", "/events.json"))
	assert.Equal(t,
		"CS 350\n  - Midterm — Fri, Jan 30, 2026 at 2:00 PM\n\nHIST 101\n  - Essay — Tue, Feb 3, 2026\n",
		h.out.String())

	h.out.Reset()
	require.NoError(t, h.run("summary", "--in", "/events.json", "--html"))
	assert.Contains(t, h.out.String(), "<h2>HIST 101</h2>")
}

func TestExtractCommand(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/in/a.pdf", []byte("%PDF"), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, "/in/b.docx", []byte("PK"), 0o644))

	err := h.run("extract",
		"--text", "Quiz on Feb 1",
		"--course", "Systems",
		"--ics", "/out/deadlines.ics",
		"--json", "/out/events.json",
		"--summary", "/out/summary.txt",
		"--xlsx", "/out/deadlines.xlsx",
		"/in/a.pdf", "/in/b.docx",
	)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.pdf", "b.docx", "text"}, h.proc.seen)

	raw, err := afero.ReadFile(h.fs, "/out/events.json")
	require.NoError(t, err)
	var got eventsFile
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Events, 3)
	assert.Equal(t, "Due a.pdf", got.Events[0].Title, "queue order is preserved")
	for _, ev := range got.Events {
		assert.Equal(t, "Systems", ev.Course)
	}

	for _, p := range []string{"/out/deadlines.ics", "/out/summary.txt", "/out/deadlines.xlsx"} {
		ok, err := afero.Exists(h.fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}

func TestExtractCommand_PrintsSummaryByDefault(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("extract", "--text", "Quiz on Feb 1"))
	assert.Contains(t, h.out.String(), "CS 350\n  - Due text — Sun, Feb 1, 2026 at 9:00 AM")
}

func TestExtractCommand_ReportsItemErrors(t *testing.T) {
	h := newHarness()
	h.proc.fail["bad.pdf"] = true
	require.NoError(t, afero.WriteFile(h.fs, "/bad.pdf", []byte("%PDF"), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, "/good.pdf", []byte("%PDF"), 0o644))

	require.NoError(t, h.run("extract", "/bad.pdf", "/good.pdf"))
	assert.Contains(t, h.err.String(), "bad.pdf: Could not extract text from this file. It may be image-based or empty.")
	assert.Contains(t, h.out.String(), "Due good.pdf")
}

func TestExtractCommand_NothingExtracted(t *testing.T) {
	h := newHarness()
	h.proc.fail["text"] = true
	err := h.run("extract", "--text", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no deadlines extracted")
}

func TestExtractCommand_NoInput(t *testing.T) {
	h := newHarness()
	err := h.run("extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to extract")
	assert.Empty(t, h.proc.seen)
}

func TestExtractCommand_ProcessorUnavailable(t *testing.T) {
	h := newHarness()
	h.deps.NewProcessor = func() (queue.Processor, error) {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	err := h.run("extract", "--text", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestExtractCommand_WithProgress(t *testing.T) {
	h := newHarness()
	h.deps.Progress = true
	h.deps.Err = io.Discard
	require.NoError(t, h.run("extract", "--text", "Quiz on Feb 1", "--json", "/e.json"))
	ok, err := afero.Exists(h.fs, "/e.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExtractCommand_Directory(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/term/b.pdf", []byte("%PDF"), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, "/term/a.docx", []byte("PK"), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, "/term/readme.txt", []byte("skip"), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, "/term/.trash/c.pdf", []byte("%PDF"), 0o644))

	require.NoError(t, h.run("extract", "--json", "/events.json", "/term"))
	assert.ElementsMatch(t, []string{"a.docx", "b.pdf"}, h.proc.seen)
}

func TestWatchCommand_RequiresDirs(t *testing.T) {
	h := newHarness()
	err := h.run("watch", "--out-dir", "/out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one directory")
}

func TestICSName(t *testing.T) {
	assert.Equal(t, "cs350.ics", icsName("cs350.pdf"))
	assert.Equal(t, "notes.v2.ics", icsName("notes.v2.docx"))
	assert.Equal(t, "plain.ics", icsName("plain"))
}

func TestEditCommand_Update(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/events.json", []byte(eventsJSON), 0o644))

	require.NoError(t, h.run("edit", "--in", "/events.json", "--id", "e2",
		"--title", "Final essay", "--date", "Feb 10, 2026", "--time", "5:00 pm", "--out", "/edited.json"))
	assert.Contains(t, h.out.String(), "updated e2")

	events, err := readEvents(h.fs, "/edited.json")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Midterm", events[0].Title)
	assert.Equal(t, "Final essay", events[1].Title)
	assert.Equal(t, "2026-02-10", events[1].Date)
	assert.Equal(t, "17:00", events[1].Clock())

	original, err := readEvents(h.fs, "/events.json")
	require.NoError(t, err)
	assert.Equal(t, "Essay", original[1].Title, "--out leaves the input alone")
}

func TestEditCommand_AllDayAndDelete(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/events.json", []byte(eventsJSON), 0o644))

	require.NoError(t, h.run("edit", "--in", "/events.json", "--id", "e1", "--all-day"))
	events, err := readEvents(h.fs, "/events.json")
	require.NoError(t, err)
	assert.True(t, events[0].AllDay())

	require.NoError(t, h.run("edit", "--in", "/events.json", "--id", "e1", "--delete"))
	events, err = readEvents(h.fs, "/events.json")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e2", events[0].ID)
}

func TestEditCommand_Rejects(t *testing.T) {
	h := newHarness()
	require.NoError(t, afero.WriteFile(h.fs, "/events.json", []byte(eventsJSON), 0o644))

	err := h.run("edit", "--in", "/events.json", "--id", "e1", "--date", "2026-02-30")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindBadInput))
	assert.Contains(t, common.UserMessage(err), "must be a real calendar date")

	err = h.run("edit", "--in", "/events.json", "--id", "missing", "--title", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no event with id "missing"`)

	err = h.run("edit", "--in", "/events.json", "--id", "missing", "--delete")
	require.Error(t, err)

	raw, err := afero.ReadFile(h.fs, "/events.json")
	require.NoError(t, err)
	assert.Equal(t, eventsJSON, string(raw), "failed edits do not rewrite the file")
}

func TestDrainWatch_SurvivesClosedErrors(t *testing.T) {
	h := newHarness()
	h.deps.defaults()

	paths := make(chan string)
	errs := make(chan error)

	var handled []string
	done := make(chan error, 1)
	go func() {
		done <- drainWatch(&h.deps, paths, errs, func(p string) error {
			handled = append(handled, p)
			if strings.HasSuffix(p, "bad.pdf") {
				return errors.New("unreadable")
			}
			return nil
		})
	}()

	errs <- errors.New("inotify overflow")
	close(errs)
	paths <- "/drop/cs350.pdf"
	paths <- "/drop/bad.pdf"
	close(paths)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"/drop/cs350.pdf", "/drop/bad.pdf"}, handled)
	assert.Equal(t, 1, strings.Count(h.err.String(), "watch: inotify overflow"))
	assert.Contains(t, h.err.String(), "bad.pdf: unreadable")
}
