package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
	"github.com/joseph-ayodele/syllabus-calendar/internal/review"
)

// Processor runs one extraction.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (normalize.Result, error)
}

// Handlers holds dependencies for the tool handlers.
type Handlers struct {
	proc    Processor
	encoder *calendar.Encoder
	logger  *slog.Logger
}

func NewHandlers(proc Processor, enc *calendar.Encoder, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if enc == nil {
		enc = calendar.NewEncoder(logger)
	}
	return &Handlers{proc: proc, encoder: enc, logger: logger}
}

type ExtractRequest struct {
	Text       string `json:"text"`
	CourseName string `json:"course_name,omitempty"`
}

type EventsRequest struct {
	Events []entity.DeadlineEvent `json:"events"`
	Format string                 `json:"format,omitempty"`
}

type CalendarResult struct {
	ICS      string         `json:"ics"`
	FileName string         `json:"file_name"`
	Encoded  int            `json:"encoded"`
	Dropped  []string       `json:"dropped,omitempty"`
	Invalid  []review.Issue `json:"invalid,omitempty"`
}

type SummaryResult struct {
	Format  string `json:"format"`
	Summary string `json:"summary"`
}

func (h *Handlers) HandleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExtractRequest](req)
	if err != nil {
		return errorResult(common.NewAppError(common.KindBadInput, "Invalid tool arguments.", err)), nil
	}

	res, err := h.proc.Process(ctx, pipeline.Submission{Source: constants.SourceText, Text: input.Text})
	if err != nil {
		h.logger.Warn("mcp.extract.failed", "kind", common.KindOf(err), "err", err)
		return errorResult(err), nil
	}

	out := res.ParseResult()
	if course := strings.TrimSpace(input.CourseName); course != "" {
		out.CourseName = course
		for i := range out.Events {
			out.Events[i].Course = course
		}
	}
	h.logger.Info("mcp.extract.ok", "events", len(out.Events))
	return mcp.NewToolResultJSON(out)
}

func (h *Handlers) HandleBuildCalendar(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsRequest](req)
	if err != nil {
		return errorResult(common.NewAppError(common.KindBadInput, "Invalid tool arguments.", err)), nil
	}

	data, rep, err := h.encoder.Encode(input.Events)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultJSON(CalendarResult{
		ICS:      string(data),
		FileName: constants.CalendarFileName,
		Encoded:  rep.Encoded,
		Dropped:  rep.Dropped,
		Invalid:  review.Check(input.Events),
	})
}

func (h *Handlers) HandleSummarize(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsRequest](req)
	if err != nil {
		return errorResult(common.NewAppError(common.KindBadInput, "Invalid tool arguments.", err)), nil
	}

	switch input.Format {
	case "", "text":
		return mcp.NewToolResultJSON(SummaryResult{Format: "text", Summary: calendar.Summary(input.Events)})
	case "html":
		html, err := calendar.SummaryHTML(input.Events)
		if err != nil {
			return errorResult(err), nil
		}
		return mcp.NewToolResultJSON(SummaryResult{Format: "html", Summary: html})
	default:
		return errorResult(common.NewAppError(common.KindBadInput, "format must be text or html", nil)), nil
	}
}

// errorResult marks the result as an error; causes are never included.
func errorResult(err error) *mcp.CallToolResult {
	var ae *common.AppError
	kind := common.KindInternal
	if errors.As(err, &ae) {
		kind = ae.Kind
	}
	payload := map[string]any{
		"error": map[string]any{
			"code":    string(kind),
			"message": common.UserMessage(err),
			"status":  common.HTTPStatus(err),
		},
	}
	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}
