package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/llm"
)

var _ llm.Gateway = (*Client)(nil)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements llm.Gateway over chat/completions in JSON mode.
// Text payloads use the text model; image payloads use the vision model.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	rid := common.TraceID(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	if strings.TrimSpace(req.Text) == "" && req.Image == nil {
		return "", common.NewAppError(common.KindBadInput, "No text provided.", common.ErrInvalidInput)
	}

	model := c.cfg.TextModel
	var user any = req.Text
	if req.Image != nil {
		model = c.cfg.VisionModel
		user = []map[string]any{
			{"type": "text", "text": llm.ImageInstruction},
			{"type": "image_url", "image_url": map[string]any{"url": req.Image.DataURL}},
		}
	}

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"model", model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"has_image", req.Image != nil,
	)

	body := map[string]any{
		"model":           model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": user},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	cc, err := llm.PostJSON[chatResponse](ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		attrs := []any{"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds()}
		var se *llm.StatusError
		if errors.As(err, &se) {
			attrs = append(attrs, "status", se.Status, "body", se.Body)
		}
		c.logger.Error("llm.complete.http_error", attrs...)
		return "", common.KindError(common.KindGatewayUnavailable, fmt.Errorf("openai: %w", err))
	}

	if len(cc.Choices) == 0 || cc.Choices[0].Message.Content == nil ||
		strings.TrimSpace(*cc.Choices[0].Message.Content) == "" {
		c.logger.Error("llm.complete.empty",
			"req_id", rid, "choices", len(cc.Choices),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.KindError(common.KindEmptyResponse, errors.New("no content in openai response"))
	}

	content := strings.TrimSpace(*cc.Choices[0].Message.Content)
	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"model", model,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
