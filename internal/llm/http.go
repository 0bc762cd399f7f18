package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
)

// maxResponseBytes bounds how much of a completion response is read.
const maxResponseBytes = 4 << 20

// StatusError is a non-2xx reply from the completion endpoint.
type StatusError struct {
	Status int
	Body   string // first bytes of the reply, for logs only
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint returned %d", e.Status)
}

// PostJSON posts body as JSON to url and decodes the 2xx reply into Resp.
// Headers override the default Content-Type.
func PostJSON[Resp any](ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) (Resp, error) {
	var out Resp
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	reqID := common.TraceID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("llm.http.request", "req_id", reqID, "url", url, "content_length", len(payload))

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return out, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	logger.Info("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := raw
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return out, &StatusError{Status: resp.StatusCode, Body: string(snippet)}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
