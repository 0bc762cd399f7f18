package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// pdfToText shells out to pdftotext. Pages are separated by form feeds in its output.
func (e *Extractor) pdfToText(ctx context.Context, data []byte) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "sc-pdf-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("extract.pdf.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	in := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", 0, nil, fmt.Errorf("write temp pdf: %w", err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", in, "-")
	if err != nil {
		if len(errb) > 0 {
			warnings = append(warnings, strings.TrimSpace(string(errb)))
		}
		return "", 0, warnings, fmt.Errorf("pdftotext: %w", err)
	}
	text = strings.TrimRight(string(out), "\f")
	pages = 1 + strings.Count(text, "\f")
	text = strings.ReplaceAll(text, "\f", "\n")
	return text, pages, nil, nil
}
