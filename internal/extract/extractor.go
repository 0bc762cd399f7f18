package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

type Config struct {
	Pdftotext     string // binary name or absolute path; if empty -> "pdftotext"
	HeicConverter string // "" (passthrough) | "heif-convert" | "magick" | "sips"
}

// Extractor dispatches on the declared MIME type.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract returns text for PDF/DOCX/XLSX and a visual payload for images.
// Decode failures are ExtractionFailed; blank text is ExtractionEmpty.
func (e *Extractor) Extract(ctx context.Context, doc entity.Document) (Payload, error) {
	start := time.Now()
	mimeType := constants.NormalizeMIME(doc.MIME)
	trace := common.TraceID(ctx)

	e.logger.Info("extract.start",
		"trace_id", trace,
		"name", doc.Name,
		"mime", mimeType,
		"bytes", len(doc.Data),
	)

	if !constants.IsAccepted(mimeType) {
		return Payload{}, common.KindError(common.KindUnsupportedType,
			fmt.Errorf("unsupported mime %q", mimeType))
	}

	if constants.IsImage(mimeType) {
		img, warns := e.toImage(ctx, mimeType, doc.Data)
		p := Payload{Image: img, Method: MethodImage, Pages: 1, Warnings: warns, Duration: time.Since(start)}
		e.logger.Info("extract.ok",
			"trace_id", trace, "method", p.Method, "image_mime", img.MIME,
			"elapsed_ms", p.Duration.Milliseconds(),
		)
		return p, nil
	}

	var (
		p   Payload
		err error
	)
	switch mimeType {
	case constants.MIMEPDF:
		p.Method = MethodPDFText
		p.Text, p.Pages, p.Warnings, err = e.pdfToText(ctx, doc.Data)
	case constants.MIMEDOCX:
		p.Method = MethodDOCX
		p.Pages = 1
		p.Text, err = docxToText(doc.Data)
	case constants.MIMEXLSX, constants.MIMEXLS:
		p.Method = MethodXLSX
		p.Text, p.Pages, err = xlsxToText(doc.Data)
	}
	p.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("extract.failed",
			"trace_id", trace, "method", p.Method, "error", err,
			"elapsed_ms", p.Duration.Milliseconds(),
		)
		return Payload{}, common.KindError(common.KindExtractionFailed, err)
	}

	p.Text = Normalize(p.Text)
	if strings.TrimSpace(p.Text) == "" {
		e.logger.Warn("extract.empty",
			"trace_id", trace, "method", p.Method,
			"elapsed_ms", p.Duration.Milliseconds(),
		)
		return Payload{}, common.KindError(common.KindExtractionEmpty, fmt.Errorf("%s produced no text", p.Method))
	}

	e.logger.Info("extract.ok",
		"trace_id", trace,
		"method", p.Method,
		"pages", p.Pages,
		"text_len", len(p.Text),
		"warnings", len(p.Warnings),
		"elapsed_ms", p.Duration.Milliseconds(),
	)
	return p, nil
}
