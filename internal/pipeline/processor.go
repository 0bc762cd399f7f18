package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/extract"
	"github.com/joseph-ayodele/syllabus-calendar/internal/llm"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
)

const (
	msgNoFile = "No file provided."
	msgNoText = "No text provided."
)

// Submission is one unit of work: an uploaded document or pasted text.
type Submission struct {
	Source   constants.ItemSource
	Document *entity.Document
	Text     string
}

// Limits are the per-type size caps enforced at admission.
type Limits struct {
	MaxDocBytes   int64
	MaxImageBytes int64
}

// Processor runs admission, extraction, the completion call and normalization.
type Processor struct {
	extractor  extract.DocumentExtractor
	gateway    llm.Gateway
	normalizer *normalize.Normalizer
	limits     Limits
	logger     *slog.Logger
}

func NewProcessor(limits Limits, ex extract.DocumentExtractor, gw llm.Gateway, norm *normalize.Normalizer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.MaxDocBytes <= 0 {
		limits.MaxDocBytes = constants.MaxDocBytes
	}
	if limits.MaxImageBytes <= 0 {
		limits.MaxImageBytes = constants.MaxImageBytes
	}
	return &Processor{extractor: ex, gateway: gw, normalizer: norm, limits: limits, logger: logger}
}

// Admit checks presence, type and size without doing any work.
func (p *Processor) Admit(sub Submission) error {
	if sub.Source == constants.SourceText {
		if strings.TrimSpace(sub.Text) == "" {
			return common.NewAppError(common.KindBadInput, msgNoText, common.ErrInvalidInput)
		}
		return nil
	}
	if sub.Document == nil {
		return common.NewAppError(common.KindBadInput, msgNoFile, common.ErrInvalidInput)
	}
	mime := constants.NormalizeMIME(sub.Document.MIME)
	if !constants.IsAccepted(mime) {
		return common.NewAppError(common.KindUnsupportedType, "", nil)
	}
	limit := constants.MaxSize(mime, p.limits.MaxDocBytes, p.limits.MaxImageBytes)
	if sub.Document.Size() > limit {
		return common.NewAppError(common.KindTooLarge,
			"File too large. Maximum size is "+constants.SizeLabel(limit)+".", nil)
	}
	return nil
}

// Process runs one submission end to end. Every error carries a common.Kind.
func (p *Processor) Process(ctx context.Context, sub Submission) (normalize.Result, error) {
	start := time.Now()
	trace := common.TraceID(ctx)

	if err := p.Admit(sub); err != nil {
		p.logger.Warn("pipeline.admit.rejected", "req_id", trace, "kind", common.KindOf(err))
		return normalize.Result{}, err
	}

	req, err := p.request(ctx, sub)
	if err != nil {
		return normalize.Result{}, err
	}

	raw, err := p.gateway.Complete(ctx, req)
	if err != nil {
		p.logger.Error("pipeline.gateway.failed", "req_id", trace, "err", err)
		var ae *common.AppError
		if !errors.As(err, &ae) {
			err = common.KindError(common.KindGatewayUnavailable, err)
		}
		return normalize.Result{}, err
	}

	res, err := p.normalizer.Parse(ctx, raw)
	if err != nil {
		p.logger.Warn("pipeline.normalize.failed", "req_id", trace, "kind", common.KindOf(err), "raw_len", len(raw))
		return normalize.Result{}, err
	}

	p.logger.Info("pipeline.process.ok",
		"req_id", trace,
		"source", sub.Source,
		"course", res.CourseName,
		"events", len(res.Events),
		"dropped", res.Dropped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) request(ctx context.Context, sub Submission) (llm.Request, error) {
	if sub.Source == constants.SourceText {
		return llm.Request{Text: strings.TrimSpace(sub.Text)}, nil
	}

	doc := *sub.Document
	doc.MIME = constants.NormalizeMIME(doc.MIME)
	payload, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		p.logger.Warn("pipeline.extract.failed", "req_id", common.TraceID(ctx), "mime", doc.MIME, "kind", common.KindOf(err))
		return llm.Request{}, err
	}
	p.logger.Debug("pipeline.extract.ok",
		"req_id", common.TraceID(ctx),
		"method", payload.Method,
		"pages", payload.Pages,
		"text_len", len(payload.Text),
		"warnings", len(payload.Warnings),
	)
	if payload.Image != nil {
		return llm.Request{Image: payload.Image}, nil
	}
	return llm.Request{Text: payload.Text}, nil
}
