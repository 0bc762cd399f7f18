package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/extract"
	"github.com/joseph-ayodele/syllabus-calendar/internal/llm/openai"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
)

// NewFromConfig wires the extractor, the OpenAI gateway and the normalizer.
func NewFromConfig(cfg *common.Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}

	ex := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		HeicConverter: cfg.Extract.HeicConverter,
	}, extract.NewExecRunner(logger), logger)

	gw := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		TextModel:   cfg.LLM.TextModel,
		VisionModel: cfg.LLM.VisionModel,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	norm, err := normalize.NewNormalizer(logger)
	if err != nil {
		return nil, common.KindError(common.KindInternal, err)
	}

	logger.Info("pipeline.ready",
		"text_model", cfg.LLM.TextModel,
		"vision_model", cfg.LLM.VisionModel,
		"max_doc_bytes", cfg.Limits.MaxDocBytes,
		"max_image_bytes", cfg.Limits.MaxImageBytes,
	)
	return NewProcessor(Limits{
		MaxDocBytes:   cfg.Limits.MaxDocBytes,
		MaxImageBytes: cfg.Limits.MaxImageBytes,
	}, ex, gw, norm, logger), nil
}
