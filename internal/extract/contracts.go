package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

// DocumentExtractor turns an uploaded document into something the model can read.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc entity.Document) (Payload, error)
}

// Payload carries exactly one of Text or Image.
type Payload struct {
	Text     string
	Image    *entity.Image
	Method   string // "pdf-text" | "docx" | "xlsx" | "image"
	Pages    int
	Duration time.Duration
	Warnings []string
}

const (
	MethodPDFText = "pdf-text"
	MethodDOCX    = "docx"
	MethodXLSX    = "xlsx"
	MethodImage   = "image"
)
