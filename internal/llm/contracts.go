package llm

import (
	"context"

	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

// Request carries exactly one user payload: extracted or pasted text, or an image.
type Request struct {
	Text  string
	Image *entity.Image
}

// Gateway sends the fixed system prompt plus one payload to a completion endpoint
// and returns the raw assistant content. It never retries.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}
