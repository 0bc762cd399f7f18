package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

// toImage encodes an image upload as a data URL. HEIC/HEIF is converted to PNG
// first when a converter is configured; otherwise the original bytes pass through.
func (e *Extractor) toImage(ctx context.Context, mimeType string, data []byte) (*entity.Image, []string) {
	var warnings []string
	if (mimeType == constants.MIMEHEIC || mimeType == constants.MIMEHEIF) && e.cfg.HeicConverter != "" {
		png, errb, err := e.convertHEICtoPNG(ctx, data)
		if err != nil {
			e.logger.Warn("extract.heic.convert_failed",
				"converter", e.cfg.HeicConverter, "error", err)
			warnings = append(warnings, "heic conversion failed: "+err.Error())
			if len(errb) > 0 {
				warnings = append(warnings, strings.TrimSpace(string(errb)))
			}
		} else {
			mimeType, data = constants.MIMEPNG, png
		}
	}
	return &entity.Image{
		MIME:    mimeType,
		DataURL: DataURL(mimeType, data),
	}, warnings
}

// DataURL renders data as "data:<mime>;base64,<payload>".
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (e *Extractor) convertHEICtoPNG(ctx context.Context, data []byte) ([]byte, []byte, error) {
	tmpDir, err := os.MkdirTemp("", "sc-heic-*")
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "input.heic")
	out := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, nil, err
	}

	var errb []byte
	switch e.cfg.HeicConverter {
	case "heif-convert":
		_, errb, err = e.runner.Run(ctx, "heif-convert", in, out)
	case "magick":
		_, errb, err = e.runner.Run(ctx, "magick", in, out)
	case "sips":
		_, errb, err = e.runner.Run(ctx, "sips", "-s", "format", "png", in, "--out", out)
	default:
		return nil, nil, fmt.Errorf("unknown heic converter %q: use heif-convert | magick | sips", e.cfg.HeicConverter)
	}
	if err != nil {
		return nil, errb, fmt.Errorf("%s failed: %w", e.cfg.HeicConverter, err)
	}

	png, err := os.ReadFile(out)
	if err != nil {
		return nil, errb, fmt.Errorf("heic conversion produced no output: %w", err)
	}
	return png, nil, nil
}
