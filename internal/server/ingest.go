package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
)

const multipartMemory = 8 << 20

// Parse handles POST /api/parse: a multipart form with type=file|text and
// either a "file" part or a "text" field.
func (s *Server) Parse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := common.RequestIDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.logger.Warn("parse.request.too_large", "req_id", reqID, "limit", tooBig.Limit)
			writeError(w, common.NewAppError(common.KindTooLarge, tooLargeMessage(s.cfg), err))
			return
		}
		s.logger.Warn("parse.request.bad_form", "req_id", reqID, "err", err)
		writeError(w, common.NewAppError(common.KindBadInput, "", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	sub, err := submissionFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("parse.request.start",
		"req_id", reqID,
		"source", sub.Source,
		"addr", common.ClientAddrFromContext(ctx),
	)
	res, err := s.proc.Process(ctx, sub)
	if err != nil {
		level := slog.LevelWarn
		if common.IsKind(err, common.KindInternal) {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "parse.request.failed", "req_id", reqID, "kind", common.KindOf(err), "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.ParseResult())
}

// tooLargeMessage is used when the body overflows before the part's type is known.
func tooLargeMessage(cfg Config) string {
	return "File too large. Maximum size is " + constants.SizeLabel(cfg.MaxDocBytes) +
		" for documents and " + constants.SizeLabel(cfg.MaxImageBytes) + " for images."
}

func submissionFromForm(r *http.Request) (pipeline.Submission, error) {
	if strings.EqualFold(r.FormValue("type"), string(constants.SourceText)) {
		return pipeline.Submission{Source: constants.SourceText, Text: r.FormValue("text")}, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return pipeline.Submission{Source: constants.SourceFile}, nil
		}
		return pipeline.Submission{}, common.NewAppError(common.KindBadInput, "", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.Submission{}, common.NewAppError(common.KindBadInput, "", err)
	}

	mime := constants.NormalizeMIME(header.Header.Get("Content-Type"))
	if mime == "" || mime == "application/octet-stream" {
		if guess := constants.MIMEFromExt(filepath.Ext(header.Filename)); guess != "" {
			mime = guess
		}
	}
	doc := &entity.Document{Name: header.Filename, MIME: mime, Data: data}
	return pipeline.Submission{Source: constants.SourceFile, Document: doc}, nil
}
